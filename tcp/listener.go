// Package tcp serves the line based chat protocol over TCP.
// One goroutine runs per connection, plus one writer goroutine per outbox.
package tcp

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"tcp-chat/contract"
	"tcp-chat/domain"
	"tcp-chat/errors"
	"tcp-chat/observability"

	"github.com/samber/lo"
)

// Listener accepts connections and runs a Session for each of them.
// There is no admission limit.
//
// It keeps track of every session it started, including the ones still in
// HANDSHAKE that the registry doesn't know about yet, so Close can end them all.
type Listener struct {
	log         *slog.Logger
	listener    net.Listener
	registry    contract.IRegistry
	broadcaster contract.IBroadcaster
	monitoring  *observability.Monitoring
	config      SessionConfig

	wg       sync.WaitGroup
	mu       sync.Mutex
	sessions map[domain.SessionID]*Session
	closed   bool
}

// Listen binds address and returns a Listener ready to Run.
func Listen(log *slog.Logger, address string, registry contract.IRegistry,
	broadcaster contract.IBroadcaster, monitoring *observability.Monitoring,
	config SessionConfig) (*Listener, error) {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	return NewListener(log, ln, registry, broadcaster, monitoring, config), nil
}

func NewListener(log *slog.Logger, ln net.Listener, registry contract.IRegistry,
	broadcaster contract.IBroadcaster, monitoring *observability.Monitoring,
	config SessionConfig) *Listener {
	return &Listener{
		log:         log,
		listener:    ln,
		registry:    registry,
		broadcaster: broadcaster,
		monitoring:  monitoring,
		config:      config,
		sessions:    make(map[domain.SessionID]*Session),
	}
}

func (l *Listener) Addr() net.Addr {
	return l.listener.Addr()
}

// Run accepts connections until Close is called, then returns nil.
// Any other accept failure is fatal: the loop stops and the error,
// wrapping ErrListenerFailed, is returned so the caller can shut down.
//
// Sessions don't inherit the cancellation of ctx: the only way to stop
// them is to close their connection.
func (l *Listener) Run(ctx context.Context) error {
	l.log.Info("Waiting for clients", "address", l.Addr().String())
	sessionCtx := context.WithoutCancel(ctx)

	for {
		conn, err := l.listener.Accept()
		if err != nil {
			if l.isClosed() {
				l.log.Info("Listener stopped")
				return nil
			}
			l.log.Error("Accept failed, no new connection will be accepted", "error", err)
			return fmt.Errorf("%w: %v", errors.ErrListenerFailed, err)
		}
		l.monitoring.IncrAccepted()

		session := NewSession(l.log, conn, l.registry, l.broadcaster, l.config)
		if !l.track(session) {
			l.log.Debug("Listener closed, dropping connection", "remote_addr", conn.RemoteAddr().String())
			_ = conn.Close()
			continue
		}

		go func() {
			defer l.untrack(session)
			session.Run(sessionCtx)
		}()
	}
}

// Close stops accepting and forcibly terminates every running session.
// Safe to call more than once.
func (l *Listener) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	running := lo.Values(l.sessions)
	l.mu.Unlock()

	err := l.listener.Close()
	for _, session := range running {
		_ = session.Terminate()
	}
	if err != nil && !isClosedConnError(err) {
		return err
	}
	return nil
}

// Wait blocks until every session handler returned or ctx is done.
func (l *Listener) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Running returns the number of sessions whose handler has not returned yet.
func (l *Listener) Running() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sessions)
}

func (l *Listener) track(session *Session) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.sessions[session.ID()] = session
	l.wg.Add(1)
	return true
}

func (l *Listener) untrack(session *Session) {
	l.mu.Lock()
	delete(l.sessions, session.ID())
	l.mu.Unlock()
	l.wg.Done()
}

func (l *Listener) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func isClosedConnError(err error) bool {
	return stderrors.Is(err, net.ErrClosed)
}
