package tcp

import (
	"bufio"
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"tcp-chat/contract"
	"tcp-chat/domain"
	"tcp-chat/domain/event"
	"tcp-chat/errors"
	"time"
)

type SessionConfig struct {
	OutboxSize      int
	MaxLineLength   int
	DeliveryTimeout time.Duration
	DrainTimeout    time.Duration
}

// Session runs the protocol of one connection:
// HANDSHAKE -> ACTIVE -> CLOSING -> CLOSED.
//
// The session owns its connection and its outbox. The registry only holds a
// reference and the broadcaster only queues lines through Deliver.
type Session struct {
	id          domain.SessionID
	conn        net.Conn
	scanner     *bufio.Scanner
	outbox      *Outbox
	registry    contract.IRegistry
	broadcaster contract.IBroadcaster
	log         *slog.Logger
	config      SessionConfig
	remoteAddr  string

	mu       sync.RWMutex
	name     string
	joinedAt time.Time
	messages int

	state      atomic.Int32
	terminated atomic.Bool
	stalled    atomic.Bool
	closeOnce  sync.Once
	closeErr   error
}

func NewSession(log *slog.Logger, conn net.Conn, registry contract.IRegistry,
	broadcaster contract.IBroadcaster, config SessionConfig) *Session {
	id := domain.NewSessionID()
	remoteAddr := conn.RemoteAddr().String()

	scanner := bufio.NewScanner(conn)
	if config.MaxLineLength > 0 {
		scanner.Buffer(make([]byte, 0, min(config.MaxLineLength, 4096)), config.MaxLineLength)
	}

	sessionLog := log.With("session_id", id.String(), "remote_addr", remoteAddr)
	return &Session{
		id:          id,
		conn:        conn,
		scanner:     scanner,
		outbox:      NewOutbox(sessionLog, conn, config.OutboxSize),
		registry:    registry,
		broadcaster: broadcaster,
		log:         sessionLog,
		config:      config,
		remoteAddr:  remoteAddr,
		name:        domain.DefaultName,
	}
}

func (s *Session) ID() domain.SessionID {
	return s.id
}

func (s *Session) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *Session) State() domain.SessionState {
	return domain.SessionState(s.state.Load())
}

// Deliver queues a line for this participant.
// A peer whose queue stays full until ctx expires has stopped reading:
// its connection is closed and the handler leaves with reason error,
// so it never holds up the next broadcast.
func (s *Session) Deliver(ctx context.Context, line string) error {
	if s.State() == domain.Closed || s.stalled.Load() {
		return errors.ErrSessionClosed
	}
	err := s.outbox.Consume(ctx, line)
	if stderrors.Is(err, context.DeadlineExceeded) && !s.stalled.Swap(true) {
		s.log.Warn("Peer stopped reading, closing connection")
		_ = s.closeConn()
	}
	return err
}

// Terminate forcibly closes the connection. The blocked read of the session
// fails and the handler leaves through CLOSING on its own.
func (s *Session) Terminate() error {
	s.terminated.Store(true)
	return s.closeConn()
}

// Run drives the session until CLOSED. It returns once every resource
// of the session has been released.
func (s *Session) Run(ctx context.Context) {
	go s.outbox.Run()

	s.handshake(ctx)

	if err := s.activate(ctx); err != nil {
		s.log.Error("Session could not join", "error", err)
		s.release()
		return
	}

	reason := s.serve(ctx)
	s.leave(ctx, reason)
}

// handshake always ends with a name, whatever the read returned.
func (s *Session) handshake(ctx context.Context) {
	s.send(ctx, domain.WelcomePrompt)
	line, err := s.readLine()
	name := domain.ResolveName(line, err == nil)

	s.mu.Lock()
	s.name = name
	s.mu.Unlock()
}

func (s *Session) activate(ctx context.Context) error {
	s.state.Store(int32(domain.Active))
	name := s.Name()

	joinedAt := time.Now().UTC()
	s.mu.Lock()
	s.joinedAt = joinedAt
	s.mu.Unlock()

	if err := s.registry.Insert(s); err != nil {
		return err
	}
	s.log.Debug("Session registered", "name", name)

	s.broadcaster.Announce(ctx, event.ParticipantJoined{
		ID:         s.id,
		Name:       name,
		RemoteAddr: s.remoteAddr,
		At:         joinedAt,
	})
	s.send(ctx, domain.ConnectedAs(name))
	s.send(ctx, domain.QuitInstructions)
	return nil
}

// serve reads lines until the participant quits or the connection ends.
func (s *Session) serve(ctx context.Context) domain.LeaveReason {
	name := s.Name()
	for {
		line, err := s.readLine()
		if err != nil {
			return s.reasonFor(err)
		}

		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case domain.IsQuit(line):
			return domain.ReasonQuit
		}

		s.mu.Lock()
		s.messages++
		s.mu.Unlock()

		s.broadcaster.Announce(ctx, event.MessagePosted{
			ID:      s.id,
			Author:  name,
			Content: line,
			At:      time.Now().UTC(),
		})
	}
}

// leave says goodbye, deregisters and announces the departure exactly once.
func (s *Session) leave(ctx context.Context, reason domain.LeaveReason) {
	s.state.Store(int32(domain.Closing))
	s.send(ctx, domain.Goodbye)

	if !s.registry.Remove(s.id) {
		s.log.Warn("Session was not registered anymore")
	}

	s.mu.RLock()
	left := event.ParticipantLeft{
		ID:         s.id,
		Name:       s.name,
		RemoteAddr: s.remoteAddr,
		JoinedAt:   s.joinedAt,
		At:         time.Now().UTC(),
		Reason:     reason,
		Messages:   s.messages,
	}
	s.mu.RUnlock()

	s.broadcaster.Announce(ctx, left)
	s.log.Debug("Session left", "name", left.Name, "reason", string(reason))
	s.release()
}

// release flushes the outbox before closing the connection.
func (s *Session) release() {
	if err := s.outbox.Close(s.config.DrainTimeout); err != nil {
		s.log.Debug("Outbox not flushed in time", "error", err)
	}
	if err := s.closeConn(); err != nil && !isClosedConnError(err) {
		s.log.Debug("Error while closing connection", "error", err)
	}
	s.state.Store(int32(domain.Closed))
}

// send is best-effort, a failure only means the peer won't see the line.
func (s *Session) send(ctx context.Context, line string) {
	if s.config.DeliveryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.DeliveryTimeout)
		defer cancel()
	}
	if err := s.outbox.Consume(ctx, line); err != nil {
		s.log.Debug("Line not sent", "error", err)
	}
}

func (s *Session) readLine() (string, error) {
	if s.scanner.Scan() {
		return s.scanner.Text(), nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *Session) reasonFor(err error) domain.LeaveReason {
	switch {
	case s.stalled.Load():
		return domain.ReasonError
	case s.terminated.Load():
		return domain.ReasonShutdown
	case err == io.EOF:
		return domain.ReasonEOF
	default:
		s.log.Debug("Read failed", "error", err)
		return domain.ReasonError
	}
}

func (s *Session) closeConn() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}
