package tcp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync/atomic"
	"tcp-chat/domain"
	"tcp-chat/domain/event"
	"tcp-chat/observability"
	"tcp-chat/runtime"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const readTimeout = 2 * time.Second

var testConfig = SessionConfig{
	OutboxSize:      64,
	MaxLineLength:   1024,
	DeliveryTimeout: time.Second,
	DrainTimeout:    time.Second,
}

// chatServer wires a listener with the real registry, broadcaster and coordinator.
type chatServer struct {
	t           *testing.T
	registry    *runtime.Registry
	listener    *Listener
	coordinator *runtime.Coordinator
	events      chan event.DomainEvent
	runErr      chan error
}

func startChatServer(t *testing.T) *chatServer {
	return startChatServerOn(t, nil)
}

// startChatServerOn runs the server on ln, or on a fresh loopback listener when nil.
func startChatServerOn(t *testing.T, ln net.Listener) *chatServer {
	t.Helper()
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", "127.0.0.1:0")
		req.NoError(err)
	}

	registry := runtime.NewRegistry()
	monitoring := observability.NewMonitoring()
	events := make(chan event.DomainEvent, 1024)
	broadcaster := runtime.NewBroadcaster(log, registry, events, monitoring, time.Second)
	listener := NewListener(log, ln, registry, broadcaster, monitoring, testConfig)
	coordinator := runtime.NewCoordinator(log, listener, registry, 2*time.Second)

	server := &chatServer{
		t:           t,
		registry:    registry,
		listener:    listener,
		coordinator: coordinator,
		events:      events,
		runErr:      make(chan error, 1),
	}
	go func() {
		server.runErr <- listener.Run(context.Background())
	}()
	t.Cleanup(coordinator.Shutdown)
	return server
}

func (s *chatServer) dial() *chatClient {
	s.t.Helper()
	conn, err := net.Dial("tcp", s.listener.Addr().String())
	require.NoError(s.t, err)
	s.t.Cleanup(func() { _ = conn.Close() })
	return &chatClient{t: s.t, conn: conn, reader: bufio.NewReader(conn)}
}

// join dials and goes through the whole handshake as name.
func (s *chatServer) join(name string) *chatClient {
	s.t.Helper()
	c := s.dial()
	c.expect(domain.WelcomePrompt)
	c.send(name)
	c.expect(domain.JoinedLine(name))
	c.expect(domain.ConnectedAs(name))
	c.expect(domain.QuitInstructions)
	return c
}

func (s *chatServer) waitForSessions(n int) {
	s.t.Helper()
	require.Eventually(s.t, func() bool { return s.registry.Len() == n },
		readTimeout, 5*time.Millisecond, "expected %d registered sessions", n)
}

// drainEvents returns every event published so far.
func (s *chatServer) drainEvents() []event.DomainEvent {
	var res []event.DomainEvent
	for {
		select {
		case e := <-s.events:
			res = append(res, e)
		default:
			return res
		}
	}
}

type chatClient struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

func (c *chatClient) send(line string) {
	c.t.Helper()
	_, err := fmt.Fprintf(c.conn, "%s\n", line)
	require.NoError(c.t, err)
}

func (c *chatClient) readLine() (string, error) {
	_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	line, err := c.reader.ReadString('\n')
	return strings.TrimRight(line, "\r\n"), err
}

func (c *chatClient) expect(expected string) {
	c.t.Helper()
	line, err := c.readLine()
	require.NoError(c.t, err)
	require.Equal(c.t, expected, line)
}

// expectClosed reads until the server closes the connection.
func (c *chatClient) expectClosed() {
	c.t.Helper()
	for {
		_, err := c.readLine()
		if err == nil {
			continue
		}
		// EOF most of the time, a reset is fine too
		if err != io.EOF {
			c.t.Logf("connection ended with %v", err)
		}
		return
	}
}

// brokenListener turns the next accept into a failure once broken.
type brokenListener struct {
	net.Listener
	broken atomic.Bool
}

func (b *brokenListener) Accept() (net.Conn, error) {
	conn, err := b.Listener.Accept()
	if err != nil && b.broken.Load() {
		return nil, fmt.Errorf("accept tcp: socket failure")
	}
	return conn, err
}

func (b *brokenListener) Break() {
	b.broken.Store(true)
	_ = b.Listener.Close()
}
