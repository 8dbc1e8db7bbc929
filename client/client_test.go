package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"tcp-chat/domain"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// fakeServer records every line and says goodbye on /quit.
func fakeServer(t *testing.T) (net.Conn, <-chan string) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	received := make(chan string, 10)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = fmt.Fprintln(conn, domain.WelcomePrompt)
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			received <- scanner.Text()
			if domain.IsQuit(scanner.Text()) {
				_, _ = fmt.Fprintln(conn, domain.Goodbye)
				return
			}
		}
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn, received
}

func TestChat_Username_Messages_And_Quit(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	conn, received := fakeServer(t)
	stdout := &lockedBuffer{}

	// Given a user typing a name, a message, a blank line and /quit
	stdin := strings.NewReader("alice\nhello\n\n/QUIT\n")

	// When chatting
	err := chat(context.Background(), log, conn, stdin, stdout, time.Second)
	req.NoError(err)

	// Then the server got the lines in order, blank one skipped
	req.Equal("alice", <-received)
	req.Equal("hello", <-received)
	req.Equal(domain.QuitCommand, <-received)

	// And the goodbye was printed before leaving
	req.Contains(stdout.String(), "Goodbye!")
	req.Contains(stdout.String(), "Disconnected from chat.")
}

func TestChat_Blank_Username_Is_Anonymous(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	conn, received := fakeServer(t)

	err := chat(context.Background(), log, conn, strings.NewReader("   \n"), &lockedBuffer{}, time.Second)
	req.NoError(err)

	select {
	case name := <-received:
		req.Equal(domain.DefaultName, name)
	case <-time.After(time.Second):
		req.Fail("username not sent")
	}
}
