package tcp

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"tcp-chat/errors"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type brokenWriter struct{}

func (brokenWriter) Write(_ []byte) (int, error) {
	return 0, fmt.Errorf("broken pipe")
}

// blockingWriter never returns until released.
type blockingWriter struct {
	release chan struct{}
}

func (w blockingWriter) Write(p []byte) (int, error) {
	<-w.release
	return len(p), nil
}

func TestOutbox_Writes_Lines_In_Order(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	buffer := &syncBuffer{}
	outbox := NewOutbox(log, buffer, 16)
	go outbox.Run()

	// When three lines are queued
	for _, line := range []string{"one", "two", "three"} {
		req.NoError(outbox.Consume(context.Background(), line))
	}

	// Then closing flushes them, newline terminated, in order
	req.NoError(outbox.Close(time.Second))
	req.Equal("one\ntwo\nthree\n", buffer.String())
}

func TestOutbox_Consume_After_Close(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	outbox := NewOutbox(log, &syncBuffer{}, 1)
	go outbox.Run()

	req.NoError(outbox.Close(time.Second))
	// Closing twice is fine
	req.NoError(outbox.Close(time.Second))

	err := outbox.Consume(context.Background(), "too late")
	req.ErrorIs(err, errors.ErrSessionClosed)
}

func TestOutbox_Full_Queue_Honours_Context(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	writer := blockingWriter{release: make(chan struct{})}
	outbox := NewOutbox(log, writer, 1)
	go outbox.Run()
	defer close(writer.release)

	// Given the writer is stuck on the first line and the queue holds the second
	req.NoError(outbox.Consume(context.Background(), "first"))
	req.Eventually(func() bool { return len(outbox.lines) == 0 }, time.Second, time.Millisecond)
	req.NoError(outbox.Consume(context.Background(), "second"))

	// When a third line is queued with a short deadline
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := outbox.Consume(ctx, "third")

	// Then the call gives up instead of blocking
	req.ErrorIs(err, context.DeadlineExceeded)
}

func TestOutbox_Close_Gives_Up_On_Stalled_Writer(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	writer := blockingWriter{release: make(chan struct{})}
	outbox := NewOutbox(log, writer, 4)
	go outbox.Run()
	defer close(writer.release)

	req.NoError(outbox.Consume(context.Background(), "stuck"))
	req.ErrorIs(outbox.Close(20*time.Millisecond), context.DeadlineExceeded)
}

func TestOutbox_Write_Failure_Discards_Further_Lines(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	outbox := NewOutbox(log, brokenWriter{}, 4)
	go outbox.Run()

	req.NoError(outbox.Consume(context.Background(), "lost"))
	req.Eventually(outbox.Failed, time.Second, time.Millisecond)

	// Queuing still works, lines are simply dropped
	req.NoError(outbox.Consume(context.Background(), "dropped"))
	req.NoError(outbox.Close(time.Second))
}
