package tcp

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"tcp-chat/errors"
	"time"
)

// Outbox is the output side of a session: a bounded queue of lines
// drained by a single writer goroutine, so lines written to one connection
// never interleave and a slow peer only ever stalls its own queue.
type Outbox struct {
	log      *slog.Logger
	writer   *bufio.Writer
	lines    chan string
	closing  chan struct{}
	finished chan struct{}
	once     sync.Once
	failed   atomic.Bool
}

func NewOutbox(log *slog.Logger, w io.Writer, size int) *Outbox {
	if size <= 0 {
		size = 1
	}
	return &Outbox{
		log:      log,
		writer:   bufio.NewWriter(w),
		lines:    make(chan string, size),
		closing:  make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// Run writes queued lines until Close is called, then flushes what is left.
// It must run on its own goroutine, exactly once.
func (o *Outbox) Run() {
	defer close(o.finished)
	for {
		select {
		case line := <-o.lines:
			o.write(line)
		case <-o.closing:
			o.drain()
			return
		}
	}
}

// Consume queues a line, waiting for room until ctx is done.
func (o *Outbox) Consume(ctx context.Context, line string) error {
	select {
	case <-o.closing:
		return errors.ErrSessionClosed
	default:
	}
	select {
	case o.lines <- line:
		return nil
	case <-o.closing:
		return errors.ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting lines and waits for the queue to be flushed,
// at most timeout. Safe to call more than once.
func (o *Outbox) Close(timeout time.Duration) error {
	o.once.Do(func() { close(o.closing) })
	select {
	case <-o.finished:
		return nil
	case <-time.After(timeout):
		return context.DeadlineExceeded
	}
}

// Failed reports whether a write to the connection already failed.
func (o *Outbox) Failed() bool {
	return o.failed.Load()
}

func (o *Outbox) drain() {
	for {
		select {
		case line := <-o.lines:
			o.write(line)
		default:
			return
		}
	}
}

// write buffers the line and flushes once nothing else is waiting.
// After the first failure every line is discarded.
func (o *Outbox) write(line string) {
	if o.failed.Load() {
		return
	}
	if _, err := o.writer.WriteString(line + "\n"); err != nil {
		o.fail(err)
		return
	}
	if len(o.lines) > 0 {
		return
	}
	if err := o.writer.Flush(); err != nil {
		o.fail(err)
	}
}

func (o *Outbox) fail(err error) {
	o.failed.Store(true)
	o.log.Debug("Write failed, discarding further lines", "error", err)
}
