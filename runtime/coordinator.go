package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"tcp-chat/contract"
	"time"
)

// Coordinator stops the whole server: intake first, then every live session.
// Forcing a connection closed makes the blocked read of its session fail,
// so each handler leaves through its usual CLOSING path.
type Coordinator struct {
	log      *slog.Logger
	intake   contract.Intake
	registry contract.IRegistry
	timeout  time.Duration
	once     sync.Once
	done     chan struct{}
}

func NewCoordinator(log *slog.Logger, intake contract.Intake, registry contract.IRegistry, timeout time.Duration) *Coordinator {
	return &Coordinator{
		log:      log,
		intake:   intake,
		registry: registry,
		timeout:  timeout,
		done:     make(chan struct{}),
	}
}

// Shutdown runs the shutdown sequence once. Later calls are no-ops,
// concurrent callers return when the first sequence is over.
// Waiting for handlers is bounded by the coordinator timeout.
func (c *Coordinator) Shutdown() {
	c.once.Do(func() {
		defer close(c.done)
		c.log.Info("Shutting down chat server")

		// 1. No new connection from now on
		if err := c.intake.Close(); err != nil {
			c.log.Warn("Error while closing listener", "error", err)
		}

		// 2. Force every registered session out of its read
		sessions := c.registry.Snapshot()
		for _, session := range sessions {
			if err := session.Terminate(); err != nil {
				c.log.Debug("Error while terminating session",
					"session_id", session.ID().String(), "error", err)
			}
		}
		c.log.Info(fmt.Sprintf("%d sessions terminated", len(sessions)))

		// 3. Give handlers a chance to deregister and say goodbye
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		if err := c.intake.Wait(ctx); err != nil {
			c.log.Warn("Shutdown timeout reached, some sessions may still be running",
				"timeout", c.timeout, "remaining", c.registry.Len())
			return
		}
		c.log.Info("Chat server stopped")
	})
}

// Done is closed once the first Shutdown has completed.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}
