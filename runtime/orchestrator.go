// Package runtime wires the live chat room together: registry, broadcast,
// shutdown and the lifecycle of background workers.
// It holds no protocol logic, sessions live in package tcp.
package runtime

import (
	"context"
	"log/slog"
	"sync"
	"tcp-chat/contract"
)

// Orchestrator runs the listener next to the supervised workers and turns
// either a cancelled context or a listener failure into a full shutdown.
type Orchestrator struct {
	log         *slog.Logger
	supervisor  contract.ISupervisor
	listener    contract.Worker
	coordinator contract.ICoordinator

	mu             sync.Mutex
	cancelWorkers  context.CancelFunc
	supervisorDone chan struct{}
	stopOnce       sync.Once
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor,
	listener contract.Worker, coordinator contract.ICoordinator) *Orchestrator {
	return &Orchestrator{
		log:         log,
		supervisor:  supervisor,
		listener:    listener,
		coordinator: coordinator,
	}
}

// Start blocks until the server is fully stopped.
// Workers get their own context: they must outlive the sessions so that the
// leave events produced during shutdown still reach the sinks.
// The returned error is the listener failure, if any.
func (o *Orchestrator) Start(ctx context.Context) error {
	workersCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	o.mu.Lock()
	o.cancelWorkers = cancel
	o.supervisorDone = done
	o.mu.Unlock()

	go func() {
		defer close(done)
		o.supervisor.Run(workersCtx)
	}()

	errChan := make(chan error, 1)
	go func() {
		errChan <- o.listener.Run(ctx)
	}()

	var err error
	select {
	case <-ctx.Done():
		o.log.Info("Shutting down gracefully...")
	case err = <-errChan:
		if err != nil {
			o.log.Error("Listener failed, shutting down", "error", err)
		}
	}

	o.Stop()
	return err
}

// Stop ends every session then the workers. Safe to call more than once.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		o.log.Info("Requesting orchestrator shutdown")
		o.coordinator.Shutdown()

		o.mu.Lock()
		cancel, done := o.cancelWorkers, o.supervisorDone
		o.mu.Unlock()

		o.supervisor.Stop()
		if cancel != nil {
			cancel()
			<-done
		}
		o.log.Info("Orchestrator stopped")
	})
}
