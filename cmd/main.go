package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"tcp-chat/contract"
	"tcp-chat/domain/event"
	"tcp-chat/internal"
	"tcp-chat/observability"
	"tcp-chat/projection"
	"tcp-chat/repositories"
	"tcp-chat/runtime"
	"tcp-chat/runtime/workers"
	"tcp-chat/sink"
	"tcp-chat/tcp"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and blocks until the server stopped.
// Deferred cleanups run before main decides on the exit code.
func run() error {
	// 1. Configuration & Logger
	config, err := internal.Load()
	if err != nil {
		return err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	port, err := internal.ResolvePort(os.Args[1:], config.Port)
	if err != nil {
		log.Warn("Ignoring port argument", "error", err, "port", port)
	}
	config.Port = port

	// 2. Shared state
	registry := runtime.NewRegistry()
	monitoring := observability.NewMonitoring()
	monitoring.ObserveActiveSessions(registry.Len)
	presence := projection.NewPresence()
	events := make(chan event.DomainEvent, config.EventBufferSize)
	sinks := []contract.EventSink{presence}

	// 3. Optional session ledger (BadgerDB)
	if config.BadgerFilepath != "" {
		db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
			WithLoggingLevel(badger.WARNING))
		if err != nil {
			return fmt.Errorf("database opening failed: %w", err)
		}
		//  Defer will be executed before run() returned anything to main()
		defer func() {
			log.Info("Closing BadgerDB...")
			_ = db.Close()
		}()
		sinks = append(sinks, sink.NewLedgerSink(repositories.NewSessionRepository(db, log)))
	}

	// 4. Chat server
	broadcaster := runtime.NewBroadcaster(log, registry, events, monitoring, config.DeliveryTimeout)
	listener, err := tcp.Listen(log, config.Address(), registry, broadcaster, monitoring, tcp.SessionConfig{
		OutboxSize:      config.OutboxSize,
		MaxLineLength:   config.MaxLineLength,
		DeliveryTimeout: config.DeliveryTimeout,
		DrainTimeout:    config.DrainTimeout,
	})
	if err != nil {
		return err
	}
	coordinator := runtime.NewCoordinator(log, listener, registry, config.ShutdownTimeout)

	// 5. Supervision & Orchestration
	supervisor := workers.NewSupervisor(log, config.RestartInterval)
	supervisor.Add(
		workers.NewEventFanout(log, sinks, events, monitoring, config.SinkTimeout),
		workers.NewReporter(log, registry, presence, monitoring, config.MetricInterval),
		workers.NewChannelCapacityWorker(log, []workers.NamedChannel{{Name: "events", Channel: events}},
			config.LowCapacityThreshold, config.MetricInterval),
	)
	if config.MetricsAddr != "" {
		supervisor.Add(observability.NewMetricsServer(log, config.MetricsAddr, monitoring))
	}
	orchestrator := runtime.NewOrchestrator(log, supervisor, listener, coordinator)

	// 6. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 7. Serve until a signal or a listener failure
	if err := orchestrator.Start(ctx); err != nil {
		return fmt.Errorf("chat server stopped: %w", err)
	}
	log.Info("Program stopped cleanly", "online", presence.Online())
	return nil
}
