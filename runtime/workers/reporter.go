package workers

import (
	"context"
	"log/slog"
	"os"
	"tcp-chat/contract"
	"tcp-chat/observability"
	"tcp-chat/projection"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Reporter logs a snapshot of the server at a fixed interval.
type Reporter struct {
	log        *slog.Logger
	registry   contract.IRegistry
	presence   *projection.Presence
	monitoring *observability.Monitoring
	interval   time.Duration
	process    *process.Process
}

func NewReporter(log *slog.Logger, registry contract.IRegistry, presence *projection.Presence,
	monitoring *observability.Monitoring, interval time.Duration) *Reporter {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Debug("Process metrics unavailable", "error", err)
		p = nil
	}
	return &Reporter{
		log:        log,
		registry:   registry,
		presence:   presence,
		monitoring: monitoring,
		interval:   interval,
		process:    p,
	}
}

// Run reports until ctx is done, with a last report on the way out.
func (w *Reporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.report()
			w.log.Debug("Reporter stopped")
			return nil
		case <-ticker.C:
			w.report()
		}
	}
}

func (w *Reporter) report() {
	active := w.registry.Len()
	stats := w.monitoring.GetLatest()
	presence := w.presence.Stats()

	attrs := []any{
		"uptime", stats.Uptime.String(),
		"active_sessions", active,
		"online", presence.Online,
		"joins", presence.Joins,
		"leaves", presence.Leaves,
		"messages", presence.Messages,
		"accepted", stats.Accepted,
		"broadcasts", stats.Broadcasts,
		"deliveries", stats.Deliveries,
		"delivery_failures", stats.DeliveryFailures,
		"dropped_events", stats.DroppedEvents,
		"sink_errors", stats.SinkErrors,
	}
	attrs = append(attrs, w.processAttrs()...)
	w.log.Info("Chat server report", attrs...)
}

func (w *Reporter) processAttrs() []any {
	if w.process == nil {
		return nil
	}
	var attrs []any
	if mem, err := w.process.MemoryInfo(); err == nil {
		attrs = append(attrs, "rss_mb", mem.RSS/1024/1024)
	} else {
		w.log.Debug("Error while finding process ram usage", "error", err)
	}
	if cpu, err := w.process.CPUPercent(); err == nil {
		attrs = append(attrs, "cpu_percent", cpu)
	} else {
		w.log.Debug("Error while finding process cpu usage", "error", err)
	}
	return attrs
}
