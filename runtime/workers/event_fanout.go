package workers

import (
	"context"
	"fmt"
	"log/slog"
	"tcp-chat/contract"
	"tcp-chat/domain/event"
	"tcp-chat/observability"
	"time"
)

// EventFanout hands every domain event to the permanent sinks.
//
// Best-effort fan-out: no retries, no durability. A sink has sinkTimeout to
// consume an event, a slow or failing sink never blocks the others for longer.
// Chat delivery doesn't go through here, only side effects (presence, ledger).
type EventFanout struct {
	log         *slog.Logger
	events      <-chan event.DomainEvent
	sinks       []contract.EventSink
	monitoring  *observability.Monitoring
	sinkTimeout time.Duration
}

func NewEventFanout(log *slog.Logger, sinks []contract.EventSink, events <-chan event.DomainEvent,
	monitoring *observability.Monitoring, sinkTimeout time.Duration) *EventFanout {
	return &EventFanout{
		log:         log,
		events:      events,
		sinks:       sinks,
		monitoring:  monitoring,
		sinkTimeout: sinkTimeout,
	}
}

// Run consumes events until ctx is done, then drains what is already buffered.
func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-w.events:
			w.Fanout(ctx, evt)
		case <-ctx.Done():
			w.log.Debug("Context done, draining pending events", "pending", len(w.events))
			w.drain()
			return nil
		}
	}
}

// Fanout One sink for each event
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	for _, sink := range w.sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
		if err := sink.Consume(sinkCtx, evt); err != nil {
			w.monitoring.IncrSinkErrors()
			w.log.Warn("Sink failed to consume event",
				"sink", fmt.Sprintf("%T", sink),
				"session_id", evt.SessionID().String(),
				"error", err)
		}
		cancel()
	}
}

func (w *EventFanout) drain() {
	ctx := context.Background()
	for {
		select {
		case evt := <-w.events:
			w.Fanout(ctx, evt)
		default:
			return
		}
	}
}
