package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"tcp-chat/contract"
	"tcp-chat/domain/event"
	"tcp-chat/observability"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "tcp-chat/runtime"

// Broadcaster fans a line out to every session of a registry snapshot.
//
// Delivery is best-effort: the snapshot is taken at call time, sessions joining
// afterwards miss the line and sessions leaving concurrently may or may not get it.
// The sender is part of the snapshot like anyone else.
// A failing session never stops the loop and is never removed here,
// its own handler notices the broken connection and leaves by itself.
type Broadcaster struct {
	log             *slog.Logger
	registry        contract.IRegistry
	events          chan<- event.DomainEvent
	monitoring      *observability.Monitoring
	deliveryTimeout time.Duration
	tracer          trace.Tracer
}

func NewBroadcaster(log *slog.Logger, registry contract.IRegistry,
	events chan<- event.DomainEvent, monitoring *observability.Monitoring,
	deliveryTimeout time.Duration) *Broadcaster {
	return &Broadcaster{
		log:             log,
		registry:        registry,
		events:          events,
		monitoring:      monitoring,
		deliveryTimeout: deliveryTimeout,
		tracer:          otel.Tracer(tracerName),
	}
}

// Broadcast delivers message to the current members and returns how many accepted it.
// The line is logged once, whatever the number of recipients.
func (b *Broadcaster) Broadcast(ctx context.Context, message string) int {
	recipients := b.registry.Snapshot()
	b.log.Info(message, "recipients", len(recipients))
	b.monitoring.IncrBroadcasts()

	ctx, span := b.tracer.Start(ctx, "chat.broadcast",
		trace.WithAttributes(attribute.Int("chat.recipients", len(recipients))))
	defer span.End()

	delivered := 0
	for _, session := range recipients {
		if err := b.deliver(ctx, session, message); err != nil {
			b.monitoring.IncrDeliveryFailures()
			b.log.Debug("Delivery failed",
				"session_id", session.ID().String(),
				"name", session.Name(),
				"error", err)
			continue
		}
		delivered++
	}
	b.monitoring.AddDeliveries(uint64(delivered))

	span.SetAttributes(attribute.Int("chat.delivered", delivered))
	if failed := len(recipients) - delivered; failed > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d deliveries failed", failed))
	}
	return delivered
}

// Announce broadcasts the line of a domain event,
// then hands the event over to the fanout pipeline without waiting for it.
func (b *Broadcaster) Announce(ctx context.Context, e event.DomainEvent) int {
	line := event.Render(e)
	if line == "" {
		b.log.Warn(fmt.Sprintf("Nothing to announce for %T", e))
		return 0
	}
	delivered := b.Broadcast(ctx, line)
	b.publish(e)
	return delivered
}

func (b *Broadcaster) deliver(ctx context.Context, session contract.Session, message string) error {
	if b.deliveryTimeout <= 0 {
		return session.Deliver(ctx, message)
	}
	deliverCtx, cancel := context.WithTimeout(ctx, b.deliveryTimeout)
	defer cancel()
	return session.Deliver(deliverCtx, message)
}

func (b *Broadcaster) publish(e event.DomainEvent) {
	if b.events == nil {
		return
	}
	select {
	case b.events <- e:
	default:
		b.monitoring.IncrDroppedEvents()
		b.log.Warn("Event channel full, dropping event", "session_id", e.SessionID().String())
	}
}
