// Package observability holds the server wide counters.
// They are Prometheus collectors, readable in-process through GetLatest
// and exposed over HTTP by MetricsServer.
package observability

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "tcp_chat"

// Stats is a point in time copy of the traffic counters.
type Stats struct {
	Accepted         uint64
	Broadcasts       uint64
	Deliveries       uint64
	DeliveryFailures uint64
	DroppedEvents    uint64
	SinkErrors       uint64
	Uptime           time.Duration
}

// Monitoring aggregates server wide counters.
// Every method is safe for concurrent use.
type Monitoring struct {
	startedAt        time.Time
	registry         *prometheus.Registry
	accepted         prometheus.Counter
	broadcasts       prometheus.Counter
	deliveries       prometheus.Counter
	deliveryFailures prometheus.Counter
	droppedEvents    prometheus.Counter
	sinkErrors       prometheus.Counter
	activeSessions   atomic.Pointer[func() int]
}

func NewMonitoring() *Monitoring {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help})
	}

	m := &Monitoring{
		startedAt:        time.Now(),
		registry:         registry,
		accepted:         counter("connections_accepted_total", "Total number of accepted TCP connections"),
		broadcasts:       counter("broadcasts_total", "Total number of lines fanned out"),
		deliveries:       counter("deliveries_total", "Total number of lines queued for a participant"),
		deliveryFailures: counter("delivery_failures_total", "Total number of lines a participant could not take"),
		droppedEvents:    counter("dropped_events_total", "Total number of domain events dropped on a full buffer"),
		sinkErrors:       counter("sink_errors_total", "Total number of events a sink failed to consume"),
	}
	// Evaluated on every scrape
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Number of sessions currently registered",
	}, func() float64 {
		if count := m.activeSessions.Load(); count != nil {
			return float64((*count)())
		}
		return 0
	})
	return m
}

// Registry is what MetricsServer exposes.
func (m *Monitoring) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Monitoring) IncrAccepted() {
	m.accepted.Inc()
}

func (m *Monitoring) IncrBroadcasts() {
	m.broadcasts.Inc()
}

func (m *Monitoring) AddDeliveries(n uint64) {
	m.deliveries.Add(float64(n))
}

func (m *Monitoring) IncrDeliveryFailures() {
	m.deliveryFailures.Inc()
}

func (m *Monitoring) IncrDroppedEvents() {
	m.droppedEvents.Inc()
}

func (m *Monitoring) IncrSinkErrors() {
	m.sinkErrors.Inc()
}

// ObserveActiveSessions sets the source of the active sessions gauge,
// typically the Len method of the registry.
func (m *Monitoring) ObserveActiveSessions(count func() int) {
	m.activeSessions.Store(&count)
}

func (m *Monitoring) GetLatest() Stats {
	return Stats{
		Accepted:         counterValue(m.accepted),
		Broadcasts:       counterValue(m.broadcasts),
		Deliveries:       counterValue(m.deliveries),
		DeliveryFailures: counterValue(m.deliveryFailures),
		DroppedEvents:    counterValue(m.droppedEvents),
		SinkErrors:       counterValue(m.sinkErrors),
		Uptime:           time.Since(m.startedAt).Round(time.Second),
	}
}

func counterValue(c prometheus.Counter) uint64 {
	var metric dto.Metric
	if err := c.Write(&metric); err != nil {
		return 0
	}
	return uint64(metric.GetCounter().GetValue())
}
