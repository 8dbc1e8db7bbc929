package observability

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestMonitoring_GetLatest(t *testing.T) {
	req := require.New(t)
	monitoring := NewMonitoring()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			monitoring.IncrAccepted()
			monitoring.IncrBroadcasts()
			monitoring.AddDeliveries(3)
		}()
	}
	wg.Wait()
	monitoring.IncrDeliveryFailures()
	monitoring.IncrDroppedEvents()
	monitoring.IncrSinkErrors()

	stats := monitoring.GetLatest()
	req.Equal(uint64(10), stats.Accepted)
	req.Equal(uint64(10), stats.Broadcasts)
	req.Equal(uint64(30), stats.Deliveries)
	req.Equal(uint64(1), stats.DeliveryFailures)
	req.Equal(uint64(1), stats.DroppedEvents)
	req.Equal(uint64(1), stats.SinkErrors)
}

func TestMetricsServer_Exposes_Counters(t *testing.T) {
	req := require.New(t)
	monitoring := NewMonitoring()
	monitoring.IncrAccepted()
	monitoring.ObserveActiveSessions(func() int { return 2 })
	server := NewMetricsServer(logs.GetLoggerFromLevel(slog.LevelDebug), "127.0.0.1:0", monitoring)

	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	req.NoError(err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	req.NoError(err)

	req.Equal(http.StatusOK, resp.StatusCode)
	req.Contains(string(body), "tcp_chat_connections_accepted_total 1")
	req.Contains(string(body), "tcp_chat_active_sessions 2")

	health, err := http.Get(ts.URL + "/healthz")
	req.NoError(err)
	_ = health.Body.Close()
	req.Equal(http.StatusOK, health.StatusCode)
}

func TestMonitoring_Active_Sessions_Follow_Source(t *testing.T) {
	req := require.New(t)
	monitoring := NewMonitoring()
	server := NewMetricsServer(logs.GetLoggerFromLevel(slog.LevelDebug), "127.0.0.1:0", monitoring)
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	// Given no source yet, the gauge reads zero
	req.Contains(scrape(t, ts.URL), "tcp_chat_active_sessions 0")

	// When the source changes between two scrapes
	var active atomic.Int64
	monitoring.ObserveActiveSessions(func() int { return int(active.Load()) })
	active.Store(3)
	req.Contains(scrape(t, ts.URL), "tcp_chat_active_sessions 3")

	// Then the next scrape sees the new value without any reporting tick
	active.Store(1)
	req.Contains(scrape(t, ts.URL), "tcp_chat_active_sessions 1")
}

func scrape(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}
