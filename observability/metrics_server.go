package observability

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownGrace = 2 * time.Second

// MetricsServer serves /metrics and /healthz over HTTP.
// It runs as a supervised worker and stops with its context.
type MetricsServer struct {
	log     *slog.Logger
	address string
	handler http.Handler
}

func NewMetricsServer(log *slog.Logger, address string, monitoring *Monitoring) *MetricsServer {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(monitoring.Registry(), promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return &MetricsServer{log: log, address: address, handler: r}
}

func (s *MetricsServer) Handler() http.Handler {
	return s.handler
}

func (s *MetricsServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}
	server := &http.Server{Handler: s.handler, ReadHeaderTimeout: 5 * time.Second}

	errChan := make(chan error, 1)
	go func() {
		s.log.Info("Serving metrics", "address", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("metrics server error: %w", err)
	}
}
