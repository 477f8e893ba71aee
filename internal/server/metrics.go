package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teemow/slotbook/internal/instrumentation"
)

// DefaultMetricsAddr is used when MetricsServerConfig.Addr is empty.
const DefaultMetricsAddr = "127.0.0.1:9090"

// MetricsServerConfig configures a MetricsServer.
type MetricsServerConfig struct {
	Addr string
	// InstrumentationProvider must be enabled and export to Prometheus.
	InstrumentationProvider *instrumentation.Provider
	// Health adds /healthz and /readyz when set.
	Health *HealthChecker
}

// MetricsServer serves /metrics for Prometheus on its own port.
type MetricsServer struct {
	*listener
	health *HealthChecker
}

// NewMetricsServer validates cfg; the server listens once started.
func NewMetricsServer(cfg MetricsServerConfig) (*MetricsServer, error) {
	p := cfg.InstrumentationProvider
	switch {
	case p == nil:
		return nil, errors.New("instrumentation provider is required for metrics server")
	case !p.Enabled():
		return nil, errors.New("instrumentation provider is not enabled")
	case !p.ServesPrometheus():
		return nil, errors.New("metrics exporter is not prometheus")
	}

	addr := cfg.Addr
	if addr == "" {
		addr = DefaultMetricsAddr
	}
	s := &MetricsServer{health: cfg.Health}
	s.listener = &listener{
		name:    "metrics server",
		handler: s.handler,
		addr:    addr,
		write:   10 * time.Second,
		idle:    60 * time.Second,
	}
	return s, nil
}

func (s *MetricsServer) handler() http.Handler {
	mux := http.NewServeMux()
	// The OpenTelemetry exporter registers with the default registry.
	mux.Handle("/metrics", promhttp.Handler())
	if s.health != nil {
		s.health.RegisterHealthEndpoints(mux)
		return mux
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
