package server

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/slotbook/internal/instrumentation"
)

func newProvider(t *testing.T, enabled bool, exporter string) *instrumentation.Provider {
	t.Helper()
	p, err := instrumentation.NewProvider(context.Background(), instrumentation.Config{
		ServiceName:     "slotbook-test",
		Enabled:         enabled,
		MetricsExporter: exporter,
		TracingExporter: instrumentation.ExporterNone,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })
	return p
}

func TestNewMetricsServer(t *testing.T) {
	prom := newProvider(t, true, instrumentation.ExporterPrometheus)

	tests := []struct {
		name     string
		cfg      MetricsServerConfig
		wantErr  string
		wantAddr string
	}{
		{name: "explicit addr", cfg: MetricsServerConfig{Addr: ":9091", InstrumentationProvider: prom}, wantAddr: ":9091"},
		{name: "default addr", cfg: MetricsServerConfig{InstrumentationProvider: prom}, wantAddr: DefaultMetricsAddr},
		{name: "no provider", cfg: MetricsServerConfig{}, wantErr: "provider is required"},
		{name: "disabled", cfg: MetricsServerConfig{InstrumentationProvider: newProvider(t, false, "")}, wantErr: "not enabled"},
		{name: "stdout exporter", cfg: MetricsServerConfig{InstrumentationProvider: newProvider(t, true, instrumentation.ExporterStdout)}, wantErr: "not prometheus"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewMetricsServer(tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAddr, s.Addr())
		})
	}
}

func TestMetricsServer_Serves(t *testing.T) {
	provider := newProvider(t, true, instrumentation.ExporterPrometheus)
	provider.Metrics().RecordSession(context.Background(), instrumentation.OutcomeBooked, 1)

	s, err := NewMetricsServer(MetricsServerConfig{
		Addr:                    "127.0.0.1:0",
		InstrumentationProvider: provider,
		Health:                  NewHealthChecker(nil),
	})
	require.NoError(t, err)

	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- s.StartWithReadySignal(ready) }()
	select {
	case <-ready:
	case err := <-done:
		t.Fatalf("metrics server failed to start: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("metrics server did not start")
	}

	get := func(path string) (int, string) {
		resp, err := http.Get("http://" + s.Addr() + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}

	code, body := get("/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "slotbook_sessions_total")

	for _, path := range []string{"/healthz", "/readyz"} {
		code, _ := get(path)
		assert.Equal(t, http.StatusOK, code, path)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.ErrorIs(t, <-done, http.ErrServerClosed)
}

func TestMetricsServer_ShutdownWithoutStart(t *testing.T) {
	s, err := NewMetricsServer(MetricsServerConfig{
		InstrumentationProvider: newProvider(t, true, instrumentation.ExporterPrometheus),
	})
	require.NoError(t, err)
	assert.NoError(t, s.Shutdown(context.Background()))
}
