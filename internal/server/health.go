package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"
	healthStatusMissing      = "missing"
)

// HealthChecker serves /healthz and /readyz.
type HealthChecker struct {
	ready   atomic.Bool
	sc      *ServerContext
	started time.Time
}

// NewHealthChecker returns a checker that starts out ready. sc may be nil.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	h := &HealthChecker{sc: sc, started: time.Now()}
	h.ready.Store(true)
	return h
}

// SetReady flips readiness, e.g. while draining on shutdown.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// HealthResponse is the JSON body of both endpoints.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
	Uptime string            `json:"uptime,omitempty"`
}

// readinessCheck reports a status and whether it blocks readiness.
type readinessCheck struct {
	name string
	run  func() (status string, blocking bool)
}

func (h *HealthChecker) checks() []readinessCheck {
	checks := []readinessCheck{
		{"ready", func() (string, bool) {
			if h.ready.Load() {
				return healthStatusOK, false
			}
			return healthStatusNotReady, true
		}},
		{"shutdown", func() (string, bool) {
			if h.sc != nil && h.sc.IsShutdown() {
				return healthStatusShuttingDown, true
			}
			return healthStatusOK, false
		}},
	}
	if h.sc != nil {
		// Slot extraction works without a token, so this one only informs.
		checks = append(checks, readinessCheck{"calendar_token", func() (string, bool) {
			if h.sc.HasCredentials(h.sc.DefaultAccount()) {
				return healthStatusOK, false
			}
			return healthStatusMissing, false
		}})
	}
	return checks
}

// LivenessHandler always answers 200 with the process uptime.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeHealth(w, http.StatusOK, HealthResponse{
			Status: healthStatusOK,
			Uptime: time.Since(h.started).Truncate(time.Second).String(),
		})
	})
}

// ReadinessHandler answers 503 while any blocking check fails.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{Status: healthStatusOK, Checks: map[string]string{}}
		code := http.StatusOK
		for _, c := range h.checks() {
			status, blocking := c.run()
			resp.Checks[c.name] = status
			if blocking {
				resp.Status = healthStatusNotReady
				code = http.StatusServiceUnavailable
			}
		}
		writeHealth(w, code, resp)
	})
}

// RegisterHealthEndpoints mounts both handlers on mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
}

func writeHealth(w http.ResponseWriter, code int, resp HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
