package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// DefaultShutdownTimeout bounds a graceful shutdown of either server.
const DefaultShutdownTimeout = 10 * time.Second

// listener runs one http.Server and lets another goroutine stop it. The
// metrics and MCP servers embed it.
type listener struct {
	name    string
	handler func() http.Handler
	idle    time.Duration
	write   time.Duration

	mu   sync.Mutex
	srv  *http.Server
	addr string
}

// StartWithReadySignal binds the address, closes ready (when non-nil) once
// connections are accepted and serves until Shutdown, which makes it return
// http.ErrServerClosed.
func (l *listener) StartWithReadySignal(ready chan<- struct{}) error {
	l.mu.Lock()
	addr := l.addr
	l.mu.Unlock()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           l.handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      l.write,
		IdleTimeout:       l.idle,
	}
	l.mu.Lock()
	// ":0" becomes the bound port.
	l.addr = ln.Addr().String()
	l.srv = srv
	l.mu.Unlock()

	slog.Info("starting "+l.name, "addr", ln.Addr().String())
	if ready != nil {
		close(ready)
	}
	return srv.Serve(ln)
}

// Shutdown stops a started server; it is a no-op otherwise.
func (l *listener) Shutdown(ctx context.Context) error {
	l.mu.Lock()
	srv := l.srv
	l.mu.Unlock()
	if srv == nil {
		return nil
	}
	slog.Info("stopping " + l.name)
	return srv.Shutdown(ctx)
}

// Addr returns the configured address, or the bound one once started.
func (l *listener) Addr() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.addr
}
