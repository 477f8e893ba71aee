package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/slotbook/internal/orchestrator"
	"github.com/teemow/slotbook/internal/server"
	"github.com/teemow/slotbook/internal/tools/google_tools"
	"github.com/teemow/slotbook/internal/tools/scheduling_tools"
)

const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

func newServeCmd() *cobra.Command {
	var (
		transport   string
		httpAddr    string
		yolo        bool
		allowRemote bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP server to expose the scheduling tools to AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP on /mcp, with /healthz and /readyz

Tools:
  - slot_extract: resolve a phrase like "tomorrow 3 to 4pm" to a time window
  - calendar_check_slot: check a window against the calendar
  - calendar_book_slot: book a free window (requires --yolo)
  - schedule_meeting: run a whole booking session from one request
  - google_get_auth_url / google_save_auth_code: authorize calendar access

The server is read-only by default: schedule_meeting stops before booking.
Use --yolo to enable booking.

The HTTP transport has no authentication and only binds loopback addresses
unless --allow-remote is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, transport, httpAddr, yolo, allowRemote)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&httpAddr, "http-addr", server.DefaultHTTPAddr, "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&yolo, "yolo", false, "Enable booking. Default is read-only mode.")
	cmd.Flags().BoolVar(&allowRemote, "allow-remote", false, "Allow the HTTP transport to listen on non-loopback addresses")

	cmd.Flags().String("provider", "gemini", "Extraction provider: gemini or openai")
	cmd.Flags().String("model", "", "Model name (default depends on the provider)")
	cmd.Flags().String("timezone", "Asia/Kolkata", "IANA time zone used to resolve times and for the event")
	cmd.Flags().String("calendar", "primary", "Calendar to check and book into")
	cmd.Flags().Int("max-attempts", orchestrator.DefaultPolicy().MaxAttempts, "Maximum number of utterances per schedule_meeting call (0 = unlimited)")
	cmd.Flags().Duration("call-timeout", orchestrator.DefaultPolicy().CallTimeout, "Timeout for each extraction and availability call")

	return cmd
}

func runServe(cmd *cobra.Command, transport, httpAddr string, yolo, allowRemote bool) error {
	switch transport {
	case transportStdio:
	case transportStreamableHTTP:
		if !allowRemote && !server.IsLoopback(httpAddr) {
			return fmt.Errorf("refusing to serve on %s without authentication: use a loopback address or --allow-remote", httpAddr)
		}
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", transport)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.logger.Warn("shutdown failed", "error", err)
		}
	}()

	serverContext, err := a.serverContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			a.logger.Warn("error during server context cleanup", "error", err)
		}
	}()

	health := server.NewHealthChecker(serverContext)
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	if err := a.startMetricsServer(metricsAddr, health); err != nil {
		return err
	}

	mcpSrv := mcpserver.NewMCPServer("slotbook", version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := registerAllTools(mcpSrv, serverContext, !yolo); err != nil {
		return err
	}

	if !yolo {
		a.logger.Info("running in read-only mode, booking disabled (use --yolo to enable)")
	}

	switch transport {
	case transportStreamableHTTP:
		return runStreamableHTTPServer(ctx, mcpSrv, httpAddr, health)
	default:
		return runStdioServer(ctx, mcpSrv)
	}
}

func runStdioServer(ctx context.Context, mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	}
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, addr string, health *server.HealthChecker) error {
	httpSrv, err := server.NewHTTPServer(mcpSrv, addr, health)
	if err != nil {
		return err
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpSrv.StartWithReadySignal(nil); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
		return nil
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	}
}

// registerAllTools registers all MCP tools.
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Scheduling",
			register: func() error {
				return scheduling_tools.RegisterSchedulingTools(mcpSrv, sc, readOnly)
			},
		},
		{
			name: "Google",
			register: func() error {
				return google_tools.RegisterGoogleTools(mcpSrv, sc)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}
	return nil
}
