package server

import (
	"errors"
	"net"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

// DefaultHTTPAddr is the default listen address of the streamable HTTP transport.
const DefaultHTTPAddr = "127.0.0.1:8081"

// MCPEndpointPath is where the MCP protocol is served.
const MCPEndpointPath = "/mcp"

// HTTPServer serves the MCP server over the streamable HTTP transport
// together with the health endpoints. It carries no authentication of its own
// and must only be reachable by the calendar owner.
type HTTPServer struct {
	*listener
	mcpServer *mcpserver.MCPServer
	health    *HealthChecker
}

// NewHTTPServer creates an HTTP server for mcpServer. health may be nil.
func NewHTTPServer(mcpServer *mcpserver.MCPServer, addr string, health *HealthChecker) (*HTTPServer, error) {
	if mcpServer == nil {
		return nil, errors.New("mcp server is required")
	}
	if addr == "" {
		addr = DefaultHTTPAddr
	}
	s := &HTTPServer{mcpServer: mcpServer, health: health}
	// No write timeout: streamable HTTP responses may stay open.
	s.listener = &listener{name: "MCP HTTP server", handler: s.Handler, addr: addr, idle: 120 * time.Second}
	return s, nil
}

// Handler returns the HTTP handler with the MCP and health routes.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(MCPEndpointPath, mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithEndpointPath(MCPEndpointPath),
	))
	if s.health != nil {
		s.health.RegisterHealthEndpoints(mux)
	}
	return mux
}

// IsLoopback reports whether addr only accepts local connections.
func IsLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
