// Package server provides the shared state behind the slotbook MCP server
// and its HTTP surfaces.
//
// ServerContext owns the slot extractor, lazily created calendar clients per
// Google account and the instrumentation used by every tool. It also builds
// complete booking sessions through NewSession.
//
// HTTPServer exposes the MCP server over the streamable HTTP transport on
// /mcp. MetricsServer serves Prometheus metrics on a separate address. Both
// can mount the liveness and readiness endpoints of a HealthChecker.
package server
