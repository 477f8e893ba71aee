package common

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/slotbook/internal/instrumentation"
	"github.com/teemow/slotbook/internal/logging"
	"github.com/teemow/slotbook/internal/server"
)

// ToolHandler is the signature of an MCP tool handler.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

var errToolResult = errors.New("tool returned an error result")

// InstrumentedToolHandler wraps a tool handler with a span, metrics and audit
// logging.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return instrument(toolName, "", "", sc, handler)
}

// InstrumentedToolHandlerWithService is like InstrumentedToolHandler but also
// records the Google service and operation the tool performs.
//
//	s.AddTool(myTool, common.InstrumentedToolHandlerWithService("my_tool", "calendar", "insert", sc, handler))
func InstrumentedToolHandlerWithService(toolName, serviceName, operation string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return instrument(toolName, serviceName, operation, sc, handler)
}

func instrument(toolName, serviceName, operation string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := instrumentation.StartToolSpan(ctx, toolName)

		account := GetAccountFromArgs(request.GetArguments(), sc.DefaultAccount())
		invocation := instrumentation.NewToolInvocation(ctx, toolName, account)
		start := time.Now()

		result, err := handler(ctx, request)
		duration := time.Since(start)

		// Error results count as failures even though the call itself succeeded.
		failure := err
		if failure == nil && result != nil && result.IsError {
			failure = errToolResult
		}
		invocation.Complete(failure)
		instrumentation.EndSpan(span, failure)

		status := instrumentation.StatusFor(failure)
		metrics := sc.Metrics()
		metrics.RecordToolInvocation(ctx, toolName, status, duration)
		if serviceName != "" {
			metrics.RecordGoogleAPIOperation(ctx, serviceName, operation, status, duration)
		}
		sc.AuditLogger().LogToolInvocation(invocation)
		sc.Logger().Debug("tool call",
			logging.Tool(toolName),
			logging.Account(account),
			logging.Status(status),
			logging.Duration(duration),
			logging.Err(failure))

		return result, err
	}
}
