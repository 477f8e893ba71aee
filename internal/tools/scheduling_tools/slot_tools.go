package scheduling_tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/slotbook/internal/extractor"
	"github.com/teemow/slotbook/internal/server"
	"github.com/teemow/slotbook/internal/session"
	"github.com/teemow/slotbook/internal/tools/common"
)

type extractResult struct {
	session.Slot
	Start string `json:"start"`
	End   string `json:"end"`
}

func handleExtract(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		utterance, err := common.RequiredString(request.GetArguments(), "utterance")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		loc := sc.Location()
		slot, err := sc.Extractor().Extract(ctx, extractor.Request{
			SystemContext: extractor.SystemPrompt(time.Now(), loc),
			Utterance:     utterance,
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Could not extract a time slot: %v", err)), nil
		}

		start, end, err := slot.Window(loc)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Extracted slot %s is not a valid time range: %v", slot, err)), nil
		}

		return jsonResult(extractResult{
			Slot:  slot,
			Start: start.Format(time.RFC3339),
			End:   end.Format(time.RFC3339),
		})
	}
}

type checkResult struct {
	Start string         `json:"start"`
	End   string         `json:"end"`
	Free  bool           `json:"free"`
	Busy  []intervalJSON `json:"busy"`
}

func handleCheckSlot(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		account := common.GetAccountFromArgs(args, sc.DefaultAccount())

		start, err := common.RequiredTime(args, "start")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		end, err := common.RequiredTime(args, "end")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		checker, err := sc.CheckerForAccount(account)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		report, err := checker.Check(ctx, start, end)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to check availability: %v", err)), nil
		}

		loc := sc.Location()
		return jsonResult(checkResult{
			Start: start.In(loc).Format(time.RFC3339),
			End:   end.In(loc).Format(time.RFC3339),
			Free:  report.Free,
			Busy:  intervals(report.Busy, loc),
		})
	}
}

type bookResult struct {
	EventID        string `json:"event_id"`
	JoinLink       string `json:"join_link"`
	HTMLLink       string `json:"html_link,omitempty"`
	IdempotencyKey string `json:"idempotency_key"`
	Start          string `json:"start"`
	End            string `json:"end"`
}

func handleBookSlot(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		account := common.GetAccountFromArgs(args, sc.DefaultAccount())

		start, err := common.RequiredTime(args, "start")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		end, err := common.RequiredTime(args, "end")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		checker, err := sc.CheckerForAccount(account)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		booker, err := sc.BookerForAccount(account)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		// Never book a range that was not verified free.
		report, err := checker.Check(ctx, start, end)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Not booked: availability could not be verified: %v", err)), nil
		}
		loc := sc.Location()
		if !report.Free {
			return jsonErrorResult("Not booked: the time range conflicts with existing events", intervals(report.Busy, loc))
		}

		draft := sc.DraftTemplate().Draft(start, end)
		conf, err := booker.Book(ctx, draft)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to book meeting: %v", err)), nil
		}

		return jsonResult(bookResult{
			EventID:        conf.EventID,
			JoinLink:       conf.JoinLink,
			HTMLLink:       conf.HTMLLink,
			IdempotencyKey: conf.IdempotencyKey,
			Start:          start.In(loc).Format(time.RFC3339),
			End:            end.In(loc).Format(time.RFC3339),
		})
	}
}

func jsonErrorResult(message string, busy []intervalJSON) (*mcp.CallToolResult, error) {
	result, err := jsonResult(struct {
		Error string         `json:"error"`
		Busy  []intervalJSON `json:"busy"`
	}{message, busy})
	if result != nil {
		result.IsError = true
	}
	return result, err
}
