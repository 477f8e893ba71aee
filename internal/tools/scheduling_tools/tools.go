package scheduling_tools

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/slotbook/internal/instrumentation"
	"github.com/teemow/slotbook/internal/server"
	"github.com/teemow/slotbook/internal/session"
	"github.com/teemow/slotbook/internal/tools/common"
)

const accountDescription = "Account name (default: 'default'). Used to manage multiple Google accounts."

// RegisterSchedulingTools registers the scheduling tools. Write tools are
// only registered when readOnly is false.
func RegisterSchedulingTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	extractTool := mcp.NewTool("slot_extract",
		mcp.WithDescription("Extract a meeting date, start time and end time from a natural-language request"),
		mcp.WithString("utterance",
			mcp.Required(),
			mcp.Description("Free-form text describing the desired meeting time, e.g. 'tomorrow from 3 to 4pm'"),
		),
	)
	s.AddTool(extractTool, common.InstrumentedToolHandler("slot_extract", sc, handleExtract(sc)))

	checkTool := mcp.NewTool("calendar_check_slot",
		mcp.WithDescription("Check whether a time range is free on the calendar and list conflicting busy periods"),
		mcp.WithString("account", mcp.Description(accountDescription)),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Start of the range (RFC3339 format, e.g., '2025-01-01T15:00:00+05:30')"),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("End of the range (RFC3339 format, e.g., '2025-01-01T16:00:00+05:30')"),
		),
	)
	s.AddTool(checkTool, common.InstrumentedToolHandlerWithService("calendar_check_slot",
		instrumentation.ServiceCalendar, instrumentation.OperationFreeBusy, sc, handleCheckSlot(sc)))

	scheduleTool := mcp.NewTool("schedule_meeting",
		mcp.WithDescription("Schedule a meeting from a natural-language request: extract the time, check availability and book it if free. Without write access the session stops after the availability check."),
		mcp.WithString("account", mcp.Description(accountDescription)),
		mcp.WithString("utterance",
			mcp.Required(),
			mcp.Description("Free-form text describing the desired meeting time"),
		),
		mcp.WithString("alternatives",
			mcp.Description("Fallback time (string) or array of fallback times, tried in order when the requested time is taken or unclear"),
		),
	)
	s.AddTool(scheduleTool, common.InstrumentedToolHandler("schedule_meeting", sc, handleScheduleMeeting(sc, readOnly)))

	if !readOnly {
		bookTool := mcp.NewTool("calendar_book_slot",
			mcp.WithDescription("Book the configured meeting for a time range after verifying it is free. Returns the join link."),
			mcp.WithString("account", mcp.Description(accountDescription)),
			mcp.WithString("start",
				mcp.Required(),
				mcp.Description("Start of the meeting (RFC3339 format)"),
			),
			mcp.WithString("end",
				mcp.Required(),
				mcp.Description("End of the meeting (RFC3339 format)"),
			),
		)
		s.AddTool(bookTool, common.InstrumentedToolHandlerWithService("calendar_book_slot",
			instrumentation.ServiceCalendar, instrumentation.OperationInsert, sc, handleBookSlot(sc)))
	}

	return nil
}

type intervalJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func intervals(busy []session.Interval, loc *time.Location) []intervalJSON {
	out := make([]intervalJSON, 0, len(busy))
	for _, b := range busy {
		out = append(out, intervalJSON{
			Start: b.Start.In(loc).Format(time.RFC3339),
			End:   b.End.In(loc).Format(time.RFC3339),
		})
	}
	return out
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
