package extractor

import (
	"fmt"
	"strings"
	"time"
)

// SystemPrompt builds the extraction instructions anchored at now in loc.
// Times are requested as RFC3339 with the offset of loc, the same shape as
// the anchor, so the calendar can be queried without further conversion.
func SystemPrompt(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)

	var b strings.Builder
	b.WriteString("You extract meeting times from what the user writes. ")
	b.WriteString("Determine the date, start time and end time of the meeting the user wants to schedule.\n\n")
	fmt.Fprintf(&b, "The current time is %s (%s, time zone %s).\n\n",
		local.Format(time.RFC3339), local.Weekday(), loc.String())
	b.WriteString("Rules:\n")
	b.WriteString("- Resolve relative dates such as \"tomorrow\" or \"next Monday\" against the current time.\n")
	fmt.Fprintf(&b, "- Return date as YYYY-MM-DD and start_time and end_time as full timestamps in the same format as %s.\n",
		local.Format(time.RFC3339))
	b.WriteString("- If the user gives a start but no end, or the request is too vague to pin down one day and both times, ")
	b.WriteString("return an empty string for every field you cannot determine. Never guess.\n")
	b.WriteString("- Answer only with the JSON object {\"date\", \"start_time\", \"end_time\"}.\n")
	return b.String()
}
