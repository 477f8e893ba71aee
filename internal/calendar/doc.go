// Package calendar provides a client for the Google Calendar API.
//
// It covers what a booking session needs: free/busy queries, event
// insertion with an atomic Google Meet conference request, and event lookup
// by id. Every call is traced and recorded in google_api_operations_total.
// IsTransient and IsConflict classify API errors for callers that retry.
//
//	client, err := calendar.NewClientWithTokenSource(ctx, "default", ts)
//	if err != nil {
//	    return err
//	}
//	infos, err := client.QueryFreeBusy(ctx, start, end, []string{calendar.PrimaryCalendarID})
package calendar
