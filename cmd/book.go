package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/slotbook/internal/console"
	"github.com/teemow/slotbook/internal/orchestrator"
	"github.com/teemow/slotbook/internal/receipt"
	"github.com/teemow/slotbook/internal/session"
)

func newBookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book a meeting interactively",
		Long: `Asks when you would like to meet, resolves the answer to a date and time
window, checks your Google Calendar and books the meeting if the slot is free.

When the slot is taken you are shown the conflicting busy periods and asked for
another time. The session ends once a meeting is booked, the attempt limit is
reached or input ends (Ctrl-D).

Run "slotbook auth" once before the first booking.`,
		Args: cobra.NoArgs,
		RunE: runBook,
	}

	cmd.Flags().String("provider", "gemini", "Extraction provider: gemini or openai")
	cmd.Flags().String("model", "", "Model name (default depends on the provider)")
	cmd.Flags().String("timezone", "Asia/Kolkata", "IANA time zone used to resolve times and for the event")
	cmd.Flags().String("calendar", "primary", "Calendar to check and book into")
	cmd.Flags().Int("max-attempts", orchestrator.DefaultPolicy().MaxAttempts, "Maximum number of prompts before giving up (0 = unlimited)")
	cmd.Flags().Duration("call-timeout", orchestrator.DefaultPolicy().CallTimeout, "Timeout for each extraction and availability call")
	cmd.Flags().Bool("send-history", false, "Send the conversation so far to the model with each request")
	cmd.Flags().String("ics", "", "Write an iCalendar receipt of the booked meeting to this file")

	return cmd
}

func runBook(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.logger.Warn("shutdown failed", "error", err)
		}
	}()

	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	if err := a.startMetricsServer(metricsAddr, nil); err != nil {
		return err
	}

	sc, err := a.serverContext(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = sc.Shutdown() }()

	account := a.cfg.Account
	if !sc.HasCredentials(account) {
		return fmt.Errorf("no Google Calendar token for account %q: run 'slotbook auth --account %s' first", account, account)
	}

	o, err := sc.NewSession(account, console.New(cmd.InOrStdin(), cmd.OutOrStdout()), nil, nil)
	if err != nil {
		return err
	}

	res, runErr := o.Run(ctx)
	icsPath, _ := cmd.Flags().GetString("ics")
	return finishBooking(cmd.OutOrStdout(), a.logger, res, runErr, icsPath, time.Now())
}

// finishBooking reports how a session ended and writes the receipt when one
// was requested.
func finishBooking(out io.Writer, logger *slog.Logger, res *orchestrator.Result, runErr error, icsPath string, now time.Time) error {
	if runErr != nil {
		switch {
		case errors.Is(runErr, context.Canceled):
			fmt.Fprintln(out, "\nCancelled.")
			return nil
		case errors.Is(runErr, io.EOF):
			fmt.Fprintln(out, "\nNo meeting booked.")
			return nil
		case errors.Is(runErr, orchestrator.ErrAttemptsExhausted):
			return fmt.Errorf("no meeting booked: %w", runErr)
		}
		if kind, ok := session.KindOf(runErr); ok {
			logger.Debug("session failed", "kind", kind, "error", runErr)
		}
		return fmt.Errorf("no meeting booked: %w", runErr)
	}

	if res == nil || res.Final != orchestrator.StateDone || res.Confirmation == nil {
		return errors.New("no meeting booked")
	}
	if icsPath == "" {
		return nil
	}
	if res.State.Draft == nil {
		return errors.New("booked meeting has no event details for the receipt")
	}

	err := receipt.WriteFile(icsPath, receipt.Receipt{
		Draft:        *res.State.Draft,
		Confirmation: *res.Confirmation,
		Stamp:        now,
	})
	if err != nil {
		return fmt.Errorf("meeting booked but the receipt could not be written: %w", err)
	}
	fmt.Fprintf(out, "Receipt written to %s\n", icsPath)
	return nil
}
