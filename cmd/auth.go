package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/slotbook/internal/google"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to Google Calendar",
		Long: `Runs the Google OAuth flow for the selected account and stores the token.

A short-lived listener on 127.0.0.1 receives the redirect from Google, so the
OAuth client must be of type "Desktop app". Configure it with
SLOTBOOK_OAUTH_CLIENT_ID and SLOTBOOK_OAUTH_CLIENT_SECRET or point
SLOTBOOK_OAUTH_CREDENTIALS_FILE at the downloaded client JSON.`,
		Args: cobra.NoArgs,
		RunE: runAuth,
	}

	cmd.Flags().Int("port", google.DefaultLoopbackPort, "Local port for the OAuth redirect (0 picks a free port)")
	cmd.Flags().Bool("no-browser", false, "Only print the authorization URL")

	return cmd
}

func runAuth(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a := &app{cfg: cfg, logger: newLogger(cmd)}

	conf, store, err := a.oauth()
	if err != nil {
		return err
	}
	if conf == nil {
		return errors.New("no OAuth client configured: set SLOTBOOK_OAUTH_CLIENT_ID and SLOTBOOK_OAUTH_CLIENT_SECRET or SLOTBOOK_OAUTH_CREDENTIALS_FILE")
	}

	flow := &google.LoopbackFlow{
		Port:   cfg.OAuth.Port,
		Out:    cmd.OutOrStdout(),
		Logger: a.logger,
	}
	if noBrowser, _ := cmd.Flags().GetBool("no-browser"); !noBrowser {
		flow.OpenBrowser = openBrowser
	}

	tok, err := flow.Run(ctx, conf)
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}
	if err := store.Save(cfg.Account, tok); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Authorized account %q. Token saved to %s\n", cfg.Account, store.Path(cfg.Account))
	return nil
}

func openBrowser(url string) error {
	var c *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		c = exec.Command("open", url)
	case "windows":
		c = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		c = exec.Command("xdg-open", url)
	}
	return c.Start()
}
