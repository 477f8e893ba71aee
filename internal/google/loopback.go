package google

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// DefaultLoopbackPort is the local port the authorization redirect targets.
const DefaultLoopbackPort = 8080

// LoopbackFlow runs the installed-app OAuth flow: the consent URL redirects
// back to a short-lived HTTP listener on 127.0.0.1 which captures the code.
type LoopbackFlow struct {
	Port int
	// Out receives the consent URL for the user to open.
	Out io.Writer
	// OpenBrowser, when set, is called with the consent URL.
	OpenBrowser func(url string) error
	Logger      *slog.Logger
}

type callbackResult struct {
	code string
	err  error
}

// Run performs the flow and returns the exchanged token. conf is copied; its
// RedirectURL is replaced with the loopback address.
func (f *LoopbackFlow) Run(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error) {
	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", f.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen for OAuth callback: %w", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port

	local := *conf
	local.RedirectURL = fmt.Sprintf("http://localhost:%d/", port)
	state := uuid.NewString()

	results := make(chan callbackResult, 1)
	srv := &http.Server{
		Handler:           callbackHandler(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("OAuth callback server failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL := AuthURL(&local, state)
	if f.Out != nil {
		fmt.Fprintf(f.Out, "Open the following URL in your browser to authorize Google Calendar access:\n\n%s\n\n", authURL)
	}
	if f.OpenBrowser != nil {
		if err := f.OpenBrowser(authURL); err != nil {
			logger.Debug("could not open browser", "error", err)
		}
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		tok, err := local.Exchange(ctx, res.code)
		if err != nil {
			return nil, fmt.Errorf("failed to exchange auth code: %w", err)
		}
		return tok, nil
	}
}

func callbackHandler(state string, results chan<- callbackResult) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var res callbackResult
		switch {
		case q.Get("error") != "":
			res.err = fmt.Errorf("authorization denied: %s", q.Get("error"))
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		case q.Get("code") == "":
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		default:
			res.code = q.Get("code")
		}

		if res.err != nil {
			fmt.Fprintln(w, "Authorization failed. You can close this window.")
		} else {
			fmt.Fprintln(w, "Authorization complete. You can close this window.")
		}

		select {
		case results <- res:
		default:
		}
	})
}
