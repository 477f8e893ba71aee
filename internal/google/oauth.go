package google

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
)

// Scopes are the OAuth scopes slotbook requests. Free/busy and event
// insertion both need full calendar access.
var Scopes = []string{
	calendar.CalendarScope,
}

// ErrMissingCredentials is returned when neither a client id/secret pair nor
// a credentials file is configured.
var ErrMissingCredentials = errors.New("google OAuth client credentials not configured")

// Credentials identifies the OAuth client. CredentialsFile, when set, points
// to the client JSON downloaded from the Google Cloud console and takes
// precedence over ClientID/ClientSecret.
type Credentials struct {
	ClientID        string
	ClientSecret    string
	CredentialsFile string
}

// OAuthConfig builds the OAuth2 configuration for the calendar scopes.
func OAuthConfig(creds Credentials) (*oauth2.Config, error) {
	if creds.CredentialsFile != "" {
		data, err := os.ReadFile(creds.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		conf, err := googleoauth.ConfigFromJSON(data, Scopes...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse credentials file: %w", err)
		}
		return conf, nil
	}

	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}

	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     googleoauth.Endpoint,
		Scopes:       Scopes,
	}, nil
}

// AuthURL returns the consent URL. Offline access is requested so that a
// refresh token is issued.
func AuthURL(conf *oauth2.Config, state string) string {
	return conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// ExchangeAndSave exchanges an authorization code for tokens and stores them
// for account.
func ExchangeAndSave(ctx context.Context, conf *oauth2.Config, store *TokenStore, account, code string) error {
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return store.Save(account, tok)
}

// GetAuthenticationErrorMessage returns the message shown when account has
// no usable token.
func GetAuthenticationErrorMessage(account string) string {
	if account == "" || account == DefaultAccount {
		return "Google Calendar is not authorized. Run 'slotbook auth' to grant access."
	}
	return fmt.Sprintf("Google Calendar is not authorized for account %q. Run 'slotbook auth --account %s' to grant access.", account, account)
}
