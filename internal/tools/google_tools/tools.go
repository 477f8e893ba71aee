package google_tools

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/slotbook/internal/google"
	"github.com/teemow/slotbook/internal/server"
	"github.com/teemow/slotbook/internal/tools/common"
)

const errNotConfigured = "Google OAuth client is not configured. Set SLOTBOOK_OAUTH_CLIENT_ID and SLOTBOOK_OAUTH_CLIENT_SECRET or SLOTBOOK_OAUTH_CREDENTIALS_FILE."

// RegisterGoogleTools registers the Google OAuth tools with the MCP server
func RegisterGoogleTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	getAuthURLTool := mcp.NewTool("google_get_auth_url",
		mcp.WithDescription("Get the OAuth URL to authorize Google Calendar access for a specific account"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
	)
	s.AddTool(getAuthURLTool, common.InstrumentedToolHandler("google_get_auth_url", sc, handleGetAuthURL(sc)))

	saveAuthCodeTool := mcp.NewTool("google_save_auth_code",
		mcp.WithDescription("Save the OAuth authorization code to complete Google Calendar authorization for a specific account"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("authCode",
			mcp.Required(),
			mcp.Description("The authorization code from Google OAuth"),
		),
	)
	s.AddTool(saveAuthCodeTool, common.InstrumentedToolHandler("google_save_auth_code", sc, handleSaveAuthCode(sc)))

	return nil
}

func handleGetAuthURL(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		account := common.GetAccountFromArgs(request.GetArguments(), sc.DefaultAccount())

		conf := sc.OAuthConfig()
		if conf == nil {
			return mcp.NewToolResultError(errNotConfigured), nil
		}
		authURL := google.AuthURL(conf, uuid.NewString())

		result := fmt.Sprintf(`To authorize Google Calendar access for account "%s":

1. Visit this URL in your browser:
   %s

2. Sign in with your Google account
3. Grant access to Google Calendar
4. Copy the "code" parameter from the page you are redirected to

5. Call the google_save_auth_code tool with the code and account name to complete authorization`, account, authURL)

		return mcp.NewToolResultText(result), nil
	}
}

func handleSaveAuthCode(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		account := common.GetAccountFromArgs(args, sc.DefaultAccount())

		authCode, err := common.RequiredString(args, "authCode")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		conf, store := sc.OAuthConfig(), sc.TokenStore()
		if conf == nil || store == nil {
			return mcp.NewToolResultError(errNotConfigured), nil
		}

		if err := google.ExchangeAndSave(ctx, conf, store, account, authCode); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to save authorization code for account %s: %v", account, err)), nil
		}
		sc.ResetCalendarForAccount(account)

		return mcp.NewToolResultText(fmt.Sprintf("Authorization successful for account '%s'. The calendar token is saved and the scheduling tools can now use this account.", account)), nil
	}
}
