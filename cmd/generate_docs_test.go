package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListAllTools(t *testing.T) {
	tools, err := listAllTools()
	require.NoError(t, err)

	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"slot_extract",
		"calendar_check_slot",
		"calendar_book_slot",
		"schedule_meeting",
		"google_get_auth_url",
		"google_save_auth_code",
	}, names)
}

func TestToolCategory(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"slot_extract", "Slot Extraction Tools"},
		{"calendar_check_slot", "Google Calendar Tools"},
		{"schedule_meeting", "Scheduling Session Tools"},
		{"google_get_auth_url", "Google Authorization Tools"},
		{"unknown", "Other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, toolCategory(tt.name))
		})
	}
}

func TestGenerateToolMarkdown(t *testing.T) {
	tool := mcp.NewTool("calendar_check_slot",
		mcp.WithDescription("Check a window."),
		mcp.WithString("start", mcp.Required(), mcp.Description("Start of the window")),
		mcp.WithString("account", mcp.Description("Account name")),
	)

	md := generateToolMarkdown(tool)
	assert.Contains(t, md, "### calendar_check_slot")
	assert.Contains(t, md, "Check a window.")
	assert.Contains(t, md, "- `account` (string, optional): Account name")
	assert.Contains(t, md, "- `start` (string, required): Start of the window")
	assert.Less(t, strings.Index(md, "`account`"), strings.Index(md, "`start`"))
}

func TestGenerateToolsMarkdown(t *testing.T) {
	tools, err := listAllTools()
	require.NoError(t, err)

	md := generateToolsMarkdown(tools)
	assert.True(t, strings.HasPrefix(md, "# MCP Tools Reference"))
	assert.Contains(t, md, "- [Google Calendar Tools](#google-calendar-tools)")
	assert.Contains(t, md, "## Multi-Account Support")
	assert.Less(t, strings.Index(md, "### calendar_book_slot"), strings.Index(md, "### calendar_check_slot"))
	assert.Less(t, strings.Index(md, "## Slot Extraction Tools"), strings.Index(md, "## Google Calendar Tools"))
	assert.Less(t, strings.Index(md, "## Scheduling Session Tools"), strings.Index(md, "## Google Authorization Tools"))
	assert.NotContains(t, md, "## Other")
}

func TestRunGenerateDocs(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, runGenerateDocs(&stdout, &stderr, ""))
	assert.Contains(t, stdout.String(), "### schedule_meeting")
	assert.Empty(t, stderr.String())

	path := filepath.Join(t.TempDir(), "tools.md")
	stdout.Reset()
	require.NoError(t, runGenerateDocs(&stdout, &stderr, path))
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "### slot_extract")
}
