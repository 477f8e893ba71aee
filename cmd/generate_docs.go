package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/slotbook/internal/extractor"
	"github.com/teemow/slotbook/internal/server"
	"github.com/teemow/slotbook/internal/session"
)

func newGenerateDocsCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Registers every MCP tool on a throwaway server and writes a markdown
reference of their names, descriptions and arguments.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateDocs(cmd.OutOrStdout(), cmd.ErrOrStderr(), outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runGenerateDocs(stdout, stderr io.Writer, outputFile string) error {
	tools, err := listAllTools()
	if err != nil {
		return err
	}
	markdown := generateToolsMarkdown(tools)

	if outputFile == "" {
		_, err = io.WriteString(stdout, markdown)
		return err
	}
	if err := os.WriteFile(outputFile, []byte(markdown), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputFile, err)
	}
	fmt.Fprintf(stderr, "Documentation written to %s\n", outputFile)
	return nil
}

// listAllTools registers every tool, including the booking tool, on a
// throwaway server and returns their definitions.
func listAllTools() ([]mcp.Tool, error) {
	// No tool is invoked, so the extractor never runs.
	noExtractor := extractor.Func(func(context.Context, extractor.Request) (session.Slot, error) {
		return session.Slot{}, errors.New("extraction unavailable during documentation generation")
	})
	serverContext, err := server.NewServerContext(context.Background(), server.Options{Extractor: noExtractor})
	if err != nil {
		return nil, fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() { _ = serverContext.Shutdown() }()

	mcpSrv := mcpserver.NewMCPServer("slotbook", version, mcpserver.WithToolCapabilities(true))
	if err := registerAllTools(mcpSrv, serverContext, false); err != nil {
		return nil, err
	}

	var tools []mcp.Tool
	for _, st := range mcpSrv.ListTools() {
		tools = append(tools, st.Tool)
	}
	return tools, nil
}

// toolCategories lists the documentation sections in workflow order, keyed
// by tool name prefix.
var toolCategories = []struct {
	prefix string
	title  string
}{
	{"slot", "Slot Extraction Tools"},
	{"calendar", "Google Calendar Tools"},
	{"schedule", "Scheduling Session Tools"},
	{"google", "Google Authorization Tools"},
}

const otherCategory = "Other"

func toolCategory(name string) string {
	prefix, _, _ := strings.Cut(name, "_")
	for _, c := range toolCategories {
		if c.prefix == prefix {
			return c.title
		}
	}
	return otherCategory
}

func generateToolsMarkdown(tools []mcp.Tool) string {
	grouped := make(map[string][]mcp.Tool)
	for _, tool := range tools {
		title := toolCategory(tool.Name)
		grouped[title] = append(grouped[title], tool)
	}

	var titles []string
	for _, c := range toolCategories {
		if len(grouped[c.title]) > 0 {
			titles = append(titles, c.title)
		}
	}
	if len(grouped[otherCategory]) > 0 {
		titles = append(titles, otherCategory)
	}

	var b strings.Builder
	b.WriteString("# MCP Tools Reference\n\n")
	b.WriteString("Tools exposed by `slotbook serve`. Generated from the registered tool definitions by `slotbook generate-docs`.\n\n")

	b.WriteString("## Table of Contents\n\n")
	for _, title := range titles {
		fmt.Fprintf(&b, "- [%s](#%s)\n", title, strings.ToLower(strings.ReplaceAll(title, " ", "-")))
	}

	b.WriteString("\n## Multi-Account Support\n\n")
	b.WriteString("Every calendar tool accepts an optional `account` parameter naming the Google account to use. " +
		"Without it the server's configured account is used (`default` unless changed). " +
		"Authorize an account with `slotbook auth --account NAME` or the `google_get_auth_url` tool.\n\n")

	for _, title := range titles {
		section := grouped[title]
		slices.SortFunc(section, func(a, b mcp.Tool) int { return strings.Compare(a.Name, b.Name) })

		fmt.Fprintf(&b, "## %s\n\n", title)
		for _, tool := range section {
			b.WriteString(generateToolMarkdown(tool))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func generateToolMarkdown(tool mcp.Tool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n\n", tool.Name)
	if tool.Description != "" {
		b.WriteString(tool.Description)
		b.WriteString("\n\n")
	}

	props := tool.InputSchema.Properties
	if len(props) == 0 {
		return b.String()
	}

	b.WriteString("**Arguments:**\n")
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prop, ok := props[name].(map[string]any)
		if !ok {
			continue
		}
		typ, _ := prop["type"].(string)
		if typ == "" {
			typ = "any"
		}
		need := "optional"
		if slices.Contains(tool.InputSchema.Required, name) {
			need = "required"
		}
		desc, _ := prop["description"].(string)
		fmt.Fprintf(&b, "- `%s` (%s, %s)", name, typ, need)
		if desc != "" {
			b.WriteString(": " + desc)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}
