package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the slotbook application
var rootCmd = &cobra.Command{
	Use:   "slotbook",
	Short: "Books meetings on Google Calendar from plain-language requests",
	Long: `slotbook asks when you would like to meet, works out the date and time
with a language model, checks your Google Calendar for conflicts and books the
meeting with a Google Meet link when the slot is free.

It can run as:
  - An interactive CLI session (default)
  - An MCP (Model Context Protocol) server for AI assistants`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "slotbook version %s\n" .Version}}`)

	// If no subcommand is provided, run the book command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "book")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	addPersistentFlags(rootCmd)

	rootCmd.AddCommand(newBookCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}

func addPersistentFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("config", "", "Config file (default: ./slotbook.yaml or $XDG_CONFIG_HOME/slotbook/slotbook.yaml)")
	flags.String("env-file", "", "Environment file to load (default: ./.env if present)")
	flags.String("account", "default", "Google account name to use")
	flags.Bool("debug", false, "Enable debug logging")
	flags.String("log-format", "text", "Log format: text or json")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. 127.0.0.1:9090)")
}
