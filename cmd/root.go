package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the sundial application
var rootCmd = &cobra.Command{
	Use:   "sundial",
	Short: "Google Calendar scheduling tools for AI assistants",
	Long: `sundial is an MCP (Model Context Protocol) server that gives AI
assistants access to Google Calendar: availability checks, event creation
with Google Meet links, listing, updates and deletion, plus IP-based
location detection and timezone conversion.

It can run as:
  - An MCP server over stdio or streamable HTTP (serve, the default)
  - An OAuth authorization listener for connecting Google accounts (auth)`,
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
	rootCmd.SetVersionTemplate(`{{printf "sundial version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newVersionCmd())
}
