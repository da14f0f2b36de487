// Package cmd implements the command-line interface for sundial.
//
// This package provides the following commands:
//   - serve: Start the MCP server exposing calendar and location tools
//   - auth: Run the authorization listener that connects Google accounts
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified.
package cmd
