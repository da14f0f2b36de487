package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/sundialhq/sundial/internal/google"
	"github.com/sundialhq/sundial/internal/instrumentation"
	"github.com/sundialhq/sundial/internal/logging"
	"github.com/sundialhq/sundial/internal/server"
	"github.com/sundialhq/sundial/internal/tools/calendar_tools"
	"github.com/sundialhq/sundial/internal/tools/location_tools"
)

func newServeCmd() *cobra.Command {
	var (
		debugMode      bool
		transport      string
		httpAddr       string
		stateDir       string
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server providing Google Calendar
scheduling tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport

OAuth Configuration:
  The server needs the application's Google OAuth client to refresh user
  tokens. Provide a client_secret*.json file (path via
  GOOGLE_CLIENT_SECRET_FILE, or in the working directory) or the
  GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars. Users connect their
  accounts through the auth command.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if stateDir == "" {
				stateDir = os.Getenv("SUNDIAL_STATE_DIR")
			}
			if stateDir == "" {
				stateDir = "."
			}
			if addr := os.Getenv("METRICS_ADDR"); addr != "" && !cmd.Flags().Changed("metrics-addr") {
				metricsAddr = addr
			}
			if os.Getenv("METRICS_ENABLED") == "false" && !cmd.Flags().Changed("metrics-enabled") {
				metricsEnabled = false
			}
			return runServe(transport, debugMode, httpAddr, stateDir, metricsEnabled, metricsAddr)
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&httpAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().StringVar(&stateDir, "state-dir", "", "Directory holding user credential records. Can also use SUNDIAL_STATE_DIR env var. Default: current directory.")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(transport string, debugMode bool, httpAddr, stateDir string, metricsEnabled bool, metricsAddr string) error {
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Logs go to stderr; stdout stays clean for the stdio transport.
	logging.Setup(debugMode)

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil && transport != "stdio" {
			log.Printf("Error during instrumentation shutdown: %v", err)
		}
	}()

	clientCfg, err := google.LoadClientConfig()
	if err != nil {
		return err
	}

	serverContext, err := server.NewServerContext(shutdownCtx, clientCfg, stateDir)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil && transport != "stdio" {
			log.Printf("Error during server context shutdown: %v", err)
		}
	}()

	if provider.Enabled() {
		serverContext.SetMetrics(provider.Metrics())
	}

	// Metrics get their own port so scrapes stay off the MCP listener. In
	// stdio mode there is no place for one.
	var metricsServer *server.MetricsServer
	if transport != "stdio" && metricsEnabled && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:     metricsAddr,
			Provider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				log.Printf("Metrics server failed: %v", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				log.Printf("Error during metrics server shutdown: %v", err)
			}
		}()
	}

	mcpSrv := mcpserver.NewMCPServer("sundial", version,
		mcpserver.WithToolCapabilities(true),
	)

	if err := registerAllTools(mcpSrv, serverContext); err != nil {
		return err
	}

	switch transport {
	case "stdio":
		return runStdioServer(mcpSrv)
	case "streamable-http":
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, httpAddr)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", transport)
	}
}

// registerAllTools registers all MCP tools with the server.
func registerAllTools(mcpSrv *mcpserver.MCPServer, ctx *server.ServerContext) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Calendar",
			register: func() error {
				return calendar_tools.RegisterCalendarTools(mcpSrv, ctx)
			},
		},
		{
			name: "Location",
			register: func() error {
				return location_tools.RegisterLocationTools(mcpSrv, ctx)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}

	return nil
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, addr string) error {
	httpServer := mcpserver.NewStreamableHTTPServer(mcpSrv)

	fmt.Printf("Starting sundial MCP server on %s\n", addr)
	fmt.Printf("  HTTP endpoint: /mcp\n")

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(addr); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		fmt.Println("Shutdown signal received, stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	fmt.Println("HTTP server gracefully stopped")
	return nil
}
