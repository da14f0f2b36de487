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

	"github.com/sundialhq/sundial/internal/google"
	"github.com/sundialhq/sundial/internal/instrumentation"
	"github.com/sundialhq/sundial/internal/logging"
	"github.com/sundialhq/sundial/internal/server"
)

func newAuthCmd() *cobra.Command {
	var (
		debugMode bool
		addr      string
		stateDir  string
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Run the OAuth authorization listener",
		Long: `Run the HTTP listener that walks users through the Google OAuth consent
flow. Open the landing page in a browser, authorize access, and note the
user id shown on the success page; it identifies the account in tool calls.

The redirect URI registered with the Google OAuth client must point at this
listener's /google/callback route.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = os.Getenv("SUNDIAL_AUTH_ADDR")
			}
			if stateDir == "" {
				stateDir = os.Getenv("SUNDIAL_STATE_DIR")
			}
			if stateDir == "" {
				stateDir = "."
			}
			return runAuth(debugMode, addr, stateDir)
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&addr, "addr", server.DefaultAuthAddr, "Listener address. Can also use SUNDIAL_AUTH_ADDR env var.")
	cmd.Flags().StringVar(&stateDir, "state-dir", "", "Directory holding user credential records. Can also use SUNDIAL_STATE_DIR env var. Default: current directory.")

	return cmd
}

func runAuth(debugMode bool, addr, stateDir string) error {
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logging.Setup(debugMode)

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil {
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
		if err := serverContext.Shutdown(); err != nil {
			log.Printf("Error during server context shutdown: %v", err)
		}
	}()

	if provider.Enabled() {
		serverContext.SetMetrics(provider.Metrics())
	}

	flow := google.NewFlow(clientCfg.OAuthConfig(), serverContext.Store())

	authServer := server.NewAuthServer(server.AuthServerConfig{
		Addr:    addr,
		Flow:    flow,
		Store:   serverContext.Store(),
		Metrics: serverContext.Metrics(),
		Health:  server.NewHealthChecker(serverContext),
	})

	fmt.Printf("Authorization listener starting on %s\n", addr)
	fmt.Printf("  Open http://localhost%s in a browser to connect a Google account\n", addr)
	fmt.Printf("  Redirect URI: %s\n", clientCfg.RedirectURL)

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := authServer.Start(); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()

	select {
	case <-shutdownCtx.Done():
		fmt.Println("Shutdown signal received, stopping authorization listener...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := authServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("error shutting down authorization listener: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("authorization listener stopped with error: %w", err)
		}
	}

	return nil
}
