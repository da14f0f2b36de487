package cmd

import (
	"context"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/sundialhq/sundial/internal/google"
	"github.com/sundialhq/sundial/internal/server"
)

func TestRegisterAllTools(t *testing.T) {
	sc, err := server.NewServerContext(context.Background(), &google.ClientConfig{ClientID: "id", ClientSecret: "secret"}, t.TempDir())
	if err != nil {
		t.Fatalf("NewServerContext() failed: %v", err)
	}
	defer func() { _ = sc.Shutdown() }()

	mcpSrv := mcpserver.NewMCPServer("sundial", "test",
		mcpserver.WithToolCapabilities(true),
	)

	if err := registerAllTools(mcpSrv, sc); err != nil {
		t.Fatalf("registerAllTools() failed: %v", err)
	}
}

func TestServeRejectsUnknownTransport(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")
	t.Setenv("INSTRUMENTATION_ENABLED", "false")

	err := runServe("carrier-pigeon", false, ":0", t.TempDir(), false, ":0")
	if err == nil {
		t.Fatal("expected an error for an unknown transport")
	}
}
