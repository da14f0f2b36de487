// Package server holds the shared runtime pieces of the MCP server and the
// authorization listener: the ServerContext that owns the credential store,
// resolver and calendar gateway, the OAuth callback HTTP server, health
// endpoints and the Prometheus metrics server.
package server
