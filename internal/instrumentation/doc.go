// Package instrumentation wires OpenTelemetry metrics and tracing for the
// server: tool invocations, calendar API calls, OAuth exchanges and token
// refreshes, and the authorization listener's HTTP traffic.
package instrumentation
