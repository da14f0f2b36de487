// Package logging provides slog setup and shared attribute helpers so that
// log lines carry consistent keys (tool, operation, user_id, status) across
// the token store, the authorization flow and the tool handlers.
package logging
