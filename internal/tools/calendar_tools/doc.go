// Package calendar_tools registers the scheduling tools: availability
// queries and event create/list/update/delete. Every tool answers with the
// uniform success/failure envelope and resolves its acting user through the
// credential resolver.
package calendar_tools
