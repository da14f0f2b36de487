// Package google owns the application's OAuth client configuration, the
// authorization-code flow that mints per-user credential records, and the
// resolver that picks which record a calendar call runs under.
package google
