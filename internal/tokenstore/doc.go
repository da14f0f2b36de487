// Package tokenstore persists per-user OAuth credential records as flat JSON
// files, one per user id, with a legacy single-tenant record at a fixed path
// for older deployments. It is a durable key-to-record lookup, not a database:
// reads and writes are whole-record operations and writers to the same id
// race last-write-wins.
package tokenstore
