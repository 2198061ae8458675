// Package storage defines persistence contracts for operator-facing admin
// state: the action audit trail and the demo records actions operate on.
//
// Handlers and actions depend on these interfaces so they stay testable
// without a concrete SQLite schema.
package storage
