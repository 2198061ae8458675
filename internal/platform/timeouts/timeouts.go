// Package timeouts holds the time budgets shared by the admin server,
// its storage calls and process shutdown.
package timeouts

import "time"

const (
	// ReadHeader bounds how long a client may take to send headers.
	ReadHeader = 5 * time.Second
	// Idle bounds keep-alive connections between requests.
	Idle = 2 * time.Minute
	// Shutdown bounds the graceful drain of in-flight requests.
	Shutdown = 5 * time.Second
	// ActionRun bounds one action run, record hydration included.
	ActionRun = 30 * time.Second
	// StoragePing bounds the database ping behind /healthz.
	StoragePing = 2 * time.Second
	// TelemetryShutdown bounds the final span flush.
	TelemetryShutdown = 5 * time.Second
)
