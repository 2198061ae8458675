// Package resource exposes database tables as admin resources that actions
// can select records from.
package resource
