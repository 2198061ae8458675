// Package admin composes the operator admin service.
//
// It mounts resource listings and the action dispatcher behind session
// authentication, and serves health and metrics endpoints beside them.
package admin
