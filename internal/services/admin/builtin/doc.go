// Package builtin mounts the resources and actions the admin ships with.
//
// Register binds the users table as a resource and attaches the sample
// actions to it: a bulk toggle, a CSV export, a reminder with a required
// message, and a standalone search index rebuild.
package builtin
