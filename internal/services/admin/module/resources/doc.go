// Package resources serves resource listings and routes action requests
// under them.
package resources
