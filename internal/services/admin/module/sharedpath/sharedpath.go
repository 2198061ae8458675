// Package sharedpath splits and canonicalizes admin route paths.
package sharedpath

import (
	"net/http"
	"strings"
)

// SplitPathParts splits path on "/" and drops blank segments.
func SplitPathParts(path string) []string {
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	out := parts[:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Segments returns the path segments of r below prefix. A request outside
// prefix yields no segments.
func Segments(r *http.Request, prefix string) []string {
	if r == nil || r.URL == nil {
		return []string{}
	}
	rest, ok := strings.CutPrefix(r.URL.Path, prefix)
	if !ok {
		return []string{}
	}
	return SplitPathParts(rest)
}

// RedirectTrailingSlash answers 301 with the path minus its trailing
// slashes and reports whether it did. The root path is left alone.
func RedirectTrailingSlash(w http.ResponseWriter, r *http.Request) bool {
	if w == nil || r == nil || r.URL == nil || r.URL.Path == "/" || !strings.HasSuffix(r.URL.Path, "/") {
		return false
	}
	target := *r.URL
	target.Path = "/" + strings.Trim(r.URL.Path, "/")
	target.RawPath = ""
	http.Redirect(w, r, target.RequestURI(), http.StatusMovedPermanently)
	return true
}
