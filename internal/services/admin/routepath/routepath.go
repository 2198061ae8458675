package routepath

import (
	"net/url"
	"strings"
)

const (
	Root = "/"
)

const (
	Healthz = "/healthz"
	Metrics = "/metrics"
	// Session accepts a signed token handed off by the login service.
	Session = "/session"
)

const (
	Resources       = "/resources"
	ResourcesPrefix = "/resources/"
)

// Resource is the listing page of a resource.
func Resource(name string) string {
	return Resources + "/" + escapeSegment(name)
}

// ResourceActions is the prefix of every action route of a resource.
func ResourceActions(name string) string {
	return Resource(name) + "/actions"
}

// ResourceAction shows (GET) and runs (POST) one action.
func ResourceAction(name string, actionID string) string {
	return ResourceActions(name) + "/" + escapeSegment(actionID)
}

// ResourceActionForRecord opens an action form primed with one record.
func ResourceActionForRecord(name string, actionID string, recordID string) string {
	base := ResourceAction(name, actionID)
	recordID = strings.TrimSpace(recordID)
	if recordID == "" {
		return base
	}
	return base + "?" + url.Values{"id": {recordID}}.Encode()
}

// ResourceSearch is the listing filtered by a search term.
func ResourceSearch(name string, query string) string {
	base := Resource(name)
	query = strings.TrimSpace(query)
	if query == "" {
		return base
	}
	return base + "?" + url.Values{"q": {query}}.Encode()
}

func escapeSegment(raw string) string {
	return url.PathEscape(strings.TrimSpace(raw))
}
