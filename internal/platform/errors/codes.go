// Package errors provides structured error handling for the admin service.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Action dispatch errors
	CodeActionNotFound       Code = "ACTION_NOT_FOUND"
	CodeActionIDMismatch     Code = "ACTION_ID_MISMATCH"
	CodeActionNotOnResource  Code = "ACTION_NOT_ON_RESOURCE"
	CodeSelectedQueryInvalid Code = "SELECTED_QUERY_INVALID"

	// Resource errors
	CodeResourceNotFound Code = "RESOURCE_NOT_FOUND"
	CodeRecordNotFound   Code = "RECORD_NOT_FOUND"

	// Request errors
	CodeInvalidForm     Code = "INVALID_FORM"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// BadRequest - malformed or tampered input
	case CodeActionIDMismatch,
		CodeSelectedQueryInvalid,
		CodeInvalidForm:
		return http.StatusBadRequest

	// NotFound - unknown action, resource, or record
	case CodeActionNotFound,
		CodeActionNotOnResource,
		CodeResourceNotFound,
		CodeRecordNotFound:
		return http.StatusNotFound

	case CodeUnauthenticated:
		return http.StatusUnauthorized

	default:
		return http.StatusInternalServerError
	}
}

// LocalizationKey returns the catalog key holding the user-facing message.
func (c Code) LocalizationKey() string {
	if c == "" {
		c = CodeUnknown
	}
	return "errors." + string(c)
}
