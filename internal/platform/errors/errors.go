package errors

import (
	stderrors "errors"
	"maps"
	"net/http"
)

// Error carries a Code for status mapping and localization, plus an
// internal message for logs. Metadata holds identifiers worth logging,
// such as the resource or action name.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

func (e *Error) Error() string {
	switch {
	case e.Cause == nil:
		return e.Message
	case e.Message == "":
		return e.Cause.Error()
	default:
		return e.Message + ": " + e.Cause.Error()
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error with the same code, so errors.Is(err,
// &Error{Code: c}) tests for a code anywhere in the chain.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// New returns an error with code and an internal message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithMetadata is New with log metadata attached.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata}
}

// Wrap returns an error with code that wraps cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func first(err error) (*Error, bool) {
	var e *Error
	ok := stderrors.As(err, &e)
	return e, ok
}

// CodeOf returns the code of the outermost *Error in err's chain, "" for
// nil, and CodeUnknown when the chain has none.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	if e, ok := first(err); ok {
		return e.Code
	}
	return CodeUnknown
}

// MetadataOf merges the metadata of every *Error in err's chain. Outer
// values win over inner ones.
func MetadataOf(err error) map[string]string {
	out := map[string]string{}
	var chain []*Error
	for err != nil {
		e, ok := first(err)
		if !ok {
			break
		}
		chain = append(chain, e)
		err = e.Cause
	}
	for i := len(chain) - 1; i >= 0; i-- {
		maps.Copy(out, chain[i].Metadata)
	}
	return out
}

// HTTPStatus returns the status for err's code, 200 for nil.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return CodeOf(err).HTTPStatus()
}

// IsCode reports whether any *Error in err's chain has code.
func IsCode(err error, code Code) bool {
	return stderrors.Is(err, &Error{Code: code})
}
