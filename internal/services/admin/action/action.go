package action

import (
	"context"

	"golang.org/x/text/message"
)

// Severity tags a message for presentation.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	// SeveritySilent marks a placeholder that is never shown.
	SeveritySilent Severity = "silent"
	// SeverityKeepModalOpen marks a validation failure: the action form is
	// rendered again with the message body as its error.
	SeverityKeepModalOpen Severity = "keep_modal_open"
)

// Message is one user-facing note returned by an action.
type Message struct {
	Severity Severity
	Body     string
}

// Info builds an informational message.
func Info(body string) Message { return Message{Severity: SeverityInfo, Body: body} }

// Success builds a success message.
func Success(body string) Message { return Message{Severity: SeveritySuccess, Body: body} }

// Warning builds a warning message.
func Warning(body string) Message { return Message{Severity: SeverityWarning, Body: body} }

// Error builds an error message. It is presentational only; the action still
// completed.
func Error(body string) Message { return Message{Severity: SeverityError, Body: body} }

// Silent builds a message that is filtered before display.
func Silent() Message { return Message{Severity: SeveritySilent} }

// KeepModalOpen builds a validation failure message.
func KeepModalOpen(body string) Message {
	return Message{Severity: SeverityKeepModalOpen, Body: body}
}

// FieldKind selects the input control used for a field.
type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldTextarea FieldKind = "textarea"
	FieldBoolean  FieldKind = "boolean"
	FieldSelect   FieldKind = "select"
)

// Field declares one input of an action form.
type Field struct {
	ID       string
	Label    string // catalog key
	Kind     FieldKind
	Default  string
	Required bool
	Options  []string
}

// Definition describes an action independent of any request.
type Definition struct {
	// Name is the canonical type name, e.g. "ToggleActive".
	Name string
	// Label and Confirm are catalog keys.
	Label   string
	Confirm string
	// Standalone actions never receive records.
	Standalone bool
	Fields     []Field
}

// FieldDefaults returns declared field defaults keyed by field id.
func (d Definition) FieldDefaults() map[string]string {
	out := make(map[string]string, len(d.Fields))
	for _, field := range d.Fields {
		out[field.ID] = field.Default
	}
	return out
}

// User is the operator running an action.
type User struct {
	ID    string
	Email string
	Name  string
	Roles []string
}

// Record is one row of a resource.
type Record struct {
	ID     string
	Values map[string]any
}

// View is the resource presentation mode a request runs in.
type View string

const (
	ViewIndex View = "index"
	ViewShow  View = "show"
	ViewNew   View = "new"
)

// Localizer translates catalog keys.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// Context is what an action is constructed with for one request.
type Context struct {
	Resource Resource
	// Record is set when the action form is opened from a single record.
	Record *Record
	User   User
	View   View
	// Loc translates message bodies into the operator's language.
	Loc Localizer
}

// T translates key, returning it unchanged when no localizer is set.
func (c Context) T(key string, args ...any) string {
	if c.Loc == nil {
		return key
	}
	return c.Loc.Sprintf(key, args...)
}

// Action is a user-invokable operation bound to resources.
type Action interface {
	Definition() Definition
	// Defaults returns the values used to prefill the action form.
	Defaults(ctx context.Context) map[string]string
	// Handle runs the action and describes the outcome.
	Handle(ctx context.Context, inv Invocation) (Response, error)
}

// Factory builds an Action for one request.
type Factory func(Context) Action
