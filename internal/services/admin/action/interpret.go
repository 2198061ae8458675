package action

import "strings"

// OutcomeKind is the emitted result of an action run.
type OutcomeKind string

const (
	OutcomeValidationFailure OutcomeKind = "validation_failure"
	OutcomeDownload          OutcomeKind = "download"
	OutcomeRedirect          OutcomeKind = "redirect"
	OutcomeReload            OutcomeKind = "reload"
)

// Outcome is a response reduced to exactly one thing to emit.
type Outcome struct {
	Kind OutcomeKind
	// FormError is set for validation failures.
	FormError string
	// Messages are flashed before a redirect or reload.
	Messages []Message
	Location string
	Download Download
}

// VisibleMessages drops silent messages. When the action supplied no
// messages at all, it returns defaultMessage alone.
func VisibleMessages(messages []Message, defaultMessage Message) []Message {
	if len(messages) == 0 {
		return []Message{defaultMessage}
	}
	visible := make([]Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Severity == SeveritySilent {
			continue
		}
		visible = append(visible, msg)
	}
	return visible
}

// Interpret decides what a response emits. A keep-modal-open message wins
// over every kind, downloads never flash, and deferred locations are
// resolved against lc.
func Interpret(resp Response, lc LocationContext, defaultMessage Message) Outcome {
	messages := VisibleMessages(resp.Messages, defaultMessage)
	for _, msg := range messages {
		if msg.Severity == SeverityKeepModalOpen {
			return Outcome{Kind: OutcomeValidationFailure, FormError: msg.Body}
		}
	}

	fallback := ""
	if lc.Resource != nil {
		fallback = lc.Resource.IndexPath()
	}

	switch resp.Kind {
	case KindDownload:
		return Outcome{Kind: OutcomeDownload, Download: resp.Download}
	case KindRedirect:
		location := strings.TrimSpace(resp.Location.Resolve(lc))
		if location == "" {
			location = fallback
		}
		return Outcome{Kind: OutcomeRedirect, Messages: messages, Location: location}
	default:
		location := strings.TrimSpace(lc.Referer)
		if location == "" {
			location = fallback
		}
		return Outcome{Kind: OutcomeReload, Messages: messages, Location: location}
	}
}
