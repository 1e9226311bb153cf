package chat

import (
	"errors"
	"fmt"
)

// Kind classifies a chat pipeline failure. Every error that reaches
// the command boundary carries exactly one kind, which decides the
// user-facing reply.
type Kind string

const (
	KindValidation Kind = "validation"
	KindUpstream   Kind = "upstream"
	KindStorage    Kind = "storage"
	KindNetwork    Kind = "network"
)

type Error struct {
	Kind    Kind
	Message string
	// URL names the offending attachment for network and
	// attachment validation failures.
	URL string
	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.URL != "" {
		msg = fmt.Sprintf("%s (url: %s)", msg, e.URL)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func NewUpstreamError(message string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: message, Err: err}
}

func NewStorageError(message string, err error) *Error {
	return &Error{Kind: KindStorage, Message: message, Err: err}
}

func NewNetworkError(message, url string, err error) *Error {
	return &Error{Kind: KindNetwork, Message: message, URL: url, Err: err}
}

// KindOf extracts the failure kind, defaulting to upstream for
// errors that did not originate in this package.
func KindOf(err error) Kind {
	var chatErr *Error
	if errors.As(err, &chatErr) {
		return chatErr.Kind
	}
	return KindUpstream
}

// UserMessage converts a pipeline failure into the single reply shown
// to the author. Validation and network errors are specific, the rest
// stay generic.
func UserMessage(err error) string {
	var chatErr *Error
	if !errors.As(err, &chatErr) {
		return "Something went wrong, try again later."
	}
	switch chatErr.Kind {
	case KindValidation:
		if chatErr.URL != "" {
			return fmt.Sprintf("Can't use attachment %s: %s", chatErr.URL, chatErr.Message)
		}
		return chatErr.Message
	case KindNetwork:
		if chatErr.URL != "" {
			return fmt.Sprintf("Couldn't fetch attachment %s, check the link and try again.", chatErr.URL)
		}
		return "Couldn't fetch an attachment, check the link and try again."
	case KindStorage:
		return "Database error, try again later."
	default:
		return "The AI service is unavailable right now, try again later."
	}
}
