package service

import (
	"errors"

	"github.com/EngineerAbdulQadir/evolved-todo-sub002/internal/models"
)

// Kind classifies a service error so callers can map it to an exit code or
// HTTP status without string matching.
type Kind string

const (
	// KindValidation is a bad field value or unrecognized enum value.
	KindValidation Kind = "validation"
	// KindNotFound means the operation referenced an id with no live record.
	KindNotFound Kind = "not_found"
	// KindAdvanceFailed means a recurring task was marked complete but its
	// successor could not be created. The original stays complete; callers
	// should retry successor creation alone via Advance.
	KindAdvanceFailed Kind = "advance_failed"
)

// Error is a service error with a stable kind and a human-readable reason.
type Error struct {
	Kind    Kind
	Message string
	Err     error

	// Task carries the completed original on KindAdvanceFailed so callers
	// can see the durable outcome of step one.
	Task *models.Task
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newValidationError(err error) *Error {
	return &Error{Kind: KindValidation, Message: err.Error()}
}

func newNotFoundError(err error) *Error {
	return &Error{Kind: KindNotFound, Message: "task not found", Err: err}
}

// KindOf returns the kind of a service error, or "" for other errors.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return ""
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsAdvanceFailed reports whether err is a partial recurrence-advance failure.
func IsAdvanceFailed(err error) bool { return KindOf(err) == KindAdvanceFailed }
