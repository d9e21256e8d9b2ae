package model

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers can branch without string matching.
type Kind string

const (
	KindUnsupportedArchive Kind = "unsupported_archive"
	KindPayloadTooLarge    Kind = "payload_too_large"
	KindNoEligibleContent  Kind = "no_eligible_content"
	KindNoEngineAvailable  Kind = "no_engine_available"
	KindRecognitionFailed  Kind = "recognition_failed"
	KindAlreadyProcessing  Kind = "already_processing"
	KindNotFound           Kind = "not_found"
	KindStorageIO          Kind = "storage_io"
	KindInvalidInput       Kind = "invalid_input"
)

// Error is the structured error used across the ingestion core.
// Every failure surfaced to a caller carries a Kind plus a human-readable
// detail; EngineID is set only for recognition failures.
type Error struct {
	Kind     Kind
	Detail   string
	EngineID string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// E constructs a structured error with a formatted detail message.
func E(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and detail to an underlying error.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...), Err: err}
}

// RecognitionError reports an OCR engine failure, carrying the engine id.
func RecognitionError(engineID string, err error) *Error {
	return &Error{
		Kind:     KindRecognitionFailed,
		Detail:   fmt.Sprintf("engine %q failed", engineID),
		EngineID: engineID,
		Err:      err,
	}
}

// IsKind reports whether err (or anything it wraps) has the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or "" when err is not a structured Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
