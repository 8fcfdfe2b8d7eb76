package errors

import (
	"fmt"
)

// Error is the structured error type for sondhan.
// It provides rich context for error handling, logging, and presentation.
type Error struct {
	// Code is the unique error code (e.g., "ERR_401_DUPLICATE_ID").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Validation, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with Error.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new Error with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates an Error from an existing error.
// The error's message becomes the Error message.
func Wrap(code string, err error) *Error {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// DuplicateID creates an error for an already-registered document ID.
func DuplicateID(id string) *Error {
	return New(ErrCodeDuplicateID, fmt.Sprintf("document %q already exists", id), nil).
		WithDetail("doc_id", id)
}

// DocumentNotFound creates an error for a missing document ID.
func DocumentNotFound(id string) *Error {
	return New(ErrCodeDocumentNotFound, fmt.Sprintf("document %q not found", id), nil).
		WithDetail("doc_id", id)
}

// EmptyQuery creates an error for a blank or whitespace-only query.
func EmptyQuery() *Error {
	return New(ErrCodeEmptyQuery, "query text is empty", nil)
}

// InvalidWeights creates a fusion weight misconfiguration error.
func InvalidWeights(message string) *Error {
	return New(ErrCodeInvalidWeights, message, nil)
}

// EmbeddingUnavailable creates an error for a missing or mismatched
// embedding store. The engine treats it as a degradation signal.
func EmbeddingUnavailable(message string, cause error) *Error {
	return New(ErrCodeEmbeddingUnavailable, message, cause)
}

// SnapshotCorrupt creates a fatal error for a snapshot that failed its
// consistency check.
func SnapshotCorrupt(message string, cause error) *Error {
	return New(ErrCodeSnapshotCorrupt, message, cause)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *Error {
	return New(ErrCodeConfigInvalid, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *Error {
	return New(ErrCodeInternal, message, cause)
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the current operation.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := err.(*Error); ok {
		return e.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from an Error.
// Returns empty string if not an Error.
func GetCode(err error) string {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// HasCode reports whether err (or anything it wraps) carries the code.
func HasCode(err error, code string) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
