package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the store, service and web layers.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrStoreUnavailable      = errors.New("store unavailable")
	ErrWriteFailed           = errors.New("write failed")
	ErrInvalidIdentifier     = errors.New("invalid identifier")
	ErrSuggestionUnavailable = errors.New("suggestion unavailable")
)

// FieldError names a single field that failed validation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error { return ErrInvalidInput }

// ValidationError collects every field violation found in one input.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("invalid input: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("invalid input: %d fields (first: %s: %s)", len(e.Errors), e.Errors[0].Field, e.Errors[0].Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// Fields returns the names of the offending fields in the order they were found.
func (e *ValidationError) Fields() []string {
	names := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		names[i] = fe.Field
	}
	return names
}

// Error kinds as reported to clients.
const (
	KindInvalidInput          = "InvalidInput"
	KindStoreUnavailable      = "StoreUnavailable"
	KindWriteFailed           = "WriteFailed"
	KindInvalidIdentifier     = "InvalidIdentifier"
	KindSuggestionUnavailable = "SuggestionUnavailable"
	KindInternal              = "Internal"
)

// KindOf maps err onto its client-facing kind.
func KindOf(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrInvalidIdentifier):
		return KindInvalidIdentifier
	case errors.Is(err, ErrStoreUnavailable):
		return KindStoreUnavailable
	case errors.Is(err, ErrWriteFailed):
		return KindWriteFailed
	case errors.Is(err, ErrSuggestionUnavailable):
		return KindSuggestionUnavailable
	default:
		return KindInternal
	}
}
