package core

import (
	"errors"
	"fmt"

	"cinelog/internal/clients/metadata"
	"cinelog/internal/database/models"
)

// ErrorKind is the stable machine-readable classification carried on every
// command failure.
type ErrorKind string

const (
	KindInvalidParameters   ErrorKind = "invalid_parameters"
	KindProviderUnavailable ErrorKind = "provider_unavailable"
	KindNotFound            ErrorKind = "not_found"
	KindEntryNotFound       ErrorKind = "entry_not_found"
	KindStoreFailure        ErrorKind = "store_failure"
)

// CommandError is the single error envelope crossing the command boundary.
// Commands return either a typed result or one of these, never both.
type CommandError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func invalidParams(format string, args ...interface{}) *CommandError {
	return &CommandError{Kind: KindInvalidParameters, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the classification from any error a command returned.
// Unclassified errors count as store failures: they came from our side of
// the provider boundary.
func KindOf(err error) ErrorKind {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Kind
	}
	return KindStoreFailure
}

// wrapProviderErr classifies a metadata client failure.
func wrapProviderErr(err error, message string) *CommandError {
	switch {
	case errors.Is(err, metadata.ErrNotFound):
		return &CommandError{Kind: KindNotFound, Message: message, Err: err}
	case errors.Is(err, metadata.ErrInvalidQuery):
		return &CommandError{Kind: KindInvalidParameters, Message: message, Err: err}
	default:
		return &CommandError{Kind: KindProviderUnavailable, Message: message, Err: err}
	}
}

// wrapStoreErr classifies a repository failure.
func wrapStoreErr(err error, message string) *CommandError {
	if errors.Is(err, models.ErrEntryNotFound) {
		return &CommandError{Kind: KindEntryNotFound, Message: message, Err: err}
	}
	return &CommandError{Kind: KindStoreFailure, Message: message, Err: err}
}
