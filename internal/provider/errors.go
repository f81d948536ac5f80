package provider

import (
	"errors"
	"fmt"
)

// ErrNotConfigured marks a provider whose CLI executable or credential is
// missing. This is fatal at the collaborator boundary and is never retried.
var ErrNotConfigured = errors.New("provider not configured")

// CLIError represents an error from a CLI provider.
type CLIError struct {
	// Provider is the name of the provider that encountered the error.
	Provider string

	// Message is a human-readable error message.
	Message string

	// Err is the underlying error (if any).
	Err error
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s provider error: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("%s provider error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// IsConfiguration reports whether err is a configuration failure rather
// than a transient provider fault.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}
