package service

import "errors"

var (
	// ErrModelNotConfigured is returned by ProcessPrompt when no model client is set.
	ErrModelNotConfigured = errors.New("language model is not configured")
	// ErrEmptyPrompt is returned for blank prompts.
	ErrEmptyPrompt = errors.New("prompt must not be empty")
	// ErrUnauthenticated is returned for missing or invalid credentials.
	ErrUnauthenticated = errors.New("could not validate credentials")
	// ErrForbidden is returned when the caller may not act on a resource.
	ErrForbidden = errors.New("not allowed")
	// ErrNotFound is returned for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput wraps request validation failures.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmailTaken is returned when registering an existing email.
	ErrEmailTaken = errors.New("email already registered")
)

// ModelError reports a failed model call. The turn's messages up to the
// failure are kept in the conversation.
type ModelError struct {
	Err error
}

func (e *ModelError) Error() string {
	return "model request failed: " + e.Err.Error()
}

func (e *ModelError) Unwrap() error {
	return e.Err
}
