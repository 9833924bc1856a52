package lightstate

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeBadInput         = "LIGHTSTATE_BAD_INPUT"
	TextCodeProjectionFailed = "LIGHTSTATE_PROJECTION_FAILED"
	TextCodeInvalidConfig    = "LIGHTSTATE_INVALID_CONFIG"
)

var (
	// ErrSelectorUnavailable is returned by selector builders whose engine was
	// not compiled in.
	ErrSelectorUnavailable = errors.New("lightstate: selector engine unavailable")
	// ErrStorageNotFound is returned by LoadFunc adapters that cannot tell a
	// miss apart from a failure.
	ErrStorageNotFound = errors.New("lightstate: storage key not found")
)

// ProjectionError reports a selector failure observed by a Watcher.
type ProjectionError struct {
	Container string
	Err       error
}

func (e *ProjectionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Container == "" {
		return fmt.Sprintf("lightstate: projection failed: %v", e.Err)
	}
	return fmt.Sprintf("lightstate: projection failed for %q: %v", e.Container, e.Err)
}

func (e *ProjectionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Envelope returns the go-errors representation of the failure.
func (e *ProjectionError) Envelope() *goerrors.Error {
	if e == nil {
		return nil
	}
	var envelope *goerrors.Error
	if e.Err != nil {
		envelope = goerrors.Wrap(e.Err, goerrors.CategoryOperation, e.Error())
	} else {
		envelope = goerrors.New(e.Error(), goerrors.CategoryOperation)
	}
	envelope.WithTextCode(TextCodeProjectionFailed)
	if e.Container != "" {
		envelope.WithMetadata(map[string]any{"container": e.Container})
	}
	return envelope
}

func newProjectionError(container string, err error) *ProjectionError {
	var projErr *ProjectionError
	if errors.As(err, &projErr) {
		if projErr.Container == "" {
			projErr.Container = container
		}
		return projErr
	}
	return &ProjectionError{Container: container, Err: err}
}

func badInput(message string) error {
	return goerrors.New("lightstate: "+message, goerrors.CategoryBadInput).
		WithTextCode(TextCodeBadInput)
}

func invalidConfig(field, message string) error {
	return goerrors.NewValidation("lightstate: invalid config", goerrors.FieldError{
		Field:   field,
		Message: message,
	}).WithTextCode(TextCodeInvalidConfig)
}

// IsBadInput reports whether err was caused by invalid arguments.
func IsBadInput(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.Category == goerrors.CategoryBadInput
}
