package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound     = errors.New("document not found")
	ErrDocumentNotReady     = errors.New("document not ready")
	ErrInvalidInput         = errors.New("invalid input")
	ErrUnsupportedFormat    = errors.New("unsupported document format")
	ErrUnsupportedModel     = errors.New("unsupported model")
	ErrMalformedModelOutput = errors.New("unable to parse model output as JSON")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrTemporary            = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// MalformedOutputError keeps the raw provider reply that failed to decode.
type MalformedOutputError struct {
	Raw string
	Err error
}

func (e *MalformedOutputError) Error() string {
	if e.Err == nil {
		return ErrMalformedModelOutput.Error()
	}
	return fmt.Sprintf("%s: %v", ErrMalformedModelOutput.Error(), e.Err)
}

func (e *MalformedOutputError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedModelOutput}
	}
	return []error{ErrMalformedModelOutput, e.Err}
}

// RawModelOutput returns the raw reply carried by a MalformedOutputError, if any.
func RawModelOutput(err error) (string, bool) {
	var malformed *MalformedOutputError
	if errors.As(err, &malformed) {
		return malformed.Raw, true
	}
	return "", false
}
