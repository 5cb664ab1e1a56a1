package domain

import (
	"errors"
	"fmt"
)

// Decode, inference and invalid-input failures abort the request. The
// remaining kinds mark degraded pipeline steps that are logged and skipped.
var (
	ErrDecode       = errors.New("image decode failure")
	ErrInference    = errors.New("model inference failure")
	ErrInvalidInput = errors.New("invalid input")

	ErrUpload    = errors.New("artifact upload failure")
	ErrSink      = errors.New("record sink failure")
	ErrNotify    = errors.New("notification failure")
	ErrTemporary = errors.New("temporary failure")
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

// IsFatal reports whether an error aborts the whole request rather than
// degrading a single step.
func IsFatal(err error) bool {
	return IsKind(err, ErrDecode) || IsKind(err, ErrInference) || IsKind(err, ErrInvalidInput)
}
