package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnknownCategory    = errors.New("unknown category")
	ErrSchema             = errors.New("schema mismatch")
	ErrInference          = errors.New("inference failed")
	ErrPredictionNotFound = errors.New("prediction not found")
	ErrTemporary          = errors.New("temporary failure")
)

// UnknownCategoryError reports a value that the fitted encoder never saw.
// It matches ErrUnknownCategory with errors.Is.
type UnknownCategoryError struct {
	Column Column
	Value  string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q in column %q", e.Value, e.Column)
}

func (e *UnknownCategoryError) Is(target error) bool {
	return target == ErrUnknownCategory
}

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

// AsUnknownCategory extracts the offending column and value, if any.
func AsUnknownCategory(err error) (*UnknownCategoryError, bool) {
	var target *UnknownCategoryError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}
