package field

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("field input validation failed")
	ErrConstruction = errors.New("invalid field request")
)

// ValidationError reports a response payload that does not match the
// expected field input schema.
type ValidationError struct {
	Type   Type
	Key    string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("invalid input: %s", e.Reason)
	}
	if e.Key == "" {
		return fmt.Sprintf("invalid %s input: %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("invalid %s input: %s: %s", e.Type, e.Key, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(t Type, key, format string, args ...any) *ValidationError {
	return &ValidationError{Type: t, Key: key, Reason: fmt.Sprintf(format, args...)}
}

// ConstructionError reports invalid builder parameters.
type ConstructionError struct {
	Type   Type
	Reason string
}

func (e *ConstructionError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("invalid field request: %s", e.Reason)
	}
	return fmt.Sprintf("invalid %s field request: %s", e.Type, e.Reason)
}

func (e *ConstructionError) Is(target error) bool {
	return target == ErrConstruction
}
