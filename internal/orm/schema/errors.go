package schema

import (
	"errors"
	"fmt"
)

// Sentinel errors for schema lookups and definitions.
var (
	// ErrUnknownField is returned when a name does not resolve to a declared field.
	ErrUnknownField = errors.New("unknown field")

	// ErrWireNameCollision is returned when two visible fields share a wire name.
	ErrWireNameCollision = errors.New("wire name collision")
)

// UnknownFieldError reports a field name that the entity does not declare.
type UnknownFieldError struct {
	Entity string
	Name   string
}

// Error implements the error interface
func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("%s: %s has no field %q", ErrUnknownField, e.Entity, e.Name)
}

// Is allows errors.Is(err, ErrUnknownField).
func (e *UnknownFieldError) Is(err error) bool {
	return err == ErrUnknownField
}

// WireNameCollisionError reports two non-protected fields mapped to one wire name.
type WireNameCollisionError struct {
	Entity   string
	WireName string
	First    string
	Second   string
}

// Error implements the error interface
func (e *WireNameCollisionError) Error() string {
	return fmt.Sprintf("%s: %s fields %s and %s both use %q",
		ErrWireNameCollision, e.Entity, e.First, e.Second, e.WireName)
}

// Is allows errors.Is(err, ErrWireNameCollision).
func (e *WireNameCollisionError) Is(err error) bool {
	return err == ErrWireNameCollision
}

// FieldValidationError wraps a validator failure with the field it belongs to.
type FieldValidationError struct {
	Field string
	Err   error
}

// Error implements the error interface
func (e *FieldValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

// Unwrap returns the validator error
func (e *FieldValidationError) Unwrap() error {
	return e.Err
}
