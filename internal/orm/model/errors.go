package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter is matched by every InvalidParameterError
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrNoAttachmentDelegate is returned when an attachment field has no
	// delegate object on the entity
	ErrNoAttachmentDelegate = errors.New("no attachment delegate")
)

// InvalidParameterError reports a request that supplied a parameter the
// entity does not accept, such as a readonly field
type InvalidParameterError struct {
	Entity string
	Param  string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter: %s", e.Param)
}

// Is reports whether target is ErrInvalidParameter
func (e *InvalidParameterError) Is(target error) bool {
	return target == ErrInvalidParameter
}
