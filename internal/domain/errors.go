package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidKey         = errors.New("invalid key")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionNotFound    = errors.New("session not found")
	ErrUnknownEntity      = errors.New("unknown entity")
)

// FieldError reports a missing or malformed form field. Reason is a message
// ID such as "field.required".
type FieldError struct {
	Field  string
	Label  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
