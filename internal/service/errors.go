package service

import "fmt"

// ValidationError is returned for malformed user input. Message is shown
// to the user as is and explains what a valid value looks like.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
