package session

import "fmt"

// ValidationError rejects an operation whose required argument is empty or
// malformed. The session is left untouched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("session: invalid %s: %s", e.Field, e.Reason)
}

// UnknownFieldError rejects an update_field call naming a field outside the
// allow-list.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("session: unknown field %q", e.Field)
}
