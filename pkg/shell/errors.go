package shell

import "fmt"

// ValidationError reports bad operator input caught before anything is
// dispatched to the engine. Non-fatal; session state is never changed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// UserMessage returns the notice text shown to the operator.
func (e *ValidationError) UserMessage() string {
	return fmt.Sprintf("Invalid %s: %s", e.Field, e.Message)
}

// IOError reports an export or save failure. It never affects session state.
type IOError struct {
	Path  string
	Cause error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Cause)
}

func (e *IOError) Unwrap() error {
	return e.Cause
}

// UserMessage returns the notice text shown to the operator.
func (e *IOError) UserMessage() string {
	return fmt.Sprintf("Could not write %s: %v", e.Path, e.Cause)
}
