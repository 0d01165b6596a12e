package commands

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedInput is returned when a command name is parsed from blank text.
	ErrMalformedInput = errors.New("message text is empty or blank")
	// ErrCommandNotFound is carried by not-found events.
	ErrCommandNotFound = errors.New("command not found")
)

// NotInstantiableError reports a reference the registry could not build.
type NotInstantiableError struct {
	Name string
	Err  error
}

func (e *NotInstantiableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("command %q is not instantiable", e.Name)
	}
	return fmt.Sprintf("command %q is not instantiable: %v", e.Name, e.Err)
}

func (e *NotInstantiableError) Unwrap() error { return e.Err }

// ContractViolationError reports a resolved value that is not a Command.
type ContractViolationError struct {
	Name string
	Type string
}

func (e *ContractViolationError) Error() string {
	return fmt.Sprintf("command %q resolved to %s, which does not implement Command", e.Name, e.Type)
}

// MissingArgumentsError lists required arguments absent from the message.
type MissingArgumentsError struct {
	Command string
	Missing []string
}

func (e *MissingArgumentsError) Error() string {
	return fmt.Sprintf("command %s: missing required arguments: %s", e.Command, strings.Join(e.Missing, ", "))
}

// PanicError wraps a value recovered from a panicking handler.
type PanicError struct {
	Command string
	Value   any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("command %s panicked: %v", e.Command, e.Value)
}
