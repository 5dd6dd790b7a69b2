// Package vmerr separates the two kinds of failures the engine knows about.
//
// A ProgramException is a condition of the modeled program, e.g. a simulated
// out of memory condition. It is returned as an ordinary error and surfaces as
// an exception inside the interpreted program. Exploration continues.
//
// An InternalError is a broken invariant of the engine itself. Continuing would
// produce unsound results, so it is raised with panic and aborts the search.
package vmerr

import (
	"errors"
	"fmt"
)

// Class names of the simulated conditions raised by the engine
const (
	OutOfMemoryError     = "java.lang.OutOfMemoryError"
	NoClassDefFoundError = "java.lang.NoClassDefFoundError"
	NoSuchFieldError     = "java.lang.NoSuchFieldError"
	AssertionError       = "java.lang.AssertionError"

	IllegalMonitorStateException = "java.lang.IllegalMonitorStateException"
	IllegalThreadStateException  = "java.lang.IllegalThreadStateException"
	NullPointerException         = "java.lang.NullPointerException"

	ArrayIndexOutOfBoundsException = "java.lang.ArrayIndexOutOfBoundsException"
	NegativeArraySizeException     = "java.lang.NegativeArraySizeException"
)

// A condition of the modeled program
type ProgramException struct {
	// Class name of the exception that is raised in the modeled program
	Class   string
	Message string
}

func (pe *ProgramException) Error() string {
	if pe.Message == "" {
		return pe.Class
	}
	return fmt.Sprintf("%v: %v", pe.Class, pe.Message)
}

// Create a new ProgramException of the given class
func NewProgramException(class string, format string, args ...any) *ProgramException {
	return &ProgramException{
		Class:   class,
		Message: fmt.Sprintf(format, args...),
	}
}

// Returns true if err is, or wraps, a ProgramException of the given class.
// An empty class matches any ProgramException.
func IsProgramException(err error, class string) bool {
	var pe *ProgramException
	if !errors.As(err, &pe) {
		return false
	}
	return class == "" || pe.Class == class
}

// A broken invariant of the exploration engine
type InternalError struct {
	Op      string
	Message string
}

func (ie *InternalError) Error() string {
	return fmt.Sprintf("%v: %v", ie.Op, ie.Message)
}

// Raise an InternalError. Never returns.
func Fatalf(op string, format string, args ...any) {
	panic(&InternalError{
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	})
}

// Recover an InternalError raised by Fatalf and store it in err.
//
// Must be deferred directly:
//
//	defer vmerr.Recover(&err)
//
// Panics that are not InternalErrors are re-raised.
func Recover(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if ie, ok := r.(*InternalError); ok {
		*err = ie
		return
	}
	panic(r)
}
