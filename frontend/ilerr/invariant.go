package ilerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// InvariantViolation signals a defect in the compiler rather than in the
// program being compiled: an internal contract was broken or a corner case
// that should be unreachable was hit.
//
// It is raised with panic and only recovered at a coarse boundary, see Recover.
type InvariantViolation struct {
	cause error
}

func (v *InvariantViolation) Error() string {
	return "internal compiler error: " + v.cause.Error()
}

func (v *InvariantViolation) Unwrap() error { return v.cause }

// StackTrace exposes the stack captured where the invariant broke
func (v *InvariantViolation) StackTrace() errors.StackTrace {
	type stackTracer interface {
		StackTrace() errors.StackTrace
	}
	if st, ok := v.cause.(stackTracer); ok {
		return st.StackTrace()
	}
	return nil
}

// Invariant panics with an InvariantViolation
func Invariant(format string, args ...any) {
	panic(&InvariantViolation{cause: errors.Errorf(format, args...)})
}

// Check panics with an InvariantViolation unless cond holds
func Check(cond bool, format string, args ...any) {
	if !cond {
		Invariant(format, args...)
	}
}

// Recover runs body and converts an InvariantViolation into an error.
// Any other panic is propagated.
func Recover(body func() error) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		violation, ok := r.(*InvariantViolation)
		if !ok {
			panic(r)
		}
		err = errors.WithMessage(violation, "aborted compilation unit")
	}()
	return body()
}

// IsInvariantViolation reports whether err was caused by an InvariantViolation
func IsInvariantViolation(err error) bool {
	var violation *InvariantViolation
	return errors.As(err, &violation)
}

func (v *InvariantViolation) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		_, _ = fmt.Fprintf(s, "%+v", v.cause)
		return
	}
	_, _ = fmt.Fprint(s, v.Error())
}
