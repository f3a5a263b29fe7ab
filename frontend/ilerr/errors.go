package ilerr

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/cottand/jinfer/frontend/source"
)

// enableDebugErrorPrinting makes errors include their stacktrace when printed
const enableDebugErrorPrinting bool = false
const enableDebugFullStacktrace bool = false

type ErrCode int

const (
	None ErrCode = iota
	TypeMismatch
	CannotInferTypeArguments
	NotApplicable
	ParameterBoundMismatch
	Scenario
)

// InferenceError is a language problem a malformed program could cause.
// It is never used for defects of the compiler itself, see InvariantViolation.
type InferenceError interface {
	Error() string
	Code() ErrCode
	source.Positioner

	withStack([]byte) InferenceError
	getStack() []byte
}

func FormatWithCode(e InferenceError) string {
	if enableDebugErrorPrinting && e.getStack() != nil {
		stack := string(e.getStack())
		if !enableDebugFullStacktrace {
			lines := strings.Split(stack, "\n")
			if len(lines) > 6 {
				stack = lines[6]
			}
		}
		return fmt.Sprintf("%s:(E%03d) %s", stack, e.Code(), e.Error())
	}
	return fmt.Sprintf("(E%03d) %s", e.Code(), e.Error())
}

func New[E InferenceError](err E) InferenceError {
	return err.withStack(debug.Stack())
}

type Unclassified struct {
	From error
	source.Positioner
	stack []byte
}

func (e Unclassified) Error() string {
	return fmt.Sprintf("unclassified error: %v", e.From)
}
func (e Unclassified) Code() ErrCode    { return None }
func (e Unclassified) getStack() []byte { return e.stack }
func (e Unclassified) withStack(stack []byte) InferenceError {
	e.stack = stack
	return e
}

type NewTypeMismatch struct {
	source.Positioner
	Expected string
	Found    string
	stack    []byte
}

func (e NewTypeMismatch) Error() string {
	return fmt.Sprintf("type mismatch: cannot convert from %s to %s", e.Found, e.Expected)
}
func (e NewTypeMismatch) Code() ErrCode    { return TypeMismatch }
func (e NewTypeMismatch) getStack() []byte { return e.stack }
func (e NewTypeMismatch) withStack(stack []byte) InferenceError {
	e.stack = stack
	return e
}

type NewCannotInfer struct {
	source.Positioner
	Method    string
	Arguments []string
	stack     []byte
}

func (e NewCannotInfer) Error() string {
	return fmt.Sprintf("cannot infer type arguments for %s(%s)", e.Method, strings.Join(e.Arguments, ", "))
}
func (e NewCannotInfer) Code() ErrCode    { return CannotInferTypeArguments }
func (e NewCannotInfer) getStack() []byte { return e.stack }
func (e NewCannotInfer) withStack(stack []byte) InferenceError {
	e.stack = stack
	return e
}

type NewNotApplicable struct {
	source.Positioner
	Method    string
	Arguments []string
	stack     []byte
}

func (e NewNotApplicable) Error() string {
	return fmt.Sprintf("the method %s is not applicable for the arguments (%s)", e.Method, strings.Join(e.Arguments, ", "))
}
func (e NewNotApplicable) Code() ErrCode    { return NotApplicable }
func (e NewNotApplicable) getStack() []byte { return e.stack }
func (e NewNotApplicable) withStack(stack []byte) InferenceError {
	e.stack = stack
	return e
}

type NewParameterBoundMismatch struct {
	source.Positioner
	Method        string
	TypeParameter string
	Inferred      string
	stack         []byte
}

func (e NewParameterBoundMismatch) Error() string {
	return fmt.Sprintf("inferred type %s for %s of %s is not a valid substitute for the bounded parameter", e.Inferred, e.TypeParameter, e.Method)
}
func (e NewParameterBoundMismatch) Code() ErrCode    { return ParameterBoundMismatch }
func (e NewParameterBoundMismatch) getStack() []byte { return e.stack }
func (e NewParameterBoundMismatch) withStack(stack []byte) InferenceError {
	e.stack = stack
	return e
}

type NewScenario struct {
	source.Positioner
	Name    string
	Message string
	stack   []byte
}

func (e NewScenario) Error() string {
	return fmt.Sprintf("scenario %s: %s", e.Name, e.Message)
}
func (e NewScenario) Code() ErrCode    { return Scenario }
func (e NewScenario) getStack() []byte { return e.stack }
func (e NewScenario) withStack(stack []byte) InferenceError {
	e.stack = stack
	return e
}
