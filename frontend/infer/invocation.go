package infer

import (
	"fmt"

	"github.com/cottand/jinfer/frontend/ast"
	"github.com/cottand/jinfer/frontend/ilerr"
	"github.com/cottand/jinfer/frontend/lookup"
	"github.com/cottand/jinfer/frontend/types"
)

// Options tune inference. The zero value is not useful, start from DefaultOptions.
type Options struct {
	// CaptureFallback enables the second resolution attempt with fresh
	// capture variables (JLS 18.4) when the candidate instantiation fails
	CaptureFallback bool
	// MaxResolutionRounds aborts resolution that instantiates fewer than one
	// cluster per round
	MaxResolutionRounds int
	// MaxIncorporationGenerations bounds incorporation; exceeding it is a failure
	MaxIncorporationGenerations int
}

func DefaultOptions() Options {
	return Options{
		CaptureFallback:             true,
		MaxResolutionRounds:         100,
		MaxIncorporationGenerations: 1000,
	}
}

// ProblemMethod is returned instead of a binding when inference fails for an invocation
type ProblemMethod struct {
	Method     *types.Method
	Invocation *ast.Invocation
	Reason     ilerr.ErrCode
	Err        ilerr.InferenceError
}

func (p *ProblemMethod) Error() string { return ilerr.FormatWithCode(p.Err) }

func (p *ProblemMethod) Unwrap() error { return p.Err }

func problem(inv *ast.Invocation, err ilerr.InferenceError) *ProblemMethod {
	return &ProblemMethod{Method: inv.Method, Invocation: inv, Reason: err.Code(), Err: err}
}

func argumentStrings(inv *ast.Invocation) []string {
	args := make([]string, len(inv.Args))
	for i, arg := range inv.Args {
		args[i] = ast.ExprString(arg)
	}
	return args
}

// InferInvocation computes the instantiation of inv's method for its
// arguments, in an assignment or invocation context of type target (nil when
// there is none). The result is also stored in inv.Binding, and nested
// generic invocations in the arguments get their own binding.
func InferInvocation(env *lookup.Environment, inv *ast.Invocation, target *types.Type, opts Options) (*types.ParameterizedMethod, error) {
	m := inv.Method
	logger.Debug("inferring invocation", "invocation", ast.ExprString(inv), "method", m, "target", target)
	if len(inv.TypeArguments) > 0 && len(inv.TypeArguments) != len(m.TypeParameters) {
		return nil, problem(inv, ilerr.New(ilerr.NewNotApplicable{Positioner: inv, Method: m.Name, Arguments: argumentStrings(inv)}))
	}

	ctx := NewContext(env, inv, opts)
	if !ctx.InferApplicability() {
		return nil, problem(inv, ilerr.New(ilerr.NewNotApplicable{Positioner: inv, Method: m.Name, Arguments: argumentStrings(inv)}))
	}
	solution := ctx.InferInvocationType(target)
	if solution == nil {
		return nil, problem(inv, ilerr.New(ilerr.NewCannotInfer{Positioner: inv, Method: m.Name, Arguments: argumentStrings(inv)}))
	}
	binding := ctx.parameterizedMethod(solution)
	if err := checkTypeArgumentBounds(env, inv, binding); err != nil {
		return nil, problem(inv, err)
	}
	if target != nil && !isPolyInvocation(inv) && !binding.Return.IsVoid() && !env.IsCompatible(binding.Return, target) {
		return nil, problem(inv, ilerr.New(ilerr.NewTypeMismatch{Positioner: inv, Expected: target.String(), Found: binding.Return.String()}))
	}

	inv.Binding = binding
	ctx.bindInner(solution)
	logger.Info("inferred invocation", "invocation", ast.ExprString(inv), "binding", binding)
	return binding, nil
}

// checkTypeArgumentBounds verifies every type argument is within the
// declared bounds of its type parameter
func checkTypeArgumentBounds(env *lookup.Environment, inv *ast.Invocation, binding *types.ParameterizedMethod) ilerr.InferenceError {
	m := binding.Original
	apply := types.NewVarSubstitution(m.TypeParameters, binding.TypeArguments)
	for i, p := range m.TypeParameters {
		arg := binding.TypeArguments[i]
		for _, bound := range env.UpperBounds(p) {
			if binding.Unchecked && env.NeedsUncheckedConversion(arg, env.TS.Substitute(apply, bound)) {
				continue
			}
			if !env.IsSubtype(arg, env.TS.Substitute(apply, bound)) {
				return ilerr.New(ilerr.NewParameterBoundMismatch{
					Positioner:    inv,
					Method:        m.Name,
					TypeParameter: p.VariableName(),
					Inferred:      fmt.Sprint(arg),
				})
			}
		}
	}
	return nil
}
