package infer

import (
	"fmt"
	"slices"

	"github.com/cottand/jinfer/frontend/ast"
	"github.com/cottand/jinfer/frontend/types"
)

// ExpressionConstraint is ‹Expr → Target›: Expr is compatible in a loose
// invocation context with Target (JLS 18.2.1)
type ExpressionConstraint struct {
	Expr   ast.Expr
	Target *types.Type
}

func newExpressionConstraint(e ast.Expr, t *types.Type) *ExpressionConstraint {
	return &ExpressionConstraint{Expr: e, Target: t}
}

func (c *ExpressionConstraint) String() string {
	return fmt.Sprintf("‹%s → %s›", ast.ExprString(c.Expr), c.Target)
}

func (c *ExpressionConstraint) InputVariables(ctx *Context) []*types.Type {
	t := c.Target
	switch e := c.Expr.(type) {
	case *ast.Lambda:
		if t.IsInferenceVariable() {
			return []*types.Type{t}
		}
		fn := ctx.env.FunctionType(t)
		if fn == nil {
			return nil
		}
		var inputs []*types.Type
		if e.Implicit {
			for _, p := range fn.Parameters {
				inputs = mergeVariables(inputs, p.InferenceVariables())
			}
		}
		if fn.Return != nil && !fn.Return.IsVoid() {
			for _, result := range e.Results {
				inputs = mergeVariables(inputs, newExpressionConstraint(result, fn.Return).InputVariables(ctx))
			}
		}
		return inputs
	case *ast.MethodReference:
		if t.IsInferenceVariable() {
			return []*types.Type{t}
		}
		fn := ctx.env.FunctionType(t)
		if fn == nil || e.Exact {
			return nil
		}
		var inputs []*types.Type
		for _, p := range fn.Parameters {
			inputs = mergeVariables(inputs, p.InferenceVariables())
		}
		return inputs
	case *ast.Conditional:
		return mergeVariables(
			newExpressionConstraint(e.Then, t).InputVariables(ctx),
			newExpressionConstraint(e.Else, t).InputVariables(ctx),
		)
	}
	return nil
}

func (c *ExpressionConstraint) OutputVariables(ctx *Context) []*types.Type {
	return outputVariables(c.Target, c.InputVariables(ctx))
}

func outputVariables(target *types.Type, inputs []*types.Type) []*types.Type {
	return slices.DeleteFunc(target.InferenceVariables(), func(v *types.Type) bool {
		return slices.Contains(inputs, v)
	})
}

func (c *ExpressionConstraint) ApplySubstitution(ctx *Context, s types.Substitution) ConstraintFormula {
	t := ctx.ts.Substitute(s, c.Target)
	if t == c.Target {
		return c
	}
	return newExpressionConstraint(c.Expr, t)
}

func (c *ExpressionConstraint) reduce(ctx *Context, bs *BoundSet) ([]ConstraintFormula, bool) {
	switch e := c.Expr.(type) {
	case *ast.Typed:
		return reduced(newTypeConstraint(e.Type, c.Target, Compatible))
	case *ast.Conditional:
		return reduced(newExpressionConstraint(e.Then, c.Target), newExpressionConstraint(e.Else, c.Target))
	case *ast.Invocation:
		return ctx.reduceInvocation(bs, e, c.Target)
	case *ast.Lambda:
		return ctx.reduceLambda(bs, e, c.Target)
	case *ast.MethodReference:
		return ctx.reduceMethodReference(bs, e, c.Target)
	}
	return nil, false
}

// reduceInvocation reduces ‹inv → T›. A nested poly invocation contributes
// its own variables and bounds, plus the compatibility of its return type with T.
func (ctx *Context) reduceInvocation(bs *BoundSet, inv *ast.Invocation, t *types.Type) ([]ConstraintFormula, bool) {
	if !isPolyInvocation(inv) {
		ret := ctx.standaloneType(inv)
		if ret == nil || ret.IsVoid() {
			return nil, false
		}
		return reduced(newTypeConstraint(ret, t, Compatible))
	}
	inner := ctx.innerContext(inv)
	if inner == nil {
		return nil, false
	}
	ctx.mergeInner(bs, inner)
	formulas, ok := inner.targetConstraints(bs, t)
	if !ok {
		return nil, false
	}
	ctx.variables = mergeVariables(ctx.variables, inner.variables)
	if ctx.state == applicabilityInferred && !inner.collected {
		inner.collected = true
		ctx.enterPolyInvocation(inner)
		ctx.pending = ctx.collectConstraints(ctx.pending)
		ctx.resumeSuspendedInference()
	}
	return formulas, true
}

// reduceLambda reduces ‹lambda → T› (JLS 18.2.1.1). The formulas for the
// lambda's results are reduced on behalf of the lambda body.
func (ctx *Context) reduceLambda(bs *BoundSet, lambda *ast.Lambda, t *types.Type) ([]ConstraintFormula, bool) {
	if t.IsInferenceVariable() {
		return nil, false
	}
	fn := ctx.env.FunctionType(t)
	if fn == nil || len(fn.Parameters) != lambda.ParameterCount() {
		return nil, false
	}
	var formulas []ConstraintFormula
	if !lambda.Implicit {
		for i, p := range lambda.Params {
			formulas = append(formulas, newTypeConstraint(p, fn.Parameters[i], Same))
		}
	}
	if fn.Return == nil || fn.Return.IsVoid() {
		if !lambda.VoidCompatible && len(lambda.Results) > 0 {
			return nil, false
		}
	} else {
		if !lambda.ValueCompatible && len(lambda.Results) == 0 {
			return nil, false
		}
		for _, result := range lambda.Results {
			formulas = append(formulas, newExpressionConstraint(result, fn.Return))
		}
	}
	ctx.enterLambda(lambda)
	ok := ctx.reduce(bs, formulas...)
	ctx.resumeSuspendedInference()
	return nil, ok
}

// reduceMethodReference reduces ‹ref → T› (JLS 18.2.1.2). The type
// parameters of an inexact generic reference become variables of this context.
func (ctx *Context) reduceMethodReference(bs *BoundSet, ref *ast.MethodReference, t *types.Type) ([]ConstraintFormula, bool) {
	if t.IsInferenceVariable() {
		return nil, false
	}
	fn := ctx.env.FunctionType(t)
	if fn == nil {
		return nil, false
	}
	m := ref.Method
	params, ret := m.Parameters, m.Return
	if m.Constructor && m.Declaring != nil {
		ret = m.Declaring.Type()
	}
	if !ref.Exact && m.IsGeneric() {
		saved := ctx.site
		ctx.site = ref
		theta := ctx.freshVariables(bs, m.TypeParameters)
		ctx.site = saved
		params = mapTypes(params, func(p *types.Type) *types.Type { return ctx.ts.Substitute(theta, p) })
		ret = ctx.ts.Substitute(theta, ret)
	}

	var formulas []ConstraintFormula
	fnParams := fn.Parameters
	if ref.UnboundReceiver {
		if len(fnParams) != len(params)+1 {
			return nil, false
		}
		receiver := ref.Receiver
		if receiver == nil && m.Declaring != nil {
			receiver = m.Declaring.Type()
		}
		formulas = append(formulas, newTypeConstraint(fnParams[0], receiver, Subtype))
		fnParams = fnParams[1:]
	} else if len(fnParams) != len(params) {
		return nil, false
	}
	for i, p := range fnParams {
		formulas = append(formulas, newTypeConstraint(p, params[i], Compatible))
	}
	if fn.Return != nil && !fn.Return.IsVoid() {
		if ret == nil || ret.IsVoid() {
			return nil, false
		}
		if ret.IsProper() {
			ret = ctx.env.Capture(ret, ref.Range, nil)
		}
		formulas = append(formulas, newTypeConstraint(ret, fn.Return, Compatible))
	}
	return formulas, true
}

// ExceptionConstraint is ‹Expr →throws Target› for a lambda or method
// reference argument (JLS 18.2.5)
type ExceptionConstraint struct {
	Expr   ast.Expr
	Target *types.Type
}

func newExceptionConstraint(e ast.Expr, t *types.Type) *ExceptionConstraint {
	return &ExceptionConstraint{Expr: e, Target: t}
}

func (c *ExceptionConstraint) String() string {
	return fmt.Sprintf("‹%s →throws %s›", ast.ExprString(c.Expr), c.Target)
}

func (c *ExceptionConstraint) InputVariables(ctx *Context) []*types.Type {
	t := c.Target
	if t.IsInferenceVariable() {
		return []*types.Type{t}
	}
	fn := ctx.env.FunctionType(t)
	if fn == nil {
		return nil
	}
	var inputs []*types.Type
	switch e := c.Expr.(type) {
	case *ast.Lambda:
		if e.Implicit {
			for _, p := range fn.Parameters {
				inputs = mergeVariables(inputs, p.InferenceVariables())
			}
		}
		if fn.Return != nil && !fn.Return.IsVoid() {
			for _, result := range e.Results {
				inputs = mergeVariables(inputs, newExpressionConstraint(result, fn.Return).InputVariables(ctx))
			}
		}
	case *ast.MethodReference:
		for _, p := range fn.Parameters {
			inputs = mergeVariables(inputs, p.InferenceVariables())
		}
		if fn.Return != nil {
			inputs = mergeVariables(inputs, fn.Return.InferenceVariables())
		}
	}
	return inputs
}

func (c *ExceptionConstraint) OutputVariables(ctx *Context) []*types.Type {
	return outputVariables(c.Target, c.InputVariables(ctx))
}

func (c *ExceptionConstraint) ApplySubstitution(ctx *Context, s types.Substitution) ConstraintFormula {
	t := ctx.ts.Substitute(s, c.Target)
	if t == c.Target {
		return c
	}
	return newExceptionConstraint(c.Expr, t)
}

func (c *ExceptionConstraint) reduce(ctx *Context, bs *BoundSet) ([]ConstraintFormula, bool) {
	env := ctx.env
	if c.Target.IsInferenceVariable() {
		return nil, false
	}
	fn := env.FunctionType(c.Target)
	if fn == nil {
		return nil, false
	}
	var thrown []*types.Type
	switch e := c.Expr.(type) {
	case *ast.Lambda:
		if e.Implicit && slices.ContainsFunc(fn.Parameters, func(p *types.Type) bool { return !p.IsProper() }) {
			return nil, false
		}
		thrown = e.Thrown
	case *ast.MethodReference:
		thrown = e.Method.Thrown
	}

	var proper, improper []*types.Type
	for _, declared := range fn.Thrown {
		if declared.IsProper() {
			proper = append(proper, declared)
		} else {
			improper = append(improper, declared)
		}
	}
	var formulas []ConstraintFormula
	for _, x := range thrown {
		if env.IsUnchecked(x) || slices.ContainsFunc(proper, func(p *types.Type) bool { return env.IsSubtype(x, p) }) {
			continue
		}
		if len(improper) == 0 {
			return nil, false
		}
		for _, e := range improper {
			formulas = append(formulas, newTypeConstraint(x, e, Subtype))
		}
	}
	for _, e := range improper {
		if e.IsInferenceVariable() {
			bs.MarkThrows(e)
		}
	}
	return formulas, true
}
