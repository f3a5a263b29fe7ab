package infer

import (
	"github.com/cottand/jinfer/frontend/ast"
	"github.com/cottand/jinfer/frontend/ilerr"
	"github.com/cottand/jinfer/frontend/types"
)

// isPolyInvocation reports whether an invocation's type depends on its target:
// the method is generic, no type arguments are given and the return type
// mentions the method's type parameters (JLS 15.12)
func isPolyInvocation(inv *ast.Invocation) bool {
	m := inv.Method
	return m.IsGeneric() && len(inv.TypeArguments) == 0 && m.Return != nil && m.Return.MentionsAny(m.TypeParameters...)
}

// isPertinent reports whether arg is pertinent to applicability for a
// parameter of type param (JLS 15.12.2.2); param is nil for lambda results
func (ctx *Context) isPertinent(arg ast.Expr, param *types.Type) bool {
	typeParameterTarget := param != nil && param.IsInferenceVariable()
	switch arg := arg.(type) {
	case *ast.Lambda:
		if arg.Implicit || typeParameterTarget {
			return false
		}
		for _, result := range arg.Results {
			if !ctx.isPertinent(result, nil) {
				return false
			}
		}
	case *ast.MethodReference:
		return arg.Exact && !typeParameterTarget
	case *ast.Conditional:
		return ctx.isPertinent(arg.Then, param) && ctx.isPertinent(arg.Else, param)
	}
	return true
}

// collectConstraints appends the constraint set C of JLS 18.5.2.2 for the
// current invocation, descending into nested poly invocations
func (ctx *Context) collectConstraints(c []ConstraintFormula) []ConstraintFormula {
	params := ctx.formalParameters()
	for i, arg := range ctx.args {
		if !ctx.isPertinent(arg, params[i]) {
			c = append(c, newExpressionConstraint(arg, params[i]))
		}
		c = ctx.collectArgumentConstraints(c, arg, params[i])
	}
	return c
}

func (ctx *Context) collectArgumentConstraints(c []ConstraintFormula, arg ast.Expr, param *types.Type) []ConstraintFormula {
	switch arg := arg.(type) {
	case *ast.Lambda, *ast.MethodReference:
		c = append(c, newExceptionConstraint(arg, param))
	case *ast.Conditional:
		c = ctx.collectArgumentConstraints(c, arg.Then, param)
		c = ctx.collectArgumentConstraints(c, arg.Else, param)
	case *ast.Invocation:
		if !isPolyInvocation(arg) {
			break
		}
		inner := ctx.innerContext(arg)
		if inner == nil || inner.collected {
			break
		}
		inner.collected = true
		ctx.enterPolyInvocation(inner)
		c = ctx.collectConstraints(c)
		ctx.resumeSuspendedInference()
	}
	return c
}

func (ctx *Context) suspend() {
	ctx.suspended.Push(suspension{
		invocation: ctx.invocation,
		method:     ctx.method,
		args:       ctx.args,
		theta:      ctx.theta,
		site:       ctx.site,
		variables:  ctx.variables,
		unchecked:  ctx.unchecked,
	})
}

// enterPolyInvocation switches this context to the invocation of inner, so
// that the constraints of inner's arguments are built with inner's variables
func (ctx *Context) enterPolyInvocation(inner *Context) {
	ctx.suspend()
	ctx.invocation = inner.invocation
	ctx.method = inner.method
	ctx.args = inner.args
	ctx.theta = inner.theta
	ctx.site = inner.invocation
	ctx.variables = mergeVariables(ctx.variables, inner.variables)
	ctx.unchecked = inner.unchecked
}

// enterLambda switches this context to a lambda body; unchecked conversions
// in the body do not affect the enclosing invocation
func (ctx *Context) enterLambda(lambda *ast.Lambda) {
	ctx.suspend()
	ctx.args = nil
	ctx.site = lambda
	ctx.unchecked = false
}

// resumeSuspendedInference restores the state saved by the matching enter call.
// Variables created in the meantime are kept.
func (ctx *Context) resumeSuspendedInference() {
	saved, ok := ctx.suspended.Pop()
	ilerr.Check(ok, "resumed inference of %s with nothing suspended", ctx.method.Name)
	ctx.variables = mergeVariables(saved.variables, ctx.variables)
	ctx.invocation = saved.invocation
	ctx.method = saved.method
	ctx.args = saved.args
	ctx.theta = saved.theta
	ctx.site = saved.site
	ctx.unchecked = saved.unchecked
}

// innerContext is the context of a nested poly invocation with its
// applicability inferred, created once per invocation. It is nil when the
// nested method is not applicable.
func (ctx *Context) innerContext(inv *ast.Invocation) *Context {
	root := ctx.root()
	if inner, ok := root.inner[inv]; ok {
		return inner
	}
	inner := newContext(ctx.env, inv, ctx.opts, ctx)
	if !inner.InferApplicability() {
		inner = nil
	}
	root.inner[inv] = inner
	root.innerOrder = append(root.innerOrder, inv)
	return inner
}

// mergeInner adds the variables and pre-resolution bounds of a nested invocation to bs
func (ctx *Context) mergeInner(bs *BoundSet, inner *Context) {
	bs.AddVariable(inner.variables...)
	ctx.variables = mergeVariables(ctx.variables, inner.variables)
	bs.merge(inner.b2)
}

// standaloneType is the type of an invocation that is not a poly expression
func (ctx *Context) standaloneType(inv *ast.Invocation) *types.Type {
	m := inv.Method
	if !m.IsGeneric() {
		return m.Return
	}
	if len(inv.TypeArguments) > 0 {
		if len(inv.TypeArguments) != len(m.TypeParameters) {
			return nil
		}
		return ctx.ts.Substitute(types.NewVarSubstitution(m.TypeParameters, inv.TypeArguments), m.Return)
	}
	binding, err := InferInvocation(ctx.env, inv, nil, ctx.opts)
	if err != nil {
		return nil
	}
	return binding.Return
}

// parameterizedMethod instantiates the method of this context with the solution
func (ctx *Context) parameterizedMethod(solution *BoundSet) *types.ParameterizedMethod {
	s := ctx.instantiations(solution)
	m := ctx.method
	binding := &types.ParameterizedMethod{Original: m, Unchecked: ctx.unchecked}
	for _, p := range m.TypeParameters {
		arg := ctx.ts.Substitute(s, ctx.theta.Substitute(p))
		ilerr.Check(arg.IsProper(), "type argument %s of %s is not proper after resolution", arg, m.Name)
		binding.TypeArguments = append(binding.TypeArguments, arg)
	}
	apply := types.NewVarSubstitution(m.TypeParameters, binding.TypeArguments)
	for _, p := range m.Parameters {
		binding.Parameters = append(binding.Parameters, ctx.ts.Substitute(apply, p))
	}
	binding.Return = ctx.ts.Substitute(apply, m.Return)
	for _, t := range m.Thrown {
		binding.Thrown = append(binding.Thrown, ctx.ts.Substitute(apply, t))
	}
	if ctx.unchecked {
		binding.Return = ctx.env.Erasure(binding.Return)
		for i, t := range binding.Thrown {
			binding.Thrown[i] = ctx.env.Erasure(t)
		}
	}
	return binding
}

// bindInner fills the binding of every nested poly invocation from the outermost solution
func (ctx *Context) bindInner(solution *BoundSet) {
	root := ctx.root()
	for _, inv := range root.innerOrder {
		inner := root.inner[inv]
		if inner == nil || inv.Binding != nil || !inner.resolvedIn(solution) {
			continue
		}
		inv.Binding = inner.parameterizedMethod(solution)
		logger.Debug("bound nested invocation", "invocation", ast.ExprString(inv), "binding", inv.Binding)
	}
}

func (ctx *Context) resolvedIn(solution *BoundSet) bool {
	for _, p := range ctx.method.TypeParameters {
		if !solution.IsInstantiated(ctx.theta.Substitute(p)) {
			return false
		}
	}
	return true
}
