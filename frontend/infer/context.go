package infer

import (
	"fmt"
	"slices"

	"github.com/cottand/jinfer/frontend/ast"
	"github.com/cottand/jinfer/frontend/ilerr"
	"github.com/cottand/jinfer/frontend/lookup"
	"github.com/cottand/jinfer/frontend/types"
	"github.com/cottand/jinfer/internal/log"
	"github.com/cottand/jinfer/util"
)

var logger = log.Section("inference")

type inferenceState uint8

const (
	notInferred inferenceState = iota
	applicabilityInferred
	typeInferred
)

func (s inferenceState) String() string {
	return [...]string{"NOT_INFERRED", "APPLICABILITY_INFERRED", "TYPE_INFERRED"}[s]
}

type ivarKey struct {
	typeParameter types.TypeID
	rank          int
	site          ast.Expr
}

// suspension is the state of a context saved while it works on behalf of a
// nested poly invocation or lambda body
type suspension struct {
	invocation *ast.Invocation
	method     *types.Method
	args       []ast.Expr
	theta      types.VarSubstitution
	site       ast.Expr
	variables  []*types.Type
	unchecked  bool
}

// Context infers the type arguments of one generic method invocation (JLS 18.5).
// Nested poly invocations get their own Context chained to the outer one;
// all contexts of one outermost invocation share its inference variables.
type Context struct {
	env   *lookup.Environment
	ts    *types.TypeSystem
	opts  Options
	outer *Context

	invocation *ast.Invocation
	method     *types.Method
	args       []ast.Expr
	// theta maps the method's type parameters to their inference variables
	theta     types.VarSubstitution
	site      ast.Expr
	variables []*types.Type
	unchecked bool

	current *BoundSet
	b2      *BoundSet
	state   inferenceState

	// collected is set once the constraints of this (inner) invocation joined the outer constraint set
	collected bool
	pending    []ConstraintFormula
	suspended  util.Stack[suspension]
	returnSite ast.Expr

	// owned by the outermost context
	ivars      map[ivarKey]*types.Type
	inner      map[*ast.Invocation]*Context
	innerOrder []*ast.Invocation
	nextName   int
}

// NewContext prepares the inference of invocation, which must call a generic method
func NewContext(env *lookup.Environment, invocation *ast.Invocation, opts Options) *Context {
	ctx := newContext(env, invocation, opts, nil)
	ctx.ivars = make(map[ivarKey]*types.Type)
	ctx.inner = make(map[*ast.Invocation]*Context)
	return ctx
}

func newContext(env *lookup.Environment, invocation *ast.Invocation, opts Options, outer *Context) *Context {
	return &Context{
		env:        env,
		ts:         env.TS,
		opts:       opts,
		outer:      outer,
		invocation: invocation,
		method:     invocation.Method,
		args:       invocation.Args,
		site:       invocation,
		theta:      types.VarSubstitution{},
	}
}

func (ctx *Context) root() *Context {
	for ctx.outer != nil {
		ctx = ctx.outer
	}
	return ctx
}

// Variables are the inference variables of this context, including those of
// nested invocations merged into it
func (ctx *Context) Variables() []*types.Type { return ctx.variables }

// UsesUncheckedConversion reports whether applicability needed an unchecked conversion
func (ctx *Context) UsesUncheckedConversion() bool { return ctx.unchecked }

// inferenceVariable returns the variable standing for typeParameter at the
// current site, the same one every time within an outermost inference
func (ctx *Context) inferenceVariable(typeParameter *types.Type, rank int) *types.Type {
	root := ctx.root()
	key := ivarKey{typeParameter: typeParameter.ID(), rank: rank, site: ctx.site}
	if v, ok := root.ivars[key]; ok {
		return v
	}
	name := fmt.Sprintf("%s#%d", typeParameter.VariableName(), root.nextName)
	root.nextName++
	v := ctx.ts.InferenceVariable(typeParameter, rank, ctx.site, name)
	root.ivars[key] = v
	return v
}

// freshVariables creates inference variables for typeParameters and adds
// their declared bounds to bs (JLS 18.1.3)
func (ctx *Context) freshVariables(bs *BoundSet, typeParameters []*types.Type) types.VarSubstitution {
	theta := types.VarSubstitution{}
	vars := make([]*types.Type, len(typeParameters))
	for i, p := range typeParameters {
		vars[i] = ctx.inferenceVariable(p, i)
		theta[p.ID()] = vars[i]
	}
	bs.AddVariable(vars...)
	ctx.variables = mergeVariables(ctx.variables, vars)
	for i, p := range typeParameters {
		for _, bound := range ctx.env.UpperBounds(p) {
			bs.AddBound(newTypeBound(vars[i], ctx.ts.Substitute(theta, bound), Subtype, true))
		}
	}
	return theta
}

// createInitialBoundSet is B0 of JLS 18.5.1, with `throws α` for the type
// parameters appearing in the method's throws clause. Explicit type
// arguments replace the type parameters and no variable is created.
func (ctx *Context) createInitialBoundSet() *BoundSet {
	bs := NewBoundSet(ctx.ts)
	if explicit := ctx.invocation.TypeArguments; len(explicit) > 0 {
		ctx.theta = types.NewVarSubstitution(ctx.method.TypeParameters, explicit)
		return bs
	}
	ctx.theta = ctx.freshVariables(bs, ctx.method.TypeParameters)
	for _, thrown := range ctx.method.Thrown {
		if v := ctx.theta.Substitute(thrown); v != nil {
			bs.MarkThrows(v)
		}
	}
	return bs
}

// formalParameters are the parameter types of the method with theta applied,
// one per argument. Variable arity methods are expanded unless the last
// argument is already an array. It is nil when the arity does not match.
func (ctx *Context) formalParameters() []*types.Type {
	m := ctx.method
	params := make([]*types.Type, 0, len(ctx.args))
	for _, p := range m.Parameters {
		params = append(params, ctx.ts.Substitute(ctx.theta, p))
	}
	if !m.Varargs || len(params) == 0 {
		if len(params) != len(ctx.args) {
			return nil
		}
		return params
	}
	last := params[len(params)-1]
	if len(ctx.args) == len(params) {
		if typed, ok := ctx.args[len(ctx.args)-1].(*ast.Typed); ok && (typed.Type.IsArray() || typed.Type.IsNull()) {
			return params
		}
	}
	if len(ctx.args) < len(params)-1 {
		return nil
	}
	element := ctx.env.ElementType(last)
	params = params[:len(params)-1]
	for len(params) < len(ctx.args) {
		params = append(params, element)
	}
	return params
}

// reduce reduces formulas depth first into bs
func (ctx *Context) reduce(bs *BoundSet, formulas ...ConstraintFormula) bool {
	work := slices.Clone(formulas)
	for len(work) > 0 {
		f := work[0]
		work = work[1:]
		more, ok := f.reduce(ctx, bs)
		if !ok {
			logger.Debug("reduced to false", "formula", f)
			return false
		}
		work = append(more, work...)
	}
	return true
}

func (ctx *Context) reduceAndIncorporate(bs *BoundSet, formulas ...ConstraintFormula) bool {
	return ctx.reduce(bs, formulas...) && ctx.incorporate(bs)
}

// InferApplicability decides whether the method is applicable to the
// arguments pertinent to applicability (JLS 18.5.1). The bound set before
// resolution is kept for invocation type inference.
func (ctx *Context) InferApplicability() bool {
	ilerr.Check(ctx.state == notInferred, "applicability of %s inferred twice", ctx.method.Name)
	bs := ctx.createInitialBoundSet()
	ctx.current = bs
	params := ctx.formalParameters()
	if params == nil {
		logger.Debug("arity mismatch", "method", ctx.method, "args", len(ctx.args))
		return false
	}
	if !ctx.incorporate(bs) {
		return false
	}
	for i, arg := range ctx.args {
		if !ctx.isPertinent(arg, params[i]) {
			logger.Debug("argument not pertinent to applicability", "arg", ast.ExprString(arg))
			continue
		}
		if !ctx.reduceAndIncorporate(bs, newExpressionConstraint(arg, params[i])) {
			logger.Debug("not applicable", "method", ctx.method, "arg", ast.ExprString(arg), "param", params[i])
			return false
		}
	}
	ctx.b2 = bs.Copy()
	if ctx.Resolve(bs, ctx.variables) == nil {
		logger.Debug("applicability bounds have no solution", "method", ctx.method, "bounds", bs)
		return false
	}
	ctx.state = applicabilityInferred
	logger.Debug("applicable", "method", ctx.method, "b2", ctx.b2)
	return true
}

// InferInvocationType infers the invocation type against target, which is nil
// when the invocation is not a poly expression (JLS 18.5.2). It returns the
// resolved bound set, or nil.
func (ctx *Context) InferInvocationType(target *types.Type) *BoundSet {
	ilerr.Check(ctx.state == applicabilityInferred, "invocation type of %s inferred in state %s", ctx.method.Name, ctx.state)
	bs := ctx.b2.Copy()
	ctx.current = bs
	if target != nil && isPolyInvocation(ctx.invocation) {
		formulas, ok := ctx.targetConstraints(bs, target)
		if !ok || !ctx.reduceAndIncorporate(bs, formulas...) {
			logger.Debug("incompatible with target", "method", ctx.method, "target", target)
			return nil
		}
	}
	ctx.collected = true
	constraints := ctx.collectConstraints(nil)
	solution := ctx.solveConstraints(bs, constraints)
	if solution == nil {
		return nil
	}
	ctx.state = typeInferred
	return solution
}

// targetConstraints are the formulas relating the return type to the target (JLS 18.5.2.1)
func (ctx *Context) targetConstraints(bs *BoundSet, target *types.Type) ([]ConstraintFormula, bool) {
	env := ctx.env
	ret := ctx.ts.Substitute(ctx.theta, ctx.method.Return)
	switch {
	case ret.IsVoid():
		return nil, false
	case ctx.unchecked:
		return []ConstraintFormula{newTypeConstraint(env.Erasure(ret), target, Compatible)}, true
	case ret.IsParameterized() && ret.HasTag(types.HasWildcard):
		params := ret.Decl().TypeParameters
		captureVars := ctx.withSite(ret, func() types.VarSubstitution { return ctx.freshVariables(bs, params) })
		lhs := ctx.ts.ParameterizedType(ret.Generic(), mapTypes(params, captureVars.Substitute), ret.Enclosing())
		bs.AddCapture(lhs, ret)
		return []ConstraintFormula{newTypeConstraint(lhs, target, Compatible)}, true
	case ret.IsInferenceVariable() && ctx.needsEagerResolution(bs, ret, target):
		resolved := ctx.Resolve(bs, []*types.Type{ret})
		if resolved == nil {
			return nil, false
		}
		inst := resolved.Instantiation(ret)
		bs.AddBound(newTypeBound(ret, inst, Same, false))
		captured := env.Capture(inst, ctx.invocation.Range, nil)
		return []ConstraintFormula{newTypeConstraint(captured, target, Compatible)}, true
	}
	return []ConstraintFormula{newTypeConstraint(ret, target, Compatible)}, true
}

// withSite runs f with the capture variables of a return type attributed to
// a site of their own, so they never alias the invocation's variables
func (ctx *Context) withSite(ret *types.Type, f func() types.VarSubstitution) types.VarSubstitution {
	saved := ctx.site
	if ctx.returnSite == nil {
		ctx.returnSite = &ast.Typed{Range: ctx.invocation.Range, Text: "return", Type: ret}
	}
	ctx.site = ctx.returnSite
	defer func() { ctx.site = saved }()
	return f()
}

func mapTypes(in []*types.Type, f func(*types.Type) *types.Type) []*types.Type {
	out := make([]*types.Type, len(in))
	for i, t := range in {
		out[i] = f(t)
	}
	return out
}

// needsEagerResolution lists the cases of JLS 18.5.2.1 where a return type
// that is an inference variable is resolved before meeting the target
func (ctx *Context) needsEagerResolution(bs *BoundSet, alpha, target *types.Type) bool {
	env := ctx.env
	wildcardParameterized := func(t *types.Type) bool { return t.IsParameterized() && t.HasTag(types.HasWildcard) }
	sameOrLower := append(bs.SameBounds(alpha), bs.LowerBounds(alpha, false)...)
	if target.IsPrimitive() {
		return slices.ContainsFunc(slices.Concat(sameOrLower, bs.UpperBounds(alpha, false)), func(b *types.Type) bool {
			return !b.IsPrimitive() && env.Unbox(b) != nil
		})
	}
	if !target.IsReference() || wildcardParameterized(target) {
		return false
	}
	if slices.ContainsFunc(sameOrLower, wildcardParameterized) {
		return true
	}
	lower := bs.LowerBounds(alpha, false)
	for i, s1 := range lower {
		for _, s2 := range lower[i+1:] {
			if ctx.differentParameterizations(s1, s2) {
				return true
			}
		}
	}
	return target.IsParameterized() && slices.ContainsFunc(sameOrLower, func(s *types.Type) bool {
		return env.NeedsUncheckedConversion(s, target)
	})
}

// differentParameterizations reports whether s and t have supertypes that
// are different parameterizations of one generic class
func (ctx *Context) differentParameterizations(s, t *types.Type) bool {
	for _, d := range ctx.env.ErasedSupertypes(s) {
		if !d.IsGeneric() {
			continue
		}
		ss, ts := ctx.env.AsSuperType(s, d), ctx.env.AsSuperType(t, d)
		if ss != nil && ts != nil && ss.IsParameterized() && ts.IsParameterized() && !types.SameNakedType(ss, ts) {
			return true
		}
	}
	return false
}
