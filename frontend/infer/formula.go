package infer

import (
	"fmt"
	"slices"

	"github.com/cottand/jinfer/frontend/types"
)

// ConstraintFormula is an assertion of compatibility, subtyping, containment
// or equality that reduces to bounds on inference variables (JLS 18.1.2)
type ConstraintFormula interface {
	// reduce adds the bounds the formula implies to bs and returns the
	// formulas still to be reduced. It returns false when the formula reduces to false.
	reduce(ctx *Context, bs *BoundSet) ([]ConstraintFormula, bool)
	// InputVariables must be resolved before the formula can be reduced (JLS 18.5.2.2)
	InputVariables(ctx *Context) []*types.Type
	OutputVariables(ctx *Context) []*types.Type
	// ApplySubstitution replaces resolved inference variables by their instantiations
	ApplySubstitution(ctx *Context, s types.Substitution) ConstraintFormula
	String() string
}

// TypeConstraint is ‹Left Relation Right› between two types
type TypeConstraint struct {
	Left, Right *types.Type
	Relation    Relation
}

func newTypeConstraint(s, t *types.Type, rel Relation) *TypeConstraint {
	return &TypeConstraint{Left: s, Right: t, Relation: rel}
}

func (c *TypeConstraint) Hash() string {
	return fmt.Sprintf("%d%s%d", c.Left.ID(), c.Relation, c.Right.ID())
}

func (c *TypeConstraint) String() string {
	return fmt.Sprintf("‹%s %s %s›", c.Left, c.Relation, c.Right)
}

func (c *TypeConstraint) InputVariables(*Context) []*types.Type { return nil }

func (c *TypeConstraint) OutputVariables(*Context) []*types.Type {
	return mergeVariables(c.Left.InferenceVariables(), c.Right.InferenceVariables())
}

func (c *TypeConstraint) ApplySubstitution(ctx *Context, s types.Substitution) ConstraintFormula {
	left, right := ctx.ts.Substitute(s, c.Left), ctx.ts.Substitute(s, c.Right)
	if left == c.Left && right == c.Right {
		return c
	}
	return newTypeConstraint(left, right, c.Relation)
}

func (c *TypeConstraint) reduce(ctx *Context, bs *BoundSet) ([]ConstraintFormula, bool) {
	switch c.Relation {
	case Compatible:
		return ctx.reduceCompatible(c.Left, c.Right)
	case Subtype:
		return ctx.reduceSubtype(bs, c.Left, c.Right)
	case Supertype:
		return ctx.reduceSubtype(bs, c.Right, c.Left)
	case TypeArgumentContained:
		return ctx.reduceContained(c.Left, c.Right)
	case Same:
		return ctx.reduceSame(bs, c.Left, c.Right)
	}
	return nil, false
}

func reduced(formulas ...ConstraintFormula) ([]ConstraintFormula, bool) {
	return formulas, true
}

// mergeVariables appends the variables of more not already in vars
func mergeVariables(vars []*types.Type, more ...[]*types.Type) []*types.Type {
	for _, m := range more {
		for _, v := range m {
			if !slices.Contains(vars, v) {
				vars = append(vars, v)
			}
		}
	}
	return vars
}

// reduceCompatible is ‹S → T› (JLS 18.2.2)
func (ctx *Context) reduceCompatible(s, t *types.Type) ([]ConstraintFormula, bool) {
	env := ctx.env
	switch {
	case s.IsProper() && t.IsProper():
		if !env.IsCompatible(s, t) {
			return nil, false
		}
		if !env.IsSubtype(s, t) && env.NeedsUncheckedConversion(s, t) {
			ctx.unchecked = true
		}
		return nil, true
	case s.IsPrimitive():
		return reduced(newTypeConstraint(env.Box(s), t, Compatible))
	case t.IsPrimitive():
		return reduced(newTypeConstraint(s, env.Box(t), Same))
	case !s.IsInferenceVariable() && env.NeedsUncheckedConversion(s, t):
		ctx.unchecked = true
		return nil, true
	}
	return reduced(newTypeConstraint(s, t, Subtype))
}

// reduceSubtype is ‹S <: T› (JLS 18.2.3)
func (ctx *Context) reduceSubtype(bs *BoundSet, s, t *types.Type) ([]ConstraintFormula, bool) {
	env := ctx.env
	switch {
	case s.IsProper() && t.IsProper():
		return nil, env.IsSubtype(s, t)
	case s.IsNull():
		return nil, true
	case t.IsNull():
		return nil, false
	case s.IsInferenceVariable() || t.IsInferenceVariable():
		bs.AddBound(newTypeBound(s, t, Subtype, false))
		return nil, true
	}

	switch {
	case t.IsParameterized() && !t.IsDiamond():
		sup := env.AsSuperType(s, t.Decl())
		if sup == nil || !sup.IsParameterized() || sup.IsDiamond() {
			return nil, false
		}
		var formulas []ConstraintFormula
		for i, arg := range t.Arguments() {
			formulas = append(formulas, newTypeConstraint(sup.Arguments()[i], arg, TypeArgumentContained))
		}
		if t.Enclosing() != nil && sup.Enclosing() != nil {
			formulas = append(formulas, newTypeConstraint(sup.Enclosing(), t.Enclosing(), Subtype))
		}
		return formulas, true
	case t.Decl() != nil:
		return nil, env.AsSuperType(s, t.Decl()) != nil
	case t.IsArray():
		if !s.IsArray() {
			return nil, false
		}
		se, te := env.ElementType(s), env.ElementType(t)
		if se.IsPrimitive() || te.IsPrimitive() {
			return nil, types.SameNakedType(se, te)
		}
		return reduced(newTypeConstraint(se, te, Subtype))
	case t.IsTypeVariableLike():
		if s.IsIntersection() && slices.ContainsFunc(s.IntersectingTypes(), func(c *types.Type) bool { return types.SameNakedType(c, t) }) {
			return nil, true
		}
		if t.IsCapture() {
			env.CaptureBounds(t)
		}
		if lower := t.LowerBound(); lower != nil {
			return reduced(newTypeConstraint(s, lower, Subtype))
		}
		return nil, false
	case t.IsIntersection():
		var formulas []ConstraintFormula
		for _, component := range t.IntersectingTypes() {
			formulas = append(formulas, newTypeConstraint(s, component, Subtype))
		}
		return formulas, true
	}
	return nil, false
}

// reduceContained is ‹S <= T› (JLS 18.2.3)
func (ctx *Context) reduceContained(s, t *types.Type) ([]ConstraintFormula, bool) {
	if !t.IsWildcard() {
		if s.IsWildcard() {
			return nil, false
		}
		return reduced(newTypeConstraint(s, t, Same))
	}
	switch t.BoundKind() {
	case types.Extends:
		if !s.IsWildcard() {
			return reduced(newTypeConstraint(s, t.Bound(), Subtype))
		}
		switch s.BoundKind() {
		case types.Extends:
			return reduced(newTypeConstraint(s.Bound(), t.Bound(), Subtype))
		case types.Super:
			return reduced(newTypeConstraint(ctx.env.Object, t.Bound(), Same))
		default:
			return reduced(newTypeConstraint(ctx.env.Object, t.Bound(), Subtype))
		}
	case types.Super:
		if !s.IsWildcard() {
			return reduced(newTypeConstraint(t.Bound(), s, Subtype))
		}
		if s.BoundKind() == types.Super {
			return reduced(newTypeConstraint(t.Bound(), s.Bound(), Subtype))
		}
		return nil, false
	}
	return nil, true
}

// reduceSame is ‹S = T› (JLS 18.2.4)
func (ctx *Context) reduceSame(bs *BoundSet, s, t *types.Type) ([]ConstraintFormula, bool) {
	switch {
	case s.IsProper() && t.IsProper():
		return nil, ctx.env.IsSameType(s, t)
	case s.IsNull() || t.IsNull():
		return nil, false
	case s.IsInferenceVariable() || t.IsInferenceVariable():
		if s.IsPrimitive() || t.IsPrimitive() {
			return nil, false
		}
		bs.AddBound(newTypeBound(s, t, Same, false))
		return nil, true
	case s.IsWildcard() && t.IsWildcard():
		if s.BoundKind() != t.BoundKind() {
			return nil, false
		}
		if s.BoundKind() == types.Unbound {
			return nil, true
		}
		return reduced(newTypeConstraint(s.Bound(), t.Bound(), Same))
	case s.IsWildcard() || t.IsWildcard():
		return nil, false
	case s.IsArray() && t.IsArray():
		return reduced(newTypeConstraint(ctx.env.ElementType(s), ctx.env.ElementType(t), Same))
	case s.Decl() != nil && s.Decl() == t.Decl():
		if s.Kind() != t.Kind() {
			return nil, false
		}
		if !s.IsParameterized() || s.IsDiamond() || t.IsDiamond() {
			return nil, true
		}
		var formulas []ConstraintFormula
		for i, arg := range s.Arguments() {
			formulas = append(formulas, newTypeConstraint(arg, t.Arguments()[i], Same))
		}
		if s.Enclosing() != nil && t.Enclosing() != nil {
			formulas = append(formulas, newTypeConstraint(s.Enclosing(), t.Enclosing(), Same))
		}
		return formulas, true
	case s.IsIntersection() && t.IsIntersection():
		sc, tc := s.IntersectingTypes(), t.IntersectingTypes()
		if len(sc) != len(tc) {
			return nil, false
		}
		var formulas []ConstraintFormula
		for i := range sc {
			formulas = append(formulas, newTypeConstraint(sc[i], tc[i], Same))
		}
		return formulas, true
	}
	return nil, false
}
