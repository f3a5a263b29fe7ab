package infer

import (
	"github.com/cottand/jinfer/frontend/ilerr"
	"github.com/cottand/jinfer/frontend/types"
	"github.com/cottand/jinfer/internal/log"
	"github.com/hashicorp/go-set/v3"
)

var incorporationLogger = log.Section("inference.incorporation")

// incorporate derives the bounds implied by the bounds of bs (JLS 18.3) until
// no new bounds appear. Each generation combines the bounds added since the
// last one with every older bound, so a second call on an incorporated set adds nothing.
// It returns false when a contradiction is found.
func (ctx *Context) incorporate(bs *BoundSet) bool {
	if bs.IsFalse() {
		return false
	}
	seen := &formulaCache{seen: set.NewHashSet[*TypeConstraint, string](0)}
	for generation := 0; ; generation++ {
		if generation >= ctx.opts.MaxIncorporationGenerations {
			incorporationLogger.Warn("incorporation did not converge", "generations", generation, "bounds", len(bs.all))
			return false
		}
		if !ctx.processCaptures(bs) {
			return false
		}
		start, end := bs.incorporatedUpTo, len(bs.all)
		if start == end {
			return true
		}
		incorporationLogger.Debug("incorporating", "generation", generation, "new", end-start, "old", start)
		for i := start; i < end; i++ {
			fresh := bs.all[i]
			for j := 0; j < i; j++ {
				if !ctx.combine(bs, bs.all[j], fresh, seen) {
					incorporationLogger.Debug("contradiction", "first", bs.all[j], "second", fresh)
					return false
				}
			}
			if !ctx.checkCaptured(bs, fresh) {
				incorporationLogger.Debug("capture contradiction", "bound", fresh)
				return false
			}
		}
		bs.incorporatedUpTo = end
	}
}

// formulaCache remembers the formulas already reduced by one incorporation
type formulaCache struct {
	recent [4]*TypeConstraint
	next   int
	seen   *set.HashSet[*TypeConstraint, string]
}

// add reports whether c is new
func (fc *formulaCache) add(c *TypeConstraint) bool {
	for _, r := range fc.recent {
		if r != nil && r.Hash() == c.Hash() {
			return false
		}
	}
	if !fc.seen.Insert(c) {
		return false
	}
	fc.recent[fc.next] = c
	fc.next = (fc.next + 1) % len(fc.recent)
	return true
}

// combine reduces the formulas implied by a pair of bounds
func (ctx *Context) combine(bs *BoundSet, a, b *TypeBound, seen *formulaCache) bool {
	implied := ctx.impliedBy(a, b, nil)
	implied = ctx.impliedBy(b, a, implied)
	for _, c := range implied {
		if !seen.add(c) {
			continue
		}
		if !ctx.reduce(bs, c) {
			return false
		}
	}
	return true
}

// impliedBy appends the formulas JLS 18.3.1 derives from a and b, in that order
func (ctx *Context) impliedBy(a, b *TypeBound, implied []*TypeConstraint) []*TypeConstraint {
	if types.SameNakedType(a.Left, b.Left) {
		switch {
		case a.Relation == Same && b.Relation == Same:
			implied = append(implied, newTypeConstraint(a.Right, b.Right, Same))
		case a.Relation == Same && b.Relation == Subtype:
			implied = append(implied, newTypeConstraint(a.Right, b.Right, Subtype))
		case a.Relation == Same && b.Relation == Supertype:
			implied = append(implied, newTypeConstraint(b.Right, a.Right, Subtype))
		case a.Relation == Supertype && b.Relation == Subtype:
			implied = append(implied, newTypeConstraint(a.Right, b.Right, Subtype))
		case a.Relation == Subtype && b.Relation == Subtype && a.Right.ID() < b.Right.ID():
			implied = append(implied, ctx.commonParameterizations(a.Right, b.Right)...)
		}
		return implied
	}
	if a.Relation != Same || !a.Right.IsProper() || !b.Right.MentionsAny(a.Left) {
		return implied
	}
	s := types.VarSubstitution{a.Left.ID(): a.Right}
	right := ctx.ts.Substitute(s, b.Right)
	switch b.Relation {
	case Same:
		implied = append(implied, newTypeConstraint(b.Left, right, Same))
	case Subtype:
		implied = append(implied, newTypeConstraint(b.Left, right, Subtype))
	case Supertype:
		implied = append(implied, newTypeConstraint(right, b.Left, Subtype))
	}
	return implied
}

// commonParameterizations equates the type arguments of the parameterizations
// of a generic class that s and t both have as supertypes
func (ctx *Context) commonParameterizations(s, t *types.Type) []*TypeConstraint {
	if s.IsInferenceVariable() || t.IsInferenceVariable() || s.IsPrimitive() || t.IsPrimitive() {
		return nil
	}
	var implied []*TypeConstraint
	for _, d := range ctx.env.ErasedSupertypes(s) {
		if !d.IsGeneric() {
			continue
		}
		ss, ts := ctx.env.AsSuperType(s, d), ctx.env.AsSuperType(t, d)
		if ss == nil || ts == nil || !ss.IsParameterized() || !ts.IsParameterized() || ss.IsDiamond() || ts.IsDiamond() {
			continue
		}
		for i, sa := range ss.Arguments() {
			ta := ts.Arguments()[i]
			if !sa.IsWildcard() && !ta.IsWildcard() {
				implied = append(implied, newTypeConstraint(sa, ta, Same))
			}
		}
	}
	return implied
}

// processCaptures consumes the pending capture bounds (JLS 18.3.2)
func (ctx *Context) processCaptures(bs *BoundSet) bool {
	for _, p := range bs.PendingCaptures() {
		lhs, rhs := p.Fst, p.Snd
		bs.consumeCapture(lhs)
		incorporationLogger.Debug("processing capture", "lhs", lhs, "rhs", rhs)

		params := lhs.Decl().TypeParameters
		alphas, args := lhs.Arguments(), rhs.Arguments()
		ilerr.Check(len(alphas) == len(params) && len(args) == len(params), "capture bound %s = capture(%s) has the wrong arity", lhs, rhs)
		bs.captureGroups = append(bs.captureGroups, captureGroup{
			captured:  mergeVariables(nil, lhs.InferenceVariables()),
			mentioned: mergeVariables(nil, lhs.InferenceVariables(), rhs.InferenceVariables()),
		})

		theta := types.NewVarSubstitution(params, alphas)
		for i, alpha := range alphas {
			ilerr.Check(alpha.IsInferenceVariable(), "capture bound argument %s is not an inference variable", alpha)
			var declared []*types.Type
			for _, bound := range ctx.env.UpperBounds(params[i]) {
				declared = append(declared, ctx.ts.Substitute(theta, bound))
			}
			for _, bound := range declared {
				bs.AddBound(newTypeBound(alpha, bound, Subtype, true))
			}
			if !args[i].IsWildcard() {
				bs.AddBound(newTypeBound(alpha, args[i], Same, false))
				continue
			}
			cv := &capturedVariable{wildcard: args[i], declared: ctx.env.Object}
			switch len(declared) {
			case 0:
			case 1:
				cv.declared = declared[0]
			default:
				cv.declared = ctx.ts.IntersectionType18(declared)
			}
			bs.captured[alpha.ID()] = cv
			for _, b := range bs.BoundsOf(alpha) {
				if !ctx.checkCaptured(bs, b) {
					return false
				}
			}
		}
	}
	return true
}

// checkCaptured applies the capture rules of JLS 18.3.2 to a bound on a
// variable standing for a captured wildcard
func (ctx *Context) checkCaptured(bs *BoundSet, b *TypeBound) bool {
	cv, ok := bs.captured[b.Left.ID()]
	if !ok || b.Right.IsInferenceVariable() {
		return true
	}
	w, r := cv.wildcard, b.Right
	switch b.Relation {
	case Same:
		return false
	case Supertype:
		if w.BoundKind() == types.Super {
			return ctx.reduce(bs, newTypeConstraint(r, w.Bound(), Subtype))
		}
		return false
	}
	switch w.BoundKind() {
	case types.Extends:
		if types.SameNakedType(cv.declared, ctx.env.Object) {
			return ctx.reduce(bs, newTypeConstraint(w.Bound(), r, Subtype))
		}
		if types.SameNakedType(w.Bound(), ctx.env.Object) {
			return ctx.reduce(bs, newTypeConstraint(cv.declared, r, Subtype))
		}
		return true
	default:
		return ctx.reduce(bs, newTypeConstraint(cv.declared, r, Subtype))
	}
}
