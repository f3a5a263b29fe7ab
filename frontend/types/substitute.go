package types

import (
	"slices"

	"github.com/cottand/jinfer/frontend/ilerr"
)

// Substitution maps type variables (declared, captured or inference variables)
// to their replacements
type Substitution interface {
	// Substitute returns the replacement of v, or nil to leave v unchanged
	Substitute(v *Type) *Type
}

// VarSubstitution substitutes variables by id, so every annotation variant
// of a variable is replaced
type VarSubstitution map[TypeID]*Type

// NewVarSubstitution maps vars[i] to replacements[i]
func NewVarSubstitution(vars, replacements []*Type) VarSubstitution {
	ilerr.Check(len(vars) == len(replacements), "substituting %d variables with %d types", len(vars), len(replacements))
	s := make(VarSubstitution, len(vars))
	for i, v := range vars {
		s[v.id] = replacements[i]
	}
	return s
}

func (s VarSubstitution) Substitute(v *Type) *Type { return s[v.id] }

// Substitute applies s structurally. Results are interned, and t itself is
// returned when nothing changed.
func (ts *TypeSystem) Substitute(s Substitution, t *Type) *Type {
	if t == nil {
		return nil
	}
	switch t.kind {
	case KindTypeVariable, KindCapture, KindInferenceVariable:
		if r := s.Substitute(t); r != nil {
			return r
		}
		return t
	case KindArray:
		leaf := ts.Substitute(s, t.leaf)
		if leaf == t.leaf {
			return t
		}
		return ts.ArrayType(leaf, t.dims, t.annotations...)
	case KindParameterized:
		enclosing := ts.Substitute(s, t.enclosing)
		args, changed := ts.substituteAll(s, t.args)
		if !changed && enclosing == t.enclosing {
			return t
		}
		return ts.ParameterizedType(t.generic, args, enclosing, t.annotations...)
	case KindRaw:
		enclosing := ts.Substitute(s, t.enclosing)
		if enclosing == t.enclosing {
			return t
		}
		return ts.RawType(t.generic, enclosing, t.annotations...)
	case KindWildcard:
		bound := ts.Substitute(s, t.bound)
		others, changed := ts.substituteAll(s, t.otherBounds)
		if !changed && bound == t.bound {
			return t
		}
		generic := t.generic
		if generic == ts.lubGeneric {
			generic = nil
		}
		return ts.Wildcard(generic, t.rank, bound, others, t.boundKind, t.annotations...)
	case KindIntersection:
		components, changed := ts.substituteAll(s, t.IntersectingTypes())
		if !changed {
			return t
		}
		return ts.IntersectionType18(components)
	}
	return t
}

func (ts *TypeSystem) substituteAll(s Substitution, types []*Type) ([]*Type, bool) {
	if types == nil {
		return nil, false
	}
	changed := false
	out := make([]*Type, len(types))
	for i, t := range types {
		out[i] = ts.Substitute(s, t)
		changed = changed || out[i] != t
	}
	return out, changed
}

// Walk visits t and its structural parts depth first until visit returns false
func (t *Type) Walk(visit func(*Type) bool) bool {
	if !visit(t) {
		return false
	}
	for child := range t.Children() {
		if !child.Walk(visit) {
			return false
		}
	}
	return true
}

// MentionsAny reports whether t mentions, at any depth, one of vars
func (t *Type) MentionsAny(vars ...*Type) bool {
	found := false
	t.Walk(func(part *Type) bool {
		found = slices.ContainsFunc(vars, func(v *Type) bool { return SameNakedType(part, v) })
		return !found
	})
	return found
}

// InferenceVariables lists the inference variables mentioned by t, in order of first occurrence
func (t *Type) InferenceVariables() []*Type {
	if !t.mentionsInference() {
		return nil
	}
	var vars []*Type
	t.Walk(func(part *Type) bool {
		if part.kind == KindInferenceVariable && !slices.ContainsFunc(vars, func(v *Type) bool { return SameNakedType(v, part) }) {
			vars = append(vars, part)
		}
		return true
	})
	return vars
}
