package lookup

import (
	"github.com/cottand/jinfer/frontend/types"
)

// IsSameType compares types disregarding annotations
func (e *Environment) IsSameType(s, t *types.Type) bool {
	return types.SameNakedType(s, t)
}

// IsSubtype implements JLS 4.10 for proper types. A parameterized subtype
// with wildcard arguments is compared through containment, without capture.
func (e *Environment) IsSubtype(s, t *types.Type) bool {
	if types.SameNakedType(s, t) {
		return true
	}
	if s.IsBaseType() || t.IsBaseType() {
		return s.IsPrimitive() && t.IsPrimitive() && primitiveWidens(s.Primitive(), t.Primitive())
	}
	if s.IsNull() {
		return t.IsReference()
	}
	if t.IsIntersection() {
		for _, component := range t.IntersectingTypes() {
			if !e.IsSubtype(s, component) {
				return false
			}
		}
		return true
	}
	if s.IsIntersection() {
		for _, component := range s.IntersectingTypes() {
			if e.IsSubtype(component, t) {
				return true
			}
		}
		return false
	}
	switch t.Kind() {
	case types.KindTypeVariable, types.KindInferenceVariable:
		return e.variableSubtype(s, t)
	case types.KindCapture:
		if lower := e.captureLowerBound(t); lower != nil && e.IsSubtype(s, lower) {
			return true
		}
		return e.variableSubtype(s, t)
	}
	if s.IsTypeVariableLike() {
		for _, bound := range e.UpperBounds(s) {
			if e.IsSubtype(bound, t) {
				return true
			}
		}
		return false
	}
	if s.IsArray() {
		return e.arraySubtype(s, t)
	}
	if t.IsArray() {
		return false
	}

	d := t.Decl()
	if d == nil {
		return false
	}
	sup := e.AsSuperType(s, d)
	if sup == nil {
		return false
	}
	if !t.IsParameterized() || t.IsDiamond() {
		return true
	}
	if !sup.IsParameterized() || sup.IsDiamond() {
		// raw to parameterized is an unchecked conversion, not subtyping
		return false
	}
	targs, sargs := t.Arguments(), sup.Arguments()
	for i := range targs {
		if !e.Contains(targs[i], sargs[i]) {
			return false
		}
	}
	if t.Enclosing() != nil && sup.Enclosing() != nil {
		return e.IsSubtype(sup.Enclosing(), t.Enclosing())
	}
	return true
}

// variableSubtype holds when s is t or has t among its (transitive) upper bounds
func (e *Environment) variableSubtype(s, t *types.Type) bool {
	if !s.IsTypeVariableLike() && !s.IsIntersection() {
		return false
	}
	for _, bound := range e.DirectSupertypes(s) {
		if types.SameNakedType(bound, t) || bound.IsTypeVariableLike() && e.variableSubtype(bound, t) {
			return true
		}
	}
	return false
}

func (e *Environment) captureLowerBound(c *types.Type) *types.Type {
	if !c.IsFreshCapture() {
		e.CaptureBounds(c)
	}
	return c.LowerBound()
}

func (e *Environment) arraySubtype(s, t *types.Type) bool {
	if !t.IsArray() {
		return types.SameNakedType(t, e.Object) || types.SameNakedType(t, e.Cloneable) || types.SameNakedType(t, e.Serializable)
	}
	se, te := e.ElementType(s), e.ElementType(t)
	if se.IsBaseType() || te.IsBaseType() {
		return types.SameNakedType(se, te)
	}
	return e.IsSubtype(se, te)
}

// ElementType is the component type of an array type
func (e *Environment) ElementType(array *types.Type) *types.Type {
	if array.Dimensions() == 1 {
		return array.Leaf()
	}
	return e.TS.ArrayType(array.Leaf(), array.Dimensions()-1)
}

// Contains reports whether type argument t contains type argument s (JLS 4.5.1)
func (e *Environment) Contains(t, s *types.Type) bool {
	if !t.IsWildcard() {
		return !s.IsWildcard() && types.SameNakedType(s, t)
	}
	switch t.BoundKind() {
	case types.Unbound:
		return true
	case types.Extends:
		if !s.IsWildcard() {
			return e.IsSubtype(s, t.Bound())
		}
		if s.BoundKind() == types.Extends {
			return e.IsSubtype(s.Bound(), t.Bound())
		}
		return types.SameNakedType(t.Bound(), e.Object)
	default:
		if !s.IsWildcard() {
			return e.IsSubtype(t.Bound(), s)
		}
		return s.BoundKind() == types.Super && e.IsSubtype(t.Bound(), s.Bound())
	}
}

// IsCompatible reports whether s is compatible with t in a loose invocation
// context (JLS 5.3): subtyping, boxing, unboxing and unchecked conversion
func (e *Environment) IsCompatible(s, t *types.Type) bool {
	if e.IsSubtype(s, t) {
		return true
	}
	switch {
	case s.IsPrimitive() && t.IsReference():
		return e.IsSubtype(e.Box(s), t)
	case s.IsReference() && t.IsPrimitive():
		unboxed := e.Unbox(s)
		return unboxed != nil && primitiveWidens(unboxed.Primitive(), t.Primitive())
	}
	return e.NeedsUncheckedConversion(s, t)
}

// NeedsUncheckedConversion reports whether s only reaches the parameterized
// type t through a raw supertype
func (e *Environment) NeedsUncheckedConversion(s, t *types.Type) bool {
	if !t.IsParameterized() || s.IsNull() || s.IsBaseType() {
		return false
	}
	sup := e.AsSuperType(s, t.Decl())
	return sup != nil && (sup.IsRaw() || sup.Kind() == types.KindGeneric)
}
