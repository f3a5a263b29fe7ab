package lookup

import (
	"github.com/cottand/jinfer/frontend/types"
)

// singleAbstractMethod finds the only abstract method of an interface
// declaration, searching superinterfaces too
func (e *Environment) singleAbstractMethod(d *types.Decl) (*types.Method, *types.Decl) {
	if d == nil || !d.Interface {
		return nil, nil
	}
	var found *types.Method
	var owner *types.Decl
	var visit func(d *types.Decl) bool
	visit = func(d *types.Decl) bool {
		for _, m := range d.Methods {
			if !m.Abstract || m.Static {
				continue
			}
			if found != nil && found.Name != m.Name {
				return false
			}
			if found == nil {
				found, owner = m, d
			}
		}
		for _, super := range d.Interfaces {
			if !visit(super.Decl()) {
				return false
			}
		}
		return true
	}
	if !visit(d) {
		return nil, nil
	}
	return found, owner
}

// IsFunctionalInterface reports whether t is an interface type with a single abstract method
func (e *Environment) IsFunctionalInterface(t *types.Type) bool {
	m, _ := e.singleAbstractMethod(t.Decl())
	return m != nil
}

// FunctionType returns the function type of a functional interface type
// (JLS 9.9): its single abstract method with the interface's type arguments
// substituted. Wildcard parameterizations are replaced by their
// non-wildcard parameterization first. It is nil when t is not functional.
func (e *Environment) FunctionType(t *types.Type) *types.Method {
	m, owner := e.singleAbstractMethod(t.Decl())
	if m == nil {
		return nil
	}
	ground := e.GroundTargetType(t)
	var s types.Substitution = types.VarSubstitution{}
	switch {
	case ground.IsParameterized() && !ground.IsDiamond():
		sup := e.AsSuperType(ground, owner)
		if sup != nil && sup.IsParameterized() {
			s = types.NewVarSubstitution(owner.TypeParameters, sup.Arguments())
		}
	case owner.IsGeneric():
		// raw functional interfaces have erased function types
		erased := make([]*types.Type, len(owner.TypeParameters))
		for i, p := range owner.TypeParameters {
			erased[i] = e.Erasure(p)
		}
		s = types.NewVarSubstitution(owner.TypeParameters, erased)
	}
	substituted := &types.Method{
		Name:      m.Name,
		Declaring: m.Declaring,
		Return:    e.TS.Substitute(s, m.Return),
		Varargs:   m.Varargs,
		Abstract:  true,
	}
	for _, p := range m.Parameters {
		substituted.Parameters = append(substituted.Parameters, e.TS.Substitute(s, p))
	}
	for _, thrown := range m.Thrown {
		substituted.Thrown = append(substituted.Thrown, e.TS.Substitute(s, thrown))
	}
	return substituted
}

// GroundTargetType replaces the wildcard arguments of a functional interface
// parameterization by their non-wildcard parameterization (JLS 9.9)
func (e *Environment) GroundTargetType(t *types.Type) *types.Type {
	if !t.IsParameterized() || t.IsDiamond() || !t.HasTag(types.HasWildcard) {
		return t
	}
	params := t.Decl().TypeParameters
	args := make([]*types.Type, len(t.Arguments()))
	changed := false
	for i, arg := range t.Arguments() {
		args[i] = arg
		if !arg.IsWildcard() {
			continue
		}
		changed = true
		switch arg.BoundKind() {
		case types.Extends, types.Super:
			args[i] = arg.Bound()
		default:
			bounds := params[i].UpperBounds()
			args[i] = e.Object
			if len(bounds) > 0 && !bounds[0].MentionsAny(params...) {
				args[i] = bounds[0]
			}
		}
	}
	if !changed {
		return t
	}
	return e.TS.ParameterizedType(t.Generic(), args, t.Enclosing(), t.Annotations()...)
}
