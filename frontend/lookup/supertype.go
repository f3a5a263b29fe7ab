package lookup

import (
	"github.com/cottand/jinfer/frontend/ilerr"
	"github.com/cottand/jinfer/frontend/types"
)

// DirectSupertypes are the declared supertypes of t with t's type arguments
// substituted. Raw types and bare generic declarations have erased supertypes.
func (e *Environment) DirectSupertypes(t *types.Type) []*types.Type {
	switch t.Kind() {
	case types.KindClass, types.KindGeneric, types.KindParameterized, types.KindRaw:
	case types.KindTypeVariable, types.KindCapture, types.KindInferenceVariable:
		return e.UpperBounds(t)
	case types.KindIntersection:
		return t.IntersectingTypes()
	case types.KindArray:
		return []*types.Type{e.Object, e.Cloneable, e.Serializable}
	default:
		return nil
	}
	d := t.Decl()
	var declared []*types.Type
	if d.Superclass != nil {
		declared = append(declared, d.Superclass)
	} else if d.Interface && t.Decl() != e.Object.Decl() {
		declared = append(declared, e.Object)
	}
	declared = append(declared, d.Interfaces...)

	switch {
	case t.IsRaw() || t.IsDiamond() || t.IsGenericDeclaration():
		for i, st := range declared {
			declared[i] = e.Erasure(st)
		}
	case t.IsParameterized():
		s := types.NewVarSubstitution(d.TypeParameters, t.Arguments())
		for i, st := range declared {
			declared[i] = e.TS.Substitute(s, st)
		}
	}
	return declared
}

// AsSuperType finds the supertype of t (possibly t itself) declared by decl,
// nil when there is none
func (e *Environment) AsSuperType(t *types.Type, decl *types.Decl) *types.Type {
	if t == nil || decl == nil {
		return nil
	}
	if decl == e.Object.Decl() && t.IsReference() && !t.IsNull() {
		return e.Object
	}
	return e.asSuperType(t, decl, map[types.TypeID]bool{})
}

func (e *Environment) asSuperType(t *types.Type, decl *types.Decl, seen map[types.TypeID]bool) *types.Type {
	if seen[t.ID()] {
		return nil
	}
	seen[t.ID()] = true
	if t.Decl() == decl {
		return t
	}
	for _, st := range e.DirectSupertypes(t) {
		if found := e.asSuperType(st, decl, seen); found != nil {
			return found
		}
	}
	return nil
}

// Erasure per JLS 4.6; parameterized and raw types erase to their generic declaration type
func (e *Environment) Erasure(t *types.Type) *types.Type {
	switch t.Kind() {
	case types.KindParameterized, types.KindRaw:
		return t.Generic()
	case types.KindArray:
		leaf := e.Erasure(t.Leaf())
		if leaf == t.Leaf() {
			return t
		}
		return e.TS.ArrayType(leaf, t.Dimensions())
	case types.KindTypeVariable, types.KindCapture, types.KindInferenceVariable:
		return e.Erasure(e.UpperBounds(t)[0])
	case types.KindIntersection:
		return e.Erasure(t.Bound())
	case types.KindWildcard:
		if t.BoundKind() == types.Extends {
			return e.Erasure(t.Bound())
		}
		return e.Object
	}
	return e.TS.UnannotatedType(t)
}

// Box returns the wrapper class of a primitive type, t itself for references
func (e *Environment) Box(t *types.Type) *types.Type {
	if !t.IsPrimitive() {
		return t
	}
	boxed, ok := e.boxes[t.Primitive()]
	ilerr.Check(ok, "no wrapper class for %s", t)
	return boxed
}

// Unbox returns the primitive type wrapped by t, nil when t is not a wrapper class
func (e *Environment) Unbox(t *types.Type) *types.Type {
	if t.IsPrimitive() {
		return t
	}
	for p, boxed := range e.boxes {
		if types.SameNakedType(boxed, t) {
			return e.Primitive(p)
		}
	}
	return nil
}

// widening is the JLS 5.1.2 widening primitive conversion table, identity excluded
var widening = map[types.Primitive][]types.Primitive{
	types.Byte:  {types.Short, types.Int, types.Long, types.Float, types.Double},
	types.Short: {types.Int, types.Long, types.Float, types.Double},
	types.Char:  {types.Int, types.Long, types.Float, types.Double},
	types.Int:   {types.Long, types.Float, types.Double},
	types.Long:  {types.Float, types.Double},
	types.Float: {types.Double},
}

func primitiveWidens(from, to types.Primitive) bool {
	if from == to {
		return true
	}
	for _, p := range widening[from] {
		if p == to {
			return true
		}
	}
	return false
}
