package lookup

import (
	"testing"

	"github.com/cottand/jinfer/frontend/source"
	"github.com/cottand/jinfer/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnv() *Environment {
	return NewEnvironment(types.NewTypeSystem())
}

func TestIsSubtype(t *testing.T) {
	e := newEnv()
	listOf := func(arg *types.Type) *types.Type { return e.Parameterize(e.List, arg) }
	extendsNumber := e.TS.Wildcard(e.List, 0, e.Number, nil, types.Extends)
	superInteger := e.TS.Wildcard(e.List, 0, e.Integer, nil, types.Super)

	tests := []struct {
		name     string
		sub, sup *types.Type
		want     bool
	}{
		{"reflexive", e.String, e.String, true},
		{"class to interface", e.String, e.CharSequence, true},
		{"through superclass", e.Integer, e.Serializable, true},
		{"to Object", listOf(e.String), e.Object, true},
		{"unrelated", e.String, e.Integer, false},
		{"null", e.Null(), e.String, true},
		{"primitive widening", e.Primitive(types.Int), e.Primitive(types.Long), true},
		{"primitive narrowing", e.Primitive(types.Long), e.Primitive(types.Int), false},
		{"no boxing in subtyping", e.Primitive(types.Int), e.Integer, false},
		{"invariant arguments", listOf(e.Integer), listOf(e.Number), false},
		{"parameterized supertype", e.Parameterize(e.ArrayList, e.String), e.Parameterize(e.Collection, e.String), true},
		{"extends wildcard", listOf(e.Integer), e.Parameterize(e.List, extendsNumber), true},
		{"super wildcard", listOf(e.Number), e.Parameterize(e.List, superInteger), true},
		{"super wildcard rejects subtype", listOf(e.Integer), e.Parameterize(e.List, e.TS.Wildcard(e.List, 0, e.Number, nil, types.Super)), false},
		{"raw is not a subtype of parameterized", e.TS.RawType(e.List, nil), listOf(e.String), false},
		{"covariant arrays", e.TS.ArrayType(e.Integer, 1), e.TS.ArrayType(e.Number, 1), true},
		{"array to Cloneable", e.TS.ArrayType(e.Primitive(types.Int), 2), e.Cloneable, true},
		{"primitive arrays are invariant", e.TS.ArrayType(e.Primitive(types.Int), 1), e.TS.ArrayType(e.Primitive(types.Long), 1), false},
		{"intersection on the left", e.TS.IntersectionType18([]*types.Type{e.Number, e.CharSequence}), e.CharSequence, true},
		{"intersection on the right", e.Integer, e.TS.IntersectionType18([]*types.Type{e.Number, e.Serializable}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.IsSubtype(tt.sub, tt.sup))
		})
	}
}

func TestTypeVariableSubtyping(t *testing.T) {
	e := newEnv()
	m := e.DeclareMethod(nil, "m", "T", "S")
	tv, sv := m.TypeParameters[0], m.TypeParameters[1]
	tv.SetBounds(e.Number, nil)
	sv.SetBounds(tv, nil)

	assert.True(t, e.IsSubtype(tv, e.Number))
	assert.True(t, e.IsSubtype(sv, tv))
	assert.True(t, e.IsSubtype(sv, e.Serializable))
	assert.False(t, e.IsSubtype(tv, sv))
	assert.False(t, e.IsSubtype(e.Integer, tv))
}

func TestIsCompatible(t *testing.T) {
	e := newEnv()
	listOfString := e.Parameterize(e.List, e.String)

	assert.True(t, e.IsCompatible(e.Primitive(types.Int), e.Integer), "boxing")
	assert.True(t, e.IsCompatible(e.Primitive(types.Int), e.Number), "boxing then widening reference")
	assert.True(t, e.IsCompatible(e.Integer, e.Primitive(types.Long)), "unboxing then widening primitive")
	assert.False(t, e.IsCompatible(e.Primitive(types.Int), e.String))
	assert.True(t, e.IsCompatible(e.TS.RawType(e.ArrayList, nil), listOfString), "unchecked")
	assert.True(t, e.NeedsUncheckedConversion(e.TS.RawType(e.ArrayList, nil), listOfString))
	assert.False(t, e.NeedsUncheckedConversion(e.Parameterize(e.ArrayList, e.String), listOfString))
}

func TestAsSuperTypeAndErasure(t *testing.T) {
	e := newEnv()
	arrayListOfString := e.Parameterize(e.ArrayList, e.String)

	assert.Equal(t, "Iterable<String>", e.AsSuperType(arrayListOfString, e.Iterable.Decl()).String())
	assert.Equal(t, "Comparable<Integer>", e.AsSuperType(e.Integer, e.Comparable.Decl()).String())
	assert.Nil(t, e.AsSuperType(e.String, e.Number.Decl()))
	assert.Same(t, e.Object, e.AsSuperType(e.Runnable, e.Object.Decl()))

	assert.Same(t, e.ArrayList, e.Erasure(arrayListOfString))
	assert.Same(t, e.TS.ArrayType(e.List, 1), e.Erasure(e.TS.ArrayType(e.Parameterize(e.List, e.String), 1)))

	m := e.DeclareMethod(nil, "m", "T")
	m.TypeParameters[0].SetBounds(nil, []*types.Type{e.Parameterize(e.Comparable, m.TypeParameters[0])})
	assert.Same(t, e.Comparable, e.Erasure(m.TypeParameters[0]))
}

func TestLUB(t *testing.T) {
	e := newEnv()
	tests := []struct {
		name string
		in   []*types.Type
		want string
	}{
		{"numbers", []*types.Type{e.Integer, e.Double}, "Number & Comparable<?>"},
		{"single", []*types.Type{e.String}, "String"},
		{"one is a supertype", []*types.Type{e.Integer, e.Number}, "Number"},
		{"null is ignored", []*types.Type{e.Null(), e.String}, "String"},
		{"boxing", []*types.Type{e.Primitive(types.Int), e.Integer}, "Integer"},
		{"string and integer", []*types.Type{e.String, e.Integer}, "Serializable & Comparable<?>"},
		{"lists", []*types.Type{e.Parameterize(e.ArrayList, e.String), e.Parameterize(e.List, e.String)}, "List<String>"},
		{"list arguments", []*types.Type{e.Parameterize(e.List, e.Integer), e.Parameterize(e.List, e.Double)}, "List<? extends Number & Comparable<?>>"},
		{"arrays", []*types.Type{e.TS.ArrayType(e.Integer, 1), e.TS.ArrayType(e.Double, 1)}, "Number & Comparable<?>[]"},
		{"exceptions", []*types.Type{e.IOException, e.RuntimeException}, "Exception"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lub := e.LUB(tt.in...)
			require.NotNil(t, lub)
			assert.Equal(t, tt.want, lub.String())
			for _, in := range tt.in {
				assert.True(t, e.IsCompatible(in, lub), "%s is not compatible with %s", in, lub)
			}
		})
	}
}

func TestGLB(t *testing.T) {
	e := newEnv()

	assert.Same(t, e.Integer, e.GLB(e.Integer, e.Number))
	assert.Same(t, e.Integer, e.GLB(e.Object, e.Integer, e.Serializable))
	assert.Equal(t, "Number & CharSequence", e.GLB(e.CharSequence, e.Number).String())
	assert.Nil(t, e.GLB(e.String, e.Integer), "unrelated classes have no glb")
	assert.Same(t, e.String, e.GLB(e.TS.IntersectionType18([]*types.Type{e.Object, e.CharSequence}), e.String))
}

func TestCapture(t *testing.T) {
	e := newEnv()
	unit := &source.CompilationUnit{Name: "A.java"}
	at := source.Range{PosStart: 3, PosEnd: 9}

	extendsNumber := e.TS.Wildcard(e.List, 0, e.Number, nil, types.Extends)
	listOfWildcard := e.Parameterize(e.List, extendsNumber)
	captured := e.Capture(listOfWildcard, at, unit)
	require.True(t, captured.IsParameterized())
	c := captured.Arguments()[0]
	require.True(t, c.IsCapture())

	assert.Same(t, captured, e.Capture(listOfWildcard, at, unit))
	assert.NotSame(t, captured, e.Capture(listOfWildcard, source.Range{PosStart: 3, PosEnd: 10}, unit))
	assert.Equal(t, []*types.Type{e.Number}, e.CaptureBounds(c))
	assert.True(t, e.IsSubtype(c, e.Number))
	assert.True(t, e.IsSubtype(captured, listOfWildcard))

	superInteger := e.TS.Wildcard(e.List, 0, e.Integer, nil, types.Super)
	lower := e.Capture(e.Parameterize(e.List, superInteger), at, unit).Arguments()[0]
	assert.Same(t, e.Integer, lower.LowerBound())
	assert.True(t, e.IsSubtype(e.Integer, lower))

	plain := e.Parameterize(e.List, e.String)
	assert.Same(t, plain, e.Capture(plain, at, unit))
}

func TestFunctionType(t *testing.T) {
	e := newEnv()

	fn := e.FunctionType(e.Parameterize(e.Function, e.String, e.Integer))
	require.NotNil(t, fn)
	assert.Equal(t, "Integer apply(String)", fn.String())

	wild := e.Parameterize(e.Function,
		e.TS.Wildcard(e.Function, 0, e.String, nil, types.Super),
		e.TS.Wildcard(e.Function, 1, e.Number, nil, types.Extends))
	assert.Equal(t, "Number apply(String)", e.FunctionType(wild).String())

	callable := e.FunctionType(e.Parameterize(e.Callable, e.String))
	assert.Equal(t, []*types.Type{e.Exception}, callable.Thrown)

	assert.True(t, e.IsFunctionalInterface(e.Runnable))
	assert.False(t, e.IsFunctionalInterface(e.List))
	assert.False(t, e.IsFunctionalInterface(e.String))
	assert.Nil(t, e.FunctionType(e.String))
}
