package infer

import (
	"testing"

	"github.com/cottand/jinfer/frontend/ast"
	"github.com/cottand/jinfer/frontend/lookup"
	"github.com/cottand/jinfer/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// contextFor prepares a context for `<T, S> void m()`
func contextFor(f *fixture) (*Context, *BoundSet, *types.Type, *types.Type) {
	m := f.method("m", []string{"T", "S"}, func(*types.Method, []*types.Type) {})
	ctx := NewContext(f.Environment, f.call(m), DefaultOptions())
	bs := ctx.createInitialBoundSet()
	ctx.current = bs
	return ctx, bs, ctx.theta.Substitute(m.TypeParameters[0]), ctx.theta.Substitute(m.TypeParameters[1])
}

func TestConstantBoundSetsAreFrozen(t *testing.T) {
	f := newFixture()
	_, _, alpha, _ := contextFor(f)

	for _, constant := range []*BoundSet{TrueBoundSet, FalseBoundSet} {
		t.Run(constant.String(), func(t *testing.T) {
			assert.Panics(t, func() { constant.AddVariable(alpha) })
			assert.Panics(t, func() { constant.AddBound(newTypeBound(alpha, f.String, Subtype, false)) })
			assert.Panics(t, func() { constant.MarkThrows(alpha) })
			c := constant.Copy()
			assert.NotPanics(t, func() { c.AddVariable(alpha) })
		})
	}
}

func TestAddBound(t *testing.T) {
	f := newFixture()
	_, bs, alpha, beta := contextFor(f)

	assert.True(t, bs.AddBound(newTypeBound(alpha, f.String, Subtype, false)))
	assert.False(t, bs.AddBound(newTypeBound(alpha, f.String, Subtype, true)), "duplicates are dropped regardless of softness")
	assert.False(t, bs.AddBound(newTypeBound(alpha, f.Object, Subtype, false)), "α <: Object is implied")
	assert.False(t, bs.AddBound(newTypeBound(alpha, alpha, Same, false)))

	assert.True(t, bs.AddBound(newTypeBound(f.Integer, beta, Subtype, false)))
	assert.Equal(t, []*types.Type{f.Integer}, bs.LowerBounds(beta, true))

	assert.True(t, bs.AddBound(newTypeBound(alpha, beta, Subtype, false)))
	assert.Contains(t, bs.LowerBounds(beta, false), alpha, "bounds between variables are recorded on both sides")
	assert.Equal(t, []*types.Type{f.String}, bs.UpperBounds(alpha, true))

	assert.False(t, bs.IsInstantiated(alpha))
	bs.AddBound(newTypeBound(alpha, f.String, Same, false))
	assert.Same(t, f.String, bs.Instantiation(alpha))

	assert.False(t, bs.AddBounds(newTypeBound(alpha, f.String, Subtype, false), newTypeBound(f.Integer, beta, Subtype, false)))
	assert.True(t, bs.AddBounds(newTypeBound(alpha, f.String, Subtype, false), newTypeBound(beta, f.Number, Subtype, false)))
}

func TestBoundsCarryNullHints(t *testing.T) {
	f := &fixture{Environment: lookup.NewEnvironment(types.NewAnnotatableTypeSystem())}
	_, bs, alpha, beta := contextFor(f)
	nonNullString := f.TS.WithNullTags(f.String, types.AnnotatedNonNull)
	require.True(t, nonNullString.IsAnnotatedNonNull())

	bs.AddBound(newTypeBound(alpha, f.Number, Subtype, false))
	bs.AddBound(newTypeBound(f.Integer, alpha, Subtype, false))
	bs.AddBound(newTypeBound(alpha, nonNullString, Subtype, false))
	bs.AddBound(newTypeBound(f.Integer, beta, Subtype, false))

	bounds := append(bs.UpperBounds(alpha, true), bs.LowerBounds(alpha, true)...)
	require.Len(t, bounds, 3)
	for _, b := range bounds {
		assert.True(t, b.IsAnnotatedNonNull(), "%s has the hint of α", b)
	}
	assert.Same(t, f.Integer, bs.LowerBounds(beta, true)[0], "β has no hints")
	assert.Same(t, f.Integer, bs.Copy().LowerBounds(beta, true)[0])
}

func TestCopyIsIndependent(t *testing.T) {
	f := newFixture()
	_, bs, alpha, beta := contextFor(f)
	bs.AddBound(newTypeBound(alpha, f.Number, Subtype, false))

	c := bs.Copy()
	c.AddBound(newTypeBound(beta, f.String, Same, false))
	c.MarkThrows(alpha)

	assert.False(t, bs.IsInstantiated(beta))
	assert.False(t, bs.InThrows(alpha))
	assert.True(t, c.InThrows(alpha))
	assert.Equal(t, bs.UpperBounds(alpha, true), c.UpperBounds(alpha, true))
}

func TestIncorporation(t *testing.T) {
	tests := []struct {
		name  string
		bound func(f *fixture, alpha, beta *types.Type) []ConstraintFormula
		ok    bool
		check func(t *testing.T, f *fixture, bs *BoundSet, alpha, beta *types.Type)
	}{
		{
			name: "lower and upper bound are checked",
			bound: func(f *fixture, alpha, _ *types.Type) []ConstraintFormula {
				return []ConstraintFormula{
					newTypeConstraint(alpha, f.Number, Subtype),
					newTypeConstraint(f.Integer, alpha, Subtype),
				}
			},
			ok: true,
		},
		{
			name: "disjoint final classes",
			bound: func(f *fixture, alpha, _ *types.Type) []ConstraintFormula {
				return []ConstraintFormula{
					newTypeConstraint(alpha, f.String, Subtype),
					newTypeConstraint(f.Integer, alpha, Subtype),
				}
			},
			ok: false,
		},
		{
			name: "two instantiations",
			bound: func(f *fixture, alpha, _ *types.Type) []ConstraintFormula {
				return []ConstraintFormula{
					newTypeConstraint(alpha, f.String, Same),
					newTypeConstraint(alpha, f.Integer, Same),
				}
			},
			ok: false,
		},
		{
			name: "instantiation propagates",
			bound: func(f *fixture, alpha, beta *types.Type) []ConstraintFormula {
				return []ConstraintFormula{
					newTypeConstraint(beta, f.listOf(alpha), Same),
					newTypeConstraint(alpha, f.String, Same),
				}
			},
			ok: true,
			check: func(t *testing.T, f *fixture, bs *BoundSet, alpha, beta *types.Type) {
				assert.Same(t, f.listOf(f.String), bs.Instantiation(beta))
			},
		},
		{
			name: "common parameterizations are equated",
			bound: func(f *fixture, alpha, beta *types.Type) []ConstraintFormula {
				return []ConstraintFormula{
					newTypeConstraint(alpha, f.Parameterize(f.Iterable, beta), Subtype),
					newTypeConstraint(alpha, f.Parameterize(f.Collection, f.String), Subtype),
				}
			},
			ok: true,
			check: func(t *testing.T, f *fixture, bs *BoundSet, alpha, beta *types.Type) {
				assert.Same(t, f.String, bs.Instantiation(beta))
			},
		},
		{
			name: "transitive through a variable",
			bound: func(f *fixture, alpha, beta *types.Type) []ConstraintFormula {
				return []ConstraintFormula{
					newTypeConstraint(f.Integer, alpha, Subtype),
					newTypeConstraint(alpha, beta, Subtype),
					newTypeConstraint(beta, f.String, Subtype),
				}
			},
			ok: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			ctx, bs, alpha, beta := contextFor(f)
			ok := ctx.reduceAndIncorporate(bs, tt.bound(f, alpha, beta)...)
			require.Equal(t, tt.ok, ok, "bounds: %s", bs)
			if !ok {
				return
			}
			if tt.check != nil {
				tt.check(t, f, bs, alpha, beta)
			}

			size := len(bs.Bounds())
			assert.True(t, ctx.incorporate(bs), "incorporating again succeeds")
			assert.Len(t, bs.Bounds(), size, "incorporating again adds nothing")
		})
	}
}

func TestCaptureBoundIsConsumed(t *testing.T) {
	f := newFixture()
	ctx, bs, alpha, _ := contextFor(f)
	wildcard := f.TS.Wildcard(f.List, 0, f.Number, nil, types.Extends)
	bs.AddCapture(f.listOf(alpha), f.listOf(wildcard))

	require.True(t, ctx.incorporate(bs))
	assert.Empty(t, bs.PendingCaptures())
	assert.True(t, bs.IsCaptured(alpha))

	assert.False(t, ctx.reduceAndIncorporate(bs, newTypeConstraint(alpha, f.Integer, Same)), "a captured wildcard is never equal to a proper type")
}

func TestCaptureDependencyIsOneWay(t *testing.T) {
	f := newFixture()
	ctx, bs, alpha, beta := contextFor(f)
	// List<β> = capture(List<? extends α>)
	bs.AddCapture(f.listOf(beta), f.listOf(f.TS.Wildcard(f.List, 0, alpha, nil, types.Extends)))

	assert.True(t, bs.DependsOnResolutionOf(beta, alpha), "pending capture")
	assert.False(t, bs.DependsOnResolutionOf(alpha, beta), "pending capture")

	require.True(t, ctx.incorporate(bs))
	require.Empty(t, bs.PendingCaptures())
	assert.True(t, bs.DependsOnResolutionOf(beta, alpha))
	assert.False(t, bs.DependsOnResolutionOf(alpha, beta))

	bs.AddBound(newTypeBound(beta, f.Parameterize(f.Comparable, alpha), Subtype, false))
	assert.True(t, bs.DependsOnResolutionOf(alpha, beta), "a bound of a captured variable mentioning α makes α depend on it")
}

func TestResolution(t *testing.T) {
	f := newFixture()
	ctx, bs, alpha, beta := contextFor(f)
	require.True(t, ctx.reduceAndIncorporate(bs,
		newTypeConstraint(f.Integer, alpha, Subtype),
		newTypeConstraint(f.listOf(alpha), beta, Subtype),
	))

	resolved := ctx.Resolve(bs, []*types.Type{beta})
	require.NotNil(t, resolved)
	assert.Same(t, f.Integer, resolved.Instantiation(alpha), "β depends on α")
	assert.Same(t, f.listOf(f.Integer), resolved.Instantiation(beta))
	assert.False(t, bs.IsInstantiated(alpha), "resolution works on a copy")

	solution := ctx.Solve()
	require.NotNil(t, solution)
	for _, v := range ctx.Variables() {
		inst := solution.Instantiation(v)
		require.NotNil(t, inst, "%s is instantiated", v)
		assert.True(t, inst.IsProper())
	}
}

func TestInferenceVariablesAreStable(t *testing.T) {
	f := newFixture()
	m := f.method("m", []string{"T"}, func(*types.Method, []*types.Type) {})
	ctx := NewContext(f.Environment, f.call(m), DefaultOptions())
	tv := m.TypeParameters[0]

	a := ctx.inferenceVariable(tv, 0)
	assert.Same(t, a, ctx.inferenceVariable(tv, 0))
	ctx.site = &ast.Typed{Range: f.next(1), Type: f.String}
	assert.NotSame(t, a, ctx.inferenceVariable(tv, 0), "each site gets its own variables")
}
