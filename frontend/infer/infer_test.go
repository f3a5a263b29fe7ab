package infer

import (
	"go/token"
	"testing"

	"github.com/cottand/jinfer/frontend/ast"
	"github.com/cottand/jinfer/frontend/ilerr"
	"github.com/cottand/jinfer/frontend/lookup"
	"github.com/cottand/jinfer/frontend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	*lookup.Environment
	pos int
}

func newFixture() *fixture {
	return &fixture{Environment: lookup.NewEnvironment(types.NewTypeSystem())}
}

func (f *fixture) void() *types.Type { return f.Primitive(types.Void) }

func (f *fixture) listOf(t *types.Type) *types.Type { return f.Parameterize(f.List, t) }

// next hands out non-overlapping source ranges
func (f *fixture) next(width int) ast.Range {
	f.pos += width + 1
	return ast.Range{PosStart: token.Pos(f.pos), PosEnd: token.Pos(f.pos + width)}
}

func (f *fixture) arg(text string, t *types.Type) *ast.Typed {
	return &ast.Typed{Range: f.next(len(text)), Text: text, Type: t}
}

func (f *fixture) call(m *types.Method, args ...ast.Expr) *ast.Invocation {
	return &ast.Invocation{Range: f.next(1), Method: m, Args: args}
}

// method declares `<typeParams> m(...)`; build fills in the signature
func (f *fixture) method(name string, typeParams []string, build func(m *types.Method, tp []*types.Type)) *types.Method {
	m := f.DeclareMethod(nil, name, typeParams...)
	build(m, m.TypeParameters)
	if m.Return == nil {
		m.Return = f.void()
	}
	return m
}

// identity declares `<T> T id(T)`
func (f *fixture) identity() *types.Method {
	return f.method("id", []string{"T"}, func(m *types.Method, tp []*types.Type) {
		m.Parameters = []*types.Type{tp[0]}
		m.Return = tp[0]
	})
}

// emptyList declares `<T> List<T> emptyList()`
func (f *fixture) emptyList() *types.Method {
	return f.method("emptyList", []string{"T"}, func(m *types.Method, tp []*types.Type) {
		m.Return = f.listOf(tp[0])
	})
}

func TestInferInvocationScenarios(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(f *fixture) *ast.Invocation
		typeArgs string
		returns  string
	}{
		{
			name: "identity on lists",
			setup: func(f *fixture) *ast.Invocation {
				id := f.method("id", []string{"T"}, func(m *types.Method, tp []*types.Type) {
					m.Parameters = []*types.Type{f.listOf(tp[0])}
					m.Return = f.listOf(tp[0])
				})
				return f.call(id, f.arg("strings", f.listOf(f.String)))
			},
			typeArgs: "String",
			returns:  "List<String>",
		},
		{
			name: "lub of two lower bounds",
			setup: func(f *fixture) *ast.Invocation {
				choose := f.method("choose", []string{"T"}, func(m *types.Method, tp []*types.Type) {
					m.Parameters = []*types.Type{tp[0], tp[0]}
					m.Return = tp[0]
				})
				return f.call(choose, f.arg("i", f.Integer), f.arg("d", f.Double))
			},
			typeArgs: "Number & Comparable<?>",
			returns:  "Number & Comparable<?>",
		},
		{
			name: "single lower bound through wildcard",
			setup: func(f *fixture) *ast.Invocation {
				accept := f.method("acceptList", []string{"T"}, func(m *types.Method, tp []*types.Type) {
					m.Parameters = []*types.Type{f.listOf(f.TS.Wildcard(f.List, 0, tp[0], nil, types.Extends))}
				})
				return f.call(accept, f.arg("strings", f.listOf(f.String)))
			},
			typeArgs: "String",
			returns:  "void",
		},
		{
			name: "thrown type parameter",
			setup: func(f *fixture) *ast.Invocation {
				run := f.method("run", []string{"E"}, func(m *types.Method, tp []*types.Type) {
					tp[0].SetBounds(f.Exception, nil)
					m.Thrown = []*types.Type{tp[0]}
				})
				return f.call(run)
			},
			typeArgs: "RuntimeException",
			returns:  "void",
		},
		{
			name: "boxing a primitive argument",
			setup: func(f *fixture) *ast.Invocation {
				box := f.method("box", []string{"T"}, func(m *types.Method, tp []*types.Type) {
					m.Parameters = []*types.Type{tp[0]}
					m.Return = f.listOf(tp[0])
				})
				return f.call(box, f.arg("1", f.Primitive(types.Int)))
			},
			typeArgs: "Integer",
			returns:  "List<Integer>",
		},
		{
			name: "variable arity",
			setup: func(f *fixture) *ast.Invocation {
				asList := f.method("asList", []string{"T"}, func(m *types.Method, tp []*types.Type) {
					m.Parameters = []*types.Type{f.TS.ArrayType(tp[0], 1)}
					m.Return = f.listOf(tp[0])
					m.Varargs = true
				})
				return f.call(asList, f.arg("a", f.String), f.arg("b", f.String), f.arg("c", f.String))
			},
			typeArgs: "String",
			returns:  "List<String>",
		},
		{
			name: "explicit type arguments",
			setup: func(f *fixture) *ast.Invocation {
				id := f.method("id", []string{"T"}, func(m *types.Method, tp []*types.Type) {
					m.Parameters = []*types.Type{tp[0]}
					m.Return = tp[0]
				})
				inv := f.call(id, f.arg("i", f.Integer))
				inv.TypeArguments = []*types.Type{f.Number}
				return inv
			},
			typeArgs: "Number",
			returns:  "Number",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			inv := tt.setup(f)
			binding, err := InferInvocation(f.Environment, inv, nil, DefaultOptions())
			require.NoError(t, err)
			require.NotNil(t, binding)
			assert.Equal(t, tt.typeArgs, types.JoinTypes(binding.TypeArguments, ", "))
			assert.Equal(t, tt.returns, binding.Return.String())
			assert.Same(t, binding, inv.Binding)
			assert.False(t, binding.Unchecked)
		})
	}
}

func TestInferInvocationFailures(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(f *fixture) (*ast.Invocation, *types.Type)
		reason ilerr.ErrCode
	}{
		{
			name: "bounded parameter rejects argument",
			setup: func(f *fixture) (*ast.Invocation, *types.Type) {
				m := f.method("m", []string{"T"}, func(m *types.Method, tp []*types.Type) {
					tp[0].SetBounds(f.String, nil)
					m.Parameters = []*types.Type{tp[0]}
				})
				return f.call(m, f.arg("i", f.Integer)), nil
			},
			reason: ilerr.NotApplicable,
		},
		{
			name: "arity mismatch",
			setup: func(f *fixture) (*ast.Invocation, *types.Type) {
				m := f.method("m", []string{"T"}, func(m *types.Method, tp []*types.Type) {
					m.Parameters = []*types.Type{tp[0]}
				})
				return f.call(m), nil
			},
			reason: ilerr.NotApplicable,
		},
		{
			name: "wrong number of explicit type arguments",
			setup: func(f *fixture) (*ast.Invocation, *types.Type) {
				m := f.method("m", []string{"T"}, func(m *types.Method, tp []*types.Type) {
					m.Parameters = []*types.Type{tp[0]}
				})
				inv := f.call(m, f.arg("s", f.String))
				inv.TypeArguments = []*types.Type{f.String, f.String}
				return inv, nil
			},
			reason: ilerr.NotApplicable,
		},
		{
			name: "return incompatible with target",
			setup: func(f *fixture) (*ast.Invocation, *types.Type) {
				id := f.method("id", []string{"T"}, func(m *types.Method, tp []*types.Type) {
					m.Parameters = []*types.Type{tp[0]}
					m.Return = tp[0]
				})
				return f.call(id, f.arg("s", f.String)), f.Integer
			},
			reason: ilerr.CannotInferTypeArguments,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			inv, target := tt.setup(f)
			binding, err := InferInvocation(f.Environment, inv, target, DefaultOptions())
			assert.Nil(t, binding)
			assert.Nil(t, inv.Binding)
			var problem *ProblemMethod
			require.ErrorAs(t, err, &problem)
			assert.Equal(t, tt.reason, problem.Reason)
			assert.Same(t, inv.Method, problem.Method)
			assert.Contains(t, err.Error(), "(E00")
		})
	}
}

func TestInferAgainstTarget(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(f *fixture) (*ast.Invocation, *types.Type)
		typeArgs string
		returns  string
	}{
		{
			name: "target fixes the type argument",
			setup: func(f *fixture) (*ast.Invocation, *types.Type) {
				return f.call(f.emptyList()), f.listOf(f.String)
			},
			typeArgs: "String",
			returns:  "List<String>",
		},
		{
			name: "no target",
			setup: func(f *fixture) (*ast.Invocation, *types.Type) {
				return f.call(f.emptyList()), nil
			},
			typeArgs: "Object",
			returns:  "List<Object>",
		},
		{
			name: "wildcard parameterized return is captured",
			setup: func(f *fixture) (*ast.Invocation, *types.Type) {
				wrap := f.method("wrap", []string{"T"}, func(m *types.Method, tp []*types.Type) {
					m.Parameters = []*types.Type{tp[0]}
					m.Return = f.listOf(f.TS.Wildcard(f.List, 0, tp[0], nil, types.Extends))
				})
				return f.call(wrap, f.arg("i", f.Integer)), f.listOf(f.TS.Wildcard(f.List, 0, f.Number, nil, types.Extends))
			},
			typeArgs: "Integer",
			returns:  "List<? extends Integer>",
		},
		{
			name: "primitive target resolves the return variable first",
			setup: func(f *fixture) (*ast.Invocation, *types.Type) {
				return f.call(f.identity(), f.arg("i", f.Integer)), f.Primitive(types.Int)
			},
			typeArgs: "Integer",
			returns:  "Integer",
		},
		{
			name: "wildcard parameterized lower bound resolves the return variable first",
			setup: func(f *fixture) (*ast.Invocation, *types.Type) {
				numbers := f.listOf(f.TS.Wildcard(f.List, 0, f.Number, nil, types.Extends))
				return f.call(f.identity(), f.arg("numbers", numbers)), f.Object
			},
			typeArgs: "List<? extends Number>",
			returns:  "List<? extends Number>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			inv, target := tt.setup(f)
			binding, err := InferInvocation(f.Environment, inv, target, DefaultOptions())
			require.NoError(t, err)
			assert.Equal(t, tt.typeArgs, types.JoinTypes(binding.TypeArguments, ", "))
			assert.Equal(t, tt.returns, binding.Return.String())
			for _, arg := range binding.TypeArguments {
				assert.False(t, arg.IsCapture(), "%s is a capture", arg)
			}
		})
	}
}

func TestNeedsEagerResolution(t *testing.T) {
	tests := []struct {
		name   string
		lower  func(f *fixture) *types.Type
		target func(f *fixture) *types.Type
		want   bool
	}{
		{
			name:   "boxed lower bound against a primitive target",
			lower:  func(f *fixture) *types.Type { return f.Integer },
			target: func(f *fixture) *types.Type { return f.Primitive(types.Int) },
			want:   true,
		},
		{
			name:   "plain lower bound against a reference target",
			lower:  func(f *fixture) *types.Type { return f.Integer },
			target: func(f *fixture) *types.Type { return f.Number },
		},
		{
			name:   "wildcard parameterized lower bound",
			lower:  func(f *fixture) *types.Type { return f.listOf(f.TS.Wildcard(f.List, 0, f.Number, nil, types.Extends)) },
			target: func(f *fixture) *types.Type { return f.Object },
			want:   true,
		},
		{
			name:   "wildcard parameterized target",
			lower:  func(f *fixture) *types.Type { return f.listOf(f.TS.Wildcard(f.List, 0, f.Number, nil, types.Extends)) },
			target: func(f *fixture) *types.Type { return f.listOf(f.TS.Wildcard(f.List, 0, f.Number, nil, types.Extends)) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			ctx, bs, alpha, _ := contextFor(f)
			bs.AddBound(newTypeBound(tt.lower(f), alpha, Subtype, false))
			assert.Equal(t, tt.want, ctx.needsEagerResolution(bs, alpha, tt.target(f)))
		})
	}
}

func TestNestedInvocation(t *testing.T) {
	f := newFixture()
	singleton := f.method("singletonList", []string{"T"}, func(m *types.Method, tp []*types.Type) {
		m.Parameters = []*types.Type{tp[0]}
		m.Return = f.listOf(tp[0])
	})
	first := f.method("first", []string{"T"}, func(m *types.Method, tp []*types.Type) {
		m.Parameters = []*types.Type{f.listOf(tp[0])}
		m.Return = tp[0]
	})

	inner := f.call(singleton, f.arg("s", f.String))
	outer := f.call(first, inner)
	binding, err := InferInvocation(f.Environment, outer, nil, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "String", binding.Return.String())

	require.NotNil(t, inner.Binding, "nested invocation is bound once the outer one resolves")
	assert.Equal(t, "List<String>", inner.Binding.Return.String())
	assert.Equal(t, []*types.Type{f.String}, inner.Binding.Parameters)
}

func TestImplicitLambdaArgument(t *testing.T) {
	f := newFixture()
	apply := f.method("apply", []string{"T", "R"}, func(m *types.Method, tp []*types.Type) {
		m.Parameters = []*types.Type{f.Parameterize(f.Function, tp[0], tp[1]), tp[0]}
		m.Return = tp[1]
	})
	lambda := &ast.Lambda{
		Range:           f.next(10),
		Implicit:        true,
		Arity:           1,
		Results:         []ast.Expr{f.arg("x.length()", f.Integer)},
		ValueCompatible: true,
	}
	inv := f.call(apply, lambda, f.arg("s", f.String))

	binding, err := InferInvocation(f.Environment, inv, nil, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "String, Integer", types.JoinTypes(binding.TypeArguments, ", "))
	assert.Equal(t, "Integer", binding.Return.String())
}

func TestLambdaThrowingIntoTypeParameter(t *testing.T) {
	f := newFixture()
	thrower := f.DeclareInterface("ThrowingRunnable", "X")
	x := thrower.TypeParameters[0]
	x.SetBounds(f.Exception, nil)
	run := f.DeclareMethod(thrower, "run")
	run.Abstract = true
	run.Return = f.void()
	run.Thrown = []*types.Type{x}

	call := f.method("call", []string{"E"}, func(m *types.Method, tp []*types.Type) {
		tp[0].SetBounds(f.Exception, nil)
		m.Parameters = []*types.Type{f.Parameterize(thrower.Type(), tp[0])}
		m.Thrown = []*types.Type{tp[0]}
	})

	tests := []struct {
		name   string
		thrown []*types.Type
		want   string
	}{
		{"checked exception", []*types.Type{f.IOException}, "IOException"},
		{"nothing checked", nil, "RuntimeException"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lambda := &ast.Lambda{Range: f.next(5), VoidCompatible: true, Thrown: tt.thrown}
			binding, err := InferInvocation(f.Environment, f.call(call, lambda), nil, DefaultOptions())
			require.NoError(t, err)
			assert.Equal(t, tt.want, binding.TypeArguments[0].String())
		})
	}
}

func TestMutuallyDependentVariablesTerminate(t *testing.T) {
	f := newFixture()
	m := f.method("m", []string{"A", "B"}, func(m *types.Method, tp []*types.Type) {
		tp[0].SetBounds(nil, []*types.Type{f.listOf(tp[1])})
		tp[1].SetBounds(tp[0], nil)
	})

	t.Run("with capture fallback", func(t *testing.T) {
		assert.NotPanics(t, func() {
			binding, err := InferInvocation(f.Environment, f.call(m), nil, DefaultOptions())
			assert.True(t, (binding == nil) != (err == nil), "exactly one of binding and error")
		})
	})
	t.Run("without capture fallback", func(t *testing.T) {
		opts := DefaultOptions()
		opts.CaptureFallback = false
		_, err := InferInvocation(f.Environment, f.call(m), nil, opts)
		var problem *ProblemMethod
		assert.ErrorAs(t, err, &problem)
	})
}
