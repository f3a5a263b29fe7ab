package ast

import (
	"testing"

	"github.com/cottand/jinfer/frontend/types"
	"github.com/stretchr/testify/assert"
)

func TestExprString(t *testing.T) {
	ts := types.NewTypeSystem()
	str := ts.DeclareType(&types.Decl{Name: "String"})
	choose := &types.Method{Name: "choose"}

	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"typed", &Typed{Type: str}, "(String) _"},
		{"named", &Typed{Text: "s", Type: str}, "s"},
		{"invocation", &Invocation{Method: choose, Args: []Expr{&Typed{Text: "a", Type: str}, &Typed{Text: "b", Type: str}}}, "choose(a, b)"},
		{"implicit lambda", &Lambda{Implicit: true, Arity: 2, Results: []Expr{&Typed{Text: "x", Type: str}}}, "(p0, p1) -> x"},
		{"void lambda", &Lambda{Params: []*types.Type{str}}, "(String) -> {}"},
		{"conditional", &Conditional{Then: &Typed{Text: "a", Type: str}, Else: &Typed{Text: "b", Type: str}}, "c ? a : b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExprString(tt.expr))
		})
	}
}

func TestWalkAndHash(t *testing.T) {
	ts := types.NewTypeSystem()
	str := ts.DeclareType(&types.Decl{Name: "String"})
	m := &types.Method{Name: "m"}

	inner := &Invocation{Range: Range{PosStart: 5, PosEnd: 8}, Method: m}
	outer := &Invocation{Range: Range{PosStart: 1, PosEnd: 10}, Method: m, Args: []Expr{
		&Lambda{Implicit: true, Arity: 1, Results: []Expr{inner}},
		&Typed{Text: "s", Type: str},
	}}

	var visited []string
	Walk(outer, func(e Expr) bool {
		visited = append(visited, e.ExprName())
		return true
	})
	assert.Equal(t, []string{"invocation", "lambda", "invocation", "typed"}, visited)
	assert.True(t, outer.Range.Contains(inner))

	same := &Invocation{Range: Range{PosStart: 5, PosEnd: 8}, Method: m}
	assert.Equal(t, inner.Hash(), same.Hash())
	assert.NotEqual(t, inner.Hash(), outer.Hash())
}
