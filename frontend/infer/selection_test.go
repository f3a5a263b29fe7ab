package infer

import (
	"go/token"
	"testing"

	"github.com/cottand/jinfer/frontend/ast"
	"github.com/cottand/jinfer/frontend/types"
	"github.com/stretchr/testify/assert"
)

func TestTieBreak(t *testing.T) {
	f := newFixture()
	at := func(start, end int) *ast.Typed {
		return &ast.Typed{Range: ast.Range{PosStart: token.Pos(start), PosEnd: token.Pos(end)}, Type: f.String}
	}
	expr := func(e ast.Expr) ConstraintFormula { return newExpressionConstraint(e, f.Object) }
	ctx := &Context{env: f.Environment, ts: f.TS}

	tests := []struct {
		name       string
		formulas   []ConstraintFormula
		candidates []int
		want       int
	}{
		{
			name:       "enclosing expression wins",
			formulas:   []ConstraintFormula{expr(at(5, 8)), expr(at(1, 20)), expr(at(10, 12))},
			candidates: []int{0, 1, 2},
			want:       1,
		},
		{
			name:       "leftmost without an enclosing expression",
			formulas:   []ConstraintFormula{expr(at(10, 12)), expr(at(1, 4)), expr(at(5, 8))},
			candidates: []int{0, 1, 2},
			want:       1,
		},
		{
			name: "expression constraints are preferred",
			formulas: []ConstraintFormula{
				newExceptionConstraint(at(1, 20), f.Object),
				expr(at(5, 8)),
			},
			candidates: []int{0, 1},
			want:       1,
		},
		{
			name:       "only candidates are considered",
			formulas:   []ConstraintFormula{expr(at(1, 20)), expr(at(5, 8)), expr(at(10, 12))},
			candidates: []int{1, 2},
			want:       1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ctx.tieBreak(tt.formulas, tt.candidates))
		})
	}
}

func TestSelectBottomSet(t *testing.T) {
	f := newFixture()
	ctx, bs, alpha, beta := contextFor(f)
	fn := f.Parameterize(f.Function, alpha, beta)
	lambda := &ast.Lambda{Range: f.next(4), Implicit: true, Arity: 1, Results: []ast.Expr{f.arg("x", f.Integer)}, ValueCompatible: true}

	needsAlpha := newExpressionConstraint(lambda, fn)
	producesAlpha := newExpressionConstraint(f.arg("s", f.String), alpha)

	selected, rest := ctx.selectBottomSet(bs, []ConstraintFormula{needsAlpha, producesAlpha})
	assert.Equal(t, []ConstraintFormula{producesAlpha}, selected)
	assert.Equal(t, []ConstraintFormula{needsAlpha}, rest)
	assert.Equal(t, []*types.Type{alpha}, needsAlpha.InputVariables(ctx))
	assert.Equal(t, []*types.Type{beta}, needsAlpha.OutputVariables(ctx))
}
