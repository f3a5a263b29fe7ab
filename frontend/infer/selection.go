package infer

import (
	"slices"

	"github.com/cottand/jinfer/frontend/ast"
	"github.com/cottand/jinfer/frontend/source"
	"github.com/cottand/jinfer/frontend/types"
	"github.com/cottand/jinfer/util"
	xset "github.com/xtgo/set"
)

// solveConstraints reduces the constraint set C one bottom set at a time,
// resolving the input variables of each set first (JLS 18.5.2.2), then
// resolves every remaining variable
func (ctx *Context) solveConstraints(bs *BoundSet, c []ConstraintFormula) *BoundSet {
	for {
		c = append(c, ctx.pending...)
		ctx.pending = nil
		if len(c) == 0 {
			break
		}
		var selected []ConstraintFormula
		selected, c = ctx.selectBottomSet(bs, c)
		logger.Debug("selected constraints", "constraints", selected, "remaining", len(c))

		var inputs []*types.Type
		for _, f := range selected {
			inputs = mergeVariables(inputs, f.InputVariables(ctx))
		}
		inputs = slices.DeleteFunc(inputs, bs.IsInstantiated)
		if len(inputs) > 0 {
			resolved := ctx.Resolve(bs, inputs)
			if resolved == nil {
				return nil
			}
			bs = resolved
		}
		s := ctx.instantiations(bs)
		for _, f := range selected {
			if !ctx.reduceAndIncorporate(bs, f.ApplySubstitution(ctx, s)) {
				return nil
			}
		}
	}
	ctx.current = bs
	return ctx.Solve()
}

// influenceComponents numbers the groups of variables that can influence
// each other: resolution dependencies in either direction, transitively
func (ctx *Context) influenceComponents(bs *BoundSet) map[types.TypeID]int {
	vars := bs.Variables()
	g := util.NewGraph(len(vars))
	for i, alpha := range vars {
		for j, beta := range vars {
			if i != j && bs.DependsOnResolutionOf(alpha, beta) {
				g.AddEdge(i, j)
				g.AddEdge(j, i)
			}
		}
	}
	components := make(map[types.TypeID]int, len(vars))
	for n, component := range g.SCC() {
		for _, v := range component {
			components[vars[v].ID()] = n
		}
	}
	return components
}

func componentSet(components map[types.TypeID]int, vars []*types.Type, bs *BoundSet) []int {
	ids := make([]int, 0, len(vars))
	for _, v := range vars {
		if bs.IsInstantiated(v) {
			continue
		}
		if n, ok := components[v.ID()]; ok {
			ids = append(ids, n)
		} else {
			ids = append(ids, -int(v.ID()))
		}
	}
	return xset.Ints(ids)
}

// selectBottomSet picks the constraints whose input variables cannot be
// influenced by the output variables of any other constraint. When every
// constraint is part of a dependency cycle a single one is picked, see tieBreak.
func (ctx *Context) selectBottomSet(bs *BoundSet, c []ConstraintFormula) (selected, rest []ConstraintFormula) {
	components := ctx.influenceComponents(bs)
	inputs := make([][]int, len(c))
	outputs := make([][]int, len(c))
	for i, f := range c {
		inputs[i] = componentSet(components, f.InputVariables(ctx), bs)
		outputs[i] = componentSet(components, f.OutputVariables(ctx), bs)
	}
	g := util.NewGraph(len(c))
	for i := range c {
		for j := range c {
			if i != j && len(inputs[i]) > 0 && xset.IntsChk(xset.IsInter, slices.Clip(inputs[i]), outputs[j]...) {
				g.AddEdge(i, j)
			}
		}
	}
	for i, f := range c {
		if len(g[i]) == 0 {
			selected = append(selected, f)
		} else {
			rest = append(rest, f)
		}
	}
	if len(selected) > 0 {
		return selected, rest
	}

	var candidates []int
	for _, component := range g.SCC() {
		closed := !slices.ContainsFunc(component, func(v int) bool {
			return slices.ContainsFunc(g[v], func(succ int) bool { return !slices.Contains(component, succ) })
		})
		if closed && g.IsCyclic(component) {
			candidates = append(candidates, component...)
		}
	}
	slices.Sort(candidates)
	pick := ctx.tieBreak(c, candidates)
	logger.Debug("dependency cycle between constraints", "candidates", len(candidates), "picked", c[pick])
	return []ConstraintFormula{c[pick]}, slices.Delete(slices.Clone(c), pick, pick+1)
}

func expressionOf(f ConstraintFormula) ast.Expr {
	switch f := f.(type) {
	case *ExpressionConstraint:
		return f.Expr
	case *ExceptionConstraint:
		return f.Expr
	}
	return nil
}

// tieBreak picks one constraint of a dependency cycle: among the ‹Expression → T›
// constraints (all candidates when there are none), the one whose expression
// contains the expressions of all the others, else the leftmost one
func (ctx *Context) tieBreak(c []ConstraintFormula, candidates []int) int {
	var pool []int
	for _, i := range candidates {
		if _, ok := c[i].(*ExpressionConstraint); ok {
			pool = append(pool, i)
		}
	}
	if len(pool) == 0 {
		pool = candidates
	}
	for _, i := range pool {
		ei := expressionOf(c[i])
		if ei == nil {
			continue
		}
		containsAll := !slices.ContainsFunc(pool, func(j int) bool {
			ej := expressionOf(c[j])
			return j != i && ej != nil && !source.RangeOf(ei).Contains(ej)
		})
		if containsAll {
			return i
		}
	}
	best := pool[0]
	for _, i := range pool[1:] {
		e, b := expressionOf(c[i]), expressionOf(c[best])
		if e != nil && (b == nil || e.Pos() < b.Pos()) {
			best = i
		}
	}
	return best
}
