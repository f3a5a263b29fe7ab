package infer

import (
	"slices"

	"github.com/cottand/jinfer/frontend/types"
	"github.com/cottand/jinfer/internal/log"
	"github.com/cottand/jinfer/util"
)

var resolutionLogger = log.Section("inference.resolution")

// Resolve instantiates vars, and every variable they depend on, in a copy of
// bs (JLS 18.4). Variables are resolved one dependency cluster at a time. It
// returns the resolved bound set, or nil when some cluster has no instantiation.
func (ctx *Context) Resolve(bs *BoundSet, vars []*types.Type) *BoundSet {
	if bs.IsFalse() {
		return nil
	}
	bs = bs.Copy()
	pending := ctx.dependencyClosure(bs, vars)
	for round := 0; ; round++ {
		if round >= ctx.opts.MaxResolutionRounds {
			resolutionLogger.Warn("resolution did not terminate", "rounds", round, "variables", pending)
			return nil
		}
		unresolved := slices.DeleteFunc(slices.Clone(pending), bs.IsInstantiated)
		if len(unresolved) == 0 {
			return bs
		}
		cluster := ctx.nextCluster(bs, unresolved)
		resolutionLogger.Debug("resolving", "cluster", cluster, "bounds", bs)
		next := ctx.instantiate(bs, cluster)
		if next == nil && ctx.opts.CaptureFallback {
			next = ctx.instantiateFresh(bs, cluster)
		}
		if next == nil {
			resolutionLogger.Debug("no instantiation", "cluster", cluster)
			return nil
		}
		bs = next
	}
}

// Solve resolves every inference variable of the context in its current bound set
func (ctx *Context) Solve() *BoundSet {
	solution := ctx.Resolve(ctx.current, ctx.variables)
	if solution == nil {
		return nil
	}
	for _, v := range ctx.variables {
		if !solution.IsInstantiated(v) {
			resolutionLogger.Debug("variable left uninstantiated", "var", v)
			return nil
		}
	}
	ctx.current = solution
	return solution
}

// dependencyClosure adds to vars every uninstantiated variable they depend on
func (ctx *Context) dependencyClosure(bs *BoundSet, vars []*types.Type) []*types.Type {
	closure := mergeVariables(nil, vars)
	bs.AddVariable(closure...)
	for i := 0; i < len(closure); i++ {
		for _, other := range bs.Variables() {
			if slices.Contains(closure, other) || bs.IsInstantiated(other) {
				continue
			}
			if bs.DependsOnResolutionOf(closure[i], other) {
				closure = append(closure, other)
			}
		}
	}
	return closure
}

// nextCluster is the smallest set of mutually dependent variables whose
// dependencies are all instantiated already
func (ctx *Context) nextCluster(bs *BoundSet, unresolved []*types.Type) []*types.Type {
	g := util.NewGraph(len(unresolved))
	for i, alpha := range unresolved {
		for j, beta := range unresolved {
			if i != j && bs.DependsOnResolutionOf(alpha, beta) {
				g.AddEdge(i, j)
			}
		}
	}
	var best []int
	for _, component := range g.SCC() {
		sink := true
		for _, v := range component {
			for _, succ := range g[v] {
				if !slices.Contains(component, succ) {
					sink = false
				}
			}
		}
		if sink && (best == nil || len(component) < len(best)) {
			best = component
		}
	}
	slices.Sort(best)
	cluster := make([]*types.Type, len(best))
	for i, v := range best {
		cluster[i] = unresolved[v]
	}
	return cluster
}

// instantiations maps every instantiated variable of bs to its instantiation
func (ctx *Context) instantiations(bs *BoundSet) types.VarSubstitution {
	s := types.VarSubstitution{}
	for _, v := range bs.Variables() {
		if inst := bs.Instantiation(v); inst != nil {
			s[v.ID()] = inst
		}
	}
	return s
}

func (ctx *Context) withNullHints(bs *BoundSet, v, t *types.Type) *types.Type {
	if hints := bs.NullHints(v) & types.NullMask; hints != 0 && ctx.ts.Annotatable() {
		return ctx.ts.WithNullTags(t, hints)
	}
	return t
}

func nonNull(ts []*types.Type) []*types.Type {
	return slices.DeleteFunc(ts, (*types.Type).IsNull)
}

// candidate is the instantiation JLS 18.4 proposes for v from its proper bounds
func (ctx *Context) candidate(bs *BoundSet, v *types.Type) *types.Type {
	env := ctx.env
	if lower := nonNull(bs.LowerBounds(v, true)); len(lower) > 0 {
		lub := env.LUB(lower...)
		if lub == nil {
			return nil
		}
		return ctx.withNullHints(bs, v, lub)
	}
	upper := bs.UpperBounds(v, true)
	if bs.InThrows(v) && !slices.ContainsFunc(upper, func(u *types.Type) bool {
		return !types.SameNakedType(u, env.Exception) && !types.SameNakedType(u, env.Throwable) && !types.SameNakedType(u, env.Object)
	}) {
		return env.RuntimeException
	}
	if len(upper) == 0 {
		return ctx.withNullHints(bs, v, env.Object)
	}
	glb := env.GLB(upper...)
	if glb == nil {
		return nil
	}
	return ctx.withNullHints(bs, v, glb)
}

// instantiate tries the candidate instantiations of a cluster together
func (ctx *Context) instantiate(bs *BoundSet, cluster []*types.Type) *BoundSet {
	if slices.ContainsFunc(cluster, bs.IsCaptured) {
		return nil
	}
	attempt := bs.Copy()
	for _, v := range cluster {
		t := ctx.candidate(bs, v)
		if t == nil {
			return nil
		}
		resolutionLogger.Debug("instantiating", "var", v, "as", t)
		attempt.AddBound(newTypeBound(v, t, Same, false))
	}
	if !ctx.incorporate(attempt) {
		return nil
	}
	return attempt
}

// instantiateFresh resolves a cluster to fresh capture variables whose bounds
// are the cluster's bounds with the cluster substituted by the fresh variables
func (ctx *Context) instantiateFresh(bs *BoundSet, cluster []*types.Type) *BoundSet {
	env := ctx.env
	fresh := make([]*types.Type, len(cluster))
	s := ctx.instantiations(bs)
	for i, v := range cluster {
		fresh[i] = env.FreshCapture("capture#of " + v.VariableName())
		s[v.ID()] = fresh[i]
	}

	attempt := bs.Copy()
	for i, v := range cluster {
		y := fresh[i]
		var lower *types.Type
		if proper := nonNull(bs.LowerBounds(v, true)); len(proper) > 0 {
			lower = env.LUB(proper...)
		}
		var upper []*types.Type
		for _, u := range bs.UpperBounds(v, false) {
			upper = append(upper, ctx.ts.Substitute(s, u))
		}
		if cv, ok := bs.captured[v.ID()]; ok {
			switch cv.wildcard.BoundKind() {
			case types.Extends:
				upper = append(upper, ctx.ts.Substitute(s, cv.wildcard.Bound()))
			case types.Super:
				if lower == nil {
					lower = ctx.ts.Substitute(s, cv.wildcard.Bound())
				}
			}
		}
		glb := env.Object
		if len(upper) > 0 {
			glb = env.GLB(upper...)
		}
		if glb == nil || lower != nil && !env.IsSubtype(lower, glb) {
			resolutionLogger.Debug("fresh variable has malformed bounds", "var", v, "lower", lower, "upper", upper)
			return nil
		}
		components := glb.IntersectingTypes()
		y.SetBounds(components[0], components[1:])
		if lower != nil {
			y.SetLowerBound(lower)
		}
		delete(attempt.captured, v.ID())
		resolutionLogger.Debug("instantiating with fresh variable", "var", v, "as", y, "upper", glb, "lower", lower)
		attempt.AddBound(newTypeBound(v, y, Same, false))
	}
	if !ctx.incorporate(attempt) {
		return nil
	}
	return attempt
}
