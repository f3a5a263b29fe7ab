package lookup

import (
	"slices"
	"strconv"
	"strings"

	"github.com/cottand/jinfer/frontend/types"
)

// LUB computes the least upper bound of reference types (JLS 4.10.4).
// Primitive types are boxed and the null type is ignored.
// When computing the lub of the same types recurs while computing a type
// argument, the argument becomes an unbounded wildcard, so
// lub(Integer, Double) is Number & Comparable<?>.
func (e *Environment) LUB(in ...*types.Type) *types.Type {
	result := e.lub(in, nil)
	logger.Debug("lub", "types", types.JoinTypes(in, ", "), "result", result)
	return result
}

func lubKey(candidates []*types.Type) string {
	ids := make([]int, len(candidates))
	for i, c := range candidates {
		ids[i] = int(c.ID())
	}
	slices.Sort(ids)
	sb := strings.Builder{}
	for _, id := range ids {
		sb.WriteString(strconv.Itoa(id))
		sb.WriteByte(',')
	}
	return sb.String()
}

// lub returns nil when the lub of candidates is already being computed further up
func (e *Environment) lub(in []*types.Type, inProgress []string) *types.Type {
	candidates := e.lubCandidates(in)
	switch len(candidates) {
	case 0:
		if len(in) > 0 {
			return e.Null()
		}
		return nil
	case 1:
		return candidates[0]
	}
	for _, c := range candidates {
		if e.allSubtypesOf(candidates, c) {
			return c
		}
	}
	key := lubKey(candidates)
	if slices.Contains(inProgress, key) {
		return nil
	}
	inProgress = append(slices.Clip(inProgress), key)

	if lub := e.arrayLUB(candidates, inProgress); lub != nil {
		return lub
	}
	var result []*types.Type
	for _, d := range e.minimalErasedCandidates(candidates) {
		if !d.IsGeneric() {
			result = append(result, d.Type())
			continue
		}
		relevant := make([]*types.Type, len(candidates))
		for i, c := range candidates {
			relevant[i] = e.AsSuperType(c, d)
		}
		result = append(result, e.lci(d, relevant, inProgress))
	}
	return e.intersect(result)
}

func (e *Environment) lubCandidates(in []*types.Type) []*types.Type {
	var candidates []*types.Type
	for _, t := range in {
		if t == nil || t.IsNull() {
			continue
		}
		t = e.Box(t)
		if !slices.ContainsFunc(candidates, func(c *types.Type) bool { return types.SameNakedType(c, t) }) {
			candidates = append(candidates, t)
		}
	}
	return candidates
}

func (e *Environment) allSubtypesOf(candidates []*types.Type, super *types.Type) bool {
	for _, c := range candidates {
		if !e.IsSubtype(c, super) {
			return false
		}
	}
	return true
}

// arrayLUB handles arrays whose element types are all references
func (e *Environment) arrayLUB(candidates []*types.Type, inProgress []string) *types.Type {
	elements := make([]*types.Type, len(candidates))
	for i, c := range candidates {
		if !c.IsArray() {
			return nil
		}
		elements[i] = e.ElementType(c)
		if elements[i].IsBaseType() {
			return nil
		}
	}
	element := e.lub(elements, inProgress)
	if element == nil {
		element = e.Object
	}
	return e.TS.ArrayType(element, 1)
}

// ErasedSupertypes lists the declarations of every supertype of t, breadth first
func (e *Environment) ErasedSupertypes(t *types.Type) []*types.Decl {
	var decls []*types.Decl
	queue := []*types.Type{t}
	seen := map[types.TypeID]bool{}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if seen[next.ID()] {
			continue
		}
		seen[next.ID()] = true
		if d := next.Decl(); d != nil && !slices.Contains(decls, d) {
			decls = append(decls, d)
		}
		queue = append(queue, e.DirectSupertypes(next)...)
	}
	if !slices.Contains(decls, e.Object.Decl()) {
		decls = append(decls, e.Object.Decl())
	}
	return decls
}

// minimalErasedCandidates is MEC of JLS 4.10.4, in the supertype order of the first candidate
func (e *Environment) minimalErasedCandidates(candidates []*types.Type) []*types.Decl {
	ec := e.ErasedSupertypes(candidates[0])
	for _, c := range candidates[1:] {
		est := e.ErasedSupertypes(c)
		ec = slices.DeleteFunc(ec, func(d *types.Decl) bool { return !slices.Contains(est, d) })
	}
	var mec []*types.Decl
	for _, d := range ec {
		redundant := slices.ContainsFunc(ec, func(other *types.Decl) bool {
			return other != d && e.IsSubtype(other.Type(), d.Type())
		})
		if !redundant {
			mec = append(mec, d)
		}
	}
	return mec
}

// lci is the least containing invocation of the parameterizations of d in relevant
func (e *Environment) lci(d *types.Decl, relevant []*types.Type, inProgress []string) *types.Type {
	for _, r := range relevant {
		if r == nil || !r.IsParameterized() || r.IsDiamond() {
			return e.TS.RawType(d.Type(), nil)
		}
	}
	args := slices.Clone(relevant[0].Arguments())
	for _, r := range relevant[1:] {
		for i, arg := range r.Arguments() {
			args[i] = e.lcta(d, i, args[i], arg, inProgress)
		}
	}
	return e.TS.ParameterizedType(d.Type(), args, nil)
}

// lcta is the least containing type argument of u and v
func (e *Environment) lcta(d *types.Decl, rank int, u, v *types.Type, inProgress []string) *types.Type {
	wildcard := func(bound *types.Type, kind types.BoundKind) *types.Type {
		if bound == nil || kind == types.Extends && types.SameNakedType(bound, e.Object) {
			return e.TS.Wildcard(d.Type(), rank, nil, nil, types.Unbound)
		}
		return e.TS.Wildcard(d.Type(), rank, bound, nil, kind)
	}
	if !u.IsWildcard() && v.IsWildcard() {
		u, v = v, u
	}
	switch {
	case !u.IsWildcard():
		if types.SameNakedType(u, v) {
			return u
		}
		return wildcard(e.lub([]*types.Type{u, v}, inProgress), types.Extends)
	case !v.IsWildcard():
		switch u.BoundKind() {
		case types.Extends:
			return wildcard(e.lub([]*types.Type{v, u.Bound()}, inProgress), types.Extends)
		case types.Super:
			return wildcard(e.GLB(v, u.Bound()), types.Super)
		}
	case u.BoundKind() == types.Extends && v.BoundKind() == types.Extends:
		return wildcard(e.lub([]*types.Type{u.Bound(), v.Bound()}, inProgress), types.Extends)
	case u.BoundKind() == types.Super && v.BoundKind() == types.Super:
		return wildcard(e.GLB(u.Bound(), v.Bound()), types.Super)
	case u.BoundKind() != types.Unbound && v.BoundKind() != types.Unbound:
		if types.SameNakedType(u.Bound(), v.Bound()) {
			return u.Bound()
		}
	}
	return wildcard(nil, types.Unbound)
}

// intersect builds the intersection of types with a class type first
func (e *Environment) intersect(components []*types.Type) *types.Type {
	switch len(components) {
	case 0:
		return e.Object
	case 1:
		return components[0]
	}
	ordered := slices.Clone(components)
	slices.SortStableFunc(ordered, func(a, b *types.Type) int {
		return classRank(a) - classRank(b)
	})
	return e.TS.IntersectionType18(ordered)
}

func classRank(t *types.Type) int {
	if d := t.Decl(); d != nil && d.Interface {
		return 1
	}
	return 0
}

// GLB computes the greatest lower bound (JLS 5.1.10) as an intersection
// without redundant components. It is nil when two unrelated classes meet.
func (e *Environment) GLB(in ...*types.Type) *types.Type {
	var flat []*types.Type
	for _, t := range in {
		for _, component := range t.IntersectingTypes() {
			if !slices.ContainsFunc(flat, func(f *types.Type) bool { return types.SameNakedType(f, component) }) {
				flat = append(flat, component)
			}
		}
	}
	var kept []*types.Type
	for i, t := range flat {
		redundant := false
		for j, u := range flat {
			if i != j && e.IsSubtype(u, t) && (j < i || !e.IsSubtype(t, u)) {
				redundant = true
				break
			}
		}
		if !redundant {
			kept = append(kept, t)
		}
	}
	classes := 0
	for _, t := range kept {
		if t.IsArray() || classRank(t) == 0 && t.Decl() != nil {
			classes++
		}
	}
	if classes > 1 {
		logger.Debug("glb of unrelated classes", "types", types.JoinTypes(kept, ", "))
		return nil
	}
	if len(kept) == 0 {
		return nil
	}
	return e.intersect(kept)
}
