package infer

import (
	"cmp"
	"maps"
	"slices"
	"strings"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/jinfer/frontend/ilerr"
	"github.com/cottand/jinfer/frontend/types"
	"github.com/cottand/jinfer/util"
	"github.com/hashicorp/go-set/v3"
)

// threeSets holds the bounds of one inference variable, split by relation
type threeSets struct {
	superBounds   []*TypeBound // α :> T
	sameBounds    []*TypeBound // α = T
	subBounds     []*TypeBound // α <: T
	instantiation *types.Type
	nullHints     types.TagBits
}

func (s *threeSets) copy() *threeSets {
	return &threeSets{
		superBounds:   slices.Clone(s.superBounds),
		sameBounds:    slices.Clone(s.sameBounds),
		subBounds:     slices.Clone(s.subBounds),
		instantiation: s.instantiation,
		nullHints:     s.nullHints,
	}
}

func (s *threeSets) list(rel Relation) *[]*TypeBound {
	switch rel {
	case Supertype:
		return &s.superBounds
	case Same:
		return &s.sameBounds
	default:
		return &s.subBounds
	}
}

func (s *threeSets) all() []*TypeBound {
	return slices.Concat(s.sameBounds, s.subBounds, s.superBounds)
}

// capturedVariable is an inference variable standing for a wildcard in a
// consumed capture bound G<α..> = capture(G<A..>)
type capturedVariable struct {
	wildcard *types.Type
	// declared is the bound of the captured type parameter, with the capture's variables substituted
	declared *types.Type
}

type typeIDComparer struct{}

func (typeIDComparer) Compare(a, b *types.Type) int { return cmp.Compare(a.ID(), b.ID()) }

// BoundSet is the set of bounds on inference variables being accumulated by
// reduction and incorporation. The TRUE and FALSE constants are shared and
// must never be mutated; every other bound set is owned by one inference context.
type BoundSet struct {
	constant string
	// ts applies nullness hints to the bounds handed out; nil for the constants
	ts *types.TypeSystem

	variables []*types.Type
	sets      map[types.TypeID]*threeSets
	// all holds every bound in insertion order; bounds before incorporatedUpTo have been incorporated
	all              []*TypeBound
	incorporatedUpTo int
	recent           [4]*TypeBound
	recentNext       int

	// captures are the pending capture bounds G<α..> = capture(G<A..>), keyed by their left side
	captures      *immutable.SortedMap[*types.Type, *types.Type]
	captured      map[types.TypeID]*capturedVariable
	captureGroups []captureGroup
	inThrows      *set.Set[types.TypeID]
}

// captureGroup records the variables of a processed capture bound
// G<α..> = capture(G<A..>): captured are the α.., mentioned are the
// variables of both sides
type captureGroup struct {
	captured  []*types.Type
	mentioned []*types.Type
}

func (g captureGroup) equal(other captureGroup) bool {
	return slices.Equal(g.captured, other.captured) && slices.Equal(g.mentioned, other.mentioned)
}

var (
	// TrueBoundSet is the empty bound set a reduction produces when it is trivially satisfied
	TrueBoundSet = &BoundSet{constant: "TRUE"}
	// FalseBoundSet is the result of a failed reduction or incorporation
	FalseBoundSet = &BoundSet{constant: "FALSE"}
)

func NewBoundSet(ts *types.TypeSystem) *BoundSet {
	return &BoundSet{
		ts:       ts,
		sets:     make(map[types.TypeID]*threeSets),
		captures: immutable.NewSortedMap[*types.Type, *types.Type](typeIDComparer{}),
		captured: make(map[types.TypeID]*capturedVariable),
		inThrows: set.New[types.TypeID](0),
	}
}

func (bs *BoundSet) IsFalse() bool { return bs == FalseBoundSet }

func (bs *BoundSet) checkMutable() {
	ilerr.Check(bs.constant == "", "attempt to modify the %s bound set", bs.constant)
}

// AddVariable registers inference variables that may not have bounds yet
func (bs *BoundSet) AddVariable(vars ...*types.Type) {
	bs.checkMutable()
	for _, v := range vars {
		bs.setsFor(v)
	}
}

func (bs *BoundSet) setsFor(v *types.Type) *threeSets {
	ilerr.Check(v.IsInferenceVariable(), "%s is not an inference variable", v)
	s, ok := bs.sets[v.ID()]
	if !ok {
		s = &threeSets{}
		bs.sets[v.ID()] = s
		bs.variables = append(bs.variables, v)
	}
	return s
}

// Variables are the inference variables known to this bound set, in order of registration
func (bs *BoundSet) Variables() []*types.Type { return bs.variables }

// AddBound inserts b unless it is trivially redundant or already present.
// A bound between two inference variables is also recorded on the right-hand variable.
func (bs *BoundSet) AddBound(b *TypeBound) bool {
	bs.checkMutable()
	if types.SameNakedType(b.Left, b.Right) {
		return false
	}
	if b.Relation == Subtype && b.Right.Decl() != nil && b.Right.Decl().Name == "Object" && b.Right.Kind() == types.KindClass {
		return false
	}
	for _, r := range bs.recent {
		if r != nil && r.sameBound(b) {
			return false
		}
	}
	if !bs.insert(b) {
		return false
	}
	if b.Right.IsInferenceVariable() {
		bs.insert(b.inverse())
	}
	return true
}

// AddBounds adds every bound and reports whether any of them was new
func (bs *BoundSet) AddBounds(bounds ...*TypeBound) bool {
	added := false
	for _, b := range bounds {
		added = bs.AddBound(b) || added
	}
	return added
}

func (bs *BoundSet) insert(b *TypeBound) bool {
	s := bs.setsFor(b.Left)
	list := s.list(b.Relation)
	for _, existing := range *list {
		if existing.sameBound(b) {
			return false
		}
	}
	*list = append(*list, b)
	if b.Relation == Same && b.Right.IsProper() && s.instantiation == nil {
		s.instantiation = b.Right
	}
	s.nullHints |= b.NullHints
	bs.all = append(bs.all, b)
	bs.recent[bs.recentNext] = b
	bs.recentNext = (bs.recentNext + 1) % len(bs.recent)
	return true
}

// AddCapture records the bound lhs = capture(rhs); incorporation consumes it
func (bs *BoundSet) AddCapture(lhs, rhs *types.Type) {
	bs.checkMutable()
	ilerr.Check(lhs.IsParameterized() && rhs.IsParameterized(), "capture bound %s = capture(%s)", lhs, rhs)
	bs.AddVariable(lhs.InferenceVariables()...)
	bs.captures = bs.captures.Set(lhs, rhs)
}

// PendingCaptures are the capture bounds not yet processed by incorporation, ordered by id
func (bs *BoundSet) PendingCaptures() []util.Pair[*types.Type, *types.Type] {
	if bs.captures == nil {
		return nil
	}
	var pending []util.Pair[*types.Type, *types.Type]
	itr := bs.captures.Iterator()
	for !itr.Done() {
		lhs, rhs, _ := itr.Next()
		pending = append(pending, util.NewPair(lhs, rhs))
	}
	return pending
}

func (bs *BoundSet) consumeCapture(lhs *types.Type) {
	bs.captures = bs.captures.Delete(lhs)
}

// IsCaptured reports whether v stands for a wildcard of a capture bound
func (bs *BoundSet) IsCaptured(v *types.Type) bool {
	_, ok := bs.captured[v.ID()]
	return ok
}

// MarkThrows records the bound `throws v`
func (bs *BoundSet) MarkThrows(v *types.Type) {
	bs.checkMutable()
	bs.setsFor(v)
	bs.inThrows.Insert(v.ID())
}

func (bs *BoundSet) InThrows(v *types.Type) bool {
	return bs.inThrows != nil && bs.inThrows.Contains(v.ID())
}

// Instantiation is the proper type v is the same as, or nil
func (bs *BoundSet) Instantiation(v *types.Type) *types.Type {
	if s, ok := bs.sets[v.ID()]; ok {
		return s.instantiation
	}
	return nil
}

func (bs *BoundSet) IsInstantiated(v *types.Type) bool { return bs.Instantiation(v) != nil }

// NullHints are the nullness tags collected from the bounds of v
func (bs *BoundSet) NullHints(v *types.Type) types.TagBits {
	if s, ok := bs.sets[v.ID()]; ok {
		return s.nullHints
	}
	return 0
}

func (bs *BoundSet) boundsOf(v *types.Type, rel Relation, onlyProper bool) []*types.Type {
	s, ok := bs.sets[v.ID()]
	if !ok {
		return nil
	}
	var result []*types.Type
	for _, b := range *s.list(rel) {
		if onlyProper && !b.Right.IsProper() {
			continue
		}
		if !slices.ContainsFunc(result, func(t *types.Type) bool { return types.SameNakedType(t, b.Right) }) {
			result = append(result, b.Right)
		}
	}
	slices.SortStableFunc(result, func(a, b *types.Type) int { return cmp.Compare(a.ID(), b.ID()) })
	if hints := s.nullHints & types.NullMask; hints != 0 && bs.ts != nil {
		for i, t := range result {
			result[i] = bs.ts.WithNullTags(t, hints)
		}
	}
	return result
}

// UpperBounds are the T in bounds v <: T, sorted by id, carrying the
// nullness hints collected for v
func (bs *BoundSet) UpperBounds(v *types.Type, onlyProper bool) []*types.Type {
	return bs.boundsOf(v, Subtype, onlyProper)
}

// LowerBounds are the T in bounds v :> T, sorted by id, carrying the
// nullness hints collected for v
func (bs *BoundSet) LowerBounds(v *types.Type, onlyProper bool) []*types.Type {
	return bs.boundsOf(v, Supertype, onlyProper)
}

// SameBounds are the T in bounds v = T, sorted by id
func (bs *BoundSet) SameBounds(v *types.Type) []*types.Type {
	return bs.boundsOf(v, Same, false)
}

// BoundsOf are all the bounds on v
func (bs *BoundSet) BoundsOf(v *types.Type) []*TypeBound {
	if s, ok := bs.sets[v.ID()]; ok {
		return s.all()
	}
	return nil
}

// Bounds are all the bounds of the set in insertion order
func (bs *BoundSet) Bounds() []*TypeBound { return bs.all }

// Copy is an independent copy of bs; the constants copy to a fresh empty set
func (bs *BoundSet) Copy() *BoundSet {
	if bs.constant != "" {
		return NewBoundSet(bs.ts)
	}
	c := &BoundSet{
		ts:               bs.ts,
		variables:        slices.Clone(bs.variables),
		sets:             make(map[types.TypeID]*threeSets, len(bs.sets)),
		all:              slices.Clone(bs.all),
		incorporatedUpTo: bs.incorporatedUpTo,
		recent:           bs.recent,
		recentNext:       bs.recentNext,
		captures:         bs.captures,
		captured:         maps.Clone(bs.captured),
		captureGroups:    slices.Clone(bs.captureGroups),
		inThrows:         bs.inThrows.Copy(),
	}
	for id, s := range bs.sets {
		c.sets[id] = s.copy()
	}
	return c
}

// merge adds the bounds, captures and throws markers of other
func (bs *BoundSet) merge(other *BoundSet) {
	bs.checkMutable()
	if other == nil || other.constant != "" {
		return
	}
	bs.AddVariable(other.variables...)
	bs.AddBounds(other.all...)
	for _, p := range other.PendingCaptures() {
		bs.captures = bs.captures.Set(p.Fst, p.Snd)
	}
	for id, cv := range other.captured {
		bs.captured[id] = cv
	}
	for _, group := range other.captureGroups {
		if !slices.ContainsFunc(bs.captureGroups, group.equal) {
			bs.captureGroups = append(bs.captureGroups, group)
		}
	}
	for _, v := range other.variables {
		if other.InThrows(v) {
			bs.inThrows.Insert(v.ID())
		}
	}
}

// DependsOnResolutionOf reports whether resolving alpha requires beta to be
// resolved first (JLS 18.4), before taking the transitive closure. A variable
// on the left of a capture bound depends on every other variable of that
// bound, and reverses the direction of the dependencies its other bounds imply.
func (bs *BoundSet) DependsOnResolutionOf(alpha, beta *types.Type) bool {
	if types.SameNakedType(alpha, beta) {
		return false
	}
	for _, group := range bs.captureGroups {
		if slices.Contains(group.captured, alpha) && slices.Contains(group.mentioned, beta) {
			return true
		}
	}
	for _, p := range bs.PendingCaptures() {
		if p.Fst.MentionsAny(alpha) && (p.Fst.MentionsAny(beta) || p.Snd.MentionsAny(beta)) {
			return true
		}
	}
	if bs.onCaptureLeft(beta) {
		return slices.ContainsFunc(bs.BoundsOf(beta), func(b *TypeBound) bool { return b.Right.MentionsAny(alpha) })
	}
	if bs.onCaptureLeft(alpha) {
		return false
	}
	return slices.ContainsFunc(bs.BoundsOf(alpha), func(b *TypeBound) bool { return b.Right.MentionsAny(beta) })
}

// onCaptureLeft reports whether v is one of the α.. of a capture bound G<α..> = capture(G<A..>)
func (bs *BoundSet) onCaptureLeft(v *types.Type) bool {
	for _, group := range bs.captureGroups {
		if slices.Contains(group.captured, v) {
			return true
		}
	}
	for _, p := range bs.PendingCaptures() {
		if p.Fst.MentionsAny(v) {
			return true
		}
	}
	return false
}

func (bs *BoundSet) String() string {
	if bs.constant != "" {
		return bs.constant
	}
	sb := &strings.Builder{}
	sb.WriteString("{")
	for i, b := range bs.all {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(b.String())
	}
	for _, p := range bs.PendingCaptures() {
		sb.WriteString(", ")
		sb.WriteString(p.Fst.String())
		sb.WriteString(" = capture(")
		sb.WriteString(p.Snd.String())
		sb.WriteString(")")
	}
	for _, v := range bs.variables {
		if bs.InThrows(v) {
			sb.WriteString(", throws ")
			sb.WriteString(v.String())
		}
	}
	sb.WriteString("}")
	return sb.String()
}
