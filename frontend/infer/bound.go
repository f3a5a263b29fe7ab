package infer

import (
	"fmt"

	"github.com/cottand/jinfer/frontend/ilerr"
	"github.com/cottand/jinfer/frontend/types"
)

// Relation is the relation a TypeBound or a type constraint asserts between its sides
type Relation uint8

const (
	Compatible Relation = iota + 1
	Subtype
	Supertype
	Same
	TypeArgumentContained
)

var relationSymbols = map[Relation]string{
	Compatible:            "→",
	Subtype:               "<:",
	Supertype:             ":>",
	Same:                  "=",
	TypeArgumentContained: "<=",
}

func (r Relation) String() string { return relationSymbols[r] }

// inverse is the relation seen from the right-hand side
func (r Relation) inverse() Relation {
	switch r {
	case Subtype:
		return Supertype
	case Supertype:
		return Subtype
	case Same:
		return Same
	}
	ilerr.Invariant("relation %s has no inverse", r)
	return r
}

// TypeBound is one bound `Left Relation Right` on the inference variable Left.
// Relation is one of Subtype, Supertype or Same.
type TypeBound struct {
	Left     *types.Type
	Right    *types.Type
	Relation Relation
	// IsSoft marks bounds derived from declared type parameter bounds
	// rather than from a constraint on the invocation
	IsSoft    bool
	NullHints types.TagBits
}

// newTypeBound builds the bound S rel T with the inference variable on the left,
// flipping the relation when only T is an inference variable
func newTypeBound(s, t *types.Type, rel Relation, soft bool) *TypeBound {
	if !s.IsInferenceVariable() && t.IsInferenceVariable() {
		s, t, rel = t, s, rel.inverse()
	}
	ilerr.Check(s.IsInferenceVariable(), "bound %s %s %s has no inference variable on the left", s, rel, t)
	ilerr.Check(rel == Subtype || rel == Supertype || rel == Same, "bound relation %s", rel)
	return &TypeBound{Left: s, Right: t, Relation: rel, IsSoft: soft, NullHints: t.NullTags()}
}

// sameBound compares two bounds ignoring softness
func (b *TypeBound) sameBound(other *TypeBound) bool {
	return b.Relation == other.Relation && types.SameNakedType(b.Left, other.Left) && types.SameNakedType(b.Right, other.Right)
}

// inverse is the same bound stated from Right, which must be an inference variable
func (b *TypeBound) inverse() *TypeBound {
	return &TypeBound{Left: b.Right, Right: b.Left, Relation: b.Relation.inverse(), IsSoft: b.IsSoft, NullHints: b.Left.NullTags()}
}

func (b *TypeBound) String() string {
	s := fmt.Sprintf("%s %s %s", b.Left, b.Relation, b.Right)
	if b.IsSoft {
		s += " (soft)"
	}
	return s
}
