package types

import (
	"fmt"
	"go/token"
	"iter"
	"slices"
	"strings"

	"github.com/cottand/jinfer/frontend/source"
)

// TypeID is shared by every annotation variant of the same naked type
type TypeID int32

// NoID marks a type that has not been registered with a TypeSystem yet
const NoID TypeID = 0

type Kind uint8

const (
	KindBase Kind = iota + 1
	KindNull
	KindClass
	KindGeneric
	KindArray
	KindParameterized
	KindRaw
	KindWildcard
	KindIntersection
	KindTypeVariable
	KindCapture
	KindInferenceVariable
	KindPoly
)

var kindNames = [...]string{
	KindBase:              "base",
	KindNull:              "null",
	KindClass:             "class",
	KindGeneric:           "generic",
	KindArray:             "array",
	KindParameterized:     "parameterized",
	KindRaw:               "raw",
	KindWildcard:          "wildcard",
	KindIntersection:      "intersection",
	KindTypeVariable:      "type variable",
	KindCapture:           "capture",
	KindInferenceVariable: "inference variable",
	KindPoly:              "poly",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// TagBits are derived facts about a type, computed once at construction
type TagBits uint16

const (
	HasTypeVariable TagBits = 1 << iota
	HasWildcard
	HasMissingType
	HasInferenceVariable
	HasNullTypeAnnotation
	AnnotatedNonNull
	AnnotatedNullable

	// propagating are the bits a composite type inherits from its parts
	propagating = HasTypeVariable | HasWildcard | HasMissingType | HasInferenceVariable | HasNullTypeAnnotation
	// NullMask selects the nullness of a type or of a bound hint
	NullMask = AnnotatedNonNull | AnnotatedNullable
)

type Primitive uint8

const (
	Boolean Primitive = iota + 1
	Byte
	Char
	Short
	Int
	Long
	Float
	Double
	Void
)

var primitiveNames = [...]string{
	Boolean: "boolean",
	Byte:    "byte",
	Char:    "char",
	Short:   "short",
	Int:     "int",
	Long:    "long",
	Float:   "float",
	Double:  "double",
	Void:    "void",
}

func (p Primitive) String() string { return primitiveNames[p] }

// Primitives lists every primitive type, void included
func Primitives() []Primitive {
	return []Primitive{Boolean, Byte, Char, Short, Int, Long, Float, Double, Void}
}

type BoundKind uint8

const (
	Unbound BoundKind = iota
	Extends
	Super
)

// Type is one occurrence of a type: a tagged union whose payload depends on Kind.
//
// Pointers to Type are handles into the TypeSystem that created them:
// pointer equality is identity, SameNakedType compares ids.
// Structural equality must never be used to decide identity.
type Type struct {
	kind        Kind
	id          TypeID
	annotations []*Annotation
	tags        TagBits

	// KindBase
	primitive Primitive
	// KindClass, KindGeneric
	decl *Decl

	// KindArray
	leaf *Type
	dims int

	// KindParameterized, KindRaw. args is nil for diamond
	generic   *Type
	args      []*Type
	enclosing *Type

	// KindWildcard, KindIntersection. generic is shared with the parameterized payload
	rank        int
	boundKind   BoundKind
	bound       *Type
	otherBounds []*Type

	// KindTypeVariable, KindCapture, KindInferenceVariable
	variable *variableData
	// KindCapture
	capture *captureData
	// KindInferenceVariable
	inference *inferenceData

	// KindPoly
	poly any
}

// variableData is shared by all annotation variants of a type variable,
// so bounds set after creation are visible through every variant
type variableData struct {
	name            string
	declaring       any // *Decl or *Method; nil for captures and inference variables
	rank            int
	firstBound      *Type
	superclass      *Type
	superInterfaces []*Type
	// lowerBound is only set for captures of `? super` wildcards and fresh captures
	lowerBound *Type
	boundsSet  bool
}

type captureData struct {
	wildcard   *Type
	sourceType *Type
	start, end token.Pos
	unit       *source.CompilationUnit
	captureID  int
	// fresh captures are placeholders created during resolution, not by capture conversion
	fresh bool
}

type inferenceData struct {
	typeParameter *Type
	site          any
}

func (t *Type) Kind() Kind                  { return t.kind }
func (t *Type) ID() TypeID                  { return t.id }
func (t *Type) Tags() TagBits               { return t.tags }
func (t *Type) HasTag(bits TagBits) bool    { return t.tags&bits != 0 }
func (t *Type) Annotations() []*Annotation  { return t.annotations }
func (t *Type) HasTypeAnnotations() bool    { return len(t.annotations) > 0 }
func (t *Type) Primitive() Primitive        { return t.primitive }
func (t *Type) Leaf() *Type                 { return t.leaf }
func (t *Type) Dimensions() int             { return t.dims }
func (t *Type) Arguments() []*Type          { return t.args }
func (t *Type) Enclosing() *Type            { return t.enclosing }
func (t *Type) Rank() int                   { return t.rank }
func (t *Type) BoundKind() BoundKind        { return t.boundKind }
func (t *Type) Bound() *Type                { return t.bound }
func (t *Type) OtherBounds() []*Type        { return t.otherBounds }
func (t *Type) PolyExpression() any         { return t.poly }
func (t *Type) IsBaseType() bool            { return t.kind == KindBase }
func (t *Type) IsPrimitive() bool           { return t.kind == KindBase && t.primitive != Void }
func (t *Type) IsVoid() bool                { return t.kind == KindBase && t.primitive == Void }
func (t *Type) IsArray() bool               { return t.kind == KindArray }
func (t *Type) IsWildcard() bool            { return t.kind == KindWildcard }
func (t *Type) IsIntersection() bool        { return t.kind == KindIntersection }
func (t *Type) IsInferenceVariable() bool   { return t.kind == KindInferenceVariable }
func (t *Type) IsCapture() bool             { return t.kind == KindCapture }
func (t *Type) IsParameterized() bool       { return t.kind == KindParameterized }
func (t *Type) IsRaw() bool                 { return t.kind == KindRaw }
func (t *Type) IsNull() bool                { return t.kind == KindNull }
func (t *Type) IsReference() bool           { return t.kind != KindBase && t.kind != KindPoly }
func (t *Type) IsDiamond() bool             { return t.kind == KindParameterized && t.args == nil }
func (t *Type) IsProper() bool              { return t.tags&HasInferenceVariable == 0 }
func (t *Type) IsFreshCapture() bool        { return t.kind == KindCapture && t.capture.fresh }
func (t *Type) nullTags() TagBits           { return t.tags & NullMask }
func (t *Type) IsAnnotatedNonNull() bool    { return t.tags&AnnotatedNonNull != 0 }
func (t *Type) IsAnnotatedNullable() bool   { return t.tags&AnnotatedNullable != 0 }
func (t *Type) NullTags() TagBits           { return t.nullTags() }
func (t *Type) isTypeVariableLike() bool    { return t.variable != nil }
func (t *Type) IsTypeVariableLike() bool    { return t.isTypeVariableLike() }
func (t *Type) IsClassOrInterface() bool    { return t.Decl() != nil }
func (t *Type) IsGenericDeclaration() bool  { return t.kind == KindGeneric }
func (t *Type) IsUpperBoundWildcard() bool  { return t.kind == KindWildcard && t.boundKind == Extends }
func (t *Type) IsLowerBoundWildcard() bool  { return t.kind == KindWildcard && t.boundKind == Super }
func (t *Type) IsUnboundWildcard() bool     { return t.kind == KindWildcard && t.boundKind == Unbound }
func (t *Type) hasNoSubstructure() bool     { return t.kind == KindBase || t.kind == KindNull || t.kind == KindPoly }
func (t *Type) mentionsInference() bool     { return t.tags&HasInferenceVariable != 0 }

func (t *Type) MentionsInferenceVariables() bool { return t.mentionsInference() }

// Decl is the class or interface declaration behind a class, generic,
// parameterized or raw type; nil for every other kind
func (t *Type) Decl() *Decl {
	switch t.kind {
	case KindClass, KindGeneric:
		return t.decl
	case KindParameterized, KindRaw:
		return t.generic.decl
	}
	return nil
}

// Generic is the naked generic type of a parameterized, raw or wildcard type
func (t *Type) Generic() *Type { return t.generic }

// IntersectingTypes lists the components of an intersection type
func (t *Type) IntersectingTypes() []*Type {
	if t.kind != KindIntersection {
		return []*Type{t}
	}
	return append([]*Type{t.bound}, t.otherBounds...)
}

// VariableName is the source name of a type variable, capture or inference variable
func (t *Type) VariableName() string {
	if t.variable == nil {
		return ""
	}
	return t.variable.name
}

func (t *Type) DeclaringElement() any {
	if t.variable == nil {
		return nil
	}
	return t.variable.declaring
}

func (t *Type) FirstBound() *Type {
	if t.variable == nil {
		return nil
	}
	return t.variable.firstBound
}

func (t *Type) Superclass() *Type {
	if t.variable == nil {
		return nil
	}
	return t.variable.superclass
}

func (t *Type) SuperInterfaces() []*Type {
	if t.variable == nil {
		return nil
	}
	return t.variable.superInterfaces
}

// LowerBound is the lower bound of a capture of a `? super` wildcard or of a fresh capture
func (t *Type) LowerBound() *Type {
	if t.variable == nil {
		return nil
	}
	return t.variable.lowerBound
}

// UpperBounds are the declared (or captured) upper bounds of a type variable
func (t *Type) UpperBounds() []*Type {
	if t.variable == nil {
		return nil
	}
	var bounds []*Type
	if t.variable.superclass != nil {
		bounds = append(bounds, t.variable.superclass)
	}
	return append(bounds, t.variable.superInterfaces...)
}

func (t *Type) BoundsSet() bool { return t.variable != nil && t.variable.boundsSet }

// SetBounds sets the bounds of a type variable or capture after creation;
// type parameters are created before their bounds so F-bounds can refer to them.
// The first bound is the superclass when present, else the first interface.
func (t *Type) SetBounds(superclass *Type, superInterfaces []*Type) {
	t.variable.superclass = superclass
	t.variable.superInterfaces = superInterfaces
	t.variable.firstBound = superclass
	if superclass == nil && len(superInterfaces) > 0 {
		t.variable.firstBound = superInterfaces[0]
	}
	t.variable.boundsSet = true
}

// SetLowerBound sets the lower bound of a capture
func (t *Type) SetLowerBound(lower *Type) {
	t.variable.lowerBound = lower
}

// CaptureWildcard is the wildcard a capture was created from, nil for fresh captures
func (t *Type) CaptureWildcard() *Type {
	if t.capture == nil {
		return nil
	}
	return t.capture.wildcard
}

func (t *Type) CaptureSourceType() *Type {
	if t.capture == nil {
		return nil
	}
	return t.capture.sourceType
}

func (t *Type) CaptureID() int {
	if t.capture == nil {
		return 0
	}
	return t.capture.captureID
}

func (t *Type) CaptureRange() source.Range {
	if t.capture == nil {
		return source.Range{}
	}
	return source.Range{PosStart: t.capture.start, PosEnd: t.capture.end}
}

func (t *Type) CaptureUnit() *source.CompilationUnit {
	if t.capture == nil {
		return nil
	}
	return t.capture.unit
}

// TypeParameter is the declared type parameter an inference variable stands for
func (t *Type) TypeParameter() *Type {
	if t.inference == nil {
		return nil
	}
	return t.inference.typeParameter
}

// InferenceSite is the invocation an inference variable was created for
func (t *Type) InferenceSite() any {
	if t.inference == nil {
		return nil
	}
	return t.inference.site
}

// VariableRank is the position of a type variable among its siblings
func (t *Type) VariableRank() int {
	if t.variable == nil {
		return 0
	}
	return t.variable.rank
}

// SameNakedType reports whether a and b are the same type disregarding type annotations
func SameNakedType(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.id != NoID && a.id == b.id
}

// Children iterates over the structural parts of t, not including the bounds of type variables
func (t *Type) Children() iter.Seq[*Type] {
	return func(yield func(*Type) bool) {
		switch t.kind {
		case KindArray:
			yield(t.leaf)
		case KindParameterized:
			if t.enclosing != nil && !yield(t.enclosing) {
				return
			}
			for _, arg := range t.args {
				if !yield(arg) {
					return
				}
			}
		case KindRaw:
			if t.enclosing != nil {
				yield(t.enclosing)
			}
		case KindWildcard, KindIntersection:
			if t.bound != nil && !yield(t.bound) {
				return
			}
			for _, other := range t.otherBounds {
				if !yield(other) {
					return
				}
			}
		}
	}
}

func (t *Type) computeTags() {
	var tags TagBits
	for child := range t.Children() {
		tags |= child.tags & propagating
	}
	switch t.kind {
	case KindWildcard:
		tags |= HasWildcard
	case KindTypeVariable, KindCapture:
		tags |= HasTypeVariable
	case KindInferenceVariable:
		tags |= HasTypeVariable | HasInferenceVariable
	case KindClass, KindGeneric:
		if t.decl.Missing {
			tags |= HasMissingType
		}
	}
	for _, annotation := range t.annotations {
		if annotation == nil {
			continue
		}
		if annotation.nullTag != 0 {
			tags |= HasNullTypeAnnotation
			// an array's own null tag comes from its outermost dimension only
			if t.kind != KindArray || t.outermostDimension(annotation) {
				tags |= annotation.nullTag
			}
		}
	}
	t.tags = tags
}

func (t *Type) outermostDimension(annotation *Annotation) bool {
	for _, a := range t.annotations {
		if a == nil {
			return false
		}
		if a == annotation {
			return true
		}
	}
	return false
}

// DimensionNullTags returns the null tag bits of each dimension of an array type, outermost first
func (t *Type) DimensionNullTags() []TagBits {
	if t.kind != KindArray {
		return nil
	}
	bits := make([]TagBits, t.dims)
	dim := 0
	for _, a := range t.annotations {
		if a == nil {
			dim++
			if dim >= t.dims {
				break
			}
			continue
		}
		bits[dim] |= a.nullTag
	}
	return bits
}

func (t *Type) String() string {
	sb := &strings.Builder{}
	t.write(sb)
	return sb.String()
}

func writeAnnotations(sb *strings.Builder, annotations []*Annotation) {
	for _, a := range annotations {
		if a == nil {
			break
		}
		sb.WriteString("@")
		sb.WriteString(a.Name)
		sb.WriteString(" ")
	}
}

func (t *Type) write(sb *strings.Builder) {
	if t == nil {
		sb.WriteString("<nil>")
		return
	}
	if t.kind != KindArray {
		writeAnnotations(sb, t.annotations)
	}
	switch t.kind {
	case KindBase:
		sb.WriteString(t.primitive.String())
	case KindNull:
		sb.WriteString("null")
	case KindClass, KindGeneric:
		sb.WriteString(t.decl.Name)
	case KindArray:
		t.leaf.write(sb)
		dimAnnotations := slices.Clone(t.annotations)
		for range t.dims {
			end := slices.Index(dimAnnotations, nil)
			if end < 0 {
				end = len(dimAnnotations)
			}
			if end > 0 {
				sb.WriteString(" ")
				writeAnnotations(sb, dimAnnotations[:end])
			}
			sb.WriteString("[]")
			if end < len(dimAnnotations) {
				dimAnnotations = dimAnnotations[end+1:]
			} else {
				dimAnnotations = nil
			}
		}
	case KindParameterized:
		if t.enclosing != nil {
			t.enclosing.write(sb)
			sb.WriteString(".")
		}
		sb.WriteString(t.generic.decl.Name)
		sb.WriteString("<")
		for i, arg := range t.args {
			if i > 0 {
				sb.WriteString(",")
			}
			arg.write(sb)
		}
		sb.WriteString(">")
	case KindRaw:
		if t.enclosing != nil {
			t.enclosing.write(sb)
			sb.WriteString(".")
		}
		sb.WriteString(t.generic.decl.Name)
	case KindWildcard:
		sb.WriteString("?")
		switch t.boundKind {
		case Extends:
			sb.WriteString(" extends ")
			t.bound.write(sb)
			for _, other := range t.otherBounds {
				sb.WriteString(" & ")
				other.write(sb)
			}
		case Super:
			sb.WriteString(" super ")
			t.bound.write(sb)
		}
	case KindIntersection:
		for i, component := range t.IntersectingTypes() {
			if i > 0 {
				sb.WriteString(" & ")
			}
			component.write(sb)
		}
	case KindTypeVariable:
		sb.WriteString(t.variable.name)
	case KindCapture:
		if t.capture.fresh {
			fmt.Fprintf(sb, "%s#%d", t.variable.name, t.capture.captureID)
			return
		}
		fmt.Fprintf(sb, "capture#%d-of ", t.capture.captureID)
		t.capture.wildcard.write(sb)
	case KindInferenceVariable:
		sb.WriteString(t.variable.name)
	case KindPoly:
		sb.WriteString("<poly>")
	default:
		fmt.Fprintf(sb, "<%s>", t.kind)
	}
}

// JoinTypes renders types separated by sep
func JoinTypes(ts []*Type, sep string) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, sep)
}
