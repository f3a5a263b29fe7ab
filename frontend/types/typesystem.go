package types

import (
	"encoding/binary"
	"go/token"
	"hash/fnv"
	"slices"

	"github.com/cottand/jinfer/frontend/ilerr"
	"github.com/cottand/jinfer/frontend/source"
	"github.com/cottand/jinfer/internal/log"
)

var logger = log.Section("typesystem")

// TypeSystem is the sole factory of derived types (arrays, parameterized,
// raw, wildcards, intersections, captures) for one compilation environment.
// It guarantees that structurally identical derived types are the same *Type,
// except where distinct type annotations are requested: annotation variants
// are distinct *Type values sharing the id of their naked type.
//
// Buckets are append-only, so a scan in progress stays valid even if a
// nested call grows the same bucket. TypeSystem is not safe for concurrent use.
type TypeSystem struct {
	annotatable bool

	nextID TypeID
	// types[id][0] is the naked type registered under id; the rest of the
	// bucket holds its annotation variants and the types derived from it
	types [][]*Type
	// parameterized is a secondary index over naked parameterized types
	parameterized map[uint64][]*Type

	annotations map[string]*Annotation
	primitives  map[Primitive]*Type
	null        *Type
	// lubGeneric keys wildcards that belong to no generic type
	lubGeneric *Type
}

// NewTypeSystem returns a TypeSystem that ignores type annotations
func NewTypeSystem() *TypeSystem {
	ts := &TypeSystem{}
	ts.Reset()
	return ts
}

// NewAnnotatableTypeSystem returns a TypeSystem that keeps type annotations
func NewAnnotatableTypeSystem() *TypeSystem {
	ts := NewTypeSystem()
	ts.annotatable = true
	return ts
}

func (ts *TypeSystem) Annotatable() bool { return ts.annotatable }

// Reset drops every type. Ids restart, so types created before the reset
// must not be used with this TypeSystem again.
func (ts *TypeSystem) Reset() {
	ts.nextID = NoID + 1
	ts.types = make([][]*Type, 1, 256)
	ts.parameterized = make(map[uint64][]*Type)
	ts.annotations = make(map[string]*Annotation)
	ts.primitives = make(map[Primitive]*Type)
	ts.null = nil
	ts.lubGeneric = ts.DeclareType(&Decl{Name: "<lub>"})
	logger.Debug("type system reset")
}

// Size is the number of ids handed out since the last Reset
func (ts *TypeSystem) Size() int { return int(ts.nextID) - 1 }

func (ts *TypeSystem) register(t *Type) *Type {
	t.id = ts.nextID
	ts.nextID++
	ts.types = append(ts.types, []*Type{t})
	t.computeTags()
	return t
}

func (ts *TypeSystem) appendDerived(key TypeID, t *Type) {
	ts.types[key] = append(ts.types[key], t)
}

// cacheVariant records an annotation variant of naked under the key bucket and naked's own bucket
func (ts *TypeSystem) cacheVariant(key TypeID, naked, variant *Type) *Type {
	variant.id = naked.id
	variant.computeTags()
	ts.appendDerived(key, variant)
	if key != naked.id {
		ts.appendDerived(naked.id, variant)
	}
	logger.Debug("created annotated type", "type", variant, "id", variant.id)
	return variant
}

// DerivedTypes returns a snapshot of the bucket of t's id
func (ts *TypeSystem) DerivedTypes(t *Type) []*Type {
	return slices.Clone(ts.types[ts.UnannotatedType(t).id])
}

// UnannotatedType registers t if it was never seen and returns the naked
// representative of its id
func (ts *TypeSystem) UnannotatedType(t *Type) *Type {
	if t.id == NoID {
		ilerr.Check(!t.HasTypeAnnotations(), "cannot register annotated type %s before its naked type", t)
		ts.register(t)
	}
	ilerr.Check(int(t.id) < len(ts.types), "type %s (id %d) does not belong to this type system", t, t.id)
	return ts.types[t.id][0]
}

func (ts *TypeSystem) unannotatedAll(types []*Type) []*Type {
	if types == nil {
		return nil
	}
	naked := make([]*Type, len(types))
	for i, t := range types {
		naked[i] = ts.UnannotatedType(t)
	}
	return naked
}

func sameTypes(a, b []*Type) bool {
	if (a == nil) != (b == nil) || len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Annotation returns the interned annotation named name
func (ts *TypeSystem) Annotation(name string) *Annotation {
	if a, ok := ts.annotations[name]; ok {
		return a
	}
	a := &Annotation{Name: name}
	switch name {
	case NonNullAnnotation:
		a.nullTag = AnnotatedNonNull
	case NullableAnnotation:
		a.nullTag = AnnotatedNullable
	}
	ts.annotations[name] = a
	return a
}

func (ts *TypeSystem) BaseType(p Primitive) *Type {
	if t, ok := ts.primitives[p]; ok {
		return t
	}
	t := ts.register(&Type{kind: KindBase, primitive: p})
	ts.primitives[p] = t
	return t
}

func (ts *TypeSystem) NullType() *Type {
	if ts.null == nil {
		ts.null = ts.register(&Type{kind: KindNull})
	}
	return ts.null
}

// DeclareType registers the binding of a declaration. Type parameters must be
// assigned before, their bounds may be set afterwards.
func (ts *TypeSystem) DeclareType(d *Decl) *Type {
	ilerr.Check(d.binding == nil, "declaration %s already has a binding", d.Name)
	kind := KindClass
	if d.IsGeneric() {
		kind = KindGeneric
	}
	d.binding = ts.register(&Type{kind: kind, decl: d})
	return d.binding
}

// TypeVariable creates a declared type variable; declaring is a *Decl or a *Method
func (ts *TypeSystem) TypeVariable(name string, declaring any, rank int) *Type {
	return ts.register(&Type{
		kind:     KindTypeVariable,
		variable: &variableData{name: name, declaring: declaring, rank: rank},
	})
}

// InferenceVariable creates an inference variable standing for typeParameter at site.
// Interning per (typeParameter, rank, site) is the caller's responsibility.
func (ts *TypeSystem) InferenceVariable(typeParameter *Type, rank int, site any, name string) *Type {
	t := ts.register(&Type{
		kind:      KindInferenceVariable,
		variable:  &variableData{name: name, rank: rank},
		inference: &inferenceData{typeParameter: typeParameter, site: site},
	})
	logger.Debug("created inference variable", "var", t, "id", t.id)
	return t
}

// FreshCapture creates a capture-like placeholder whose bounds are set by the caller
func (ts *TypeSystem) FreshCapture(name string, captureID int) *Type {
	return ts.register(&Type{
		kind:     KindCapture,
		variable: &variableData{name: name},
		capture:  &captureData{fresh: true, captureID: captureID},
	})
}

// PolyType wraps a poly expression whose type is not known yet
func (ts *TypeSystem) PolyType(expression any) *Type {
	return ts.register(&Type{kind: KindPoly, poly: expression})
}

// ArrayType returns the array of leaf with dims dimensions. annotations is a
// flattened list of per-dimension annotations (outermost first) separated by nil.
// An array leaf is collapsed into the result.
func (ts *TypeSystem) ArrayType(leaf *Type, dims int, annotations ...*Annotation) *Type {
	ilerr.Check(dims > 0, "array of %s with %d dimensions", leaf, dims)
	if leaf.kind == KindArray {
		if hasAnnotations(annotations) || leaf.HasTypeAnnotations() {
			annotations = append(padDimensions(annotations, dims), leaf.annotations...)
		}
		dims += leaf.dims
		leaf = leaf.leaf
	}
	if !ts.annotatable {
		annotations = nil
		leaf = ts.UnannotatedType(leaf)
	}
	annotations = trimSeparators(annotations)
	nakedLeaf := ts.UnannotatedType(leaf)

	var naked *Type
	for _, derived := range ts.types[nakedLeaf.id] {
		if derived.kind != KindArray || derived.dims != dims {
			continue
		}
		if derived.leaf == leaf && sameAnnotations(derived.annotations, annotations) {
			return derived
		}
		if derived.leaf == nakedLeaf && derived.annotations == nil {
			naked = derived
		}
	}
	if naked == nil {
		naked = ts.register(&Type{kind: KindArray, leaf: nakedLeaf, dims: dims})
		ts.appendDerived(nakedLeaf.id, naked)
		logger.Debug("created array type", "type", naked, "id", naked.id)
	}
	if leaf == nakedLeaf && annotations == nil {
		return naked
	}
	return ts.cacheVariant(nakedLeaf.id, naked, &Type{
		kind:        KindArray,
		leaf:        leaf,
		dims:        dims,
		annotations: annotations,
	})
}

// padDimensions terminates each of the first dims dimension groups with a separator
func padDimensions(annotations []*Annotation, dims int) []*Annotation {
	out := make([]*Annotation, 0, len(annotations)+dims)
	groups := 0
	for _, a := range annotations {
		out = append(out, a)
		if a == nil {
			groups++
		}
	}
	if len(annotations) > 0 && annotations[len(annotations)-1] != nil {
		out = append(out, nil)
		groups++
	}
	for ; groups < dims; groups++ {
		out = append(out, nil)
	}
	return out
}

func trimSeparators(annotations []*Annotation) []*Annotation {
	end := len(annotations)
	for end > 0 && annotations[end-1] == nil {
		end--
	}
	if end == 0 {
		return nil
	}
	return slices.Clone(annotations[:end])
}

func parameterizedKey(generic *Type, args []*Type, enclosing *Type) uint64 {
	h := fnv.New64a()
	buf := make([]byte, 0, 4*(len(args)+3))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(generic.id))
	if enclosing != nil {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(enclosing.id))
	}
	if args == nil {
		buf = append(buf, '<', '>')
	}
	for _, arg := range args {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(arg.id))
	}
	_, _ = h.Write(buf)
	return h.Sum64()
}

// ParameterizedType returns generic<args> nested in enclosing (which may be nil).
// generic must be naked; args is nil for a diamond.
func (ts *TypeSystem) ParameterizedType(generic *Type, args []*Type, enclosing *Type, annotations ...*Annotation) *Type {
	ilerr.Check(generic.kind == KindGeneric || generic.kind == KindClass && enclosing != nil,
		"cannot parameterize %s type %s", generic.kind, generic)
	ilerr.Check(!generic.HasTypeAnnotations(), "cannot parameterize an already-annotated generic type %s", generic)
	ilerr.Check(args == nil || len(args) == len(generic.decl.TypeParameters),
		"%s expects %d type arguments, got %d", generic, len(generic.decl.TypeParameters), len(args))
	generic = ts.UnannotatedType(generic)
	args = slices.Clip(args)
	if !ts.annotatable {
		annotations = nil
		args = ts.unannotatedAll(args)
		if enclosing != nil {
			enclosing = ts.UnannotatedType(enclosing)
		}
	}
	if !hasAnnotations(annotations) {
		annotations = nil
	}
	nakedArgs := ts.unannotatedAll(args)
	var nakedEnclosing *Type
	if enclosing != nil {
		nakedEnclosing = ts.UnannotatedType(enclosing)
	}

	key := parameterizedKey(generic, nakedArgs, nakedEnclosing)
	var naked *Type
	for _, candidate := range ts.parameterized[key] {
		if candidate.generic == generic && candidate.enclosing == nakedEnclosing && sameTypes(candidate.args, nakedArgs) {
			naked = candidate
			break
		}
	}
	if naked == nil {
		naked = ts.register(&Type{
			kind:      KindParameterized,
			generic:   generic,
			args:      nakedArgs,
			enclosing: nakedEnclosing,
		})
		ts.appendDerived(generic.id, naked)
		ts.parameterized[key] = append(ts.parameterized[key], naked)
		logger.Debug("created parameterized type", "type", naked, "id", naked.id)
	}
	if annotations == nil && enclosing == nakedEnclosing && sameTypes(args, nakedArgs) {
		return naked
	}
	for _, derived := range ts.types[generic.id] {
		if derived.kind == KindParameterized && derived.id == naked.id &&
			derived.enclosing == enclosing && sameTypes(derived.args, args) &&
			sameAnnotations(derived.annotations, annotations) {
			return derived
		}
	}
	return ts.cacheVariant(generic.id, naked, &Type{
		kind:        KindParameterized,
		generic:     generic,
		args:        slices.Clone(args),
		enclosing:   enclosing,
		annotations: annotations,
	})
}

// RawType returns the raw reference to generic
func (ts *TypeSystem) RawType(generic *Type, enclosing *Type, annotations ...*Annotation) *Type {
	ilerr.Check(generic.kind == KindGeneric, "cannot take the raw type of %s type %s", generic.kind, generic)
	ilerr.Check(!generic.HasTypeAnnotations(), "cannot derive a raw type from an already-annotated generic type %s", generic)
	if !ts.annotatable {
		annotations = nil
		if enclosing != nil {
			enclosing = ts.UnannotatedType(enclosing)
		}
	}
	if !hasAnnotations(annotations) {
		annotations = nil
	}
	var nakedEnclosing *Type
	if enclosing != nil {
		nakedEnclosing = ts.UnannotatedType(enclosing)
	}
	var naked *Type
	for _, derived := range ts.types[generic.id] {
		if derived.kind != KindRaw {
			continue
		}
		if derived.enclosing == enclosing && sameAnnotations(derived.annotations, annotations) {
			return derived
		}
		if derived.enclosing == nakedEnclosing && derived.annotations == nil {
			naked = derived
		}
	}
	if naked == nil {
		naked = ts.register(&Type{kind: KindRaw, generic: generic, enclosing: nakedEnclosing})
		ts.appendDerived(generic.id, naked)
		logger.Debug("created raw type", "type", naked, "id", naked.id)
	}
	if annotations == nil && enclosing == nakedEnclosing {
		return naked
	}
	return ts.cacheVariant(generic.id, naked, &Type{
		kind:        KindRaw,
		generic:     generic,
		enclosing:   enclosing,
		annotations: annotations,
	})
}

// Wildcard returns the wildcard at position rank of generic's arguments.
// generic may be nil for wildcards that stand on their own (as produced by lub).
func (ts *TypeSystem) Wildcard(generic *Type, rank int, bound *Type, otherBounds []*Type, kind BoundKind, annotations ...*Annotation) *Type {
	if generic == nil {
		generic = ts.lubGeneric
	}
	ilerr.Check((kind == Unbound) == (bound == nil), "wildcard kind %d with bound %s", kind, bound)
	ilerr.Check(!generic.HasTypeAnnotations(), "wildcard keyed on annotated generic type %s", generic)
	if len(otherBounds) == 0 {
		otherBounds = nil
	}
	if !ts.annotatable {
		annotations = nil
		if bound != nil {
			bound = ts.UnannotatedType(bound)
		}
		otherBounds = ts.unannotatedAll(otherBounds)
	}
	if !hasAnnotations(annotations) {
		annotations = nil
	}
	var nakedBound *Type
	if bound != nil {
		nakedBound = ts.UnannotatedType(bound)
	}
	nakedOthers := ts.unannotatedAll(otherBounds)

	var naked *Type
	for _, derived := range ts.types[generic.id] {
		if derived.kind != KindWildcard || derived.rank != rank || derived.boundKind != kind {
			continue
		}
		if derived.bound == bound && sameTypes(derived.otherBounds, otherBounds) && sameAnnotations(derived.annotations, annotations) {
			return derived
		}
		if derived.bound == nakedBound && sameTypes(derived.otherBounds, nakedOthers) && derived.annotations == nil {
			naked = derived
		}
	}
	if naked == nil {
		naked = ts.register(&Type{
			kind:        KindWildcard,
			generic:     generic,
			rank:        rank,
			boundKind:   kind,
			bound:       nakedBound,
			otherBounds: nakedOthers,
		})
		ts.appendDerived(generic.id, naked)
		logger.Debug("created wildcard", "type", naked, "id", naked.id)
	}
	if annotations == nil && bound == nakedBound && sameTypes(otherBounds, nakedOthers) {
		return naked
	}
	return ts.cacheVariant(generic.id, naked, &Type{
		kind:        KindWildcard,
		generic:     generic,
		rank:        rank,
		boundKind:   kind,
		bound:       bound,
		otherBounds: slices.Clone(otherBounds),
		annotations: annotations,
	})
}

// IntersectionType18 returns the intersection of the given types, in order
func (ts *TypeSystem) IntersectionType18(intersecting []*Type) *Type {
	ilerr.Check(len(intersecting) >= 2, "intersection of %d types", len(intersecting))
	key := ts.UnannotatedType(intersecting[0])
	for _, derived := range ts.types[key.id] {
		if derived.kind == KindIntersection && derived.bound == intersecting[0] && sameTypes(derived.otherBounds, intersecting[1:]) {
			return derived
		}
	}
	t := ts.register(&Type{
		kind:        KindIntersection,
		boundKind:   Extends,
		bound:       intersecting[0],
		otherBounds: slices.Clone(intersecting[1:]),
	})
	ts.appendDerived(key.id, t)
	logger.Debug("created intersection type", "type", t, "id", t.id)
	return t
}

// CapturedWildcard returns the capture of one wildcard occurrence. The same
// wildcard captured in the same source type, range and unit is always the same capture.
// Its bounds are initialised lazily by the lookup environment.
func (ts *TypeSystem) CapturedWildcard(wildcard, sourceType *Type, start, end token.Pos, unit *source.CompilationUnit, captureID int) *Type {
	ilerr.Check(wildcard.kind == KindWildcard, "cannot capture %s type %s", wildcard.kind, wildcard)
	nakedWildcard := ts.UnannotatedType(wildcard)
	for _, derived := range ts.types[nakedWildcard.id] {
		if derived.kind != KindCapture {
			continue
		}
		c := derived.capture
		if c.wildcard == wildcard && c.sourceType == sourceType && c.start == start && c.end == end && c.unit == unit {
			return derived
		}
	}
	t := ts.register(&Type{
		kind:     KindCapture,
		variable: &variableData{name: "capture", rank: wildcard.rank},
		capture: &captureData{
			wildcard:   wildcard,
			sourceType: sourceType,
			start:      start,
			end:        end,
			unit:       unit,
			captureID:  captureID,
		},
	})
	ts.appendDerived(nakedWildcard.id, t)
	logger.Debug("created capture", "type", t, "id", t.id)
	return t
}
