package types

import "slices"

// AnnotatedType returns t with annotations applied level by level.
//
// For arrays levels[0] is the flattened per-dimension list and the remaining
// levels apply to the leaf. For member types the levels are aligned so that
// the last one applies to t itself and earlier ones to its enclosing types,
// outermost first.
func (ts *TypeSystem) AnnotatedType(t *Type, levels [][]*Annotation) *Type {
	if !ts.annotatable {
		return ts.UnannotatedType(t)
	}
	if len(levels) == 0 {
		return t
	}
	switch t.kind {
	case KindArray:
		leaf := t.leaf
		if len(levels) > 1 {
			leaf = ts.AnnotatedType(leaf, levels[1:])
		}
		return ts.ArrayType(leaf, t.dims, levels[0]...)
	case KindParameterized:
		own, enclosing := ts.annotateEnclosing(t, levels)
		return ts.ParameterizedType(t.generic, t.args, enclosing, own...)
	case KindRaw:
		own, enclosing := ts.annotateEnclosing(t, levels)
		return ts.RawType(t.generic, enclosing, own...)
	case KindWildcard:
		generic := t.generic
		if generic == ts.lubGeneric {
			generic = nil
		}
		return ts.Wildcard(generic, t.rank, t.bound, t.otherBounds, t.boundKind, levels[0]...)
	}
	return ts.annotatedVariant(t, levels[0])
}

func (ts *TypeSystem) annotateEnclosing(t *Type, levels [][]*Annotation) ([]*Annotation, *Type) {
	own := levels[len(levels)-1]
	enclosing := t.enclosing
	if enclosing != nil && len(levels) > 1 {
		enclosing = ts.AnnotatedType(enclosing, levels[:len(levels)-1])
	}
	return own, enclosing
}

// annotatedVariant returns the variant of a leaf type carrying annotations.
// Variants of type variables share their bounds with the naked type.
func (ts *TypeSystem) annotatedVariant(t *Type, annotations []*Annotation) *Type {
	naked := ts.UnannotatedType(t)
	if !hasAnnotations(annotations) {
		return naked
	}
	for _, derived := range ts.types[naked.id] {
		if derived.id == naked.id && derived != naked && sameAnnotations(derived.annotations, annotations) {
			return derived
		}
	}
	variant := *naked
	variant.annotations = slices.Clone(annotations)
	return ts.cacheVariant(naked.id, naked, &variant)
}

// WithNullTags returns t annotated with the null annotation matching tags,
// or the naked type when tags is zero. Other annotations of t are dropped.
func (ts *TypeSystem) WithNullTags(t *Type, tags TagBits) *Type {
	if !ts.annotatable || t.kind == KindBase || t.kind == KindNull {
		return t
	}
	var annotation []*Annotation
	switch tags & NullMask {
	case AnnotatedNonNull:
		annotation = []*Annotation{ts.Annotation(NonNullAnnotation)}
	case AnnotatedNullable:
		annotation = []*Annotation{ts.Annotation(NullableAnnotation)}
	}
	if t.kind == KindArray {
		return ts.ArrayType(t.leaf, t.dims, annotation...)
	}
	naked := ts.UnannotatedType(t)
	if annotation == nil {
		return naked
	}
	return ts.AnnotatedType(naked, [][]*Annotation{annotation})
}
