package lookup

import (
	"github.com/cottand/jinfer/frontend/source"
	"github.com/cottand/jinfer/frontend/types"
)

// Capture applies capture conversion (JLS 5.1.10) to the occurrence of t at
// the given range. Capturing the same occurrence again yields the same
// captures. Types without wildcard arguments are returned unchanged.
func (e *Environment) Capture(t *types.Type, at source.Range, unit *source.CompilationUnit) *types.Type {
	if !t.IsParameterized() || t.IsDiamond() || !t.HasTag(types.HasWildcard) {
		return t
	}
	args := t.Arguments()
	captured := make([]*types.Type, len(args))
	var captures []*types.Type
	for i, arg := range args {
		if !arg.IsWildcard() {
			captured[i] = arg
			continue
		}
		id := e.captureID + 1
		c := e.TS.CapturedWildcard(arg, t, at.Pos(), at.End(), unit, id)
		if c.CaptureID() == id {
			e.captureID = id
		}
		captured[i] = c
		captures = append(captures, c)
	}
	if captures == nil {
		return t
	}
	result := e.TS.ParameterizedType(t.Generic(), captured, t.Enclosing(), t.Annotations()...)
	for _, c := range captures {
		e.initCaptureBounds(c, result)
	}
	logger.Debug("captured", "type", t, "result", result)
	return result
}

// CaptureBounds returns the upper bounds of a capture, computing them on first use
func (e *Environment) CaptureBounds(c *types.Type) []*types.Type {
	if !c.BoundsSet() && !c.IsFreshCapture() {
		e.Capture(c.CaptureSourceType(), c.CaptureRange(), c.CaptureUnit())
	}
	return c.UpperBounds()
}

func (e *Environment) initCaptureBounds(c, captured *types.Type) {
	if c.BoundsSet() {
		return
	}
	// provisional bounds stop F-bounded parameters from re-entering here
	c.SetBounds(e.Object, nil)
	wildcard := c.CaptureWildcard()
	decl := captured.Decl()
	parameter := decl.TypeParameters[wildcard.Rank()]
	s := types.NewVarSubstitution(decl.TypeParameters, captured.Arguments())

	var declared []*types.Type
	for _, bound := range parameter.UpperBounds() {
		declared = append(declared, e.TS.Substitute(s, bound))
	}
	var bounds []*types.Type
	switch wildcard.BoundKind() {
	case types.Extends:
		bounds = append(bounds, wildcard.Bound())
		bounds = append(bounds, wildcard.OtherBounds()...)
		for _, b := range declared {
			if !e.IsSubtype(wildcard.Bound(), b) {
				bounds = append(bounds, b)
			}
		}
	case types.Super:
		bounds = declared
		c.SetLowerBound(wildcard.Bound())
	default:
		bounds = declared
	}
	superclass, interfaces := e.splitBounds(bounds)
	c.SetBounds(superclass, interfaces)
}

// splitBounds separates a class-like bound from interface bounds, dropping
// Object when a more specific bound exists
func (e *Environment) splitBounds(bounds []*types.Type) (*types.Type, []*types.Type) {
	var superclass *types.Type
	var interfaces []*types.Type
	for _, b := range bounds {
		if d := b.Decl(); d != nil && d.Interface {
			interfaces = append(interfaces, b)
			continue
		}
		if superclass == nil || types.SameNakedType(superclass, e.Object) {
			superclass = b
		} else if !types.SameNakedType(b, e.Object) {
			interfaces = append(interfaces, b)
		}
	}
	if superclass != nil && types.SameNakedType(superclass, e.Object) && len(interfaces) > 0 {
		superclass = nil
	}
	return superclass, interfaces
}
