package lookup

import (
	"github.com/cottand/jinfer/frontend/ilerr"
	"github.com/cottand/jinfer/frontend/types"
	"github.com/cottand/jinfer/internal/log"
)

var logger = log.Section("typesystem.lookup")

// Environment answers the questions inference asks about declared types:
// subtyping, compatibility, supertypes, erasure, capture conversion and lub/glb.
// It routes every type construction through its TypeSystem.
type Environment struct {
	TS *types.TypeSystem

	decls     map[string]*types.Decl
	captureID int

	Object, String, CharSequence, Comparable, Serializable, Cloneable *types.Type
	Number, Integer, Long, Double, Float, Short, Byte, Character, Boolean *types.Type
	Iterable, Collection, List, ArrayList, Map, HashMap                   *types.Type
	Throwable, Exception, RuntimeException, IOException, Error           *types.Type
	Runnable, Supplier, Consumer, Function, BiFunction, Callable         *types.Type

	boxes map[types.Primitive]*types.Type
}

func NewEnvironment(ts *types.TypeSystem) *Environment {
	e := &Environment{
		TS:    ts,
		decls: make(map[string]*types.Decl),
		boxes: make(map[types.Primitive]*types.Type),
	}
	e.declareWellKnown()
	return e
}

// DeclareClass declares a class with the given type parameter names. The
// type parameters are bounded by Object and the superclass is Object; both can
// be replaced on the returned declaration since they may mention the parameters.
func (e *Environment) DeclareClass(name string, typeParameters ...string) *types.Decl {
	d := e.declare(name, typeParameters)
	if e.Object != nil {
		d.Superclass = e.Object
	}
	return d
}

// DeclareInterface declares an interface, see DeclareClass
func (e *Environment) DeclareInterface(name string, typeParameters ...string) *types.Decl {
	d := e.declare(name, typeParameters)
	d.Interface = true
	d.Abstract = true
	return d
}

func (e *Environment) declare(name string, typeParameters []string) *types.Decl {
	_, exists := e.decls[name]
	ilerr.Check(!exists, "type %s declared twice", name)
	d := &types.Decl{Name: name}
	for i, p := range typeParameters {
		d.TypeParameters = append(d.TypeParameters, e.TS.TypeVariable(p, d, i))
	}
	e.TS.DeclareType(d)
	for _, p := range d.TypeParameters {
		if e.Object != nil {
			p.SetBounds(e.Object, nil)
		}
	}
	e.decls[name] = d
	logger.Debug("declared type", "name", name, "typeParameters", len(typeParameters))
	return d
}

// DeclareMethod adds a method to owner; a nil owner declares a free-standing
// method, as scenario files do. Parameters, return and thrown types are set
// on the result since they may mention the method's type parameters.
func (e *Environment) DeclareMethod(owner *types.Decl, name string, typeParameters ...string) *types.Method {
	m := &types.Method{Name: name}
	for i, p := range typeParameters {
		tv := e.TS.TypeVariable(p, m, i)
		tv.SetBounds(e.Object, nil)
		m.TypeParameters = append(m.TypeParameters, tv)
	}
	if owner != nil {
		owner.AddMethod(m)
	}
	return m
}

// LookupDecl finds a declaration by simple name
func (e *Environment) LookupDecl(name string) (*types.Decl, bool) {
	d, ok := e.decls[name]
	return d, ok
}

// Parameterize is shorthand for the parameterization of a declared generic type
func (e *Environment) Parameterize(generic *types.Type, args ...*types.Type) *types.Type {
	return e.TS.ParameterizedType(generic, args, nil)
}

func (e *Environment) Primitive(p types.Primitive) *types.Type { return e.TS.BaseType(p) }

func (e *Environment) Null() *types.Type { return e.TS.NullType() }

func (e *Environment) nextCaptureID() int {
	e.captureID++
	return e.captureID
}

// UpperBounds are the upper bounds of a type variable, capture or inference
// variable's type parameter, Object when none were declared
func (e *Environment) UpperBounds(v *types.Type) []*types.Type {
	if v.IsCapture() && !v.IsFreshCapture() {
		e.CaptureBounds(v)
	}
	bounds := v.UpperBounds()
	if len(bounds) == 0 {
		return []*types.Type{e.Object}
	}
	return bounds
}

// IsThrowable reports whether t is a subtype of Throwable
func (e *Environment) IsThrowable(t *types.Type) bool {
	return e.IsSubtype(t, e.Throwable)
}

// IsUnchecked reports whether t is an unchecked exception type
func (e *Environment) IsUnchecked(t *types.Type) bool {
	return e.IsSubtype(t, e.RuntimeException) || e.IsSubtype(t, e.Error)
}

// FreshCapture creates a capture-like placeholder with the next capture id;
// the caller sets its bounds
func (e *Environment) FreshCapture(name string) *types.Type {
	return e.TS.FreshCapture(name, e.nextCaptureID())
}
