package types

import (
	"strings"
)

// Decl is a class or interface declaration
type Decl struct {
	Name      string
	Interface bool
	Final     bool
	Abstract  bool
	// Missing marks a declaration that could not be resolved
	Missing bool

	TypeParameters []*Type
	Superclass     *Type
	Interfaces     []*Type
	Enclosing      *Decl
	Methods        []*Method

	binding *Type
}

// Type is the naked class (or generic, when the declaration has type parameters) binding
func (d *Decl) Type() *Type { return d.binding }

func (d *Decl) IsGeneric() bool { return len(d.TypeParameters) > 0 }

func (d *Decl) String() string { return d.Name }

// AddMethod appends m to the declaration and makes d its declaring class
func (d *Decl) AddMethod(m *Method) *Method {
	m.Declaring = d
	d.Methods = append(d.Methods, m)
	return m
}

// Method is a method or constructor declaration
type Method struct {
	Name           string
	Declaring      *Decl
	TypeParameters []*Type
	Parameters     []*Type
	Return         *Type
	Thrown         []*Type
	Varargs        bool
	Static         bool
	Abstract       bool
	Constructor    bool
}

func (m *Method) IsGeneric() bool { return len(m.TypeParameters) > 0 }

func (m *Method) String() string {
	sb := &strings.Builder{}
	if len(m.TypeParameters) > 0 {
		sb.WriteString("<")
		sb.WriteString(JoinTypes(m.TypeParameters, ","))
		sb.WriteString("> ")
	}
	if m.Return != nil {
		sb.WriteString(m.Return.String())
		sb.WriteString(" ")
	}
	sb.WriteString(m.Name)
	sb.WriteString("(")
	sb.WriteString(JoinTypes(m.Parameters, ", "))
	if m.Varargs {
		sb.WriteString("...")
	}
	sb.WriteString(")")
	if len(m.Thrown) > 0 {
		sb.WriteString(" throws ")
		sb.WriteString(JoinTypes(m.Thrown, ", "))
	}
	return sb.String()
}

// Annotation is an interned type-use annotation, compared by pointer.
// A nil *Annotation separates array dimensions in flattened annotation lists.
type Annotation struct {
	Name    string
	nullTag TagBits
}

func (a *Annotation) String() string {
	if a == nil {
		return "|"
	}
	return "@" + a.Name
}

// Annotation names recognised as null annotations
const (
	NonNullAnnotation  = "NonNull"
	NullableAnnotation = "Nullable"
)

func sameAnnotations(a, b []*Annotation) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func hasAnnotations(annotations []*Annotation) bool {
	for _, a := range annotations {
		if a != nil {
			return true
		}
	}
	return false
}

// ParameterizedMethod is a generic method instantiated for one invocation
type ParameterizedMethod struct {
	Original      *Method
	TypeArguments []*Type
	Parameters    []*Type
	Return        *Type
	Thrown        []*Type
	// Unchecked is set when applicability needed an unchecked conversion,
	// in which case Return and Thrown are erased
	Unchecked bool
}

func (m *ParameterizedMethod) String() string {
	sb := &strings.Builder{}
	if len(m.TypeArguments) > 0 {
		sb.WriteString("<")
		sb.WriteString(JoinTypes(m.TypeArguments, ","))
		sb.WriteString(">")
	}
	if m.Return != nil {
		sb.WriteString(m.Return.String())
		sb.WriteString(" ")
	}
	sb.WriteString(m.Original.Name)
	sb.WriteString("(")
	sb.WriteString(JoinTypes(m.Parameters, ", "))
	sb.WriteString(")")
	return sb.String()
}
