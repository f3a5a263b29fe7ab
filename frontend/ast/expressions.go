package ast

import (
	"hash/fnv"

	"github.com/cottand/jinfer/frontend/types"
)

// Typed is a standalone expression whose type is already known,
// such as a variable, a literal or a cast
type Typed struct {
	Range
	Text string
	Type *types.Type
}

func (e *Typed) exprNode()        {}
func (e *Typed) ExprName() string { return "typed" }

func (e *Typed) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(e.Text))
	return hashOf("Typed", e.Range, h.Sum64(), uint64(e.Type.ID()))
}

// Invocation is a method or constructor invocation. Binding is the result
// slot filled by inference: the instantiation of Method chosen for this call.
type Invocation struct {
	Range
	Method *types.Method
	// TypeArguments are explicit type arguments, nil when they are inferred
	TypeArguments []*types.Type
	Args          []Expr

	Binding *types.ParameterizedMethod
}

func (e *Invocation) exprNode()        {}
func (e *Invocation) ExprName() string { return "invocation" }

func (e *Invocation) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(e.Method.Name))
	return hashOf("Invocation", e.Range, append(hashAll(e.Args), h.Sum64())...)
}

// Lambda is a lambda expression. Only what inference needs of its body is
// kept: the expressions it returns and the checked exceptions it throws.
type Lambda struct {
	Range
	// Params are the declared parameter types of an explicitly typed lambda
	Params []*types.Type
	// Arity is the number of parameters of an implicitly typed lambda
	Arity    int
	Implicit bool

	// Results are the expressions returned by the body; an expression body is a single result
	Results         []Expr
	VoidCompatible  bool
	ValueCompatible bool
	// Thrown are the checked exceptions the body may throw
	Thrown []*types.Type
}

func (e *Lambda) exprNode()        {}
func (e *Lambda) ExprName() string { return "lambda" }

func (e *Lambda) Hash() uint64 {
	return hashOf("Lambda", e.Range, hashAll(e.Results)...)
}

// ParameterCount is the arity of the lambda whether or not it is explicitly typed
func (e *Lambda) ParameterCount() int {
	if e.Implicit {
		return e.Arity
	}
	return len(e.Params)
}

// MethodReference is a method reference `Type::method`. With UnboundReceiver
// the first parameter of the function type is the receiver of Method.
type MethodReference struct {
	Range
	Method          *types.Method
	Receiver        *types.Type
	UnboundReceiver bool
	// Exact references (JLS 15.13.1) name a single, non-generic method
	Exact bool
}

func (e *MethodReference) exprNode()        {}
func (e *MethodReference) ExprName() string { return "method reference" }

func (e *MethodReference) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(e.Method.Name))
	return hashOf("MethodReference", e.Range, h.Sum64())
}

// Conditional is `cond ? Then : Else`; the condition does not take part in inference
type Conditional struct {
	Range
	Then, Else Expr
}

func (e *Conditional) exprNode()        {}
func (e *Conditional) ExprName() string { return "conditional" }

func (e *Conditional) Hash() uint64 {
	return hashOf("Conditional", e.Range, e.Then.Hash(), e.Else.Hash())
}
