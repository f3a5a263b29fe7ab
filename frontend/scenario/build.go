package scenario

import (
	"fmt"
	"go/token"

	"github.com/cottand/jinfer/frontend/ast"
	"github.com/cottand/jinfer/frontend/lookup"
	"github.com/cottand/jinfer/frontend/types"
)

// builder turns the declarations and argument expressions of a scenario
// into declarations of an Environment and ast expressions
type builder struct {
	env     *lookup.Environment
	parser  *TypeParser
	global  *scope
	methods map[string]*types.Method
	pos     token.Pos
}

func newBuilder(env *lookup.Environment, parser *TypeParser) *builder {
	return &builder{
		env:     env,
		parser:  parser,
		global:  &scope{env: env},
		methods: make(map[string]*types.Method),
	}
}

func typeParamNames(params []TypeParam) []string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return names
}

// declare adds the classes and methods of s. Classes are declared before
// any type is parsed so that they can refer to each other.
func (b *builder) declare(s *Scenario) error {
	decls := make([]*types.Decl, len(s.Classes))
	for i, c := range s.Classes {
		if _, exists := b.env.LookupDecl(c.Name); exists {
			return fmt.Errorf("class %s is already declared", c.Name)
		}
		if c.Interface {
			decls[i] = b.env.DeclareInterface(c.Name, typeParamNames(c.TypeParams)...)
		} else {
			decls[i] = b.env.DeclareClass(c.Name, typeParamNames(c.TypeParams)...)
		}
		decls[i].Final = c.Final
	}
	for i, c := range s.Classes {
		if err := b.defineClass(decls[i], c); err != nil {
			return fmt.Errorf("class %s: %w", c.Name, err)
		}
	}
	for _, m := range s.Methods {
		if _, exists := b.methods[m.Name]; exists {
			return fmt.Errorf("method %s is already declared", m.Name)
		}
		declared, err := b.declareMethod(nil, m, b.global)
		if err != nil {
			return fmt.Errorf("method %s: %w", m.Name, err)
		}
		b.methods[m.Name] = declared
	}
	return nil
}

func (b *builder) defineClass(d *types.Decl, c Class) error {
	sc := b.global.with(d.TypeParameters)
	if err := b.setBounds(d.TypeParameters, c.TypeParams, sc); err != nil {
		return err
	}
	if c.Superclass != "" {
		super, err := b.parser.Parse(c.Superclass, sc)
		if err != nil {
			return err
		}
		d.Superclass = super
	}
	for _, i := range c.Interfaces {
		iface, err := b.parser.Parse(i, sc)
		if err != nil {
			return err
		}
		d.Interfaces = append(d.Interfaces, iface)
	}
	if c.SAM != nil {
		if !c.Interface {
			return fmt.Errorf("only interfaces have a single abstract method")
		}
		sam, err := b.declareMethod(d, *c.SAM, sc)
		if err != nil {
			return fmt.Errorf("method %s: %w", c.SAM.Name, err)
		}
		sam.Abstract = true
	}
	return nil
}

// setBounds parses the declared bounds of vars; a class bound comes first
// and becomes the superclass of the variable
func (b *builder) setBounds(vars []*types.Type, params []TypeParam, sc *scope) error {
	for i, p := range params {
		if len(p.Bounds) == 0 {
			continue
		}
		var superclass *types.Type
		var interfaces []*types.Type
		for j, text := range p.Bounds {
			bound, err := b.parser.Parse(text, sc)
			if err != nil {
				return fmt.Errorf("bound of %s: %w", p.Name, err)
			}
			isInterface := bound.Decl() != nil && bound.Decl().Interface
			if j == 0 && !isInterface {
				superclass = bound
			} else {
				interfaces = append(interfaces, bound)
			}
		}
		vars[i].SetBounds(superclass, interfaces)
	}
	return nil
}

func (b *builder) declareMethod(owner *types.Decl, m Method, outer *scope) (*types.Method, error) {
	declared := b.env.DeclareMethod(owner, m.Name, typeParamNames(m.TypeParams)...)
	declared.Static = owner == nil
	declared.Varargs = m.Varargs
	sc := outer.with(declared.TypeParameters)
	if err := b.setBounds(declared.TypeParameters, m.TypeParams, sc); err != nil {
		return nil, err
	}
	var err error
	if declared.Parameters, err = b.parseAll(m.Params, sc); err != nil {
		return nil, err
	}
	if declared.Thrown, err = b.parseAll(m.Throws, sc); err != nil {
		return nil, err
	}
	if declared.Return, err = b.parser.Parse(m.Returns, sc); err != nil {
		return nil, err
	}
	if m.Varargs && (len(declared.Parameters) == 0 || !declared.Parameters[len(declared.Parameters)-1].IsArray()) {
		return nil, fmt.Errorf("variable arity method needs an array as last parameter")
	}
	return declared, nil
}

func (b *builder) parseAll(texts []string, sc *scope) ([]*types.Type, error) {
	var parsed []*types.Type
	for _, text := range texts {
		t, err := b.parser.Parse(text, sc)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, t)
	}
	return parsed, nil
}

// advance hands out increasing positions, so that an expression's range
// encloses the ranges of its subexpressions
func (b *builder) advance() token.Pos {
	b.pos++
	return b.pos
}

func (b *builder) method(name string) (*types.Method, error) {
	m, ok := b.methods[name]
	if !ok {
		return nil, fmt.Errorf("unknown method %s", name)
	}
	return m, nil
}

func (b *builder) invocation(method string, typeArgs []string, args []Argument) (*ast.Invocation, error) {
	start := b.advance()
	m, err := b.method(method)
	if err != nil {
		return nil, err
	}
	inv := &ast.Invocation{Method: m}
	if inv.TypeArguments, err = b.parseAll(typeArgs, b.global); err != nil {
		return nil, err
	}
	for i, arg := range args {
		expr, err := b.expr(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d of %s: %w", i, method, err)
		}
		inv.Args = append(inv.Args, expr)
	}
	inv.Range = ast.Range{PosStart: start, PosEnd: b.advance()}
	return inv, nil
}

func (b *builder) expr(arg Argument) (ast.Expr, error) {
	set := 0
	for _, present := range []bool{arg.Type != "", arg.Lambda != nil, arg.Call != nil, arg.Conditional != nil, arg.Ref != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("an argument needs exactly one of type, lambda, call, conditional or ref")
	}

	switch {
	case arg.Type != "":
		start := b.advance()
		t, err := b.parser.Parse(arg.Type, b.global)
		if err != nil {
			return nil, err
		}
		return &ast.Typed{Range: ast.Range{PosStart: start, PosEnd: b.advance()}, Type: t}, nil
	case arg.Call != nil:
		return b.invocation(arg.Call.Method, arg.Call.TypeArgs, arg.Call.Args)
	case arg.Lambda != nil:
		return b.lambda(arg.Lambda)
	case arg.Conditional != nil:
		start := b.advance()
		then, err := b.expr(arg.Conditional.Then)
		if err != nil {
			return nil, err
		}
		els, err := b.expr(arg.Conditional.Else)
		if err != nil {
			return nil, err
		}
		return &ast.Conditional{Range: ast.Range{PosStart: start, PosEnd: b.advance()}, Then: then, Else: els}, nil
	default:
		return b.ref(arg.Ref)
	}
}

func (b *builder) lambda(l *Lambda) (*ast.Lambda, error) {
	start := b.advance()
	lambda := &ast.Lambda{
		Arity:           l.Arity,
		Implicit:        l.Arity > 0,
		ValueCompatible: len(l.Returns) > 0,
		VoidCompatible:  len(l.Returns) == 0,
	}
	if lambda.Implicit && len(l.Params) > 0 {
		return nil, fmt.Errorf("a lambda has either declared params or an arity")
	}
	var err error
	if lambda.Params, err = b.parseAll(l.Params, b.global); err != nil {
		return nil, err
	}
	if lambda.Thrown, err = b.parseAll(l.Throws, b.global); err != nil {
		return nil, err
	}
	for _, r := range l.Returns {
		result, err := b.expr(r)
		if err != nil {
			return nil, fmt.Errorf("lambda result: %w", err)
		}
		lambda.Results = append(lambda.Results, result)
	}
	lambda.Range = ast.Range{PosStart: start, PosEnd: b.advance()}
	return lambda, nil
}

func (b *builder) ref(r *Ref) (*ast.MethodReference, error) {
	start := b.advance()
	ref := &ast.MethodReference{UnboundReceiver: r.Unbound, Exact: r.Exact}
	if r.Class == "" {
		m, err := b.method(r.Method)
		if err != nil {
			return nil, err
		}
		ref.Method = m
	} else {
		d, ok := b.env.LookupDecl(r.Class)
		if !ok {
			return nil, fmt.Errorf("unknown class %s", r.Class)
		}
		for _, m := range d.Methods {
			if m.Name == r.Method {
				ref.Method = m
				break
			}
		}
		if ref.Method == nil {
			return nil, fmt.Errorf("class %s has no method %s", r.Class, r.Method)
		}
	}
	if r.Receiver != "" {
		receiver, err := b.parser.Parse(r.Receiver, b.global)
		if err != nil {
			return nil, err
		}
		ref.Receiver = receiver
	}
	ref.Range = ast.Range{PosStart: start, PosEnd: b.advance()}
	return ref, nil
}
