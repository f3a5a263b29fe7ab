package scenario

import (
	"fmt"
	"strings"

	"github.com/cottand/jinfer/frontend/lookup"
	"github.com/cottand/jinfer/frontend/types"
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
)

// TypeParser reads Java type expressions such as `Map<String, ? extends T>[]`
// with the tree-sitter Java grammar
type TypeParser struct {
	parser *sitter.Parser
}

func NewTypeParser() (*TypeParser, error) {
	p := sitter.NewParser()
	if err := p.SetLanguage(sitter.NewLanguage(tree_sitter_java.Language())); err != nil {
		p.Close()
		return nil, fmt.Errorf("could not load java grammar: %w", err)
	}
	return &TypeParser{parser: p}, nil
}

func (p *TypeParser) Close() {
	if p != nil && p.parser != nil {
		p.parser.Close()
	}
}

// scope resolves simple names to type variables first, then to declared types
type scope struct {
	env       *lookup.Environment
	variables map[string]*types.Type
	outer     *scope
}

func (s *scope) with(vars []*types.Type) *scope {
	inner := &scope{env: s.env, variables: make(map[string]*types.Type, len(vars)), outer: s}
	for _, v := range vars {
		inner.variables[v.VariableName()] = v
	}
	return inner
}

func (s *scope) lookup(name string) (*types.Type, bool) {
	for sc := s; sc != nil; sc = sc.outer {
		if v, ok := sc.variables[name]; ok {
			return v, true
		}
	}
	if d, ok := s.env.LookupDecl(name); ok {
		return d.Type(), true
	}
	return nil, false
}

// Parse converts a type expression; the empty string and `void` are void
func (p *TypeParser) Parse(text string, sc *scope) (*types.Type, error) {
	text = strings.TrimSpace(text)
	if text == "" || text == "void" {
		return sc.env.Primitive(types.Void), nil
	}
	source := []byte("class X { " + text + " f; }")
	tree := p.parser.Parse(source, nil)
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.HasError() {
		return nil, fmt.Errorf("could not parse type %q", text)
	}
	field := findKind(root, "field_declaration")
	if field == nil {
		return nil, fmt.Errorf("could not parse type %q", text)
	}
	typeNode := field.ChildByFieldName("type")
	if typeNode == nil {
		return nil, fmt.Errorf("could not parse type %q", text)
	}
	conv := &converter{source: source, scope: sc}
	return conv.convert(typeNode)
}

func findKind(n *sitter.Node, kind string) *sitter.Node {
	if n.Kind() == kind {
		return n
	}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		if found := findKind(n.NamedChild(i), kind); found != nil {
			return found
		}
	}
	return nil
}

type converter struct {
	source []byte
	scope  *scope
}

func (c *converter) text(n *sitter.Node) string { return n.Utf8Text(c.source) }

func (c *converter) convert(n *sitter.Node) (*types.Type, error) {
	env := c.scope.env
	switch n.Kind() {
	case "type_identifier", "scoped_type_identifier":
		name := c.text(n)
		if i := strings.LastIndexByte(name, '.'); i >= 0 {
			name = name[i+1:]
		}
		t, ok := c.scope.lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown type %s", name)
		}
		if t.IsGenericDeclaration() {
			return env.TS.RawType(t, nil), nil
		}
		return t, nil
	case "generic_type":
		return c.convertGeneric(n)
	case "array_type":
		element, err := c.convert(n.ChildByFieldName("element"))
		if err != nil {
			return nil, err
		}
		dims := strings.Count(c.text(n.ChildByFieldName("dimensions")), "[")
		if element.IsArray() {
			return env.TS.ArrayType(element.Leaf(), element.Dimensions()+dims), nil
		}
		return env.TS.ArrayType(element, dims), nil
	case "integral_type", "floating_point_type", "boolean_type", "void_type":
		name := c.text(n)
		for _, p := range types.Primitives() {
			if p.String() == name {
				return env.Primitive(p), nil
			}
		}
		return nil, fmt.Errorf("unknown primitive type %s", name)
	case "annotated_type":
		return c.convert(n.NamedChild(n.NamedChildCount() - 1))
	}
	return nil, fmt.Errorf("unsupported type syntax %s: %s", n.Kind(), c.text(n))
}

func (c *converter) convertGeneric(n *sitter.Node) (*types.Type, error) {
	env := c.scope.env
	if n.NamedChildCount() != 2 {
		return nil, fmt.Errorf("unsupported type syntax: %s", c.text(n))
	}
	name, arguments := n.NamedChild(0), n.NamedChild(1)
	generic, err := c.convert(name)
	if err != nil {
		return nil, err
	}
	if !generic.IsRaw() {
		return nil, fmt.Errorf("type %s is not generic", c.text(name))
	}
	generic = generic.Generic()
	decl := generic.Decl()
	if arguments.NamedChildCount() != uint(len(decl.TypeParameters)) {
		return nil, fmt.Errorf("type %s expects %d type arguments", decl.Name, len(decl.TypeParameters))
	}
	args := make([]*types.Type, 0, len(decl.TypeParameters))
	for i := uint(0); i < arguments.NamedChildCount(); i++ {
		arg := arguments.NamedChild(i)
		var converted *types.Type
		if arg.Kind() == "wildcard" {
			converted, err = c.convertWildcard(generic, int(i), arg)
		} else {
			converted, err = c.convert(arg)
		}
		if err != nil {
			return nil, err
		}
		args = append(args, converted)
	}
	return env.Parameterize(generic, args...), nil
}

func (c *converter) convertWildcard(generic *types.Type, rank int, n *sitter.Node) (*types.Type, error) {
	ts := c.scope.env.TS
	count := n.NamedChildCount()
	if count == 0 {
		return ts.Wildcard(generic, rank, nil, nil, types.Unbound), nil
	}
	bound, err := c.convert(n.NamedChild(count - 1))
	if err != nil {
		return nil, err
	}
	kind := types.Extends
	if strings.HasPrefix(strings.TrimSpace(strings.TrimPrefix(c.text(n), "?")), "super") {
		kind = types.Super
	}
	return ts.Wildcard(generic, rank, bound, nil, kind), nil
}

// ParseTypes parses type expressions that only name declared types of env
func ParseTypes(env *lookup.Environment, texts ...string) ([]*types.Type, error) {
	p, err := NewTypeParser()
	if err != nil {
		return nil, err
	}
	defer p.Close()
	sc := &scope{env: env}
	parsed := make([]*types.Type, len(texts))
	for i, text := range texts {
		if parsed[i], err = p.Parse(text, sc); err != nil {
			return nil, err
		}
	}
	return parsed, nil
}
