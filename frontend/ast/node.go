package ast

import (
	"encoding/binary"
	"hash/fnv"

	"github.com/cottand/jinfer/frontend/source"
)

type Range = source.Range

// Node is the base interface for all AST nodes.
type Node interface {
	source.Positioner
	Hash() uint64
}

// Expr is an expression appearing as the argument of an invocation, or as
// the invocation itself
type Expr interface {
	Node
	exprNode() // Marker method to distinguish expressions
	ExprName() string
}

func hashOf(name string, r Range, children ...uint64) uint64 {
	h := fnv.New64a()
	arr := []byte(name)
	arr = binary.LittleEndian.AppendUint64(arr, r.Hash())
	for _, child := range children {
		arr = binary.LittleEndian.AppendUint64(arr, child)
	}
	_, _ = h.Write(arr)
	return h.Sum64()
}

func hashAll(exprs []Expr) []uint64 {
	hashes := make([]uint64, len(exprs))
	for i, e := range exprs {
		hashes[i] = e.Hash()
	}
	return hashes
}

// Walk visits e and its subexpressions depth first, until visit returns false
func Walk(e Expr, visit func(Expr) bool) bool {
	if !visit(e) {
		return false
	}
	var children []Expr
	switch e := e.(type) {
	case *Invocation:
		children = e.Args
	case *Lambda:
		children = e.Results
	case *Conditional:
		children = []Expr{e.Then, e.Else}
	}
	for _, child := range children {
		if !Walk(child, visit) {
			return false
		}
	}
	return true
}
