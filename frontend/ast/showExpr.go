package ast

import (
	"strings"

	"github.com/cottand/jinfer/frontend/types"
)

// ExprString renders an expression for logs and diagnostics
func ExprString(expr Expr) string {
	ctx := &showContext{Builder: &strings.Builder{}}
	ctx.showExprWalker(expr)
	return ctx.String()
}

type showContext struct {
	*strings.Builder
}

func (ctx *showContext) showExprWalker(expr Expr) {
	if expr == nil {
		ctx.WriteString("nil")
		return
	}
	switch expr := expr.(type) {
	case *Typed:
		if expr.Text != "" {
			ctx.WriteString(expr.Text)
			return
		}
		ctx.WriteString("(")
		ctx.WriteString(expr.Type.String())
		ctx.WriteString(") _")
	case *Invocation:
		if len(expr.TypeArguments) > 0 {
			ctx.WriteString("<")
			ctx.WriteString(types.JoinTypes(expr.TypeArguments, ","))
			ctx.WriteString(">")
		}
		ctx.WriteString(expr.Method.Name)
		ctx.WriteString("(")
		for i, arg := range expr.Args {
			if i > 0 {
				ctx.WriteString(", ")
			}
			ctx.showExprWalker(arg)
		}
		ctx.WriteString(")")
	case *Lambda:
		ctx.WriteString("(")
		if expr.Implicit {
			for i := range expr.Arity {
				if i > 0 {
					ctx.WriteString(", ")
				}
				ctx.WriteString("p")
				ctx.WriteByte(byte('0' + i%10))
			}
		} else {
			ctx.WriteString(types.JoinTypes(expr.Params, ", "))
		}
		ctx.WriteString(") -> ")
		switch len(expr.Results) {
		case 0:
			ctx.WriteString("{}")
		case 1:
			ctx.showExprWalker(expr.Results[0])
		default:
			ctx.WriteString("{ ")
			for i, result := range expr.Results {
				if i > 0 {
					ctx.WriteString("; ")
				}
				ctx.WriteString("return ")
				ctx.showExprWalker(result)
			}
			ctx.WriteString(" }")
		}
	case *MethodReference:
		if expr.Receiver != nil {
			ctx.WriteString(expr.Receiver.String())
		} else if expr.Method.Declaring != nil {
			ctx.WriteString(expr.Method.Declaring.Name)
		}
		ctx.WriteString("::")
		ctx.WriteString(expr.Method.Name)
	case *Conditional:
		ctx.WriteString("c ? ")
		ctx.showExprWalker(expr.Then)
		ctx.WriteString(" : ")
		ctx.showExprWalker(expr.Else)
	default:
		ctx.WriteString(expr.ExprName())
	}
}
