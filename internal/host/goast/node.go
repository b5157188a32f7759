// Package goast adapts Go source, parsed by go/parser and checked by go/types,
// to the engine's syntax and semantic contracts.
package goast

import (
	"cmp"
	"go/ast"
	"go/token"
	"go/types"
	"slices"

	"rulecheck/internal/syntax"
)

// Node is a syntax.Node backed by a go/ast node. Directive nodes have no
// ast.Node behind them.
type Node struct {
	kind     syntax.Kind
	text     string
	span     syntax.Span
	children []syntax.Node
	orig     ast.Node
}

func (n *Node) Kind() syntax.Kind       { return n.kind }
func (n *Node) Text() string            { return n.text }
func (n *Node) Span() syntax.Span       { return n.span }
func (n *Node) Children() []syntax.Node { return n.children }

// Orig returns the go/ast node, or nil for directive comments.
func (n *Node) Orig() ast.Node { return n.orig }

// Build converts file into an engine tree. Directive comments are added as
// attribute nodes under the file node, in source order with its other
// children.
func Build(fset *token.FileSet, file *ast.File) syntax.Tree {
	b := builder{fset: fset}

	var (
		root  *Node
		stack []*Node
	)
	ast.Inspect(file, func(n ast.Node) bool {
		if n == nil {
			stack = stack[:len(stack)-1]
			return true
		}
		node := b.convert(n)
		if len(stack) == 0 {
			root = node
		} else {
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, node)
		}
		stack = append(stack, node)
		return true
	})
	if root == nil {
		return syntax.Tree{}
	}

	if directives := b.directives(file); len(directives) > 0 {
		root.children = append(root.children, directives...)
		slices.SortStableFunc(root.children, func(a, c syntax.Node) int {
			return cmp.Compare(a.Span().Start.Offset, c.Span().Start.Offset)
		})
	}
	return syntax.Tree{Path: root.span.File, Root: root}
}

type builder struct {
	fset *token.FileSet
}

func (b *builder) span(from, to token.Pos) syntax.Span {
	// Unadjusted: //line directives must not move spans out of the file.
	start := b.fset.PositionFor(from, false)
	end := b.fset.PositionFor(to, false)
	return syntax.Span{
		File:  start.Filename,
		Start: syntax.Position{Line: start.Line, Column: start.Column, Offset: start.Offset},
		End:   syntax.Position{Line: end.Line, Column: end.Column, Offset: end.Offset},
	}
}

func (b *builder) convert(n ast.Node) *Node {
	node := &Node{orig: n, span: b.span(n.Pos(), n.End())}

	switch x := n.(type) {
	case *ast.File:
		node.kind = syntax.KindFile
		node.text = x.Name.Name
	case *ast.ParenExpr:
		node.kind = syntax.KindParenthesized
	case *ast.UnaryExpr:
		node.kind = syntax.KindUnary
		node.text = x.Op.String()
	case *ast.BinaryExpr:
		node.kind = syntax.KindBinary
		node.text = x.Op.String()
		// A comparison against a constant is Go's form of a constant pattern.
		if x.Op == token.EQL && (isConstant(x.X) || isConstant(x.Y)) {
			node.kind = syntax.KindIsPattern
		}
	case *ast.BasicLit:
		node.kind = syntax.KindLiteral
		node.text = x.Value
	case *ast.Ident:
		switch x.Name {
		case "nil":
			node.kind = syntax.KindNullLiteral
		case "true", "false":
			node.kind = syntax.KindLiteral
		default:
			node.kind = syntax.KindIdentifier
		}
		node.text = x.Name
	case *ast.SelectorExpr:
		node.kind = syntax.KindMemberAccess
		node.text = x.Sel.Name
	case *ast.CallExpr:
		node.kind = syntax.KindCall
		node.text = types.ExprString(ast.Unparen(x.Fun))
	case *ast.ForStmt, *ast.RangeStmt:
		node.kind = syntax.KindLoop
		node.text = "for"
	case *ast.FuncDecl:
		node.kind = syntax.KindFunction
		node.text = x.Name.Name
	case *ast.FuncLit:
		node.kind = syntax.KindFunction
		node.text = "func"
	case *ast.AssignStmt:
		node.kind = syntax.KindAssignment
		node.text = x.Tok.String()
	case *ast.BlockStmt:
		node.kind = syntax.KindBlock
	// Branch points carry their keyword so rules can count them.
	case *ast.IfStmt:
		node.kind = syntax.KindOther
		node.text = "if"
	case *ast.SwitchStmt, *ast.TypeSwitchStmt:
		node.kind = syntax.KindOther
		node.text = "switch"
	case *ast.CaseClause:
		node.kind = syntax.KindOther
		node.text = "case"
		if x.List == nil {
			node.text = "default"
		}
	case *ast.CommClause:
		node.kind = syntax.KindOther
		node.text = "case"
		if x.Comm == nil {
			node.text = "default"
		}
	default:
		node.kind = syntax.KindOther
	}
	return node
}

func isConstant(e ast.Expr) bool {
	switch x := ast.Unparen(e).(type) {
	case *ast.BasicLit:
		return true
	case *ast.Ident:
		return x.Name == "nil" || x.Name == "true" || x.Name == "false"
	}
	return false
}
