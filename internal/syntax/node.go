package syntax

import "fmt"

// Kind is the host-level shape of a node. Hosts map their own node types onto
// this closed set; anything else is KindOther.
type Kind int

const (
	KindOther Kind = iota
	KindParenthesized
	KindUnary
	KindBinary
	KindIsPattern
	KindConstantPattern
	KindNotPattern
	KindLiteral
	KindNullLiteral
	KindIdentifier
	KindMemberAccess
	KindConditionalAccess
	KindCall
	KindAttribute
	KindAttributeArgument
	KindAssignment
	KindLoop
	KindFunction
	KindBlock
	KindFile
)

var kindNames = [...]string{
	KindOther:             "other",
	KindParenthesized:     "parenthesized",
	KindUnary:             "unary",
	KindBinary:            "binary",
	KindIsPattern:         "is_pattern",
	KindConstantPattern:   "constant_pattern",
	KindNotPattern:        "not_pattern",
	KindLiteral:           "literal",
	KindNullLiteral:       "null_literal",
	KindIdentifier:        "identifier",
	KindMemberAccess:      "member_access",
	KindConditionalAccess: "conditional_access",
	KindCall:              "call",
	KindAttribute:         "attribute",
	KindAttributeArgument: "attribute_argument",
	KindAssignment:        "assignment",
	KindLoop:              "loop",
	KindFunction:          "function",
	KindBlock:             "block",
	KindFile:              "file",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Position is a point in a source file. Offset is a byte offset from the
// start of the file.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
	Offset int `json:"offset"`
}

// Span is a half-open source range.
type Span struct {
	File  string   `json:"file"`
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Valid reports whether the span can be rendered by a host.
func (s Span) Valid() bool {
	if s.Start.Line < 1 || s.End.Line < 1 {
		return false
	}
	if s.Start.Offset < 0 || s.End.Offset < s.Start.Offset {
		return false
	}
	return s.End.Line >= s.Start.Line
}

// Lines returns the number of source lines the span touches.
func (s Span) Lines() int {
	if !s.Valid() {
		return 0
	}
	return s.End.Line - s.Start.Line + 1
}

func (s Span) String() string {
	return fmt.Sprintf("%s:%d:%d", s.File, s.Start.Line, s.Start.Column)
}

// Node is an immutable node of a host syntax tree.
//
// Text carries the one piece of surface text a kind needs: the operator of a
// unary or binary node, the name of an identifier, member, function or
// attribute, the source of a literal.
type Node interface {
	Kind() Kind
	Text() string
	Children() []Node
	Span() Span
}

// Tree is one syntax tree handed to the engine.
type Tree struct {
	Path string
	Root Node
}

// Basic is a plain Node for hosts that build engine trees directly.
type Basic struct {
	kind     Kind
	text     string
	span     Span
	children []Node
}

// New builds a Basic node. The children slice is copied.
func New(kind Kind, text string, span Span, children ...Node) *Basic {
	b := &Basic{kind: kind, text: text, span: span}
	if len(children) > 0 {
		b.children = append([]Node(nil), children...)
	}
	return b
}

func (b *Basic) Kind() Kind       { return b.kind }
func (b *Basic) Text() string     { return b.text }
func (b *Basic) Span() Span       { return b.span }
func (b *Basic) Children() []Node { return b.children }

// Child returns the i-th child of n or nil.
func Child(n Node, i int) Node {
	if n == nil {
		return nil
	}
	children := n.Children()
	if i < 0 || i >= len(children) {
		return nil
	}
	return children[i]
}
