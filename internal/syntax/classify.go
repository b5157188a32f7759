package syntax

import "fmt"

// CategoryVersion is bumped whenever a category is added. Categories are only
// ever appended.
const CategoryVersion = 1

// Category is the syntactic shape a rule cares about.
type Category int

const (
	CategoryUnrecognized Category = iota
	CategoryNegationPattern
	CategoryConstantPattern
	CategoryConditionalAccess
	CategoryAttributeApplication
	CategoryAttributeArgument
	CategoryInvocation
	CategoryMemberAccess
	CategoryIdentifier
	CategoryLiteral
	CategoryUnary
	CategoryBinary
	CategoryAssignment
	CategoryLoop
	CategoryFunction
	CategoryBlock
	CategoryFile
)

var categoryNames = [...]string{
	CategoryUnrecognized:         "unrecognized",
	CategoryNegationPattern:      "negation_pattern",
	CategoryConstantPattern:      "constant_pattern",
	CategoryConditionalAccess:    "conditional_access",
	CategoryAttributeApplication: "attribute_application",
	CategoryAttributeArgument:    "attribute_argument",
	CategoryInvocation:           "invocation",
	CategoryMemberAccess:         "member_access",
	CategoryIdentifier:           "identifier",
	CategoryLiteral:              "literal",
	CategoryUnary:                "unary",
	CategoryBinary:               "binary",
	CategoryAssignment:           "assignment",
	CategoryLoop:                 "loop",
	CategoryFunction:             "function",
	CategoryBlock:                "block",
	CategoryFile:                 "file",
}

func (c Category) String() string {
	if c >= 0 && int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// JustificationName is the attribute argument name that carries a
// suppression justification.
const JustificationName = "Justification"

// Classify maps the normalized shape of n to exactly one category. It never
// looks at parents or semantic information.
func Classify(n Node) Category {
	n = Normalize(n)
	if n == nil {
		return CategoryUnrecognized
	}

	switch n.Kind() {
	case KindUnary:
		if isNegationOperator(n.Text()) {
			return CategoryNegationPattern
		}
		return CategoryUnary
	case KindNotPattern:
		return CategoryNegationPattern
	case KindConstantPattern, KindIsPattern:
		if _, ok := HeldConstant(n); ok {
			return CategoryConstantPattern
		}
		return CategoryUnrecognized
	case KindLiteral, KindNullLiteral:
		return CategoryLiteral
	case KindBinary:
		return CategoryBinary
	case KindIdentifier:
		return CategoryIdentifier
	case KindMemberAccess:
		return CategoryMemberAccess
	case KindConditionalAccess:
		return CategoryConditionalAccess
	case KindCall:
		return CategoryInvocation
	case KindAttribute:
		return CategoryAttributeApplication
	case KindAttributeArgument:
		return CategoryAttributeArgument
	case KindAssignment:
		return CategoryAssignment
	case KindLoop:
		return CategoryLoop
	case KindFunction:
		return CategoryFunction
	case KindBlock:
		return CategoryBlock
	case KindFile:
		return CategoryFile
	default:
		return CategoryUnrecognized
	}
}

func isNegationOperator(op string) bool {
	return op == "!" || op == "not"
}

// HeldConstant returns the literal held by a constant pattern or by an
// is-pattern whose pattern side is a constant.
func HeldConstant(n Node) (Node, bool) {
	n = Normalize(n)
	if n == nil {
		return nil, false
	}

	switch n.Kind() {
	case KindConstantPattern:
		inner := Normalize(Child(n, 0))
		if isConstant(inner) {
			return inner, true
		}
	case KindIsPattern:
		// The pattern side is usually on the right; hosts that allow
		// "nil == x" put the constant on the left.
		for _, i := range []int{1, 0} {
			side := Normalize(Child(n, i))
			if side == nil {
				continue
			}
			if side.Kind() == KindConstantPattern {
				return HeldConstant(side)
			}
			if isConstant(side) {
				return side, true
			}
		}
	}
	return nil, false
}

func isConstant(n Node) bool {
	return n != nil && (n.Kind() == KindLiteral || n.Kind() == KindNullLiteral)
}

// IsNullPattern reports whether n is a constant pattern testing for the null
// value.
func IsNullPattern(n Node) bool {
	if Classify(n) != CategoryConstantPattern {
		return false
	}
	c, ok := HeldConstant(n)
	return ok && c.Kind() == KindNullLiteral
}

// IsNegationPattern reports whether n is a negation.
func IsNegationPattern(n Node) bool {
	return Classify(n) == CategoryNegationPattern
}

// Operand returns the normalized operand of a negation.
func Operand(n Node) (Node, bool) {
	n = Normalize(n)
	if !IsNegationPattern(n) {
		return nil, false
	}
	children := n.Children()
	if len(children) == 0 {
		return nil, false
	}
	inner := Normalize(children[len(children)-1])
	return inner, inner != nil
}

// JustificationArgument returns the expression bound to the attribute's only
// argument when that argument is named Justification.
func JustificationArgument(attr Node) (Node, bool) {
	attr = Normalize(attr)
	if Classify(attr) != CategoryAttributeApplication {
		return nil, false
	}

	var args []Node
	for _, c := range attr.Children() {
		if c != nil && c.Kind() == KindAttributeArgument {
			args = append(args, c)
		}
	}
	if len(args) != 1 || args[0].Text() != JustificationName {
		return nil, false
	}

	expr := Normalize(Child(args[0], 0))
	return expr, expr != nil
}
