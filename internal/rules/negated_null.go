package rules

import (
	"rulecheck/internal/engine"
	"rulecheck/internal/syntax"
)

// NegatedNullCheck flags !(x == nil).
func NegatedNullCheck() engine.Signature {
	return engine.Signature{
		ID:         "negated-null-check",
		Name:       "Negated nil check",
		Severity:   engine.SeverityLow,
		Message:    "negated nil check on '{subject}'; write {subject} != nil",
		Bindings:   []string{"subject"},
		Categories: []syntax.Category{syntax.CategoryNegationPattern},
		Structural: func(c syntax.Cursor) (engine.Bindings, bool) {
			inner, ok := syntax.Operand(c.Node())
			if !ok || !syntax.IsNullPattern(inner) {
				return nil, false
			}
			subject := comparedValue(inner)
			if subject == nil {
				return nil, false
			}
			return engine.Bindings{
				"subject": {Text: subject.Text(), Span: subject.Span()},
			}, true
		},
	}
}

// comparedValue returns the side of a constant pattern that is not the
// constant.
func comparedValue(pattern syntax.Node) syntax.Node {
	held, ok := syntax.HeldConstant(pattern)
	if !ok {
		return nil
	}
	for _, child := range pattern.Children() {
		if n := syntax.Normalize(child); n != nil && n != held {
			return n
		}
	}
	return nil
}
