package rules

import (
	"rulecheck/internal/engine"
	"rulecheck/internal/semantic"
	"rulecheck/internal/syntax"
)

// StringConcatInLoop flags s += x and s = s + x on a string inside a loop.
func StringConcatInLoop() engine.Signature {
	return engine.Signature{
		ID:         "string-concat-in-loop",
		Name:       "String concatenation in loop",
		Severity:   engine.SeverityMedium,
		Message:    "string '{target}' is concatenated with {op} inside a loop in '{function}'; use strings.Builder",
		Bindings:   []string{"target", "op", "function"},
		Primary:    "target",
		Categories: []syntax.Category{syntax.CategoryAssignment},
		Structural: func(c syntax.Cursor) (engine.Bindings, bool) {
			if c.Depth(syntax.CategoryLoop, syntax.CategoryFunction) == 0 {
				return nil, false
			}
			target, op, ok := concatTarget(c.Node())
			if !ok {
				return nil, false
			}
			return engine.Bindings{
				"target":   {Text: target.Text(), Span: target.Span()},
				"op":       {Text: op, Span: c.Node().Span()},
				"function": {Text: enclosingFunction(c), Span: c.Node().Span()},
			}, true
		},
		Semantic: func(c syntax.Cursor, _ engine.Bindings, r semantic.Resolver) bool {
			target, _, ok := concatTarget(c.Node())
			if !ok {
				return false
			}
			fact, ok := r.Resolve(target)
			return ok && fact.Underlying == "string"
		},
	}
}

func concatTarget(assign syntax.Node) (syntax.Node, string, bool) {
	children := assign.Children()
	if len(children) != 2 {
		return nil, "", false
	}
	lhs := syntax.Normalize(children[0])
	rhs := syntax.Normalize(children[1])
	if lhs == nil || rhs == nil || lhs.Kind() != syntax.KindIdentifier {
		return nil, "", false
	}

	switch assign.Text() {
	case "+=":
		return lhs, "+=", true
	case "=":
		if rhs.Kind() != syntax.KindBinary || rhs.Text() != "+" {
			return nil, "", false
		}
		left := syntax.Normalize(syntax.Child(rhs, 0))
		if left != nil && left.Kind() == syntax.KindIdentifier && left.Text() == lhs.Text() {
			return lhs, "+", true
		}
	}
	return nil, "", false
}
