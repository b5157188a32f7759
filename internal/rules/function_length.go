package rules

import (
	"strconv"

	"rulecheck/internal/engine"
	"rulecheck/internal/syntax"
)

// FunctionLength flags functions spanning more than maxLines lines.
func FunctionLength(maxLines int) engine.Signature {
	if maxLines < 1 {
		maxLines = 1
	}
	limit := strconv.Itoa(maxLines)

	return engine.Signature{
		ID:         "function-length",
		Name:       "Long function",
		Severity:   engine.SeverityMedium,
		Message:    "function '{function}' is {lines} lines long (limit {limit}); split it into smaller functions",
		Bindings:   []string{"function", "lines", "limit"},
		Categories: []syntax.Category{syntax.CategoryFunction},
		Structural: func(c syntax.Cursor) (engine.Bindings, bool) {
			n := c.Node()
			lines := n.Span().Lines()
			if lines <= maxLines {
				return nil, false
			}
			return engine.Bindings{
				"function": {Text: functionName(n), Span: n.Span()},
				"lines":    {Text: strconv.Itoa(lines), Span: n.Span()},
				"limit":    {Text: limit, Span: n.Span()},
			}, true
		},
	}
}
