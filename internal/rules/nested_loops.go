package rules

import (
	"strconv"

	"rulecheck/internal/engine"
	"rulecheck/internal/syntax"
)

// NestedLoops flags a loop sitting more than maxDepth loops deep inside one
// function. Function literals start a fresh count.
func NestedLoops(maxDepth int) engine.Signature {
	if maxDepth < 1 {
		maxDepth = 1
	}

	return engine.Signature{
		ID:         "nested-loops",
		Name:       "Nested loops",
		Severity:   engine.SeverityMedium,
		Message:    "loop nested {depth} deep in function '{function}' - potential O(n^{depth}) complexity; consider a map for lookups",
		Bindings:   []string{"depth", "function", "outer"},
		Secondary:  []string{"outer"},
		Categories: []syntax.Category{syntax.CategoryLoop},
		Structural: func(c syntax.Cursor) (engine.Bindings, bool) {
			depth := c.Depth(syntax.CategoryLoop, syntax.CategoryFunction) + 1
			if depth <= maxDepth {
				return nil, false
			}
			outer, _ := c.Enclosing(syntax.CategoryLoop)
			n := c.Node()
			return engine.Bindings{
				"depth":    {Text: strconv.Itoa(depth), Span: n.Span()},
				"function": {Text: enclosingFunction(c), Span: n.Span()},
				"outer":    {Text: outer.Text(), Span: outer.Span()},
			}, true
		},
	}
}
