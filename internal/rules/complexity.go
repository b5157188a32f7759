package rules

import (
	"strconv"

	"rulecheck/internal/engine"
	"rulecheck/internal/syntax"
)

// CyclomaticComplexity flags functions with more than maxComplexity
// independent paths. Nested function literals are scored on their own.
func CyclomaticComplexity(maxComplexity int) engine.Signature {
	if maxComplexity < 1 {
		maxComplexity = 1
	}
	limit := strconv.Itoa(maxComplexity)

	return engine.Signature{
		ID:         "cyclomatic-complexity",
		Name:       "High cyclomatic complexity",
		Severity:   engine.SeverityMedium,
		Message:    "function '{function}' has cyclomatic complexity {complexity} (limit {limit}); extract conditional logic into smaller functions",
		Bindings:   []string{"function", "complexity", "limit"},
		Categories: []syntax.Category{syntax.CategoryFunction},
		Structural: func(c syntax.Cursor) (engine.Bindings, bool) {
			n := c.Node()
			score := complexity(n)
			if score <= maxComplexity {
				return nil, false
			}
			return engine.Bindings{
				"function":   {Text: functionName(n), Span: n.Span()},
				"complexity": {Text: strconv.Itoa(score), Span: n.Span()},
				"limit":      {Text: limit, Span: n.Span()},
			}, true
		},
	}
}

func complexity(fn syntax.Node) int {
	score := 1
	syntax.Inspect(fn, func(c syntax.Cursor) bool {
		n := c.Node()
		switch syntax.Classify(n) {
		case syntax.CategoryFunction:
			return n == fn
		case syntax.CategoryLoop:
			score++
		case syntax.CategoryBinary:
			if n.Text() == "&&" || n.Text() == "||" {
				score++
			}
		case syntax.CategoryUnrecognized:
			switch n.Text() {
			case "if", "switch", "case":
				score++
			}
		}
		return true
	})
	return score
}
