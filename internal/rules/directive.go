package rules

import (
	"slices"
	"strings"

	"rulecheck/internal/engine"
	"rulecheck/internal/syntax"
)

// DirectiveJustification flags suppression directives that carry no
// explanation. With no names given it checks every attribute.
func DirectiveJustification(directives ...string) engine.Signature {
	directives = slices.Clone(directives)

	return engine.Signature{
		ID:         "directive-justification",
		Name:       "Unjustified suppression",
		Severity:   engine.SeverityMedium,
		Message:    "'{directive}' directive has no justification; explain why the finding does not apply",
		Bindings:   []string{"directive"},
		Categories: []syntax.Category{syntax.CategoryAttributeApplication},
		Structural: func(c syntax.Cursor) (engine.Bindings, bool) {
			n := c.Node()
			if len(directives) > 0 && !slices.Contains(directives, n.Text()) {
				return nil, false
			}
			return engine.Bindings{
				"directive": {Text: n.Text(), Span: n.Span()},
			}, true
		},
		Suppress: func(c syntax.Cursor, _ engine.Bindings) bool {
			expr, ok := syntax.JustificationArgument(c.Node())
			return ok && strings.TrimSpace(expr.Text()) != ""
		},
	}
}
