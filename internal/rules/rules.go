// Package rules holds the rule signatures rulecheck ships with.
package rules

import (
	"rulecheck/internal/config"
	"rulecheck/internal/engine"
	"rulecheck/internal/syntax"
)

// Rule is a signature together with the config category that switches it.
type Rule struct {
	Category    string
	Description string
	Signature   engine.Signature
}

// All returns every built-in rule, parameterized by cfg but regardless of
// whether cfg enables it.
func All(cfg *config.Config) []Rule {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	var all []Rule
	for _, alg := range weakAlgorithms {
		all = append(all, Rule{
			Category:    config.CategorySecurity,
			Description: "Calls into " + alg.pkg + ", which implements " + alg.name + ".",
			Signature:   WeakCrypto(alg.key),
		})
	}
	all = append(all,
		Rule{
			Category:    config.CategoryQuality,
			Description: "Negated comparison against nil that reads better as != nil.",
			Signature:   NegatedNullCheck(),
		},
		Rule{
			Category:    config.CategoryQuality,
			Description: "Suppression directive without a written justification.",
			Signature:   DirectiveJustification(cfg.Rules.Quality.DirectiveJustification.Directives...),
		},
		Rule{
			Category:    config.CategoryPerformance,
			Description: "Loops nested deeper than the configured limit within one function.",
			Signature:   NestedLoops(cfg.Rules.Performance.NestedLoops.MaxDepth),
		},
		Rule{
			Category:    config.CategoryPerformance,
			Description: "String built up with + or += inside a loop.",
			Signature:   StringConcatInLoop(),
		},
		Rule{
			Category:    config.CategoryComplexity,
			Description: "Function longer than the configured number of lines.",
			Signature:   FunctionLength(cfg.Rules.Complexity.FunctionLength.MaxLines),
		},
		Rule{
			Category:    config.CategoryComplexity,
			Description: "Function whose cyclomatic complexity exceeds the configured limit.",
			Signature:   CyclomaticComplexity(cfg.Rules.Complexity.Cyclomatic.MaxComplexity),
		},
	)
	return all
}

// Default returns the signatures cfg enables, with severity overrides
// applied, in a stable order.
func Default(cfg *config.Config) []engine.Signature {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	var sigs []engine.Signature
	for _, r := range All(cfg) {
		if !cfg.IsRuleEnabled(r.Signature.ID) {
			continue
		}
		sig := r.Signature
		sig.Severity = cfg.SeverityFor(sig.ID, sig.Severity)
		sigs = append(sigs, sig)
	}
	return sigs
}

// enclosingFunction names the function the cursor is in.
func enclosingFunction(c syntax.Cursor) string {
	fn, ok := c.Enclosing(syntax.CategoryFunction)
	if !ok {
		return "<package scope>"
	}
	return functionName(fn)
}

func functionName(fn syntax.Node) string {
	if fn.Text() == "" || fn.Text() == "func" {
		return "func literal"
	}
	return fn.Text()
}
