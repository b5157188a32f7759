package engine

import (
	"rulecheck/internal/semantic"
	"rulecheck/internal/syntax"
)

// Result is the outcome of matching one signature against one node. The zero
// value is NoMatch.
type Result struct {
	matched  bool
	node     syntax.Node
	bindings Bindings
}

// NoMatch is the result for a node the rule does not apply to.
var NoMatch = Result{}

func (r Result) Matched() bool { return r.matched }

func (r Result) Node() syntax.Node { return r.node }

// Binding returns a captured binding.
func (r Result) Binding(name string) (Binding, bool) {
	b, ok := r.bindings[name]
	return b, ok
}

// Match evaluates sig against the node under c. Structural checks run first;
// the resolver is only consulted once they pass. Missing references or facts
// give NoMatch, never an error.
func Match(sig *Signature, c syntax.Cursor, r semantic.Resolver) Result {
	if r == nil {
		r = semantic.Empty{}
	}
	res := matchStructure(sig, c, syntax.Classify(c.Node()))
	if !res.matched {
		return NoMatch
	}
	for _, ref := range sig.Requires {
		if !r.Has(ref) {
			return NoMatch
		}
	}
	return confirm(sig, c, res, r)
}

func matchStructure(sig *Signature, c syntax.Cursor, cat syntax.Category) Result {
	if c.Node() == nil || !sig.accepts(cat) {
		return NoMatch
	}
	bindings, ok := sig.Structural(c)
	if !ok {
		return NoMatch
	}
	if bindings == nil {
		bindings = Bindings{}
	}
	if sig.Suppress != nil && sig.Suppress(c, bindings) {
		return NoMatch
	}
	return Result{matched: true, node: c.Node(), bindings: bindings}
}

func confirm(sig *Signature, c syntax.Cursor, res Result, r semantic.Resolver) Result {
	if sig.Semantic != nil && !sig.Semantic(c, res.bindings, r) {
		return NoMatch
	}
	return res
}
