package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"rulecheck/internal/syntax"
)

// Diagnostic is a reported finding. Populated values are produced only by the
// engine from a matched Result and are never modified afterwards. The zero
// value carries no rule and is not a finding; see IsZero.
type Diagnostic struct {
	ruleID    string
	ruleName  string
	severity  Severity
	span      syntax.Span
	secondary []syntax.Span
	message   string
	args      []string
}

func (d Diagnostic) RuleID() string     { return d.ruleID }
func (d Diagnostic) RuleName() string   { return d.ruleName }
func (d Diagnostic) Severity() Severity { return d.severity }
func (d Diagnostic) Span() syntax.Span  { return d.span }
func (d Diagnostic) Message() string    { return d.message }

// SecondarySpans returns a copy of the additional locations.
func (d Diagnostic) SecondarySpans() []syntax.Span { return slices.Clone(d.secondary) }

// Args returns a copy of the message arguments in template order.
func (d Diagnostic) Args() []string { return slices.Clone(d.args) }

// IsZero reports whether d was built outside the engine, without a rule.
func (d Diagnostic) IsZero() bool { return d.ruleID == "" }

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s [%s]", d.span, d.message, d.ruleID)
}

type diagnosticJSON struct {
	RuleID    string        `json:"rule_id"`
	RuleName  string        `json:"rule_name,omitempty"`
	Severity  Severity      `json:"severity"`
	Span      syntax.Span   `json:"span"`
	Secondary []syntax.Span `json:"secondary_spans,omitempty"`
	Message   string        `json:"message"`
	Args      []string      `json:"args,omitempty"`
}

func (d Diagnostic) MarshalJSON() ([]byte, error) {
	return json.Marshal(diagnosticJSON{
		RuleID:    d.ruleID,
		RuleName:  d.ruleName,
		Severity:  d.severity,
		Span:      d.span,
		Secondary: d.secondary,
		Message:   d.message,
		Args:      d.args,
	})
}

var errNotMatched = errors.New("report called without a match")

// report builds the diagnostic for a matched result.
func report(sig *Signature, res Result) (Diagnostic, error) {
	if !res.matched {
		return Diagnostic{}, errNotMatched
	}

	message, args, err := expand(sig.Message, res.bindings)
	if err != nil {
		return Diagnostic{}, fmt.Errorf("%w: rule %s: %v", ErrSignatureConflict, sig.ID, err)
	}

	span := res.node.Span()
	if sig.Primary != "" {
		if b, ok := res.bindings[sig.Primary]; ok {
			span = b.Span
		}
	}

	var secondary []syntax.Span
	for _, name := range sig.Secondary {
		if b, ok := res.bindings[name]; ok {
			secondary = append(secondary, b.Span)
		}
	}

	return Diagnostic{
		ruleID:    sig.ID,
		ruleName:  sig.Name,
		severity:  sig.Severity,
		span:      span,
		secondary: secondary,
		message:   message,
		args:      args,
	}, nil
}
