package engine

import (
	"fmt"
	"slices"
	"strings"

	"rulecheck/internal/semantic"
	"rulecheck/internal/syntax"
)

// Binding is a value captured by a structural match, available to the
// message template and to secondary spans.
type Binding struct {
	Text string
	Span syntax.Span
}

type Bindings map[string]Binding

// StructuralFunc inspects the shape of a node. It must not consult semantic
// information.
type StructuralFunc func(c syntax.Cursor) (Bindings, bool)

// SemanticFunc confirms a structural match with resolver facts. A fact the
// resolver cannot produce must be treated as "no match".
type SemanticFunc func(c syntax.Cursor, b Bindings, r semantic.Resolver) bool

// SuppressFunc turns a match into no match, e.g. when the code carries a
// justification.
type SuppressFunc func(c syntax.Cursor, b Bindings) bool

// Signature describes what one rule looks for and how it is reported.
type Signature struct {
	ID       string
	Name     string
	Severity Severity

	// Message is the fixed template. "{name}" is replaced by the text of
	// binding "name"; "{{" and "}}" are literal braces.
	Message string

	// Bindings lists every binding name the structural predicate captures.
	Bindings []string
	// Primary names the binding whose span is the diagnostic location. The
	// matched node's span is used when empty.
	Primary string
	// Secondary names bindings reported as additional locations.
	Secondary []string

	// Categories restricts the rule to nodes of these categories. Empty means
	// every node.
	Categories []syntax.Category
	// Requires lists the references the compilation must contain for the
	// rule to apply at all.
	Requires []semantic.Reference

	Structural StructuralFunc
	Semantic   SemanticFunc
	Suppress   SuppressFunc
}

func (s *Signature) validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidSignature)
	}
	if s.Structural == nil {
		return fmt.Errorf("%w: rule %s has no structural predicate", ErrInvalidSignature, s.ID)
	}
	if s.Message == "" {
		return fmt.Errorf("%w: rule %s has no message", ErrInvalidSignature, s.ID)
	}

	placeholders, err := parsePlaceholders(s.Message)
	if err != nil {
		return fmt.Errorf("%w: rule %s: %v", ErrInvalidSignature, s.ID, err)
	}
	for _, p := range placeholders {
		if !slices.Contains(s.Bindings, p) {
			return fmt.Errorf("%w: rule %s message uses {%s} but declares bindings %v",
				ErrSignatureConflict, s.ID, p, s.Bindings)
		}
	}

	names := append([]string{}, s.Secondary...)
	if s.Primary != "" {
		names = append(names, s.Primary)
	}
	for _, name := range names {
		if !slices.Contains(s.Bindings, name) {
			return fmt.Errorf("%w: rule %s reports location %q which is not a declared binding",
				ErrSignatureConflict, s.ID, name)
		}
	}
	return nil
}

func (s Signature) clone() *Signature {
	s.Bindings = slices.Clone(s.Bindings)
	s.Secondary = slices.Clone(s.Secondary)
	s.Categories = slices.Clone(s.Categories)
	s.Requires = slices.Clone(s.Requires)
	return &s
}

// arity is the number of message argument slots.
func (s *Signature) arity() int {
	p, _ := parsePlaceholders(s.Message)
	return len(p)
}

func (s *Signature) accepts(cat syntax.Category) bool {
	return len(s.Categories) == 0 || slices.Contains(s.Categories, cat)
}

// parsePlaceholders returns the placeholder names of a template in order of
// appearance.
func parsePlaceholders(tmpl string) ([]string, error) {
	var names []string
	for i := 0; i < len(tmpl); i++ {
		switch tmpl[i] {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				i++
				continue
			}
			end := strings.IndexByte(tmpl[i:], '}')
			if end < 0 {
				return nil, fmt.Errorf("unterminated placeholder at offset %d", i)
			}
			name := tmpl[i+1 : i+end]
			if name == "" || strings.ContainsAny(name, "{ ") {
				return nil, fmt.Errorf("malformed placeholder %q", tmpl[i:i+end+1])
			}
			names = append(names, name)
			i += end
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				i++
				continue
			}
			return nil, fmt.Errorf("unmatched '}' at offset %d", i)
		}
	}
	return names, nil
}

// expand fills the template and returns the arguments in slot order.
func expand(tmpl string, b Bindings) (string, []string, error) {
	var out strings.Builder
	var args []string
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		if (c == '{' || c == '}') && i+1 < len(tmpl) && tmpl[i+1] == c {
			out.WriteByte(c)
			i++
			continue
		}
		if c != '{' {
			out.WriteByte(c)
			continue
		}
		end := strings.IndexByte(tmpl[i:], '}')
		name := tmpl[i+1 : i+end]
		v, ok := b[name]
		if !ok {
			return "", nil, fmt.Errorf("binding {%s} not captured", name)
		}
		out.WriteString(v.Text)
		args = append(args, v.Text)
		i += end
	}
	return out.String(), args, nil
}
