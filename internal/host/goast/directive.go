package goast

import (
	"go/ast"
	"strings"

	"rulecheck/internal/syntax"
)

// Directives recognised as attribute applications. For the ones that take a
// trailing "// explanation" the explanation becomes the Justification
// argument; lint:ignore takes its reason after the check list.
var directiveNames = []string{"nolint", "coverage:ignore", "lint:ignore", "lint:file-ignore"}

func (b *builder) directives(file *ast.File) []syntax.Node {
	var out []syntax.Node
	for _, group := range file.Comments {
		for _, c := range group.List {
			if d := b.directive(c); d != nil {
				out = append(out, d)
			}
		}
	}
	return out
}

func (b *builder) directive(c *ast.Comment) *Node {
	body, ok := strings.CutPrefix(c.Text, "//")
	if !ok {
		return nil
	}

	name, rest, ok := matchDirective(body)
	if !ok {
		return nil
	}

	span := b.span(c.Pos(), c.End())
	attr := &Node{kind: syntax.KindAttribute, text: name, span: span}

	var (
		targets       []string
		justification string
		justified     bool
	)
	if strings.HasPrefix(name, "lint:") {
		// lint:ignore Check1,Check2 reason text
		fields := strings.Fields(rest)
		if len(fields) > 0 {
			targets = strings.Split(fields[0], ",")
		}
		if len(fields) > 1 {
			justification = strings.Join(fields[1:], " ")
			justified = true
		}
	} else {
		// nolint:errcheck,gosec // reason text
		head, explanation, found := cutExplanation(rest)
		head = strings.TrimPrefix(strings.TrimSpace(head), ":")
		if head != "" {
			targets = strings.Split(head, ",")
		}
		justification = strings.TrimSpace(explanation)
		justified = found
	}

	for _, t := range targets {
		if t = strings.TrimSpace(t); t != "" {
			attr.children = append(attr.children, &Node{kind: syntax.KindIdentifier, text: t, span: span})
		}
	}
	if justified {
		value := &Node{kind: syntax.KindLiteral, text: justification, span: span}
		attr.children = append(attr.children, &Node{
			kind:     syntax.KindAttributeArgument,
			text:     syntax.JustificationName,
			span:     span,
			children: []syntax.Node{value},
		})
	}
	return attr
}

func matchDirective(body string) (name, rest string, ok bool) {
	for _, d := range directiveNames {
		after, found := strings.CutPrefix(body, d)
		if !found {
			continue
		}
		// "nolintfoo" is not a directive.
		if after != "" && after[0] != ':' && after[0] != ' ' && after[0] != '\t' {
			continue
		}
		return d, after, true
	}
	return "", "", false
}

// cutExplanation splits "[:targets] // reason". The explanation marker must
// follow the target list, optionally separated by whitespace; anything else
// after the targets (a URL, free text) leaves the directive unexplained.
func cutExplanation(rest string) (head, explanation string, found bool) {
	end := strings.IndexFunc(rest, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '/'
	})
	if end < 0 {
		return rest, "", false
	}
	head = rest[:end]
	tail := strings.TrimLeft(rest[end:], " \t")
	explanation, found = strings.CutPrefix(tail, "//")
	return head, explanation, found
}
