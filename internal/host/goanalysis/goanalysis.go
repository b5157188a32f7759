// Package goanalysis exposes engine rules as go/analysis analyzers, so they
// run under multichecker, go vet -vettool and gopls.
package goanalysis

import (
	"context"
	"errors"
	"fmt"
	"go/token"
	"strings"

	"golang.org/x/tools/go/analysis"

	"rulecheck/internal/engine"
	"rulecheck/internal/host/goast"
	"rulecheck/internal/syntax"
)

// Analyzers returns one analyzer per signature. Each analyzer owns an engine
// holding just its rule.
func Analyzers(sigs []engine.Signature, opts ...engine.Option) ([]*analysis.Analyzer, error) {
	analyzers := make([]*analysis.Analyzer, 0, len(sigs))
	seen := make(map[string]string)
	for _, sig := range sigs {
		e := engine.New(opts...)
		if err := e.RegisterRule(sig); err != nil {
			return nil, err
		}

		name := AnalyzerName(sig.ID)
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: rules %s and %s map to analyzer %s", engine.ErrSignatureConflict, prev, sig.ID, name)
		}
		seen[name] = sig.ID

		doc := sig.Name
		if doc == "" {
			doc = sig.ID
		}
		analyzers = append(analyzers, &analysis.Analyzer{
			Name: name,
			Doc:  doc + "\n\nReports rule " + sig.ID + ".",
			Run:  run(e),
		})
	}
	return analyzers, nil
}

// AnalyzerName turns a rule id into an identifier, as analyzer names must be.
func AnalyzerName(ruleID string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, ruleID)
}

func run(e *engine.Engine) func(*analysis.Pass) (any, error) {
	return func(pass *analysis.Pass) (any, error) {
		resolver := goast.NewResolver(pass.Pkg, pass.TypesInfo)
		for _, f := range pass.Files {
			tf := pass.Fset.File(f.Pos())
			if tf == nil {
				continue
			}
			tree := goast.Build(pass.Fset, f)
			if _, err := e.AnalyzeTo(context.Background(), tree, resolver, passSink{pass: pass, file: tf}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}
}

// passSink reports diagnostics of one file to the pass.
type passSink struct {
	pass *analysis.Pass
	file *token.File
}

func (s passSink) Report(d engine.Diagnostic) error {
	if d.IsZero() {
		return errors.New("diagnostic has no rule")
	}
	pos, end, err := s.convert(d.Span())
	if err != nil {
		return err
	}

	var related []analysis.RelatedInformation
	for _, span := range d.SecondarySpans() {
		rpos, rend, err := s.convert(span)
		if err != nil {
			return err
		}
		related = append(related, analysis.RelatedInformation{Pos: rpos, End: rend, Message: "related location"})
	}

	s.pass.Report(analysis.Diagnostic{
		Pos:      pos,
		End:      end,
		Category: d.RuleID(),
		Message:  d.Message(),
		Related:  related,
	})
	return nil
}

func (s passSink) convert(span syntax.Span) (token.Pos, token.Pos, error) {
	if !span.Valid() {
		return token.NoPos, token.NoPos, fmt.Errorf("invalid span %v", span)
	}
	if span.File != s.file.Name() {
		return token.NoPos, token.NoPos, fmt.Errorf("span in %s reported for %s", span.File, s.file.Name())
	}
	if span.End.Offset > s.file.Size() {
		return token.NoPos, token.NoPos, fmt.Errorf("span %v ends past the file (%d bytes)", span, s.file.Size())
	}
	return s.file.Pos(span.Start.Offset), s.file.Pos(span.End.Offset), nil
}
