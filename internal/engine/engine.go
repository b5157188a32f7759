// Package engine matches rule signatures against syntax trees and turns
// matches into diagnostics.
//
// Rules are registered up front. The first analysis freezes the registry;
// after that an Engine is shared by any number of goroutines without locking.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"rulecheck/internal/semantic"
	"rulecheck/internal/syntax"
)

// Sink is the host's reporting channel. Every diagnostic is handed over
// exactly once, in analysis order.
type Sink interface {
	Report(Diagnostic) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Diagnostic) error

func (f SinkFunc) Report(d Diagnostic) error { return f(d) }

type Engine struct {
	mu     sync.Mutex // guards registration and the freeze
	rules  []*Signature
	byID   map[string]*Signature
	frozen atomic.Bool
	logger *slog.Logger
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		byID:   make(map[string]*Signature),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RegisterRule validates sig and adds it to the rule set.
func (e *Engine) RegisterRule(sig Signature) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.frozen.Load() {
		return fmt.Errorf("%w: cannot register %s", ErrRegistryFrozen, sig.ID)
	}
	if err := sig.validate(); err != nil {
		return err
	}
	if prev, ok := e.byID[sig.ID]; ok {
		if prev.arity() != sig.arity() {
			return fmt.Errorf("%w: rule %s registered with %d and %d message arguments",
				ErrSignatureConflict, sig.ID, prev.arity(), sig.arity())
		}
		return fmt.Errorf("%w: rule %s registered twice", ErrSignatureConflict, sig.ID)
	}

	s := sig.clone()
	e.rules = append(e.rules, s)
	e.byID[s.ID] = s
	e.logger.Debug("rule registered", "rule", s.ID, "requires", s.Requires)
	return nil
}

// MustRegister registers built-in rules and panics on the first invalid one.
func (e *Engine) MustRegister(sigs ...Signature) {
	for _, sig := range sigs {
		if err := e.RegisterRule(sig); err != nil {
			panic(err)
		}
	}
}

// Rules returns copies of the registered signatures in registration order.
func (e *Engine) Rules() []Signature {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Signature, len(e.rules))
	for i, s := range e.rules {
		out[i] = *s.clone()
	}
	return out
}

// RuleCount returns the number of registered rules.
func (e *Engine) RuleCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.rules)
}

// Analyze runs every registered rule over tree and returns the diagnostics in
// traversal order, rules in registration order within a node.
func (e *Engine) Analyze(ctx context.Context, tree syntax.Tree, r semantic.Resolver) ([]Diagnostic, error) {
	return e.AnalyzeTo(ctx, tree, r, nil)
}

// AnalyzeTo is Analyze with every diagnostic also handed to sink as soon as
// it is produced. A sink error stops the analysis and is returned.
func (e *Engine) AnalyzeTo(ctx context.Context, tree syntax.Tree, r semantic.Resolver, sink Sink) ([]Diagnostic, error) {
	e.freeze()
	if r == nil {
		r = semantic.Empty{}
	}

	active := e.applicable(tree, r)
	if len(active) == 0 || tree.Root == nil {
		return nil, nil
	}

	var (
		diags []Diagnostic
		err   error
	)
	syntax.Inspect(tree.Root, func(c syntax.Cursor) bool {
		if err != nil {
			return false
		}
		if err = ctx.Err(); err != nil {
			return false
		}
		// A wrapper classifies as what it wraps; matching it too would
		// report the inner node twice.
		if c.Node().Kind() == syntax.KindParenthesized {
			return true
		}

		cat := syntax.Classify(c.Node())
		for _, sig := range active {
			res := matchStructure(sig, c, cat)
			if !res.matched {
				continue
			}
			if res = confirm(sig, c, res, r); !res.matched {
				continue
			}

			d, rerr := report(sig, res)
			if rerr != nil {
				err = rerr
				return false
			}
			if sink != nil {
				if serr := sink.Report(d); serr != nil {
					err = fmt.Errorf("%w: %s at %s: %w", ErrHostReporting, d.ruleID, d.span, serr)
					return false
				}
			}
			diags = append(diags, d)
		}
		return true
	})
	return diags, err
}

// freeze closes the registry. A registration racing the first analysis
// either completes before it or fails with ErrRegistryFrozen.
func (e *Engine) freeze() {
	if e.frozen.Load() {
		return
	}
	e.mu.Lock()
	e.frozen.Store(true)
	e.mu.Unlock()
}

// applicable returns the rules whose required references are all present.
// Each distinct reference is asked for once per tree.
func (e *Engine) applicable(tree syntax.Tree, r semantic.Resolver) []*Signature {
	present := make(map[semantic.Reference]bool)
	active := make([]*Signature, 0, len(e.rules))

rules:
	for _, sig := range e.rules {
		for _, ref := range sig.Requires {
			ok, seen := present[ref]
			if !seen {
				ok = r.Has(ref)
				present[ref] = ok
			}
			if !ok {
				e.logger.Debug("rule not applicable", "rule", sig.ID, "missing", ref, "tree", tree.Path)
				continue rules
			}
		}
		active = append(active, sig)
	}
	return active
}

// Unit is one tree with the resolver and optional sink to analyze it with.
type Unit struct {
	Tree     syntax.Tree
	Resolver semantic.Resolver
	Sink     Sink
}

// AnalyzeTrees analyzes units in parallel, at most workers at a time (no
// limit when workers < 1). Result i belongs to units[i]; the order within
// each result is the same as a sequential Analyze.
func (e *Engine) AnalyzeTrees(ctx context.Context, units []Unit, workers int) ([][]Diagnostic, error) {
	out := make([][]Diagnostic, len(units))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, u := range units {
		g.Go(func() error {
			diags, err := e.AnalyzeTo(ctx, u.Tree, u.Resolver, u.Sink)
			if err != nil {
				return fmt.Errorf("analyze %s: %w", u.Tree.Path, err)
			}
			out[i] = diags
			return nil
		})
	}
	return out, g.Wait()
}
