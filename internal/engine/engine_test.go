package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rulecheck/internal/semantic"
	"rulecheck/internal/syntax"
)

type fakeResolver struct {
	mu    sync.Mutex
	refs  map[semantic.Reference]bool
	facts map[syntax.Node]semantic.Fact
	asked map[semantic.Reference]int
}

func newFakeResolver(refs ...semantic.Reference) *fakeResolver {
	r := &fakeResolver{
		refs:  make(map[semantic.Reference]bool),
		facts: make(map[syntax.Node]semantic.Fact),
		asked: make(map[semantic.Reference]int),
	}
	for _, ref := range refs {
		r.refs[ref] = true
	}
	return r
}

func (r *fakeResolver) Resolve(n syntax.Node) (semantic.Fact, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.facts[n]
	return f, ok
}

func (r *fakeResolver) Has(ref semantic.Reference) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.asked[ref]++
	return r.refs[ref]
}

func span(line int) syntax.Span {
	return syntax.Span{
		File:  "a.cs",
		Start: syntax.Position{Line: line, Column: 1, Offset: line * 10},
		End:   syntax.Position{Line: line, Column: 5, Offset: line*10 + 4},
	}
}

// md5Rule reports any identifier named MD5 that resolves to the crypto type.
func md5Rule() Signature {
	return Signature{
		ID:         "weak-md5",
		Severity:   SeverityHigh,
		Message:    "Use a stronger hash than {name}.",
		Bindings:   []string{"name"},
		Categories: []syntax.Category{syntax.CategoryIdentifier},
		Requires:   []semantic.Reference{"System.Security.Cryptography"},
		Structural: func(c syntax.Cursor) (Bindings, bool) {
			n := c.Node()
			if n.Text() != "MD5" {
				return nil, false
			}
			return Bindings{"name": {Text: n.Text(), Span: n.Span()}}, true
		},
		Semantic: func(c syntax.Cursor, _ Bindings, r semantic.Resolver) bool {
			fact, ok := r.Resolve(c.Node())
			return ok && fact.QualifiedName == "System.Security.Cryptography.MD5"
		},
	}
}

func md5Tree() (syntax.Tree, []syntax.Node) {
	a := syntax.New(syntax.KindIdentifier, "MD5", span(1))
	b := syntax.New(syntax.KindIdentifier, "MD5", span(2))
	root := syntax.New(syntax.KindFile, "a.cs", span(1),
		syntax.New(syntax.KindCall, "", span(1), a),
		syntax.New(syntax.KindParenthesized, "", span(2), b),
	)
	return syntax.Tree{Path: "a.cs", Root: root}, []syntax.Node{a, b}
}

func TestAnalyzeReportsConfirmedMatches(t *testing.T) {
	e := New()
	require.NoError(t, e.RegisterRule(md5Rule()))

	tree, ids := md5Tree()
	r := newFakeResolver("System.Security.Cryptography")
	for _, n := range ids {
		r.facts[n] = semantic.Fact{Kind: semantic.FactType, QualifiedName: "System.Security.Cryptography.MD5"}
	}

	diags, err := e.Analyze(context.Background(), tree, r)
	require.NoError(t, err)
	require.Len(t, diags, 2, "the parenthesized identifier is reported once")

	d := diags[0]
	assert.Equal(t, "weak-md5", d.RuleID())
	assert.Equal(t, SeverityHigh, d.Severity())
	assert.Equal(t, "Use a stronger hash than MD5.", d.Message())
	assert.Equal(t, []string{"MD5"}, d.Args())
	assert.Equal(t, span(1), d.Span())
	assert.Equal(t, span(2), diags[1].Span())
}

func TestAnalyzeMissingReferenceNeverReports(t *testing.T) {
	e := New()
	require.NoError(t, e.RegisterRule(md5Rule()))

	tree, ids := md5Tree()
	r := newFakeResolver()
	// Even a resolver that would confirm the symbol must not be reached.
	for _, n := range ids {
		r.facts[n] = semantic.Fact{QualifiedName: "System.Security.Cryptography.MD5"}
	}

	diags, err := e.Analyze(context.Background(), tree, r)
	require.NoError(t, err)
	assert.Empty(t, diags)

	assert.False(t, Match(&e.Rules()[0], syntax.At(ids[0]), r).Matched())
}

func TestAnalyzeUnresolvedFactIsNoMatch(t *testing.T) {
	e := New()
	require.NoError(t, e.RegisterRule(md5Rule()))

	tree, _ := md5Tree()
	diags, err := e.Analyze(context.Background(), tree, newFakeResolver("System.Security.Cryptography"))
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestAnalyzeBatchesReferenceLookups(t *testing.T) {
	e := New()
	first := md5Rule()
	second := md5Rule()
	second.ID = "weak-md5-copy"
	e.MustRegister(first, second)

	tree, _ := md5Tree()
	r := newFakeResolver("System.Security.Cryptography")
	_, err := e.Analyze(context.Background(), tree, r)
	require.NoError(t, err)

	assert.Equal(t, 1, r.asked["System.Security.Cryptography"])
}

func TestSemanticNotConsultedWhenStructureFails(t *testing.T) {
	calls := 0
	sig := Signature{
		ID:      "never",
		Message: "never",
		Structural: func(syntax.Cursor) (Bindings, bool) {
			return nil, false
		},
		Semantic: func(syntax.Cursor, Bindings, semantic.Resolver) bool {
			calls++
			return true
		},
	}
	e := New()
	require.NoError(t, e.RegisterRule(sig))

	tree, _ := md5Tree()
	_, err := e.Analyze(context.Background(), tree, nil)
	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestSuppressionTurnsMatchIntoNoMatch(t *testing.T) {
	sig := Signature{
		ID:         "needs-justification",
		Severity:   SeverityMedium,
		Message:    "Add a justification to {attribute}.",
		Bindings:   []string{"attribute"},
		Categories: []syntax.Category{syntax.CategoryAttributeApplication},
		Structural: func(c syntax.Cursor) (Bindings, bool) {
			n := c.Node()
			if n.Text() != "ExcludeFromCodeCoverage" {
				return nil, false
			}
			return Bindings{"attribute": {Text: n.Text(), Span: n.Span()}}, true
		},
		Suppress: func(c syntax.Cursor, _ Bindings) bool {
			expr, ok := syntax.JustificationArgument(c.Node())
			return ok && expr.Text() != `""`
		},
	}
	e := New()
	require.NoError(t, e.RegisterRule(sig))

	justified := syntax.New(syntax.KindAttribute, "ExcludeFromCodeCoverage", span(1),
		syntax.New(syntax.KindAttributeArgument, syntax.JustificationName, span(1),
			syntax.New(syntax.KindLiteral, `"generated code"`, span(1))))
	bare := syntax.New(syntax.KindAttribute, "ExcludeFromCodeCoverage", span(3))
	empty := syntax.New(syntax.KindAttribute, "ExcludeFromCodeCoverage", span(5),
		syntax.New(syntax.KindAttributeArgument, syntax.JustificationName, span(5),
			syntax.New(syntax.KindLiteral, `""`, span(5))))

	diags, err := e.Analyze(context.Background(), syntax.Tree{Root: justified}, nil)
	require.NoError(t, err)
	assert.Empty(t, diags)

	root := syntax.New(syntax.KindFile, "", span(1), justified, bare, empty)
	diags, err = e.Analyze(context.Background(), syntax.Tree{Root: root}, nil)
	require.NoError(t, err)
	require.Len(t, diags, 2)
	assert.Equal(t, span(3), diags[0].Span())
	assert.Equal(t, span(5), diags[1].Span())
}

func TestRegisterRuleErrors(t *testing.T) {
	valid := md5Rule()

	tests := []struct {
		name   string
		mutate func(*Signature)
		want   error
	}{
		{"empty id", func(s *Signature) { s.ID = " " }, ErrInvalidSignature},
		{"no structure", func(s *Signature) { s.Structural = nil }, ErrInvalidSignature},
		{"no message", func(s *Signature) { s.Message = "" }, ErrInvalidSignature},
		{"malformed template", func(s *Signature) { s.Message = "use {name" }, ErrInvalidSignature},
		{"undeclared argument", func(s *Signature) { s.Message = "{name} and {other}" }, ErrSignatureConflict},
		{"undeclared primary", func(s *Signature) { s.Primary = "node" }, ErrSignatureConflict},
		{"undeclared secondary", func(s *Signature) { s.Secondary = []string{"decl"} }, ErrSignatureConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := valid
			tt.mutate(&sig)
			err := New().RegisterRule(sig)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRegisterDuplicateID(t *testing.T) {
	e := New()
	require.NoError(t, e.RegisterRule(md5Rule()))

	again := md5Rule()
	again.Message = "no arguments here"
	err := e.RegisterRule(again)
	require.ErrorIs(t, err, ErrSignatureConflict)
	assert.Contains(t, err.Error(), "1 and 0 message arguments")

	assert.ErrorIs(t, e.RegisterRule(md5Rule()), ErrSignatureConflict)
	assert.Equal(t, 1, e.RuleCount())
}

func TestMustRegisterPanicsOnConflict(t *testing.T) {
	assert.Panics(t, func() {
		New().MustRegister(md5Rule(), md5Rule())
	})
}

func TestRegistryFreezesOnAnalyze(t *testing.T) {
	e := New()
	require.NoError(t, e.RegisterRule(md5Rule()))

	tree, _ := md5Tree()
	_, err := e.Analyze(context.Background(), tree, nil)
	require.NoError(t, err)

	other := md5Rule()
	other.ID = "late"
	assert.ErrorIs(t, e.RegisterRule(other), ErrRegistryFrozen)
}

func TestRegisterRacingFirstAnalyze(t *testing.T) {
	e := New()
	require.NoError(t, e.RegisterRule(md5Rule()))
	tree, _ := md5Tree()

	var (
		wg     sync.WaitGroup
		regErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		late := md5Rule()
		late.ID = "late"
		regErr = e.RegisterRule(late)
	}()
	go func() {
		defer wg.Done()
		_, err := e.Analyze(context.Background(), tree, nil)
		assert.NoError(t, err)
	}()
	wg.Wait()

	// Either the registration landed before the freeze or it was refused.
	if regErr != nil {
		assert.ErrorIs(t, regErr, ErrRegistryFrozen)
		assert.Equal(t, 1, e.RuleCount())
	} else {
		assert.Equal(t, 2, e.RuleCount())
	}
}

func TestRulesReturnsCopies(t *testing.T) {
	e := New()
	require.NoError(t, e.RegisterRule(md5Rule()))

	rules := e.Rules()
	rules[0].Bindings[0] = "changed"
	assert.Equal(t, "name", e.Rules()[0].Bindings[0])
}

func TestSinkReceivesEveryDiagnostic(t *testing.T) {
	e := New()
	require.NoError(t, e.RegisterRule(anyIdentifier()))

	tree, _ := md5Tree()
	var got []Diagnostic
	diags, err := e.AnalyzeTo(context.Background(), tree, nil, SinkFunc(func(d Diagnostic) error {
		got = append(got, d)
		return nil
	}))
	require.NoError(t, err)
	assert.Equal(t, diags, got)
}

func TestSinkFailureIsSurfaced(t *testing.T) {
	e := New()
	require.NoError(t, e.RegisterRule(anyIdentifier()))

	rejected := errors.New("span outside file")
	tree, _ := md5Tree()
	_, err := e.AnalyzeTo(context.Background(), tree, nil, SinkFunc(func(Diagnostic) error {
		return rejected
	}))
	assert.ErrorIs(t, err, ErrHostReporting)
	assert.ErrorIs(t, err, rejected)
}

func TestUnboundArgumentFailsReport(t *testing.T) {
	sig := anyIdentifier()
	sig.Structural = func(syntax.Cursor) (Bindings, bool) { return nil, true }
	e := New()
	require.NoError(t, e.RegisterRule(sig))

	tree, _ := md5Tree()
	_, err := e.Analyze(context.Background(), tree, nil)
	assert.ErrorIs(t, err, ErrSignatureConflict)
}

func TestAnalyzeStopsOnCancel(t *testing.T) {
	e := New()
	require.NoError(t, e.RegisterRule(anyIdentifier()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tree, _ := md5Tree()
	diags, err := e.Analyze(ctx, tree, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, diags)
}

func TestReportRequiresMatch(t *testing.T) {
	sig := md5Rule()
	_, err := report(&sig, NoMatch)
	assert.Error(t, err)
}

func TestTemplateEscapes(t *testing.T) {
	names, err := parsePlaceholders("{{literal}} {a} and {b}")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	msg, args, err := expand("{{literal}} {a} and {b}", Bindings{"a": {Text: "x"}, "b": {Text: "y"}})
	require.NoError(t, err)
	assert.Equal(t, "{literal} x and y", msg)
	assert.Equal(t, []string{"x", "y"}, args)

	_, err = parsePlaceholders("stray } brace")
	assert.Error(t, err)
}

func TestPrimaryAndSecondarySpans(t *testing.T) {
	sig := Signature{
		ID:         "spans",
		Message:    "{callee} called",
		Bindings:   []string{"callee", "arg"},
		Primary:    "callee",
		Secondary:  []string{"arg"},
		Categories: []syntax.Category{syntax.CategoryInvocation},
		Structural: func(c syntax.Cursor) (Bindings, bool) {
			fn := syntax.Child(c.Node(), 0)
			arg := syntax.Child(c.Node(), 1)
			return Bindings{
				"callee": {Text: fn.Text(), Span: fn.Span()},
				"arg":    {Text: arg.Text(), Span: arg.Span()},
			}, true
		},
	}
	e := New()
	require.NoError(t, e.RegisterRule(sig))

	call := syntax.New(syntax.KindCall, "", span(1),
		syntax.New(syntax.KindIdentifier, "f", span(2)),
		syntax.New(syntax.KindLiteral, "1", span(3)))
	diags, err := e.Analyze(context.Background(), syntax.Tree{Root: call}, nil)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, span(2), diags[0].Span())
	assert.Equal(t, []syntax.Span{span(3)}, diags[0].SecondarySpans())
	assert.Equal(t, "f called", diags[0].Message())
}

func anyIdentifier() Signature {
	return Signature{
		ID:         "identifier",
		Severity:   SeverityLow,
		Message:    "identifier {name}",
		Bindings:   []string{"name"},
		Categories: []syntax.Category{syntax.CategoryIdentifier},
		Structural: func(c syntax.Cursor) (Bindings, bool) {
			return Bindings{"name": {Text: c.Node().Text(), Span: c.Node().Span()}}, true
		},
	}
}

func wideTree(path string, n int) syntax.Tree {
	children := make([]syntax.Node, n)
	for i := range children {
		var child syntax.Node = syntax.New(syntax.KindIdentifier, fmt.Sprintf("v%d", i), span(i+1))
		if i%3 == 0 {
			child = syntax.New(syntax.KindLiteral, fmt.Sprint(i), span(i+1))
		}
		children[i] = child
	}
	return syntax.Tree{Path: path, Root: syntax.New(syntax.KindFile, path, span(1), children...)}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	e := New()
	require.NoError(t, e.RegisterRule(anyIdentifier()))

	tree := wideTree("a.cs", 50)
	first, err := e.Analyze(context.Background(), tree, nil)
	require.NoError(t, err)
	second, err := e.Analyze(context.Background(), tree, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestConcurrentTreesKeepTheirOrder(t *testing.T) {
	literals := Signature{
		ID:         "literal",
		Message:    "literal {value}",
		Bindings:   []string{"value"},
		Categories: []syntax.Category{syntax.CategoryLiteral},
		Structural: func(c syntax.Cursor) (Bindings, bool) {
			return Bindings{"value": {Text: c.Node().Text(), Span: c.Node().Span()}}, true
		},
	}
	idents := New()
	require.NoError(t, idents.RegisterRule(anyIdentifier()))
	lits := New()
	require.NoError(t, lits.RegisterRule(literals))

	a, b := wideTree("a.cs", 200), wideTree("b.cs", 150)
	wantA, err := idents.Analyze(context.Background(), a, nil)
	require.NoError(t, err)
	wantB, err := lits.Analyze(context.Background(), b, nil)
	require.NoError(t, err)

	for range 20 {
		var gotA, gotB []Diagnostic
		var errA, errB error
		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); gotA, errA = idents.Analyze(context.Background(), a, nil) }()
		go func() { defer wg.Done(); gotB, errB = lits.Analyze(context.Background(), b, nil) }()
		wg.Wait()

		require.NoError(t, errA)
		require.NoError(t, errB)
		assert.Equal(t, wantA, gotA)
		assert.Equal(t, wantB, gotB)
	}
}

func TestAnalyzeTrees(t *testing.T) {
	e := New()
	require.NoError(t, e.RegisterRule(anyIdentifier()))

	units := make([]Unit, 8)
	want := make([][]Diagnostic, len(units))
	for i := range units {
		units[i] = Unit{Tree: wideTree(fmt.Sprintf("f%d.cs", i), 10+i)}
		var err error
		want[i], err = e.Analyze(context.Background(), units[i].Tree, nil)
		require.NoError(t, err)
	}

	got, err := e.AnalyzeTrees(context.Background(), units, 3)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestAnalyzeTreesReportsSinkFailure(t *testing.T) {
	e := New()
	require.NoError(t, e.RegisterRule(anyIdentifier()))

	units := []Unit{
		{Tree: wideTree("ok.cs", 4)},
		{Tree: wideTree("bad.cs", 4), Sink: SinkFunc(func(Diagnostic) error { return errors.New("closed") })},
	}
	_, err := e.AnalyzeTrees(context.Background(), units, 0)
	require.ErrorIs(t, err, ErrHostReporting)
	assert.Contains(t, err.Error(), "bad.cs")
}

func TestParseSeverity(t *testing.T) {
	for _, s := range []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical} {
		got, err := ParseSeverity(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	got, err := ParseSeverity(" high ")
	require.NoError(t, err)
	assert.Equal(t, SeverityHigh, got)

	_, err = ParseSeverity("blocker")
	assert.Error(t, err)
	assert.Equal(t, "UNKNOWN", Severity(42).String())
}
