package analyzer

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/tools/go/packages"

	"rulecheck/internal/config"
	"rulecheck/internal/engine"
	"rulecheck/internal/host/goast"
	"rulecheck/internal/models"
	"rulecheck/internal/rules"
)

// LoadMode is what the analyzer needs from go/packages.
const LoadMode = packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
	packages.NeedTypes | packages.NeedTypesInfo | packages.NeedImports

type Analyzer struct {
	config     *config.Config
	engine     *engine.Engine
	categories map[string]string
	logger     *slog.Logger
}

type Option func(*Analyzer)

func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

func NewAnalyzer(opts ...Option) *Analyzer {
	return NewAnalyzerWithConfig(config.DefaultConfig(), opts...)
}

func NewAnalyzerWithConfig(cfg *config.Config, opts ...Option) *Analyzer {
	a := &Analyzer{
		config:     cfg,
		categories: make(map[string]string),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.engine = engine.New(engine.WithLogger(a.logger))
	for _, r := range rules.All(cfg) {
		a.categories[r.Signature.ID] = r.Category
	}
	// Built-in rules are valid by construction.
	a.engine.MustRegister(rules.Default(cfg)...)
	return a
}

// GetRuleCount returns the number of active rules
func (a *Analyzer) GetRuleCount() int {
	return a.engine.RuleCount()
}

// GetRuleNames returns the ids of all active rules
func (a *Analyzer) GetRuleNames() []string {
	sigs := a.engine.Rules()
	names := make([]string, len(sigs))
	for i, s := range sigs {
		names[i] = s.ID
	}
	return names
}

// Category returns the config category of a rule id.
func (a *Analyzer) Category(ruleID string) string {
	return a.categories[ruleID]
}

// AnalyzePackages loads patterns (as accepted by go list) and analyzes every
// file they contain.
func (a *Analyzer) AnalyzePackages(ctx context.Context, dir string, patterns ...string) (*models.AnalysisResult, error) {
	startTime := time.Now()
	result := models.NewAnalysisResult()

	cfg := &packages.Config{
		Context: ctx,
		Mode:    LoadMode,
		Dir:     dir,
		Tests:   a.config.Files.IncludeTests,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}

	var units []engine.Unit
	seen := make(map[string]bool)
	for _, pkg := range pkgs {
		if len(pkg.Syntax) == 0 {
			for _, perr := range pkg.Errors {
				a.skip(result, pkg.PkgPath, perr)
			}
			continue
		}
		// Type errors leave gaps in TypesInfo; rules needing the missing
		// facts simply do not fire.
		for _, perr := range pkg.Errors {
			a.logger.Debug("package has errors", "package", pkg.PkgPath, "error", perr)
		}

		resolver := goast.NewResolver(pkg.Types, pkg.TypesInfo)
		for _, f := range pkg.Syntax {
			name := pkg.Fset.File(f.Pos()).Name()
			if seen[name] {
				continue
			}
			seen[name] = true
			if err := a.admit(name); err != nil {
				a.logger.Debug("file excluded", "file", name, "reason", err)
				continue
			}
			units = append(units, engine.Unit{Tree: goast.Build(pkg.Fset, f), Resolver: resolver})
		}
	}

	if err := a.run(ctx, units, result); err != nil {
		return nil, err
	}
	result.AnalysisDuration = time.Since(startTime).String()
	result.CalculateScore()
	return result, nil
}

// AnalyzeFiles parses and type-checks the named files directory by
// directory, importing dependencies from source. Files that do not parse are
// skipped.
func (a *Analyzer) AnalyzeFiles(ctx context.Context, filenames []string) (*models.AnalysisResult, error) {
	startTime := time.Now()
	result := models.NewAnalysisResult()

	byDir := make(map[string][]string)
	var dirs []string
	for _, name := range filenames {
		if err := a.admit(name); err != nil {
			a.logger.Debug("file excluded", "file", name, "reason", err)
			continue
		}
		dir := filepath.Dir(name)
		if _, ok := byDir[dir]; !ok {
			dirs = append(dirs, dir)
		}
		byDir[dir] = append(byDir[dir], name)
	}

	var units []engine.Unit
	for _, dir := range dirs {
		fset := token.NewFileSet()
		var files []*ast.File
		for _, name := range byDir[dir] {
			parsed, err := goast.ParseFiles(fset, name)
			if err != nil {
				a.skip(result, name, err)
				continue
			}
			files = append(files, parsed...)
		}
		if len(files) == 0 {
			continue
		}

		unit, err := goast.Check(fset, dir, files)
		if err != nil {
			return nil, err
		}
		for _, terr := range unit.TypeErrors {
			a.logger.Debug("type error", "dir", dir, "error", terr)
		}
		for _, tree := range unit.Trees() {
			units = append(units, engine.Unit{Tree: tree, Resolver: unit.Resolver})
		}
	}

	if err := a.run(ctx, units, result); err != nil {
		return nil, err
	}
	result.AnalysisDuration = time.Since(startTime).String()
	result.CalculateScore()
	return result, nil
}

func (a *Analyzer) run(ctx context.Context, units []engine.Unit, result *models.AnalysisResult) error {
	diags, err := a.engine.AnalyzeTrees(ctx, units, a.config.Analysis.MaxWorkers)
	if err != nil {
		return err
	}
	for i, u := range units {
		result.Files = append(result.Files, u.Tree.Path)
		for _, d := range diags[i] {
			result.AddDiagnostic(d, a.categories[d.RuleID()])
		}
	}
	return nil
}

func (a *Analyzer) skip(result *models.AnalysisResult, path string, err error) {
	a.logger.Warn("skipping", "path", path, "error", err)
	result.AddSkipped(path, err)
}

var (
	errExcluded = errors.New("matches an exclude pattern")
	errTestFile = errors.New("test files are not analyzed")
	errTooLarge = errors.New("file exceeds max_file_size")
)

// admit applies the files section of the config to one path.
func (a *Analyzer) admit(path string) error {
	if a.config.Files.IsExcluded(path) {
		return errExcluded
	}
	if strings.HasSuffix(path, "_test.go") && !a.config.Files.IncludeTests {
		return errTestFile
	}
	if limit := a.config.Files.MaxFileSize; limit > 0 {
		if info, err := os.Stat(path); err == nil && info.Size() > int64(limit)*1024 {
			return errTooLarge
		}
	}
	return nil
}
