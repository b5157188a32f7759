package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"text/tabwriter"

	"rulecheck/internal/analyzer"
	"rulecheck/internal/config"
	"rulecheck/internal/models"
	"rulecheck/internal/rules"
	"rulecheck/internal/watcher"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// ErrBelowThreshold is returned when the quality score is under
// analysis.fail_below.
var ErrBelowThreshold = errors.New("quality score below threshold")

type options struct {
	format         string
	watch          bool
	configPath     string
	generateConfig bool
	listRules      bool
	verbose        bool
	output         string
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "rulecheck [packages or files]",
		Short: "A rule-based static analyzer for Go",
		Long: `rulecheck matches Go code against a set of declarative rules (weak
cryptography, suspicious nil checks, unjustified lint suppressions, nested
loops, string building in loops, long functions) and reports diagnostics.

Examples:
  rulecheck                                # Analyze ./...
  rulecheck ./internal/...                 # Analyze a package pattern
  rulecheck main.go utils.go               # Analyze specific files
  rulecheck --format=sarif . > out.sarif   # SARIF for code scanning
  rulecheck --config=.rulecheck.yml        # Use custom config
  rulecheck --generate-config              # Generate sample config file`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysis(cmd.Context(), stdout, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Output format (console, json, sarif)")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Watch mode for development")
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().BoolVar(&opts.generateConfig, "generate-config", false, "Generate sample configuration file")
	cmd.Flags().BoolVar(&opts.listRules, "list-rules", false, "List the available rules and exit")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output and debug logging")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the report to a file")
	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		if !errors.Is(err, ErrBelowThreshold) {
			fmt.Fprint(os.Stderr, color.RedString("Error: %v\n", err))
		}
		stop()
		os.Exit(1)
	}
}

// Status lines go to stderr so that json and sarif output stay parseable.
func info(format string, a ...any) {
	fmt.Fprint(os.Stderr, color.CyanString(format, a...))
}

func success(format string, a ...any) {
	fmt.Fprint(os.Stderr, color.GreenString(format, a...))
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func runAnalysis(ctx context.Context, stdout io.Writer, opts *options, args []string) error {
	if opts.generateConfig {
		return generateConfig(opts.configPath)
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if opts.format != "" {
		cfg.Output.Format = opts.format
	}
	if opts.verbose {
		cfg.Output.Verbose = true
	}
	if opts.output != "" {
		cfg.Output.OutputFile = opts.output
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if opts.listRules {
		return listRules(stdout, cfg)
	}

	logger := newLogger(cfg.Output.Verbose)
	a := analyzer.NewAnalyzerWithConfig(cfg, analyzer.WithLogger(logger))
	reportGen := analyzer.NewReportGeneratorWithConfig(cfg)

	if cfg.Output.Verbose {
		info("🔍 Analyzing with %d rules: %s\n", a.GetRuleCount(), strings.Join(a.GetRuleNames(), ", "))
		if opts.configPath != "" {
			info("📋 Using configuration: %s\n", opts.configPath)
		}
		info("🎯 Enabled categories: %s\n\n", strings.Join(cfg.Analysis.EnabledCategories, ", "))
	}

	result, err := analyze(ctx, a, args)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	if err := emit(stdout, reportGen.Generate(result), cfg); err != nil {
		return err
	}

	if opts.watch {
		return watch(ctx, stdout, cfg, a, reportGen, args, logger)
	}

	if cfg.Analysis.FailBelow > 0 && result.QualityScore < cfg.Analysis.FailBelow {
		return fmt.Errorf("%w: %d < %d", ErrBelowThreshold, result.QualityScore, cfg.Analysis.FailBelow)
	}
	return nil
}

// analyze treats an argument list made only of .go files as files and
// anything else as package patterns; a directory stands for itself and
// everything below it.
func analyze(ctx context.Context, a *analyzer.Analyzer, args []string) (*models.AnalysisResult, error) {
	if len(args) == 0 {
		args = []string{"./..."}
	}

	if !slices.ContainsFunc(args, func(arg string) bool { return !strings.HasSuffix(arg, ".go") }) {
		return a.AnalyzeFiles(ctx, args)
	}

	patterns := make([]string, len(args))
	for i, arg := range args {
		patterns[i] = arg
		if info, err := os.Stat(arg); err == nil && info.IsDir() {
			patterns[i] = toPattern(arg)
		}
	}
	return a.AnalyzePackages(ctx, "", patterns...)
}

func toPattern(dir string) string {
	dir = filepath.ToSlash(filepath.Clean(dir))
	if !filepath.IsAbs(dir) && !strings.HasPrefix(dir, ".") {
		dir = "./" + dir
	}
	return strings.TrimSuffix(dir, "/") + "/..."
}

func emit(stdout io.Writer, report string, cfg *config.Config) error {
	if cfg.Output.OutputFile == "" {
		_, err := fmt.Fprintln(stdout, report)
		return err
	}
	if err := writeReportToFile(report, cfg.Output.OutputFile); err != nil {
		return fmt.Errorf("failed to write report to file: %w", err)
	}
	success("📄 Report saved to: %s\n", cfg.Output.OutputFile)
	return nil
}

func watch(ctx context.Context, stdout io.Writer, cfg *config.Config, a *analyzer.Analyzer,
	reportGen *analyzer.ReportGenerator, args []string, logger *slog.Logger) error {
	roots := watchRoots(args)

	fw, err := watcher.NewFileWatcher(cfg, logger)
	if err != nil {
		return err
	}
	defer fw.Close()

	err = fw.Watch(roots, func(changed []string) error {
		patterns := changedPackages(changed)
		if len(patterns) == 0 {
			return nil
		}
		info("🔄 %d file(s) changed, re-analyzing %s\n", len(changed), strings.Join(patterns, " "))
		result, err := a.AnalyzePackages(ctx, "", patterns...)
		if err != nil {
			return err
		}
		return emit(stdout, reportGen.Generate(result), cfg)
	})
	if err != nil {
		return err
	}

	info("👀 Watching %d directories, press Ctrl+C to stop\n", len(fw.GetWatchedPaths()))
	<-ctx.Done()
	return nil
}

// watchRoots maps the analysis arguments to directories.
func watchRoots(args []string) []string {
	if len(args) == 0 {
		return []string{"."}
	}
	var roots []string
	for _, arg := range args {
		root := strings.TrimSuffix(strings.TrimSuffix(arg, "..."), "/")
		if root == "" {
			root = "."
		}
		if strings.HasSuffix(root, ".go") {
			root = filepath.Dir(root)
		}
		if !slices.Contains(roots, root) {
			roots = append(roots, root)
		}
	}
	return roots
}

// changedPackages returns the directories of the changed files that still
// exist, as absolute package patterns.
func changedPackages(files []string) []string {
	var dirs []string
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		dir, err := filepath.Abs(filepath.Dir(f))
		if err != nil {
			continue
		}
		if !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

func listRules(stdout io.Writer, cfg *config.Config) error {
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCATEGORY\tSEVERITY\tENABLED\tDESCRIPTION")
	for _, r := range rules.All(cfg) {
		sig := r.Signature
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n",
			sig.ID, r.Category, cfg.SeverityFor(sig.ID, sig.Severity), cfg.IsRuleEnabled(sig.ID), r.Description)
	}
	return tw.Flush()
}

func writeReportToFile(report, filePath string) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(filePath, []byte(report), 0644)
}

func generateConfig(configPath string) error {
	if configPath == "" {
		configPath = ".rulecheck.yml"
	}
	if err := config.GenerateConfig(configPath); err != nil {
		return fmt.Errorf("failed to generate config file: %w", err)
	}
	success("✅ Generated sample configuration file: %s\n", configPath)
	info("📝 Edit this file to customize rulecheck behavior\n")
	info("🚀 Run 'rulecheck --config=%s .' to use it\n", configPath)
	return nil
}
