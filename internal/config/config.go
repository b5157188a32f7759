// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"rulecheck/internal/engine"
)

// Config represents the configuration for rulecheck
type Config struct {
	// General settings
	Version     string `yaml:"version" json:"version"`
	ProjectName string `yaml:"project_name,omitempty" json:"project_name,omitempty"`

	// Analysis settings
	Analysis AnalysisConfig `yaml:"analysis" json:"analysis"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Rule-specific configurations
	Rules RulesConfig `yaml:"rules" json:"rules"`

	// File patterns
	Files FilesConfig `yaml:"files" json:"files"`
}

type AnalysisConfig struct {
	// Quality score thresholds
	ScoreThresholds ScoreThresholds `yaml:"score_thresholds" json:"score_thresholds"`

	// Enable/disable entire categories
	EnabledCategories []string `yaml:"enabled_categories" json:"enabled_categories"`

	// Parallel analysis
	MaxWorkers int `yaml:"max_workers" json:"max_workers"`

	// Exit with status 1 when the score drops below this value (0 disables)
	FailBelow int `yaml:"fail_below" json:"fail_below"`
}

type ScoreThresholds struct {
	Excellent int `yaml:"excellent" json:"excellent"` // >= 90
	Good      int `yaml:"good" json:"good"`           // >= 75
	Fair      int `yaml:"fair" json:"fair"`           // >= 50
	Poor      int `yaml:"poor" json:"poor"`           // < 50
}

type OutputConfig struct {
	// Default output format
	Format string `yaml:"format" json:"format"`

	// Colorized output
	Colors bool `yaml:"colors" json:"colors"`

	// Verbosity level
	Verbose bool `yaml:"verbose" json:"verbose"`

	// Show every diagnostic, not just the summary
	ShowDetails bool `yaml:"show_details" json:"show_details"`

	// Output file path (optional)
	OutputFile string `yaml:"output_file,omitempty" json:"output_file,omitempty"`
}

type RulesConfig struct {
	Security    SecurityRules    `yaml:"security" json:"security"`
	Quality     QualityRules     `yaml:"quality" json:"quality"`
	Performance PerformanceRules `yaml:"performance" json:"performance"`
	Complexity  ComplexityRules  `yaml:"complexity" json:"complexity"`

	// Severity overrides keyed by rule id
	Severity map[string]string `yaml:"severity,omitempty" json:"severity,omitempty"`
}

type SecurityRules struct {
	Enabled    bool             `yaml:"enabled" json:"enabled"`
	WeakCrypto WeakCryptoConfig `yaml:"weak_crypto" json:"weak_crypto"`
}

type QualityRules struct {
	Enabled                bool                         `yaml:"enabled" json:"enabled"`
	NegatedNullCheck       ToggleConfig                 `yaml:"negated_null_check" json:"negated_null_check"`
	DirectiveJustification DirectiveJustificationConfig `yaml:"directive_justification" json:"directive_justification"`
}

type PerformanceRules struct {
	Enabled      bool               `yaml:"enabled" json:"enabled"`
	NestedLoops  NestedLoopConfig   `yaml:"nested_loops" json:"nested_loops"`
	StringConcat StringConcatConfig `yaml:"string_concat" json:"string_concat"`
}

type ComplexityRules struct {
	Enabled        bool                 `yaml:"enabled" json:"enabled"`
	FunctionLength FunctionLengthConfig `yaml:"function_length" json:"function_length"`
	Cyclomatic     CyclomaticConfig     `yaml:"cyclomatic" json:"cyclomatic"`
}

// Individual rule configurations
type ToggleConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

type WeakCryptoConfig struct {
	Enabled    bool     `yaml:"enabled" json:"enabled"`
	Algorithms []string `yaml:"algorithms" json:"algorithms"` // md5, sha1, des, rc4
}

type DirectiveJustificationConfig struct {
	Enabled    bool     `yaml:"enabled" json:"enabled"`
	Directives []string `yaml:"directives" json:"directives"`
}

type NestedLoopConfig struct {
	Enabled  bool `yaml:"enabled" json:"enabled"`
	MaxDepth int  `yaml:"max_depth" json:"max_depth"`
}

type StringConcatConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

type FunctionLengthConfig struct {
	Enabled  bool `yaml:"enabled" json:"enabled"`
	MaxLines int  `yaml:"max_lines" json:"max_lines"`
}

type CyclomaticConfig struct {
	Enabled       bool `yaml:"enabled" json:"enabled"`
	MaxComplexity int  `yaml:"max_complexity" json:"max_complexity"`
}

type FilesConfig struct {
	// Exclude patterns (matched against the path and the base name)
	Exclude []string `yaml:"exclude" json:"exclude"`

	// Whether to analyze test files
	IncludeTests bool `yaml:"include_tests" json:"include_tests"`

	// Max file size (in KB)
	MaxFileSize int `yaml:"max_file_size" json:"max_file_size"`
}

// Rule categories
const (
	CategorySecurity    = "security"
	CategoryQuality     = "quality"
	CategoryPerformance = "performance"
	CategoryComplexity  = "complexity"
)

var validCategories = []string{CategorySecurity, CategoryQuality, CategoryPerformance, CategoryComplexity}

// WeakAlgorithms lists the algorithm keys accepted by rules.security.weak_crypto.algorithms.
var WeakAlgorithms = []string{"md5", "sha1", "des", "rc4"}

func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Analysis: AnalysisConfig{
			ScoreThresholds: ScoreThresholds{
				Excellent: 90,
				Good:      75,
				Fair:      50,
				Poor:      0,
			},
			EnabledCategories: slices.Clone(validCategories),
			MaxWorkers:        4,
			FailBelow:         0,
		},
		Output: OutputConfig{
			Format:      "console",
			Colors:      true,
			Verbose:     false,
			ShowDetails: true,
		},
		Rules: RulesConfig{
			Security: SecurityRules{
				Enabled: true,
				WeakCrypto: WeakCryptoConfig{
					Enabled:    true,
					Algorithms: slices.Clone(WeakAlgorithms),
				},
			},
			Quality: QualityRules{
				Enabled:          true,
				NegatedNullCheck: ToggleConfig{Enabled: true},
				DirectiveJustification: DirectiveJustificationConfig{
					Enabled:    true,
					Directives: []string{"nolint", "lint:ignore", "lint:file-ignore", "coverage:ignore"},
				},
			},
			Performance: PerformanceRules{
				Enabled: true,
				NestedLoops: NestedLoopConfig{
					Enabled:  true,
					MaxDepth: 1,
				},
				StringConcat: StringConcatConfig{Enabled: true},
			},
			Complexity: ComplexityRules{
				Enabled: true,
				FunctionLength: FunctionLengthConfig{
					Enabled:  true,
					MaxLines: 80,
				},
				Cyclomatic: CyclomaticConfig{
					Enabled:       true,
					MaxComplexity: 10,
				},
			},
			Severity: map[string]string{},
		},
		Files: FilesConfig{
			Exclude:      []string{"vendor", ".git", "node_modules", "testdata"},
			IncludeTests: false,
			MaxFileSize:  1024, // 1MB
		},
	}
}

// LoadConfig loads configuration from file or returns default
func LoadConfig(configPath string) (*Config, error) {
	// If no config path provided, look for default config files
	if configPath == "" {
		configPath = findConfigFile()
	}

	// If still no config found, return default
	if configPath == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	config := DefaultConfig() // Start with defaults

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// findConfigFile looks for config files in common locations
func findConfigFile() string {
	possiblePaths := []string{
		".rulecheck.yml",
		".rulecheck.yaml",
		"rulecheck.yml",
		"rulecheck.yaml",
		".config/rulecheck.yml",
		".config/rulecheck.yaml",
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	st := c.Analysis.ScoreThresholds
	if st.Excellent < st.Good || st.Good < st.Fair || st.Fair < st.Poor {
		return fmt.Errorf("score thresholds must be in descending order")
	}

	validFormats := []string{"console", "json", "sarif"}
	if !slices.Contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (valid: %v)", c.Output.Format, validFormats)
	}

	if c.Analysis.MaxWorkers < 1 {
		return fmt.Errorf("max_workers must be at least 1")
	}

	if c.Analysis.FailBelow < 0 || c.Analysis.FailBelow > 100 {
		return fmt.Errorf("fail_below must be between 0 and 100")
	}

	for _, category := range c.Analysis.EnabledCategories {
		if !slices.Contains(validCategories, category) {
			return fmt.Errorf("unknown category: %s (valid: %v)", category, validCategories)
		}
	}

	for _, alg := range c.Rules.Security.WeakCrypto.Algorithms {
		if !slices.Contains(WeakAlgorithms, strings.ToLower(alg)) {
			return fmt.Errorf("unknown weak_crypto algorithm: %s (valid: %v)", alg, WeakAlgorithms)
		}
	}

	nl := c.Rules.Performance.NestedLoops
	if nl.Enabled && nl.MaxDepth < 1 {
		return fmt.Errorf("nested_loops.max_depth must be at least 1")
	}

	fl := c.Rules.Complexity.FunctionLength
	if fl.Enabled && fl.MaxLines < 1 {
		return fmt.Errorf("function_length.max_lines must be at least 1")
	}

	cc := c.Rules.Complexity.Cyclomatic
	if cc.Enabled && cc.MaxComplexity < 1 {
		return fmt.Errorf("cyclomatic.max_complexity must be at least 1")
	}

	for id, severity := range c.Rules.Severity {
		if _, err := engine.ParseSeverity(severity); err != nil {
			return fmt.Errorf("severity override for %s: %w", id, err)
		}
	}

	return nil
}

// SaveConfig saves configuration to file
func (c *Config) SaveConfig(configPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateConfig creates a sample configuration file
func GenerateConfig(configPath string) error {
	config := DefaultConfig()
	return config.SaveConfig(configPath)
}

// IsExcluded reports whether any element of path, or the whole path,
// matches one of the exclude patterns.
func (f FilesConfig) IsExcluded(path string) bool {
	elems := strings.Split(filepath.ToSlash(filepath.Clean(path)), "/")
	for _, pattern := range f.Exclude {
		if matched, _ := filepath.Match(pattern, path); matched {
			return true
		}
		for _, e := range elems {
			if matched, _ := filepath.Match(pattern, e); matched {
				return true
			}
		}
	}
	return false
}

// IsCategoryEnabled reports whether a category is both listed in
// enabled_categories and switched on in its rules section.
func (c *Config) IsCategoryEnabled(category string) bool {
	if !slices.Contains(c.Analysis.EnabledCategories, category) {
		return false
	}
	switch category {
	case CategorySecurity:
		return c.Rules.Security.Enabled
	case CategoryQuality:
		return c.Rules.Quality.Enabled
	case CategoryPerformance:
		return c.Rules.Performance.Enabled
	case CategoryComplexity:
		return c.Rules.Complexity.Enabled
	default:
		return false
	}
}

// IsRuleEnabled checks if a specific rule is enabled
func (c *Config) IsRuleEnabled(ruleID string) bool {
	switch ruleID {
	case "weak-crypto-md5", "weak-crypto-sha1", "weak-crypto-des", "weak-crypto-rc4":
		alg := strings.TrimPrefix(ruleID, "weak-crypto-")
		return c.IsCategoryEnabled(CategorySecurity) && c.Rules.Security.WeakCrypto.Enabled &&
			slices.ContainsFunc(c.Rules.Security.WeakCrypto.Algorithms, func(a string) bool {
				return strings.EqualFold(a, alg)
			})
	case "negated-null-check":
		return c.IsCategoryEnabled(CategoryQuality) && c.Rules.Quality.NegatedNullCheck.Enabled
	case "directive-justification":
		return c.IsCategoryEnabled(CategoryQuality) && c.Rules.Quality.DirectiveJustification.Enabled
	case "nested-loops":
		return c.IsCategoryEnabled(CategoryPerformance) && c.Rules.Performance.NestedLoops.Enabled
	case "string-concat-in-loop":
		return c.IsCategoryEnabled(CategoryPerformance) && c.Rules.Performance.StringConcat.Enabled
	case "function-length":
		return c.IsCategoryEnabled(CategoryComplexity) && c.Rules.Complexity.FunctionLength.Enabled
	case "cyclomatic-complexity":
		return c.IsCategoryEnabled(CategoryComplexity) && c.Rules.Complexity.Cyclomatic.Enabled
	default:
		return false
	}
}

// SeverityFor returns the configured severity for a rule, or def when there
// is no (valid) override.
func (c *Config) SeverityFor(ruleID string, def engine.Severity) engine.Severity {
	raw, ok := c.Rules.Severity[ruleID]
	if !ok {
		return def
	}
	s, err := engine.ParseSeverity(raw)
	if err != nil {
		return def
	}
	return s
}
