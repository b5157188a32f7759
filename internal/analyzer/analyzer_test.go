package analyzer

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rulecheck/internal/config"
	"rulecheck/internal/models"
)

const sampleSource = `package sample

import "crypto/md5"

func Digest(rows [][]byte) [][16]byte {
	var out [][16]byte
	for _, row := range rows {
		for range row {
		}
		out = append(out, md5.Sum(row))
	}
	return out
}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func ruleIDs(result *models.AnalysisResult) []string {
	var ids []string
	for _, d := range result.Diagnostics {
		ids = append(ids, d.RuleID())
	}
	return ids
}

func TestAnalyzeFiles(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "sample.go", sampleSource)
	bad := writeFile(t, dir, "broken.go", "package sample\n\nfunc {\n")
	test := writeFile(t, dir, "sample_test.go", "package sample\n")

	a := NewAnalyzer()
	result, err := a.AnalyzeFiles(context.Background(), []string{good, bad, test})
	require.NoError(t, err)

	assert.Equal(t, []string{good}, result.Files)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, bad, result.Skipped[0].Path)

	assert.Equal(t, []string{"nested-loops", "weak-crypto-md5"}, ruleIDs(result))
	assert.Equal(t, 2, result.TotalIssues)
	// 15*1.5 + 30*1.8
	assert.Equal(t, 100-22-54, result.QualityScore)
	assert.NotEmpty(t, result.AnalysisDuration)
}

func TestAnalyzeFilesRespectsConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "sample.go", sampleSource)

	cfg := config.DefaultConfig()
	cfg.Rules.Security.Enabled = false
	a := NewAnalyzerWithConfig(cfg)
	assert.NotContains(t, a.GetRuleNames(), "weak-crypto-md5")
	assert.Equal(t, "performance", a.Category("nested-loops"))

	result, err := a.AnalyzeFiles(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Equal(t, []string{"nested-loops"}, ruleIDs(result))
}

func TestAnalyzePackages(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", "module example.com/m\n\ngo 1.22\n")
	writeFile(t, dir, "sample/sample.go", sampleSource)
	writeFile(t, dir, "other/other.go", `package other

func Has(x *int) bool {
	return !(x == nil)
}
`)

	a := NewAnalyzer()
	result, err := a.AnalyzePackages(context.Background(), dir, "./...")
	require.NoError(t, err)

	assert.Len(t, result.Files, 2)
	assert.Empty(t, result.Skipped)
	assert.ElementsMatch(t, []string{"nested-loops", "weak-crypto-md5", "negated-null-check"}, ruleIDs(result))
	assert.Equal(t, map[string]int{"nested-loops": 1, "weak-crypto-md5": 1, "negated-null-check": 1}, result.IssuesByRule)
}

func analyzedSample(t *testing.T) *models.AnalysisResult {
	t.Helper()
	path := writeFile(t, t.TempDir(), "sample.go", sampleSource)
	result, err := NewAnalyzer().AnalyzeFiles(context.Background(), []string{path})
	require.NoError(t, err)
	return result
}

func TestConsoleReport(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output.Colors = false
	out := NewReportGeneratorWithConfig(cfg).Generate(analyzedSample(t))

	assert.Contains(t, out, "RuleCheck Analysis Report")
	assert.Contains(t, out, "Issues found: 2")
	assert.Contains(t, out, "Quality Score: 24/100 (poor)")
	assert.Contains(t, out, "HIGH: 1")
	assert.Contains(t, out, "Issue #1 - HIGH WEAK-CRYPTO-MD5")
	assert.Contains(t, out, "Issue #2 - MEDIUM NESTED-LOOPS")
	assert.Contains(t, out, "sample.go:8:3")
	assert.Contains(t, out, "Related: ")
}

func TestConsoleReportWithoutIssues(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output.Colors = false
	out := NewReportGeneratorWithConfig(cfg).Generate(models.NewAnalysisResult())
	assert.Contains(t, out, "No issues detected")
}

func TestJSONReport(t *testing.T) {
	out := NewReportGenerator("json").Generate(analyzedSample(t))

	var decoded struct {
		TotalIssues int `json:"total_issues"`
		Diagnostics []struct {
			RuleID   string `json:"rule_id"`
			Severity string `json:"severity"`
		} `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 2, decoded.TotalIssues)
	require.Len(t, decoded.Diagnostics, 2)
	assert.Equal(t, "weak-crypto-md5", decoded.Diagnostics[1].RuleID)
	assert.Equal(t, "HIGH", decoded.Diagnostics[1].Severity)
}

func TestSARIFReport(t *testing.T) {
	out := NewReportGenerator("sarif").Generate(analyzedSample(t))

	var log sarifLog
	require.NoError(t, json.Unmarshal([]byte(out), &log))
	assert.Equal(t, "2.1.0", log.Version)
	require.Len(t, log.Runs, 1)

	run := log.Runs[0]
	assert.Equal(t, "rulecheck", run.Tool.Driver.Name)
	require.Len(t, run.Tool.Driver.Rules, 2)
	require.Len(t, run.Results, 2)

	loops := run.Results[0]
	assert.Equal(t, "nested-loops", loops.RuleID)
	assert.Equal(t, "warning", loops.Level)
	require.Len(t, loops.Locations, 1)
	assert.Equal(t, 8, loops.Locations[0].PhysicalLocation.Region.StartLine)
	require.Len(t, loops.RelatedLocations, 1)
	assert.Equal(t, 7, loops.RelatedLocations[0].PhysicalLocation.Region.StartLine)

	crypto := run.Results[1]
	assert.Equal(t, "error", crypto.Level)
	assert.Equal(t, 1, crypto.RuleIndex)
	assert.Equal(t, []string{"md5.Sum", "MD5"}, crypto.Properties.Arguments)
}

func TestScoreLabel(t *testing.T) {
	r := NewReportGenerator("console")
	assert.Equal(t, "excellent", r.ScoreLabel(95))
	assert.Equal(t, "good", r.ScoreLabel(80))
	assert.Equal(t, "fair", r.ScoreLabel(50))
	assert.Equal(t, "poor", r.ScoreLabel(10))
}
