package analyzer

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"rulecheck/internal/config"
	"rulecheck/internal/engine"
	"rulecheck/internal/models"

	"github.com/fatih/color"
)

// ReportGenerator handles formatting and displaying analysis results
type ReportGenerator struct {
	format string
	config *config.Config
}

// NewReportGenerator creates a new report generator
func NewReportGenerator(format string) *ReportGenerator {
	return &ReportGenerator{
		format: format,
		config: config.DefaultConfig(),
	}
}

func NewReportGeneratorWithConfig(cfg *config.Config) *ReportGenerator {
	return &ReportGenerator{
		format: cfg.Output.Format,
		config: cfg,
	}
}

// Generate creates a formatted report from analysis results
func (r *ReportGenerator) Generate(result *models.AnalysisResult) string {
	switch r.format {
	case "json":
		return r.generateJSON(result)
	case "sarif":
		return r.generateSARIF(result)
	default:
		return r.generateConsole(result)
	}
}

// generateJSON creates a JSON report
func (r *ReportGenerator) generateJSON(result *models.AnalysisResult) string {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error generating JSON report: %v", err)
	}
	return string(data)
}

func (r *ReportGenerator) generateSARIF(result *models.AnalysisResult) string {
	data, err := json.MarshalIndent(buildSARIF(result), "", "  ")
	if err != nil {
		return fmt.Sprintf("Error generating SARIF report: %v", err)
	}
	return string(data)
}

// generateConsole creates a colorized console report
func (r *ReportGenerator) generateConsole(result *models.AnalysisResult) string {
	var report strings.Builder

	useColors := r.config.Output.Colors
	verbose := r.config.Output.Verbose
	showDetails := r.config.Output.ShowDetails

	// Header
	if useColors {
		report.WriteString(color.CyanString("🔍 RuleCheck Analysis Report\n"))
		report.WriteString(color.WhiteString("═══════════════════════════════════════\n\n"))
	} else {
		report.WriteString("RuleCheck Analysis Report\n")
		report.WriteString("=======================================\n\n")
	}

	if verbose {
		r.writeConfigInfo(&report, useColors)
	}

	r.writeSummary(&report, result, useColors)
	r.writeQualityScore(&report, result, useColors)

	if len(result.Diagnostics) > 0 {
		r.writeSeveritySummary(&report, result, useColors)

		if showDetails {
			report.WriteString("\n")
			r.writeDetailedDiagnostics(&report, result, useColors)
		}
	} else {
		if useColors {
			report.WriteString(color.GreenString("🎉 No issues detected! Great job!\n\n"))
		} else {
			report.WriteString("No issues detected! Great job!\n\n")
		}
	}

	if verbose && len(result.Skipped) > 0 {
		r.writeSkipped(&report, result, useColors)
	}

	// Footer
	if useColors {
		report.WriteString(color.WhiteString("Analysis completed in %s\n", result.AnalysisDuration))
	} else {
		report.WriteString(fmt.Sprintf("Analysis completed in %s\n", result.AnalysisDuration))
	}

	return report.String()
}

// ScoreLabel names the band a score falls into.
func (r *ReportGenerator) ScoreLabel(score int) string {
	st := r.config.Analysis.ScoreThresholds
	switch {
	case score >= st.Excellent:
		return "excellent"
	case score >= st.Good:
		return "good"
	case score >= st.Fair:
		return "fair"
	default:
		return "poor"
	}
}

// writeQualityScore writes the quality score with color coding
func (r *ReportGenerator) writeQualityScore(report *strings.Builder, result *models.AnalysisResult, useColors bool) {
	score := result.QualityScore
	if !useColors {
		report.WriteString(fmt.Sprintf("Quality Score: %d/100 (%s)\n\n", score, r.ScoreLabel(score)))
		return
	}

	var scoreColor func(a ...interface{}) string
	var emoji string
	switch r.ScoreLabel(score) {
	case "excellent":
		scoreColor = color.New(color.FgGreen).SprintFunc()
		emoji = "🌟"
	case "good":
		scoreColor = color.New(color.FgYellow).SprintFunc()
		emoji = "⚡"
	case "fair":
		scoreColor = color.New(color.FgHiYellow).SprintFunc()
		emoji = "⚠️"
	default:
		scoreColor = color.New(color.FgRed).SprintFunc()
		emoji = "🚨"
	}
	scoreText := scoreColor(fmt.Sprintf("%d", score))
	report.WriteString(fmt.Sprintf("%s Quality Score: %s/100\n\n", emoji, scoreText))
}

// getSeverityDisplay returns emoji and color function for a severity level
func (r *ReportGenerator) getSeverityDisplay(severity engine.Severity) (string, func(a ...interface{}) string) {
	switch severity {
	case engine.SeverityCritical:
		return "🚨", color.New(color.FgRed, color.Bold).SprintFunc()
	case engine.SeverityHigh:
		return "❌", color.New(color.FgRed).SprintFunc()
	case engine.SeverityMedium:
		return "⚠️", color.New(color.FgYellow).SprintFunc()
	case engine.SeverityLow:
		return "ℹ️", color.New(color.FgBlue).SprintFunc()
	default:
		return "❓", color.New(color.FgWhite).SprintFunc()
	}
}

func (r *ReportGenerator) writeConfigInfo(report *strings.Builder, useColors bool) {
	st := r.config.Analysis.ScoreThresholds
	if useColors {
		report.WriteString(color.WhiteString("📋 Configuration:\n"))
		report.WriteString(fmt.Sprintf("   Enabled categories: %s\n",
			color.CyanString(strings.Join(r.config.Analysis.EnabledCategories, ", "))))
		report.WriteString(fmt.Sprintf("   Score thresholds: %s\n",
			color.CyanString("%d/%d/%d", st.Excellent, st.Good, st.Fair)))
	} else {
		report.WriteString("Configuration:\n")
		report.WriteString(fmt.Sprintf("   Enabled categories: %s\n", strings.Join(r.config.Analysis.EnabledCategories, ", ")))
		report.WriteString(fmt.Sprintf("   Score thresholds: %d/%d/%d\n", st.Excellent, st.Good, st.Fair))
	}
	report.WriteString("\n")
}

func (r *ReportGenerator) writeSummary(report *strings.Builder, result *models.AnalysisResult, useColors bool) {
	if useColors {
		report.WriteString(color.WhiteString("📊 Summary:\n"))
	} else {
		report.WriteString("Summary:\n")
	}
	report.WriteString(fmt.Sprintf("   Files analyzed: %d\n", len(result.Files)))
	if len(result.Skipped) > 0 {
		report.WriteString(fmt.Sprintf("   Files skipped: %d\n", len(result.Skipped)))
	}
	report.WriteString(fmt.Sprintf("   Issues found: %d\n", result.TotalIssues))
	report.WriteString("\n")
}

func (r *ReportGenerator) writeSeveritySummary(report *strings.Builder, result *models.AnalysisResult, useColors bool) {
	if useColors {
		report.WriteString(color.WhiteString("📋 Issues by Severity:\n"))
	} else {
		report.WriteString("Issues by Severity:\n")
	}

	severities := []engine.Severity{engine.SeverityCritical, engine.SeverityHigh, engine.SeverityMedium, engine.SeverityLow}
	for _, severity := range severities {
		count := result.IssuesBySeverity[severity.String()]
		if count == 0 {
			continue
		}
		if useColors {
			emoji, colorFunc := r.getSeverityDisplay(severity)
			countText := colorFunc(fmt.Sprintf("%d", count))
			report.WriteString(fmt.Sprintf("   %s %s: %s\n", emoji, severity, countText))
		} else {
			report.WriteString(fmt.Sprintf("   %s: %d\n", severity, count))
		}
	}
}

func (r *ReportGenerator) writeDetailedDiagnostics(report *strings.Builder, result *models.AnalysisResult, useColors bool) {
	if useColors {
		report.WriteString(color.WhiteString("\n🔍 Detailed Issues:\n"))
	} else {
		report.WriteString("\nDetailed Issues:\n")
	}
	report.WriteString(strings.Repeat("─", 50) + "\n\n")

	// Critical first; source order within a severity.
	sorted := slices.Clone(result.Diagnostics)
	slices.SortStableFunc(sorted, func(a, b engine.Diagnostic) int {
		return int(b.Severity()) - int(a.Severity())
	})

	for i, d := range sorted {
		r.writeDiagnostic(report, d, i+1, useColors)
		report.WriteString("\n")
	}
}

func (r *ReportGenerator) writeDiagnostic(report *strings.Builder, d engine.Diagnostic, index int, useColors bool) {
	if useColors {
		emoji, severityColor := r.getSeverityDisplay(d.Severity())

		report.WriteString(fmt.Sprintf("%s Issue #%d - %s %s\n",
			emoji, index, severityColor(d.Severity().String()),
			color.WhiteString(strings.ToUpper(d.RuleID()))))
		report.WriteString(color.CyanString("   📍 Location: %s\n", d.Span()))
		for _, s := range d.SecondarySpans() {
			report.WriteString(color.CyanString("   🔗 Related: %s\n", s))
		}
		report.WriteString(color.WhiteString("   💭 Issue: %s\n", d.Message()))
		return
	}

	report.WriteString(fmt.Sprintf("Issue #%d - %s %s\n",
		index, d.Severity(), strings.ToUpper(d.RuleID())))
	report.WriteString(fmt.Sprintf("   Location: %s\n", d.Span()))
	for _, s := range d.SecondarySpans() {
		report.WriteString(fmt.Sprintf("   Related: %s\n", s))
	}
	report.WriteString(fmt.Sprintf("   Issue: %s\n", d.Message()))
}

func (r *ReportGenerator) writeSkipped(report *strings.Builder, result *models.AnalysisResult, useColors bool) {
	if useColors {
		report.WriteString(color.YellowString("⏭️  Skipped:\n"))
	} else {
		report.WriteString("Skipped:\n")
	}
	for _, s := range result.Skipped {
		report.WriteString(fmt.Sprintf("   %s: %s\n", s.Path, s.Reason))
	}
	report.WriteString("\n")
}
