package models

import (
	"rulecheck/internal/engine"
)

// SkippedFile is a file that could not be analyzed, with the reason.
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

type AnalysisResult struct {
	Files            []string            `json:"files_analyzed"`
	Skipped          []SkippedFile       `json:"skipped,omitempty"`
	TotalIssues      int                 `json:"total_issues"`
	IssuesBySeverity map[string]int      `json:"issues_by_severity"`
	IssuesByRule     map[string]int      `json:"issues_by_rule"`
	Diagnostics      []engine.Diagnostic `json:"diagnostics"`
	QualityScore     int                 `json:"quality_score"` // 0-100 scale
	AnalysisDuration string              `json:"analysis_duration"`

	// rule id -> category, for scoring
	categories map[string]string
}

func NewAnalysisResult() *AnalysisResult {
	return &AnalysisResult{
		Files:            make([]string, 0),
		Diagnostics:      make([]engine.Diagnostic, 0),
		IssuesBySeverity: make(map[string]int),
		IssuesByRule:     make(map[string]int),
		categories:       make(map[string]string),
	}
}

// AddDiagnostic records d. category is the rule's config category and only
// affects scoring.
func (ar *AnalysisResult) AddDiagnostic(d engine.Diagnostic, category string) {
	ar.Diagnostics = append(ar.Diagnostics, d)
	ar.TotalIssues++
	ar.IssuesBySeverity[d.Severity().String()]++
	ar.IssuesByRule[d.RuleID()]++
	if category != "" {
		ar.categories[d.RuleID()] = category
	}
}

func (ar *AnalysisResult) AddSkipped(path string, err error) {
	ar.Skipped = append(ar.Skipped, SkippedFile{Path: path, Reason: err.Error()})
}

func (ar *AnalysisResult) CalculateScore() {
	if ar.TotalIssues == 0 {
		ar.QualityScore = 100
		return
	}

	penalty := 0
	for _, d := range ar.Diagnostics {
		basePenalty := 0
		switch d.Severity() {
		case engine.SeverityLow:
			basePenalty = 5
		case engine.SeverityMedium:
			basePenalty = 15
		case engine.SeverityHigh:
			basePenalty = 30
		case engine.SeverityCritical:
			basePenalty = 50
		}

		// Apply multipliers per rule category
		switch ar.categories[d.RuleID()] {
		case "complexity":
			basePenalty = int(float64(basePenalty) * 1.2) // maintainability
		case "performance":
			basePenalty = int(float64(basePenalty) * 1.5)
		case "security":
			basePenalty = int(float64(basePenalty) * 1.8)
		}

		penalty += basePenalty
	}

	ar.QualityScore = max(100-penalty, 0)
}
