package analyzer

import (
	"path/filepath"

	"rulecheck/internal/engine"
	"rulecheck/internal/models"
	"rulecheck/internal/syntax"
)

// Version is reported as the SARIF tool driver version.
const Version = "0.1.0"

// SARIF v2.1.0 types, the subset code scanning services read.

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	InformationURI string      `json:"informationUri,omitempty"`
	Version        string      `json:"version"`
	Rules          []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID               string              `json:"id"`
	Name             string              `json:"name,omitempty"`
	ShortDescription sarifMessage        `json:"shortDescription"`
	DefaultConfig    *sarifDefaultConfig `json:"defaultConfiguration,omitempty"`
}

type sarifDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID           string           `json:"ruleId"`
	RuleIndex        int              `json:"ruleIndex"`
	Level            string           `json:"level"`
	Message          sarifMessage     `json:"message"`
	Locations        []sarifLocation  `json:"locations,omitempty"`
	RelatedLocations []sarifLocation  `json:"relatedLocations,omitempty"`
	Properties       *sarifProperties `json:"properties,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn,omitempty"`
	EndLine     int `json:"endLine,omitempty"`
	EndColumn   int `json:"endColumn,omitempty"`
}

type sarifProperties struct {
	Severity  string   `json:"severity,omitempty"`
	Arguments []string `json:"arguments,omitempty"`
}

func buildSARIF(result *models.AnalysisResult) sarifLog {
	ruleIndex := map[string]int{}
	rules := []sarifRule{}
	results := []sarifResult{}

	for _, d := range result.Diagnostics {
		idx, seen := ruleIndex[d.RuleID()]
		if !seen {
			idx = len(rules)
			ruleIndex[d.RuleID()] = idx
			name := d.RuleName()
			if name == "" {
				name = d.RuleID()
			}
			rules = append(rules, sarifRule{
				ID:               d.RuleID(),
				Name:             name,
				ShortDescription: sarifMessage{Text: name},
				DefaultConfig:    &sarifDefaultConfig{Level: mapSeverityToSARIF(d.Severity())},
			})
		}

		res := sarifResult{
			RuleID:    d.RuleID(),
			RuleIndex: idx,
			Level:     mapSeverityToSARIF(d.Severity()),
			Message:   sarifMessage{Text: d.Message()},
			Properties: &sarifProperties{
				Severity:  d.Severity().String(),
				Arguments: d.Args(),
			},
		}
		if loc, ok := sarifLocationFor(d.Span()); ok {
			res.Locations = append(res.Locations, loc)
		}
		for _, s := range d.SecondarySpans() {
			if loc, ok := sarifLocationFor(s); ok {
				res.RelatedLocations = append(res.RelatedLocations, loc)
			}
		}
		results = append(results, res)
	}

	return sarifLog{
		Version: "2.1.0",
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json",
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:    "rulecheck",
				Version: Version,
				Rules:   rules,
			}},
			Results: results,
		}},
	}
}

func sarifLocationFor(s syntax.Span) (sarifLocation, bool) {
	if s.File == "" {
		return sarifLocation{}, false
	}
	loc := sarifLocation{
		PhysicalLocation: sarifPhysicalLocation{
			ArtifactLocation: sarifArtifactLocation{URI: filepath.ToSlash(s.File)},
		},
	}
	if s.Valid() {
		loc.PhysicalLocation.Region = &sarifRegion{
			StartLine:   s.Start.Line,
			StartColumn: s.Start.Column,
			EndLine:     s.End.Line,
			EndColumn:   s.End.Column,
		}
	}
	return loc, true
}

func mapSeverityToSARIF(s engine.Severity) string {
	switch s {
	case engine.SeverityCritical, engine.SeverityHigh:
		return "error"
	case engine.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}
