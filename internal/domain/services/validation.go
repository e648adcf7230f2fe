package services

import (
	"fmt"
	"regexp"

	"github.com/ochairo/uxaudit/internal/domain/entities"
)

// Confidence bands reported by the validation harness
const (
	highConfidence = 0.8
	lowConfidence  = 0.6
)

// GroundTruthMatch is the outcome for one ground-truth item
type GroundTruthMatch struct {
	Truth      entities.GroundTruthFinding `json:"truth"`
	Matched    bool                        `json:"matched"`
	FindingIDs []string                    `json:"findingIds,omitempty"`
}

// CategoryCoverage compares generated and expected counts for one category
type CategoryCoverage struct {
	Category    entities.Category `json:"category"`
	Generated   int               `json:"generated"`
	GroundTruth int               `json:"groundTruth"`
}

// ConfidenceStats summarizes finding confidence in the report
type ConfidenceStats struct {
	Average float64 `json:"average"`
	High    int     `json:"high"` // > 0.8
	Low     int     `json:"low"`  // < 0.6
}

// ValidationResult is the recall report of one validation run.
// Precision is not computed: a match only shows textual overlap.
type ValidationResult struct {
	URL        string             `json:"url"`
	Generated  int                `json:"generated"`
	Total      int                `json:"total"`
	Matched    int                `json:"matched"`
	Recall     float64            `json:"recall"`
	Items      []GroundTruthMatch `json:"items"`
	Categories []CategoryCoverage `json:"categories"`
	Confidence ConfidenceStats    `json:"confidence"`
}

// Misses returns the ground-truth items no finding matched
func (r *ValidationResult) Misses() []entities.GroundTruthFinding {
	var out []entities.GroundTruthFinding
	for _, item := range r.Items {
		if !item.Matched {
			out = append(out, item.Truth)
		}
	}
	return out
}

// Validate checks each ground-truth keyword (case-insensitive regex) against
// every finding's description, evidence and recommendation. An invalid
// pattern aborts the run with ErrInvalidGroundTruth.
func Validate(report *entities.AuditReport, truths []entities.GroundTruthFinding) (*ValidationResult, error) {
	patterns := make([]*regexp.Regexp, len(truths))
	for i, truth := range truths {
		re, err := regexp.Compile("(?i)" + truth.Keyword)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d (%s) keyword %q: %v", ErrInvalidGroundTruth, i, truth.Description, truth.Keyword, err)
		}
		patterns[i] = re
	}

	result := &ValidationResult{
		URL:       report.URL,
		Generated: len(report.Findings),
		Total:     len(truths),
		Items:     make([]GroundTruthMatch, 0, len(truths)),
	}

	for i, truth := range truths {
		match := GroundTruthMatch{Truth: truth}
		for _, f := range report.Findings {
			if patterns[i].MatchString(f.Description) ||
				patterns[i].MatchString(f.Evidence) ||
				patterns[i].MatchString(f.Recommendation) {
				match.Matched = true
				match.FindingIDs = append(match.FindingIDs, f.ID)
			}
		}
		if match.Matched {
			result.Matched++
		}
		result.Items = append(result.Items, match)
	}

	if result.Total > 0 {
		result.Recall = float64(result.Matched) / float64(result.Total)
	}

	result.Categories = categoryCoverage(report.Findings, truths)
	result.Confidence = confidenceStats(report.Findings)
	return result, nil
}

func categoryCoverage(findings []entities.Finding, truths []entities.GroundTruthFinding) []CategoryCoverage {
	generated := make(map[entities.Category]int)
	for _, f := range findings {
		generated[f.Category]++
	}
	expected := make(map[entities.Category]int)
	for _, t := range truths {
		expected[t.Category]++
	}

	var out []CategoryCoverage
	for _, c := range entities.AllCategories {
		if generated[c] == 0 && expected[c] == 0 {
			continue
		}
		out = append(out, CategoryCoverage{Category: c, Generated: generated[c], GroundTruth: expected[c]})
	}
	return out
}

func confidenceStats(findings []entities.Finding) ConfidenceStats {
	var stats ConfidenceStats
	if len(findings) == 0 {
		return stats
	}
	var sum float64
	for _, f := range findings {
		sum += f.Confidence
		if f.Confidence > highConfidence {
			stats.High++
		}
		if f.Confidence < lowConfidence {
			stats.Low++
		}
	}
	stats.Average = round2(sum / float64(len(findings)))
	return stats
}
