package services

import (
	"fmt"
	"strings"

	"github.com/ochairo/uxaudit/internal/domain/entities"
)

const (
	structuredEffort = 2

	// LighthouseSurfaceThreshold is the score below which an opportunity becomes a finding
	LighthouseSurfaceThreshold = 0.5
	lighthouseSevereThreshold  = 0.25

	evidenceSnippetCount = 3
	evidenceSnippetLen   = 100
)

var axeImpact = map[string]int{
	"minor":    2,
	"moderate": 3,
	"serious":  4,
	"critical": 5,
}

// ConvertAccessibility maps axe-core violations to findings
func ConvertAccessibility(result entities.AccessibilityResult, policy ScoringPolicy) []entities.Finding {
	findings := make([]entities.Finding, 0, len(result.Violations))
	for _, v := range result.Violations {
		impact, ok := axeImpact[strings.ToLower(v.Impact)]
		if !ok {
			impact = 3
		}

		snippets := make([]string, 0, evidenceSnippetCount)
		for i, node := range v.Nodes {
			if i == evidenceSnippetCount {
				break
			}
			snippets = append(snippets, truncateRunes(node.HTML, evidenceSnippetLen))
		}

		location := "Unknown"
		recommendation := fmt.Sprintf("Fix %s violation", v.ID)
		if len(v.Nodes) > 0 {
			if targets := strings.Join(v.Nodes[0].Target, ", "); targets != "" {
				location = targets
			}
			if v.Nodes[0].FailureSummary != "" {
				recommendation = v.Nodes[0].FailureSummary
			}
		}

		findings = append(findings, policy.NewFinding(FindingInput{
			Category:        entities.CategoryAccessibility,
			Description:     v.Description,
			Evidence:        strings.Join(snippets, "; "),
			Location:        location,
			UserImpact:      impact,
			EstimatedEffort: structuredEffort,
			Recommendation:  recommendation,
			Confidence:      1.0,
			Source:          entities.SourceAxeCore,
			HelpURL:         v.HelpURL,
		}))
	}
	return findings
}

// ConvertLighthouse maps failing Lighthouse opportunities (score < 0.5) to findings
func ConvertLighthouse(result entities.LighthouseResult, policy ScoringPolicy) []entities.Finding {
	findings := make([]entities.Finding, 0)
	for _, opp := range result.Opportunities {
		if opp.Score == nil || *opp.Score >= LighthouseSurfaceThreshold {
			continue
		}
		score := *opp.Score

		impact := 3
		if score < lighthouseSevereThreshold {
			impact = 4
		}

		evidence := opp.DisplayValue
		if evidence == "" {
			evidence = fmt.Sprintf("Score: %.0f", score*100)
		}

		findings = append(findings, policy.NewFinding(FindingInput{
			Category:        entities.CategoryTechnicalPerformance,
			Description:     opp.Title,
			Evidence:        evidence,
			Location:        "Page-wide",
			UserImpact:      impact,
			EstimatedEffort: structuredEffort,
			Recommendation:  opp.Description,
			Confidence:      1.0,
			Source:          entities.SourceLighthouse,
		}))
	}
	return findings
}
