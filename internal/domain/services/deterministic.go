package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ochairo/uxaudit/internal/domain/entities"
)

// ContentInput is the slice of the DOM extract the content analyzer reads
type ContentInput struct {
	URL             string
	VisibleText     string
	Headings        []entities.Heading
	MetaTitle       string
	MetaDescription string
}

// ContentInputFromCollection projects content analysis input out of a collection
func ContentInputFromCollection(c *entities.CollectionResult) ContentInput {
	return ContentInput{
		URL:             c.URL,
		VisibleText:     c.DOM.VisibleText,
		Headings:        c.DOM.Headings,
		MetaTitle:       c.DOM.Meta.Title,
		MetaDescription: c.DOM.Meta.Description,
	}
}

type placeholderPattern struct {
	phrase string
	re     *regexp.Regexp
}

var placeholderPatterns = compilePlaceholderPatterns(
	"lorem ipsum",
	"dolor sit amet",
	"consectetur adipiscing",
	"odio facilisis mauris",
	"massa vitae tortor",
)

func compilePlaceholderPatterns(phrases ...string) []placeholderPattern {
	out := make([]placeholderPattern, 0, len(phrases))
	for _, p := range phrases {
		out = append(out, placeholderPattern{phrase: p, re: regexp.MustCompile(`(?i)` + regexp.QuoteMeta(p))})
	}
	return out
}

// RunDeterministicChecks applies rule-based content checks. It is pure:
// identical input always yields the same findings.
func RunDeterministicChecks(input ContentInput, policy ScoringPolicy) []entities.Finding {
	findings := make([]entities.Finding, 0)
	findings = append(findings, checkPlaceholderText(input.VisibleText, policy)...)
	findings = append(findings, CheckHeadingHierarchy(input.Headings, policy)...)
	if f, ok := checkMetaDescription(input.MetaDescription, policy); ok {
		findings = append(findings, f)
	}
	return findings
}

func checkPlaceholderText(text string, policy ScoringPolicy) []entities.Finding {
	var findings []entities.Finding
	for _, p := range placeholderPatterns {
		if !p.re.MatchString(text) {
			continue
		}
		findings = append(findings, policy.NewFinding(FindingInput{
			Category:        entities.CategoryContentStrategy,
			Description:     fmt.Sprintf("Placeholder/lorem ipsum text detected: %q", p.phrase),
			Evidence:        fmt.Sprintf("Pattern %q found in visible page text", p.phrase),
			Location:        "Body content",
			UserImpact:      5,
			EstimatedEffort: 1,
			Recommendation:  "Replace placeholder text with actual content immediately. This destroys credibility.",
			Criterion:       "No placeholder or lorem ipsum text is visible",
			Confidence:      1.0,
			Source:          entities.SourceDeterministic,
		}))
	}
	return findings
}

// CheckHeadingHierarchy reports a missing leading H1, the first skipped
// heading level, and multiple H1s. Each rule yields at most one finding.
func CheckHeadingHierarchy(headings []entities.Heading, policy ScoringPolicy) []entities.Finding {
	var findings []entities.Finding
	if len(headings) == 0 {
		return findings
	}

	newHeadingFinding := func(description, evidence, recommendation string) entities.Finding {
		return policy.NewFinding(FindingInput{
			Category:        entities.CategoryContentStrategy,
			Description:     description,
			Evidence:        evidence,
			Location:        "Page structure",
			UserImpact:      2,
			EstimatedEffort: 1,
			Recommendation:  recommendation,
			Criterion:       "Heading hierarchy creates clear information structure (H1 → H2 → H3)",
			Confidence:      1.0,
			Source:          entities.SourceDeterministic,
		})
	}

	first := headings[0]
	if first.Level != 1 {
		findings = append(findings, newHeadingFinding(
			fmt.Sprintf("Page does not start with an H1 heading (starts with H%d)", first.Level),
			fmt.Sprintf("First heading is H%d: %q", first.Level, first.Text),
			"Ensure page has a single H1 as the primary heading",
		))
	}

	for i := 1; i < len(headings); i++ {
		prev, cur := headings[i-1], headings[i]
		if cur.Level > prev.Level+1 {
			findings = append(findings, newHeadingFinding(
				fmt.Sprintf("Heading hierarchy skips from H%d to H%d", prev.Level, cur.Level),
				fmt.Sprintf("%q (H%d) → %q (H%d)", prev.Text, prev.Level, cur.Text, cur.Level),
				"Fix heading hierarchy to not skip levels",
			))
			break
		}
	}

	var h1s []string
	for _, h := range headings {
		if h.Level == 1 {
			h1s = append(h1s, fmt.Sprintf("%q", h.Text))
		}
	}
	if len(h1s) > 1 {
		findings = append(findings, newHeadingFinding(
			fmt.Sprintf("Page has %d H1 headings (should have exactly 1)", len(h1s)),
			"H1 headings: "+strings.Join(h1s, ", "),
			"Use a single H1 per page for SEO and accessibility",
		))
	}

	return findings
}

func checkMetaDescription(description string, policy ScoringPolicy) (entities.Finding, bool) {
	if strings.TrimSpace(description) != "" {
		return entities.Finding{}, false
	}
	return policy.NewFinding(FindingInput{
		Category:        entities.CategoryContentStrategy,
		Description:     "Page is missing a meta description",
		Evidence:        "No meta description tag found",
		Location:        "HTML head",
		UserImpact:      3,
		EstimatedEffort: 1,
		Recommendation:  "Add a compelling meta description (150-160 characters) for search results",
		Criterion:       "Proper meta tags (title, description, OG tags)",
		Confidence:      1.0,
		Source:          entities.SourceDeterministic,
	}), true
}
