package services

import (
	"fmt"
	"strings"

	"github.com/ochairo/uxaudit/internal/domain/entities"
)

// SeverityRubric is reproduced verbatim in every prompt so scores from
// different calls are comparable.
const SeverityRubric = `SEVERITY SCALE (userImpact):
1 = Minor cosmetic annoyance
2 = Noticeable friction, user can work around it
3 = Meaningful negative impact on experience
4 = Significant barrier to understanding or completing tasks
5 = Critical: breaks trust, blocks conversion, or makes site unusable

EFFORT SCALE (estimatedEffort):
1 = Quick fix (< 1 hour, copy change or config tweak)
2 = Small task (a few hours, single component edit)
3 = Moderate effort (half day to full day, may require design decisions)
4 = Significant work (multi-day, template/structural changes)
5 = Major project (redesign, new features, or platform changes)`

const visionSystemPrompt = `You are an expert UX auditor. You analyze website screenshots using structured evaluation criteria and return findings as JSON.

RULES:
- Only report genuine issues you can see evidence for in the screenshots
- Do NOT fabricate or hallucinate issues
- For each finding, cite specific visual evidence (location, element description)
- Rate severity and effort using the provided scales
- Return an empty array if no issues are found for a criterion
- Be specific in descriptions; vague findings are useless`

const contentSystemPrompt = "You are a content strategist evaluating website copy. Return findings as JSON only."

func buildVisionPrompt(criteria entities.EvaluationCriteria, additionalContext string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Evaluate these website screenshots for **%s** issues.\n\n", criteria.Category)

	b.WriteString("EVALUATION CRITERIA:\n")
	for i, item := range criteria.Checklist {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item)
	}

	if len(criteria.AntiPatterns) > 0 {
		b.WriteString("\nKNOWN ANTI-PATTERNS:\n")
		for _, item := range criteria.AntiPatterns {
			fmt.Fprintf(&b, "- %s\n", item)
		}
	}

	b.WriteString("\n" + SeverityRubric + "\n\n")

	if additionalContext != "" {
		fmt.Fprintf(&b, "ADDITIONAL CONTEXT:\n%s\n\n", additionalContext)
	}

	fmt.Fprintf(&b, `Return a JSON array of findings. Each finding must have this exact structure:
{
  "category": %q,
  "description": "Specific description of the issue",
  "evidence": "What you see in the screenshot that demonstrates this issue",
  "location": "Where on the page (e.g., 'header', 'above the fold', 'footer')",
  "userImpact": 1-5,
  "estimatedEffort": 1-5,
  "recommendation": "Specific actionable fix",
  "criterion": "Which checklist item this relates to",
  "confidence": 0.0-1.0
}

Return ONLY valid JSON. No markdown, no explanation.`, string(criteria.Category))

	return b.String()
}

func buildContentPrompt(input ContentInput, criteria entities.EvaluationCriteria, textSample string) string {
	var b strings.Builder
	b.WriteString("Analyze this website text for content strategy issues.\n\n")
	fmt.Fprintf(&b, "URL: %s\n", input.URL)
	fmt.Fprintf(&b, "Page Title: %s\n", input.MetaTitle)
	metaDescription := input.MetaDescription
	if strings.TrimSpace(metaDescription) == "" {
		metaDescription = "(missing)"
	}
	fmt.Fprintf(&b, "Meta Description: %s\n\n", metaDescription)

	fmt.Fprintf(&b, "VISIBLE TEXT (first %d chars):\n%s\n\n", len(textSample), textSample)

	b.WriteString("EVALUATION CRITERIA:\n")
	for i, item := range criteria.Checklist {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item)
	}
	b.WriteString(`
CHECK FOR:
1. SEO keyword stuffing (repeating location/keywords unnaturally)
2. Text written for search engines rather than humans
3. Generic/template copy that lacks personality
4. Missing or weak calls-to-action
5. Unclear value proposition
6. Tone inconsistency
7. Readability issues (too long, too jargon-heavy)

`)
	b.WriteString(SeverityRubric + "\n\n")
	fmt.Fprintf(&b, `For each issue found, return:
{
  "category": %q,
  "description": "specific issue",
  "evidence": "quote from the text showing the problem",
  "location": "where in the content",
  "userImpact": 1-5,
  "estimatedEffort": 1-5,
  "recommendation": "specific fix",
  "criterion": "Which checklist item this relates to",
  "confidence": 0.0-1.0
}

Return ONLY a JSON array. No markdown. Return [] if no issues found.`, string(criteria.Category))

	return b.String()
}
