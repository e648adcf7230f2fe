package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ochairo/uxaudit/internal/domain/entities"
)

// RenderMarkdown formats a report as a human-readable markdown document.
// Findings are listed by category in canonical order, highest priority first.
func RenderMarkdown(report *entities.AuditReport, policy ScoringPolicy) string {
	var b strings.Builder
	s := report.Summary

	fmt.Fprintf(&b, "# UX Audit: %s\n\n", report.URL)
	fmt.Fprintf(&b, "Audited %s (run `%s`)\n\n", report.AuditedAt.Format("2006-01-02 15:04 MST"), report.RunID)

	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Health score | %d/100 |\n", s.OverallHealthScore)
	fmt.Fprintf(&b, "| Total findings | %d |\n", s.TotalFindings)
	fmt.Fprintf(&b, "| Critical (impact >= %d) | %d |\n", CriticalImpact, s.CriticalFindings)
	fmt.Fprintf(&b, "| Quick wins | %d |\n", s.QuickWins)
	fmt.Fprintf(&b, "| Average priority | %.2f |\n", s.AveragePriorityScore)
	top := string(s.TopCategory)
	if top == "" {
		top = "n/a"
	}
	fmt.Fprintf(&b, "| Top category | %s |\n\n", top)

	b.WriteString("## Category Scores\n\n")
	b.WriteString("| Category | Findings | Critical | Avg impact | Avg effort | Avg priority |\n|---|---|---|---|---|---|\n")
	for _, c := range entities.AllCategories {
		cs := report.Scores[c]
		fmt.Fprintf(&b, "| %s | %d | %d | %.2f | %.2f | %.2f |\n",
			c, cs.FindingCount, cs.CriticalCount, cs.AverageImpact, cs.AverageEffort, cs.AveragePriority)
	}
	b.WriteString("\n")

	quickWins := make([]entities.Finding, 0)
	for _, f := range report.Findings {
		if policy.IsQuickWin(f) {
			quickWins = append(quickWins, f)
		}
	}
	if len(quickWins) > 0 {
		sortByPriority(quickWins)
		b.WriteString("## Quick Wins\n\n")
		for _, f := range quickWins {
			fmt.Fprintf(&b, "- **%s** (%s, priority %.2f)\n", oneLine(f.Description), f.Category, f.PriorityScore)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Findings\n\n")
	if len(report.Findings) == 0 {
		b.WriteString("No findings.\n\n")
	}
	byCategory := make(map[entities.Category][]entities.Finding)
	for _, f := range report.Findings {
		byCategory[f.Category] = append(byCategory[f.Category], f)
	}
	for _, c := range entities.AllCategories {
		list := byCategory[c]
		if len(list) == 0 {
			continue
		}
		sortByPriority(list)
		fmt.Fprintf(&b, "### %s (%d)\n\n", c, len(list))
		for _, f := range list {
			writeFinding(&b, f)
		}
	}

	if len(report.Analyzers) > 0 {
		b.WriteString("## Analyzers\n\n")
		b.WriteString("| Analyzer | Category | Findings | Duration | Status |\n|---|---|---|---|---|\n")
		for _, run := range report.Analyzers {
			status := "ok"
			if !run.Succeeded() {
				status = "failed: " + cell(run.Error)
			}
			fmt.Fprintf(&b, "| %s | %s | %d | %s | %s |\n",
				run.Name, run.Category, run.Findings, run.Duration.Round(time.Millisecond), status)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func writeFinding(b *strings.Builder, f entities.Finding) {
	fmt.Fprintf(b, "#### %s\n\n", oneLine(f.Description))
	fmt.Fprintf(b, "- ID: `%s`\n", f.ID)
	fmt.Fprintf(b, "- Impact %d, effort %d, priority %.2f, confidence %.2f\n",
		f.UserImpact, f.EstimatedEffort, f.PriorityScore, f.Confidence)
	fmt.Fprintf(b, "- Source: %s, scope: %s, status: %s\n", f.Source, f.Scope, f.Status)
	if f.Location != "" {
		fmt.Fprintf(b, "- Location: %s\n", codeSpan(f.Location))
	}
	if f.Evidence != "" {
		fmt.Fprintf(b, "- Evidence: %s\n", codeSpan(f.Evidence))
	}
	if f.Recommendation != "" {
		fmt.Fprintf(b, "- Recommendation: %s\n", oneLine(f.Recommendation))
	}
	if f.Criterion != "" {
		fmt.Fprintf(b, "- Criterion: %s\n", oneLine(f.Criterion))
	}
	if f.HelpURL != "" {
		fmt.Fprintf(b, "- Reference: %s\n", f.HelpURL)
	}
	b.WriteString("\n")
}

func sortByPriority(findings []entities.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].PriorityScore > findings[j].PriorityScore
	})
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// codeSpan renders s as inline code so element markup survives sanitizing.
// The fence is one backtick longer than the longest run inside s.
func codeSpan(s string) string {
	s = oneLine(s)
	longest, run := 0, 0
	for _, r := range s {
		if r == '`' {
			run++
			longest = max(longest, run)
			continue
		}
		run = 0
	}
	fence := strings.Repeat("`", longest+1)
	if longest > 0 {
		return fence + " " + s + " " + fence
	}
	return fence + s + fence
}

func cell(s string) string {
	return strings.ReplaceAll(oneLine(s), "|", `\|`)
}
