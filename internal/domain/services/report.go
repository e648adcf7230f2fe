package services

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/ochairo/uxaudit/internal/domain/entities"
)

// CriticalImpact is the user impact at or above which a finding counts as critical
const CriticalImpact = 4

// ReportGenerator aggregates a merged finding list into an audit report
type ReportGenerator struct {
	policy ScoringPolicy
	now    func() time.Time
	newID  func() string
}

// NewReportGenerator creates a report generator using the given scoring policy
func NewReportGenerator(policy ScoringPolicy) *ReportGenerator {
	return &ReportGenerator{
		policy: policy,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Generate builds the report. It is a pure aggregation apart from the run ID
// and timestamp.
func (g *ReportGenerator) Generate(url string, findings []entities.Finding, runs []entities.AnalyzerRun) *entities.AuditReport {
	if findings == nil {
		findings = []entities.Finding{}
	}
	return &entities.AuditReport{
		RunID:     g.newID(),
		URL:       url,
		AuditedAt: g.now().UTC(),
		Findings:  findings,
		Summary:   g.Summarize(findings),
		Scores:    g.ScoreCategories(findings),
		Analyzers: runs,
	}
}

// Summarize computes the report-level statistics. With no findings the
// average priority is 0 and the health score is 100.
func (g *ReportGenerator) Summarize(findings []entities.Finding) entities.AuditSummary {
	summary := entities.AuditSummary{
		TotalFindings:      len(findings),
		OverallHealthScore: HealthScore(findings),
	}

	counts := make(map[entities.Category]int)
	var prioritySum float64
	for _, f := range findings {
		if f.UserImpact >= CriticalImpact {
			summary.CriticalFindings++
		}
		if g.policy.IsQuickWin(f) {
			summary.QuickWins++
		}
		prioritySum += f.PriorityScore
		counts[f.Category]++
	}

	if len(findings) > 0 {
		summary.AveragePriorityScore = round2(prioritySum / float64(len(findings)))
	}

	best := 0
	for _, c := range entities.AllCategories {
		if counts[c] > best {
			best = counts[c]
			summary.TopCategory = c
		}
	}

	return summary
}

// ScoreCategories computes per-category rollups; every category is present
func (g *ReportGenerator) ScoreCategories(findings []entities.Finding) map[entities.Category]entities.CategoryScore {
	type acc struct {
		count, impact, effort, critical int
		priority                        float64
	}
	sums := make(map[entities.Category]*acc, len(entities.AllCategories))
	for _, c := range entities.AllCategories {
		sums[c] = &acc{}
	}

	for _, f := range findings {
		a, ok := sums[f.Category]
		if !ok {
			continue
		}
		a.count++
		a.impact += f.UserImpact
		a.effort += f.EstimatedEffort
		a.priority += f.PriorityScore
		if f.UserImpact >= CriticalImpact {
			a.critical++
		}
	}

	scores := make(map[entities.Category]entities.CategoryScore, len(sums))
	for c, a := range sums {
		score := entities.CategoryScore{FindingCount: a.count, CriticalCount: a.critical}
		if a.count > 0 {
			n := float64(a.count)
			score.AverageImpact = round2(float64(a.impact) / n)
			score.AverageEffort = round2(float64(a.effort) / n)
			score.AveragePriority = round2(a.priority / n)
		}
		scores[c] = score
	}
	return scores
}

// HealthScore is 100 − (Σimpact / (n×5))×100 over template-wide findings,
// rounded to the nearest integer; 100 when there are none.
func HealthScore(findings []entities.Finding) int {
	var n, impactSum int
	for _, f := range findings {
		if !f.IsTemplateWide() {
			continue
		}
		n++
		impactSum += f.UserImpact
	}
	if n == 0 {
		return 100
	}
	saturation := float64(impactSum) / float64(n*MaxScale)
	return int(math.Round(100 - saturation*100))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
