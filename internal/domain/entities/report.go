package entities

import "time"

// EvaluationCriteria is the fixed rubric for one category
type EvaluationCriteria struct {
	Category     Category
	Checklist    []string
	AntiPatterns []string
}

// AuditReport is the serialized outcome of one audit run
type AuditReport struct {
	RunID     string                     `json:"runId"`
	URL       string                     `json:"url"`
	AuditedAt time.Time                  `json:"auditedAt"`
	Findings  []Finding                  `json:"findings"`
	Summary   AuditSummary               `json:"summary"`
	Scores    map[Category]CategoryScore `json:"scores"`
	Analyzers []AnalyzerRun              `json:"analyzers,omitempty"`
}

// AuditSummary aggregates the whole finding list
type AuditSummary struct {
	TotalFindings        int      `json:"totalFindings"`
	CriticalFindings     int      `json:"criticalFindings"`
	QuickWins            int      `json:"quickWins"`
	AveragePriorityScore float64  `json:"averagePriorityScore"`
	TopCategory          Category `json:"topCategory"`
	OverallHealthScore   int      `json:"overallHealthScore"` // 0-100
}

// CategoryScore aggregates the findings of one category
type CategoryScore struct {
	FindingCount    int     `json:"findingCount"`
	AverageImpact   float64 `json:"averageImpact"`
	AverageEffort   float64 `json:"averageEffort"`
	AveragePriority float64 `json:"averagePriority"`
	CriticalCount   int     `json:"criticalCount"`
}

// AnalyzerRun records the outcome of one analyzer invocation
type AnalyzerRun struct {
	Name     string        `json:"name"`
	Category Category      `json:"category,omitempty"`
	Findings int           `json:"findings"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// Succeeded reports whether the analyzer finished without error
func (r AnalyzerRun) Succeeded() bool {
	return r.Error == ""
}

// GroundTruthFinding is a known issue identified by a human auditor
type GroundTruthFinding struct {
	Category    Category `json:"category"`
	Keyword     string   `json:"keyword"` // case-insensitive regex
	Description string   `json:"description"`
}
