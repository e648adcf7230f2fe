// Package services implements domain business logic and use cases.
package services

import (
	"fmt"
	"math"
	"strings"

	"github.com/ochairo/uxaudit/internal/domain/entities"
)

// PriorityFormula selects how impact and effort combine into a priority score
type PriorityFormula string

// Supported priority formulas
const (
	// FormulaImpactSquared is impact² / effort; it weights severity over cost
	FormulaImpactSquared PriorityFormula = "impact-squared"
	// FormulaLinear is impact / effort
	FormulaLinear PriorityFormula = "linear"
)

// DefaultQuickWinThreshold is the priority score at or above which a finding is a quick win
const DefaultQuickWinThreshold = 9.0

// Impact and effort bounds
const (
	MinScale = 1
	MaxScale = 5
)

// ParsePriorityFormula resolves a formula name from configuration
func ParsePriorityFormula(s string) (PriorityFormula, error) {
	switch PriorityFormula(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormulaImpactSquared:
		return FormulaImpactSquared, nil
	case FormulaLinear:
		return FormulaLinear, nil
	default:
		return "", fmt.Errorf("%w: unknown priority formula %q", ErrConfiguration, s)
	}
}

// ScoringPolicy holds the configurable parts of finding prioritization
type ScoringPolicy struct {
	Formula           PriorityFormula
	QuickWinThreshold float64
}

// DefaultScoringPolicy returns the impact-squared formula with the default quick-win threshold
func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		Formula:           FormulaImpactSquared,
		QuickWinThreshold: DefaultQuickWinThreshold,
	}
}

// Score computes the priority of a finding. Both inputs are clamped to [1,5];
// an effort of exactly 0 means "not applicable" and scores 0.
func (p ScoringPolicy) Score(impact, effort int) float64 {
	if effort == 0 {
		return 0
	}
	i := float64(ClampInt(impact, MinScale, MaxScale))
	e := float64(ClampInt(effort, MinScale, MaxScale))
	if p.Formula == FormulaLinear {
		return i / e
	}
	return i * i / e
}

// IsQuickWin reports whether a finding's priority clears the quick-win threshold
func (p ScoringPolicy) IsQuickWin(f entities.Finding) bool {
	return p.Score(f.UserImpact, f.EstimatedEffort) >= p.QuickWinThreshold
}

// ClampInt bounds v to [lo, hi]
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampFloat bounds v to [lo, hi]; NaN maps to lo
func ClampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// FindingInput carries the raw fields an analyzer or converter produced
type FindingInput struct {
	Category        entities.Category
	Description     string
	Evidence        string
	Location        string
	UserImpact      int
	EstimatedEffort int
	Recommendation  string
	Criterion       string
	Confidence      float64
	Scope           string
	Source          entities.Source
	HelpURL         string
}

// NewFinding builds a finding with clamped scales, a recomputed priority
// and a content-derived ID. It is the only way analyzers create findings.
func (p ScoringPolicy) NewFinding(in FindingInput) entities.Finding {
	scope := in.Scope
	if scope == "" {
		scope = entities.ScopeTemplateWide
	}
	impact := ClampInt(in.UserImpact, MinScale, MaxScale)
	effort := ClampInt(in.EstimatedEffort, MinScale, MaxScale)

	return entities.Finding{
		ID:              entities.FindingID(in.Category, in.Description, scope),
		Category:        in.Category,
		Description:     in.Description,
		Evidence:        in.Evidence,
		Location:        in.Location,
		UserImpact:      impact,
		EstimatedEffort: effort,
		PriorityScore:   p.Score(impact, effort),
		Recommendation:  in.Recommendation,
		Criterion:       in.Criterion,
		Confidence:      ClampFloat(in.Confidence, 0, 1),
		Scope:           scope,
		Status:          entities.StatusNotStarted,
		Source:          in.Source,
		HelpURL:         in.HelpURL,
	}
}
