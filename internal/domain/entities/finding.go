package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Source records which analyzer produced a finding
type Source string

// Finding sources, ordered roughly by trust level
const (
	SourceVision        Source = "vision"
	SourceDeterministic Source = "deterministic"
	SourceLLMContent    Source = "llm-content"
	SourceAxeCore       Source = "axe-core"
	SourceLighthouse    Source = "lighthouse"
	SourceManual        Source = "manual"
)

// Status is the remediation lifecycle tag of a finding
type Status string

// Finding statuses
const (
	StatusNotStarted Status = "Not Started"
	StatusInProgress Status = "In Progress"
	StatusResolved   Status = "Resolved"
	StatusWontFix    Status = "Won't Fix"
)

// ScopeTemplateWide marks an issue believed to recur across all audited properties
const ScopeTemplateWide = "Template-wide"

// Finding is one detected UX, content or technical issue
type Finding struct {
	ID              string   `json:"id"`
	Category        Category `json:"category"`
	Description     string   `json:"description"`
	Evidence        string   `json:"evidence,omitempty"`
	Location        string   `json:"location,omitempty"`
	UserImpact      int      `json:"userImpact"`      // 1-5
	EstimatedEffort int      `json:"estimatedEffort"` // 1-5
	PriorityScore   float64  `json:"priorityScore"`
	Recommendation  string   `json:"recommendation,omitempty"`
	Criterion       string   `json:"criterion,omitempty"`
	Confidence      float64  `json:"confidence"` // 0-1
	Scope           string   `json:"scope"`
	Status          Status   `json:"status"`
	Source          Source   `json:"source"`
	HelpURL         string   `json:"helpUrl,omitempty"`
}

// IsTemplateWide reports whether the finding applies to every audited property
func (f *Finding) IsTemplateWide() bool {
	return f.Scope == "" || f.Scope == ScopeTemplateWide
}

// FindingID derives a content-based identifier so an unchanged page
// yields the same IDs on every run.
func FindingID(category Category, description, scope string) string {
	h := sha256.New()
	h.Write([]byte(category))
	h.Write([]byte{0})
	h.Write([]byte(normalizeText(description)))
	h.Write([]byte{0})
	h.Write([]byte(scope))
	return "f-" + hex.EncodeToString(h.Sum(nil))[:16]
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
