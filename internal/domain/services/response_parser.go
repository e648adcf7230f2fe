package services

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ochairo/uxaudit/internal/domain/entities"
	"github.com/ochairo/uxaudit/internal/domain/interfaces"
)

var fencedBlock = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")

// RawFinding is one object decoded from a model response, before validation
type RawFinding map[string]any

// ParseFindingsJSON extracts a JSON array of objects from model output.
// It tries, in order: the whole text, the first fenced code block, and the
// span from the first '[' to the last ']'. A lone object counts as a
// one-element array.
func ParseFindingsJSON(text string) ([]RawFinding, error) {
	trimmed := strings.TrimSpace(text)

	if raws, err := decodeFindings(trimmed); err == nil {
		return raws, nil
	}

	if m := fencedBlock.FindStringSubmatch(trimmed); m != nil {
		if raws, err := decodeFindings(strings.TrimSpace(m[1])); err == nil {
			return raws, nil
		}
	}

	start := strings.Index(trimmed, "[")
	end := strings.LastIndex(trimmed, "]")
	if start >= 0 && end > start {
		if raws, err := decodeFindings(trimmed[start : end+1]); err == nil {
			return raws, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrUnparsableResponse, truncate(trimmed, 200))
}

func decodeFindings(s string) ([]RawFinding, error) {
	if s == "" {
		return nil, fmt.Errorf("empty input")
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}

	switch t := v.(type) {
	case []any:
		out := make([]RawFinding, 0, len(t))
		for _, item := range t {
			if obj, ok := item.(map[string]any); ok {
				out = append(out, RawFinding(obj))
			}
		}
		return out, nil
	case map[string]any:
		return []RawFinding{RawFinding(t)}, nil
	default:
		return nil, fmt.Errorf("expected JSON array or object, got %T", v)
	}
}

// rawMapping controls how raw model objects become findings
type rawMapping struct {
	defaultCategory entities.Category
	source          entities.Source
	scope           string
}

// mapRawFindings converts model output into findings. Numeric fields are
// clamped, priority is recomputed, and objects with an unknown category or
// no description are dropped individually.
func mapRawFindings(raws []RawFinding, m rawMapping, policy ScoringPolicy, logger interfaces.Logger) []entities.Finding {
	findings := make([]entities.Finding, 0, len(raws))
	for i, raw := range raws {
		category := m.defaultCategory
		if name := raw.text("category"); name != "" {
			parsed, err := entities.ParseCategory(name)
			if err != nil {
				logger.Warn("dropping model finding with unknown category",
					interfaces.F("index", i),
					interfaces.F("category", name),
					interfaces.F("source", m.source),
				)
				continue
			}
			category = parsed
		}

		description := raw.text("description")
		if description == "" {
			logger.Warn("dropping model finding without description",
				interfaces.F("index", i),
				interfaces.F("source", m.source),
			)
			continue
		}

		confidence := 0.8
		if c, ok := raw.number("confidence"); ok {
			confidence = c
		}

		findings = append(findings, policy.NewFinding(FindingInput{
			Category:        category,
			Description:     description,
			Evidence:        raw.text("evidence"),
			Location:        raw.text("location"),
			UserImpact:      raw.scale("userImpact", MinScale),
			EstimatedEffort: raw.scale("estimatedEffort", MaxScale),
			Recommendation:  raw.text("recommendation"),
			Criterion:       raw.text("criterion"),
			Confidence:      confidence,
			Scope:           m.scope,
			Source:          m.source,
		}))
	}
	return findings
}

func (r RawFinding) text(key string) string {
	switch v := r[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// number accepts JSON numbers and numeric strings; anything else is absent
func (r RawFinding) number(key string) (float64, bool) {
	var f float64
	switch v := r[key].(type) {
	case float64:
		f = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// scale reads a 1-5 field, substituting fallback when the value is not numeric
func (r RawFinding) scale(key string, fallback int) int {
	f, ok := r.number(key)
	if !ok {
		return fallback
	}
	return ClampInt(int(math.Round(ClampFloat(f, MinScale, MaxScale))), MinScale, MaxScale)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
