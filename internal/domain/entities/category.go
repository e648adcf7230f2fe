// Package entities defines core domain models and data structures.
package entities

import (
	"errors"
	"fmt"
	"strings"
)

// Category is one of the fixed audit categories a finding belongs to
type Category string

// Audit categories. AllCategories is the single source of truth for the set.
const (
	CategoryInformationArchitecture Category = "Information Architecture"
	CategoryVisualHierarchy         Category = "Visual Hierarchy"
	CategoryContentStrategy         Category = "Content Strategy"
	CategoryConversionFlow          Category = "Conversion Flow"
	CategoryTrustSignals            Category = "Trust Signals"
	CategoryTechnicalPerformance    Category = "Technical/Performance"
	CategoryAccessibility           Category = "Accessibility"
)

// AllCategories lists every category in canonical order
var AllCategories = []Category{
	CategoryInformationArchitecture,
	CategoryVisualHierarchy,
	CategoryContentStrategy,
	CategoryConversionFlow,
	CategoryTrustSignals,
	CategoryTechnicalPerformance,
	CategoryAccessibility,
}

// ErrUnknownCategory is returned when a string does not name a known category
var ErrUnknownCategory = errors.New("unknown category")

// Valid reports whether c is a member of the closed category set
func (c Category) Valid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Index returns the canonical position of c, or -1 if c is unknown
func (c Category) Index() int {
	for i, known := range AllCategories {
		if c == known {
			return i
		}
	}
	return -1
}

// ParseCategory resolves a category name, ignoring case and surrounding whitespace
func ParseCategory(s string) (Category, error) {
	trimmed := strings.TrimSpace(s)
	for _, known := range AllCategories {
		if strings.EqualFold(trimmed, string(known)) {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}
