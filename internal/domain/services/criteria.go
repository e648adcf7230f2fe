package services

import (
	"fmt"

	"github.com/ochairo/uxaudit/internal/domain/entities"
)

// CriteriaRegistry is the immutable per-category rubric used to build prompts
type CriteriaRegistry struct {
	byCategory map[entities.Category]entities.EvaluationCriteria
}

// NewCriteriaRegistry validates that the list covers every category exactly
// once with a non-empty checklist.
func NewCriteriaRegistry(list []entities.EvaluationCriteria) (*CriteriaRegistry, error) {
	byCategory := make(map[entities.Category]entities.EvaluationCriteria, len(list))
	for _, c := range list {
		if !c.Category.Valid() {
			return nil, fmt.Errorf("%w: criteria for unknown category %q", ErrConfiguration, c.Category)
		}
		if _, dup := byCategory[c.Category]; dup {
			return nil, fmt.Errorf("%w: duplicate criteria for %q", ErrConfiguration, c.Category)
		}
		if len(c.Checklist) == 0 {
			return nil, fmt.Errorf("%w: empty checklist for %q", ErrConfiguration, c.Category)
		}
		byCategory[c.Category] = entities.EvaluationCriteria{
			Category:     c.Category,
			Checklist:    append([]string(nil), c.Checklist...),
			AntiPatterns: append([]string(nil), c.AntiPatterns...),
		}
	}

	for _, category := range entities.AllCategories {
		if _, ok := byCategory[category]; !ok {
			return nil, fmt.Errorf("%w: no criteria for %q", ErrConfiguration, category)
		}
	}

	return &CriteriaRegistry{byCategory: byCategory}, nil
}

// Get returns the criteria for a category. A miss is a programming error.
func (r *CriteriaRegistry) Get(category entities.Category) (entities.EvaluationCriteria, error) {
	c, ok := r.byCategory[category]
	if !ok {
		return entities.EvaluationCriteria{}, fmt.Errorf("%w: %q", ErrCriteriaNotFound, category)
	}
	return entities.EvaluationCriteria{
		Category:     c.Category,
		Checklist:    append([]string(nil), c.Checklist...),
		AntiPatterns: append([]string(nil), c.AntiPatterns...),
	}, nil
}

// MustGet is Get that panics on a miss
func (r *CriteriaRegistry) MustGet(category entities.Category) entities.EvaluationCriteria {
	c, err := r.Get(category)
	if err != nil {
		panic(err)
	}
	return c
}

// All returns every entry in canonical category order
func (r *CriteriaRegistry) All() []entities.EvaluationCriteria {
	out := make([]entities.EvaluationCriteria, 0, len(entities.AllCategories))
	for _, category := range entities.AllCategories {
		out = append(out, r.MustGet(category))
	}
	return out
}
