// Package repositories defines interfaces for data access layers.
package repositories

import (
	"context"

	"github.com/ochairo/uxaudit/internal/domain/entities"
)

// CriteriaRepository provides the evaluation rubric for every category
type CriteriaRepository interface {
	// ListCriteria returns one entry per category
	ListCriteria(ctx context.Context) ([]entities.EvaluationCriteria, error)
}

// GroundTruthRepository provides the human-curated findings used for validation
type GroundTruthRepository interface {
	ListGroundTruth(ctx context.Context) ([]entities.GroundTruthFinding, error)
}
