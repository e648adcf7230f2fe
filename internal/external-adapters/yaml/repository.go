package yaml

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/ochairo/uxaudit/internal/domain/entities"
)

//go:embed defaults/criteria.yml
var defaultCriteria []byte

//go:embed defaults/ground_truth.yml
var defaultGroundTruth []byte

// CriteriaRepository implements repositories.CriteriaRepository using a YAML
// file, falling back to the embedded defaults when no path is set.
type CriteriaRepository struct {
	filePath string
	parser   *CriteriaParser
}

// NewCriteriaRepository creates a new YAML-based criteria repository
func NewCriteriaRepository(filePath string) *CriteriaRepository {
	return &CriteriaRepository{
		filePath: filePath,
		parser:   NewCriteriaParser(),
	}
}

// ListCriteria returns every category's evaluation criteria
func (r *CriteriaRepository) ListCriteria(_ context.Context) ([]entities.EvaluationCriteria, error) {
	if r.filePath == "" {
		list, err := r.parser.Parse(defaultCriteria)
		if err != nil {
			return nil, fmt.Errorf("embedded criteria: %w", err)
		}
		return list, nil
	}
	return r.parser.ParseFile(r.filePath)
}

// GroundTruthRepository implements repositories.GroundTruthRepository using a
// YAML file, falling back to the embedded manual audit.
type GroundTruthRepository struct {
	filePath string
	parser   *GroundTruthParser
}

// NewGroundTruthRepository creates a new YAML-based ground-truth repository
func NewGroundTruthRepository(filePath string) *GroundTruthRepository {
	return &GroundTruthRepository{
		filePath: filePath,
		parser:   NewGroundTruthParser(),
	}
}

// ListGroundTruth returns the known findings to validate against
func (r *GroundTruthRepository) ListGroundTruth(_ context.Context) ([]entities.GroundTruthFinding, error) {
	if r.filePath == "" {
		truths, err := r.parser.Parse(defaultGroundTruth)
		if err != nil {
			return nil, fmt.Errorf("embedded ground truth: %w", err)
		}
		return truths, nil
	}
	return r.parser.ParseFile(r.filePath)
}

// DefaultGroundTruth returns the raw embedded ground-truth document
func DefaultGroundTruth() []byte {
	return append([]byte(nil), defaultGroundTruth...)
}
