// Package yaml provides YAML-based criteria and ground-truth parsing and repository implementations.
package yaml

import (
	"fmt"
	"os"
	"strings"

	"github.com/ochairo/uxaudit/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// yamlCriteria represents the raw YAML structure of one category's rubric
type yamlCriteria struct {
	Category     string   `yaml:"category"`
	Checklist    []string `yaml:"checklist"`
	AntiPatterns []string `yaml:"anti_patterns"`
}

// yamlGroundTruth represents one manually confirmed finding
type yamlGroundTruth struct {
	Category    string `yaml:"category"`
	Keyword     string `yaml:"keyword"`
	Description string `yaml:"description"`
}

// CriteriaParser parses YAML criteria files
type CriteriaParser struct{}

// NewCriteriaParser creates a new YAML criteria parser
func NewCriteriaParser() *CriteriaParser {
	return &CriteriaParser{}
}

// ParseFile parses a YAML criteria file
func (p *CriteriaParser) ParseFile(filePath string) ([]entities.EvaluationCriteria, error) {
	data, err := readFile(filePath)
	if err != nil {
		return nil, err
	}
	return p.Parse(data)
}

// Parse parses YAML bytes into evaluation criteria. Coverage of every
// category is checked by the registry, not here.
func (p *CriteriaParser) Parse(data []byte) ([]entities.EvaluationCriteria, error) {
	var raw []yamlCriteria
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	list := make([]entities.EvaluationCriteria, 0, len(raw))
	for i, yc := range raw {
		category, err := entities.ParseCategory(yc.Category)
		if err != nil {
			return nil, fmt.Errorf("criteria entry %d: %w", i, err)
		}
		list = append(list, entities.EvaluationCriteria{
			Category:     category,
			Checklist:    cleanItems(yc.Checklist),
			AntiPatterns: cleanItems(yc.AntiPatterns),
		})
	}

	return list, nil
}

// GroundTruthParser parses YAML ground-truth files
type GroundTruthParser struct{}

// NewGroundTruthParser creates a new YAML ground-truth parser
func NewGroundTruthParser() *GroundTruthParser {
	return &GroundTruthParser{}
}

// ParseFile parses a YAML ground-truth file
func (p *GroundTruthParser) ParseFile(filePath string) ([]entities.GroundTruthFinding, error) {
	data, err := readFile(filePath)
	if err != nil {
		return nil, err
	}
	return p.Parse(data)
}

// Parse parses YAML bytes into ground-truth findings. Keywords are kept as
// written; they are compiled when a report is validated.
func (p *GroundTruthParser) Parse(data []byte) ([]entities.GroundTruthFinding, error) {
	var raw []yamlGroundTruth
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	truths := make([]entities.GroundTruthFinding, 0, len(raw))
	for i, yt := range raw {
		category, err := entities.ParseCategory(yt.Category)
		if err != nil {
			return nil, fmt.Errorf("ground truth entry %d: %w", i, err)
		}
		if strings.TrimSpace(yt.Keyword) == "" {
			return nil, fmt.Errorf("ground truth entry %d must have a keyword", i)
		}
		truths = append(truths, entities.GroundTruthFinding{
			Category:    category,
			Keyword:     yt.Keyword,
			Description: strings.TrimSpace(yt.Description),
		})
	}

	return truths, nil
}

func readFile(filePath string) ([]byte, error) {
	//nolint:gosec // G304: filePath comes from configuration
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}
	return data, nil
}

func cleanItems(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
