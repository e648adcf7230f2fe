package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ochairo/uxaudit/internal/domain/entities"
	"github.com/ochairo/uxaudit/internal/domain/interfaces"
	"github.com/ochairo/uxaudit/internal/domain/interfaces/gateways"
)

const visionMaxTokens = 4096

// VisionRequest describes one category evaluation over a set of screenshots
type VisionRequest struct {
	Model             string
	Category          entities.Category
	ScreenshotPaths   []string
	AdditionalContext string
	Scope             string // defaults to Template-wide
}

// VisionAnalyzer asks a vision model to judge screenshots against one
// category's checklist.
type VisionAnalyzer struct {
	gateway  gateways.ModelGateway
	registry *CriteriaRegistry
	policy   ScoringPolicy
	logger   interfaces.Logger
	readFile func(string) ([]byte, error)
}

// NewVisionAnalyzer creates a vision analyzer with dependency injection
func NewVisionAnalyzer(gateway gateways.ModelGateway, registry *CriteriaRegistry, policy ScoringPolicy, logger interfaces.Logger) *VisionAnalyzer {
	return &VisionAnalyzer{
		gateway:  gateway,
		registry: registry,
		policy:   policy,
		logger:   interfaces.OrNoOp(logger),
		readFile: os.ReadFile,
	}
}

// Analyze evaluates the screenshots for req.Category. A response that cannot
// be parsed yields zero findings and ErrUnparsableResponse; a registry miss
// returns ErrCriteriaNotFound. Without screenshots the model is not called
// and ErrNoScreenshots is returned.
func (a *VisionAnalyzer) Analyze(ctx context.Context, req VisionRequest) ([]entities.Finding, error) {
	criteria, err := a.registry.Get(req.Category)
	if err != nil {
		return nil, err
	}
	if len(req.ScreenshotPaths) == 0 {
		a.logger.Warn("no screenshots for vision analysis",
			interfaces.F("category", req.Category),
		)
		return nil, fmt.Errorf("%w for %s", ErrNoScreenshots, req.Category)
	}

	images := make([]gateways.ImageInput, 0, len(req.ScreenshotPaths))
	for _, path := range req.ScreenshotPaths {
		data, err := a.readFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read screenshot %s: %w", path, err)
		}
		images = append(images, gateways.ImageInput{
			MediaType: mediaTypeFor(path),
			Data:      data,
		})
	}

	text, err := a.gateway.Complete(ctx, gateways.ModelRequest{
		Model:     req.Model,
		System:    visionSystemPrompt,
		Prompt:    buildVisionPrompt(criteria, req.AdditionalContext),
		Images:    images,
		MaxTokens: visionMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("vision model call failed for %s: %w", req.Category, err)
	}

	raws, err := ParseFindingsJSON(text)
	if err != nil {
		a.logger.Warn("failed to parse vision response",
			interfaces.F("category", req.Category),
			interfaces.F("error", err),
		)
		return nil, err
	}

	return mapRawFindings(raws, rawMapping{
		defaultCategory: req.Category,
		source:          entities.SourceVision,
		scope:           req.Scope,
	}, a.policy, a.logger), nil
}

func mediaTypeFor(path string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	default:
		return "image/webp"
	}
}
