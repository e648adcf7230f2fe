package services

import (
	"context"
	"fmt"

	"github.com/ochairo/uxaudit/internal/domain/entities"
	"github.com/ochairo/uxaudit/internal/domain/interfaces"
	"github.com/ochairo/uxaudit/internal/domain/interfaces/gateways"
)

const (
	contentMaxTokens = 2048

	// DefaultMaxTextChars caps the visible text sent to the model
	DefaultMaxTextChars = 10000
)

// ContentAnalyzer combines deterministic content checks with a language
// model's judgment of the page copy.
type ContentAnalyzer struct {
	gateway      gateways.ModelGateway
	registry     *CriteriaRegistry
	policy       ScoringPolicy
	logger       interfaces.Logger
	maxTextChars int
}

// NewContentAnalyzer creates a content analyzer with dependency injection
func NewContentAnalyzer(gateway gateways.ModelGateway, registry *CriteriaRegistry, policy ScoringPolicy, logger interfaces.Logger) *ContentAnalyzer {
	return &ContentAnalyzer{
		gateway:      gateway,
		registry:     registry,
		policy:       policy,
		logger:       interfaces.OrNoOp(logger),
		maxTextChars: DefaultMaxTextChars,
	}
}

// WithMaxTextChars overrides the visible-text cap
func (a *ContentAnalyzer) WithMaxTextChars(n int) *ContentAnalyzer {
	if n > 0 {
		a.maxTextChars = n
	}
	return a
}

// ContentOptions are per-invocation settings
type ContentOptions struct {
	Model string
	Scope string
}

// Analyze runs the deterministic pre-pass and then the model call. The
// returned findings always include the deterministic ones, even when the
// error is non-nil because the model call or its parsing failed.
func (a *ContentAnalyzer) Analyze(ctx context.Context, input ContentInput, opts ContentOptions) ([]entities.Finding, error) {
	findings := RunDeterministicChecks(input, a.policy)

	criteria, err := a.registry.Get(entities.CategoryContentStrategy)
	if err != nil {
		return findings, err
	}

	sample := truncateRunes(input.VisibleText, a.maxTextChars)
	text, err := a.gateway.Complete(ctx, gateways.ModelRequest{
		Model:     opts.Model,
		System:    contentSystemPrompt,
		Prompt:    buildContentPrompt(input, criteria, sample),
		MaxTokens: contentMaxTokens,
	})
	if err != nil {
		return findings, fmt.Errorf("content model call failed: %w", err)
	}

	raws, err := ParseFindingsJSON(text)
	if err != nil {
		a.logger.Warn("failed to parse content response",
			interfaces.F("deterministic_findings", len(findings)),
			interfaces.F("error", err),
		)
		return findings, err
	}

	modelFindings := mapRawFindings(raws, rawMapping{
		defaultCategory: entities.CategoryContentStrategy,
		source:          entities.SourceLLMContent,
		scope:           opts.Scope,
	}, a.policy, a.logger)

	return append(findings, modelFindings...), nil
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
