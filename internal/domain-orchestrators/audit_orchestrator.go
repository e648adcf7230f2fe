package orchestrators

import (
	"context"
	"fmt"
	"time"

	"github.com/ochairo/uxaudit/internal/domain/entities"
	"github.com/ochairo/uxaudit/internal/domain/interfaces"
	"github.com/ochairo/uxaudit/internal/domain/services"
)

// CollectionLoader interface for reading collector output
type CollectionLoader interface {
	LoadFile(path string) (*entities.CollectionResult, error)
	LoadHTML(htmlPath, pageURL string, screenshots []string) (*entities.CollectionResult, error)
}

// ReportWriter interface for persisting audit artifacts
type ReportWriter interface {
	Write(dir string, report *entities.AuditReport, collection *entities.CollectionResult) (*entities.ArtifactSet, error)
}

// AuditRequest names the input and output of one audit. Exactly one of
// CollectionPath and HTMLPath is set.
type AuditRequest struct {
	CollectionPath string
	HTMLPath       string
	PageURL        string
	Screenshots    []string
	OutputDir      string
	Analysis       AnalysisOptions
}

// AuditResult contains the result of an audit run
type AuditResult struct {
	Report        *entities.AuditReport
	Artifacts     *entities.ArtifactSet
	Analysis      *AnalysisResult
	TotalDuration time.Duration
}

// AuditOrchestrator coordinates load, analysis, reporting and output
type AuditOrchestrator struct {
	loader    CollectionLoader
	analysis  *AnalysisOrchestrator
	generator *services.ReportGenerator
	writer    ReportWriter
	logger    interfaces.Logger
}

// NewAuditOrchestrator creates a new audit orchestrator
func NewAuditOrchestrator(
	loader CollectionLoader,
	analysis *AnalysisOrchestrator,
	generator *services.ReportGenerator,
	writer ReportWriter,
	logger interfaces.Logger,
) *AuditOrchestrator {
	return &AuditOrchestrator{
		loader:    loader,
		analysis:  analysis,
		generator: generator,
		writer:    writer,
		logger:    interfaces.OrNoOp(logger),
	}
}

// Run executes the complete audit workflow
func (o *AuditOrchestrator) Run(ctx context.Context, req AuditRequest) (*AuditResult, error) {
	startTime := time.Now()

	// Step 1: Load collection
	collection, fromHTML, err := o.load(req)
	if err != nil {
		return nil, err
	}
	o.logger.Info("Collection loaded",
		interfaces.F("url", collection.URL),
		interfaces.F("screenshots", len(collection.Screenshots)),
		interfaces.F("from_html", fromHTML))

	// Step 2: Analyze
	analysis, err := o.analysis.Analyze(ctx, collection, req.Analysis)
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	// Step 3: Aggregate
	report := o.generator.Generate(collection.URL, analysis.Findings, analysis.Runs)

	// Step 4: Persist; raw collection data is kept only when we produced it
	var persisted *entities.CollectionResult
	if fromHTML {
		persisted = collection
	}
	artifacts, err := o.writer.Write(req.OutputDir, report, persisted)
	if err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	return &AuditResult{
		Report:        report,
		Artifacts:     artifacts,
		Analysis:      analysis,
		TotalDuration: time.Since(startTime),
	}, nil
}

func (o *AuditOrchestrator) load(req AuditRequest) (*entities.CollectionResult, bool, error) {
	switch {
	case req.CollectionPath != "" && req.HTMLPath != "":
		return nil, false, fmt.Errorf("%w: give either a collection file or an HTML file, not both", services.ErrConfiguration)
	case req.HTMLPath != "":
		collection, err := o.loader.LoadHTML(req.HTMLPath, req.PageURL, req.Screenshots)
		if err != nil {
			return nil, false, fmt.Errorf("failed to extract HTML: %w", err)
		}
		return collection, true, nil
	case req.CollectionPath != "":
		collection, err := o.loader.LoadFile(req.CollectionPath)
		if err != nil {
			return nil, false, fmt.Errorf("failed to load collection: %w", err)
		}
		if req.PageURL != "" {
			collection.URL = req.PageURL
		}
		return collection, false, nil
	default:
		return nil, false, fmt.Errorf("%w: no collection or HTML input given", services.ErrConfiguration)
	}
}
