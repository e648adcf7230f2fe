// Package orchestrators coordinates complex workflows across multiple domain services.
package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ochairo/uxaudit/internal/domain/entities"
	"github.com/ochairo/uxaudit/internal/domain/interfaces"
	"github.com/ochairo/uxaudit/internal/domain/services"
)

// Defaults applied when AnalysisOptions leaves a value unset
const (
	DefaultConcurrency = 4
	DefaultTimeout     = 5 * time.Minute
)

// VisionCategories are judged from screenshots, one model call each
var VisionCategories = []entities.Category{
	entities.CategoryInformationArchitecture,
	entities.CategoryVisualHierarchy,
	entities.CategoryConversionFlow,
	entities.CategoryTrustSignals,
}

// VisionAnalyzer evaluates screenshots for one category
type VisionAnalyzer interface {
	Analyze(ctx context.Context, req services.VisionRequest) ([]entities.Finding, error)
}

// ContentAnalyzer evaluates page copy; findings returned with an error are kept
type ContentAnalyzer interface {
	Analyze(ctx context.Context, input services.ContentInput, opts services.ContentOptions) ([]entities.Finding, error)
}

// AnalysisOptions are per-run settings
type AnalysisOptions struct {
	VisionModel    string
	ContentModel   string
	SkipCategories []entities.Category
	Concurrency    int
	Timeout        time.Duration
	Scope          string
}

// AnalysisResult holds the merged findings and one record per analyzer run
type AnalysisResult struct {
	Findings []entities.Finding
	Runs     []entities.AnalyzerRun
	Duration time.Duration
}

// Succeeded counts analyzer runs that finished without error
func (r *AnalysisResult) Succeeded() int {
	n := 0
	for _, run := range r.Runs {
		if run.Succeeded() {
			n++
		}
	}
	return n
}

// AnalysisOrchestrator runs every applicable analyzer over one collection.
// A failing analyzer contributes zero findings; only a criteria registry miss
// aborts the run.
type AnalysisOrchestrator struct {
	vision  VisionAnalyzer
	content ContentAnalyzer
	policy  services.ScoringPolicy
	logger  interfaces.Logger
}

// NewAnalysisOrchestrator creates a new analysis orchestrator
func NewAnalysisOrchestrator(vision VisionAnalyzer, content ContentAnalyzer, policy services.ScoringPolicy, logger interfaces.Logger) *AnalysisOrchestrator {
	return &AnalysisOrchestrator{
		vision:  vision,
		content: content,
		policy:  policy,
		logger:  interfaces.OrNoOp(logger),
	}
}

// analyzerOutcome is the result slot of one analyzer invocation
type analyzerOutcome struct {
	findings []entities.Finding
	run      entities.AnalyzerRun
	err      error
}

// Analyze runs the analyzers, merges their findings, assigns unique IDs and
// sorts by priority descending. Output does not depend on completion order.
func (o *AnalysisOrchestrator) Analyze(ctx context.Context, collection *entities.CollectionResult, opts AnalysisOptions) (*AnalysisResult, error) {
	startTime := time.Now()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	skip := make(map[entities.Category]bool, len(opts.SkipCategories))
	for _, c := range opts.SkipCategories {
		skip[c] = true
	}

	var tasks []func(context.Context) analyzerOutcome
	screenshots := collection.ScreenshotPaths()

	for _, category := range VisionCategories {
		category := category
		if skip[category] {
			continue
		}
		req := services.VisionRequest{
			Model:             opts.VisionModel,
			Category:          category,
			ScreenshotPaths:   screenshots,
			AdditionalContext: BuildCategoryContext(category, &collection.DOM),
			Scope:             opts.Scope,
		}
		tasks = append(tasks, func(ctx context.Context) analyzerOutcome {
			return o.invoke(ctx, "vision", category, func(ctx context.Context) ([]entities.Finding, error) {
				return o.vision.Analyze(ctx, req)
			})
		})
	}

	if !skip[entities.CategoryContentStrategy] {
		input := services.ContentInputFromCollection(collection)
		contentOpts := services.ContentOptions{Model: opts.ContentModel, Scope: opts.Scope}
		tasks = append(tasks, func(ctx context.Context) analyzerOutcome {
			return o.invoke(ctx, "content", entities.CategoryContentStrategy, func(ctx context.Context) ([]entities.Finding, error) {
				return o.content.Analyze(ctx, input, contentOpts)
			})
		})
	}

	if !skip[entities.CategoryAccessibility] {
		tasks = append(tasks, func(ctx context.Context) analyzerOutcome {
			return o.invoke(ctx, "axe-core", entities.CategoryAccessibility, func(context.Context) ([]entities.Finding, error) {
				return services.ConvertAccessibility(collection.Accessibility, o.policy), nil
			})
		})
	}

	if !skip[entities.CategoryTechnicalPerformance] {
		tasks = append(tasks, func(ctx context.Context) analyzerOutcome {
			return o.invoke(ctx, "lighthouse", entities.CategoryTechnicalPerformance, func(context.Context) ([]entities.Finding, error) {
				return services.ConvertLighthouse(collection.Lighthouse, o.policy), nil
			})
		})
	}

	outcomes := make([]analyzerOutcome, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			outcomes[i] = task(gctx)
			if errors.Is(outcomes[i].err, services.ErrCriteriaNotFound) {
				return fmt.Errorf("%s analyzer for %s: %w", outcomes[i].run.Name, outcomes[i].run.Category, services.ErrCriteriaNotFound)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &AnalysisResult{Runs: make([]entities.AnalyzerRun, 0, len(outcomes))}
	for _, out := range outcomes {
		result.Findings = append(result.Findings, out.findings...)
		result.Runs = append(result.Runs, out.run)
	}
	if result.Findings == nil {
		result.Findings = []entities.Finding{}
	}

	SortByPriority(result.Findings)
	AssignUniqueIDs(result.Findings)

	result.Duration = time.Since(startTime)
	o.logger.Info("Analysis complete",
		interfaces.F("findings", len(result.Findings)),
		interfaces.F("analyzers_succeeded", result.Succeeded()),
		interfaces.F("analyzers_total", len(result.Runs)),
		interfaces.F("duration", result.Duration),
	)
	return result, nil
}

// invoke runs fn and converts its error or panic into a failed AnalyzerRun.
// Deadline expiry reaches fn through ctx. Findings returned alongside an
// error are kept.
func (o *AnalysisOrchestrator) invoke(ctx context.Context, name string, category entities.Category, fn func(context.Context) ([]entities.Finding, error)) (out analyzerOutcome) {
	start := time.Now()
	out.run = entities.AnalyzerRun{Name: name, Category: category}

	defer func() {
		if r := recover(); r != nil {
			out.findings = nil
			out.err = fmt.Errorf("analyzer panicked: %v", r)
			out.run.Error = out.err.Error()
		}
		out.run.Findings = len(out.findings)
		out.run.Duration = time.Since(start)

		if out.run.Succeeded() {
			o.logger.Info("Analyzer finished",
				interfaces.F("analyzer", name),
				interfaces.F("category", category),
				interfaces.F("findings", out.run.Findings),
				interfaces.F("duration", out.run.Duration),
			)
			return
		}
		o.logger.Warn("Analyzer failed",
			interfaces.F("analyzer", name),
			interfaces.F("category", category),
			interfaces.F("findings", out.run.Findings),
			interfaces.F("error", out.run.Error),
		)
	}()

	findings, err := fn(ctx)
	out.findings = findings
	if err != nil {
		out.run.Error = err.Error()
		out.err = err
	}
	return out
}

// SortByPriority orders findings by priority descending, keeping merge order on ties
func SortByPriority(findings []entities.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].PriorityScore > findings[j].PriorityScore
	})
}

// AssignUniqueIDs suffixes repeated IDs with -2, -3, ... in slice order
func AssignUniqueIDs(findings []entities.Finding) {
	seen := make(map[string]int, len(findings))
	for i := range findings {
		id := findings[i].ID
		seen[id]++
		if n := seen[id]; n > 1 {
			findings[i].ID = fmt.Sprintf("%s-%d", id, n)
		}
	}
}

// BuildCategoryContext summarizes the DOM facts relevant to one vision
// category. Categories without extra context return "".
func BuildCategoryContext(category entities.Category, dom *entities.DOMExtract) string {
	switch category {
	case entities.CategoryInformationArchitecture:
		nav := make([]string, 0, len(dom.Navigation))
		for _, n := range dom.Navigation {
			nav = append(nav, n.Text)
		}
		headings := make([]string, 0, len(dom.Headings))
		for _, h := range dom.Headings {
			headings = append(headings, fmt.Sprintf("H%d: %s", h.Level, h.Text))
		}
		return fmt.Sprintf("Navigation items: %s\nHeading structure: %s\nTotal links: %d (%d external)",
			strings.Join(nav, ", "),
			strings.Join(headings, " → "),
			len(dom.Links), len(externalLinks(dom.Links)))

	case entities.CategoryConversionFlow:
		var ctas []string
		for _, l := range dom.Links {
			text := strings.ToLower(l.Text)
			if strings.Contains(text, "book") || strings.Contains(text, "reserve") || strings.Contains(text, "contact") {
				ctas = append(ctas, fmt.Sprintf("%q → %s", l.Text, l.Href))
			}
		}
		external := externalLinks(dom.Links)
		if len(external) > 10 {
			external = external[:10]
		}
		hrefs := make([]string, 0, len(external))
		for _, l := range external {
			hrefs = append(hrefs, l.Href)
		}
		return fmt.Sprintf("Forms found: %d\nCTAs/buttons: %s\nExternal links: %s",
			len(dom.Forms), strings.Join(ctas, ", "), strings.Join(hrefs, ", "))

	case entities.CategoryTrustSignals:
		return fmt.Sprintf("Images found: %d\nHas schema.org data: %t\nHas Open Graph tags: %t",
			len(dom.Images), len(dom.Meta.SchemaOrg) > 0, len(dom.Meta.OGTags) > 0)

	default:
		return ""
	}
}

func externalLinks(links []entities.Link) []entities.Link {
	var out []entities.Link
	for _, l := range links {
		if l.IsExternal {
			out = append(out, l)
		}
	}
	return out
}
