package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ochairo/uxaudit/internal/config"
	"github.com/ochairo/uxaudit/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/uxaudit/internal/domain-orchestrators"
	"github.com/ochairo/uxaudit/internal/domain/interfaces"
	domainGateways "github.com/ochairo/uxaudit/internal/domain/interfaces/gateways"
	"github.com/ochairo/uxaudit/internal/domain/services"
	"github.com/ochairo/uxaudit/internal/external-adapters/gpg"
	"github.com/ochairo/uxaudit/internal/external-adapters/redis"
	"github.com/ochairo/uxaudit/internal/external-adapters/yaml"
)

const defaultOutputDir = "uxaudit-report"

// maxListedQuickWins caps the quick wins printed in the summary
const maxListedQuickWins = 5

type auditFlags struct {
	htmlPath     string
	pageURL      string
	screenshots  []string
	outputDir    string
	visionModel  string
	contentModel string
	skip         []string
	formula      string
	threshold    float64
	timeout      time.Duration
	concurrency  int
	scope        string
	criteriaFile string
	cache        string
	signKey      string
	archive      bool
}

func (a *app) auditCmd() *cobra.Command {
	var flags auditFlags

	cmd := &cobra.Command{
		Use:   "audit [collection.json]",
		Short: "Analyze a collected page and write the audit report",
		Long: `Analyze a page and write report.json, report.md and report.html, each with
a .sha256 checksum and, when a signing key is configured, a detached .asc
signature.

Input is either a collection.json produced by the collector, or a saved HTML
page (--html with --url) from which DOM facts are extracted offline.`,
		Example: `  # Audit collector output
  uxaudit audit collection.json --out reports/pineridge

  # Audit a saved page with screenshots, skipping two categories
  uxaudit audit --html page.html --url https://example.com \
    --screenshot desktop.png --screenshot mobile.png \
    --skip "Trust Signals" --skip Accessibility`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := orchestrators.AuditRequest{
				HTMLPath:    flags.htmlPath,
				PageURL:     flags.pageURL,
				Screenshots: flags.screenshots,
				OutputDir:   flags.outputDir,
			}
			if len(args) == 1 {
				req.CollectionPath = args[0]
			}
			flags.applyTo(cmd, a.cfg)
			return a.executeAudit(cmd.Context(), cmd.OutOrStdout(), req, flags.archive)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.htmlPath, "html", "", "Saved HTML page to extract instead of a collection file")
	f.StringVar(&flags.pageURL, "url", "", "Page URL (required with --html, overrides the collection URL otherwise)")
	f.StringArrayVar(&flags.screenshots, "screenshot", nil, "Screenshot for vision analysis (repeatable, --html only)")
	f.StringVarP(&flags.outputDir, "out", "o", defaultOutputDir, "Output directory for report artifacts")
	f.StringVar(&flags.visionModel, "vision-model", "", "Model used for screenshot analysis")
	f.StringVar(&flags.contentModel, "content-model", "", "Model used for content analysis")
	f.StringArrayVar(&flags.skip, "skip", nil, "Category to skip (repeatable or comma-separated)")
	f.StringVar(&flags.formula, "formula", "", "Priority formula: impact-squared or linear")
	f.Float64Var(&flags.threshold, "quick-win-threshold", 0, "Priority score at or above which a finding is a quick win")
	f.DurationVar(&flags.timeout, "timeout", 0, "Deadline for the whole analysis")
	f.IntVar(&flags.concurrency, "concurrency", 0, "Maximum analyzers running at once")
	f.StringVar(&flags.scope, "scope", "", "Scope assigned to model findings")
	f.StringVar(&flags.criteriaFile, "criteria", "", "Criteria YAML file (embedded defaults when unset)")
	f.StringVar(&flags.cache, "cache", "", "Model response cache: none, memory or redis")
	f.StringVar(&flags.signKey, "sign-key", "", "Armored OpenPGP private key used to sign artifacts")
	f.BoolVar(&flags.archive, "archive", false, "Also package the output directory as <out>.tar.gz")

	return cmd
}

// applyTo overlays explicitly set flags onto cfg
func (f *auditFlags) applyTo(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("vision-model") {
		cfg.VisionModel = f.visionModel
	}
	if changed("content-model") {
		cfg.ContentModel = f.contentModel
	}
	if changed("skip") {
		cfg.SkipCategories = config.SplitList(strings.Join(f.skip, ","))
	}
	if changed("formula") {
		cfg.PriorityFormula = f.formula
	}
	if changed("quick-win-threshold") {
		cfg.QuickWinThreshold = f.threshold
	}
	if changed("timeout") {
		cfg.Timeout = f.timeout
	}
	if changed("concurrency") {
		cfg.Concurrency = f.concurrency
	}
	if changed("scope") {
		cfg.Scope = f.scope
	}
	if changed("criteria") {
		cfg.CriteriaFile = f.criteriaFile
	}
	if changed("cache") {
		cfg.Cache.Backend = f.cache
	}
	if changed("sign-key") {
		cfg.Signing.KeyFile = f.signKey
	}
}

func (a *app) executeAudit(ctx context.Context, out io.Writer, req orchestrators.AuditRequest, archive bool) error {
	cfg := a.cfg
	if err := cfg.Validate(); err != nil {
		return err
	}
	policy, err := cfg.ScoringPolicy()
	if err != nil {
		return err
	}
	skip, err := cfg.SkipList()
	if err != nil {
		return err
	}

	// Layer 1: Create gateways and repositories (Infrastructure)
	registry, err := loadRegistry(ctx, cfg.CriteriaFile)
	if err != nil {
		return err
	}

	model, closeModel, err := a.modelGateway(ctx)
	if err != nil {
		return err
	}
	//nolint:errcheck // Defer close
	defer closeModel()

	writer := gateways.NewReportWriter(policy, a.logger)
	if cfg.Signing.KeyFile != "" {
		signer, err := gpg.LoadSigner(cfg.Signing.KeyFile, cfg.Passphrase(a.lookupEnv))
		if err != nil {
			return fmt.Errorf("failed to load signing key: %w", err)
		}
		writer.WithSigner(signer)
	}

	// Layer 2: Create domain services
	vision := services.NewVisionAnalyzer(model, registry, policy, a.logger)
	content := services.NewContentAnalyzer(model, registry, policy, a.logger).WithMaxTextChars(cfg.MaxTextChars)

	// Layer 3: Create orchestrators
	analysis := orchestrators.NewAnalysisOrchestrator(vision, content, policy, a.logger)
	orchestrator := orchestrators.NewAuditOrchestrator(
		gateways.NewCollectionLoader().WithMaxTextChars(cfg.MaxTextChars),
		analysis,
		services.NewReportGenerator(policy),
		writer,
		a.logger,
	)

	// Layer 4: Execute
	req.Analysis = orchestrators.AnalysisOptions{
		VisionModel:    cfg.VisionModel,
		ContentModel:   cfg.ContentModel,
		SkipCategories: skip,
		Concurrency:    cfg.Concurrency,
		Timeout:        cfg.Timeout,
		Scope:          cfg.Scope,
	}
	result, err := orchestrator.Run(ctx, req)
	if err != nil {
		return err
	}

	var archivePath string
	if archive {
		archivePath, err = gateways.NewPackager().PackageReport(ctx, result.Artifacts.Dir, "")
		if err != nil {
			return fmt.Errorf("failed to package report: %w", err)
		}
	}

	printAuditSummary(out, result, policy, archivePath)
	return nil
}

func loadRegistry(ctx context.Context, criteriaFile string) (*services.CriteriaRegistry, error) {
	list, err := yaml.NewCriteriaRepository(criteriaFile).ListCriteria(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load criteria: %w", err)
	}
	return services.NewCriteriaRegistry(list)
}

// modelGateway builds the model gateway, wrapped in the configured response
// cache. The returned close func releases cache connections.
func (a *app) modelGateway(ctx context.Context) (domainGateways.ModelGateway, func() error, error) {
	cfg := a.cfg
	noop := func() error { return nil }

	if strings.TrimSpace(cfg.API.Key) == "" {
		a.logger.Warn("Model API key is not set, only structured and rule-based findings will be produced",
			interfaces.F("env", "ANTHROPIC_API_KEY"))
		return gateways.NewUnavailableModelGateway("model API key is not set"), noop, nil
	}

	inner, err := gateways.NewAnthropicGateway(gateways.AnthropicConfig{
		BaseURL: cfg.API.BaseURL,
		APIKey:  cfg.API.Key,
		Version: cfg.API.Version,
		Timeout: cfg.API.Timeout,
	})
	if err != nil {
		return nil, noop, err
	}

	switch cfg.Cache.Backend {
	case config.CacheMemory:
		cache := gateways.NewMemoryCache(cfg.Cache.TTL)
		return gateways.NewCachedModelGateway(inner, cache, a.logger), noop, nil
	case config.CacheRedis:
		cache, err := redis.NewCache(ctx, cfg.Cache.RedisURL, cfg.Cache.Prefix, cfg.Cache.TTL)
		if err != nil {
			return nil, noop, err
		}
		return gateways.NewCachedModelGateway(inner, cache, a.logger), cache.Close, nil
	default:
		return inner, noop, nil
	}
}

func printAuditSummary(w io.Writer, result *orchestrators.AuditResult, policy services.ScoringPolicy, archivePath string) {
	report := result.Report
	s := report.Summary

	topCategory := string(s.TopCategory)
	if topCategory == "" {
		topCategory = "n/a"
	}

	lines := []string{
		titleStyle.Render("UX audit: " + report.URL),
		"",
		row("Findings", fmt.Sprintf("%d (%d critical, %d quick wins)", s.TotalFindings, s.CriticalFindings, s.QuickWins)),
		row("Health score", healthStyle(s.OverallHealthScore).Render(fmt.Sprintf("%d/100", s.OverallHealthScore))),
		row("Top category", topCategory),
		row("Avg priority", fmt.Sprintf("%.2f", s.AveragePriorityScore)),
		row("Analyzers", analyzerStatus(result.Analysis)),
	}

	for _, run := range report.Analyzers {
		if !run.Succeeded() {
			lines = append(lines, "  "+errorStyle.Render("✗ ")+fmt.Sprintf("%s (%s): %s", run.Name, run.Category, run.Error))
		}
	}

	listed := 0
	for _, f := range report.Findings {
		if listed == maxListedQuickWins {
			break
		}
		if !policy.IsQuickWin(f) {
			continue
		}
		if listed == 0 {
			lines = append(lines, "", titleStyle.Render("Quick wins"))
		}
		lines = append(lines, fmt.Sprintf("  %s %s %s",
			okStyle.Render(fmt.Sprintf("%5.1f", f.PriorityScore)),
			labelStyle.Render(string(f.Category)),
			f.Description))
		listed++
	}

	lines = append(lines, "", row("Output", result.Artifacts.Dir))
	for _, file := range result.Artifacts.Files {
		lines = append(lines, "  "+filepath.Base(file))
	}
	if result.Artifacts.Signed() {
		lines = append(lines, row("Signed", okStyle.Render(fmt.Sprintf("%d signatures", len(result.Artifacts.Signatures)))))
	}
	if archivePath != "" {
		lines = append(lines, row("Archive", archivePath))
	}
	lines = append(lines, row("Duration", result.TotalDuration.Round(time.Millisecond).String()))

	fmt.Fprintln(w, panelStyle.Render(strings.Join(lines, "\n")))
}

func analyzerStatus(analysis *orchestrators.AnalysisResult) string {
	total := len(analysis.Runs)
	succeeded := analysis.Succeeded()
	text := fmt.Sprintf("%d/%d succeeded", succeeded, total)
	switch {
	case succeeded == total:
		return okStyle.Render(text)
	case succeeded == 0:
		return errorStyle.Render(text)
	default:
		return warnStyle.Render(text)
	}
}
