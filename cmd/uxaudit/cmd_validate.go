package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ochairo/uxaudit/internal/domain-adapters/gateways"
	"github.com/ochairo/uxaudit/internal/domain/entities"
	"github.com/ochairo/uxaudit/internal/domain/services"
	"github.com/ochairo/uxaudit/internal/external-adapters/yaml"
)

type validateFlags struct {
	groundTruth string
	signature   string
	keyFile     string
	keyURL      string
	outputDir   string
}

func (a *app) validateCmd() *cobra.Command {
	var flags validateFlags

	cmd := &cobra.Command{
		Use:   "validate <report.json>",
		Short: "Measure a report's recall against a manual ground-truth audit",
		Long: `Match each ground-truth keyword (a case-insensitive regular expression)
against every finding's description, evidence and recommendation, and write
validation.json next to the report.

The ground-truth file can be checked against a detached OpenPGP signature
before it is used.`,
		Example: `  # Validate against the embedded ground truth
  uxaudit validate reports/pineridge/report.json

  # Validate against a signed ground-truth file
  uxaudit validate report.json --ground-truth truth.yml \
    --signature truth.yml.asc --key auditors.asc`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("ground-truth") {
				a.cfg.GroundTruthFile = flags.groundTruth
			}
			return a.executeValidate(cmd.Context(), cmd.OutOrStdout(), args[0], flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.groundTruth, "ground-truth", "", "Ground-truth YAML file or URL (embedded defaults when unset)")
	f.StringVar(&flags.signature, "signature", "", "Detached signature file or URL of the ground-truth file")
	f.StringVar(&flags.keyFile, "key", "", "Armored OpenPGP public key for --signature")
	f.StringVar(&flags.keyURL, "key-url", "", "URL of armored OpenPGP public keys for --signature")
	f.StringVarP(&flags.outputDir, "out", "o", "", "Directory for validation.json (defaults to the report's directory)")

	return cmd
}

func (a *app) executeValidate(ctx context.Context, out io.Writer, reportPath string, flags validateFlags) error {
	report, err := readReport(reportPath)
	if err != nil {
		return err
	}

	groundTruth, signature := a.cfg.GroundTruthFile, flags.signature
	cleanup, err := localize(ctx, &groundTruth, &signature)
	if err != nil {
		return err
	}
	defer cleanup()

	if signature != "" {
		if groundTruth == "" {
			return fmt.Errorf("%w: --signature needs a --ground-truth file", services.ErrConfiguration)
		}
		if err := verifySignature(ctx, groundTruth, signature, flags.keyFile, flags.keyURL); err != nil {
			return fmt.Errorf("ground truth signature verification failed: %w", err)
		}
		fmt.Fprintln(out, okStyle.Render("✓ ground truth signature verified"))
	}

	truths, err := yaml.NewGroundTruthRepository(groundTruth).ListGroundTruth(ctx)
	if err != nil {
		return fmt.Errorf("failed to load ground truth: %w", err)
	}

	result, err := services.Validate(report, truths)
	if err != nil {
		return err
	}

	policy, err := a.cfg.ScoringPolicy()
	if err != nil {
		return err
	}
	outputDir := flags.outputDir
	if outputDir == "" {
		outputDir = filepath.Dir(reportPath)
	}
	artifacts, err := gateways.NewReportWriter(policy, a.logger).WriteValidation(outputDir, result)
	if err != nil {
		return err
	}

	printValidation(out, result, artifacts)
	return nil
}

// localize replaces remote locations with downloaded copies in a temporary
// directory removed by the returned cleanup func
func localize(ctx context.Context, locations ...*string) (func(), error) {
	var dir string
	cleanup := func() {}
	downloader := gateways.NewDownloader()

	for _, loc := range locations {
		if !gateways.IsRemote(*loc) {
			continue
		}
		if dir == "" {
			tmp, err := os.MkdirTemp("", "uxaudit-")
			if err != nil {
				return cleanup, fmt.Errorf("failed to create temp directory: %w", err)
			}
			dir = tmp
			cleanup = func() { _ = os.RemoveAll(tmp) }
		}
		path, err := downloader.Fetch(ctx, *loc, dir)
		if err != nil {
			cleanup()
			return func() {}, err
		}
		*loc = path
	}
	return cleanup, nil
}

func readReport(path string) (*entities.AuditReport, error) {
	//nolint:gosec // G304: Report path is provided by the user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var report entities.AuditReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse report %s: %w", path, err)
	}
	return &report, nil
}

func printValidation(w io.Writer, result *services.ValidationResult, artifacts *entities.ArtifactSet) {
	recall := fmt.Sprintf("%.0f%% (%d/%d)", result.Recall*100, result.Matched, result.Total)
	style := healthStyle(int(result.Recall * 100))

	lines := []string{
		titleStyle.Render("Validation: " + result.URL),
		"",
		row("Recall", style.Render(recall)),
		row("Generated", fmt.Sprintf("%d findings", result.Generated)),
		row("Confidence", fmt.Sprintf("avg %.2f, %d high, %d low", result.Confidence.Average, result.Confidence.High, result.Confidence.Low)),
	}

	if misses := result.Misses(); len(misses) > 0 {
		lines = append(lines, "", titleStyle.Render("Missed"))
		for _, m := range misses {
			lines = append(lines, "  "+errorStyle.Render("✗ ")+fmt.Sprintf("[%s] %s", m.Category, m.Description))
		}
	}

	lines = append(lines, "", titleStyle.Render("Coverage"))
	for _, c := range result.Categories {
		lines = append(lines, row(shortCategory(c.Category), fmt.Sprintf("%d generated / %d expected", c.Generated, c.GroundTruth)))
	}

	lines = append(lines, "", row("Output", artifacts.Dir))
	fmt.Fprintln(w, panelStyle.Render(strings.Join(lines, "\n")))
}

// shortCategory fits a category name into the label column
func shortCategory(c entities.Category) string {
	name := string(c)
	if len(name) > 13 {
		return name[:12] + "…"
	}
	return name
}
