package gateways

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ochairo/uxaudit/internal/domain/entities"
	"github.com/ochairo/uxaudit/internal/domain/interfaces"
	domainGateways "github.com/ochairo/uxaudit/internal/domain/interfaces/gateways"
	"github.com/ochairo/uxaudit/internal/domain/services"
	"github.com/ochairo/uxaudit/internal/external-adapters/markdown"
)

// ReportWriter persists audit output with checksums and optional signatures
type ReportWriter struct {
	policy    services.ScoringPolicy
	renderer  *markdown.Renderer
	checksums *checksumVerifier
	signer    domainGateways.ArtifactSigner
	logger    interfaces.Logger
}

// NewReportWriter creates a writer; policy decides which findings are listed as quick wins
func NewReportWriter(policy services.ScoringPolicy, logger interfaces.Logger) *ReportWriter {
	return &ReportWriter{
		policy:    policy,
		renderer:  markdown.NewRenderer(),
		checksums: NewChecksumVerifier(),
		logger:    interfaces.OrNoOp(logger),
	}
}

// WithSigner enables detached signatures for every written artifact
func (w *ReportWriter) WithSigner(signer domainGateways.ArtifactSigner) *ReportWriter {
	w.signer = signer
	return w
}

// Write emits report.json, report.md and report.html into dir. collection
// is persisted as collection.json when non-nil.
func (w *ReportWriter) Write(dir string, report *entities.AuditReport, collection *entities.CollectionResult) (*entities.ArtifactSet, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	out := &entities.ArtifactSet{Dir: dir}

	if err := w.writeJSON(out, filepath.Join(dir, ReportJSONFile), report); err != nil {
		return nil, err
	}

	md := services.RenderMarkdown(report, w.policy)
	if err := w.writeFile(out, filepath.Join(dir, ReportMarkdownFile), []byte(md)); err != nil {
		return nil, err
	}

	page, err := w.renderer.RenderPage([]byte(md), "UX Audit: "+report.URL)
	if err != nil {
		return nil, err
	}
	if err := w.writeFile(out, filepath.Join(dir, ReportHTMLFile), page); err != nil {
		return nil, err
	}

	if collection != nil {
		if err := w.writeJSON(out, filepath.Join(dir, CollectionFile), collection); err != nil {
			return nil, err
		}
	}

	w.logger.Info("Report written",
		interfaces.F("dir", dir),
		interfaces.F("files", len(out.Files)),
		interfaces.F("signed", len(out.Signatures) > 0))
	return out, nil
}

// WriteValidation emits validation.json into dir
func (w *ReportWriter) WriteValidation(dir string, result *services.ValidationResult) (*entities.ArtifactSet, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	out := &entities.ArtifactSet{Dir: dir}
	if err := w.writeJSON(out, filepath.Join(dir, ValidationFile), result); err != nil {
		return nil, err
	}
	return out, nil
}

func (w *ReportWriter) writeJSON(out *entities.ArtifactSet, path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	return w.writeFile(out, path, append(data, '\n'))
}

func (w *ReportWriter) writeFile(out *entities.ArtifactSet, path string, data []byte) error {
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	out.Files = append(out.Files, path)

	sum, err := w.checksums.WriteChecksumFile(path)
	if err != nil {
		return err
	}
	out.Checksums = append(out.Checksums, sum)

	if w.signer != nil {
		sig, err := w.signer.SignFile(path)
		if err != nil {
			return fmt.Errorf("failed to sign %s: %w", filepath.Base(path), err)
		}
		out.Signatures = append(out.Signatures, sig)
	}
	return nil
}
