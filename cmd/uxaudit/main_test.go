package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"

	"github.com/ochairo/uxaudit/internal/domain-adapters/gateways"
	"github.com/ochairo/uxaudit/internal/domain/entities"
	"github.com/ochairo/uxaudit/internal/domain/services"
	"github.com/ochairo/uxaudit/internal/external-adapters/gpg"
)

const testCollection = `{
  "url": "https://pineridge.example.com",
  "screenshots": [{"path": "home.png", "viewport": "desktop", "width": 1440, "height": 900}],
  "dom": {
    "url": "https://pineridge.example.com",
    "headings": [{"level": 1, "text": "Welcome"}],
    "visibleText": "Book your stay at Pine Ridge. Full hookups, lake views.",
    "meta": {"title": "Pine Ridge", "description": "Full hookup RV sites on the lake"}
  },
  "accessibility": {
    "violations": [{"id": "image-alt", "impact": "critical", "description": "Images must have alternate text", "help": "Images must have alternate text"}]
  }
}`

const modelReply = `[{"description": "Booking button is hidden below the fold", "evidence": "No reservation CTA in the first viewport", "recommendation": "Add a sticky Book Now button", "userImpact": 5, "estimatedEffort": 1, "confidence": 0.9}]`

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

// runCLI executes the root command in-process with a fixed environment
func runCLI(t *testing.T, env map[string]string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newApp(envMap(env)).rootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// newModelServer fakes the Messages API, replying with modelReply
func newModelServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("x-api-key") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(gateways.MessagesResponse{
			ID:         "msg_test",
			Content:    []gateways.ContentBlock{{Type: "text", Text: modelReply}},
			StopReason: "end_turn",
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func writeCollection(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "home.png"), []byte("fake png"), 0600); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "collection.json")
	if err := os.WriteFile(path, []byte(testCollection), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeKeys(t *testing.T) (privPath, pubPath string) {
	t.Helper()

	entity, err := openpgp.NewEntity("Audit Bot", "test", "audit@example.com", nil)
	if err != nil {
		t.Fatalf("NewEntity() error = %v", err)
	}

	encode := func(blockType string, serialize func(w *bytes.Buffer) error) []byte {
		var buf bytes.Buffer
		w, err := armor.Encode(&buf, blockType, nil)
		if err != nil {
			t.Fatal(err)
		}
		var raw bytes.Buffer
		if err := serialize(&raw); err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(raw.Bytes()); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
		return buf.Bytes()
	}

	priv := encode(openpgp.PrivateKeyType, func(w *bytes.Buffer) error { return entity.SerializePrivate(w, nil) })
	pub := encode(openpgp.PublicKeyType, func(w *bytes.Buffer) error { return entity.Serialize(w) })

	dir := t.TempDir()
	privPath = filepath.Join(dir, "private.asc")
	pubPath = filepath.Join(dir, "public.asc")
	if err := os.WriteFile(privPath, priv, 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(pubPath, pub, 0600); err != nil {
		t.Fatal(err)
	}
	return privPath, pubPath
}

func TestCriteriaCmd(t *testing.T) {
	out, err := runCLI(t, nil, "criteria")
	if err != nil {
		t.Fatalf("criteria error = %v", err)
	}
	for _, c := range entities.AllCategories {
		if !strings.Contains(out, string(c)) {
			t.Errorf("criteria output missing %q", c)
		}
	}
}

func TestAuditCmd_EndToEnd(t *testing.T) {
	var calls atomic.Int32
	server := newModelServer(t, &calls)
	env := map[string]string{
		"ANTHROPIC_API_KEY":  "test-key",
		"ANTHROPIC_BASE_URL": server.URL,
	}
	outDir := filepath.Join(t.TempDir(), "report")

	out, err := runCLI(t, env, "audit", writeCollection(t), "--out", outDir, "--skip", "Visual Hierarchy", "--archive")
	if err != nil {
		t.Fatalf("audit error = %v\n%s", err, out)
	}

	// three vision categories plus content
	if got := calls.Load(); got != 4 {
		t.Errorf("model calls = %d, want 4", got)
	}
	for _, want := range []string{"pineridge.example.com", "6/6 succeeded", "Quick wins", "report.json"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}

	report, err := readReport(filepath.Join(outDir, gateways.ReportJSONFile))
	if err != nil {
		t.Fatalf("readReport() error = %v", err)
	}
	// four model findings plus one axe-core violation
	if report.Summary.TotalFindings != 5 {
		t.Errorf("TotalFindings = %d, want 5", report.Summary.TotalFindings)
	}
	for _, f := range report.Findings {
		if f.Source != entities.SourceVision && f.Source != entities.SourceLLMContent {
			continue
		}
		if f.UserImpact != 5 || f.EstimatedEffort != 1 || f.PriorityScore != 25 {
			t.Errorf("%s finding impact/effort/priority = %d/%d/%.2f, want 5/1/25", f.Source, f.UserImpact, f.EstimatedEffort, f.PriorityScore)
		}
	}
	if report.Summary.QuickWins != 5 {
		t.Errorf("QuickWins = %d, want 5", report.Summary.QuickWins)
	}
	for _, name := range []string{gateways.ReportMarkdownFile, gateways.ReportHTMLFile, gateways.ReportJSONFile + ".sha256"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}
	if _, err := os.Stat(outDir + gateways.ArchiveExt); err != nil {
		t.Errorf("archive not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, gateways.CollectionFile)); err == nil {
		t.Error("collection.json should not be written for collection input")
	}

	if out, err := runCLI(t, nil, "verify", outDir); err != nil {
		t.Errorf("verify error = %v\n%s", err, out)
	}

	if out, err := runCLI(t, nil, "validate", filepath.Join(outDir, gateways.ReportJSONFile)); err != nil {
		t.Errorf("validate error = %v\n%s", err, out)
	} else if !strings.Contains(out, "Recall") {
		t.Errorf("validate output missing recall:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(outDir, gateways.ValidationFile)); err != nil {
		t.Errorf("validation.json not written: %v", err)
	}
}

func TestAuditCmd_ModelFailureIsNotFatal(t *testing.T) {
	var calls atomic.Int32
	server := newModelServer(t, &calls)
	env := map[string]string{
		"ANTHROPIC_API_KEY":  "wrong-key",
		"ANTHROPIC_BASE_URL": server.URL,
	}

	out, err := runCLI(t, env, "audit", writeCollection(t), "--out", t.TempDir())
	if err != nil {
		t.Fatalf("audit error = %v", err)
	}
	if !strings.Contains(out, "2/7 succeeded") {
		t.Errorf("expected only the converters to succeed:\n%s", out)
	}
}

func TestAuditCmd_WithoutAPIKey(t *testing.T) {
	outDir := t.TempDir()

	out, err := runCLI(t, map[string]string{}, "audit", writeCollection(t), "--out", outDir)
	if err != nil {
		t.Fatalf("audit error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "2/7 succeeded") {
		t.Errorf("expected only the converters to succeed:\n%s", out)
	}

	report, err := readReport(filepath.Join(outDir, gateways.ReportJSONFile))
	if err != nil {
		t.Fatalf("readReport() error = %v", err)
	}
	var axe int
	for _, f := range report.Findings {
		if f.Source == entities.SourceAxeCore {
			axe++
		}
	}
	if axe != 1 {
		t.Errorf("axe-core findings = %d, want 1", axe)
	}
	for _, run := range report.Analyzers {
		if run.Name == "vision" && !strings.Contains(run.Error, "API key is not set") {
			t.Errorf("vision run error = %q, want missing key", run.Error)
		}
	}
}

func TestAuditCmd_HTMLTextCap(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "index.html")
	body := "<html><head><title>Pine Ridge</title></head><body><h1>Pine Ridge</h1><p>" +
		strings.Repeat("Lakeside sites with full hookups. ", 20) + "</p></body></html>"
	if err := os.WriteFile(page, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(dir, "report")

	env := map[string]string{"UXAUDIT_MAX_TEXT_CHARS": "40"}
	if out, err := runCLI(t, env, "audit", "--html", page, "--url", "https://pineridge.example.com", "--out", outDir); err != nil {
		t.Fatalf("audit error = %v\n%s", err, out)
	}

	data, err := os.ReadFile(filepath.Join(outDir, gateways.CollectionFile))
	if err != nil {
		t.Fatalf("collection.json not written: %v", err)
	}
	var collection entities.CollectionResult
	if err := json.Unmarshal(data, &collection); err != nil {
		t.Fatalf("collection.json is not valid JSON: %v", err)
	}
	if got := len([]rune(collection.DOM.VisibleText)); got != 40 {
		t.Errorf("VisibleText has %d runes, want 40", got)
	}
}

func TestAuditCmd_SignAndVerify(t *testing.T) {
	var calls atomic.Int32
	server := newModelServer(t, &calls)
	privPath, pubPath := writeKeys(t)
	env := map[string]string{
		"ANTHROPIC_API_KEY":  "test-key",
		"ANTHROPIC_BASE_URL": server.URL,
	}
	outDir := t.TempDir()

	if out, err := runCLI(t, env, "audit", writeCollection(t), "--out", outDir, "--sign-key", privPath); err != nil {
		t.Fatalf("audit error = %v\n%s", err, out)
	}

	out, err := runCLI(t, nil, "verify", outDir, "--key", pubPath)
	if err != nil {
		t.Fatalf("verify error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "6 checks") {
		t.Errorf("expected checksum and signature checks for three files:\n%s", out)
	}

	report := filepath.Join(outDir, gateways.ReportMarkdownFile)
	if err := os.WriteFile(report, []byte("# tampered\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, nil, "verify", report, "--key", pubPath); err == nil {
		t.Error("verify should fail for a tampered artifact")
	}
}

func TestAuditCmd_ConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{
			name: "missing API key",
			args: []string{"audit", "collection.json"},
		},
		{
			name: "unknown skip category",
			env:  map[string]string{"ANTHROPIC_API_KEY": "k"},
			args: []string{"audit", "collection.json", "--skip", "Colors"},
		},
		{
			name: "non-positive concurrency",
			env:  map[string]string{"ANTHROPIC_API_KEY": "k"},
			args: []string{"audit", "collection.json", "--concurrency", "0"},
		},
		{
			name: "no input",
			env:  map[string]string{"ANTHROPIC_API_KEY": "k"},
			args: []string{"audit"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.env, tt.args...)
			if !errors.Is(err, services.ErrConfiguration) {
				t.Errorf("error = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestValidateCmd_SignedGroundTruth(t *testing.T) {
	privPath, pubPath := writeKeys(t)
	dir := t.TempDir()

	truth := filepath.Join(dir, "truth.yml")
	content := `- category: Conversion Flow
  keyword: "book(ing)?"
  description: Booking entry point is hard to find
`
	if err := os.WriteFile(truth, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	signer, err := gpg.LoadSigner(privPath, nil)
	if err != nil {
		t.Fatal(err)
	}
	sigPath, err := signer.SignFile(truth)
	if err != nil {
		t.Fatalf("SignFile() error = %v", err)
	}

	reportPath := filepath.Join(dir, "report.json")
	report := entities.AuditReport{
		URL: "https://pineridge.example.com",
		Findings: []entities.Finding{{
			ID: "f-1", Category: entities.CategoryConversionFlow,
			Description: "Booking button is hidden", Confidence: 0.9,
		}},
	}
	data, _ := json.Marshal(report)
	if err := os.WriteFile(reportPath, data, 0600); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, nil, "validate", reportPath, "--ground-truth", truth, "--signature", sigPath, "--key", pubPath)
	if err != nil {
		t.Fatalf("validate error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "100% (1/1)") {
		t.Errorf("expected full recall:\n%s", out)
	}

	if err := os.WriteFile(truth, []byte(content+"- category: Trust Signals\n  keyword: reviews\n  description: x\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, nil, "validate", reportPath, "--ground-truth", truth, "--signature", sigPath, "--key", pubPath); err == nil {
		t.Error("validate should reject a tampered ground-truth file")
	}

	if _, err := runCLI(t, nil, "validate", reportPath, "--signature", sigPath, "--key", pubPath); !errors.Is(err, services.ErrConfiguration) {
		t.Errorf("signature without ground-truth file error = %v, want ErrConfiguration", err)
	}
}

func TestValidateCmd_RemoteGroundTruth(t *testing.T) {
	privPath, pubPath := writeKeys(t)
	dir := t.TempDir()

	truth := filepath.Join(dir, "truth.yml")
	if err := os.WriteFile(truth, []byte("- category: Conversion Flow\n  keyword: booking\n  description: Booking entry point\n"), 0600); err != nil {
		t.Fatal(err)
	}
	signer, err := gpg.LoadSigner(privPath, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := signer.SignFile(truth); err != nil {
		t.Fatal(err)
	}

	server := httptest.NewServer(http.FileServer(http.Dir(dir)))
	defer server.Close()

	reportPath := filepath.Join(t.TempDir(), "report.json")
	data, _ := json.Marshal(entities.AuditReport{
		URL:      "https://pineridge.example.com",
		Findings: []entities.Finding{{ID: "f-1", Category: entities.CategoryTrustSignals, Description: "No reviews"}},
	})
	if err := os.WriteFile(reportPath, data, 0600); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, nil, "validate", reportPath,
		"--ground-truth", server.URL+"/truth.yml",
		"--signature", server.URL+"/truth.yml.asc",
		"--key", pubPath)
	if err != nil {
		t.Fatalf("validate error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "0% (0/1)") || !strings.Contains(out, "Booking entry point") {
		t.Errorf("expected one missed ground-truth item:\n%s", out)
	}
}
