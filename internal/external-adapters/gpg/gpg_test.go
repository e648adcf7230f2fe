package gpg

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

// newTestKeys writes an armored private and public key for a fresh entity
func newTestKeys(t *testing.T) (privPath, pubPath string, pub []byte) {
	t.Helper()

	entity, err := openpgp.NewEntity("Audit Bot", "test", "audit@example.com", nil)
	if err != nil {
		t.Fatalf("NewEntity() error = %v", err)
	}

	var privBuf bytes.Buffer
	w, err := armor.Encode(&privBuf, openpgp.PrivateKeyType, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := entity.SerializePrivate(w, nil); err != nil {
		t.Fatalf("SerializePrivate() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	var pubBuf bytes.Buffer
	w, err = armor.Encode(&pubBuf, openpgp.PublicKeyType, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := entity.Serialize(w); err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	privPath = filepath.Join(dir, "private.asc")
	pubPath = filepath.Join(dir, "public.asc")
	if err := os.WriteFile(privPath, privBuf.Bytes(), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(pubPath, pubBuf.Bytes(), 0600); err != nil {
		t.Fatal(err)
	}
	return privPath, pubPath, pubBuf.Bytes()
}

func writeArtifact(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.json")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSignAndVerify_RoundTrip(t *testing.T) {
	privPath, pubPath, _ := newTestKeys(t)
	artifact := writeArtifact(t, `{"findings":[]}`)

	signer, err := LoadSigner(privPath, nil)
	if err != nil {
		t.Fatalf("LoadSigner() error = %v", err)
	}
	if len(signer.Fingerprint()) != 40 {
		t.Errorf("Fingerprint() = %q, want 40 hex chars", signer.Fingerprint())
	}

	sigPath, err := signer.SignFile(artifact)
	if err != nil {
		t.Fatalf("SignFile() error = %v", err)
	}
	if sigPath != artifact+".asc" {
		t.Errorf("sigPath = %q, want %q", sigPath, artifact+".asc")
	}

	v := NewVerifier()
	if err := v.ImportKeyFromFile(pubPath); err != nil {
		t.Fatalf("ImportKeyFromFile() error = %v", err)
	}
	if err := v.VerifyFile(artifact, sigPath); err != nil {
		t.Errorf("VerifyFile() error = %v", err)
	}
}

func TestVerifyFile_DetectsTampering(t *testing.T) {
	privPath, pubPath, _ := newTestKeys(t)
	artifact := writeArtifact(t, `{"findings":[]}`)

	signer, err := LoadSigner(privPath, nil)
	if err != nil {
		t.Fatalf("LoadSigner() error = %v", err)
	}
	sigPath, err := signer.SignFile(artifact)
	if err != nil {
		t.Fatalf("SignFile() error = %v", err)
	}

	if err := os.WriteFile(artifact, []byte(`{"findings":[{"id":"f-1"}]}`), 0600); err != nil {
		t.Fatal(err)
	}

	v := NewVerifier()
	if err := v.ImportKeyFromFile(pubPath); err != nil {
		t.Fatal(err)
	}
	err = v.VerifyFile(artifact, sigPath)
	if err == nil {
		t.Fatal("VerifyFile() should fail for a modified artifact")
	}
	if !strings.Contains(err.Error(), "signature verification failed") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestVerifier_ImportKeysFromURL(t *testing.T) {
	_, _, pub := newTestKeys(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/KEYS" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write(pub)
	}))
	defer server.Close()

	v := NewVerifier()
	if err := v.ImportKeysFromURL(context.Background(), server.URL+"/KEYS"); err != nil {
		t.Fatalf("ImportKeysFromURL() error = %v", err)
	}
	if v.KeyringSize() != 1 {
		t.Errorf("KeyringSize() = %d, want 1", v.KeyringSize())
	}

	if err := v.ImportKeysFromURL(context.Background(), server.URL+"/missing"); err == nil {
		t.Error("ImportKeysFromURL() should fail on 404")
	}
}

func TestVerifier_ImportKeyFromFile_Errors(t *testing.T) {
	v := NewVerifier()

	err := v.ImportKeyFromFile("/nonexistent/key.asc")
	if err == nil || !strings.Contains(err.Error(), "failed to open key file") {
		t.Errorf("Expected 'failed to open key file' error, got: %v", err)
	}

	keyPath := filepath.Join(t.TempDir(), "garbage.asc")
	if err := os.WriteFile(keyPath, []byte("not a gpg key"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := v.ImportKeyFromFile(keyPath); err == nil {
		t.Error("Expected error for invalid key file, got nil")
	}
}

func TestVerifyFile_NoKeysImported(t *testing.T) {
	artifact := writeArtifact(t, "x")
	err := NewVerifier().VerifyFile(artifact, artifact+".asc")
	if err == nil || !strings.Contains(err.Error(), "no GPG keys imported") {
		t.Errorf("Expected 'no GPG keys imported' error, got: %v", err)
	}
}

func TestLoadSigner_PublicKeyOnly(t *testing.T) {
	_, pubPath, _ := newTestKeys(t)
	if _, err := LoadSigner(pubPath, nil); err == nil {
		t.Error("LoadSigner() should reject a public key")
	}
}
