package gateways

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"

	domainGateways "github.com/ochairo/uxaudit/internal/domain/interfaces/gateways"
	"github.com/ochairo/uxaudit/internal/external-adapters/gpg"
)

var _ domainGateways.SignatureVerifier = (*gpgVerifier)(nil)

// newTestSigner creates a signer and writes its armored public key
func newTestSigner(t *testing.T) (*gpg.Signer, string) {
	t.Helper()

	entity, err := openpgp.NewEntity("Audit Bot", "test", "audit@example.com", nil)
	if err != nil {
		t.Fatalf("NewEntity() error = %v", err)
	}

	var pub bytes.Buffer
	w, err := armor.Encode(&pub, openpgp.PublicKeyType, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := entity.Serialize(w); err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	pubPath := filepath.Join(t.TempDir(), "public.asc")
	if err := os.WriteFile(pubPath, pub.Bytes(), 0600); err != nil {
		t.Fatal(err)
	}

	signer, err := gpg.NewSigner(entity)
	if err != nil {
		t.Fatalf("NewSigner() error = %v", err)
	}
	return signer, pubPath
}

func TestGPGVerifier_VerifyArtifact(t *testing.T) {
	signer, pubPath := newTestSigner(t)

	artifact := filepath.Join(t.TempDir(), "ground_truth.yml")
	if err := os.WriteFile(artifact, []byte("- category: Trust Signals\n  keyword: review\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := signer.SignFile(artifact); err != nil {
		t.Fatalf("SignFile() error = %v", err)
	}

	verifier := NewGPGVerifier()
	if err := verifier.ImportGPGKeyFromFile(pubPath); err != nil {
		t.Fatalf("ImportGPGKeyFromFile() error = %v", err)
	}
	if verifier.GetKeyringSize() != 1 {
		t.Errorf("GetKeyringSize() = %d, want 1", verifier.GetKeyringSize())
	}

	if err := verifier.VerifyArtifact(artifact); err != nil {
		t.Errorf("VerifyArtifact() error = %v", err)
	}

	if err := os.WriteFile(artifact, []byte("- category: Trust Signals\n  keyword: .*\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := verifier.VerifyArtifact(artifact); err == nil {
		t.Error("VerifyArtifact() should fail for a modified file")
	}
}

func TestGPGVerifier_Errors(t *testing.T) {
	verifier := NewGPGVerifier()

	if err := verifier.ImportGPGKeyFromFile(filepath.Join(t.TempDir(), "missing.asc")); err == nil {
		t.Error("ImportGPGKeyFromFile() should fail for a missing key")
	}

	artifact := filepath.Join(t.TempDir(), "report.json")
	if err := os.WriteFile(artifact, []byte("{}"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := verifier.VerifyArtifact(artifact); err == nil {
		t.Error("VerifyArtifact() should fail with an empty keyring")
	}
}
