package gateways

import (
	"context"
	"fmt"

	"github.com/ochairo/uxaudit/internal/external-adapters/gpg"
)

// gpgVerifier wraps the external GPG adapter to implement the domain
// SignatureVerifier used for report artifacts and ground-truth files
type gpgVerifier struct {
	verifier *gpg.Verifier
}

// NewGPGVerifier creates a new GPG verifier gateway
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewGPGVerifier() *gpgVerifier {
	return &gpgVerifier{
		verifier: gpg.NewVerifier(),
	}
}

// ImportGPGKeysFromURL imports all public keys from a published key file
func (g *gpgVerifier) ImportGPGKeysFromURL(ctx context.Context, keysURL string) error {
	if err := g.verifier.ImportKeysFromURL(ctx, keysURL); err != nil {
		return fmt.Errorf("failed to import GPG keys from URL: %w", err)
	}
	return nil
}

// ImportGPGKeyFromFile imports a GPG key from a local file
func (g *gpgVerifier) ImportGPGKeyFromFile(keyPath string) error {
	if err := g.verifier.ImportKeyFromFile(keyPath); err != nil {
		return fmt.Errorf("failed to import GPG key from file: %w", err)
	}
	return nil
}

// VerifyFile verifies a detached signature from a local file
func (g *gpgVerifier) VerifyFile(filePath, sigPath string) error {
	if err := g.verifier.VerifyFile(filePath, sigPath); err != nil {
		return fmt.Errorf("GPG signature verification failed: %w", err)
	}
	return nil
}

// VerifyArtifact verifies filePath against the signature written next to it
func (g *gpgVerifier) VerifyArtifact(filePath string) error {
	return g.VerifyFile(filePath, filePath+gpg.SignatureExt)
}

// GetKeyringSize returns the number of keys loaded
func (g *gpgVerifier) GetKeyringSize() int {
	return g.verifier.KeyringSize()
}
