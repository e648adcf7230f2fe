package gateways

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ChecksumExt is appended to an artifact path to name its checksum sidecar
const ChecksumExt = ".sha256"

// checksumVerifier writes and verifies SHA256 sidecars for report artifacts
type checksumVerifier struct{}

// NewChecksumVerifier creates a new checksum verifier
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewChecksumVerifier() *checksumVerifier {
	return &checksumVerifier{}
}

// VerifyChecksum verifies a file's SHA256 checksum
func (v *checksumVerifier) VerifyChecksum(_ context.Context, filePath, expectedSum string) error {
	actualSum, err := v.CalculateChecksum(filePath)
	if err != nil {
		return err
	}

	if !strings.EqualFold(actualSum, expectedSum) {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expectedSum, actualSum)
	}

	return nil
}

// CalculateChecksum calculates the SHA256 checksum of a file
func (v *checksumVerifier) CalculateChecksum(filePath string) (string, error) {
	//nolint:gosec // G304: File path is an artifact the audit wrote or the user named
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// WriteChecksumFile writes "<hash>  <basename>" to filePath.sha256 and
// returns the sidecar path
func (v *checksumVerifier) WriteChecksumFile(filePath string) (string, error) {
	hash, err := v.CalculateChecksum(filePath)
	if err != nil {
		return "", err
	}

	checksumPath := filePath + ChecksumExt
	content := fmt.Sprintf("%s  %s\n", hash, filepath.Base(filePath))
	if err := os.WriteFile(checksumPath, []byte(content), 0600); err != nil {
		return "", fmt.Errorf("failed to write checksum file: %w", err)
	}

	return checksumPath, nil
}

// VerifyChecksumFile checks filePath against its .sha256 sidecar
func (v *checksumVerifier) VerifyChecksumFile(ctx context.Context, filePath string) error {
	//nolint:gosec // G304: Sidecar path is derived from the artifact path
	data, err := os.ReadFile(filePath + ChecksumExt)
	if err != nil {
		return fmt.Errorf("failed to read checksum file: %w", err)
	}

	fields := strings.Fields(string(data))
	if len(fields) == 0 || len(fields[0]) != sha256.Size*2 {
		return fmt.Errorf("malformed checksum file %s", filePath+ChecksumExt)
	}
	if len(fields) > 1 && strings.TrimPrefix(fields[1], "*") != filepath.Base(filePath) {
		return fmt.Errorf("checksum file names %s, not %s", fields[1], filepath.Base(filePath))
	}

	return v.VerifyChecksum(ctx, filePath, fields[0])
}
