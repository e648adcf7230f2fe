package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ochairo/uxaudit/internal/domain-adapters/gateways"
	"github.com/ochairo/uxaudit/internal/external-adapters/gpg"
)

type verifyFlags struct {
	keyFile string
	keyURL  string
}

func (a *app) verifyCmd() *cobra.Command {
	var flags verifyFlags

	cmd := &cobra.Command{
		Use:   "verify <file|audit-dir>",
		Short: "Verify checksums and signatures of report artifacts",
		Long: `Verify the .sha256 checksum of a report artifact, or of every artifact in
an audit output directory. When a public key is given, detached .asc
signatures are verified too.`,
		Example: `  # Verify checksums of a whole audit
  uxaudit verify reports/pineridge

  # Verify checksum and signature of one file
  uxaudit verify reports/pineridge/report.json --key auditors.asc`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeVerify(cmd.Context(), cmd.OutOrStdout(), args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.keyFile, "key", "", "Armored OpenPGP public key")
	cmd.Flags().StringVar(&flags.keyURL, "key-url", "", "URL of armored OpenPGP public keys")
	return cmd
}

func executeVerify(ctx context.Context, out io.Writer, target string, flags verifyFlags) error {
	files, err := verifyTargets(target)
	if err != nil {
		return err
	}

	checkSignatures := flags.keyFile != "" || flags.keyURL != ""
	verifier := gateways.NewGPGVerifier()
	if checkSignatures {
		if err := importKeys(ctx, verifier, flags.keyFile, flags.keyURL); err != nil {
			return err
		}
	}
	checksums := gateways.NewChecksumVerifier()

	verified, failed := 0, 0
	record := func(label string, err error) {
		if err != nil {
			fmt.Fprintf(out, "  %s %s: %v\n", errorStyle.Render("✗"), label, err)
			failed++
			return
		}
		fmt.Fprintf(out, "  %s %s\n", okStyle.Render("✓"), label)
		verified++
	}

	for _, file := range files {
		fmt.Fprintln(out, titleStyle.Render(filepath.Base(file)))
		record("checksum", checksums.VerifyChecksumFile(ctx, file))

		if !checkSignatures {
			continue
		}
		if _, err := os.Stat(file + gpg.SignatureExt); err != nil {
			fmt.Fprintf(out, "  %s signature: not found\n", warnStyle.Render("-"))
			continue
		}
		record("signature", verifier.VerifyArtifact(file))
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, row("Verified", okStyle.Render(fmt.Sprintf("%d checks", verified))))
	if failed > 0 {
		fmt.Fprintln(out, row("Failed", errorStyle.Render(fmt.Sprintf("%d checks", failed))))
		return fmt.Errorf("%d verification checks failed", failed)
	}
	return nil
}

// verifyTargets expands an audit directory into its artifacts
func verifyTargets(target string) ([]string, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", target, err)
	}
	if !info.IsDir() {
		return []string{target}, nil
	}

	files, err := gateways.NewArtifactFinder().FindArtifacts(target)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no report artifacts found in %s", target)
	}
	return files, nil
}

// signatureVerifier is the part of the GPG verifier the CLI needs
type signatureVerifier interface {
	ImportGPGKeysFromURL(ctx context.Context, keysURL string) error
	ImportGPGKeyFromFile(keyPath string) error
	VerifyFile(filePath, sigPath string) error
	GetKeyringSize() int
}

func importKeys(ctx context.Context, verifier signatureVerifier, keyFile, keyURL string) error {
	if keyFile != "" {
		if err := verifier.ImportGPGKeyFromFile(keyFile); err != nil {
			return fmt.Errorf("failed to import public key: %w", err)
		}
	}
	if keyURL != "" {
		if err := verifier.ImportGPGKeysFromURL(ctx, keyURL); err != nil {
			return fmt.Errorf("failed to import public keys from URL: %w", err)
		}
	}
	if verifier.GetKeyringSize() == 0 {
		return fmt.Errorf("no public keys imported for verification (use --key or --key-url)")
	}
	return nil
}

// verifySignature checks filePath against a detached signature
func verifySignature(ctx context.Context, filePath, sigPath, keyFile, keyURL string) error {
	verifier := gateways.NewGPGVerifier()
	if err := importKeys(ctx, verifier, keyFile, keyURL); err != nil {
		return err
	}
	return verifier.VerifyFile(filePath, sigPath)
}
