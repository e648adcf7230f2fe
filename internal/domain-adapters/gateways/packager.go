package gateways

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ArchiveExt names packaged audit directories
const ArchiveExt = ".tar.gz"

// Packager bundles an audit output directory into a distributable archive
type Packager struct {
	checksums *checksumVerifier
}

// NewPackager creates a new packager
func NewPackager() *Packager {
	return &Packager{checksums: NewChecksumVerifier()}
}

// PackageReport writes every regular file of dir into a gzipped tarball
// rooted at dir's base name and returns the archive path. An empty
// archivePath defaults to dir+".tar.gz". A .sha256 sidecar is written next
// to the archive.
func (p *Packager) PackageReport(ctx context.Context, dir, archivePath string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("failed to stat report directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", dir)
	}

	if archivePath == "" {
		archivePath = filepath.Clean(dir) + ArchiveExt
	}
	absDir, _ := filepath.Abs(dir)
	absArchive, _ := filepath.Abs(archivePath)
	if rel, err := filepath.Rel(absDir, absArchive); err == nil && !strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("archive %s must be written outside %s", archivePath, dir)
	}

	if err := p.createTarball(ctx, dir, archivePath); err != nil {
		return "", fmt.Errorf("failed to create tarball: %w", err)
	}
	if _, err := p.checksums.WriteChecksumFile(archivePath); err != nil {
		return "", err
	}
	return archivePath, nil
}

// createTarball walks sourceDir in lexical order; entries are named
// <base>/<relative path>
func (p *Packager) createTarball(ctx context.Context, sourceDir, tarballPath string) error {
	if err := os.MkdirAll(filepath.Dir(tarballPath), 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	//nolint:gosec // G304: tarballPath is constructed for package output
	file, err := os.OpenFile(tarballPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create tarball file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	tarWriter := tar.NewWriter(gzipWriter)
	root := filepath.Base(filepath.Clean(sourceDir))

	err = filepath.Walk(sourceDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		relPath, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path: %w", err)
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return fmt.Errorf("failed to create tar header: %w", err)
		}
		header.Name = filepath.ToSlash(filepath.Join(root, relPath))

		if err := tarWriter.WriteHeader(header); err != nil {
			return fmt.Errorf("failed to write tar header: %w", err)
		}
		return copyInto(tarWriter, path)
	})
	if err != nil {
		return err
	}

	if err := tarWriter.Close(); err != nil {
		return fmt.Errorf("failed to finish tar stream: %w", err)
	}
	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to finish gzip stream: %w", err)
	}
	return file.Close()
}

func copyInto(w io.Writer, path string) error {
	//nolint:gosec // G304: File path from filepath.Walk for packaging
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer file.Close()

	if _, err := io.Copy(w, file); err != nil {
		return fmt.Errorf("failed to write file to tar: %w", err)
	}
	return nil
}
