package gateways

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Report artifact file names written by an audit run
const (
	ReportJSONFile     = "report.json"
	ReportMarkdownFile = "report.md"
	ReportHTMLFile     = "report.html"
	CollectionFile     = "collection.json"
	ValidationFile     = "validation.json"
)

// artifactNames lists every primary artifact an audit directory can hold
var artifactNames = []string{ReportJSONFile, ReportMarkdownFile, ReportHTMLFile, CollectionFile, ValidationFile}

// ArtifactFinder provides utilities for locating report artifacts
type ArtifactFinder struct{}

// NewArtifactFinder creates a new artifact finder
func NewArtifactFinder() *ArtifactFinder {
	return &ArtifactFinder{}
}

// FindRecursive returns every directory under root holding a report.json
func (f *ArtifactFinder) FindRecursive(root string) ([]string, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, fmt.Errorf("artifacts directory does not exist: %s", root)
	}

	var dirs []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && info.Name() == ReportJSONFile {
			dirs = append(dirs, filepath.Dir(path))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(dirs)
	return dirs, nil
}

// FindArtifacts returns the primary artifacts present in one audit directory,
// excluding checksum and signature sidecars
func (f *ArtifactFinder) FindArtifacts(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat artifacts directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	var artifacts []string
	for _, name := range artifactNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			artifacts = append(artifacts, path)
		}
	}
	return artifacts, nil
}

// FindByGlob returns artifacts in dir whose base name matches pattern
func (f *ArtifactFinder) FindByGlob(dir, pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("failed to glob pattern %s: %w", pattern, err)
	}
	return matches, nil
}
