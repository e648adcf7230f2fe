package gateways

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ochairo/uxaudit/internal/domain/entities"
	htmlextract "github.com/ochairo/uxaudit/internal/external-adapters/html"
)

// CollectionLoader reads collector output, or builds an equivalent
// collection from a saved HTML page
type CollectionLoader struct {
	extractor *htmlextract.Extractor
	now       func() time.Time
}

// NewCollectionLoader creates a loader
func NewCollectionLoader() *CollectionLoader {
	return &CollectionLoader{
		extractor: htmlextract.NewExtractor(),
		now:       time.Now,
	}
}

// WithMaxTextChars caps visible text for HTML extraction
func (l *CollectionLoader) WithMaxTextChars(n int) *CollectionLoader {
	l.extractor.WithMaxTextChars(n)
	return l
}

// LoadFile reads a collection.json file. Relative screenshot paths are
// resolved against the file's directory.
func (l *CollectionLoader) LoadFile(path string) (*entities.CollectionResult, error) {
	//nolint:gosec // G304: Collection path is provided by the user
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	result, err := l.Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	base := filepath.Dir(path)
	for i := range result.Screenshots {
		p := result.Screenshots[i].Path
		if p != "" && !filepath.IsAbs(p) {
			result.Screenshots[i].Path = filepath.Join(base, p)
		}
	}
	return result, nil
}

// Load decodes a collection and fills missing sections with empty values
func (l *CollectionLoader) Load(r io.Reader) (*entities.CollectionResult, error) {
	var result entities.CollectionResult
	if err := json.NewDecoder(r).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode collection: %w", err)
	}
	if result.URL == "" {
		result.URL = result.DOM.URL
	}
	if result.URL == "" {
		return nil, fmt.Errorf("collection has no url")
	}
	result.Normalize()
	return &result, nil
}

// LoadHTML builds a collection from a saved page. Lighthouse and axe-core
// sections stay empty.
func (l *CollectionLoader) LoadHTML(htmlPath, pageURL string, screenshots []string) (*entities.CollectionResult, error) {
	if pageURL == "" {
		return nil, fmt.Errorf("a page URL is required for HTML extraction")
	}

	dom, err := l.extractor.ExtractFile(htmlPath, pageURL)
	if err != nil {
		return nil, err
	}

	result := &entities.CollectionResult{
		URL:         pageURL,
		DOM:         dom,
		CollectedAt: l.now().UTC(),
	}
	for _, p := range screenshots {
		result.Screenshots = append(result.Screenshots, entities.Screenshot{Path: p})
	}
	result.Normalize()
	return result, nil
}
