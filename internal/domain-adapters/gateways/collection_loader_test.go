package gateways

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const collectionJSON = `{
  "url": "https://pineridge.example.com",
  "screenshots": [
    {"path": "shots/desktop.png", "viewport": "desktop", "width": 1440, "height": 900},
    {"path": "/abs/mobile.png", "viewport": "mobile"}
  ],
  "dom": {
    "url": "https://pineridge.example.com",
    "headings": [{"level": 1, "text": "Welcome"}],
    "visibleText": "Book your stay",
    "forms": [{"action": "/reserve", "method": "post"}],
    "meta": {"title": "Pine Ridge"}
  },
  "accessibility": {
    "violations": [{"id": "image-alt", "impact": "critical", "description": "Images must have alternate text"}]
  }
}`

func TestCollectionLoader_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "collection.json")
	if err := os.WriteFile(path, []byte(collectionJSON), 0600); err != nil {
		t.Fatal(err)
	}

	result, err := NewCollectionLoader().LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if result.URL != "https://pineridge.example.com" {
		t.Errorf("URL = %q", result.URL)
	}
	if got := result.Screenshots[0].Path; got != filepath.Join(dir, "shots", "desktop.png") {
		t.Errorf("relative screenshot path = %q, want resolved against collection dir", got)
	}
	if got := result.Screenshots[1].Path; got != "/abs/mobile.png" {
		t.Errorf("absolute screenshot path = %q, want unchanged", got)
	}

	// missing sections are normalized to empty collections
	if result.DOM.Navigation == nil || result.DOM.Images == nil || result.DOM.Links == nil {
		t.Error("missing DOM collections should be empty, not nil")
	}
	if result.DOM.Forms[0].Fields == nil {
		t.Error("form without fields should have an empty field list")
	}
	if result.Lighthouse.Opportunities == nil || result.Accessibility.Violations[0].Nodes == nil {
		t.Error("missing lighthouse/axe collections should be empty, not nil")
	}
}

func TestCollectionLoader_Load_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "not json", input: "<html>"},
		{name: "no url", input: `{"dom": {"visibleText": "x"}}`},
		{name: "wrong shape", input: `{"url": 5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCollectionLoader().Load(strings.NewReader(tt.input)); err == nil {
				t.Error("Load() should fail")
			}
		})
	}
}

func TestCollectionLoader_Load_URLFromDOM(t *testing.T) {
	result, err := NewCollectionLoader().Load(strings.NewReader(`{"dom": {"url": "https://a.example"}}`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if result.URL != "https://a.example" {
		t.Errorf("URL = %q, want DOM url fallback", result.URL)
	}
}

func TestCollectionLoader_LoadHTML(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "index.html")
	html := `<html><head><title>Pine Ridge</title></head><body><h1>Welcome</h1><p>` + strings.Repeat("word ", 100) + `</p></body></html>`
	if err := os.WriteFile(page, []byte(html), 0600); err != nil {
		t.Fatal(err)
	}

	loader := NewCollectionLoader().WithMaxTextChars(40)
	fixed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	loader.now = func() time.Time { return fixed }

	result, err := loader.LoadHTML(page, "https://pineridge.example.com", []string{"desktop.png"})
	if err != nil {
		t.Fatalf("LoadHTML() error = %v", err)
	}
	if result.URL != "https://pineridge.example.com" || !result.CollectedAt.Equal(fixed) {
		t.Errorf("URL/CollectedAt = %q/%v", result.URL, result.CollectedAt)
	}
	if result.DOM.Meta.Title != "Pine Ridge" || len(result.DOM.Headings) != 1 {
		t.Errorf("DOM = %+v", result.DOM)
	}
	if len([]rune(result.DOM.VisibleText)) != 40 {
		t.Errorf("VisibleText length = %d, want 40", len([]rune(result.DOM.VisibleText)))
	}
	if paths := result.ScreenshotPaths(); len(paths) != 1 || paths[0] != "desktop.png" {
		t.Errorf("ScreenshotPaths() = %v", paths)
	}
	if result.Accessibility.Violations == nil || result.Lighthouse.Diagnostics == nil {
		t.Error("HTML collection should carry empty lighthouse/axe sections")
	}

	if _, err := loader.LoadHTML(page, "", nil); err == nil {
		t.Error("LoadHTML() without a page URL should fail")
	}
}
