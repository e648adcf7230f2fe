package entities

import (
	"encoding/json"
	"time"
)

// CollectionResult is everything the collectors gathered for one URL.
// It is produced outside this module and treated as read-only.
type CollectionResult struct {
	URL           string              `json:"url"`
	Screenshots   []Screenshot        `json:"screenshots"`
	DOM           DOMExtract          `json:"dom"`
	Lighthouse    LighthouseResult    `json:"lighthouse"`
	Accessibility AccessibilityResult `json:"accessibility"`
	CollectedAt   time.Time           `json:"collectedAt"`
}

// Screenshot references one captured viewport image on disk
type Screenshot struct {
	Path     string `json:"path"`
	Viewport string `json:"viewport"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	FullPage bool   `json:"fullPage"`
}

// DOMExtract is the structured projection of the rendered page
type DOMExtract struct {
	URL         string    `json:"url"`
	Navigation  []NavItem `json:"navigation"`
	Headings    []Heading `json:"headings"`
	VisibleText string    `json:"visibleText"`
	Images      []Image   `json:"images"`
	Forms       []Form    `json:"forms"`
	Meta        Meta      `json:"meta"`
	Links       []Link    `json:"links"`
}

// NavItem is a navigation link found in nav or header elements
type NavItem struct {
	Text     string    `json:"text"`
	Href     string    `json:"href"`
	Children []NavItem `json:"children,omitempty"`
}

// Heading is one h1-h6 element in document order
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Image describes an img element
type Image struct {
	Src          string `json:"src"`
	Alt          string `json:"alt"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	IsLazyLoaded bool   `json:"isLazyLoaded"`
}

// Form describes a form element and its fields
type Form struct {
	Action string      `json:"action"`
	Method string      `json:"method"`
	Fields []FormField `json:"fields"`
}

// FormField is one input, select or textarea inside a form
type FormField struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Label    string `json:"label,omitempty"`
	Required bool   `json:"required"`
}

// Meta holds head metadata
type Meta struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	OGTags      map[string]string `json:"ogTags"`
	SchemaOrg   []json.RawMessage `json:"schemaOrg"`
}

// Link is an anchor with an href
type Link struct {
	Href       string `json:"href"`
	Text       string `json:"text"`
	IsExternal bool   `json:"isExternal"`
}

// LighthouseResult holds Lighthouse category scores and failing audits
type LighthouseResult struct {
	Scores        LighthouseScores  `json:"scores"`
	WebVitals     WebVitals         `json:"webVitals"`
	Diagnostics   []LighthouseAudit `json:"diagnostics"`
	Opportunities []LighthouseAudit `json:"opportunities"`
}

// LighthouseScores are category scores on a 0-100 scale
type LighthouseScores struct {
	Performance   float64 `json:"performance"`
	Accessibility float64 `json:"accessibility"`
	BestPractices float64 `json:"bestPractices"`
	SEO           float64 `json:"seo"`
}

// WebVitals are core web vital measurements; nil means not measured
type WebVitals struct {
	LCP  *float64 `json:"lcp"`
	FID  *float64 `json:"fid"`
	CLS  *float64 `json:"cls"`
	INP  *float64 `json:"inp"`
	FCP  *float64 `json:"fcp"`
	TTFB *float64 `json:"ttfb"`
}

// LighthouseAudit is one audit item; Score is nil for informative audits
type LighthouseAudit struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Score        *float64 `json:"score"`
	DisplayValue string   `json:"displayValue,omitempty"`
}

// AccessibilityResult holds axe-core scan results
type AccessibilityResult struct {
	Violations     []Violation `json:"violations"`
	Passes         int         `json:"passes"`
	Incomplete     int         `json:"incomplete"`
	Inapplicable   int         `json:"inapplicable"`
	ViolationCount int         `json:"violationCount"`
	CriticalCount  int         `json:"criticalCount"`
	SeriousCount   int         `json:"seriousCount"`
}

// Violation is one axe-core rule violation
type Violation struct {
	ID          string          `json:"id"`
	Impact      string          `json:"impact"` // minor, moderate, serious, critical
	Description string          `json:"description"`
	HelpURL     string          `json:"helpUrl"`
	WCAGTags    []string        `json:"wcagTags"`
	Nodes       []ViolationNode `json:"nodes"`
}

// ViolationNode is one offending element
type ViolationNode struct {
	HTML           string   `json:"html"`
	Target         []string `json:"target"`
	FailureSummary string   `json:"failureSummary"`
}

// Normalize replaces nil collections with empty ones so a failed
// sub-collector looks the same as one that found nothing.
func (c *CollectionResult) Normalize() {
	if c.Screenshots == nil {
		c.Screenshots = []Screenshot{}
	}
	d := &c.DOM
	if d.Navigation == nil {
		d.Navigation = []NavItem{}
	}
	if d.Headings == nil {
		d.Headings = []Heading{}
	}
	if d.Images == nil {
		d.Images = []Image{}
	}
	if d.Forms == nil {
		d.Forms = []Form{}
	}
	for i := range d.Forms {
		if d.Forms[i].Fields == nil {
			d.Forms[i].Fields = []FormField{}
		}
	}
	if d.Links == nil {
		d.Links = []Link{}
	}
	if d.Meta.OGTags == nil {
		d.Meta.OGTags = map[string]string{}
	}
	if d.Meta.SchemaOrg == nil {
		d.Meta.SchemaOrg = []json.RawMessage{}
	}
	if c.Lighthouse.Diagnostics == nil {
		c.Lighthouse.Diagnostics = []LighthouseAudit{}
	}
	if c.Lighthouse.Opportunities == nil {
		c.Lighthouse.Opportunities = []LighthouseAudit{}
	}
	if c.Accessibility.Violations == nil {
		c.Accessibility.Violations = []Violation{}
	}
	for i := range c.Accessibility.Violations {
		v := &c.Accessibility.Violations[i]
		if v.Nodes == nil {
			v.Nodes = []ViolationNode{}
		}
		if v.WCAGTags == nil {
			v.WCAGTags = []string{}
		}
	}
}

// ScreenshotPaths returns the file paths of every screenshot
func (c *CollectionResult) ScreenshotPaths() []string {
	paths := make([]string, 0, len(c.Screenshots))
	for _, s := range c.Screenshots {
		paths = append(paths, s.Path)
	}
	return paths
}
