// Package html builds a DOM extract from a saved HTML page so an audit can run
// without a live browser collection.
package html

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ochairo/uxaudit/internal/domain/entities"
	"golang.org/x/net/html"
)

// DefaultMaxTextChars caps the visible text kept from a page
const DefaultMaxTextChars = 50000

// skipped elements never contribute visible text
var skipped = map[string]bool{
	"head":     true,
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"svg":      true,
}

// Extractor parses HTML documents into entities.DOMExtract
type Extractor struct {
	maxTextChars int
}

// NewExtractor creates an extractor with the default text cap
func NewExtractor() *Extractor {
	return &Extractor{maxTextChars: DefaultMaxTextChars}
}

// WithMaxTextChars overrides the visible text cap; values <= 0 are ignored
func (e *Extractor) WithMaxTextChars(n int) *Extractor {
	if n > 0 {
		e.maxTextChars = n
	}
	return e
}

// ExtractFile reads and extracts a saved HTML file
func (e *Extractor) ExtractFile(path, pageURL string) (entities.DOMExtract, error) {
	f, err := os.Open(path) //nolint:gosec // G304: Path is provided by the user on the command line
	if err != nil {
		return entities.DOMExtract{}, fmt.Errorf("failed to open HTML file: %w", err)
	}
	defer f.Close() //nolint:errcheck // Defer close

	return e.Extract(f, pageURL)
}

// Extract parses r and projects it the same way the browser collector does.
// pageURL resolves relative links and decides which links are external.
func (e *Extractor) Extract(r io.Reader, pageURL string) (entities.DOMExtract, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return entities.DOMExtract{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	w := &walker{
		base:   parseBase(pageURL),
		labels: collectLabels(doc),
		dom: entities.DOMExtract{
			URL:        pageURL,
			Navigation: []entities.NavItem{},
			Headings:   []entities.Heading{},
			Images:     []entities.Image{},
			Forms:      []entities.Form{},
			Links:      []entities.Link{},
			Meta: entities.Meta{
				OGTags:    map[string]string{},
				SchemaOrg: []json.RawMessage{},
			},
		},
	}
	w.walk(doc, false)

	if body := findElement(doc, "body"); body != nil {
		w.dom.VisibleText = truncateRunes(visibleText(body), e.maxTextChars)
	}

	return w.dom, nil
}

type walker struct {
	base   *url.URL
	labels map[string]string
	dom    entities.DOMExtract
}

func (w *walker) walk(n *html.Node, inNav bool) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "nav", "header":
			inNav = true

		case "title":
			if w.dom.Meta.Title == "" {
				w.dom.Meta.Title = visibleText(n)
			}

		case "meta":
			w.meta(n)

		case "script":
			if strings.EqualFold(getAttr(n, "type"), "application/ld+json") {
				raw := []byte(strings.TrimSpace(textContent(n)))
				// malformed entries are skipped
				if json.Valid(raw) {
					w.dom.Meta.SchemaOrg = append(w.dom.Meta.SchemaOrg, json.RawMessage(raw))
				}
			}

		case "h1", "h2", "h3", "h4", "h5", "h6":
			w.dom.Headings = append(w.dom.Headings, entities.Heading{
				Level: int(n.Data[1] - '0'),
				Text:  visibleText(n),
			})

		case "img":
			w.dom.Images = append(w.dom.Images, entities.Image{
				Src:          w.resolve(getAttr(n, "src")),
				Alt:          getAttr(n, "alt"),
				Width:        atoi(getAttr(n, "width")),
				Height:       atoi(getAttr(n, "height")),
				IsLazyLoaded: strings.EqualFold(getAttr(n, "loading"), "lazy") || hasAttr(n, "data-src"),
			})

		case "form":
			w.dom.Forms = append(w.dom.Forms, w.form(n))

		case "a":
			if hasAttr(n, "href") {
				href := w.resolve(getAttr(n, "href"))
				text := visibleText(n)
				if inNav {
					w.dom.Navigation = append(w.dom.Navigation, entities.NavItem{Text: text, Href: href})
				}
				w.dom.Links = append(w.dom.Links, entities.Link{
					Href:       href,
					Text:       text,
					IsExternal: w.isExternal(href),
				})
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c, inNav)
	}
}

func (w *walker) meta(n *html.Node) {
	content := getAttr(n, "content")
	if strings.EqualFold(getAttr(n, "name"), "description") && w.dom.Meta.Description == "" {
		w.dom.Meta.Description = content
	}
	if property := getAttr(n, "property"); strings.HasPrefix(property, "og:") {
		w.dom.Meta.OGTags[property] = content
	}
}

func (w *walker) form(n *html.Node) entities.Form {
	method := strings.ToLower(getAttr(n, "method"))
	if method == "" {
		method = "get"
	}
	action := w.dom.URL
	if a := getAttr(n, "action"); a != "" {
		action = w.resolve(a)
	}

	form := entities.Form{Action: action, Method: method, Fields: []entities.FormField{}}
	var collect func(*html.Node, string)
	collect = func(c *html.Node, wrappingLabel string) {
		if c.Type == html.ElementNode {
			switch c.Data {
			case "label":
				wrappingLabel = visibleText(c)
			case "input", "select", "textarea":
				form.Fields = append(form.Fields, w.field(c, wrappingLabel))
			}
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			collect(child, wrappingLabel)
		}
	}
	collect(n, "")
	return form
}

func (w *walker) field(n *html.Node, wrappingLabel string) entities.FormField {
	fieldType := n.Data
	if n.Data == "input" {
		fieldType = strings.ToLower(getAttr(n, "type"))
		if fieldType == "" {
			fieldType = "text"
		}
	}

	label := wrappingLabel
	if id := getAttr(n, "id"); id != "" {
		if l, ok := w.labels[id]; ok {
			label = l
		}
	}

	return entities.FormField{
		Name:     getAttr(n, "name"),
		Type:     fieldType,
		Label:    label,
		Required: hasAttr(n, "required"),
	}
}

func (w *walker) resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if w.base == nil || ref == "" {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return w.base.ResolveReference(u).String()
}

func (w *walker) isExternal(href string) bool {
	u, err := url.Parse(href)
	if err != nil || u.Hostname() == "" {
		return false
	}
	if w.base == nil {
		return true
	}
	return !strings.EqualFold(u.Hostname(), w.base.Hostname())
}

func parseBase(pageURL string) *url.URL {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return nil
	}
	return u
}

// collectLabels maps label[for] targets to their text
func collectLabels(doc *html.Node) map[string]string {
	labels := make(map[string]string)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "label" {
			if target := getAttr(n, "for"); target != "" {
				if _, seen := labels[target]; !seen {
					labels[target] = visibleText(n)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return labels
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// visibleText joins the rendered text of n with whitespace collapsed
func visibleText(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && skipped[node.Data] {
			return
		}
		if node.Type == html.TextNode {
			if s := strings.TrimSpace(node.Data); s != "" {
				parts = append(parts, s)
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// textContent returns raw text including script bodies
func textContent(n *html.Node) string {
	var text strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			text.WriteString(c.Data)
		}
	}
	return text.String()
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(s, "px")))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return true
		}
	}
	return false
}
