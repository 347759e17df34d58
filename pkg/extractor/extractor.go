// Package extractor isolates the main content of an HTML page and produces
// cleaned text, serialized tables, and image references.
package extractor

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/markusmobius/go-trafilatura"
	"go.uber.org/zap"

	"github.com/mwexler/corpusmith/internal/models"
)

// minContentChars is the threshold below which an isolation candidate is
// considered boilerplate rather than content.
const minContentChars = 100

// minUsableChars is the floor under which the whole cascade is considered to
// have failed and the readability backstop runs.
const minUsableChars = 10

// removeSelectors matches boilerplate stripped before isolation, whichever
// cascade branch ends up matching.
var removeSelectors = []string{
	"script", "style", "nav", "header", "footer", "aside", "noscript",
	".sidebar", ".navigation", ".menu", ".advertisement", ".ads",
	".social-share", ".comments",
	"[role='navigation']", "[role='banner']", "[role='complementary']",
	"[role='contentinfo']",
	".cookie-banner", ".cookie-popup", ".modal", ".popup", ".overlay",
	".skip-link", ".breadcrumb",
	".navbar", ".nav-bar", ".topbar", ".header-bar", ".footer-bar",
	".site-header", ".site-footer", ".main-nav", ".primary-nav",
	".secondary-nav",
}

// contentSelectors lists class and id names that commonly wrap the main
// content, tried in order by the third cascade strategy.
var contentSelectors = []string{
	".content", ".main-content", ".post-content", ".article-content",
	".entry-content", ".page-content", ".body-content", ".main-body",
	".container", ".wrapper",
	"[data-testid*='content']", "[data-testid*='article']",
	"[data-testid*='main']",
}

// strategy is one independent step of the content-isolation cascade. Each
// locates a candidate region or returns nil; the first non-nil wins.
type strategy struct {
	name   string
	locate func(doc *goquery.Document) *goquery.Selection
}

// strategies run in order against the boilerplate-stripped document.
var strategies = []strategy{
	{name: "semantic", locate: locateSemantic},
	{name: "role", locate: locateRole},
	{name: "class", locate: locateByClass},
	{name: "largest", locate: locateLargestContainer},
}

// Extractor turns raw HTML into ExtractedContent.
type Extractor struct {
	logger *zap.Logger
}

// New builds an Extractor.
func New(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Extract isolates the main content of rawHTML and returns cleaned text,
// table blocks, and image URLs. It degrades rather than fails: malformed
// input yields best-effort fields and the returned content is always usable.
func (e *Extractor) Extract(rawHTML []byte, pageURL string) (*models.ExtractedContent, error) {
	content := &models.ExtractedContent{Title: pageURL}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(rawHTML))
	if err != nil {
		return content, fmt.Errorf("parse html of %s: %w", pageURL, err)
	}

	content.Title = extractTitle(doc, pageURL)
	content.Images = extractImages(doc, pageURL)

	// Boilerplate goes first so every strategy sees the same stripped tree.
	for _, sel := range removeSelectors {
		doc.Find(sel).Remove()
	}

	region := e.isolate(doc, pageURL)
	content.ItemBlocks = countItemBlocks(region)

	// Serialize tables before prose extraction, then drop them from the
	// tree so their cells are not flattened into the body a second time.
	region.Find("table").Each(func(_ int, table *goquery.Selection) {
		if block := serializeTable(table); block != "" {
			content.TableText = append(content.TableText, block)
		}
		table.Remove()
	})

	prose := cleanText(selectionText(region))
	if len(prose) < minUsableChars {
		if fallback := e.readabilityFallback(rawHTML, pageURL); len(fallback) > len(prose) {
			prose = fallback
		}
	}

	content.BodyText = prose
	for _, block := range content.TableText {
		if content.BodyText == "" {
			content.BodyText = block
			continue
		}
		content.BodyText += "\n\n" + block
	}

	return content, nil
}

// isolate runs the cascade and falls back to body, then the whole document.
func (e *Extractor) isolate(doc *goquery.Document, pageURL string) *goquery.Selection {
	for _, s := range strategies {
		if region := s.locate(doc); region != nil {
			e.logger.Debug("content region isolated",
				zap.String("url", pageURL), zap.String("strategy", s.name))
			return region
		}
	}
	if body := doc.Find("body").First(); body.Length() > 0 {
		return body
	}
	return doc.Selection
}

func locateSemantic(doc *goquery.Document) *goquery.Selection {
	for _, tag := range []string{"main", "article"} {
		if sel := doc.Find(tag).First(); sel.Length() > 0 {
			return sel
		}
	}
	return nil
}

func locateRole(doc *goquery.Document) *goquery.Selection {
	for _, selector := range []string{"[role='main']", "[role='article']"} {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			return sel
		}
	}
	return nil
}

func locateByClass(doc *goquery.Document) *goquery.Selection {
	for _, selector := range contentSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if textLength(sel) > minContentChars {
			return sel
		}
	}
	return nil
}

// locateLargestContainer picks the div or section holding the most visible
// text, tolerating flexbox and grid layouts that carry no semantic markup.
// It also guarantees listing pages keep every repeated item block, since the
// container around all of them always outweighs any single item.
func locateLargestContainer(doc *goquery.Document) *goquery.Selection {
	body := doc.Find("body").First()
	if body.Length() == 0 {
		return nil
	}

	var largest *goquery.Selection
	largestLen := 0
	body.Find("div, section").Each(func(_ int, sel *goquery.Selection) {
		if looksLikeChrome(sel) {
			return
		}
		if n := textLength(sel); n > largestLen {
			largest = sel
			largestLen = n
		}
	})

	if largest == nil || largestLen <= minContentChars {
		return nil
	}
	return largest
}

// looksLikeChrome flags containers whose class, id, or role suggests page
// furniture rather than content.
func looksLikeChrome(sel *goquery.Selection) bool {
	switch sel.AttrOr("role", "") {
	case "navigation", "banner", "complementary", "contentinfo":
		return true
	}
	marker := strings.ToLower(sel.AttrOr("class", "") + " " + sel.AttrOr("id", ""))
	for _, kw := range []string{"nav", "header", "footer", "sidebar", "menu", "bar"} {
		if strings.Contains(marker, kw) {
			return true
		}
	}
	return false
}

func textLength(sel *goquery.Selection) int {
	return len(strings.TrimSpace(sel.Text()))
}

// extractTitle tries, in order: <title>, the first <h1>, og:title,
// twitter:title, any data-title attribute, and finally the page URL.
func extractTitle(doc *goquery.Document, pageURL string) string {
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	if t := strings.TrimSpace(doc.Find("h1").First().Text()); t != "" {
		return t
	}
	if t, ok := doc.Find("meta[property='og:title']").First().Attr("content"); ok && strings.TrimSpace(t) != "" {
		return strings.TrimSpace(t)
	}
	if t, ok := doc.Find("meta[name='twitter:title']").First().Attr("content"); ok && strings.TrimSpace(t) != "" {
		return strings.TrimSpace(t)
	}
	if t, ok := doc.Find("[data-title]").First().Attr("data-title"); ok && strings.TrimSpace(t) != "" {
		return strings.TrimSpace(t)
	}
	return pageURL
}

// countItemBlocks returns the largest number of sibling elements sharing a
// class inside the region. Repeated cards of the same class are the shape of
// a listing page.
func countItemBlocks(region *goquery.Selection) int {
	max := 0
	countChildren := func(parent *goquery.Selection) {
		counts := make(map[string]int)
		parent.Children().Each(func(_ int, child *goquery.Selection) {
			class := strings.TrimSpace(child.AttrOr("class", ""))
			if class == "" {
				return
			}
			counts[class]++
			if counts[class] > max {
				max = counts[class]
			}
		})
	}
	countChildren(region)
	region.Find("*").Each(func(_ int, parent *goquery.Selection) {
		countChildren(parent)
	})
	return max
}

// readabilityFallback runs trafilatura when the cascade produced nothing
// usable, typically on pages whose markup defeats all four strategies.
func (e *Extractor) readabilityFallback(rawHTML []byte, pageURL string) string {
	opts := trafilatura.Options{}
	if u, err := url.Parse(pageURL); err == nil {
		opts.OriginalURL = u
	}
	result, err := trafilatura.Extract(bytes.NewReader(rawHTML), opts)
	if err != nil || result == nil {
		e.logger.Debug("readability fallback produced nothing",
			zap.String("url", pageURL), zap.Error(err))
		return ""
	}
	return cleanText(result.ContentText)
}
