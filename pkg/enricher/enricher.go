// Package enricher classifies pages and derives metadata for AI workflows:
// content type, language, keywords, and reading statistics.
package enricher

import (
	"math"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/RadhiFadlillah/whatlanggo"
	"go.uber.org/zap"

	"github.com/mwexler/corpusmith/internal/models"
)

// wordsPerMinute is the average reading speed used for reading time.
const wordsPerMinute = 200

// minDetectableChars is the floor below which language detection is not
// attempted.
const minDetectableChars = 10

// listingThreshold is how many repeated sibling item blocks make a page a
// listing.
const listingThreshold = 4

var (
	pricePattern     = regexp.MustCompile(`[$£€]\s*\d+(?:[.,]\d{2})?`)
	addToCartPattern = regexp.MustCompile(`(?i)add to (cart|basket|bag)`)

	codeIndicators = []*regexp.Regexp{
		regexp.MustCompile(`(?i)def\s+\w+\s*\(`),
		regexp.MustCompile(`(?i)function\s+\w+\s*\(`),
		regexp.MustCompile(`(?i)class\s+\w+`),
		regexp.MustCompile(`(?i)import\s+\w+`),
		regexp.MustCompile(`(?i)from\s+\w+\s+import`),
		regexp.MustCompile(`(?i)<\?php`),
		regexp.MustCompile(`(?i)console\.log`),
		regexp.MustCompile(`(?i)public\s+static`),
	}
)

// Enricher computes the derived fields of a Document. Stateless apart from
// its collaborators; safe for concurrent use.
type Enricher struct {
	keywords *KeywordExtractor
	logger   *zap.Logger
}

// New builds an Enricher.
func New(logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{
		keywords: NewKeywordExtractor(maxKeywords),
		logger:   logger,
	}
}

// Enrich combines extracted content with derived metadata into the final
// Document for one page.
func (e *Enricher) Enrich(content *models.ExtractedContent, pageURL string, fetchedAt time.Time) *models.Document {
	fullText := content.Title
	if content.BodyText != "" {
		fullText += " " + content.BodyText
	}

	wordCount := len(strings.Fields(fullText))
	readingTime := float64(wordCount) / wordsPerMinute

	return &models.Document{
		Title:              content.Title,
		URL:                pageURL,
		BodyText:           content.BodyText,
		Keywords:           e.keywords.Extract(content.Title, content.BodyText),
		WordCount:          wordCount,
		CharCount:          utf8.RuneCountInString(fullText),
		Language:           detectLanguage(fullText),
		ContentType:        classify(pageURL, content),
		FetchedAt:          fetchedAt.UTC().Format(time.RFC3339),
		ReadingTimeMinutes: math.Round(readingTime*100) / 100,
		HasCode:            hasCode(content.BodyText),
		Images:             content.Images,
	}
}

// detectLanguage runs statistical detection over the combined text and
// returns an ISO 639-1 code, or "unknown" when the text is too short or the
// detection is unreliable.
func detectLanguage(text string) string {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minDetectableChars {
		return "unknown"
	}
	info := whatlanggo.Detect(text)
	code := info.Lang.Iso6391()
	if code == "" || !info.IsReliable() {
		return "unknown"
	}
	return code
}

// classify applies deterministic rules in priority order: structural signals
// first (price or add-to-cart, root path, repeated item blocks), then URL
// path keywords, then a substance fallback.
func classify(pageURL string, content *models.ExtractedContent) string {
	path := ""
	if u, err := url.Parse(pageURL); err == nil {
		path = strings.ToLower(u.Path)
	}

	if pricePattern.MatchString(content.BodyText) || addToCartPattern.MatchString(content.BodyText) {
		return models.ContentTypeProduct
	}
	if path == "/" || path == "" {
		return models.ContentTypeHomepage
	}
	if content.ItemBlocks >= listingThreshold {
		return models.ContentTypeListing
	}

	switch {
	case containsAny(path, "/books/", "/book/", "/product/"):
		return models.ContentTypeProduct
	case containsAny(path, "/docs/", "/documentation/", "/guide/"):
		return models.ContentTypeDoc
	case containsAny(path, "/blog/", "/article/", "/post/", "/news/"):
		return models.ContentTypeArticle
	case containsAny(path, "/category/", "/tag/", "/archive/"):
		return models.ContentTypeListing
	}

	if len(strings.Fields(content.BodyText)) > 100 {
		return models.ContentTypeArticle
	}
	return models.ContentTypeOther
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// hasCode guesses whether the body embeds source code.
func hasCode(text string) bool {
	if text == "" {
		return false
	}
	for _, pat := range codeIndicators {
		if pat.MatchString(text) {
			return true
		}
	}
	return false
}
