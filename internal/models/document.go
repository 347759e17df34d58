package models

import "time"

// Valid content type classifications.
const (
	ContentTypeProduct  = "product_page"
	ContentTypeDoc      = "doc_page"
	ContentTypeArticle  = "article"
	ContentTypeHomepage = "homepage"
	ContentTypeListing  = "listing_page"
	ContentTypeOther    = "other"
)

// Document is the final enriched record for one page, written as one line of
// the JSONL output. Immutable once written.
type Document struct {
	Title              string   `json:"title"`
	URL                string   `json:"url"`
	BodyText           string   `json:"body_text"`
	Keywords           []string `json:"keywords"`
	WordCount          int      `json:"word_count"`
	CharCount          int      `json:"char_count"`
	Language           string   `json:"language"`
	ContentType        string   `json:"content_type"`
	FetchedAt          string   `json:"fetched_at"`
	ReadingTimeMinutes float64  `json:"reading_time_minutes"`
	HasCode            bool     `json:"has_code"`
	Images             []string `json:"images"`
}

// FetchResult is the transient outcome of one HTTP retrieval.
type FetchResult struct {
	URL        string
	StatusCode int
	Body       []byte
	FetchedAt  time.Time
}

// ExtractedContent holds what the extractor pulled out of one page's HTML.
// Consumed by the enricher and discarded.
type ExtractedContent struct {
	Title     string
	BodyText  string
	TableText []string
	Images    []string

	// ItemBlocks is the largest count of sibling elements sharing a CSS
	// class inside the isolated content region. A high count signals a
	// listing page made of repeated item cards.
	ItemBlocks int
}

// Target is one URL selected during discovery, with the depth it was found at.
type Target struct {
	URL   string
	Depth int
}
