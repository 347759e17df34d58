// Package reporter summarizes a finished corpus file for quick inspection
// before the data is handed to a downstream consumer.
package reporter

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mwexler/corpusmith/internal/models"
)

// Stats aggregates one pass over a JSONL corpus.
type Stats struct {
	File           string         `json:"file"`
	Documents      int            `json:"documents"`
	SkippedLines   int            `json:"skipped_lines,omitempty"`
	ContentTypes   map[string]int `json:"content_types"`
	Languages      map[string]int `json:"languages"`
	TotalWords     int            `json:"total_words"`
	AverageWords   float64        `json:"average_words"`
	MinWords       int            `json:"min_words"`
	MaxWords       int            `json:"max_words"`
	WithCode       int            `json:"documents_with_code"`
	TopKeywords    []KeywordCount `json:"top_keywords"`
	TotalReadHours float64        `json:"total_reading_hours"`
}

// KeywordCount pairs a keyword with how many documents carry it.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// Reporter handles corpus report generation in various formats
type Reporter struct {
	topKeywords int
}

// New creates a new Reporter instance
func New() *Reporter {
	return &Reporter{topKeywords: 15}
}

// GenerateReport summarizes the corpus at path in the specified format.
func (r *Reporter) GenerateReport(path string, format string) (string, error) {
	stats, err := r.Collect(path)
	if err != nil {
		return "", fmt.Errorf("failed to load corpus: %w", err)
	}

	switch format {
	case "json":
		return r.generateJSON(stats)
	case "text":
		return r.generateText(stats), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// Collect reads the corpus once and aggregates document statistics. Lines
// that fail to parse are counted and skipped.
func (r *Reporter) Collect(path string) (*Stats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus %s: %w", path, err)
	}
	defer file.Close()

	stats := &Stats{
		File:         path,
		ContentTypes: make(map[string]int),
		Languages:    make(map[string]int),
	}
	keywordCounts := make(map[string]int)
	totalMinutes := 0.0

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var doc models.Document
		if err := json.Unmarshal([]byte(line), &doc); err != nil {
			stats.SkippedLines++
			continue
		}

		stats.Documents++
		stats.ContentTypes[orUnknown(doc.ContentType)]++
		stats.Languages[orUnknown(doc.Language)]++
		stats.TotalWords += doc.WordCount
		totalMinutes += doc.ReadingTimeMinutes
		if doc.HasCode {
			stats.WithCode++
		}
		if stats.Documents == 1 || doc.WordCount < stats.MinWords {
			stats.MinWords = doc.WordCount
		}
		if doc.WordCount > stats.MaxWords {
			stats.MaxWords = doc.WordCount
		}
		for _, kw := range doc.Keywords {
			keywordCounts[kw]++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan corpus %s: %w", path, err)
	}

	if stats.Documents > 0 {
		stats.AverageWords = float64(stats.TotalWords) / float64(stats.Documents)
	}
	stats.TotalReadHours = totalMinutes / 60
	stats.TopKeywords = rankKeywords(keywordCounts, r.topKeywords)
	return stats, nil
}

// generateJSON creates a JSON formatted report
func (r *Reporter) generateJSON(stats *Stats) (string, error) {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	return string(data), nil
}

// generateText creates a plain-text report for the terminal.
func (r *Reporter) generateText(stats *Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Corpus: %s\n", stats.File)
	fmt.Fprintf(&b, "Documents: %d", stats.Documents)
	if stats.SkippedLines > 0 {
		fmt.Fprintf(&b, " (%d unparseable lines skipped)", stats.SkippedLines)
	}
	b.WriteString("\n\n")

	if stats.Documents == 0 {
		b.WriteString("No documents found.\n")
		return b.String()
	}

	b.WriteString("Content types:\n")
	for _, kv := range sortedCounts(stats.ContentTypes) {
		fmt.Fprintf(&b, "  %-16s %d\n", kv.Keyword, kv.Count)
	}

	b.WriteString("\nLanguages:\n")
	for _, kv := range sortedCounts(stats.Languages) {
		fmt.Fprintf(&b, "  %-16s %d\n", kv.Keyword, kv.Count)
	}

	fmt.Fprintf(&b, "\nWords: total %d, avg %.1f, min %d, max %d\n",
		stats.TotalWords, stats.AverageWords, stats.MinWords, stats.MaxWords)
	fmt.Fprintf(&b, "Documents with code: %d\n", stats.WithCode)
	fmt.Fprintf(&b, "Estimated reading time: %.1f hours\n", stats.TotalReadHours)

	if len(stats.TopKeywords) > 0 {
		b.WriteString("\nTop keywords:\n")
		for _, kv := range stats.TopKeywords {
			fmt.Fprintf(&b, "  %-24s %d\n", kv.Keyword, kv.Count)
		}
	}
	return b.String()
}

func rankKeywords(counts map[string]int, limit int) []KeywordCount {
	ranked := sortedCounts(counts)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// sortedCounts orders by count descending, then alphabetically so equal
// counts print deterministically.
func sortedCounts(counts map[string]int) []KeywordCount {
	out := make([]KeywordCount, 0, len(counts))
	for k, v := range counts {
		out = append(out, KeywordCount{Keyword: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Keyword < out[j].Keyword
	})
	return out
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
