package enricher

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// maxKeywords caps the keyword list per document.
const maxKeywords = 10

const (
	minPhraseWords = 2
	maxPhraseWords = 3
)

// phraseBoundary splits text into fragments at sentence punctuation; stop
// words split fragments further into candidate phrases.
var phraseBoundary = regexp.MustCompile(`[.!?,;:()\[\]{}"“”'\n\r\t|/\\]+`)

var keywordChars = regexp.MustCompile(`[^\w\s-]`)

// stopWords is the boundary vocabulary for candidate phrase generation.
var stopWords = map[string]bool{
	"a": true, "about": true, "above": true, "after": true, "again": true,
	"against": true, "all": true, "am": true, "an": true, "and": true,
	"any": true, "are": true, "as": true, "at": true, "be": true,
	"because": true, "been": true, "before": true, "being": true,
	"below": true, "between": true, "both": true, "but": true, "by": true,
	"can": true, "cannot": true, "could": true, "did": true, "do": true,
	"does": true, "doing": true, "down": true, "during": true, "each": true,
	"few": true, "for": true, "from": true, "further": true, "had": true,
	"has": true, "have": true, "having": true, "he": true, "her": true,
	"here": true, "hers": true, "him": true, "his": true, "how": true,
	"i": true, "if": true, "in": true, "into": true, "is": true, "it": true,
	"its": true, "itself": true, "just": true, "me": true, "more": true,
	"most": true, "must": true, "my": true, "no": true, "nor": true,
	"not": true, "now": true, "of": true, "off": true, "on": true,
	"once": true, "only": true, "or": true, "other": true, "our": true,
	"ours": true, "out": true, "over": true, "own": true, "same": true,
	"she": true, "should": true, "so": true, "some": true, "such": true,
	"than": true, "that": true, "the": true, "their": true, "theirs": true,
	"them": true, "then": true, "there": true, "these": true, "they": true,
	"this": true, "those": true, "through": true, "to": true, "too": true,
	"under": true, "until": true, "up": true, "very": true, "was": true,
	"we": true, "were": true, "what": true, "when": true, "where": true,
	"which": true, "while": true, "who": true, "whom": true, "why": true,
	"will": true, "with": true, "would": true, "you": true, "your": true,
	"yours": true,
}

// KeywordExtractor implements RAKE: candidate phrases are split out at stop
// word and punctuation boundaries, each word is scored degree/frequency over
// the phrase co-occurrence graph, and a phrase scores the sum of its words.
type KeywordExtractor struct {
	max int
}

// NewKeywordExtractor builds an extractor returning up to max phrases.
func NewKeywordExtractor(max int) *KeywordExtractor {
	if max <= 0 {
		max = maxKeywords
	}
	return &KeywordExtractor{max: max}
}

type scoredPhrase struct {
	text  string
	score float64
}

// Extract returns up to max distinct keyword phrases from title and body,
// ranked by descending RAKE score.
func (k *KeywordExtractor) Extract(title, body string) []string {
	text := strings.TrimSpace(title + " " + body)
	if len(text) < 10 {
		return nil
	}

	phrases := candidatePhrases(text)
	if len(phrases) == 0 {
		return nil
	}

	freq := make(map[string]int)
	degree := make(map[string]int)
	for _, phrase := range phrases {
		for _, w := range phrase {
			freq[w]++
			degree[w] += len(phrase)
		}
	}

	wordScore := make(map[string]float64, len(freq))
	for w, f := range freq {
		wordScore[w] = float64(degree[w]) / float64(f)
	}

	seen := make(map[string]bool)
	scored := make([]scoredPhrase, 0, len(phrases))
	for _, phrase := range phrases {
		joined := strings.Join(phrase, " ")
		if seen[joined] {
			continue
		}
		seen[joined] = true
		score := 0.0
		for _, w := range phrase {
			score += wordScore[w]
		}
		scored = append(scored, scoredPhrase{text: joined, score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	var keywords []string
	picked := make(map[string]bool)
	for _, p := range scored {
		cleaned := cleanKeyword(p.text)
		if len(cleaned) <= 2 || picked[cleaned] {
			continue
		}
		picked[cleaned] = true
		keywords = append(keywords, cleaned)
		if len(keywords) == k.max {
			break
		}
	}
	return keywords
}

// candidatePhrases splits the text at punctuation, then at stop words, and
// keeps runs of 2-3 content words.
func candidatePhrases(text string) [][]string {
	var phrases [][]string
	for _, fragment := range phraseBoundary.Split(strings.ToLower(text), -1) {
		var run []string
		flush := func() {
			if len(run) >= minPhraseWords && len(run) <= maxPhraseWords {
				phrase := make([]string, len(run))
				copy(phrase, run)
				phrases = append(phrases, phrase)
			}
			run = nil
		}
		for _, token := range strings.Fields(fragment) {
			word := strings.Trim(token, "-–—_")
			if word == "" || stopWords[word] || !hasLetter(word) {
				flush()
				continue
			}
			run = append(run, word)
		}
		flush()
	}
	return phrases
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// cleanKeyword normalizes a ranked phrase: word characters and hyphens only,
// lowercase, words of one or two characters dropped.
func cleanKeyword(phrase string) string {
	phrase = keywordChars.ReplaceAllString(strings.ToLower(phrase), "")
	var kept []string
	for _, w := range strings.Fields(phrase) {
		if len(w) > 2 {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}
