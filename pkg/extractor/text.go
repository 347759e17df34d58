package extractor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	// Zero-width and directional-control characters, common in obfuscated
	// content and harmful to downstream models.
	invisibleRunes = regexp.MustCompile("[​-‏‪-‮⁠-⁯\uFEFF]")

	spaceRuns   = regexp.MustCompile(`[ \t]+`)
	blankLines  = regexp.MustCompile(`\n{3,}`)
	spacedLines = regexp.MustCompile(` *\n *`)

	// Pipe and bullet runs left behind when flex layouts flatten to text.
	pipeRuns   = regexp.MustCompile(`[ \t]*\|+[ \t]*`)
	bulletRuns = regexp.MustCompile(`[ \t]*•+[ \t]*`)
)

// blockTags force a line break when their subtree ends, so paragraph
// structure survives flattening.
var blockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "li": true,
	"ul": true, "ol": true, "table": true, "blockquote": true, "pre": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"br": true, "tr": true, "dd": true, "dt": true, "figcaption": true,
}

// selectionText flattens a selection to text, separating text nodes with
// spaces and block elements with newlines. goquery's Text() glues adjacent
// nodes together, which would weld words across tag boundaries.
func selectionText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, node := range sel.Nodes {
		writeNodeText(&b, node)
	}
	return b.String()
}

func writeNodeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		if t := strings.TrimSpace(n.Data); t != "" {
			b.WriteString(t)
			b.WriteByte(' ')
		}
	case html.ElementNode:
		if n.Data == "script" || n.Data == "style" {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeNodeText(b, c)
	}
	if n.Type == html.ElementNode && blockTags[n.Data] {
		b.WriteByte('\n')
	}
}

// cleanText normalizes extracted prose: strips invisible Unicode, collapses
// whitespace runs and excess blank lines while keeping paragraph breaks, and
// removes pipe and bullet artifacts. Table blocks are serialized separately
// and appended after cleaning, so their pipes are never touched here.
func cleanText(text string) string {
	if text == "" {
		return ""
	}
	text = invisibleRunes.ReplaceAllString(text, "")
	text = pipeRuns.ReplaceAllString(text, " ")
	text = bulletRuns.ReplaceAllString(text, " ")
	text = spaceRuns.ReplaceAllString(text, " ")
	text = spacedLines.ReplaceAllString(text, "\n")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
