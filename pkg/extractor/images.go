package extractor

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	backgroundStyle = regexp.MustCompile(`(?i)background.*image`)
	cssURL          = regexp.MustCompile(`url\(['"]?([^'")]+)['"]?\)`)
)

// extractImages collects image references from img tags (src, every srcset
// entry, and the common lazy-loading attributes) plus inline CSS background
// images, resolved absolute against the page URL. Data URIs and icon or
// vector formats are dropped; order-preserving dedup.
func extractImages(doc *goquery.Document, pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	var images []string
	seen := make(map[string]struct{})

	add := func(raw string) {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "data:") {
			return
		}
		ref, err := url.Parse(raw)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref).String()
		lower := strings.ToLower(abs)
		if strings.HasSuffix(lower, ".ico") || strings.HasSuffix(lower, ".svg") {
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		images = append(images, abs)
	}

	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		add(img.AttrOr("src", ""))
		for _, entry := range strings.Split(img.AttrOr("srcset", ""), ",") {
			// Each entry is "URL [descriptor]".
			if fields := strings.Fields(entry); len(fields) > 0 {
				add(fields[0])
			}
		}
		add(img.AttrOr("data-src", ""))
		add(img.AttrOr("data-lazy-src", ""))
	})

	doc.Find("[style]").Each(func(_ int, sel *goquery.Selection) {
		style := sel.AttrOr("style", "")
		if !backgroundStyle.MatchString(style) {
			return
		}
		for _, match := range cssURL.FindAllStringSubmatch(style, -1) {
			add(match[1])
		}
	})

	return images
}
