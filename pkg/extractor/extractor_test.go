package extractor

import (
	"bytes"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwexler/corpusmith/internal/models"
)

const pageURL = "https://example.com/page"

func extract(t *testing.T, rawHTML string) *models.ExtractedContent {
	t.Helper()
	content, err := New(nil).Extract([]byte(rawHTML), pageURL)
	require.NoError(t, err)
	return content
}

func parseDoc(t *testing.T, rawHTML string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(rawHTML)))
	require.NoError(t, err)
	return doc
}

func TestExtractPrefersSemanticContainer(t *testing.T) {
	content := extract(t, `
		<html><head><title>Semantic</title></head><body>
			<div class="promo">Buy our newsletter now</div>
			<main><p>The actual article text lives here.</p></main>
		</body></html>`)

	assert.Contains(t, content.BodyText, "actual article text")
	assert.NotContains(t, content.BodyText, "newsletter")
}

func TestExtractStripsBoilerplate(t *testing.T) {
	content := extract(t, `
		<html><body>
			<nav>Home About Contact</nav>
			<header>Site Header</header>
			<main><p>Real content paragraph.</p></main>
			<aside class="sidebar">Related posts</aside>
			<footer>Copyright 2025</footer>
		</body></html>`)

	assert.Contains(t, content.BodyText, "Real content paragraph.")
	for _, chrome := range []string{"Home About", "Site Header", "Related posts", "Copyright"} {
		assert.NotContains(t, content.BodyText, chrome)
	}
}

func TestIsolationStrategies(t *testing.T) {
	longText := strings.Repeat("meaningful prose content ", 10)

	t.Run("semantic finds main", func(t *testing.T) {
		doc := parseDoc(t, `<html><body><main><p>x</p></main></body></html>`)
		sel := locateSemantic(doc)
		require.NotNil(t, sel)
		assert.True(t, sel.Is("main"))
	})

	t.Run("semantic finds article when no main", func(t *testing.T) {
		doc := parseDoc(t, `<html><body><article><p>x</p></article></body></html>`)
		sel := locateSemantic(doc)
		require.NotNil(t, sel)
		assert.True(t, sel.Is("article"))
	})

	t.Run("semantic nil without containers", func(t *testing.T) {
		doc := parseDoc(t, `<html><body><div>x</div></body></html>`)
		assert.Nil(t, locateSemantic(doc))
	})

	t.Run("role attribute", func(t *testing.T) {
		doc := parseDoc(t, `<html><body><div role="main"><p>x</p></div></body></html>`)
		sel := locateRole(doc)
		require.NotNil(t, sel)
		assert.Equal(t, "main", sel.AttrOr("role", ""))
	})

	t.Run("content class needs enough text", func(t *testing.T) {
		doc := parseDoc(t, `<html><body><div class="content">too short</div></body></html>`)
		assert.Nil(t, locateByClass(doc))

		doc = parseDoc(t, `<html><body><div class="content">`+longText+`</div></body></html>`)
		sel := locateByClass(doc)
		require.NotNil(t, sel)
		assert.True(t, sel.HasClass("content"))
	})

	t.Run("largest container skips chrome", func(t *testing.T) {
		doc := parseDoc(t, `<html><body>
			<div class="mega-menu">`+longText+longText+`</div>
			<div class="stuff">`+longText+`</div>
		</body></html>`)
		sel := locateLargestContainer(doc)
		require.NotNil(t, sel)
		assert.True(t, sel.HasClass("stuff"))
	})

	t.Run("largest container nil below threshold", func(t *testing.T) {
		doc := parseDoc(t, `<html><body><div class="stuff">short</div></body></html>`)
		assert.Nil(t, locateLargestContainer(doc))
	})
}

func TestExtractTitleCascade(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"title tag", `<html><head><title>From Title</title></head><body><h1>H1</h1></body></html>`, "From Title"},
		{"h1 fallback", `<html><body><h1>From H1</h1></body></html>`, "From H1"},
		{"og:title", `<html><head><meta property="og:title" content="From OG"></head><body></body></html>`, "From OG"},
		{"twitter:title", `<html><head><meta name="twitter:title" content="From Twitter"></head><body></body></html>`, "From Twitter"},
		{"data-title", `<html><body><div data-title="From Data"></div></body></html>`, "From Data"},
		{"url fallback", `<html><body><p>no title anywhere</p></body></html>`, pageURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := extract(t, tt.html)
			assert.Equal(t, tt.want, content.Title)
		})
	}
}

func TestExtractSerializesTables(t *testing.T) {
	content := extract(t, `
		<html><body><main>
			<p>Our catalog is below.</p>
			<table>
				<thead><tr><th>Name</th><th>Price</th></tr></thead>
				<tbody>
					<tr><td>Widget</td><td>$9.99</td></tr>
					<tr><td>Gadget</td><td>$19.99</td></tr>
				</tbody>
			</table>
		</main></body></html>`)

	require.Len(t, content.TableText, 1)
	lines := strings.Split(content.TableText[0], "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Name | Price", lines[0])
	assert.Equal(t, "Widget | $9.99", lines[1])
	assert.Equal(t, "Gadget | $19.99", lines[2])

	// The table appears once, after the prose, pipes intact.
	assert.Contains(t, content.BodyText, "catalog is below.")
	assert.Contains(t, content.BodyText, "Name | Price")
	assert.Equal(t, 1, strings.Count(content.BodyText, "Widget"))
	assert.Less(t,
		strings.Index(content.BodyText, "catalog"),
		strings.Index(content.BodyText, "Name | Price"))
}

func TestExtractKeepsEveryListingItem(t *testing.T) {
	var items strings.Builder
	for _, name := range []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon"} {
		items.WriteString(`<div class="card"><h3>` + name + `</h3><p>Description of ` + name + ` with enough words to matter.</p></div>`)
	}
	content := extract(t, `<html><body><div class="grid">`+items.String()+`</div></body></html>`)

	for _, name := range []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon"} {
		assert.Contains(t, content.BodyText, name)
	}
	assert.GreaterOrEqual(t, content.ItemBlocks, 5)
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"zero width stripped", "he​llo wo\ufeffrld", "hello world"},
		{"pipe runs removed", "Home | About | Contact", "Home About Contact"},
		{"bullet runs removed", "a • b • c", "a b c"},
		{"space runs collapsed", "too    many\tspaces", "too many spaces"},
		{"blank lines collapsed", "a\n\n\n\n\nb", "a\n\nb"},
		{"trimmed", "  padded  ", "padded"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanText(tt.in))
		})
	}
}

func TestSelectionTextSeparatesBlocks(t *testing.T) {
	doc := parseDoc(t, `<html><body><div><p>First paragraph.</p><p>Second paragraph.</p><span>inline</span><span>text</span></div></body></html>`)
	text := cleanText(selectionText(doc.Find("div")))

	assert.Contains(t, text, "First paragraph.\nSecond paragraph.")
	assert.Contains(t, text, "inline text")
}

func TestExtractImages(t *testing.T) {
	content := extract(t, `
		<html><body><main>
			<img src="/images/photo.jpg">
			<img src="https://cdn.example.com/banner.png">
			<img srcset="/small.jpg 480w, /large.jpg 1080w">
			<img data-src="/lazy.webp">
			<img data-lazy-src="/lazier.jpg">
			<div style="background-image: url('/bg.jpg')">text</div>
			<img src="/images/photo.jpg">
			<img src="data:image/gif;base64,R0lGOD">
			<img src="/icons/favicon.ico">
			<img src="/art/vector.svg">
		</main></body></html>`)

	assert.Equal(t, []string{
		"https://example.com/images/photo.jpg",
		"https://cdn.example.com/banner.png",
		"https://example.com/small.jpg",
		"https://example.com/large.jpg",
		"https://example.com/lazy.webp",
		"https://example.com/lazier.jpg",
		"https://example.com/bg.jpg",
	}, content.Images)
}

func TestExtractDegradesGracefully(t *testing.T) {
	content := extract(t, "<<<< not really html &&&&")
	assert.Equal(t, pageURL, content.Title)

	content = extract(t, "")
	assert.Equal(t, pageURL, content.Title)
	assert.Empty(t, content.Images)
}
