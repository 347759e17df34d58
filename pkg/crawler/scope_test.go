package crawler

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustScope(t *testing.T, start string, opts ScopeOptions) *Scope {
	t.Helper()
	u, err := url.Parse(start)
	require.NoError(t, err)
	s, err := NewScope(u, opts)
	require.NoError(t, err)
	return s
}

func TestScopeAllow(t *testing.T) {
	s := mustScope(t, "https://example.com", ScopeOptions{})

	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"same host page", "https://example.com/about", true},
		{"root", "https://example.com", true},
		{"different host", "https://other.com/about", false},
		{"subdomain without option", "https://blog.example.com/post", false},
		{"login page", "https://example.com/login", false},
		{"signin page", "https://example.com/user/signin", false},
		{"signup page", "https://example.com/signup", false},
		{"register page", "https://example.com/register", false},
		{"search results", "https://example.com/search?q=go", false},
		{"search path without query", "https://example.com/search-tips", true},
		{"cart", "https://example.com/cart", false},
		{"checkout", "https://example.com/checkout", false},
		{"pdf", "https://example.com/manual.pdf", false},
		{"image", "https://example.com/logo.PNG", false},
		{"stylesheet", "https://example.com/site.css", false},
		{"archive", "https://example.com/dump.tar.gz", false},
		{"fragment", "https://example.com/page#section", false},
		{"mailto", "mailto:hi@example.com", false},
		{"tel", "tel:+15551234", false},
		{"case-insensitive exclusion", "https://example.com/LOGIN", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Allow(tt.url))
		})
	}
}

func TestScopeSubdomains(t *testing.T) {
	s := mustScope(t, "https://example.com", ScopeOptions{AllowSubdomains: true})

	assert.True(t, s.Allow("https://example.com/page"))
	assert.True(t, s.Allow("https://blog.example.com/post"))
	assert.True(t, s.Allow("https://docs.example.com/"))
	assert.False(t, s.Allow("https://example.org/page"))
	assert.False(t, s.Allow("https://notexample.com/page"))
}

func TestScopeIncludePattern(t *testing.T) {
	s := mustScope(t, "https://example.com", ScopeOptions{IncludePattern: `/docs/`})

	// The inclusion pattern gates discovered links only.
	assert.True(t, s.Allow("https://example.com/"))
	assert.True(t, s.AllowLink("https://example.com/docs/intro"))
	assert.False(t, s.AllowLink("https://example.com/blog/post"))
}

func TestNewScopeRejectsBadInput(t *testing.T) {
	_, err := NewScope(nil, ScopeOptions{})
	assert.Error(t, err)

	rel, _ := url.Parse("/just/a/path")
	_, err = NewScope(rel, ScopeOptions{})
	assert.Error(t, err)

	abs, _ := url.Parse("https://example.com")
	_, err = NewScope(abs, ScopeOptions{IncludePattern: "["})
	assert.Error(t, err)
}
