// Package urlutil canonicalizes URLs so identity comparisons are reliable.
package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

// Normalize canonicalizes a raw URL: lower-cases scheme and host, strips the
// fragment, and drops a trailing slash on any path other than the root. An
// absolute URL with no path gets the root path, so example.com and
// example.com/ compare equal.
func Normalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", raw, err)
	}
	return NormalizeURL(u), nil
}

// NormalizeURL is Normalize for an already parsed URL.
func NormalizeURL(u *url.URL) string {
	n := *u
	n.Scheme = strings.ToLower(n.Scheme)
	n.Host = strings.ToLower(n.Host)
	n.Fragment = ""
	if n.Path == "" && n.Host != "" {
		n.Path = "/"
	}
	if len(n.Path) > 1 && strings.HasSuffix(n.Path, "/") {
		n.Path = strings.TrimRight(n.Path, "/")
	}
	return n.String()
}

// Resolve resolves href against base and returns the normalized absolute URL.
func Resolve(base *url.URL, href string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("parse href %q: %w", href, err)
	}
	return NormalizeURL(base.ResolveReference(ref)), nil
}

// SameHost reports whether two URLs share a hostname, ignoring case.
func SameHost(a, b *url.URL) bool {
	if a == nil || b == nil {
		return false
	}
	return strings.EqualFold(a.Hostname(), b.Hostname())
}
