package crawler

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// skipPatterns matches URLs that are never worth crawling: auth and commerce
// flows, search results, and binary or asset files.
var skipPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/login`),
	regexp.MustCompile(`(?i)/signin`),
	regexp.MustCompile(`(?i)/signup`),
	regexp.MustCompile(`(?i)/register`),
	regexp.MustCompile(`(?i)/search\?`),
	regexp.MustCompile(`(?i)/cart`),
	regexp.MustCompile(`(?i)/checkout`),
	regexp.MustCompile(`(?i)\.(pdf|jpg|jpeg|png|gif|svg|css|js|zip|tar|gz)$`),
	regexp.MustCompile(`#`),
	regexp.MustCompile(`(?i)^mailto:`),
	regexp.MustCompile(`(?i)^tel:`),
}

// ScopeOptions configures a Scope.
type ScopeOptions struct {
	// IncludePattern, when non-empty, is a regex that discovered links must
	// match to be enqueued. It does not apply to the start URL.
	IncludePattern string

	// AllowSubdomains widens the same-host rule to the registrable domain
	// (eTLD+1), so blog.example.com is in scope for example.com.
	AllowSubdomains bool
}

// Scope decides whether a candidate URL is eligible for crawling: same host
// as the start URL, not matching any exclusion pattern, and optionally
// matching a user-supplied inclusion pattern.
type Scope struct {
	host        string
	registrable string
	subdomains  bool
	include     *regexp.Regexp
}

// NewScope builds a Scope anchored at the start URL.
func NewScope(start *url.URL, opts ScopeOptions) (*Scope, error) {
	if start == nil || start.Hostname() == "" {
		return nil, fmt.Errorf("scope requires an absolute start URL")
	}

	s := &Scope{
		host:       strings.ToLower(start.Hostname()),
		subdomains: opts.AllowSubdomains,
	}

	if opts.AllowSubdomains {
		registrable, err := publicsuffix.EffectiveTLDPlusOne(s.host)
		if err != nil {
			return nil, fmt.Errorf("registrable domain for %q: %w", s.host, err)
		}
		s.registrable = registrable
	}

	if opts.IncludePattern != "" {
		include, err := regexp.Compile(opts.IncludePattern)
		if err != nil {
			return nil, fmt.Errorf("invalid include pattern: %w", err)
		}
		s.include = include
	}

	return s, nil
}

// Allow reports whether rawURL is in scope: same host and not excluded.
func (s *Scope) Allow(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if !s.sameSite(u) {
		return false
	}
	for _, pat := range skipPatterns {
		if pat.MatchString(rawURL) {
			return false
		}
	}
	return true
}

// AllowLink is Allow plus the inclusion pattern, applied to discovered links
// but not to the start URL.
func (s *Scope) AllowLink(rawURL string) bool {
	if !s.Allow(rawURL) {
		return false
	}
	if s.include != nil && !s.include.MatchString(rawURL) {
		return false
	}
	return true
}

func (s *Scope) sameSite(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	if host == s.host {
		return true
	}
	if !s.subdomains {
		return false
	}
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return false
	}
	return registrable == s.registrable
}
