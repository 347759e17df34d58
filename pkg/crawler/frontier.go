// Package crawler implements Phase 1 of the pipeline: breadth-first URL
// discovery with scope filtering and deduplication.
package crawler

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mwexler/corpusmith/internal/models"
	"github.com/mwexler/corpusmith/pkg/urlutil"
)

// Fetcher retrieves one URL. The frontier only needs the body to parse
// outbound links.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*models.FetchResult, error)
}

// RobotsPolicy answers whether a URL may be crawled at all.
type RobotsPolicy interface {
	Allowed(ctx context.Context, u *url.URL) bool
}

// FrontierConfig configures a discovery run.
type FrontierConfig struct {
	StartURL string
	MaxPages int
	MaxDepth int
	Scope    *Scope
	Fetcher  Fetcher
	Robots   RobotsPolicy // optional; nil means no robots checks
	Limiter  *rate.Limiter
	Logger   *zap.Logger
}

type queued struct {
	url   string
	depth int
}

// Frontier owns the discovery queue and the visited set for one crawl run.
// It is not safe for concurrent use and is discarded after Discover returns.
type Frontier struct {
	cfg   FrontierConfig
	start string

	visited    map[string]struct{}
	enqueued   map[string]struct{}
	queue      []queued
	discovered int
}

// NewFrontier validates the start URL and builds a Frontier.
func NewFrontier(cfg FrontierConfig) (*Frontier, error) {
	u, err := url.Parse(cfg.StartURL)
	if err != nil {
		return nil, fmt.Errorf("invalid start URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("start URL %q must be http or https", cfg.StartURL)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("start URL %q has no host", cfg.StartURL)
	}
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("frontier requires a fetcher")
	}
	if cfg.Scope == nil {
		return nil, fmt.Errorf("frontier requires a scope")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Limiter == nil {
		cfg.Limiter = rate.NewLimiter(rate.Inf, 1)
	}

	return &Frontier{
		cfg:      cfg,
		start:    urlutil.NormalizeURL(u),
		visited:  make(map[string]struct{}),
		enqueued: make(map[string]struct{}),
	}, nil
}

// Discover walks the site breadth-first from the start URL, fetching one page
// at a time through the rate limiter, and returns the in-scope URLs in
// discovery order. URLs whose discovery fetch failed are recorded as visited
// but left out of the result; they still consume the page budget so a flaky
// site cannot inflate the crawl.
func (f *Frontier) Discover(ctx context.Context) ([]models.Target, error) {
	f.push(f.start, 0)

	var targets []models.Target
	for len(f.queue) > 0 && f.discovered < f.cfg.MaxPages {
		if err := ctx.Err(); err != nil {
			return targets, err
		}

		item := f.pop()
		if _, seen := f.visited[item.url]; seen {
			continue
		}
		if item.depth > f.cfg.MaxDepth {
			continue
		}
		if item.depth == 0 {
			if !f.cfg.Scope.Allow(item.url) {
				return nil, fmt.Errorf("start URL %q is excluded by scope rules", item.url)
			}
		} else if !f.cfg.Scope.AllowLink(item.url) {
			continue
		}

		f.visited[item.url] = struct{}{}
		f.discovered++

		if f.cfg.Robots != nil {
			if u, err := url.Parse(item.url); err == nil && !f.cfg.Robots.Allowed(ctx, u) {
				f.cfg.Logger.Info("skipping url disallowed by robots.txt",
					zap.String("url", item.url))
				continue
			}
		}

		if err := f.cfg.Limiter.Wait(ctx); err != nil {
			return targets, fmt.Errorf("discovery throttle: %w", err)
		}

		res, err := f.cfg.Fetcher.Fetch(ctx, item.url)
		if err != nil {
			f.cfg.Logger.Warn("discovery fetch failed",
				zap.String("url", item.url),
				zap.Int("depth", item.depth),
				zap.Error(err))
			continue
		}

		targets = append(targets, models.Target{URL: item.url, Depth: item.depth})

		if item.depth+1 > f.cfg.MaxDepth {
			continue
		}
		f.addLinks(item.url, res.Body, item.depth)
	}

	f.cfg.Logger.Info("discovery complete",
		zap.Int("targets", len(targets)),
		zap.Int("visited", len(f.visited)),
		zap.Int("queued_remaining", len(f.queue)))

	return targets, nil
}

// addLinks parses outbound anchors in document order and enqueues the ones
// that survive normalization, scope filtering, and dedup at depth+1.
func (f *Frontier) addLinks(pageURL string, body []byte, depth int) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		f.cfg.Logger.Warn("link extraction failed",
			zap.String("url", pageURL), zap.Error(err))
		return
	}

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		normalized, err := urlutil.Resolve(base, href)
		if err != nil {
			return
		}
		if _, seen := f.visited[normalized]; seen {
			return
		}
		if _, pending := f.enqueued[normalized]; pending {
			return
		}
		if !f.cfg.Scope.AllowLink(normalized) {
			return
		}
		f.push(normalized, depth+1)
		f.cfg.Logger.Debug("enqueued link",
			zap.String("url", normalized), zap.Int("depth", depth+1))
	})
}

func (f *Frontier) push(u string, depth int) {
	f.enqueued[u] = struct{}{}
	f.queue = append(f.queue, queued{url: u, depth: depth})
}

func (f *Frontier) pop() queued {
	item := f.queue[0]
	f.queue = f.queue[1:]
	delete(f.enqueued, item.url)
	return item
}
