package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
)

// Robots consults robots.txt before discovery fetches. Each host's file is
// fetched once and cached for the lifetime of the run. An unreachable or
// malformed robots.txt means allow-all, matching how polite crawlers degrade.
type Robots struct {
	client    *http.Client
	userAgent string
	logger    *zap.Logger

	mu    sync.Mutex
	cache map[string]*robotstxt.Group
}

// NewRobots builds a Robots agent sharing the fetcher's HTTP client.
func NewRobots(client *http.Client, userAgent string, logger *zap.Logger) *Robots {
	if logger == nil {
		logger = zap.NewNop()
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Robots{
		client:    client,
		userAgent: userAgent,
		logger:    logger,
		cache:     make(map[string]*robotstxt.Group),
	}
}

// Allowed reports whether u may be crawled under its host's robots.txt.
func (r *Robots) Allowed(ctx context.Context, u *url.URL) bool {
	if u == nil {
		return false
	}
	group := r.group(ctx, u)
	if group == nil {
		return true
	}
	return group.Test(u.Path)
}

func (r *Robots) group(ctx context.Context, u *url.URL) *robotstxt.Group {
	key := strings.ToLower(u.Scheme + "://" + u.Host)

	r.mu.Lock()
	defer r.mu.Unlock()
	if group, ok := r.cache[key]; ok {
		return group
	}

	group := r.fetchGroup(ctx, key)
	r.cache[key] = group
	return group
}

// fetchGroup retrieves and parses robots.txt for one origin. nil means no
// restrictions apply.
func (r *Robots) fetchGroup(ctx context.Context, origin string) *robotstxt.Group {
	robotsURL := fmt.Sprintf("%s/robots.txt", origin)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Debug("robots.txt unreachable, allowing all",
			zap.String("origin", origin), zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		r.logger.Debug("robots.txt unparseable, allowing all",
			zap.String("origin", origin), zap.Error(err))
		return nil
	}
	return data.FindGroup(r.userAgent)
}
