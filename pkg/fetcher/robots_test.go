package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func robotsServer(t *testing.T, body string, status int, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			atomic.AddInt32(hits, 1)
			w.WriteHeader(status)
			w.Write([]byte(body))
			return
		}
		w.Write([]byte("page"))
	}))
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestRobotsDisallow(t *testing.T) {
	var hits int32
	server := robotsServer(t, "User-agent: *\nDisallow: /admin/\n", http.StatusOK, &hits)
	defer server.Close()

	r := NewRobots(server.Client(), "corpusmith-test", nil)
	ctx := context.Background()

	assert.True(t, r.Allowed(ctx, mustURL(t, server.URL+"/public")))
	assert.False(t, r.Allowed(ctx, mustURL(t, server.URL+"/admin/users")))
}

func TestRobotsFetchedOncePerOrigin(t *testing.T) {
	var hits int32
	server := robotsServer(t, "User-agent: *\nDisallow:\n", http.StatusOK, &hits)
	defer server.Close()

	r := NewRobots(server.Client(), "corpusmith-test", nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		assert.True(t, r.Allowed(ctx, mustURL(t, server.URL+"/page")))
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestRobotsMissingMeansAllowAll(t *testing.T) {
	var hits int32
	server := robotsServer(t, "not found", http.StatusNotFound, &hits)
	defer server.Close()

	r := NewRobots(server.Client(), "corpusmith-test", nil)
	assert.True(t, r.Allowed(context.Background(), mustURL(t, server.URL+"/anything")))
}

func TestRobotsUnreachableMeansAllowAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	r := NewRobots(http.DefaultClient, "corpusmith-test", nil)
	assert.True(t, r.Allowed(context.Background(), mustURL(t, server.URL+"/page")))
}

func TestRobotsSpecificAgentGroup(t *testing.T) {
	var hits int32
	body := "User-agent: corpusmith-test\nDisallow: /blocked/\n\nUser-agent: *\nDisallow:\n"
	server := robotsServer(t, body, http.StatusOK, &hits)
	defer server.Close()

	r := NewRobots(server.Client(), "corpusmith-test", nil)
	ctx := context.Background()

	assert.False(t, r.Allowed(ctx, mustURL(t, server.URL+"/blocked/page")))
	assert.True(t, r.Allowed(ctx, mustURL(t, server.URL+"/open")))
}
