package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"

	"github.com/fmjrey/chkodf/httppool"
)

// maxRobotsSize bounds how much of a robots.txt body is read.
const maxRobotsSize = 512 * 1024

// RobotsChecker fetches and caches robots.txt rules per scheme and host for
// the duration of a run.
type RobotsChecker struct {
	pool  *httppool.Pool
	cache sync.Map // scheme://host -> *robotstxt.RobotsData (nil = allow all)
}

// NewRobotsChecker creates a RobotsChecker fetching through pool.
func NewRobotsChecker(pool *httppool.Pool) *RobotsChecker {
	return &RobotsChecker{pool: pool}
}

// Allowed reports whether rawURL may be fetched by userAgent.
// Fetch and parse errors result in allow-all behavior and are returned
// alongside true so callers can surface them.
func (r *RobotsChecker) Allowed(ctx context.Context, rawURL, userAgent string) (bool, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return true, fmt.Errorf("parse URL: %w", err)
	}
	if parsedURL.Host == "" {
		return true, nil
	}

	key := parsedURL.Scheme + "://" + parsedURL.Host
	if cached, ok := r.cache.Load(key); ok {
		return testAgent(cached.(*robotstxt.RobotsData), parsedURL, userAgent), nil
	}

	robots, err := r.fetch(ctx, key+"/robots.txt")
	if err != nil {
		if ctx.Err() == nil {
			r.cache.Store(key, (*robotstxt.RobotsData)(nil))
		}
		return true, err
	}
	actual, _ := r.cache.LoadOrStore(key, robots)
	return testAgent(actual.(*robotstxt.RobotsData), parsedURL, userAgent), nil
}

func (r *RobotsChecker) fetch(ctx context.Context, robotsURL string) (*robotstxt.RobotsData, error) {
	if err := r.pool.Wait(ctx); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", robotsURL, err)
	}
	req, err := r.pool.NewRequest(ctx, http.MethodGet, robotsURL)
	if err != nil {
		return nil, err
	}
	resp, err := r.pool.Client(httppool.ClientOptions{}).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", robotsURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	// 404 and 5xx mean allow all.
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode >= 500 {
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", robotsURL, err)
	}
	robots, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", robotsURL, err)
	}
	return robots, nil
}

func testAgent(robots *robotstxt.RobotsData, u *url.URL, userAgent string) bool {
	if robots == nil {
		return true
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return robots.TestAgent(path, userAgent)
}
