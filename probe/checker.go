// Package probe issues HEAD status checks and converts every outcome,
// including transport errors and cancellation, into a result.Result.
package probe

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fmjrey/chkodf/httppool"
	"github.com/fmjrey/chkodf/result"
)

// Checker probes URLs through a shared connection pool.
type Checker struct {
	pool   *httppool.Pool
	robots *RobotsChecker
	logger zerolog.Logger
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithRobots makes the checker warn about URLs disallowed by robots.txt.
func WithRobots(robots *RobotsChecker) CheckerOption {
	return func(c *Checker) { c.robots = robots }
}

// WithLogger sets the checker's logger.
func WithLogger(logger zerolog.Logger) CheckerOption {
	return func(c *Checker) { c.logger = logger.With().Str("component", "probe").Logger() }
}

// New creates a Checker using pool for every request.
func New(pool *httppool.Pool, opts ...CheckerOption) *Checker {
	c := &Checker{pool: pool, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Option overrides request settings for a single probe.
type Option func(*requestOptions)

type requestOptions struct {
	pool    *httppool.Pool
	cookies bool
}

// WithCookies keeps cookies across the redirects of this probe.
func WithCookies() Option {
	return func(o *requestOptions) { o.cookies = true }
}

// WithPool sends this probe through another pool.
func WithPool(pool *httppool.Pool) Option {
	return func(o *requestOptions) { o.pool = pool }
}

// Check sends a HEAD request for rawURL and maps the response:
// 200 without redirects is success, [200,400) after redirects is redirect
// with the final target as location, anything else is failure.
// Check never returns an error; cancellation yields a failure whose
// category is result.CategoryCancelled.
func (c *Checker) Check(ctx context.Context, rawURL string, opts ...Option) (res result.Result) {
	ro := requestOptions{pool: c.pool}
	for _, opt := range opts {
		opt(&ro)
	}

	defer func() {
		if c.robots != nil && res.Classification != result.Failure {
			if allowed, _ := c.robots.Allowed(ctx, rawURL, ro.pool.UserAgent()); !allowed {
				res = res.WithWarning("robots.txt disallows %s for %s", rawURL, ro.pool.UserAgent())
			}
		}
		c.logger.Debug().
			Str("url", rawURL).
			Str("classification", string(res.Classification)).
			Int("status", res.Status).
			Msg("probe finished")
	}()

	if err := ro.pool.Wait(ctx); err != nil {
		return result.NewErrorFailure(rawURL, err)
	}

	req, err := ro.pool.NewRequest(ctx, http.MethodHead, rawURL)
	if err != nil {
		return result.NewFailure(rawURL, result.CategoryUnknown, err.Error())
	}

	var trace []string
	client := ro.pool.Client(httppool.ClientOptions{
		Cookies:    ro.cookies,
		OnRedirect: func(target string) { trace = append(trace, target) },
	})

	resp, err := client.Do(req)
	if err != nil {
		return result.NewErrorFailure(rawURL, err)
	}
	// Releases the pooled connection; HEAD responses carry no body.
	_ = resp.Body.Close()

	return classify(rawURL, resp, trace)
}

func classify(rawURL string, resp *http.Response, trace []string) result.Result {
	status := resp.StatusCode
	reason := reasonPhrase(resp)

	switch {
	case len(trace) > 0 && status >= 200 && status < 400:
		final := resp.Request.URL.String()
		return result.NewRedirect(rawURL, final, fmt.Sprintf("redirected to %s", final)).
			WithStatus(status, reason)
	case status == http.StatusOK:
		return result.NewSuccess(rawURL).WithStatus(status, reason)
	default:
		return result.NewFailure(rawURL, result.Categorize(status, nil), fmt.Sprintf("HTTP %d %s", status, reason)).
			WithStatus(status, reason)
	}
}

// reasonPhrase strips the status code from resp.Status.
func reasonPhrase(resp *http.Response) string {
	if reason, ok := strings.CutPrefix(resp.Status, fmt.Sprintf("%d ", resp.StatusCode)); ok {
		return reason
	}
	return http.StatusText(resp.StatusCode)
}
