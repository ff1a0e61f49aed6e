// Package httppool owns the connection pool shared by every outbound request
// of a run: status probes and cross-language link queries alike.
//
// A Pool is created once per run and must be closed on every exit path:
//
//	pool := httppool.New(cfg)
//	defer pool.Close()
package httppool

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"sync/atomic"
	"time"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"github.com/fmjrey/chkodf/result"
)

// ErrTooManyRedirects is returned (wrapped in a *url.Error) when a request
// exceeds Config.MaxRedirects.
var ErrTooManyRedirects = fmt.Errorf("too many redirects: %w", result.ErrRedirectLoop)

// ErrClosed is returned by Wait once the pool has been closed.
var ErrClosed = errors.New("connection pool closed")

// Config holds pool configuration.
type Config struct {
	MaxConnsPerHost int           // Concurrent connections per host (default 4)
	IdleConnTimeout time.Duration // Idle keep-alive lifetime (default 30s)
	RequestTimeout  time.Duration // Per-request timeout (default 10s)
	RateLimit       float64       // Requests per second across the pool, 0 = unlimited
	MaxRedirects    int           // Redirects followed before giving up (default 10)
	UserAgent       string        // Sent on every request
}

// Pool is a bounded, rate-limited HTTP connection pool.
type Pool struct {
	cfg       Config
	transport http.RoundTripper
	limiter   *rate.Limiter
	closed    atomic.Bool
}

// New creates a Pool with the given configuration.
func New(cfg Config) *Pool {
	if cfg.MaxConnsPerHost <= 0 {
		cfg.MaxConnsPerHost = 4
	}
	if cfg.IdleConnTimeout <= 0 {
		cfg.IdleConnTimeout = 30 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = 10
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		MaxIdleConnsPerHost: cfg.MaxConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		TLSHandshakeTimeout: 10 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   cfg.RequestTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2: true,
	}

	return newPool(cfg, transport)
}

// NewWithTransport creates a Pool around an existing RoundTripper, such as
// the one of an httptest.Server client.
func NewWithTransport(cfg Config, transport http.RoundTripper) *Pool {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = 10
	}
	return newPool(cfg, transport)
}

func newPool(cfg Config, transport http.RoundTripper) *Pool {
	limit := rate.Inf
	burst := 1
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
		burst = max(1, int(cfg.RateLimit))
	}
	return &Pool{
		cfg:       cfg,
		transport: transport,
		limiter:   rate.NewLimiter(limit, burst),
	}
}

// UserAgent returns the User-Agent sent on every request.
func (p *Pool) UserAgent() string {
	return p.cfg.UserAgent
}

// RequestTimeout returns the per-request timeout.
func (p *Pool) RequestTimeout() time.Duration {
	return p.cfg.RequestTimeout
}

// Wait blocks until the rate limiter admits one request.
func (p *Pool) Wait(ctx context.Context) error {
	if p.closed.Load() {
		return ErrClosed
	}
	if err := p.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("rate limiter wait: %w", err)
	}
	return nil
}

// ClientOptions customizes a client built on the shared transport.
type ClientOptions struct {
	// Cookies attaches a fresh cookie jar scoped to the returned client.
	Cookies bool
	// OnRedirect is called with each redirect target, in order.
	OnRedirect func(target string)
}

// Client returns an http.Client sharing the pool's transport. Clients are
// cheap; connections live in the transport.
func (p *Pool) Client(opts ClientOptions) *http.Client {
	client := &http.Client{
		Transport: p.transport,
		Timeout:   p.cfg.RequestTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= p.cfg.MaxRedirects {
				return fmt.Errorf("stopped after %d redirects: %w", len(via), ErrTooManyRedirects)
			}
			if len(via) > 0 {
				req.Header.Set("User-Agent", via[0].Header.Get("User-Agent"))
			}
			if opts.OnRedirect != nil {
				opts.OnRedirect(req.URL.String())
			}
			return nil
		},
	}
	if opts.Cookies {
		// cookiejar.New never returns a non-nil error.
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err == nil {
			client.Jar = jar
		}
	}
	return client
}

// NewRequest builds a request carrying the pool's User-Agent.
func (p *Pool) NewRequest(ctx context.Context, method, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create %s request for %s: %w", method, rawURL, err)
	}
	if p.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", p.cfg.UserAgent)
	}
	return req, nil
}

// Close releases idle connections. Requests still in flight finish on their
// own connections; later calls to Wait fail with ErrClosed.
func (p *Pool) Close() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	type idleCloser interface{ CloseIdleConnections() }
	if tr, ok := p.transport.(idleCloser); ok {
		tr.CloseIdleConnections()
	}
}
