package resolver_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fmjrey/chkodf/httppool"
	"github.com/fmjrey/chkodf/probe"
	"github.com/fmjrey/chkodf/resolver"
	"github.com/fmjrey/chkodf/result"
	"github.com/fmjrey/chkodf/wiki"
)

const userAgent = "chkodf-test/0.0 (+https://example.com/chkodf)"

// rewriteTransport sends every request to one test server, keeping the
// original host in the Host header, and records what was asked for.
type rewriteTransport struct {
	target *url.URL
	base   http.RoundTripper

	mu       sync.Mutex
	requests []string
}

func (rt *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rt.mu.Lock()
	rt.requests = append(rt.requests, req.Method+" "+req.URL.String())
	rt.mu.Unlock()

	clone := req.Clone(req.Context())
	clone.URL.Scheme = rt.target.Scheme
	clone.URL.Host = rt.target.Host
	clone.Host = req.URL.Host
	return rt.base.RoundTrip(clone)
}

func (rt *rewriteTransport) seen() []string {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return append([]string(nil), rt.requests...)
}

func TestProcessor_EndToEnd(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != userAgent {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		switch {
		case r.Host == "en.example.org" && r.URL.Path == "/w/api.php":
			q := r.URL.Query()
			if q.Get("titles") != "Lorem_ipsum" || q.Get("lllang") != "fr" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_, _ = w.Write([]byte(`{"query":{"pages":{"1":{"title":"Lorem ipsum","langlinks":[{"lang":"fr","*":"Lorem ipsum"}]}}}}`))
		case r.Host == "example.com" && r.URL.Path == "/page":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	target, err := url.Parse(ts.URL)
	require.NoError(t, err)
	transport := &rewriteTransport{target: target, base: ts.Client().Transport}

	pool := httppool.NewWithTransport(httppool.Config{
		UserAgent:      userAgent,
		RequestTimeout: 5 * time.Second,
	}, transport)
	defer pool.Close()

	p := resolver.New(resolver.Config{Language: "fr"}, resolver.Deps{
		Checker:    probe.New(pool),
		Translator: wiki.New(pool, wiki.Config{Site: "example.org"}, zerolog.Nop()),
		Logger:     zerolog.Nop(),
	})

	report, err := p.Run(context.Background(), []string{
		"http://en.example.org/wiki/Lorem_ipsum",
		"https://example.com/page",
		"http://example.com/page",
		"https://example.com/missing",
		"mailto:someone@example.com",
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"GET https://en.example.org/w/api.php?action=query&format=json&lllang=fr&prop=langlinks&titles=Lorem_ipsum",
		"HEAD https://example.com/page",
		"HEAD https://example.com/missing",
	}, transport.seen())

	assert.Equal(t, map[string]string{
		"http://en.example.org/wiki/Lorem_ipsum":  "https://fr.example.org/wiki/Lorem_ipsum",
		"https://en.example.org/wiki/Lorem_ipsum": "https://fr.example.org/wiki/Lorem_ipsum",
		"http://example.com/page":                 "https://example.com/page",
	}, report.Replacements)

	missing := resultFor(t, report, "https://example.com/missing")
	assert.Equal(t, result.Failure, missing.Classification)
	assert.Equal(t, result.Category4xx, missing.Category)
	assert.Equal(t, 404, missing.Status)

	assert.Equal(t, 1, report.Summary.Counts[result.Ignored])
	assert.True(t, report.Consistency.OK())
	assert.Equal(t, "fr", report.Language)
}
