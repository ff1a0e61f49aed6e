package httppool

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fmjrey/chkodf/result"
)

func TestNew_AppliesDefaults(t *testing.T) {
	p := New(Config{UserAgent: "chkodf-test"})
	defer p.Close()

	assert.Equal(t, 4, p.cfg.MaxConnsPerHost)
	assert.Equal(t, 30*time.Second, p.cfg.IdleConnTimeout)
	assert.Equal(t, 10*time.Second, p.RequestTimeout())
	assert.Equal(t, 10, p.cfg.MaxRedirects)
	assert.Equal(t, "chkodf-test", p.UserAgent())

	tr, ok := p.transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 4, tr.MaxConnsPerHost)
	assert.Equal(t, 30*time.Second, tr.IdleConnTimeout)
}

func TestNewRequest_SetsUserAgent(t *testing.T) {
	p := New(Config{UserAgent: "chkodf/1.0 (+https://github.com/fmjrey/chkodf)"})
	defer p.Close()

	req, err := p.NewRequest(context.Background(), http.MethodHead, "https://example.com/")
	require.NoError(t, err)
	assert.Equal(t, "chkodf/1.0 (+https://github.com/fmjrey/chkodf)", req.Header.Get("User-Agent"))
}

func TestClient_RecordsRedirectsAndStopsLoops(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/end", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/end", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/loop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	p := NewWithTransport(Config{MaxRedirects: 3}, ts.Client().Transport)
	defer p.Close()

	var trace []string
	client := p.Client(ClientOptions{OnRedirect: func(target string) { trace = append(trace, target) }})

	req, err := p.NewRequest(context.Background(), http.MethodHead, ts.URL+"/start")
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, []string{ts.URL + "/end"}, trace)

	req, err = p.NewRequest(context.Background(), http.MethodHead, ts.URL+"/loop")
	require.NoError(t, err)
	_, err = client.Do(req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooManyRedirects))
	assert.ErrorIs(t, err, result.ErrRedirectLoop)
	var urlErr *url.Error
	assert.True(t, errors.As(err, &urlErr))
}

func TestClient_CookieJar(t *testing.T) {
	p := New(Config{})
	defer p.Close()

	assert.Nil(t, p.Client(ClientOptions{}).Jar)
	assert.NotNil(t, p.Client(ClientOptions{Cookies: true}).Jar)
}

func TestWait_RateLimitAndClose(t *testing.T) {
	p := New(Config{RateLimit: 1})

	require.NoError(t, p.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Wait(ctx), context.Canceled)

	p.Close()
	p.Close()
	assert.True(t, p.closed.Load())
	assert.ErrorIs(t, p.Wait(context.Background()), ErrClosed)
}
