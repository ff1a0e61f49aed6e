package wiki

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/fmjrey/chkodf/httppool"
	"github.com/fmjrey/chkodf/result"
)

// DefaultEndpoint is the langlinks API location; {lang} and {site} are
// replaced with the article's language and site.
const DefaultEndpoint = "https://{lang}.{site}/w/api.php"

// maxResponseSize bounds how much of an API response is read.
const maxResponseSize = 1 << 20

// Outcome tells the caller what to do with a URL after translation.
type Outcome int

const (
	// NotArticle means the URL is not an article; check it like any link.
	NotArticle Outcome = iota
	// SameLanguage means the article is already in the document language;
	// check it like any link.
	SameLanguage
	// Found means an equivalent article exists; Result is a replace.
	Found
	// NotFound means the article exists but has no equivalent; Result is a success.
	NotFound
	// Invalid means the article does not exist; Result is a failure.
	Invalid
	// Failed means the API could not be queried; Result is a failure.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case NotArticle:
		return "not-article"
	case SameLanguage:
		return "same-language"
	case Found:
		return "found"
	case NotFound:
		return "not-found"
	case Invalid:
		return "invalid"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Translation is the outcome of Translate. Result is only meaningful for
// Found, NotFound, Invalid and Failed.
type Translation struct {
	Outcome Outcome
	Article Article
	Result  result.Result
}

// Config holds translator configuration.
type Config struct {
	Site     string // Encyclopedia domain (default wikipedia.org)
	Endpoint string // API URL template (default DefaultEndpoint)
}

// Translator resolves article URLs to their document-language equivalent.
type Translator struct {
	cfg    Config
	pool   *httppool.Pool
	logger zerolog.Logger
}

// New creates a Translator querying the API through pool.
func New(pool *httppool.Pool, cfg Config, logger zerolog.Logger) *Translator {
	if cfg.Site == "" {
		cfg.Site = DefaultSite
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	return &Translator{
		cfg:    cfg,
		pool:   pool,
		logger: logger.With().Str("component", "wiki").Logger(),
	}
}

// Site returns the encyclopedia domain articles are matched against.
func (t *Translator) Site() string {
	return t.cfg.Site
}

// Translate resolves rawURL to the article in lang. No request is made for
// URLs that are not articles or are already in lang.
func (t *Translator) Translate(ctx context.Context, rawURL, lang string) Translation {
	article, ok := ParseArticle(rawURL, t.cfg.Site)
	if !ok {
		return Translation{Outcome: NotArticle}
	}
	if strings.EqualFold(article.Lang, lang) {
		return Translation{Outcome: SameLanguage, Article: article}
	}

	tr := t.query(ctx, rawURL, article, strings.ToLower(lang))
	tr.Article = article
	t.logger.Debug().
		Str("url", rawURL).
		Str("from", article.Lang).
		Str("to", lang).
		Stringer("outcome", tr.Outcome).
		Msg("langlinks query finished")
	return tr
}

// APIURL returns the langlinks query URL for article in target.
func (t *Translator) APIURL(article Article, target string) string {
	endpoint := strings.NewReplacer("{lang}", article.Lang, "{site}", article.Site).Replace(t.cfg.Endpoint)
	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "langlinks")
	params.Set("titles", article.Title)
	params.Set("lllang", target)
	params.Set("format", "json")
	return endpoint + "?" + params.Encode()
}

func (t *Translator) query(ctx context.Context, rawURL string, article Article, target string) Translation {
	body, err := t.fetch(ctx, t.APIURL(article, target))
	if err != nil {
		var statusErr *statusError
		switch {
		case errors.Is(err, context.Canceled):
			return failed(result.NewErrorFailure(rawURL, err))
		case errors.As(err, &statusErr):
			return failed(result.NewFailure(rawURL, result.Categorize(statusErr.code, nil),
				"langlinks query: "+err.Error()).WithStatus(statusErr.code, http.StatusText(statusErr.code)))
		default:
			return failed(result.NewFailure(rawURL, result.Categorize(0, err), "langlinks query: "+err.Error()))
		}
	}

	title, outcome := parseLanglinks(body, target)
	switch outcome {
	case Found:
		location := URL(article.Scheme, target, article.Site, title)
		res := result.NewReplace(rawURL, location, "found translation: "+location)
		if article.Fragment != "" {
			res = res.WithWarning("fragment #%s not carried over: anchors differ between languages", article.Fragment)
		}
		return Translation{Outcome: Found, Result: res}
	case NotFound:
		return Translation{Outcome: NotFound, Result: result.NewSuccess(rawURL, "no translation to "+target)}
	default:
		return Translation{Outcome: Invalid, Result: result.NewErrorFailure(rawURL, result.ErrInvalidArticle)}
	}
}

func failed(res result.Result) Translation {
	return Translation{Outcome: Failed, Result: res}
}

type statusError struct{ code int }

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d %s", e.code, http.StatusText(e.code))
}

func (t *Translator) fetch(ctx context.Context, apiURL string) ([]byte, error) {
	if err := t.pool.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := t.pool.NewRequest(ctx, http.MethodGet, apiURL)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.pool.Client(httppool.ClientOptions{}).Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

// parseLanglinks reads {query:{pages:{<id>:{langlinks:[{lang,*}]}}}}.
// A page id starting with '-' or a page flagged missing means the article
// does not exist; so does any body without a page map.
func parseLanglinks(body []byte, target string) (string, Outcome) {
	if !gjson.ValidBytes(body) {
		return "", Invalid
	}
	pages := gjson.GetBytes(body, "query.pages")
	if !pages.IsObject() {
		return "", Invalid
	}

	var (
		title   string
		outcome = Invalid
	)
	pages.ForEach(func(id, page gjson.Result) bool {
		if strings.HasPrefix(id.String(), "-") || page.Get("missing").Exists() || page.Get("invalid").Exists() {
			outcome = Invalid
			return false
		}
		outcome = NotFound
		page.Get("langlinks").ForEach(func(_, link gjson.Result) bool {
			if !strings.EqualFold(link.Get("lang").String(), target) {
				return true
			}
			// format=json puts the title under "*", formatversion=2 under "title".
			title = link.Get(`\*`).String()
			if title == "" {
				title = link.Get("title").String()
			}
			if title != "" {
				outcome = Found
				return false
			}
			return true
		})
		return outcome != Found
	})
	return title, outcome
}
