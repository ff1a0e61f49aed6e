// Package resolver drives every href of a document to a final Result. It
// pairs http URLs with their https counterpart so a pair costs one probe,
// resolves encyclopedia articles to the document language, and records
// everything in a registry that guarantees one resolution per distinct URL.
package resolver

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/fmjrey/chkodf/probe"
	"github.com/fmjrey/chkodf/registry"
	"github.com/fmjrey/chkodf/result"
	"github.com/fmjrey/chkodf/urlutil"
	"github.com/fmjrey/chkodf/wiki"
)

// StatusChecker probes a URL. It never fails: every error is a failure Result.
type StatusChecker interface {
	Check(ctx context.Context, url string, opts ...probe.Option) result.Result
}

// Translator resolves article URLs to another language.
type Translator interface {
	Translate(ctx context.Context, url, lang string) wiki.Translation
}

// Config holds processor configuration.
type Config struct {
	Language    string // Document language (two letters)
	Concurrency int    // Hrefs resolved at once; 1 is sequential (default 1)
	Cookies     bool   // Give every probe a cookie jar
}

// Deps are the collaborators of a Processor. Registry and Events are optional.
type Deps struct {
	Checker    StatusChecker
	Translator Translator
	Registry   *registry.Registry
	Events     chan<- Event
	Logger     zerolog.Logger
}

// Processor resolves the hrefs of one document. Use a new Processor per run.
type Processor struct {
	cfg        Config
	checker    StatusChecker
	translator Translator
	reg        *registry.Registry
	events     chan<- Event
	logger     zerolog.Logger
	probeOpts  []probe.Option

	resolved atomic.Int64
	failed   atomic.Int64
	known    atomic.Int64
}

// New creates a Processor.
func New(cfg Config, deps Deps) *Processor {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	reg := deps.Registry
	if reg == nil {
		reg = registry.New()
	}
	var probeOpts []probe.Option
	if cfg.Cookies {
		probeOpts = append(probeOpts, probe.WithCookies())
	}
	return &Processor{
		cfg:        cfg,
		checker:    deps.Checker,
		translator: deps.Translator,
		reg:        reg,
		events:     deps.Events,
		logger:     deps.Logger.With().Str("component", "resolver").Logger(),
		probeOpts:  probeOpts,
	}
}

// Run resolves hrefs and returns the aggregated report. Hrefs are admitted
// in input order; with Concurrency > 1 up to that many resolve at once and
// complete in any order. The report is returned even when the run was
// cancelled, together with the cancellation error.
func (p *Processor) Run(ctx context.Context, hrefs []string) (*result.Report, error) {
	start := time.Now()
	p.logger.Info().
		Int("hrefs", len(hrefs)).
		Int("concurrency", p.cfg.Concurrency).
		Str("lang", p.cfg.Language).
		Msg("resolving links")

	var runErr error
	if p.cfg.Concurrency == 1 {
		for _, href := range hrefs {
			p.Resolve(ctx, href)
		}
	} else {
		var group errgroup.Group
		group.SetLimit(p.cfg.Concurrency)
		for _, href := range hrefs {
			href := href // per-iteration copy; go.mod targets pre-1.22 loop semantics
			// Go blocks while the limit is reached, so admission is FIFO.
			group.Go(func() error {
				p.Resolve(ctx, href)
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			runErr = fmt.Errorf("wait for resolvers: %w", err)
		}
	}
	if runErr == nil && ctx.Err() != nil {
		runErr = fmt.Errorf("run cancelled: %w", ctx.Err())
	}

	report := registry.Aggregate(p.reg.Snapshot())
	report.Language = p.cfg.Language

	if !report.Consistency.OK() {
		p.logger.Warn().
			Int("created", report.Consistency.Created).
			Int("assigned", report.Consistency.Assigned).
			Strs("unassigned", report.Consistency.Unassigned).
			Msg("registry inconsistent")
	}
	p.logger.Info().
		Int("inputs", report.Summary.Inputs).
		Int("distinct", report.Summary.Distinct).
		Int("failures", report.Summary.Counts[result.Failure]).
		Int("failed_links", report.Summary.FailedLinks).
		Int64("already_known", p.known.Load()).
		Int("replacements", len(report.Replacements)).
		Dur("elapsed", time.Since(start)).
		Msg("links resolved")
	return &report, runErr
}

// Resolve records href in the input audit list and returns its final Result.
// A href already known returns the Result of its first resolution.
func (p *Processor) Resolve(ctx context.Context, href string) result.Result {
	p.reg.RecordInput(href)

	if !p.claim(href) {
		p.known.Add(1)
		p.logger.Debug().Str("url", href).Msg("already known")
		res, err := p.reg.Await(ctx, href)
		if err != nil {
			return cancelled(href, err)
		}
		return res
	}

	secure, ok := urlutil.SecureCounterpart(href)
	switch {
	case !ok:
		return p.assign(ctx, href, result.NewIgnored(href))
	case secure == href:
		return p.resolveSecure(ctx, href)
	}

	// http: the https counterpart leads and is never made to wait on http.
	var sr result.Result
	if p.claim(secure) {
		sr = p.resolveSecure(ctx, secure)
	} else {
		var err error
		if sr, err = p.reg.Await(ctx, secure); err != nil {
			return p.assign(ctx, href, cancelled(href, err))
		}
	}
	return p.assign(ctx, href, p.deriveInsecure(ctx, href, secure, sr))
}

// claim reports whether the caller became the owner of url. Known URLs are
// answered by IsKnown without taking the registry write lock; Register
// settles races between first sightings.
func (p *Processor) claim(url string) bool {
	return !p.reg.IsKnown(url) && p.reg.Register(url)
}

// resolveSecure determines the Result of an https URL the caller registered.
func (p *Processor) resolveSecure(ctx context.Context, url string) result.Result {
	tr := p.translator.Translate(ctx, url, p.cfg.Language)
	switch tr.Outcome {
	case wiki.NotArticle:
		return p.assign(ctx, url, p.check(ctx, url))
	case wiki.SameLanguage:
		return p.assign(ctx, url, p.check(ctx, url).WithMessage("language matches document language"))
	case wiki.Found:
		translated := tr.Result.Location
		if p.claim(translated) {
			p.assign(ctx, translated, result.NewSuccess(translated, "translation for "+url))
		}
		return p.assign(ctx, url, tr.Result)
	default:
		return p.assign(ctx, url, tr.Result)
	}
}

// deriveInsecure computes an http URL's Result from its https counterpart's.
func (p *Processor) deriveInsecure(ctx context.Context, url, secure string, sr result.Result) result.Result {
	var res result.Result
	switch {
	case sr.Classification == result.Success:
		res = result.NewReplace(url, secure, "upgrade to https")
	case sr.IsRewrite() && sr.Location != url:
		// The https messages say where the location came from: a redirect
		// or a translation.
		res = result.NewReplace(url, sr.Location, slices.Clone(sr.Messages)...)
		res.Warnings = slices.Clone(sr.Warnings)
	case sr.Category == result.CategoryInvalidArticle:
		// No probe: the page does not exist under either scheme.
		res = result.NewErrorFailure(url, result.ErrInvalidArticle)
	default:
		// Includes https sending clients back to url itself.
		res = p.check(ctx, url)
	}
	return res.WithPrevious(sr)
}

func (p *Processor) check(ctx context.Context, url string) result.Result {
	return p.checker.Check(ctx, url, p.probeOpts...)
}

// assign stores res for url and reports it. When url was already assigned
// the stored Result wins and is returned instead.
func (p *Processor) assign(ctx context.Context, url string, res result.Result) result.Result {
	if err := res.Validate(); err != nil {
		p.logger.Error().Err(err).Str("url", url).Msg("invalid result")
	}
	if !p.reg.Assign(url, res) {
		if stored, ok := p.reg.Result(url); ok {
			return stored
		}
		return res
	}

	resolved := int(p.resolved.Add(1))
	failed := int(p.failed.Load())
	if res.Classification == result.Failure {
		failed = int(p.failed.Add(1))
	}
	p.logger.Debug().
		Str("url", url).
		Str("classification", string(res.Classification)).
		Str("location", res.Location).
		Msg("resolved")

	if p.events != nil {
		select {
		case p.events <- Event{Result: res, Resolved: resolved, Failed: failed}:
		case <-ctx.Done():
		}
	}
	return res
}

// cancelled is the Result of a URL whose wait for another was cut short;
// err wraps the context error.
func cancelled(url string, err error) result.Result {
	return result.NewFailure(url, result.Categorize(0, err), "cancelled: "+err.Error())
}
