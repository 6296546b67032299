package features

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"phishguard/internal/lookup"
	"phishguard/internal/models"
	"phishguard/pkg/logger"
)

type PageFetcher interface {
	FetchPage(ctx context.Context, rawURL string) (*models.Page, error)
}

type DomainLookup interface {
	Lookup(ctx context.Context, host string) (*models.DomainInfo, error)
}

type CertProbe interface {
	Probe(ctx context.Context, host, port string) (*models.TLSInfo, error)
}

type Reputation interface {
	Listed(ctx context.Context, rawURL, host string) (bool, error)
}

// Timeouts bound each external call independently.
type Timeouts struct {
	Fetch      time.Duration
	Whois      time.Duration
	TLS        time.Duration
	Reputation time.Duration
}

var DefaultTimeouts = Timeouts{
	Fetch:      10 * time.Second,
	Whois:      5 * time.Second,
	TLS:        5 * time.Second,
	Reputation: 15 * time.Second,
}

// Extractor gathers evidence through its collaborators and computes the
// feature vector. Any collaborator may be nil; its features then read Unknown.
type Extractor struct {
	Fetcher    PageFetcher
	Whois      DomainLookup
	Certs      CertProbe
	Reputation Reputation
	Shorteners []string
	Timeouts   Timeouts
	Log        *logger.Logger
	Now        func() time.Time
}

// Extract validates rawURL, fetches its page and computes the vector.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (models.FeatureVector, error) {
	ev, err := e.gather(ctx, rawURL, nil, true)
	if err != nil {
		return nil, err
	}
	return Compute(ev), nil
}

// ExtractWithContent uses page instead of fetching. A nil page means the
// content is unavailable.
func (e *Extractor) ExtractWithContent(ctx context.Context, rawURL string, page *models.Page) (models.FeatureVector, error) {
	ev, err := e.gather(ctx, rawURL, page, false)
	if err != nil {
		return nil, err
	}
	return Compute(ev), nil
}

// gather normalizes rawURL and runs the collaborators concurrently. Only an
// invalid URL is an error; collaborator failures leave their field nil.
func (e *Extractor) gather(ctx context.Context, rawURL string, page *models.Page, fetch bool) (*Evidence, error) {
	raw, u, err := Normalize(rawURL)
	if err != nil {
		return nil, err
	}

	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	ev := &Evidence{
		Raw:        raw,
		URL:        u,
		Page:       page,
		Shorteners: e.Shorteners,
		Now:        now(),
	}
	t := e.timeouts()
	log := e.Log
	if log == nil {
		log = logger.Nop()
	}
	host := u.Hostname()

	g, gctx := errgroup.WithContext(ctx)

	if fetch && e.Fetcher != nil {
		g.Go(func() error {
			p, err := bounded(gctx, t.Fetch, func(c context.Context) (*models.Page, error) {
				return e.Fetcher.FetchPage(c, raw)
			})
			if err != nil {
				log.Warn("page fetch failed", "url", raw, "error", err)
				return nil
			}
			ev.Page = p
			return nil
		})
	}
	if e.Whois != nil {
		g.Go(func() error {
			d, err := bounded(gctx, t.Whois, func(c context.Context) (*models.DomainInfo, error) {
				return e.Whois.Lookup(c, host)
			})
			if err != nil {
				if !errors.Is(err, lookup.ErrNotApplicable) {
					log.Warn("whois lookup failed", "host", host, "error", err)
				}
				return nil
			}
			ev.Domain = d
			return nil
		})
	}
	if e.Certs != nil {
		g.Go(func() error {
			p := "443"
			if u.Scheme == "https" && u.Port() != "" {
				p = u.Port()
			}
			info, err := bounded(gctx, t.TLS, func(c context.Context) (*models.TLSInfo, error) {
				return e.Certs.Probe(c, host, p)
			})
			if err != nil {
				log.Warn("tls probe failed", "host", host, "error", err)
				return nil
			}
			ev.TLS = info
			return nil
		})
	}
	if e.Reputation != nil {
		g.Go(func() error {
			listed, err := bounded(gctx, t.Reputation, func(c context.Context) (bool, error) {
				return e.Reputation.Listed(c, raw, host)
			})
			if err != nil {
				log.Warn("reputation lookup failed", "host", host, "error", err)
				return nil
			}
			ev.Listed = &listed
			return nil
		})
	}
	_ = g.Wait()

	return ev, nil
}

func (e *Extractor) timeouts() Timeouts {
	t := e.Timeouts
	d := DefaultTimeouts
	if t.Fetch <= 0 {
		t.Fetch = d.Fetch
	}
	if t.Whois <= 0 {
		t.Whois = d.Whois
	}
	if t.TLS <= 0 {
		t.TLS = d.TLS
	}
	if t.Reputation <= 0 {
		t.Reputation = d.Reputation
	}
	return t
}

// bounded runs fn under its own deadline and converts an expired deadline
// into lookup.ErrLookupTimeout even when fn ignores its context.
func bounded[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		ch <- result{v, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil && ctx.Err() != nil && !errors.Is(r.err, lookup.ErrLookupTimeout) {
			r.err = errors.Join(lookup.ErrLookupTimeout, r.err)
		}
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, lookup.ErrLookupTimeout
	}
}
