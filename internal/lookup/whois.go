package lookup

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"phishguard/internal/models"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05.999999Z",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05 MST",
	"2006-01-02",
	"02-Jan-2006",
	"2006.01.02",
	"2006/01/02",
	"02.01.2006",
	"January 2 2006",
}

// WhoisClient resolves registration metadata for the registrable domain of a host.
// Queries share one rate limiter.
type WhoisClient struct {
	query   func(domain string) (string, error)
	limiter *rate.Limiter
}

func NewWhoisClient(timeout time.Duration, perSecond float64) *WhoisClient {
	c := whois.NewClient().SetTimeout(timeout)
	return &WhoisClient{
		query:   func(domain string) (string, error) { return c.Whois(domain) },
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

func (w *WhoisClient) Lookup(ctx context.Context, host string) (*models.DomainInfo, error) {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" || net.ParseIP(host) != nil {
		return nil, ErrNotApplicable
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		domain = host
	}

	if err := w.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("whois %s: %w: %v", domain, ErrLookupTimeout, err)
	}

	type result struct {
		raw string
		err error
	}
	ch := make(chan result, 1)
	go func() {
		raw, err := w.query(domain)
		ch <- result{raw, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("whois %s: %w", domain, ErrLookupTimeout)
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("whois %s: %w", domain, r.err)
		}
		return ParseWhois(domain, r.raw)
	}
}

// ParseWhois converts a raw WHOIS response. An unregistered domain is not an
// error: it yields Registered=false.
func ParseWhois(domain, raw string) (*models.DomainInfo, error) {
	info := &models.DomainInfo{Domain: domain}
	p, err := whoisparser.Parse(raw)
	if err != nil {
		if errors.Is(err, whoisparser.ErrNotFoundDomain) {
			return info, nil
		}
		return nil, fmt.Errorf("parse whois %s: %w", domain, err)
	}
	if p.Domain == nil {
		return info, nil
	}

	info.Registered = true
	if d := strings.ToLower(strings.TrimSpace(p.Domain.Domain)); d != "" {
		info.Domain = d
	}
	info.CreatedAt = parseDate(p.Domain.CreatedDate)
	info.ExpiresAt = parseDate(p.Domain.ExpirationDate)
	for _, ns := range p.Domain.NameServers {
		if ns = strings.ToLower(strings.TrimSpace(ns)); ns != "" {
			info.NameServers = append(info.NameServers, ns)
		}
	}
	return info, nil
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
