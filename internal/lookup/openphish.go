package lookup

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	DefaultOpenPhishURL = "https://raw.githubusercontent.com/openphish/public_feed/refs/heads/main/feed.txt"
	openPhishCacheTTL   = 12 * time.Hour
)

// OpenPhishFeed answers whether a URL or its host appears in the OpenPhish
// public feed. The feed is cached for openPhishCacheTTL; a failed refresh
// keeps serving the previous copy.
type OpenPhishFeed struct {
	url    string
	client *http.Client
	ttl    time.Duration

	mu        sync.RWMutex
	entries   map[string]bool
	fetchedAt time.Time
}

func NewOpenPhishFeed(feedURL string, timeout time.Duration) *OpenPhishFeed {
	return &OpenPhishFeed{
		url:    feedURL,
		client: &http.Client{Timeout: timeout},
		ttl:    openPhishCacheTTL,
	}
}

func (f *OpenPhishFeed) Listed(ctx context.Context, rawURL, host string) (bool, error) {
	feed, err := f.load(ctx)
	if err != nil {
		return false, err
	}
	return feed[strings.ToLower(host)] || feed[strings.ToLower(rawURL)], nil
}

func (f *OpenPhishFeed) load(ctx context.Context) (map[string]bool, error) {
	f.mu.RLock()
	if f.entries != nil && time.Since(f.fetchedAt) < f.ttl {
		defer f.mu.RUnlock()
		return f.entries, nil
	}
	f.mu.RUnlock()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.entries != nil && time.Since(f.fetchedAt) < f.ttl {
		return f.entries, nil
	}

	feed, err := f.fetch(ctx)
	if err != nil {
		if f.entries != nil {
			return f.entries, nil
		}
		return nil, err
	}
	f.entries = feed
	f.fetchedAt = time.Now()
	return feed, nil
}

func (f *OpenPhishFeed) fetch(ctx context.Context) (map[string]bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("openphish: %w", ErrLookupTimeout)
		}
		return nil, fmt.Errorf("openphish: %w: %v", ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openphish: %w: status %d", ErrFeedUnavailable, resp.StatusCode)
	}

	feed := make(map[string]bool)
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parsed, err := url.Parse(line)
		if err == nil && parsed.Host != "" {
			feed[strings.ToLower(parsed.Hostname())] = true
			feed[strings.ToLower(line)] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("openphish: %w: %v", ErrFeedUnavailable, err)
	}
	if len(feed) == 0 {
		return nil, fmt.Errorf("openphish: %w: empty feed", ErrFeedUnavailable)
	}
	return feed, nil
}
