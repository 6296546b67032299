package crawler

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"phishguard/internal/models"
	"phishguard/internal/parser"
)

var (
	ErrInvalidURL = errors.New("invalid url")
	ErrNonHTML    = errors.New("non-html content")
)

type HTTPClient struct {
	client    *http.Client
	sizeCap   int64
	userAgent string
	parser    *parser.Parser
}

type Response struct {
	Body        []byte
	FinalURL    string
	ContentType string
	StatusCode  int
	Redirects   int
}

func NewHTTPClient(timeout, dialTimeout time.Duration, sizeCap int64, userAgent string) *HTTPClient {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	if userAgent == "" {
		userAgent = "phishguard/1.0"
	}
	return &HTTPClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		sizeCap:   sizeCap,
		userAgent: userAgent,
		parser:    parser.New(),
	}
}

func (h *HTTPClient) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, ErrInvalidURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return nil, fmt.Errorf("http status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if !strings.Contains(mediaType, "text/html") && !strings.Contains(mediaType, "application/xhtml+xml") && mediaType != "" {
		// still allow if empty (some servers omit), otherwise reject non-html
		return nil, ErrNonHTML
	}

	var body io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		body = gz
	}

	// enforce a size cap
	data, err := io.ReadAll(io.LimitReader(body, h.sizeCap))
	if err != nil {
		return nil, err
	}

	return &Response{
		Body:        data,
		FinalURL:    resp.Request.URL.String(),
		ContentType: contentType,
		StatusCode:  resp.StatusCode,
		Redirects:   redirectCount(resp),
	}, nil
}

// redirectCount walks back through the responses that led to resp.
func redirectCount(resp *http.Response) int {
	n := 0
	for r := resp.Request; r != nil && r.Response != nil; r = r.Response.Request {
		n++
	}
	return n
}

// FetchPage fetches rawURL and parses it. When the original scheme fails
// the other of http/https is tried once.
func (h *HTTPClient) FetchPage(ctx context.Context, rawURL string) (*models.Page, error) {
	resp, err := h.Fetch(ctx, rawURL)
	if err != nil && ctx.Err() == nil {
		if alt := alternateScheme(rawURL); alt != "" {
			var altErr error
			if resp, altErr = h.Fetch(ctx, alt); altErr == nil {
				err = nil
			}
		}
	}
	if err != nil {
		return nil, err
	}

	page, err := h.parser.Extract(bytes.NewReader(resp.Body), resp.ContentType)
	if err != nil {
		return nil, err
	}
	page.FinalURL = resp.FinalURL
	page.StatusCode = resp.StatusCode
	page.Redirects = resp.Redirects
	return &page, nil
}

func alternateScheme(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "https"
	case "https":
		u.Scheme = "http"
	default:
		return ""
	}
	return u.String()
}
