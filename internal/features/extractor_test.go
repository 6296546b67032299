package features

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"phishguard/internal/config"
	"phishguard/internal/models"
)

type fakeFetcher struct {
	page  *models.Page
	err   error
	calls int32
}

func (f *fakeFetcher) FetchPage(ctx context.Context, rawURL string) (*models.Page, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	p := *f.page
	return &p, nil
}

type fakeWhois struct{ info models.DomainInfo }

func (f fakeWhois) Lookup(ctx context.Context, host string) (*models.DomainInfo, error) {
	d := f.info
	return &d, nil
}

type fakeCerts struct {
	valid bool
	port  string
}

func (f *fakeCerts) Probe(ctx context.Context, host, port string) (*models.TLSInfo, error) {
	f.port = port
	return &models.TLSInfo{Valid: f.valid}, nil
}

type fakeReputation bool

func (f fakeReputation) Listed(ctx context.Context, rawURL, host string) (bool, error) {
	return bool(f), nil
}

// hanging blocks every call until its context expires.
type hanging struct{}

func (hanging) FetchPage(ctx context.Context, _ string) (*models.Page, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
func (hanging) Lookup(ctx context.Context, _ string) (*models.DomainInfo, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
func (hanging) Probe(ctx context.Context, _, _ string) (*models.TLSInfo, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
func (hanging) Listed(ctx context.Context, _, _ string) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

// stuck ignores its context entirely.
type stuck struct{ release chan struct{} }

func (s stuck) Lookup(ctx context.Context, _ string) (*models.DomainInfo, error) {
	<-s.release
	return &models.DomainInfo{Registered: true}, nil
}

func fullExtractor() (*Extractor, *fakeFetcher) {
	f := &fakeFetcher{page: phishyPage()}
	return &Extractor{
		Fetcher: f,
		Whois: fakeWhois{models.DomainInfo{
			Domain: "example.com", Registered: true,
			CreatedAt:   fixedNow.AddDate(-10, 0, 0),
			ExpiresAt:   fixedNow.AddDate(2, 0, 0),
			NameServers: []string{"ns1.example.com"},
		}},
		Certs:      &fakeCerts{valid: true},
		Reputation: fakeReputation(false),
		Shorteners: config.DefaultShorteners,
		Now:        func() time.Time { return fixedNow },
	}, f
}

func TestExtractAllSources(t *testing.T) {
	e, f := fullExtractor()
	vec, err := e.Extract(context.Background(), "https://www.example.com/login")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if vec.Len() != Len() || !reflect.DeepEqual(vec.Names(), trainingOrder) {
		t.Fatalf("bad vector shape: %v", vec.Names())
	}
	if f.calls != 1 {
		t.Fatalf("fetcher called %d times", f.calls)
	}
	want := map[string]int{
		"sslfinal_state": 1, "age_of_domain": 1, "dnsrecord": 1,
		"statistical_report": -1, "iframe": 1, "abnormal_url": -1,
	}
	for name, v := range want {
		if got := value(t, vec, name); got != v {
			t.Errorf("%s = %d, want %d", name, got, v)
		}
	}
}

func TestExtractInvalidURL(t *testing.T) {
	e, f := fullExtractor()
	vec, err := e.Extract(context.Background(), "not a url")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
	if vec != nil {
		t.Fatal("no vector expected for invalid input")
	}
	if f.calls != 0 {
		t.Fatal("no fetch expected for invalid input")
	}
}

func TestExtractWithoutCollaborators(t *testing.T) {
	e := &Extractor{}
	vec, err := e.Extract(context.Background(), "http://example.com")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if vec.Len() != Len() {
		t.Fatalf("len = %d", vec.Len())
	}
}

func TestExtractTimeoutsFallBackToSentinels(t *testing.T) {
	h := hanging{}
	e := &Extractor{
		Fetcher:    h,
		Whois:      h,
		Certs:      h,
		Reputation: h,
		Timeouts:   Timeouts{Fetch: 20 * time.Millisecond, Whois: 20 * time.Millisecond, TLS: 20 * time.Millisecond, Reputation: 20 * time.Millisecond},
	}
	start := time.Now()
	vec, err := e.Extract(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("extraction did not honor timeouts")
	}
	if vec.Len() != Len() {
		t.Fatalf("len = %d", vec.Len())
	}
	for _, f := range Catalog() {
		if f.Source == SourceURL {
			continue
		}
		if got := value(t, vec, f.Name); got != Unknown {
			t.Errorf("%s = %d, want sentinel", f.Name, got)
		}
	}
}

func TestExtractCollaboratorIgnoringContext(t *testing.T) {
	s := stuck{release: make(chan struct{})}
	defer close(s.release)
	e := &Extractor{Whois: s, Timeouts: Timeouts{Whois: 20 * time.Millisecond}}

	done := make(chan models.FeatureVector, 1)
	go func() {
		vec, _ := e.Extract(context.Background(), "http://example.com")
		done <- vec
	}()
	select {
	case vec := <-done:
		if got := value(t, vec, "age_of_domain"); got != Unknown {
			t.Fatalf("age_of_domain = %d", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("extract hung on a collaborator that ignores its context")
	}
}

func TestExtractFetchFailureDegrades(t *testing.T) {
	e, f := fullExtractor()
	f.err = errors.New("connection refused")
	vec, err := e.Extract(context.Background(), "https://www.example.com")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	for _, name := range []string{"favicon", "iframe", "links_in_tags", "redirect"} {
		if got := value(t, vec, name); got != Unknown {
			t.Errorf("%s = %d, want sentinel", name, got)
		}
	}
	if got := value(t, vec, "sslfinal_state"); got != 1 {
		t.Errorf("other sources must be unaffected, sslfinal_state = %d", got)
	}
}

func TestExtractWithContentSkipsFetch(t *testing.T) {
	e, f := fullExtractor()
	page := &models.Page{Favicon: true}
	vec, err := e.ExtractWithContent(context.Background(), "https://www.example.com", page)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if f.calls != 0 {
		t.Fatal("fetcher must not be called when content is supplied")
	}
	if got := value(t, vec, "favicon"); got != 1 {
		t.Errorf("favicon = %d", got)
	}

	vec, err = e.ExtractWithContent(context.Background(), "https://www.example.com", nil)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got := value(t, vec, "favicon"); got != Unknown {
		t.Errorf("favicon = %d, want sentinel", got)
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	e, _ := fullExtractor()
	first, err := e.Extract(context.Background(), "https://www.example.com/a")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := e.Extract(context.Background(), "https://www.example.com/a")
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs:\n%v\n%v", i, first, again)
		}
	}
}

func TestProbePortFollowsHTTPSURL(t *testing.T) {
	certs := &fakeCerts{valid: true}
	e := &Extractor{Certs: certs}
	if _, err := e.Extract(context.Background(), "https://example.com:8443/"); err != nil {
		t.Fatal(err)
	}
	if certs.port != "8443" {
		t.Fatalf("probed port %q", certs.port)
	}
	if _, err := e.Extract(context.Background(), "http://example.com:8080/"); err != nil {
		t.Fatal(err)
	}
	if certs.port != "443" {
		t.Fatalf("probed port %q", certs.port)
	}
}
