package features

import (
	"errors"
	"net/url"
	"reflect"
	"testing"
	"time"

	"phishguard/internal/config"
	"phishguard/internal/models"
)

var trainingOrder = []string{
	"having_ip_address", "url_length", "shortining_service", "having_at_symbol",
	"double_slash_redirecting", "prefix_suffix", "having_sub_domain", "sslfinal_state",
	"domain_registration_length", "favicon", "port", "https_token", "request_url",
	"url_of_anchor", "links_in_tags", "sfh", "submitting_to_email", "abnormal_url",
	"redirect", "on_mouseover", "rightclick", "popupwindow", "iframe", "age_of_domain",
	"dnsrecord", "web_traffic", "page_rank", "google_index", "links_pointing_to_page",
	"statistical_report",
}

var fixedNow = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestCatalogOrder(t *testing.T) {
	if Len() != 30 {
		t.Fatalf("want 30 features, got %d", Len())
	}
	if !reflect.DeepEqual(Names(), trainingOrder) {
		t.Fatalf("catalog order drifted:\n got %v\nwant %v", Names(), trainingOrder)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
		ok       bool
	}{
		{"example.com", "http://example.com", true},
		{"  https://Example.com/a?b=1 ", "https://Example.com/a?b=1", true},
		{"HTTP://example.com", "HTTP://example.com", true},
		{"http://192.168.1.1:8080/x", "http://192.168.1.1:8080/x", true},
		{"http://[::1]/", "http://[::1]/", true},
		{"localhost:3000", "http://localhost:3000", true},
		{"http://login_paypal.example.com/", "http://login_paypal.example.com/", true},
		{"http://-paypal.example.com", "http://-paypal.example.com", true},
		{"http://ww--paypal.com", "http://ww--paypal.com", true},
		{"http://bücher.example/", "http://bücher.example/", true},
		{"not a url", "", false},
		{"", "", false},
		{"ftp://example.com", "", false},
		{"http://", "", false},
		{"http://nodots/", "", false},
	}
	for _, tt := range tests {
		got, _, err := Normalize(tt.in)
		if tt.ok {
			if err != nil || got != tt.want {
				t.Errorf("Normalize(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Normalize(%q) err = %v, want ErrInvalidInput", tt.in, err)
		}
	}
}

func urlEvidence(t *testing.T, raw string) *Evidence {
	t.Helper()
	norm, u, err := Normalize(raw)
	if err != nil {
		t.Fatalf("normalize %q: %v", raw, err)
	}
	return &Evidence{Raw: norm, URL: u, Shorteners: config.DefaultShorteners, Now: fixedNow}
}

func value(t *testing.T, vec models.FeatureVector, name string) int {
	t.Helper()
	v, ok := vec.Get(name)
	if !ok {
		t.Fatalf("feature %q missing", name)
	}
	return v
}

func TestURLFeatures(t *testing.T) {
	tests := []struct {
		url   string
		name  string
		value int
	}{
		{"http://192.168.0.1/login", "having_ip_address", -1},
		{"http://example.com", "having_ip_address", 1},
		{"http://example.com", "url_length", len("http://example.com")},
		{"https://bit.ly/abc", "shortining_service", 1},
		{"https://www.tinyurl.com/abc", "shortining_service", 1},
		{"https://reddit.com/r/go", "shortining_service", -1},
		{"http://user@example.com", "having_at_symbol", 1},
		{"http://example.com", "having_at_symbol", -1},
		{"http://example.com//http://evil.test", "double_slash_redirecting", 1},
		{"https://example.com/a/b", "double_slash_redirecting", -1},
		{"http://secure-login.example.com", "prefix_suffix", 1},
		{"http://example.com", "prefix_suffix", -1},
		{"http://example.com", "having_sub_domain", -1},
		{"http://www.example.com", "having_sub_domain", 1},
		{"http://a.b.example.co.uk", "having_sub_domain", 2},
		{"http://10.0.0.1", "having_sub_domain", -1},
		{"http://example.com:8443", "port", 1},
		{"http://example.com", "port", -1},
		{"https://example.com", "https_token", 1},
		{"http://example.com", "https_token", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name+" "+tt.url, func(t *testing.T) {
			vec := Compute(urlEvidence(t, tt.url))
			if got := value(t, vec, tt.name); got != tt.value {
				t.Fatalf("%s(%q) = %d, want %d", tt.name, tt.url, got, tt.value)
			}
		})
	}
}

func TestUnavailableSourcesUseSentinel(t *testing.T) {
	vec := Compute(urlEvidence(t, "https://example.com"))
	if vec.Len() != Len() {
		t.Fatalf("len = %d", vec.Len())
	}
	for _, f := range Catalog() {
		if f.Source == SourceURL {
			continue
		}
		if got := value(t, vec, f.Name); got != Unknown {
			t.Errorf("%s = %d, want sentinel %d", f.Name, got, Unknown)
		}
	}
}

func phishyPage() *models.Page {
	return &models.Page{
		FinalURL:     "http://login-example.test/verify",
		Redirects:    1,
		Forms:        []models.Form{{Action: "mailto:x@evil.test", HasMailto: true}},
		Anchors:      []string{"http://elsewhere.test", "/a", "#"},
		MediaSources: []string{"https://cdn.elsewhere.test/a.png", "/b.png"},
		IFrames:      2,
		ScriptText:   "if (event.button == 2) {} window.open('x')",
		MouseOver:    true,
	}
}

func TestContentFeatures(t *testing.T) {
	ev := urlEvidence(t, "http://login-example.test/verify")
	ev.Page = phishyPage()
	vec := Compute(ev)

	want := map[string]int{
		"favicon":             -1,
		"request_url":         1,
		"url_of_anchor":       1,
		"links_in_tags":       3,
		"sfh":                 1,
		"submitting_to_email": 1,
		"redirect":            1,
		"on_mouseover":        1,
		"rightclick":          1,
		"popupwindow":         1,
		"iframe":              1,
	}
	for name, v := range want {
		if got := value(t, vec, name); got != v {
			t.Errorf("%s = %d, want %d", name, got, v)
		}
	}
}

func TestContentFeaturesCleanPage(t *testing.T) {
	ev := urlEvidence(t, "https://www.example.com/")
	ev.Page = &models.Page{
		Favicon:      true,
		Forms:        []models.Form{{Action: "/search"}, {Action: "https://accounts.example.com/login"}},
		Anchors:      []string{"/about"},
		MediaSources: []string{"/logo.png", "https://static.example.com/x.png", "https://cdn.other.test/y.png"},
	}
	vec := Compute(ev)
	want := map[string]int{
		"favicon": 1, "request_url": -1, "url_of_anchor": -1, "links_in_tags": 1,
		"sfh": -1, "submitting_to_email": -1, "redirect": -1, "on_mouseover": -1,
		"rightclick": -1, "popupwindow": -1, "iframe": -1,
	}
	for name, v := range want {
		if got := value(t, vec, name); got != v {
			t.Errorf("%s = %d, want %d", name, got, v)
		}
	}
}

func TestDomainFeatures(t *testing.T) {
	tests := []struct {
		name   string
		host   string
		domain models.DomainInfo
		want   map[string]int
	}{
		{
			name: "old registered",
			host: "www.example.com",
			domain: models.DomainInfo{
				Domain: "example.com", Registered: true,
				CreatedAt:   fixedNow.AddDate(-20, 0, 0),
				ExpiresAt:   fixedNow.AddDate(3, 0, 0),
				NameServers: []string{"a.iana-servers.net"},
			},
			want: map[string]int{"domain_registration_length": 1, "abnormal_url": -1, "age_of_domain": 1, "dnsrecord": 1},
		},
		{
			name: "fresh and expiring",
			host: "paypal-secure.test",
			domain: models.DomainInfo{
				Domain: "other.test", Registered: true,
				CreatedAt: fixedNow.AddDate(0, -1, 0),
				ExpiresAt: fixedNow.AddDate(0, 11, 0),
			},
			want: map[string]int{"domain_registration_length": -1, "abnormal_url": 1, "age_of_domain": -1, "dnsrecord": -1},
		},
		{
			name:   "unregistered",
			host:   "ghost.test",
			domain: models.DomainInfo{Domain: "ghost.test"},
			want:   map[string]int{"domain_registration_length": -1, "abnormal_url": 1, "age_of_domain": -1, "dnsrecord": -1},
		},
		{
			name:   "registered without dates",
			host:   "example.org",
			domain: models.DomainInfo{Domain: "example.org", Registered: true},
			want:   map[string]int{"domain_registration_length": 0, "abnormal_url": -1, "age_of_domain": 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := urlEvidence(t, "http://"+tt.host)
			d := tt.domain
			ev.Domain = &d
			vec := Compute(ev)
			for name, v := range tt.want {
				if got := value(t, vec, name); got != v {
					t.Errorf("%s = %d, want %d", name, got, v)
				}
			}
		})
	}
}

func TestTLSAndReputationFeatures(t *testing.T) {
	ev := urlEvidence(t, "https://example.com")
	ev.TLS = &models.TLSInfo{Valid: true}
	listed := true
	ev.Listed = &listed
	vec := Compute(ev)
	if got := value(t, vec, "sslfinal_state"); got != 1 {
		t.Errorf("sslfinal_state = %d", got)
	}
	if got := value(t, vec, "statistical_report"); got != 1 {
		t.Errorf("statistical_report = %d", got)
	}

	ev.TLS = &models.TLSInfo{Valid: false}
	listed = false
	vec = Compute(ev)
	if got := value(t, vec, "sslfinal_state"); got != -1 {
		t.Errorf("sslfinal_state = %d", got)
	}
	if got := value(t, vec, "statistical_report"); got != -1 {
		t.Errorf("statistical_report = %d", got)
	}
}

func TestProviderlessFeaturesAreConstant(t *testing.T) {
	ev := urlEvidence(t, "https://example.com")
	ev.Page = phishyPage()
	for _, name := range []string{"web_traffic", "page_rank", "google_index", "links_pointing_to_page"} {
		if got := value(t, Compute(ev), name); got != 0 {
			t.Errorf("%s = %d, want 0", name, got)
		}
	}
}

func TestForeign(t *testing.T) {
	base, _ := url.Parse("https://www.example.com/login")
	tests := map[string]bool{
		"/relative":                    false,
		"img/a.png":                    false,
		"https://cdn.example.com/a.js": false,
		"//static.other.test/a.png":    true,
		"https://other.test":           true,
		"::bad::":                      false,
	}
	for ref, want := range tests {
		if got := foreign(base, ref); got != want {
			t.Errorf("foreign(%q) = %v, want %v", ref, got, want)
		}
	}
}
