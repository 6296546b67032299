package features

import (
	"net"
	"net/url"
	"regexp"
	"strings"
	"time"

	"phishguard/internal/models"
)

// Source names the input a feature is computed from.
type Source string

const (
	SourceURL        Source = "url"
	SourceContent    Source = "content"
	SourceDomain     Source = "whois"
	SourceTLS        Source = "tls"
	SourceReputation Source = "reputation"
	SourceNone       Source = "none"
)

// Unknown is the value of every feature whose source could not be obtained.
const Unknown = 0

// Evidence is everything a request gathered. Nil fields mean unavailable.
type Evidence struct {
	Raw        string
	URL        *url.URL
	Page       *models.Page
	Domain     *models.DomainInfo
	TLS        *models.TLSInfo
	Listed     *bool
	Shorteners []string
	Now        time.Time
}

func (ev *Evidence) available(s Source) bool {
	switch s {
	case SourceURL:
		return ev.URL != nil
	case SourceContent:
		return ev.Page != nil
	case SourceDomain:
		return ev.Domain != nil
	case SourceTLS:
		return ev.TLS != nil
	case SourceReputation:
		return ev.Listed != nil
	}
	return false
}

type Feature struct {
	Name    string
	Source  Source
	Compute func(ev *Evidence) int
}

// catalog is the training column order. Never reorder, insert or remove.
var catalog = []Feature{
	{"having_ip_address", SourceURL, havingIPAddress},
	{"url_length", SourceURL, urlLength},
	{"shortining_service", SourceURL, shorteningService},
	{"having_at_symbol", SourceURL, havingAtSymbol},
	{"double_slash_redirecting", SourceURL, doubleSlashRedirecting},
	{"prefix_suffix", SourceURL, prefixSuffix},
	{"having_sub_domain", SourceURL, havingSubDomain},
	{"sslfinal_state", SourceTLS, sslFinalState},
	{"domain_registration_length", SourceDomain, domainRegistrationLength},
	{"favicon", SourceContent, favicon},
	{"port", SourceURL, port},
	{"https_token", SourceURL, httpsToken},
	{"request_url", SourceContent, requestURL},
	{"url_of_anchor", SourceContent, urlOfAnchor},
	{"links_in_tags", SourceContent, linksInTags},
	{"sfh", SourceContent, sfh},
	{"submitting_to_email", SourceContent, submittingToEmail},
	{"abnormal_url", SourceDomain, abnormalURL},
	{"redirect", SourceContent, redirect},
	{"on_mouseover", SourceContent, onMouseOver},
	{"rightclick", SourceContent, rightClick},
	{"popupwindow", SourceContent, popupWindow},
	{"iframe", SourceContent, iframe},
	{"age_of_domain", SourceDomain, ageOfDomain},
	{"dnsrecord", SourceDomain, dnsRecord},
	{"web_traffic", SourceNone, nil},
	{"page_rank", SourceNone, nil},
	{"google_index", SourceNone, nil},
	{"links_pointing_to_page", SourceNone, nil},
	{"statistical_report", SourceReputation, statisticalReport},
}

// Len is the fixed vector length.
func Len() int { return len(catalog) }

func Catalog() []Feature { return append([]Feature(nil), catalog...) }

func Names() []string {
	out := make([]string, len(catalog))
	for i, f := range catalog {
		out[i] = f.Name
	}
	return out
}

// Compute evaluates the catalog over ev. It performs no I/O.
func Compute(ev *Evidence) models.FeatureVector {
	vec := make(models.FeatureVector, len(catalog))
	for i, f := range catalog {
		v := Unknown
		if f.Compute != nil && ev.available(f.Source) {
			v = f.Compute(ev)
		}
		vec[i] = models.FeatureValue{Name: f.Name, Value: v}
	}
	return vec
}

func flag(b bool) int {
	if b {
		return 1
	}
	return -1
}

const year = 365 * 24 * time.Hour

var rightClickRe = regexp.MustCompile(`event\.button\s*==\s*2`)

func havingIPAddress(ev *Evidence) int {
	return -flag(net.ParseIP(ev.URL.Hostname()) != nil)
}

func urlLength(ev *Evidence) int { return len(ev.Raw) }

func shorteningService(ev *Evidence) int {
	host := strings.ToLower(ev.URL.Hostname())
	for _, s := range ev.Shorteners {
		s = strings.ToLower(s)
		if host == s || strings.HasSuffix(host, "."+s) {
			return 1
		}
	}
	return -1
}

func havingAtSymbol(ev *Evidence) int { return flag(strings.Contains(ev.Raw, "@")) }

func doubleSlashRedirecting(ev *Evidence) int {
	i := strings.Index(ev.Raw, "://")
	return flag(i >= 0 && strings.Contains(ev.Raw[i+3:], "//"))
}

func prefixSuffix(ev *Evidence) int { return flag(strings.Contains(ev.URL.Hostname(), "-")) }

func havingSubDomain(ev *Evidence) int {
	if n := subdomainDepth(ev.URL.Hostname()); n > 0 {
		return n
	}
	return -1
}

func sslFinalState(ev *Evidence) int { return flag(ev.TLS.Valid) }

func domainRegistrationLength(ev *Evidence) int {
	d := ev.Domain
	switch {
	case !d.Registered:
		return -1
	case !d.ExpiresAt.IsZero():
		return flag(d.ExpiresAt.Sub(ev.Now) > year)
	case !d.CreatedAt.IsZero():
		return 1
	}
	return Unknown
}

func favicon(ev *Evidence) int { return flag(ev.Page.Favicon) }

func port(ev *Evidence) int { return flag(ev.URL.Port() != "") }

func httpsToken(ev *Evidence) int { return flag(ev.URL.Scheme == "https") }

func pageBase(ev *Evidence) *url.URL {
	if ev.Page.FinalURL != "" {
		if u, err := url.Parse(ev.Page.FinalURL); err == nil {
			return u
		}
	}
	return ev.URL
}

func requestURL(ev *Evidence) int {
	srcs := ev.Page.MediaSources
	if len(srcs) == 0 {
		return -1
	}
	base := pageBase(ev)
	n := 0
	for _, s := range srcs {
		if foreign(base, s) {
			n++
		}
	}
	return flag(2*n >= len(srcs))
}

func urlOfAnchor(ev *Evidence) int {
	for _, a := range ev.Page.Anchors {
		if strings.Contains(a, "http") {
			return 1
		}
	}
	return -1
}

func linksInTags(ev *Evidence) int { return len(ev.Page.Anchors) }

func sfh(ev *Evidence) int {
	base := pageBase(ev)
	for _, f := range ev.Page.Forms {
		a := strings.ToLower(strings.TrimSpace(f.Action))
		if a == "" || a == "about:blank" || strings.HasPrefix(a, "mailto:") || foreign(base, f.Action) {
			return 1
		}
	}
	return -1
}

func submittingToEmail(ev *Evidence) int {
	for _, f := range ev.Page.Forms {
		if f.HasMailto {
			return 1
		}
	}
	return -1
}

func abnormalURL(ev *Evidence) int {
	d := strings.ToLower(ev.Domain.Domain)
	if !ev.Domain.Registered || d == "" {
		return 1
	}
	return flag(!strings.Contains(strings.ToLower(ev.URL.Hostname()), d))
}

func redirect(ev *Evidence) int { return flag(ev.Page.Redirects > 0) }

func onMouseOver(ev *Evidence) int { return flag(ev.Page.MouseOver) }

func rightClick(ev *Evidence) int { return flag(rightClickRe.MatchString(ev.Page.ScriptText)) }

func popupWindow(ev *Evidence) int {
	return flag(strings.Contains(ev.Page.ScriptText, "window.open"))
}

func iframe(ev *Evidence) int { return flag(ev.Page.IFrames > 0) }

func ageOfDomain(ev *Evidence) int {
	d := ev.Domain
	if !d.Registered {
		return -1
	}
	if d.CreatedAt.IsZero() {
		return Unknown
	}
	return flag(ev.Now.Sub(d.CreatedAt) > year)
}

func dnsRecord(ev *Evidence) int {
	return flag(ev.Domain.Registered && len(ev.Domain.NameServers) > 0)
}

func statisticalReport(ev *Evidence) int { return flag(*ev.Listed) }
