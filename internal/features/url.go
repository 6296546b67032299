package features

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// Normalize trims rawURL, defaults the scheme to http and validates the host.
// Errors wrap ErrInvalidInput.
func Normalize(rawURL string) (string, *url.URL, error) {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return "", nil, fmt.Errorf("%w: empty url", ErrInvalidInput)
	}
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		if strings.Contains(s, "://") {
			return "", nil, fmt.Errorf("%w: unsupported scheme in %q", ErrInvalidInput, s)
		}
		s = "http://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	host := u.Hostname()
	if host == "" {
		return "", nil, fmt.Errorf("%w: missing host in %q", ErrInvalidInput, s)
	}
	if !validHost(host) {
		return "", nil, fmt.Errorf("%w: bad host %q", ErrInvalidInput, host)
	}
	return s, u, nil
}

// hostProfile maps like lookup but drops STD3 and hyphen rules; underscores,
// leading dashes and "--" in labels are routine in the wild.
var hostProfile = idna.New(
	idna.MapForLookup(),
	idna.Transitional(true),
	idna.StrictDomainName(false),
	idna.CheckHyphens(false),
)

func validHost(host string) bool {
	if net.ParseIP(host) != nil || strings.EqualFold(host, "localhost") {
		return true
	}
	if !strings.Contains(strings.Trim(host, "."), ".") {
		return false
	}
	_, err := hostProfile.ToASCII(host)
	return err == nil
}

// registrableDomain returns eTLD+1 for host, or host itself for IPs and
// names the public suffix list cannot split.
func registrableDomain(host string) string {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if net.ParseIP(host) != nil {
		return host
	}
	if d, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return d
	}
	return host
}

// subdomainDepth counts labels to the left of the registrable domain.
func subdomainDepth(host string) int {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if net.ParseIP(host) != nil {
		return 0
	}
	reg := registrableDomain(host)
	if reg == host {
		return 0
	}
	rest := strings.TrimSuffix(host, "."+reg)
	return len(strings.Split(rest, "."))
}

// foreign reports whether ref, resolved against base, lives on a different
// registrable domain. Relative references are never foreign.
func foreign(base *url.URL, ref string) bool {
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return false
	}
	if base != nil {
		r = base.ResolveReference(r)
	}
	if r.Hostname() == "" {
		return false
	}
	if base == nil {
		return true
	}
	return registrableDomain(r.Hostname()) != registrableDomain(base.Hostname())
}
