package lookup

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"phishguard/internal/models"
)

// CertProber checks whether a host serves a certificate that verifies for its name.
type CertProber struct {
	timeout time.Duration
	roots   *x509.CertPool // nil means system roots
}

func NewCertProber(timeout time.Duration) *CertProber {
	return &CertProber{timeout: timeout}
}

// WithRoots returns a copy of p that verifies against roots.
func (p *CertProber) WithRoots(roots *x509.CertPool) *CertProber {
	c := *p
	c.roots = roots
	return &c
}

// Probe dials host:port and completes a TLS handshake. A refused connection,
// a non-TLS peer or a failed verification is a definitive answer
// (Valid=false, nil error). Timeouts and other network errors are returned.
func (p *CertProber) Probe(ctx context.Context, host, port string) (*models.TLSInfo, error) {
	if port == "" {
		port = "443"
	}
	d := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: p.timeout},
		Config: &tls.Config{
			ServerName: host,
			RootCAs:    p.roots,
			MinVersion: tls.VersionTLS12,
		},
	}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		if definitiveTLSFailure(err) {
			return &models.TLSInfo{Valid: false}, nil
		}
		var ne net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
			return nil, fmt.Errorf("tls %s: %w", host, ErrLookupTimeout)
		}
		return nil, fmt.Errorf("tls %s: %w", host, err)
	}
	defer conn.Close()

	info := &models.TLSInfo{Valid: true}
	if tc, ok := conn.(*tls.Conn); ok {
		if certs := tc.ConnectionState().PeerCertificates; len(certs) > 0 {
			info.Issuer = certs[0].Issuer.CommonName
			info.NotAfter = certs[0].NotAfter
		}
	}
	return info, nil
}

func definitiveTLSFailure(err error) bool {
	var (
		verr *tls.CertificateVerificationError
		rhe  tls.RecordHeaderError
		uae  x509.UnknownAuthorityError
		he   x509.HostnameError
		cie  x509.CertificateInvalidError
	)
	switch {
	case errors.As(err, &verr), errors.As(err, &rhe), errors.As(err, &uae),
		errors.As(err, &he), errors.As(err, &cie):
		return true
	case errors.Is(err, syscall.ECONNREFUSED):
		return true
	}
	return false
}
