package nstc

import (
	"crypto/tls"
	"crypto/x509"
	"net/http"
	"slices"
)

// TransportProfile decides how the client negotiates TLS with the registry.
// Extraction never depends on it, so tests can swap in a profile that trusts
// a local fixture server.
type TransportProfile interface {
	TLSConfig() (*tls.Config, error)
}

// ProfileFunc adapts a plain function into a TransportProfile.
type ProfileFunc func() (*tls.Config, error)

func (f ProfileFunc) TLSConfig() (*tls.Config, error) {
	return f()
}

// LegacyTLS is the profile the registry requires: TLS 1.2 only, with the
// cipher floor lowered so the server's older suites stay usable.
//
// The chain is still verified against RootCAs (the system pool when nil).
// crypto/x509 does not apply the strict-mode extension checks, so leaf and
// intermediate certificates without a subject key identifier are accepted.
type LegacyTLS struct {
	RootCAs    *x509.CertPool
	ServerName string
}

func (p LegacyTLS) TLSConfig() (*tls.Config, error) {
	return &tls.Config{
		MinVersion:   tls.VersionTLS12,
		MaxVersion:   tls.VersionTLS12,
		CipherSuites: legacyCipherSuites(),
		RootCAs:      p.RootCAs,
		ServerName:   p.ServerName,
	}, nil
}

// legacyCipherSuites lists every TLS 1.2 suite crypto/tls implements,
// including the ones it marks insecure.
func legacyCipherSuites() []uint16 {
	var ids []uint16
	for _, suites := range [][]*tls.CipherSuite{tls.CipherSuites(), tls.InsecureCipherSuites()} {
		for _, suite := range suites {
			if slices.Contains(suite.SupportedVersions, tls.VersionTLS12) {
				ids = append(ids, suite.ID)
			}
		}
	}
	return ids
}

func newTransport(profile TransportProfile) (*http.Transport, error) {
	tlsConfig, err := profile.TLSConfig()
	if err != nil {
		return nil, err
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig
	// the registry only speaks http/1.1
	transport.ForceAttemptHTTP2 = false
	return transport, nil
}
