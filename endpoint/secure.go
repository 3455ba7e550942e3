package endpoint

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"os"
	"sync"
)

// ErrNoKeyFile is returned by SecureServer when the Endpoint has no key
// material configured.
var ErrNoKeyFile = errors.New("endpoint: no key file configured")

// SecureContext holds the TLS material an Endpoint's secure servers and
// outbound wss:// connections share, mirroring the setKeyFile/setTrustStore
// pair on org.miktim.websocket.WebSocket. Go has no JKS keystore reader, so
// both setters take PEM files (a certificate/key pair, or a CA bundle)
// instead of a keystore path plus passphrase. Neither setter takes a
// passphrase: no PEM decryption is attempted, so an encrypted private key
// makes SetKeyFile return an error.
type SecureContext struct {
	mu   sync.RWMutex
	cert *tls.Certificate
	pool *x509.CertPool
}

// SetKeyFile loads a PEM certificate chain and private key from certPath and
// keyPath and installs them as the context's server certificate.
func (s *SecureContext) SetKeyFile(certPath, keyPath string) error {
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cert = &cert
	s.mu.Unlock()
	return nil
}

// ResetKeyFile clears any previously configured certificate.
func (s *SecureContext) ResetKeyFile() {
	s.mu.Lock()
	s.cert = nil
	s.mu.Unlock()
}

// SetTrustStore loads a PEM bundle of trusted CA certificates from path,
// used to validate client certificates on secure servers and peer
// certificates when dialing wss:// connections.
func (s *SecureContext) SetTrustStore(path string) error {
	pem, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return errors.New("endpoint: no certificates found in trust store")
	}
	s.mu.Lock()
	s.pool = pool
	s.mu.Unlock()
	return nil
}

// serverConfig builds a *tls.Config for a secure Server, or ErrNoKeyFile if
// no certificate has been configured.
func (s *SecureContext) serverConfig(requireClientCert bool) (*tls.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cert == nil {
		return nil, ErrNoKeyFile
	}
	cfg := &tls.Config{Certificates: []tls.Certificate{*s.cert}}
	if s.pool != nil {
		cfg.ClientCAs = s.pool
		if requireClientCert {
			cfg.ClientAuth = tls.RequireAndVerifyClientCert
		} else {
			cfg.ClientAuth = tls.VerifyClientCertIfGiven
		}
	}
	return cfg, nil
}

// clientConfig builds a *tls.Config for an outbound wss:// dial. The
// platform default root pool is used unless a trust store was configured.
func (s *SecureContext) clientConfig(serverName string) *tls.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg := &tls.Config{ServerName: serverName}
	if s.pool != nil {
		cfg.RootCAs = s.pool
	}
	return cfg
}
