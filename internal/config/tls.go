package config

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

// RedisTLS returns the TLS settings for the Redis connection, or nil when
// none of the REDIS_TLS_* variables are set. A rediss:// URL with no extra
// settings still uses go-redis's default TLS.
func (c *Config) RedisTLS() (*tls.Config, error) {
	if c.RedisTLSCert == "" && c.RedisTLSKey == "" && c.RedisTLSCACert == "" && c.RedisTLSServerName == "" {
		return nil, nil
	}

	out := &tls.Config{MinVersion: tls.VersionTLS12, ServerName: c.RedisTLSServerName}

	if c.RedisTLSCert != "" || c.RedisTLSKey != "" {
		pair, err := tls.LoadX509KeyPair(c.RedisTLSCert, c.RedisTLSKey)
		if err != nil {
			return nil, fmt.Errorf("load redis client cert: %w", err)
		}
		out.Certificates = append(out.Certificates, pair)
	}

	if c.RedisTLSCACert != "" {
		roots, err := certPool(c.RedisTLSCACert)
		if err != nil {
			return nil, fmt.Errorf("redis CA: %w", err)
		}
		out.RootCAs = roots
	}
	return out, nil
}

func certPool(path string) (*x509.CertPool, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pemBytes) {
		return nil, errors.New("no certificates found in " + path)
	}
	return pool, nil
}
