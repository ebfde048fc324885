// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package export

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

// TLSFiles locates the certificates an exporter uses to reach a collector.
type TLSFiles struct {
	// CAFile is a PEM bundle of trusted roots. Empty means system roots.
	CAFile string
	// CertFile and KeyFile enable mutual TLS when both are set.
	CertFile string
	KeyFile  string

	ServerName string
	SkipVerify bool
}

// Build loads the files into a client TLS config with a TLS 1.2 floor.
func (f TLSFiles) Build() (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		ServerName:         f.ServerName,
		InsecureSkipVerify: f.SkipVerify, //nolint:gosec // opt-in for local collectors
	}

	if f.CAFile != "" {
		pem, err := os.ReadFile(f.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", f.CAFile)
		}
		cfg.RootCAs = pool
	}

	switch {
	case f.CertFile != "" && f.KeyFile != "":
		cert, err := tls.LoadX509KeyPair(f.CertFile, f.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	case f.CertFile != "" || f.KeyFile != "":
		return nil, errors.New("client certificate and key must be set together")
	}
	return cfg, nil
}

// ValidateTLSConfig rejects configs that allow protocol versions below
// TLS 1.2.
func ValidateTLSConfig(cfg *tls.Config) error {
	if cfg.MinVersion != 0 && cfg.MinVersion < tls.VersionTLS12 {
		return fmt.Errorf("minimum TLS version %#x is below TLS 1.2", cfg.MinVersion)
	}
	return nil
}
