// Package gatewayconfig resolves a JSON configuration file into the
// three products the rest of the gateway needs: a bind address, a server
// TLS identity, and a routing table. It is the gateway's only interface
// boundary with configuration loading.
package gatewayconfig

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wolfpup-software/gateway/internal/gatewayerr"
	"github.com/wolfpup-software/gateway/internal/routetable"
)

// addressPair mirrors the on-disk [arrival_uri, destination_uri] shape.
type addressPair [2]string

// raw is the on-disk JSON shape, preserving both current and legacy key
// spellings exactly.
type raw struct {
	HostAndPort string `json:"host_and_port"`
	Host        string `json:"host"`

	KeyFilepath  string `json:"key_filepath"`
	CertFilepath string `json:"cert_filepath"`

	Addresses []addressPair `json:"addresses"`

	DangerousSelfSigned []addressPair `json:"dangerous_self_signed_addresses"`
	DangerousUnsigned   []addressPair `json:"dangerous_unsigned_addresses"`
}

// Resolved holds everything the gateway needs to start serving.
type Resolved struct {
	Addr     string
	Identity *tls.Config
	Routes   *routetable.Table
}

// Load reads, decodes, and resolves the configuration file at path. All
// failures are wrapped in gatewayerr.ErrConfigInvalid; startup aborts
// before any listener is created.
func Load(path string) (*Resolved, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w: %w", gatewayerr.ErrConfigInvalid, err)
	}
	dir := filepath.Dir(absPath)

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w: %w", gatewayerr.ErrConfigInvalid, err)
	}

	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse config json: %w: %w", gatewayerr.ErrConfigInvalid, err)
	}

	addr := r.HostAndPort
	if addr == "" {
		addr = r.Host
	}
	if addr == "" {
		return nil, fmt.Errorf("host_and_port is required: %w", gatewayerr.ErrConfigInvalid)
	}

	keyPath, err := resolveRegularFile(dir, r.KeyFilepath)
	if err != nil {
		return nil, fmt.Errorf("key_filepath: %w: %w", gatewayerr.ErrConfigInvalid, err)
	}
	certPath, err := resolveRegularFile(dir, r.CertFilepath)
	if err != nil {
		return nil, fmt.Errorf("cert_filepath: %w: %w", gatewayerr.ErrConfigInvalid, err)
	}

	identity, err := loadIdentity(certPath, keyPath)
	if err != nil {
		return nil, err
	}

	dangerous := r.DangerousSelfSigned
	if len(dangerous) == 0 {
		dangerous = r.DangerousUnsigned
	}

	routes, err := routetable.New(toPairs(r.Addresses), toPairs(dangerous))
	if err != nil {
		return nil, err
	}

	return &Resolved{Addr: addr, Identity: identity, Routes: routes}, nil
}

func toPairs(in []addressPair) []routetable.Pair {
	out := make([]routetable.Pair, len(in))
	for i, p := range in {
		out[i] = routetable.Pair{Arrival: p[0], Destination: p[1]}
	}
	return out
}

// resolveRegularFile resolves rel against dir and confirms it names an
// existing regular file, never a directory.
func resolveRegularFile(dir, rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("path not set")
	}

	abs := rel
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(dir, rel)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", abs, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory, expected a regular file", abs)
	}

	return abs, nil
}

// loadIdentity builds the gateway's single static server TLS identity
// from a certificate chain and a PKCS#8 private key, both PEM-encoded.
// ALPN is configured to offer HTTP/2 before HTTP/1.1.
func loadIdentity(certPath, keyPath string) (*tls.Config, error) {
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("read cert: %w: %w", gatewayerr.ErrConfigInvalid, err)
	}
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("read key: %w: %w", gatewayerr.ErrConfigInvalid, err)
	}

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("build tls identity: %w: %w", gatewayerr.ErrConfigInvalid, err)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{"h2", "http/1.1"},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
