// Package dial implements the two upstream dial primitives behind the
// gateway's four (HTTP version, scheme) paths: plain TCP, and TCP with a
// client-side TLS handshake layered on top.
package dial

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/wolfpup-software/gateway/internal/gatewayerr"
)

// dialer is shared across every dial; it is stateless (no per-request
// data) so sharing it violates none of the gateway's ownership rules.
var dialer = &net.Dialer{
	Timeout:   30 * time.Second,
	KeepAlive: 30 * time.Second,
}

// TCP opens a plain connection to authority (host:port). Failures map to
// gatewayerr.ErrUpstreamDial.
func TCP(ctx context.Context, authority string) (net.Conn, error) {
	conn, err := dialer.DialContext(ctx, "tcp", authority)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w: %w", authority, gatewayerr.ErrUpstreamDial, err)
	}
	return conn, nil
}

// TLS opens a connection to authority and performs a client-side TLS
// handshake with host as the SNI / verified name. dangerous disables
// certificate validation for this dial only; it is never a process-wide
// toggle, so mixing safe and dangerous routes in the same table is safe.
// alpn is offered via NextProtos so the caller's chosen upstream protocol
// (h2 or http/1.1) is the one actually negotiated, rather than left to
// whatever the upstream defaults to.
//
// Connect failures map to gatewayerr.ErrUpstreamDial; handshake failures
// map to the distinct gatewayerr.ErrUpstreamTLS, per the gateway's
// two-kind dial failure taxonomy.
func TLS(ctx context.Context, host, authority string, dangerous bool, alpn ...string) (*tls.Conn, error) {
	conn, err := TCP(ctx, authority)
	if err != nil {
		return nil, err
	}

	cfg := &tls.Config{
		ServerName:         host,
		InsecureSkipVerify: dangerous,
		NextProtos:         alpn,
	}

	tlsConn := tls.Client(conn, cfg)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake with %s: %w: %w", authority, gatewayerr.ErrUpstreamTLS, err)
	}

	return tlsConn, nil
}
