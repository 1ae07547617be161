// Package client performs the gateway's upstream client-side protocol
// handshake and single request/response exchange, for both HTTP/1.1 and
// HTTP/2, over an already-dialed connection.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/net/http2"

	"github.com/wolfpup-software/gateway/internal/gatewayerr"
)

// SendHTTP1 performs exactly one HTTP/1.1 request over conn and returns
// its response. The underlying *http.Transport is built fresh per call,
// never reused and never pooled, so no connection survives past the
// single request it was dialed for.
func SendHTTP1(ctx context.Context, conn net.Conn, req *http.Request) (*http.Response, error) {
	var used sync.Once
	dialOnce := func(context.Context, string, string) (net.Conn, error) {
		var c net.Conn
		used.Do(func() { c = conn })
		if c == nil {
			return nil, errors.New("upstream client: one-shot transport dialed more than once")
		}
		return c, nil
	}
	// For https URLs the Transport uses DialTLSContext and takes the
	// returned conn as already TLS; with DialContext alone it would layer
	// a second TLS session over conn.
	tr := &http.Transport{
		DisableKeepAlives: true,
		DialContext:       dialOnce,
		DialTLSContext:    dialOnce,
	}

	resp, err := tr.RoundTrip(req.WithContext(ctx))
	if err != nil {
		return nil, classifyHTTP1Error(err)
	}

	return resp, nil
}

// classifyHTTP1Error distinguishes "upstream never produced anything at
// all" (treated as a handshake failure, matching the case where the
// upstream accepted the TCP connection and closed it before speaking any
// protocol) from a genuine mid-exchange I/O failure. HTTP/1.1 has no
// distinct handshake phase the way HTTP/2 does, so this classification is
// a heuristic over the one signal available: whether the failure looks
// like an immediate, response-less EOF.
func classifyHTTP1Error(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || strings.Contains(err.Error(), "EOF") {
		return fmt.Errorf("%w: %w", gatewayerr.ErrUpstreamHandshake, err)
	}
	return fmt.Errorf("%w: %w", gatewayerr.ErrUpstreamIO, err)
}

// SendHTTP2 performs an HTTP/2 client handshake on conn (writing the
// client connection preface and initial SETTINGS frame), then issues
// exactly one request on a stream within that connection. The server's
// SETTINGS are read later by the background frame loop, so a connection
// that fails after the preface was written surfaces from RoundTrip as
// gatewayerr.ErrUpstreamIO, not as a handshake failure. The resulting http2.ClientConn owns a
// background goroutine that pumps frames for the lifetime of the
// connection; it is the Go analogue of the gateway's "driver task" and
// needs no separate spawn from this function.
func SendHTTP2(ctx context.Context, conn net.Conn, req *http.Request) (*http.Response, error) {
	t := &http2.Transport{
		AllowHTTP:          true,
		DisableCompression: true,
	}

	cc, err := t.NewClientConn(conn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", gatewayerr.ErrUpstreamHandshake, err)
	}

	resp, err := cc.RoundTrip(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", gatewayerr.ErrUpstreamIO, err)
	}

	return resp, nil
}
