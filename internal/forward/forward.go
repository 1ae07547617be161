// Package forward implements the gateway's four-way upstream dial
// fan-out: (HTTP/1.x, HTTP/2) x (http, https). It is a tagged-variant
// dispatch, a small switch rather than dynamic dispatch, since the four
// paths share no state.
package forward

import (
	"context"
	"io"
	"net"
	"net/http"

	"github.com/wolfpup-software/gateway/internal/routetable"
	"github.com/wolfpup-software/gateway/internal/upstream/client"
	"github.com/wolfpup-software/gateway/internal/upstream/dial"
)

// Send dials the upstream named by entry using the path selected by
// (req.ProtoMajor, entry.Upstream.Scheme) and performs exactly one
// request/response exchange. A scheme-less upstream URL is treated as
// plain http, matching the default used throughout routing key
// derivation.
func Send(ctx context.Context, req *http.Request, entry routetable.Entry) (*http.Response, error) {
	host := entry.Upstream.Hostname()
	authority := entry.Upstream.Host
	if entry.Upstream.Port() == "" {
		if entry.Upstream.Scheme == "https" {
			authority = host + ":443"
		} else {
			authority = host + ":80"
		}
	}

	https := entry.Upstream.Scheme == "https"
	http2 := req.ProtoMajor == 2

	switch {
	case http2 && https:
		conn, err := dial.TLS(ctx, host, authority, entry.Dangerous, "h2")
		if err != nil {
			return nil, err
		}
		return sendAndOwn(conn, client.SendHTTP2(ctx, conn, req))

	case http2 && !https:
		conn, err := dial.TCP(ctx, authority)
		if err != nil {
			return nil, err
		}
		return sendAndOwn(conn, client.SendHTTP2(ctx, conn, req))

	case !http2 && https:
		conn, err := dial.TLS(ctx, host, authority, entry.Dangerous, "http/1.1")
		if err != nil {
			return nil, err
		}
		return sendAndOwn(conn, client.SendHTTP1(ctx, conn, req))

	default: // HTTP/1.x, http
		conn, err := dial.TCP(ctx, authority)
		if err != nil {
			return nil, err
		}
		return sendAndOwn(conn, client.SendHTTP1(ctx, conn, req))
	}
}

// sendAndOwn ties conn's lifetime to the response body: the upstream
// connection in the gateway's data model is exclusively owned by the one
// request that dialed it, so it closes exactly when that request's
// response body is fully consumed or the request fails.
func sendAndOwn(conn net.Conn, resp *http.Response, err error) (*http.Response, error) {
	if err != nil {
		conn.Close()
		return nil, err
	}
	resp.Body = &closeBoth{ReadCloser: resp.Body, conn: conn}
	return resp, nil
}

type closeBoth struct {
	io.ReadCloser
	conn net.Conn
}

func (c *closeBoth) Close() error {
	err := c.ReadCloser.Close()
	c.conn.Close()
	return err
}
