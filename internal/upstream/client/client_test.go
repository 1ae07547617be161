package client

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/wolfpup-software/gateway/internal/gatewayerr"
)

func TestSendHTTP1Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	conn, err := net.Dial("tcp", srv.Listener.Addr().String())
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := SendHTTP1(ctx, conn, req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSendHTTP1ClosedBeforeResponse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		// drain the request so RoundTrip fails on the response read, not
		// on the request write, before closing with no bytes sent back.
		buf := make([]byte, 4096)
		_, _ = c.Read(buf)
		c.Close()
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, "http://upstream/", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = SendHTTP1(ctx, conn, req)
	require.Error(t, err)
	require.ErrorIs(t, err, gatewayerr.ErrUpstreamHandshake)
}

func TestSendHTTP2Success(t *testing.T) {
	h2s := &http2.Server{}
	handler := h2c.NewHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}), h2s)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		h2s.ServeConn(c, &http2.ServeConnOpts{Handler: handler})
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, "http://upstream/", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := SendHTTP2(ctx, conn, req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSendHTTP2HandshakeFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		c, err := ln.Accept()
		if err != nil {
			return
		}
		if tc, ok := c.(*net.TCPConn); ok {
			tc.SetLinger(0) // force RST on close, instead of a clean FIN
		}
		c.Close() // never speaks the h2 preface
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	<-closed // the reset is sent before the client writes its preface

	req, err := http.NewRequest(http.MethodGet, "http://upstream/", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// The client preface write is the only synchronous part of the h2
	// handshake; everything after it runs on a background read loop that
	// SendHTTP2 cannot see as a handshake failure once it has started, so
	// a reset this early surfaces as ErrUpstreamHandshake, not IO.
	_, err = SendHTTP2(ctx, conn, req)
	require.Error(t, err)
	require.ErrorIs(t, err, gatewayerr.ErrUpstreamHandshake)
}
