// Package ingress implements the gateway's TCP acceptor: it binds the
// listen address, performs the server-side TLS handshake per connection,
// and dispatches each connection to an HTTP/1.1 or HTTP/2 server loop
// based on the negotiated ALPN protocol.
package ingress

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/net/http2"

	"github.com/wolfpup-software/gateway/internal/gatewayhttp"
	"github.com/wolfpup-software/gateway/internal/routetable"
)

// Listener accepts TLS connections on Addr and serves every request on
// every connection through a gatewayhttp.Service bound to Table.
type Listener struct {
	Addr           string
	Identity       *tls.Config
	Table          *routetable.Table
	Log            *zap.Logger
	CycleDetection bool

	h2 *http2.Server
}

// New builds a Listener. identity must already carry NextProtos set to
// []string{"h2", "http/1.1"} for ALPN negotiation to pick HTTP/2 when the
// client supports it.
func New(addr string, identity *tls.Config, table *routetable.Table, log *zap.Logger) *Listener {
	return &Listener{
		Addr:     addr,
		Identity: identity,
		Table:    table,
		Log:      log,
		h2:       &http2.Server{},
	}
}

// Serve binds the listen address and accepts connections until ctx is
// canceled. Accept errors and TLS handshake errors are logged and never
// stop the loop, per the gateway's "accept errors must not kill the
// listener" invariant.
func (l *Listener) Serve(ctx context.Context) error {
	tcp, err := net.Listen("tcp", l.Addr)
	if err != nil {
		return err
	}
	defer tcp.Close()

	go func() {
		<-ctx.Done()
		tcp.Close()
	}()

	for {
		conn, err := tcp.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			l.Log.Warn("accept failed", zap.Error(err))
			continue
		}

		go l.handle(ctx, conn)
	}
}

// handle performs the TLS handshake for one connection and, on success,
// dispatches it to the HTTP/1.1 or HTTP/2 serving loop. Running the
// handshake here rather than serialized in the accept loop means one
// slow client can never block other connections from being accepted.
func (l *Listener) handle(ctx context.Context, conn net.Conn) {
	tlsConn := tls.Server(conn, l.Identity)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		l.Log.Warn("tls handshake failed", zap.Error(err))
		tlsConn.Close()
		return
	}

	svc := gatewayhttp.New(l.Table, l.Log, gatewayhttp.WithCycleDetection(l.CycleDetection))

	switch tlsConn.ConnectionState().NegotiatedProtocol {
	case "h2":
		l.h2.ServeConn(tlsConn, &http2.ServeConnOpts{
			Context: ctx,
			Handler: svc,
		})
	default:
		srv := &http.Server{
			Handler: svc,
			BaseContext: func(net.Listener) context.Context {
				return ctx
			},
		}
		if err := srv.Serve(newSingleConnListener(tlsConn)); err != nil {
			l.Log.Debug("connection closed", zap.Error(err))
		}
	}
}
