package ingress

import (
	"io"
	"net"
	"sync"
)

// singleConnListener is a net.Listener that yields exactly one
// connection, then reports itself exhausted. net/http's Serve loop treats
// that as "stop accepting", but the goroutine it already spawned to
// handle the one connection keeps running independently until that
// connection finishes. This is the direct analogue of spawning a single
// per-connection server task without owning the real TCP listener.
type singleConnListener struct {
	mu   sync.Mutex
	conn net.Conn
}

func newSingleConnListener(conn net.Conn) *singleConnListener {
	return &singleConnListener{conn: conn}
}

func (l *singleConnListener) Accept() (net.Conn, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn == nil {
		return nil, io.EOF
	}
	conn := l.conn
	l.conn = nil
	return conn, nil
}

func (l *singleConnListener) Close() error {
	return nil
}

func (l *singleConnListener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn != nil {
		return l.conn.LocalAddr()
	}
	return nil
}
