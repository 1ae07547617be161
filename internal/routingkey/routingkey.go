// Package routingkey derives the canonical host:port string used to
// index the routing table. Both table construction and request rewriting
// go through this package so the two can never derive a key differently.
package routingkey

import (
	"net/http"
	"net/url"
)

// Of returns the host:port routing key for u, using the scheme's default
// port (443 for https, 80 otherwise) when u carries no explicit port. It
// reports false if u has no host at all.
func Of(u *url.URL) (string, bool) {
	host := u.Hostname()
	if host == "" {
		return "", false
	}

	port := u.Port()
	if port == "" {
		if u.Scheme == "https" {
			port = "443"
		} else {
			port = "80"
		}
	}

	return host + ":" + port, true
}

// OfRequest derives the routing key of an inbound request. For HTTP/2,
// Go's server already populates req.Host from the :authority
// pseudo-header; for HTTP/1.x it comes from the Host header. Either way
// req.Host carries the value, so a single path covers both conventions.
func OfRequest(r *http.Request) (string, bool) {
	host := r.Host
	if host == "" {
		host = r.URL.Host
	}
	if host == "" {
		return "", false
	}

	scheme := r.URL.Scheme
	if scheme == "" {
		scheme = "http"
	}

	u := &url.URL{Scheme: scheme, Host: host}
	return Of(u)
}
