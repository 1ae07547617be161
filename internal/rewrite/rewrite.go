// Package rewrite implements the gateway's request rewriter: it resolves
// an inbound request's virtual host against the routing table and
// mutates the request's URL in place to point at the chosen upstream.
package rewrite

import (
	"fmt"
	"net/url"

	"net/http"

	"github.com/wolfpup-software/gateway/internal/gatewayerr"
	"github.com/wolfpup-software/gateway/internal/routetable"
	"github.com/wolfpup-software/gateway/internal/routingkey"
)

// Rewrite resolves req's routing key, looks it up in table, and replaces
// req.URL with one whose scheme and authority come from the resolved
// upstream and whose path and query come from the client's original
// request. Method, header, and body are left untouched. The resolved
// entry is returned so the caller can pick a dial path and decide
// whether to skip upstream certificate validation.
func Rewrite(req *http.Request, table *routetable.Table) (routetable.Entry, error) {
	key, ok := routingkey.OfRequest(req)
	if !ok {
		return routetable.Entry{}, gatewayerr.ErrRoutingKeyMissing
	}

	entry, ok := table.Lookup(key)
	if !ok {
		return routetable.Entry{}, gatewayerr.ErrRoutingMiss
	}

	if entry.Upstream.Host == "" {
		return routetable.Entry{}, fmt.Errorf("upstream URI has no authority: %w", gatewayerr.ErrRewriteFailed)
	}

	rewritten := &url.URL{
		Scheme:   entry.Upstream.Scheme,
		Host:     entry.Upstream.Host,
		Path:     req.URL.Path,
		RawPath:  req.URL.RawPath,
		RawQuery: req.URL.RawQuery,
	}
	if rewritten.Path == "" {
		rewritten.Path = "/"
	}

	req.URL = rewritten
	req.Host = entry.Upstream.Host

	return entry, nil
}
