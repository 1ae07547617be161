// Package gatewayerr defines the sentinel errors the gateway maps to
// client-visible status codes and canned bodies. Callers should wrap the
// real cause with fmt.Errorf("...: %w", ErrX) so errors.Is keeps working
// while the wrapped detail stays available for logging only.
package gatewayerr

import "errors"

// Sentinel kinds, one per row of the gateway's failure table.
var (
	ErrConfigInvalid = errors.New("configuration invalid")

	ErrRoutingKeyMissing = errors.New("failed to find upstream URI from request")
	ErrRoutingMiss       = errors.New("failed to find upstream URI from request")
	ErrRewriteFailed     = errors.New("failed to update request with upstream URI")

	ErrUpstreamDial      = errors.New("failed to establish connection to upstream server")
	ErrUpstreamTLS       = errors.New("failed to establish TLS connection")
	ErrUpstreamHandshake = errors.New("upstream handshake failed")
	ErrUpstreamIO        = errors.New("failed to process request")

	ErrCycleDetected = errors.New("loop detected")
)

// Body is the fixed ASCII string written into the client-visible response
// for a given sentinel. It is never derived from err.Error() of the
// wrapped cause, so no internal diagnostic ever reaches the client.
func Body(kind error) string {
	switch kind {
	case ErrRoutingKeyMissing, ErrRoutingMiss:
		return "failed to find upstream URI from request"
	case ErrRewriteFailed:
		return "failed to update request with upstream URI"
	case ErrUpstreamDial:
		return "failed to establish connection to upstream server"
	case ErrUpstreamTLS:
		return "failed to establish TLS connection"
	case ErrUpstreamHandshake:
		return "upstream handshake failed"
	case ErrUpstreamIO:
		return "failed to process request"
	default:
		return "internal error"
	}
}
