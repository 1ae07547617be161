// Package gatewayhttp implements the gateway's per-request connection
// service: it drives Rewrite -> Dial -> Upstream Client -> streamed
// response for each request on an accepted connection, mapping every
// failure to a canned, internal-detail-free error response.
package gatewayhttp

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wolfpup-software/gateway/internal/forward"
	"github.com/wolfpup-software/gateway/internal/gatewayerr"
	"github.com/wolfpup-software/gateway/internal/rewrite"
	"github.com/wolfpup-software/gateway/internal/routetable"
)

// CycleDetectHeader is the sentinel header used by the optional
// forwarding-loop guard. Its presence on an inbound request means this
// gateway (or one configured identically) already forwarded the request
// once; this is not a general-purpose loop detector, only a guard
// against a gateway routing back to itself.
const CycleDetectHeader = "Gateway-Cycle-Detect"

// Service is an http.Handler that proxies every request it receives to
// the upstream resolved from a shared, read-only routing table. One
// Service is constructed per accepted connection; every Service for a
// given listener shares the same *routetable.Table pointer.
type Service struct {
	Table          *routetable.Table
	Log            *zap.Logger
	CycleDetection bool

	connID string
}

// Option configures a Service at construction time.
type Option func(*Service)

// WithCycleDetection toggles the sentinel-header loop guard described by
// CycleDetectHeader. It defaults to off: the guard only helps when every
// peer gateway in a deployment honors the same header, so it is offered
// as an explicit opt-in rather than a mandatory behavior.
func WithCycleDetection(enabled bool) Option {
	return func(s *Service) { s.CycleDetection = enabled }
}

// New builds a Service bound to table. log may be zap.NewNop() in tests.
func New(table *routetable.Table, log *zap.Logger, opts ...Option) *Service {
	s := &Service{Table: table, Log: log, connID: uuid.NewString()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := s.Log.With(zap.String("conn_id", s.connID), zap.String("method", r.Method))

	if s.CycleDetection && r.Header.Get(CycleDetectHeader) != "" {
		log.Warn("forwarding loop detected")
		writeCanned(w, http.StatusLoopDetected, "loop detected")
		return
	}

	entry, err := rewrite.Rewrite(r, s.Table)
	if err != nil {
		log.Info("rewrite failed", zap.Error(err))
		writeMapped(w, err)
		return
	}

	if s.CycleDetection {
		r.Header.Set(CycleDetectHeader, "1")
	}

	log = log.With(zap.String("upstream", entry.Upstream.Host), zap.Bool("dangerous", entry.Dangerous))

	resp, err := forward.Send(r.Context(), r, entry)
	if err != nil {
		log.Warn("forward failed", zap.Error(err))
		writeMapped(w, err)
		return
	}
	defer resp.Body.Close()

	copyHeader(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		log.Info("response copy interrupted", zap.Error(err))
	}
}

func copyHeader(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}

// writeMapped maps err to the gateway's fixed status/body table using
// errors.Is against each sentinel kind. The wrapped cause inside err is
// never written to the client; only the canned body is.
func writeMapped(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var kind error

	switch {
	case errors.Is(err, gatewayerr.ErrRoutingKeyMissing):
		status, kind = http.StatusBadRequest, gatewayerr.ErrRoutingKeyMissing
	case errors.Is(err, gatewayerr.ErrRoutingMiss):
		status, kind = http.StatusNotFound, gatewayerr.ErrRoutingMiss
	case errors.Is(err, gatewayerr.ErrRewriteFailed):
		status, kind = http.StatusInternalServerError, gatewayerr.ErrRewriteFailed
	case errors.Is(err, gatewayerr.ErrUpstreamDial):
		status, kind = http.StatusServiceUnavailable, gatewayerr.ErrUpstreamDial
	case errors.Is(err, gatewayerr.ErrUpstreamTLS):
		status, kind = http.StatusServiceUnavailable, gatewayerr.ErrUpstreamTLS
	case errors.Is(err, gatewayerr.ErrUpstreamHandshake):
		status, kind = http.StatusServiceUnavailable, gatewayerr.ErrUpstreamHandshake
	case errors.Is(err, gatewayerr.ErrUpstreamIO):
		status, kind = http.StatusBadGateway, gatewayerr.ErrUpstreamIO
	default:
		kind = err
	}

	writeCanned(w, status, gatewayerr.Body(kind))
}

func writeCanned(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
