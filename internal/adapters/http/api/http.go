// Package api exposes the dispatcher over HTTP as a single front controller.
package api

import (
	"context"
	"net/http"

	"github.com/okian/restkit/internal/domain/dispatch"
	"github.com/okian/restkit/internal/domain/request"
	"github.com/okian/restkit/pkg/logger"
	"github.com/okian/restkit/pkg/metrics"
)

const (
	defaultMaxBody = 1 << 20
	minStatus      = 100
	maxStatus      = 999
)

// Guard runs once the dispatcher exists and before the endpoint is invoked.
// A non-nil error is rendered as the response.
type Guard func(ctx context.Context, d *dispatch.Dispatcher) error

// Option configures a Server.
type Option func(*Server)

// WithSettings sets envelope and auth settings for every request.
func WithSettings(s dispatch.Settings) Option {
	return func(srv *Server) { srv.settings = s }
}

// WithGuard installs an authorization check.
func WithGuard(g Guard) Option {
	return func(srv *Server) { srv.guard = g }
}

// WithMaxBody caps the request body size in bytes.
func WithMaxBody(n int64) Option {
	return func(srv *Server) {
		if n > 0 {
			srv.maxBody = n
		}
	}
}

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(srv *Server) {
		if l != nil {
			srv.logger = l
		}
	}
}

// Server wires HTTP routes for the dispatcher.
type Server struct {
	registry *dispatch.Registry
	settings dispatch.Settings
	guard    Guard
	maxBody  int64
	logger   logger.Logger
	health   *HealthHandler
}

// NewServer creates a front controller over registry.
func NewServer(registry *dispatch.Registry, opts ...Option) *Server {
	s := &Server{
		registry: registry,
		settings: dispatch.DefaultSettings(),
		maxBody:  defaultMaxBody,
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.health = NewHealthHandler(registry)
	return s
}

// ReservedEndpoints are exact paths Register mounts outside the dispatcher.
// An endpoint registered under one of these names is not reached by
// "/<name>"; it stays reachable through "/?endpoint=<name>" or "/<name>/<verb>".
var ReservedEndpoints = []string{"healthz", "metrics"} //nolint:gochecknoglobals // fixed route table

// Shadowed returns the registered endpoint names that collide with
// ReservedEndpoints.
func Shadowed(registry *dispatch.Registry) []string {
	if registry == nil {
		return nil
	}
	var out []string
	for _, name := range ReservedEndpoints {
		if _, ok := registry.Lookup(name); ok {
			out = append(out, name)
		}
	}
	return out
}

// Register attaches /healthz, /metrics and the dispatcher catch-all to mux.
// See ReservedEndpoints for the names the fixed routes take over.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	for _, name := range Shadowed(s.registry) {
		s.logger.Warn(ctx, "endpoint shadowed by a fixed route", logger.String("endpoint", name))
	}
	mux.HandleFunc("/healthz", MetricsMiddleware(s.health.HandleHealth, "healthz", s.logger))
	mux.HandleFunc("/metrics", s.health.HandleMetrics)
	mux.HandleFunc("/", RequestID(MetricsMiddleware(s.ServeHTTP, "dispatch", s.logger)))
}

// ServeHTTP dispatches r and writes the envelope.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, s.Dispatch(r))
}

// Dispatch normalizes r, runs the guard and the endpoint, and returns the
// rendered response without writing it.
func (s *Server) Dispatch(r *http.Request) dispatch.Response {
	ctx := r.Context()
	opts := []dispatch.Option{dispatch.WithSettings(s.settings), dispatch.WithLogger(s.logger)}

	t, err := FromHTTP(r, s.maxBody)
	if err != nil {
		return dispatch.Reject(ctx, err, opts...)
	}
	if override, ok := t.Lookup(request.KeyMethodOverride); ok && r.Method == http.MethodPost {
		metrics.RecordMethodOverride(overrideLabel(override))
	}

	desc, err := request.Normalize(t)
	if err != nil {
		return dispatch.Reject(ctx, err, opts...)
	}

	// Requests that can only end in 405 or 404 skip the guard.
	d := dispatch.New(s.registry, desc, opts...)
	if s.guard != nil && d.Resolvable() {
		if err := s.guard(ctx, d); err != nil {
			return d.Fail(ctx, err)
		}
	}
	return d.ProcessAPI(ctx)
}

// overrideLabel bounds the label set to the accepted override values.
func overrideLabel(v string) string {
	switch v {
	case http.MethodPut, http.MethodDelete:
		return v
	default:
		return "invalid"
	}
}

// writeResponse copies resp onto w. Codes net/http refuses to write are sent
// as 500 while the body keeps the envelope as rendered.
func writeResponse(w http.ResponseWriter, resp dispatch.Response) {
	h := w.Header()
	for k, vs := range resp.Header {
		h[k] = append([]string(nil), vs...)
	}
	status := resp.Status
	if status < minStatus || status > maxStatus {
		status = http.StatusInternalServerError
	}
	w.WriteHeader(status)
	_, _ = w.Write(resp.Body)
}
