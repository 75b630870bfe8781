// Package dispatch resolves a normalized request to a registered endpoint
// handler and renders the outcome as a JSON envelope with a status line.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/restkit/internal/domain/request"
	"github.com/okian/restkit/pkg/logger"
	"github.com/okian/restkit/pkg/metrics"
)

const (
	noEndpointPlaceholder = "{No Endpoint Specified}"
	unresolvedLabel       = "_unresolved"
)

// Response is the rendered outcome of one request.
type Response struct {
	Status     int
	StatusLine string
	Header     http.Header
	Body       []byte
}

// Call is what a handler receives: the request descriptor plus access to
// dispatcher services.
type Call struct {
	*request.Descriptor
	d *Dispatcher
}

// Credentials extracts basic-auth credentials; see Dispatcher.BasicAuthCredentials.
func (c *Call) Credentials() (*Credentials, error) { return c.d.BasicAuthCredentials() }

// Logger returns the dispatcher's logger.
func (c *Call) Logger() logger.Logger { return c.d.logger }

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithSettings sets envelope and auth settings.
func WithSettings(s Settings) Option {
	return func(d *Dispatcher) { d.settings = s }
}

// WithLogger sets the logger used for failures.
func WithLogger(l logger.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// Dispatcher owns one request descriptor for the duration of one call.
type Dispatcher struct {
	registry *Registry
	req      *request.Descriptor
	settings Settings
	logger   logger.Logger
	header   http.Header
}

// New returns a dispatcher for req. Response headers are fixed here and shared
// by every response it renders.
func New(registry *Registry, req *request.Descriptor, opts ...Option) *Dispatcher {
	if registry == nil {
		registry = NewRegistry()
	}
	if req == nil {
		req = &request.Descriptor{}
	}
	d := &Dispatcher{
		registry: registry,
		req:      req,
		settings: DefaultSettings(),
		logger:   logger.Nop(),
		header:   make(http.Header),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.header.Set("Access-Control-Allow-Origin", "*")
	d.header.Set("Access-Control-Allow-Methods", "*")
	d.header.Set("Content-Type", "application/json")
	return d
}

// Request returns the descriptor being served.
func (d *Dispatcher) Request() *request.Descriptor { return d.req }

// Settings returns the dispatcher settings.
func (d *Dispatcher) Settings() Settings { return d.settings }

// Resolvable reports whether the verb is supported and the endpoint is
// registered, that is whether ProcessAPI would invoke a handler.
func (d *Dispatcher) Resolvable() bool {
	if !d.req.Verb.Supported() {
		return false
	}
	_, ok := d.registry.Lookup(d.req.Endpoint)
	return ok
}

// ProcessAPI resolves the endpoint, invokes it and renders the result.
func (d *Dispatcher) ProcessAPI(ctx context.Context) Response {
	start := time.Now()
	resp, resolved := d.process(ctx)
	label := d.req.Endpoint
	if !resolved {
		label = unresolvedLabel
	}
	metrics.RecordDispatch(label, string(d.req.Verb), strconv.Itoa(resp.Status))
	metrics.RecordDispatchDuration(float64(time.Since(start).Microseconds()) / 1000)
	return resp
}

func (d *Dispatcher) process(ctx context.Context) (Response, bool) {
	if !d.req.Verb.Supported() {
		return d.Fail(ctx, &Error{Kind: ErrUnsupportedVerb, Message: "Invalid Method", Status: http.StatusMethodNotAllowed}), false
	}

	h, ok := d.registry.Lookup(d.req.Endpoint)
	if !ok {
		name := d.req.Endpoint
		if name == "" {
			name = noEndpointPlaceholder
		}
		metrics.RecordUnresolvedEndpoint()
		return d.Fail(ctx, &Error{
			Kind:    ErrEndpointNotFound,
			Message: "Endpoint not recognized: " + name,
			Status:  http.StatusNotFound,
		}), false
	}

	payload, err := d.invoke(ctx, h)
	if err != nil {
		return d.Fail(ctx, err), true
	}
	return d.Respond(d.settings.Success(payload), http.StatusOK), true
}

func (d *Dispatcher) invoke(ctx context.Context, h Handler) (p Payload, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = internal(fmt.Errorf("handler panic: %v", r))
		}
	}()
	return h(ctx, &Call{Descriptor: d.req, d: d})
}

// Fail renders err as a failure envelope at the error's status.
func (d *Dispatcher) Fail(ctx context.Context, err error) Response {
	e := AsError(err)
	kind := kindLabel(e)
	metrics.RecordDispatchFailure(kind)

	fields := []logger.Field{
		logger.String("endpoint", d.req.Endpoint),
		logger.String("verb", string(d.req.Verb)),
		logger.Int("status", e.Status),
		logger.String("kind", kind),
	}
	if e.Err != nil {
		fields = append(fields, logger.Error(e.Err))
	}
	if e.Status >= http.StatusInternalServerError {
		d.logger.Error(ctx, "request failed", fields...)
	} else {
		d.logger.Debug(ctx, e.Message, fields...)
	}
	return d.Respond(d.settings.Failure(e.Message), e.Status)
}

// Respond serializes env with the given status. An envelope that cannot be
// encoded is replaced by a 500 failure.
func (d *Dispatcher) Respond(env Envelope, status int) Response {
	body, err := json.Marshal(env)
	if err != nil {
		d.logger.Error(context.Background(), "envelope encoding failed", logger.Error(err))
		status = http.StatusInternalServerError
		body, _ = json.Marshal(d.settings.Failure(ReasonPhrase(status)))
	}
	return Response{
		Status:     status,
		StatusLine: StatusLine(status),
		Header:     d.header.Clone(),
		Body:       body,
	}
}

// Reject renders err without dispatching. Front controllers use it for
// failures raised before a descriptor exists or before ProcessAPI runs.
func Reject(ctx context.Context, err error, opts ...Option) Response {
	return New(nil, nil, opts...).Fail(ctx, err)
}
