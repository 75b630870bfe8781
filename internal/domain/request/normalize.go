package request

import (
	"fmt"
	"net/http"
)

// Verb is the effective HTTP verb of a request.
type Verb string

// Recognized verbs. VerbUnsupported marks any other declared method.
const (
	VerbGet         Verb = http.MethodGet
	VerbPost        Verb = http.MethodPost
	VerbPut         Verb = http.MethodPut
	VerbDelete      Verb = http.MethodDelete
	VerbUnsupported Verb = ""
)

// Supported reports whether v is one of GET, POST, PUT or DELETE.
func (v Verb) Supported() bool {
	switch v {
	case VerbGet, VerbPost, VerbPut, VerbDelete:
		return true
	default:
		return false
	}
}

// Descriptor is the canonical form of one inbound request.
type Descriptor struct {
	Verb       Verb
	Method     string // declared by the transport, before any override
	Endpoint   string
	SubVerb    string
	Positional []string
	Args       Params // sanitized merged request, routing keys removed
	Params     Params // sanitized verb source: query or form
	Headers    map[string]string
	Body       []byte // GET and POST
	File       []byte // PUT and DELETE

	server map[string]string
}

// Server returns a raw server environment entry.
func (d *Descriptor) Server(key string) (string, bool) {
	v, ok := d.server[key]
	return v, ok
}

// Normalize builds a Descriptor from t. It fails only when a POST carries a
// method-override header other than DELETE or PUT. The transport is never
// modified; routing keys are removed from copies.
func Normalize(t Transport) (*Descriptor, error) {
	method, _ := t.Lookup(KeyRequestMethod)
	verb, err := effectiveVerb(method, t)
	if err != nil {
		return nil, err
	}

	args := t.Request.Clone()
	d := &Descriptor{
		Verb:       verb,
		Method:     method,
		Endpoint:   takeRoutingKey(args, routingKeyEndpoint),
		SubVerb:    takeRoutingKey(args, routingKeySubVerb),
		Positional: append([]string(nil), t.Positional...),
		Args:       Sanitize(args),
		Headers:    Headers(t.Server),
		server:     copyServer(t.Server),
	}

	switch verb {
	case VerbGet:
		d.Params = routingFree(t.Query)
		d.Body = copyBytes(t.Body)
	case VerbPost:
		d.Params = routingFree(t.Form)
		d.Body = copyBytes(t.Body)
	case VerbPut:
		d.Params = routingFree(t.Query)
		d.File = copyBytes(t.Body)
	case VerbDelete:
		d.Params = routingFree(t.Form)
		d.File = copyBytes(t.Body)
	default:
		d.Params = Params{}
	}
	return d, nil
}

func effectiveVerb(method string, t Transport) (Verb, error) {
	if method == http.MethodPost {
		if override, ok := t.Lookup(KeyMethodOverride); ok {
			switch override {
			case http.MethodDelete:
				return VerbDelete, nil
			case http.MethodPut:
				return VerbPut, nil
			default:
				return VerbUnsupported, fmt.Errorf("%w: %q", ErrUnexpectedMethodOverride, override)
			}
		}
	}
	if v := Verb(method); v.Supported() {
		return v, nil
	}
	return VerbUnsupported, nil
}

func takeRoutingKey(p Params, key string) string {
	v, ok := p[key]
	if !ok {
		return ""
	}
	delete(p, key)
	s, _ := v.(string)
	return s
}

func routingFree(p Params) Params {
	out := Sanitize(p)
	delete(out, routingKeyEndpoint)
	delete(out, routingKeySubVerb)
	return out
}

func copyBytes(b []byte) []byte {
	return append([]byte{}, b...)
}

func copyServer(server map[string]string) map[string]string {
	out := make(map[string]string, len(server))
	for k, v := range server {
		out[k] = v
	}
	return out
}
