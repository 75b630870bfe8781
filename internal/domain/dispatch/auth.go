package dispatch

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/okian/restkit/internal/domain/request"
)

// redirectSchemeLen is the length of the "Basic " token skipped on
// redirect-preserved authorization values.
const redirectSchemeLen = 6

var (
	errNoCredentials = errors.New("no basic auth credentials")
	errNotBasic      = errors.New("authorization scheme is not basic")
)

// Credentials are the username and password extracted from a request.
// They are not validated.
type Credentials struct {
	Username string
	Password string
}

// BasicAuthCredentials extracts credentials from the request. It returns
// nil, nil when basic authentication is disabled. Sources in order: the auth
// user/password entries, an Authorization header with the basic scheme, then
// the redirect-preserved authorization value.
func (d *Dispatcher) BasicAuthCredentials() (*Credentials, error) {
	if !d.settings.BasicAuthEnabled {
		return nil, nil
	}
	return extractBasicAuth(d.req.Server)
}

func extractBasicAuth(lookup func(string) (string, bool)) (*Credentials, error) {
	if user, ok := lookup(request.KeyAuthUser); ok {
		pass, _ := lookup(request.KeyAuthPassword)
		return &Credentials{Username: user, Password: pass}, nil
	}
	if v, ok := lookup(request.KeyAuthorization); ok {
		if len(v) < len("basic") || !strings.EqualFold(v[:len("basic")], "basic") {
			return nil, Unauthorized(errNotBasic)
		}
		return decodeBasic(strings.TrimSpace(v[len("basic"):]))
	}
	if v, ok := lookup(request.KeyRedirectAuth); ok {
		if len(v) < redirectSchemeLen {
			return nil, Unauthorized(errNoCredentials)
		}
		return decodeBasic(v[redirectSchemeLen:])
	}
	return nil, Unauthorized(errNoCredentials)
}

func decodeBasic(encoded string) (*Credentials, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, Unauthorized(err)
	}
	user, pass, _ := strings.Cut(string(raw), ":")
	return &Credentials{Username: user, Password: pass}, nil
}
