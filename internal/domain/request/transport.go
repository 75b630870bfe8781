// Package request turns raw transport data into a canonical request descriptor.
package request

// Server environment keys read by the normalizer. They follow the CGI naming
// used by web servers so a Transport can be built from any gateway.
const (
	KeyRequestMethod   = "REQUEST_METHOD"
	KeyMethodOverride  = "HTTP_X_HTTP_METHOD"
	KeyAuthorization   = "HTTP_AUTHORIZATION"
	KeyRedirectAuth    = "REDIRECT_HTTP_AUTHORIZATION"
	KeyAuthUser        = "PHP_AUTH_USER"
	KeyAuthPassword    = "PHP_AUTH_PW"
	KeyAuthDigest      = "PHP_AUTH_DIGEST"
	KeyContentType     = "CONTENT_TYPE"
	KeyContentLength   = "CONTENT_LENGTH"
	KeyContentMD5      = "CONTENT_MD5"
	headerPrefix       = "HTTP_"
	routingKeyEndpoint = "endpoint"
	routingKeySubVerb  = "verb"
)

// Transport is the immutable set of primitives a gateway hands to the
// normalizer for one request.
type Transport struct {
	// Query holds URL query parameters.
	Query Params
	// Form holds posted form fields.
	Form Params
	// Request is the merged query+form mapping used for routing keys and handler arguments.
	Request Params
	// Server holds CGI-style environment entries (REQUEST_METHOD, HTTP_*, ...).
	Server map[string]string
	// Positional holds routing segments after endpoint and sub-verb.
	Positional []string
	// Body is the raw request body.
	Body []byte
}

// Lookup returns a server environment value and whether it was present.
func (t Transport) Lookup(key string) (string, bool) {
	v, ok := t.Server[key]
	return v, ok
}
