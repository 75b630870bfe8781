package request

import (
	"encoding/base64"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const authorizationHeader = "Authorization"

// contentHeaders are passed by gateways without the HTTP_ prefix and keep
// their canonical casing.
var contentHeaders = map[string]string{
	KeyContentType:   "Content-Type",
	KeyContentLength: "Content-Length",
	KeyContentMD5:    "Content-Md5",
}

// Headers rebuilds the request header mapping from a CGI-style server
// environment. When no Authorization header was forwarded it falls back to
// the redirect-preserved value, then Basic credentials built from the
// auth user/password entries, then the digest entry.
func Headers(server map[string]string) map[string]string {
	headers := make(map[string]string, len(server))
	caser := cases.Title(language.Und)
	for key, value := range server {
		if name, ok := strings.CutPrefix(key, headerPrefix); ok {
			_, isContent := contentHeaders[name]
			_, hasDirect := server[name]
			if !isContent || !hasDirect {
				headers[headerName(caser, name)] = value
			}
			continue
		}
		if canonical, ok := contentHeaders[key]; ok {
			headers[canonical] = value
		}
	}

	if _, ok := headers[authorizationHeader]; ok {
		return headers
	}
	if v, ok := server[KeyRedirectAuth]; ok {
		headers[authorizationHeader] = v
	} else if user, ok := server[KeyAuthUser]; ok {
		pass := server[KeyAuthPassword]
		headers[authorizationHeader] = "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
	} else if v, ok := server[KeyAuthDigest]; ok {
		headers[authorizationHeader] = v
	}
	return headers
}

// headerName converts an environment key such as X_HTTP_METHOD into X-Http-Method.
func headerName(caser cases.Caser, key string) string {
	words := strings.ToLower(strings.ReplaceAll(key, "_", " "))
	return strings.ReplaceAll(caser.String(words), " ", "-")
}
