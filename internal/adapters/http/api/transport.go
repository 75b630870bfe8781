package api

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/restkit/internal/domain/dispatch"
	"github.com/okian/restkit/internal/domain/request"
)

const (
	formMediaType      = "application/x-www-form-urlencoded"
	multipartMediaType = "multipart/form-data"
)

// FromHTTP builds the CGI-style transport for r. The path is read as
// /{endpoint}/{verb}/{arg}...; path segments override the endpoint and verb
// query parameters. The body is read once and capped at maxBody bytes.
func FromHTTP(r *http.Request, maxBody int64) (request.Transport, error) {
	body, err := readBody(r, maxBody)
	if err != nil {
		return request.Transport{}, err
	}

	query := request.FromValues(r.URL.Query())
	form := request.Params{}
	if r.Method == http.MethodPost {
		if form, err = parseForm(r.Header.Get("Content-Type"), body, maxBody); err != nil {
			return request.Transport{}, err
		}
	}

	merged := request.Merge(query, form)
	segments := pathSegments(r.URL.Path)
	var positional []string
	if len(segments) > 0 {
		merged["endpoint"] = segments[0]
	}
	if len(segments) > 1 {
		merged["verb"] = segments[1]
	}
	if len(segments) > 2 {
		positional = segments[2:]
	}

	return request.Transport{
		Query:      query,
		Form:       form,
		Request:    merged,
		Server:     serverEnv(r),
		Positional: positional,
		Body:       body,
	}, nil
}

func readBody(r *http.Request, maxBody int64) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody+1))
	if err != nil {
		return nil, &dispatch.Error{
			Kind:    dispatch.ErrValidation,
			Message: dispatch.ReasonPhrase(http.StatusBadRequest),
			Status:  http.StatusBadRequest,
			Err:     fmt.Errorf("%w: %w", ErrReadBody, err),
		}
	}
	if int64(len(body)) > maxBody {
		return nil, &dispatch.Error{
			Kind:    dispatch.ErrValidation,
			Message: "Request body too large",
			Status:  http.StatusRequestEntityTooLarge,
			Err:     ErrBodyTooLarge,
		}
	}
	return body, nil
}

// parseForm decodes url-encoded and multipart bodies into form fields. Other
// media types yield no fields. Uploaded files in multipart bodies are dropped.
func parseForm(contentType string, body []byte, maxBody int64) (request.Params, error) {
	mt, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return request.Params{}, nil
	}
	switch mt {
	case formMediaType:
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, badForm(err)
		}
		return request.FromValues(values), nil
	case multipartMediaType:
		boundary := params["boundary"]
		if boundary == "" {
			return nil, badForm(errMissingBoundary)
		}
		mf, err := multipart.NewReader(bytes.NewReader(body), boundary).ReadForm(maxBody)
		if err != nil {
			return nil, badForm(err)
		}
		defer func() { _ = mf.RemoveAll() }()
		return request.FromValues(mf.Value), nil
	default:
		return request.Params{}, nil
	}
}

func badForm(err error) *dispatch.Error {
	return &dispatch.Error{
		Kind:    dispatch.ErrValidation,
		Message: dispatch.ReasonPhrase(http.StatusBadRequest),
		Status:  http.StatusBadRequest,
		Err:     fmt.Errorf("%w: %w", ErrBadForm, err),
	}
}

func pathSegments(path string) []string {
	var out []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// serverEnv maps r onto CGI environment names: headers become HTTP_*,
// content headers stay unprefixed, and Basic credentials populate the auth
// user/password entries the way web servers do.
func serverEnv(r *http.Request) map[string]string {
	env := map[string]string{
		request.KeyRequestMethod: r.Method,
		"REQUEST_URI":            r.URL.RequestURI(),
		"QUERY_STRING":           r.URL.RawQuery,
		"REMOTE_ADDR":            r.RemoteAddr,
	}
	if r.Host != "" {
		env["HTTP_HOST"] = r.Host
	}
	for name, values := range r.Header {
		key := strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
		value := strings.Join(values, ", ")
		switch key {
		case request.KeyContentType, request.KeyContentLength:
			env[key] = value
		default:
			env["HTTP_"+key] = value
		}
	}
	if _, ok := env[request.KeyContentLength]; !ok && r.ContentLength > 0 {
		env[request.KeyContentLength] = strconv.FormatInt(r.ContentLength, 10)
	}
	if user, pass, ok := r.BasicAuth(); ok {
		env[request.KeyAuthUser] = user
		env[request.KeyAuthPassword] = pass
	}
	return env
}
