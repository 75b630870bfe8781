package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/okian/restkit/internal/adapters/http/api"
)

var errBadArgument = errors.New("bad argument")

// headerList collects repeated -H flags.
type headerList []string

func (h *headerList) String() string { return strings.Join(*h, ", ") }

func (h *headerList) Set(v string) error {
	if !strings.Contains(v, ":") {
		return fmt.Errorf("%w: header %q must be 'Name: value'", errBadArgument, v)
	}
	*h = append(*h, v)
	return nil
}

// callRequest turns command-line arguments into an HTTP request. An optional
// leading argument starting with "/" is the routing path; key=value
// arguments become query parameters.
func callRequest(ctx context.Context, args []string, stderr io.Writer) (*http.Request, error) {
	fs := flag.NewFlagSet("call", flag.ContinueOnError)
	fs.SetOutput(stderr)
	method := fs.String("X", "", "request method (default GET, or POST with -d)")
	data := fs.String("d", "", "request body")
	user := fs.String("u", "", "basic auth credentials as user:pass")
	var headers headerList
	fs.Var(&headers, "H", "request header 'Name: value' (repeatable)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	rest := fs.Args()
	path := "/"
	if len(rest) > 0 && strings.HasPrefix(rest[0], "/") {
		path, rest = rest[0], rest[1:]
	}
	query := url.Values{}
	for _, kv := range rest {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: %q is not key=value", errBadArgument, kv)
		}
		query.Add(k, v)
	}

	m := strings.ToUpper(*method)
	if m == "" {
		m = http.MethodGet
		if *data != "" {
			m = http.MethodPost
		}
	}

	var body io.Reader = http.NoBody
	if *data != "" {
		body = strings.NewReader(*data)
	}
	target := (&url.URL{Path: path, RawQuery: query.Encode()}).String()
	req, err := http.NewRequestWithContext(ctx, m, target, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errBadArgument, err)
	}
	req.Host = "localhost"
	for _, h := range headers {
		name, value, _ := strings.Cut(h, ":")
		req.Header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	if *user != "" {
		u, p, _ := strings.Cut(*user, ":")
		req.SetBasicAuth(u, p)
	}
	return req, nil
}

// call dispatches one request. The status line goes to stderr and the
// envelope to stdout; the exit code is 0 only for 2xx.
func call(ctx context.Context, server *api.Server, args []string, stdout, stderr io.Writer) int {
	req, err := callRequest(ctx, args, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	resp := server.Dispatch(req)
	fmt.Fprintln(stderr, resp.StatusLine)
	_, _ = stdout.Write(resp.Body)
	fmt.Fprintln(stdout)
	if resp.Status >= http.StatusOK && resp.Status < http.StatusMultipleChoices {
		return 0
	}
	return 1
}
