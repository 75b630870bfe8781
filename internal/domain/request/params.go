package request

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// trimCutset matches the characters stripped from both ends of every input string.
const trimCutset = " \t\n\r\x00\x0B"

// Params is a string-keyed parameter mapping. Values are strings or nested Params.
type Params map[string]any

// String returns the string stored under key, or "" when absent or not a string.
func (p Params) String(key string) string {
	s, _ := p[key].(string)
	return s
}

// Has reports whether key is present.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Clone returns a deep copy of p.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		if nested, ok := v.(Params); ok {
			out[k] = nested.Clone()
			continue
		}
		out[k] = v
	}
	return out
}

// Merge returns a shallow merge of base and over; keys in over win.
func Merge(base, over Params) Params {
	out := make(Params, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// FromValues converts url.Values into Params, expanding bracketed keys
// ("a[b]=1", "a[]=1") into nested mappings. For repeated plain keys the last
// value wins.
func FromValues(v url.Values) Params {
	out := Params{}
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		path := splitKey(key)
		for _, val := range v[key] {
			assign(out, path, val)
		}
	}
	return out
}

func splitKey(key string) []string {
	i := strings.IndexByte(key, '[')
	if i <= 0 || !strings.HasSuffix(key, "]") {
		return []string{key}
	}
	path := []string{key[:i]}
	rest := key[i:]
	for len(rest) > 0 && rest[0] == '[' {
		j := strings.IndexByte(rest, ']')
		if j < 0 {
			return []string{key}
		}
		path = append(path, rest[1:j])
		rest = rest[j+1:]
	}
	if rest != "" {
		return []string{key}
	}
	return path
}

func assign(p Params, path []string, val string) {
	key := path[0]
	if key == "" {
		key = strconv.Itoa(nextIndex(p))
	}
	if len(path) == 1 {
		p[key] = val
		return
	}
	child, ok := p[key].(Params)
	if !ok {
		child = Params{}
		p[key] = child
	}
	assign(child, path[1:], val)
}

func nextIndex(p Params) int {
	n := 0
	for k := range p {
		if i, err := strconv.Atoi(k); err == nil && i >= n {
			n = i + 1
		}
	}
	return n
}

// Sanitize trims surrounding whitespace and strips markup tags from every
// string leaf of p, recursing into nested mappings. The input is not modified.
func Sanitize(p Params) Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = sanitizeValue(v)
	}
	return out
}

func sanitizeValue(v any) any {
	switch t := v.(type) {
	case string:
		return CleanString(t)
	case Params:
		return Sanitize(t)
	case map[string]any:
		return Sanitize(Params(t))
	case []string:
		out := make([]string, len(t))
		for i, s := range t {
			out[i] = CleanString(s)
		}
		return out
	default:
		return v
	}
}

// CleanString strips markup tags from s and trims surrounding whitespace.
func CleanString(s string) string {
	return strings.Trim(stripTags(s), trimCutset)
}

// stripTags drops every tag and comment, keeping text content verbatim.
func stripTags(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Raw())
		}
	}
}
