package dispatch

import (
	"net/http"
	"strconv"
)

var reasonPhrases = map[int]string{
	http.StatusOK:                   "OK",
	http.StatusBadRequest:           "Bad Request",
	http.StatusUnauthorized:         "Unauthorized",
	http.StatusNotFound:             "Not Found",
	http.StatusMethodNotAllowed:     "Method Not Allowed",
	http.StatusPreconditionFailed:   "Precondition Failed",
	http.StatusUnsupportedMediaType: "Unsupported Media Type",
	http.StatusUnprocessableEntity:  "Unprocessable Entity",
	http.StatusInternalServerError:  "Internal Server Error",
}

// ReasonPhrase returns the phrase for code, falling back to the 500 phrase.
func ReasonPhrase(code int) string {
	if p, ok := reasonPhrases[code]; ok {
		return p
	}
	return reasonPhrases[http.StatusInternalServerError]
}

// StatusLine renders "HTTP/1.1 <code> <phrase>". The numeric code is kept
// verbatim even when the phrase falls back.
func StatusLine(code int) string {
	return "HTTP/1.1 " + strconv.Itoa(code) + " " + ReasonPhrase(code)
}
