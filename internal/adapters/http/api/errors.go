package api

import "errors"

// Sentinel kinds for transport errors.
var (
	ErrBodyTooLarge = errors.New("request body too large")
	ErrBadForm      = errors.New("malformed form body")
	ErrReadBody     = errors.New("read request body failed")

	errMissingBoundary = errors.New("multipart boundary missing")
)
