package request

import "errors"

// Sentinel kinds for normalization errors.
var (
	ErrUnexpectedMethodOverride = errors.New("unexpected method override header")
)
