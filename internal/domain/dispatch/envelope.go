package dispatch

import (
	"bytes"
	"encoding/json"
	"sort"
)

// WarningKey holds the sandbox advisory on failure envelopes.
const WarningKey = "WARNING"

// Payload is the mapping a handler returns on success.
type Payload map[string]any

// Settings are the read-only envelope and auth options of a dispatcher.
type Settings struct {
	Sandbox          bool
	SandboxWarning   string
	StatusKey        string
	ErrorKey         string
	BasicAuthEnabled bool
}

// DefaultSettings mirrors the stock configuration.
func DefaultSettings() Settings {
	return Settings{
		Sandbox:          true,
		SandboxWarning:   "You are in Sandbox Mode. Transaction may be simulated.",
		StatusKey:        "successful",
		ErrorKey:         "error",
		BasicAuthEnabled: true,
	}
}

// Envelope is the uniform JSON wrapper of every response.
type Envelope struct {
	Successful bool
	Payload    Payload
	Message    string
	Warning    string

	statusKey string
	errorKey  string
}

// Success wraps a handler payload.
func (s Settings) Success(p Payload) Envelope {
	return Envelope{Successful: true, Payload: p, statusKey: s.StatusKey, errorKey: s.ErrorKey}
}

// Failure builds a failure envelope. The sandbox warning is attached here and
// only when sandbox mode is on.
func (s Settings) Failure(message string) Envelope {
	env := Envelope{Message: message, statusKey: s.StatusKey, errorKey: s.ErrorKey}
	if s.Sandbox {
		env.Warning = s.SandboxWarning
	}
	return env
}

// MarshalJSON writes a flat object: the status key first, then either the
// payload keys in sorted order or the error message and optional warning.
// A payload entry named like the status key is dropped.
func (e Envelope) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeField(&buf, e.statusKey, e.Successful, true); err != nil {
		return nil, err
	}
	if e.Successful {
		keys := make([]string, 0, len(e.Payload))
		for k := range e.Payload {
			if k != e.statusKey {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := writeField(&buf, k, e.Payload[k], false); err != nil {
				return nil, err
			}
		}
	} else {
		if err := writeField(&buf, e.errorKey, e.Message, false); err != nil {
			return nil, err
		}
		if e.Warning != "" {
			if err := writeField(&buf, WarningKey, e.Warning, false); err != nil {
				return nil, err
			}
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeField(buf *bytes.Buffer, key string, value any, first bool) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if !first {
		buf.WriteByte(',')
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}
