// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() returns defaults; Load(ctx) layers a YAML file and RESTKIT_ env vars on top.
// - Validation failures wrap ErrInvalidConfig, load failures wrap ErrLoadConfig.
package config

import (
	"github.com/okian/restkit/internal/domain/dispatch"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// MaxBodyBytes caps the raw request body read by the front controller.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// Sandbox appends SandboxWarning to every failure envelope.
	Sandbox        bool   `koanf:"sandbox"`
	SandboxWarning string `koanf:"sandbox_warning"`

	// StatusKey and ErrorKey name the envelope fields.
	StatusKey string `koanf:"status_key"`
	ErrorKey  string `koanf:"error_key"`

	// BasicAuthEnabled lets handlers extract basic-auth credentials.
	BasicAuthEnabled bool `koanf:"basic_auth_enabled"`

	// Users maps usernames to bcrypt hashes. When non-empty every request
	// must carry matching basic-auth credentials.
	Users map[string]string `koanf:"users"`

	// MetricsEnabled toggles Prometheus recording.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsRefreshMS is the system gauge refresh period in milliseconds.
	MetricsRefreshMS int `koanf:"metrics_refresh_ms"`
}

// New returns a Config populated with defaults.
func New() *Config {
	d := dispatch.DefaultSettings()
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		MaxBodyBytes:     1 << 20,
		Sandbox:          d.Sandbox,
		SandboxWarning:   d.SandboxWarning,
		StatusKey:        d.StatusKey,
		ErrorKey:         d.ErrorKey,
		BasicAuthEnabled: d.BasicAuthEnabled,
		Users:            map[string]string{},
		MetricsEnabled:   true,
		MetricsRefreshMS: 10000,
	}
}

// Settings projects the envelope and auth options for the dispatcher.
func (c *Config) Settings() dispatch.Settings {
	return dispatch.Settings{
		Sandbox:          c.Sandbox,
		SandboxWarning:   c.SandboxWarning,
		StatusKey:        c.StatusKey,
		ErrorKey:         c.ErrorKey,
		BasicAuthEnabled: c.BasicAuthEnabled,
	}
}
