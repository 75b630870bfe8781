// Package app is the built-in API: it registers the endpoint handlers served
// by the dispatcher and the optional credential guard run before dispatch.
package app

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/okian/restkit/internal/domain/dispatch"
	"github.com/okian/restkit/pkg/logger"
	"github.com/okian/restkit/pkg/metrics"
)

var (
	errUnknownUser     = errors.New("unknown user")
	errAuthUnavailable = errors.New("credentials required but basic auth is disabled")
)

// API owns the endpoint table and the user table checked by Guard.
type API struct {
	registry *dispatch.Registry
	users    map[string]string
	logger   logger.Logger
}

// Option applies a configuration option to the API.
type Option func(*API)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(a *API) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithUsers sets the username -> bcrypt hash table. An empty table disables Guard.
func WithUsers(users map[string]string) Option {
	return func(a *API) {
		a.users = make(map[string]string, len(users))
		for u, h := range users {
			a.users[u] = h
		}
	}
}

// New builds the API and registers its endpoints.
func New(opts ...Option) (*API, error) {
	a := &API{
		registry: dispatch.NewRegistry(),
		users:    map[string]string{},
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}

	endpoints := map[string]dispatch.Handler{
		"sayHello": sayHello,
		"echo":     echo,
		"whoami":   whoami,
	}
	for name, h := range endpoints {
		if err := a.registry.Register(name, h); err != nil {
			return nil, fmt.Errorf("register %s: %w", name, err)
		}
	}
	metrics.UpdateRegisteredEndpoints(len(a.registry.Endpoints()))
	return a, nil
}

// Registry returns the endpoint table.
func (a *API) Registry() *dispatch.Registry { return a.registry }

// Guard validates basic-auth credentials against the user table before
// dispatch. It is a no-op when the table is empty.
func (a *API) Guard(ctx context.Context, d *dispatch.Dispatcher) error {
	if len(a.users) == 0 {
		return nil
	}
	creds, err := d.BasicAuthCredentials()
	if err != nil {
		return err
	}
	if creds == nil {
		return dispatch.Unauthorized(errAuthUnavailable)
	}
	hash, ok := a.users[creds.Username]
	if !ok {
		a.logger.Debug(ctx, "rejected credentials", logger.String("user", creds.Username))
		return dispatch.Unauthorized(errUnknownUser)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(creds.Password)); err != nil {
		a.logger.Debug(ctx, "rejected credentials", logger.String("user", creds.Username))
		return dispatch.Unauthorized(err)
	}
	return nil
}
