// Command restkit runs the dispatcher as an HTTP server or dispatches a
// single request from the command line.
//
//	restkit [serve]
//	restkit call [-X METHOD] [-H 'K: V'] [-d body] [-u user:pass] [/endpoint/verb/arg...] [key=value...]
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/restkit/internal/adapters/http/api"
	"github.com/okian/restkit/internal/app"
	"github.com/okian/restkit/internal/config"
	"github.com/okian/restkit/pkg/logger"
	"github.com/okian/restkit/pkg/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	mode := "serve"
	if len(args) > 0 {
		mode, args = args[0], args[1:]
	}

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "failed to load config:", err)
		return 1
	}

	// call writes logs to stderr so stdout carries only the envelope.
	logOut := stdout
	if mode == "call" {
		logOut = stderr
	}
	if err := logger.Init(logger.WithOutput(logOut), logger.WithFormat(cfg.LogFormat)); err != nil {
		fmt.Fprintln(stderr, "failed to initialize logging:", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	metrics.SetEnabled(cfg.MetricsEnabled)
	metrics.SetRefreshInterval(time.Duration(cfg.MetricsRefreshMS) * time.Millisecond)

	restAPI, err := app.New(app.WithLogger(log.Named("app")), app.WithUsers(cfg.Users))
	if err != nil {
		log.Error(ctx, "failed to build api", logger.Error(err))
		return 1
	}
	server := api.NewServer(restAPI.Registry(),
		api.WithSettings(cfg.Settings()),
		api.WithGuard(restAPI.Guard),
		api.WithMaxBody(cfg.MaxBodyBytes),
		api.WithLogger(log.Named("http")),
	)

	switch mode {
	case "serve":
		if err := serve(ctx, cfg, server, log); err != nil {
			log.Error(ctx, "server failed", logger.Error(err))
			return 1
		}
		return 0
	case "call":
		return call(ctx, server, args, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q; want serve or call\n", mode)
		return 2
	}
}
