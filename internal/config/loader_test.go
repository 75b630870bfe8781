package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/restkit/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.StatusKey, convey.ShouldEqual, "successful")
			convey.So(cfg.ErrorKey, convey.ShouldEqual, "error")
			convey.So(cfg.Sandbox, convey.ShouldBeTrue)
			convey.So(cfg.SandboxWarning, convey.ShouldEqual, "You are in Sandbox Mode. Transaction may be simulated.")
			convey.So(cfg.BasicAuthEnabled, convey.ShouldBeTrue)
			convey.So(cfg.MaxBodyBytes, convey.ShouldEqual, int64(1<<20))
			convey.So(cfg.MetricsRefreshMS, convey.ShouldEqual, 10000)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("And Settings projects the envelope options", func() {
			s := cfg.Settings()
			convey.So(s.StatusKey, convey.ShouldEqual, cfg.StatusKey)
			convey.So(s.ErrorKey, convey.ShouldEqual, cfg.ErrorKey)
			convey.So(s.Sandbox, convey.ShouldEqual, cfg.Sandbox)
			convey.So(s.BasicAuthEnabled, convey.ShouldEqual, cfg.BasicAuthEnabled)
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Sandbox, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("RESTKIT_ADDR", ":8080")
			_ = os.Setenv("RESTKIT_SANDBOX", "false")
			_ = os.Setenv("RESTKIT_STATUS_KEY", "ok")
			_ = os.Setenv("RESTKIT_MAX_BODY_BYTES", "2048")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Sandbox, convey.ShouldBeFalse)
				convey.So(cfg.StatusKey, convey.ShouldEqual, "ok")
				convey.So(cfg.MaxBodyBytes, convey.ShouldEqual, int64(2048))
				convey.So(cfg.ErrorKey, convey.ShouldEqual, "error")
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
sandbox: false
sandbox_warning: "test mode"
error_key: "message"
basic_auth_enabled: false
users:
  ann: "$2a$10$abcdefghijklmnopqrstuv"
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("RESTKIT_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.Sandbox, convey.ShouldBeFalse)
				convey.So(cfg.SandboxWarning, convey.ShouldEqual, "test mode")
				convey.So(cfg.ErrorKey, convey.ShouldEqual, "message")
				convey.So(cfg.BasicAuthEnabled, convey.ShouldBeFalse)
				convey.So(cfg.Users, convey.ShouldContainKey, "ann")
				convey.So(cfg.StatusKey, convey.ShouldEqual, "successful")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile("addr: \":9090\"\nlog_level: debug\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("RESTKIT_CONFIG", tmpFile)
			_ = os.Setenv("RESTKIT_ADDR", ":7070")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("RESTKIT_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("RESTKIT_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("RESTKIT_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
			})
		})

		convey.Convey("When status and error keys collide", func() {
			_ = os.Setenv("RESTKIT_ERROR_KEY", "successful")

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the metrics refresh period is set", func() {
			_ = os.Setenv("RESTKIT_METRICS_REFRESH_MS", "250")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it is read as milliseconds", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.MetricsRefreshMS, convey.ShouldEqual, 250)
			})
		})

		convey.Convey("When the metrics refresh period is not positive", func() {
			_ = os.Setenv("RESTKIT_METRICS_REFRESH_MS", "0")

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "metrics_refresh_ms")
			})
		})

		convey.Convey("When a numeric variable is not a number", func() {
			_ = os.Setenv("RESTKIT_MAX_BODY_BYTES", "lots")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"RESTKIT_CONFIG",
		"RESTKIT_ADDR",
		"RESTKIT_SANDBOX",
		"RESTKIT_STATUS_KEY",
		"RESTKIT_ERROR_KEY",
		"RESTKIT_MAX_BODY_BYTES",
		"RESTKIT_METRICS_REFRESH_MS",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "restkit-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
