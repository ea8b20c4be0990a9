package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/compass/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("COMPASS_ADDR", ":8080")
			_ = os.Setenv("COMPASS_DB_PATH", ":memory:")
			_ = os.Setenv("COMPASS_LOAD_TIMEOUT_MS", "2500")
			_ = os.Setenv("COMPASS_AUTO_GENERATE", "false")
			_ = os.Setenv("COMPASS_BUSY_TIMEOUT_MS", "750")
			_ = os.Setenv("COMPASS_APPROVED_MIN", "90")
			_ = os.Setenv("COMPASS_RESERVATIONS_MIN", "70")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.DBPath, convey.ShouldEqual, ":memory:")
				convey.So(cfg.LoadTimeoutMS, convey.ShouldEqual, 2500)
				convey.So(cfg.AutoGenerate, convey.ShouldBeFalse)
				convey.So(cfg.BusyTimeoutMS, convey.ShouldEqual, 750)
				convey.So(cfg.ApprovedMin, convey.ShouldEqual, 90)
				convey.So(cfg.ReservationsMin, convey.ShouldEqual, 70)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(t, `
# sources
addr: ":9090"
log_format: json
worklog_source: "https://example.org/dados.json"
max_ranking_limit: 25
`)
			_ = os.Setenv("COMPASS_CONFIG", tmpFile)
			_ = os.Setenv("COMPASS_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.WorkLogSource, convey.ShouldEqual, "https://example.org/dados.json")
				convey.So(cfg.MaxRankingLimit, convey.ShouldEqual, 25)
				convey.So(cfg.TestCycleSource, convey.ShouldEqual, "data/ciclos.json")
			})
		})

		convey.Convey("When an explicit path is passed", func() {
			tmpFile := createTempConfigFile(t, `db_path: "/var/lib/compass/state.db"`)

			cfg, err := config.Load(ctx, tmpFile)

			convey.Convey("Then it is used without COMPASS_CONFIG", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.DBPath, convey.ShouldEqual, "/var/lib/compass/state.db")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			_ = os.Setenv("COMPASS_CONFIG", createTempConfigFile(t, `invalid: yaml: content: [`))
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("COMPASS_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the YAML file empties a required value", func() {
			_ = os.Setenv("COMPASS_CONFIG", createTempConfigFile(t, `addr: ""`))
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"COMPASS_CONFIG",
		"COMPASS_ADDR",
		"COMPASS_DB_PATH",
		"COMPASS_LOAD_TIMEOUT_MS",
		"COMPASS_AUTO_GENERATE",
		"COMPASS_BUSY_TIMEOUT_MS",
		"COMPASS_APPROVED_MIN",
		"COMPASS_RESERVATIONS_MIN",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "compass-config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}
