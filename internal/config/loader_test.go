package config_test

import (
	"context"
	"os"
	"testing"

	"github.com/okian/passlog/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func clearConfigEnvVars() {
	for _, key := range []string{
		"PASSLOG_CONFIG",
		"PASSLOG_ADDR",
		"PASSLOG_LOG_LEVEL",
		"PASSLOG_CUTOVER_HOUR",
		"PASSLOG_DAILY_TRIP_LIMIT",
		"PASSLOG_DB_PATH",
		"PASSLOG_LOCK_TIMEOUT_MS",
		"PASSLOG_MIGRATE_INTERVAL_MIN",
		"PASSLOG_DEDUPE_SIZE",
		"PASSLOG_MAX_LIST_LIMIT",
	} {
		_ = os.Unsetenv(key)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "passlog-*.yaml")
	if err != nil {
		t.Fatalf("create temp config: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp config: %v", err)
	}
	return f.Name()
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.CutoverHour, convey.ShouldEqual, 12)
				convey.So(cfg.DailyTripLimit, convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("PASSLOG_ADDR", ":8080")
			_ = os.Setenv("PASSLOG_CUTOVER_HOUR", "11")
			_ = os.Setenv("PASSLOG_DAILY_TRIP_LIMIT", "3")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.CutoverHour, convey.ShouldEqual, 11)
				convey.So(cfg.DailyTripLimit, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			yamlContent := `
addr: ":9090"
cutover_hour: 13
db_path: "/tmp/passlog-test.db"
roster:
  - id: "100245"
    name: "Rivera, J"
  - id: "100246"
    name: "Chen, A"
staff:
  a.gomez@example.org: "Mr. Gomez"
`
			tmpFile := createTempConfigFile(t, yamlContent)
			_ = os.Setenv("PASSLOG_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.CutoverHour, convey.ShouldEqual, 13)
				convey.So(cfg.DBPath, convey.ShouldEqual, "/tmp/passlog-test.db")
				convey.So(cfg.Roster, convey.ShouldHaveLength, 2)
				convey.So(cfg.Roster[0].Name, convey.ShouldEqual, "Rivera, J")
				convey.So(cfg.Staff["a.gomez@example.org"], convey.ShouldEqual, "Mr. Gomez")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
cutover_hour: 13
`
			tmpFile := createTempConfigFile(t, yamlContent)
			_ = os.Setenv("PASSLOG_CONFIG", tmpFile)
			_ = os.Setenv("PASSLOG_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.CutoverHour, convey.ShouldEqual, 13)
			})
		})

		convey.Convey("When loading config with an invalid YAML file", func() {
			tmpFile := createTempConfigFile(t, `invalid: yaml: content: [`)
			_ = os.Setenv("PASSLOG_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an invalid cutover hour", func() {
			_ = os.Setenv("PASSLOG_CUTOVER_HOUR", "25")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "cutover_hour")
			})
		})

		convey.Convey("When the roster has a duplicate id", func() {
			yamlContent := `
roster:
  - id: "1"
    name: "Rivera, J"
  - id: "1"
    name: "Chen, A"
`
			tmpFile := createTempConfigFile(t, yamlContent)
			_ = os.Setenv("PASSLOG_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "duplicate roster id")
			})
		})
	})
}
