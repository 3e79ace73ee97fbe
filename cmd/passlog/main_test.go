package main

import (
	"context"
	"os"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	app "github.com/okian/passlog/internal/app"
	"github.com/okian/passlog/internal/config"
)

func TestMainWiring(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("PASSLOG_ADDR", ":8080")
			_ = os.Setenv("PASSLOG_CUTOVER_HOUR", "11")
			_ = os.Setenv("PASSLOG_DAILY_TRIP_LIMIT", "3")
			defer func() {
				_ = os.Unsetenv("PASSLOG_ADDR")
				_ = os.Unsetenv("PASSLOG_CUTOVER_HOUR")
				_ = os.Unsetenv("PASSLOG_DAILY_TRIP_LIMIT")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.CutoverHour, convey.ShouldEqual, 11)
				convey.So(cfg.DailyTripLimit, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When testing service creation", func() {
			convey.Convey("Then service should be creatable with default options", func() {
				svc := app.New()
				convey.So(svc, convey.ShouldNotBeNil)
			})

			convey.Convey("And service should be creatable with custom options", func() {
				svc := app.New(
					app.WithDBPath("test.db"),
					app.WithCutoverHour(13),
					app.WithDailyTripLimit(4),
				)
				convey.So(svc, convey.ShouldNotBeNil)
			})
		})
	})
}
