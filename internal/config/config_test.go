package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/scoreboard/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":3000")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.DBSSLMode, convey.ShouldEqual, "require")
			convey.So(cfg.DBConnectTimeoutMS, convey.ShouldEqual, 5000)
			convey.So(cfg.DBMaxOpenConns, convey.ShouldEqual, 10)
			convey.So(cfg.QueryTimeoutMS, convey.ShouldEqual, 5000)
			convey.So(cfg.MetricsEnabled, convey.ShouldBeTrue)
			convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "scoreboard")
			convey.So(cfg.MetricsRefresh(), convey.ShouldEqual, 10*time.Second)
		})

		convey.Convey("Then validation should pass without a database url", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then RequireDatabase should reject a missing database url", func() {
			convey.So(errors.Is(cfg.RequireDatabase(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			cfg.DatabaseURL = "postgres://localhost/scores"
			convey.So(cfg.RequireDatabase(), convey.ShouldBeNil)
		})

		convey.Convey("Then a non-positive metrics refresh should be rejected", func() {
			cfg.MetricsRefreshMS = 0
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a config with a port", t, func() {
		cfg := config.New()
		cfg.Port = "4000"

		convey.Convey("Then the port should take precedence over addr", func() {
			convey.So(cfg.ListenAddr(), convey.ShouldEqual, ":4000")
		})
	})
}
