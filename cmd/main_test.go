package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	app "github.com/okian/scoreboard/internal/app"
	"github.com/okian/scoreboard/internal/config"
	"github.com/okian/scoreboard/internal/domain/model"
	"github.com/okian/scoreboard/pkg/logger"
	"github.com/okian/scoreboard/pkg/metrics"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.InitWithOptions(logger.FormatText, io.Discard); err != nil {
		panic(err)
	}
}

type stubStore struct{}

func (stubStore) Participants(context.Context) ([]model.Participant, error) {
	return []model.Participant{
		{ID: 1, Name: "A", Party: "X", DistrictNum: 4},
		{ID: 2, Name: "B", Party: "Y", DistrictNum: 1},
	}, nil
}

func (stubStore) ScoreTotals(context.Context) ([]model.ScoreTotal, error) {
	return []model.ScoreTotal{{ParticipantID: 1, Total: 10}}, nil
}

func (stubStore) Now(context.Context) (time.Time, error) { return time.Now(), nil }
func (stubStore) Stats() sql.DBStats                     { return sql.DBStats{OpenConnections: 3, InUse: 1, Idle: 2} }
func (stubStore) Close() error                           { return nil }

type stubPool struct {
	stats sql.DBStats
	ok    bool
}

func (s stubPool) PoolStats() (sql.DBStats, bool) { return s.stats, s.ok }

func TestConfigLoading(t *testing.T) {
	convey.Convey("Given the well-known environment variables", t, func() {
		_ = os.Setenv("DATABASE_URL", "postgres://u:p@db:5432/app")
		_ = os.Setenv("LIFF_ID", "1657-abc")
		_ = os.Setenv("PORT", "8080")
		defer func() {
			_ = os.Unsetenv("DATABASE_URL")
			_ = os.Unsetenv("LIFF_ID")
			_ = os.Unsetenv("PORT")
		}()

		convey.Convey("When loading configuration", func() {
			cfg, err := config.Load(context.Background())

			convey.Convey("Then they should be applied", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.ListenAddr(), convey.ShouldEqual, ":8080")
				convey.So(cfg.LiffID, convey.ShouldEqual, "1657-abc")
			})

			convey.Convey("And service options should be buildable from them", func() {
				svc := app.New(serviceOptions(cfg, logger.Get())...)
				convey.So(svc, convey.ShouldNotBeNil)
				convey.So(*svc.ClientConfig(context.Background()).LiffID, convey.ShouldEqual, "1657-abc")
			})
		})
	})
}

func TestHandler(t *testing.T) {
	convey.Convey("Given the assembled HTTP handler", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.CORSAllowedOrigins = []string{"https://liff.example.com"}

		svc := app.New(app.WithStore(stubStore{}), app.WithLiffID("1657-abc"))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		h := newHandler(ctx, cfg, svc, logger.Get())
		get := func(target string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
			req.Header.Set("Origin", "https://liff.example.com")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			return w
		}

		convey.Convey("When requesting the scores", func() {
			w := get("/api/scores")

			convey.Convey("Then the merged listing should be returned", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				var out []map[string]interface{}
				convey.So(json.Unmarshal(w.Body.Bytes(), &out), convey.ShouldBeNil)
				convey.So(out, convey.ShouldHaveLength, 2)
				convey.So(out[0]["score"], convey.ShouldEqual, float64(10))
				convey.So(out[1]["score"], convey.ShouldEqual, float64(0))
				convey.So(w.Header().Get("Access-Control-Allow-Origin"), convey.ShouldEqual, "https://liff.example.com")
			})
		})

		convey.Convey("When requesting the client config", func() {
			w := get("/api/config")

			convey.Convey("Then the LIFF id should be returned", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldEqual, "{\"liffId\":\"1657-abc\"}\n")
			})
		})

		convey.Convey("When requesting the other routes", func() {
			convey.Convey("Then each should answer", func() {
				convey.So(get("/readyz").Code, convey.ShouldEqual, http.StatusOK)
				convey.So(get("/healthz").Code, convey.ShouldEqual, http.StatusOK)
				convey.So(get("/stats").Code, convey.ShouldEqual, http.StatusOK)
				convey.So(get("/openapi.yaml").Code, convey.ShouldEqual, http.StatusOK)
				convey.So(get("/api-docs").Code, convey.ShouldEqual, http.StatusOK)
				convey.So(get("/api/missing").Code, convey.ShouldEqual, http.StatusNotFound)
			})
		})

		convey.Convey("When requesting a client-side route", func() {
			w := get("/anything/else")

			convey.Convey("Then the index page should be served", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Header().Get("Content-Type"), convey.ShouldContainSubstring, "text/html")
			})
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the metrics updaters", t, func() {
		convey.Convey("When converting pool statistics", func() {
			got := poolStats(sql.DBStats{OpenConnections: 4, InUse: 1, Idle: 3, WaitCount: 2, WaitDuration: time.Second})

			convey.Convey("Then every field should be carried over", func() {
				convey.So(got, convey.ShouldResemble, metrics.PoolStats{
					OpenConnections: 4, InUse: 1, Idle: 3, WaitCount: 2, WaitDuration: time.Second,
				})
			})
		})

		convey.Convey("When updating metrics", func() {
			convey.Convey("Then nothing should panic with or without a pool", func() {
				convey.So(func() {
					updateSystemMetrics()
					updatePoolMetrics(stubPool{ok: false})
					updatePoolMetrics(stubPool{stats: sql.DBStats{OpenConnections: 1}, ok: true})
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When the context is canceled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			done := make(chan struct{})
			go func() {
				startMetricsUpdater(ctx, app.New())
				close(done)
			}()

			convey.Convey("Then the updater should return", func() {
				returned := false
				select {
				case <-done:
					returned = true
				case <-time.After(time.Second):
				}
				convey.So(returned, convey.ShouldBeTrue)
			})
		})
	})
}

func TestMetricsOptions(t *testing.T) {
	convey.Convey("Given metrics settings in the config", t, func() {
		cfg := config.New()
		cfg.MetricsPrefix = "board"
		cfg.MetricsRefreshMS = 1500
		cfg.MetricsLabels = map[string]string{"env": "test"}
		defer metrics.Configure(metricsOptions(config.New())...)

		convey.Convey("When the metrics manager is configured from them", func() {
			metrics.Configure(metricsOptions(cfg)...)
			metrics.RecordScoresServed()

			convey.Convey("Then the refresh interval and metric names should follow", func() {
				convey.So(metrics.RefreshInterval(), convey.ShouldEqual, 1500*time.Millisecond)

				families, err := metrics.GetRegistry().Gather()
				convey.So(err, convey.ShouldBeNil)
				var names []string
				for _, f := range families {
					names = append(names, f.GetName())
				}
				convey.So(names, convey.ShouldContain, "scoreboard_api_board_scores_served_total")
			})
		})
	})
}

func TestStartWithoutDatabase(t *testing.T) {
	convey.Convey("Given configuration without a database url", t, func() {
		prev, had := os.LookupEnv("DATABASE_URL")
		_ = os.Unsetenv("DATABASE_URL")
		_ = os.Setenv("LIFF_ID", "1657-abc")
		defer func() {
			_ = os.Unsetenv("LIFF_ID")
			if had {
				_ = os.Setenv("DATABASE_URL", prev)
			}
		}()

		ctx := context.Background()
		cfg, err := config.Load(ctx)
		convey.So(err, convey.ShouldBeNil)

		svc := app.New(serviceOptions(cfg, logger.Get())...)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		h := newHandler(ctx, cfg, svc, logger.Get())
		get := func(target string) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, http.NoBody))
			return w
		}

		convey.Convey("When the routes are requested", func() {
			convey.Convey("Then the client config should still be served", func() {
				w := get("/api/config")
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldEqual, "{\"liffId\":\"1657-abc\"}\n")
			})

			convey.Convey("And scores should fail with a 500", func() {
				w := get("/api/scores")
				convey.So(w.Code, convey.ShouldEqual, http.StatusInternalServerError)
				convey.So(w.Body.String(), convey.ShouldEqual, "{\"error\":\"Internal Server Error\"}\n")
			})

			convey.Convey("And readiness should report unavailable", func() {
				convey.So(get("/readyz").Code, convey.ShouldEqual, http.StatusServiceUnavailable)
			})
		})
	})
}
