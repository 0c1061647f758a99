package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	app "github.com/okian/meetscore/internal/app"
	"github.com/okian/meetscore/internal/config"
	"github.com/okian/meetscore/internal/domain/model"
	"github.com/okian/meetscore/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

func testMeet() model.Meet {
	return model.Meet{
		Events:   []model.Event{{ID: "e50", Name: "50 Free", Type: model.Individual}},
		Teams:    []model.Team{{ID: "A", Name: "Sharks"}},
		Athletes: []model.Athlete{{ID: "a1", TeamID: "A", FirstName: "Ann", LastName: "Lee"}},
		Lineups:  []model.Lineup{{ID: "l1", AthleteID: "a1", EventID: "e50", SeedSeconds: model.Float(20)}},
	}
}

func TestNewMux(t *testing.T) {
	convey.Convey("Given a started service built from the loaded configuration", t, func() {
		t.Setenv("MEETSCORE_WORKER_COUNT", "2")
		t.Setenv("MEETSCORE_MEET_MAX_RELAYS", "3")

		ctx := context.Background()
		cfg, err := config.Load(ctx)
		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.WorkerCount, convey.ShouldEqual, 2)

		svc := newService(cfg, logger.Get())
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		mux := newMux(ctx, cfg, svc)

		convey.Convey("Then API and docs routes are served", func() {
			for _, path := range []string{"/healthz", "/stats", "/openapi.yaml", "/api-docs", "/scoring-table"} {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest("GET", path, http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("Then the configured meet defaults reach new meets", func() {
			m, err := svc.CreateMeet(ctx, testMeet())
			convey.So(err, convey.ShouldBeNil)
			convey.So(m.Config.MaxRelays, convey.ShouldEqual, 3)
		})

		convey.Reset(func() { _ = svc.Stop(ctx) })
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a configuration on a free port", t, func() {
		t.Setenv("MEETSCORE_ADDR", "127.0.0.1:0")
		cfg, err := config.Load(context.Background())
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()

			convey.Convey("Then run shuts down cleanly", func() {
				convey.So(run(ctx, cfg, logger.Get()), convey.ShouldBeNil)
			})
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the background metrics updaters", t, func() {
		svc := app.New(app.WithWorkerCount(1))
		convey.So(svc.Start(context.Background()), convey.ShouldBeNil)

		convey.Convey("Then they update and return on cancellation", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(context.Background(), svc) }, convey.ShouldNotPanic)

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			convey.So(func() {
				startSystemMetricsUpdater(ctx)
				startServiceMetricsUpdater(ctx, svc)
			}, convey.ShouldNotPanic)
		})

		convey.Reset(func() { _ = svc.Stop(context.Background()) })
	})
}
