package service_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/okian/meetscore/internal/adapters/repository"
	service "github.com/okian/meetscore/internal/app"
	"github.com/okian/meetscore/internal/domain/model"
	"github.com/okian/meetscore/internal/domain/reconcile"
	"github.com/okian/meetscore/internal/domain/scoring"
	"github.com/okian/meetscore/internal/domain/timecodec"
	"github.com/okian/meetscore/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

func testMeet() model.Meet {
	return model.Meet{
		Name: "Dual",
		Events: []model.Event{
			{ID: "e50", Name: "50 Free", Type: model.Individual},
			{ID: "e100", Name: "100 Free", Type: model.Individual},
			{ID: "r200", Name: "200 Free Relay", Type: model.Relay},
		},
		EventOrder: []string{"r200", "e50", "e100"},
		Teams:      []model.Team{{ID: "A", Name: "Sharks"}, {ID: "B", Name: "Dolphins"}},
		Athletes: []model.Athlete{
			{ID: "a1", TeamID: "A", FirstName: "Ann", LastName: "Lee"},
			{ID: "a2", TeamID: "A", FirstName: "Bo", LastName: "Kim"},
			{ID: "b1", TeamID: "B", FirstName: "Cy", LastName: "Ng"},
		},
		Lineups: []model.Lineup{
			{ID: "l1", AthleteID: "a1", EventID: "e50", SeedSeconds: model.Float(20.0)},
			{ID: "l2", AthleteID: "b1", EventID: "e50", SeedSeconds: model.Float(20.5)},
			{ID: "l3", AthleteID: "a2", EventID: "e100", SeedSeconds: model.Float(50.0)},
			{ID: "l4", AthleteID: "b1", EventID: "e100", SeedSeconds: model.Float(49.0)},
		},
	}
}

func startService(done chan model.RecomputeJob, opts ...service.Option) *service.Service {
	opts = append([]service.Option{
		service.WithWorkerCount(2),
		service.WithQueueSize(16),
		service.WithOnRecomputed(func(j model.RecomputeJob, err error) {
			if err == nil {
				done <- j
			}
		}),
	}, opts...)
	svc := service.New(opts...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func waitFor(done chan model.RecomputeJob) model.RecomputeJob {
	select {
	case j := <-done:
		return j
	case <-time.After(5 * time.Second):
		panic("recompute did not finish")
	}
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		svc := service.New()

		Convey("Then operations report it is not started", func() {
			_, err := svc.CreateMeet(context.Background(), testMeet())
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.Stop(context.Background()), ShouldBeNil)
			So(svc.Stats(context.Background())["started"], ShouldEqual, false)
		})
	})

	Convey("Given a started service", t, func() {
		done := make(chan model.RecomputeJob, 8)
		svc := startService(done)

		Convey("Then starting twice is harmless and stats are reported", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			stats := svc.Stats(context.Background())
			So(stats["started"], ShouldEqual, true)
			So(stats["workerCount"], ShouldEqual, 2)
			So(stats["meets"], ShouldEqual, 0)
		})

		Reset(func() {
			So(svc.Stop(context.Background()), ShouldBeNil)
		})
	})
}

func TestStopDrainsAfterStartContextEnds(t *testing.T) {
	Convey("Given a service started on a context that is then cancelled", t, func() {
		startCtx, cancel := context.WithCancel(context.Background())
		done := make(chan model.RecomputeJob, 8)
		svc := service.New(
			service.WithWorkerCount(1),
			service.WithOnRecomputed(func(j model.RecomputeJob, err error) {
				if err == nil {
					done <- j
				}
			}),
		)
		So(svc.Start(startCtx), ShouldBeNil)
		ctx := context.Background()
		m, err := svc.CreateMeet(ctx, testMeet())
		So(err, ShouldBeNil)
		cancel()

		Convey("When recomputes are queued and the service stops", func() {
			for _, id := range []string{"r1", "r2", "r3", "r4", "r5"} {
				_, err := svc.Recompute(ctx, m.ID, id)
				So(err, ShouldBeNil)
			}
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then every queued recompute ran", func() {
				So(done, ShouldHaveLength, 5)
			})
		})
	})
}

func TestCreateMeet(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := startService(make(chan model.RecomputeJob, 8))

		Convey("When a meet without configuration is created", func() {
			m, err := svc.CreateMeet(ctx, testMeet())
			So(err, ShouldBeNil)

			Convey("Then it gets an ID and the default configuration", func() {
				So(m.ID, ShouldNotBeEmpty)
				So(m.Config.ScoringPlaces, ShouldEqual, 16)
				So(m.Config.MaxAthletes, ShouldEqual, 18)

				got, version, err := svc.GetMeet(ctx, m.ID)
				So(err, ShouldBeNil)
				So(version, ShouldEqual, 1)
				So(got.Name, ShouldEqual, "Dual")
			})
		})

		Convey("When a meet has an unknown event type", func() {
			m := testMeet()
			m.Events[0].Type = "synchro"
			_, err := svc.CreateMeet(ctx, m)
			So(errors.Is(err, service.ErrInvalidMeet), ShouldBeTrue)
		})

		Convey("When a lineup references a missing athlete", func() {
			m := testMeet()
			m.Lineups[0].AthleteID = "ghost"
			_, err := svc.CreateMeet(ctx, m)
			So(errors.Is(err, service.ErrInvalidMeet), ShouldBeTrue)
		})

		Convey("When the same ID is created twice", func() {
			m := testMeet()
			m.ID = "dual"
			_, err := svc.CreateMeet(ctx, m)
			So(err, ShouldBeNil)
			_, err = svc.CreateMeet(ctx, m)
			So(errors.Is(err, repository.ErrExists), ShouldBeTrue)
		})

		Reset(func() { _ = svc.Stop(ctx) })
	})
}

func TestCreateMeetTimes(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		done := make(chan model.RecomputeJob, 8)
		svc := startService(done)

		Convey("When a lineup gives its seed only as text", func() {
			m := testMeet()
			m.Lineups[2].SeedSeconds = nil
			m.Lineups[2].SeedTime = "48.50"
			created, err := svc.CreateMeet(ctx, m)
			So(err, ShouldBeNil)
			So(m.Lineups[2].SeedSeconds, ShouldBeNil)

			Convey("Then the seconds are parsed and ranked", func() {
				got, _, err := svc.GetMeet(ctx, created.ID)
				So(err, ShouldBeNil)
				So(*got.Lineups[2].SeedSeconds, ShouldAlmostEqual, 48.50, 1e-9)

				_, err = svc.Recompute(ctx, created.ID, "")
				So(err, ShouldBeNil)
				waitFor(done)
				v, err := svc.Standings(ctx, created.ID)
				So(err, ShouldBeNil)
				// a2 now wins the 100 free: A 20+20, B 17+17
				So(v.Standings[0].TeamID, ShouldEqual, "A")
				So(v.Standings[0].TotalScore, ShouldEqual, 40)
				So(v.Standings[1].TotalScore, ShouldEqual, 34)
			})
		})

		Convey("When a diving score is given as text", func() {
			m := testMeet()
			m.Events = append(m.Events, model.Event{ID: "div", Name: "1 M Diving", Type: model.Diving})
			m.Lineups = append(m.Lineups, model.Lineup{ID: "d1", AthleteID: "a1", EventID: "div", SeedTime: "350.25"})
			created, err := svc.CreateMeet(ctx, m)
			So(err, ShouldBeNil)
			So(*created.Lineups[4].SeedSeconds, ShouldAlmostEqual, 350.25, 1e-9)
		})

		Convey("When a lineup time is malformed", func() {
			m := testMeet()
			m.Lineups[0].SeedSeconds = nil
			m.Lineups[0].SeedTime = "abc"
			_, err := svc.CreateMeet(ctx, m)
			So(errors.Is(err, service.ErrInvalidMeet), ShouldBeTrue)
			So(errors.Is(err, timecodec.ErrFormat), ShouldBeTrue)
			var fe *timecodec.FormatError
			So(errors.As(err, &fe), ShouldBeTrue)
			So(fe.Input, ShouldEqual, "abc")
		})

		Convey("When a final time is malformed", func() {
			m := testMeet()
			m.Lineups[1].FinalTime = "1:75.00"
			_, err := svc.CreateMeet(ctx, m)
			So(errors.Is(err, timecodec.ErrFormat), ShouldBeTrue)
		})

		Convey("When text and seconds disagree", func() {
			m := testMeet()
			m.Lineups[0].SeedTime = "21.00"
			_, err := svc.CreateMeet(ctx, m)
			So(errors.Is(err, service.ErrInvalidMeet), ShouldBeTrue)
		})

		Convey("When text and seconds agree", func() {
			m := testMeet()
			m.Lineups[0].SeedTime = "20.00"
			_, err := svc.CreateMeet(ctx, m)
			So(err, ShouldBeNil)
		})

		Convey("When seconds are negative", func() {
			m := testMeet()
			m.Lineups[0].SeedSeconds = model.Float(-1)
			_, err := svc.CreateMeet(ctx, m)
			So(errors.Is(err, service.ErrInvalidMeet), ShouldBeTrue)
		})

		Convey("When an athlete time record is malformed", func() {
			m := testMeet()
			m.Athletes[0].Times = []model.EventTime{{Event: "50 Free", Time: "twenty"}}
			_, err := svc.CreateMeet(ctx, m)
			So(errors.Is(err, timecodec.ErrFormat), ShouldBeTrue)
		})

		Reset(func() { _ = svc.Stop(ctx) })
	})
}

func TestRecompute(t *testing.T) {
	Convey("Given a stored meet", t, func() {
		ctx := context.Background()
		done := make(chan model.RecomputeJob, 8)
		svc := startService(done)
		m, err := svc.CreateMeet(ctx, testMeet())
		So(err, ShouldBeNil)

		Convey("Then standings are unavailable before any recompute", func() {
			_, err := svc.Standings(ctx, m.ID)
			So(errors.Is(err, repository.ErrNoResult), ShouldBeTrue)
		})

		Convey("When a recompute is requested", func() {
			ack, err := svc.Recompute(ctx, m.ID, "req-1")
			So(err, ShouldBeNil)
			So(ack.Duplicate, ShouldBeFalse)
			So(waitFor(done).RequestID, ShouldEqual, "req-1")

			Convey("Then standings reflect the scored meet", func() {
				v, err := svc.Standings(ctx, m.ID)
				So(err, ShouldBeNil)
				So(v.Current, ShouldBeTrue)
				So(v.Version, ShouldEqual, 1)
				// A: 20 (50 free) + 17 (100 free), B: 17 + 20
				So(v.Standings, ShouldHaveLength, 2)
				So(v.Standings[0].TotalScore, ShouldEqual, 37)
				So(v.Standings[1].TotalScore, ShouldEqual, 37)
			})

			Convey("Then progression follows the event order", func() {
				steps, err := svc.Progression(ctx, m.ID, true)
				So(err, ShouldBeNil)
				So(steps, ShouldHaveLength, 3)
				So(steps[0].EventID, ShouldEqual, "r200")
				So(steps[2].EventID, ShouldEqual, "e100")
			})

			Convey("Then repeating the request ID is a duplicate", func() {
				again, err := svc.Recompute(ctx, m.ID, "req-1")
				So(err, ShouldBeNil)
				So(again.Duplicate, ShouldBeTrue)
			})
		})

		Convey("When no request ID is given", func() {
			ack, err := svc.Recompute(ctx, m.ID, "")
			So(err, ShouldBeNil)
			So(ack.RequestID, ShouldNotBeEmpty)
			waitFor(done)
		})

		Convey("When the meet does not exist", func() {
			_, err := svc.Recompute(ctx, "missing", "req")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Reset(func() { _ = svc.Stop(ctx) })
	})
}

func TestSaveRoster(t *testing.T) {
	Convey("Given a stored meet with a one-athlete limit", t, func() {
		ctx := context.Background()
		svc := startService(make(chan model.RecomputeJob, 8))
		m := testMeet()
		cfg := model.Config{ScoringPlaces: 16, ScoringStartPoints: 20, RelayMultiplier: 2, MaxAthletes: 1, DiverRatio: 0.5}
		m.Config = cfg
		m, err := svc.CreateMeet(ctx, m)
		So(err, ShouldBeNil)

		Convey("When the selection is over the limit", func() {
			_, err := svc.SaveRoster(ctx, m.ID, "A", model.RosterSelection{SelectedAthleteIDs: []string{"a1", "a2"}})

			Convey("Then the save is blocked with the violations", func() {
				So(errors.Is(err, model.ErrLimitExceeded), ShouldBeTrue)
				var le *model.LimitError
				So(errors.As(err, &le), ShouldBeTrue)
				So(le.Violations[0].Kind, ShouldEqual, model.KindScoringCount)

				_, version, _ := svc.GetMeet(ctx, m.ID)
				So(version, ShouldEqual, 1)
			})
		})

		Convey("When the selection is within limits", func() {
			version, err := svc.SaveRoster(ctx, m.ID, "A", model.RosterSelection{SelectedAthleteIDs: []string{"a1"}})
			So(err, ShouldBeNil)
			So(version, ShouldEqual, 2)

			Convey("Then it replaces any previous selection", func() {
				_, err := svc.SaveRoster(ctx, m.ID, "A", model.RosterSelection{SelectedAthleteIDs: []string{"a2"}})
				So(err, ShouldBeNil)
				got, _, _ := svc.GetMeet(ctx, m.ID)
				So(got.Rosters, ShouldHaveLength, 1)
				So(got.Rosters[0].SelectedAthleteIDs, ShouldResemble, []string{"a2"})
			})
		})

		Convey("When the team is unknown", func() {
			_, err := svc.SaveRoster(ctx, m.ID, "Z", model.RosterSelection{})
			So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
		})

		Reset(func() { _ = svc.Stop(ctx) })
	})
}

func TestSaveRelays(t *testing.T) {
	Convey("Given a stored meet", t, func() {
		ctx := context.Background()
		svc := startService(make(chan model.RecomputeJob, 8))
		m, err := svc.CreateMeet(ctx, testMeet())
		So(err, ShouldBeNil)

		Convey("When a relay is entered in a relay event", func() {
			_, err := svc.SaveRelays(ctx, m.ID, "A", []model.RelayEntry{
				{EventID: "r200", Members: [4]string{"a1", "a2"}, SeedSeconds: model.Float(90)},
			})
			So(err, ShouldBeNil)

			Convey("Then it is stored for the team with an ID", func() {
				got, _, _ := svc.GetMeet(ctx, m.ID)
				So(got.Relays, ShouldHaveLength, 1)
				So(got.Relays[0].TeamID, ShouldEqual, "A")
				So(got.Relays[0].ID, ShouldNotBeEmpty)
			})
		})

		Convey("When a relay is entered in an individual event", func() {
			_, err := svc.SaveRelays(ctx, m.ID, "A", []model.RelayEntry{{EventID: "e50"}})
			So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("When a relay names an unknown athlete", func() {
			_, err := svc.SaveRelays(ctx, m.ID, "A", []model.RelayEntry{
				{EventID: "r200", Members: [4]string{"a1", "ghost"}},
			})
			So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("When a relay names another team's athlete", func() {
			_, err := svc.SaveRelays(ctx, m.ID, "A", []model.RelayEntry{
				{EventID: "r200", Members: [4]string{"a1", "b1"}},
			})
			So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)

			got, version, _ := svc.GetMeet(ctx, m.ID)
			So(version, ShouldEqual, 1)
			So(got.Relays, ShouldBeEmpty)
		})

		Convey("When a custom leg time is negative", func() {
			_, err := svc.SaveRelays(ctx, m.ID, "A", []model.RelayEntry{
				{EventID: "r200", Members: [4]string{"a1"}, Times: [4]*float64{model.Float(-2)}},
			})
			So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("When a relay seed is given only as text", func() {
			_, err := svc.SaveRelays(ctx, m.ID, "A", []model.RelayEntry{
				{EventID: "r200", Members: [4]string{"a1", "a2"}, SeedTime: "1:30.10"},
			})
			So(err, ShouldBeNil)
			got, _, _ := svc.GetMeet(ctx, m.ID)
			So(*got.Relays[0].SeedSeconds, ShouldAlmostEqual, 90.10, 1e-9)
		})

		Convey("When a relay seed is malformed", func() {
			_, err := svc.SaveRelays(ctx, m.ID, "A", []model.RelayEntry{
				{EventID: "r200", SeedTime: "-90"},
			})
			So(errors.Is(err, service.ErrInvalidInput), ShouldBeTrue)
			So(errors.Is(err, timecodec.ErrFormat), ShouldBeTrue)
		})

		Reset(func() { _ = svc.Stop(ctx) })
	})
}

func TestSensitivity(t *testing.T) {
	Convey("Given a stored meet", t, func() {
		ctx := context.Background()
		svc := startService(make(chan model.RecomputeJob, 8))
		m, err := svc.CreateMeet(ctx, testMeet())
		So(err, ShouldBeNil)

		Convey("Then a team without a roster needs explicit athletes", func() {
			_, err := svc.Sensitivity(ctx, m.ID, "A", service.SensitivityRequest{})
			So(errors.Is(err, service.ErrNoRoster), ShouldBeTrue)
		})

		Convey("Then explicit athletes and percent are analysed", func() {
			out, err := svc.Sensitivity(ctx, m.ID, "A", service.SensitivityRequest{AthleteIDs: []string{"a2"}, Percent: 5})
			So(err, ShouldBeNil)
			So(out, ShouldHaveLength, 1)
			// 50.00 becomes 47.50 and beats 49.00.
			So(out[0].Baseline.AthletePoints, ShouldEqual, 17)
			So(out[0].Better.AthletePoints, ShouldEqual, 20)
		})

		Convey("Then the roster selection supplies defaults", func() {
			_, err := svc.SaveRoster(ctx, m.ID, "A", model.RosterSelection{
				SelectedAthleteIDs:    []string{"a1", "a2"},
				SensitivityAthleteIDs: []string{"a1"},
				SensitivityPercent:    1,
			})
			So(err, ShouldBeNil)
			out, err := svc.Sensitivity(ctx, m.ID, "A", service.SensitivityRequest{})
			So(err, ShouldBeNil)
			So(out, ShouldHaveLength, 1)
			So(out[0].AthleteID, ShouldEqual, "a1")
			So(out[0].Percent, ShouldEqual, 1)
		})

		Reset(func() { _ = svc.Stop(ctx) })
	})
}

func TestReconcile(t *testing.T) {
	Convey("Given a stored meet and published results", t, func() {
		ctx := context.Background()
		done := make(chan model.RecomputeJob, 8)
		svc := startService(done)
		m, err := svc.CreateMeet(ctx, testMeet())
		So(err, ShouldBeNil)
		rows := []reconcile.Row{
			{EventName: "50 Yard Freestyle", Name: "Ng, Cy", Place: model.Int(1), Time: "19.80"},
			{EventName: "50 Free", Name: "Ann Lee", Place: model.Int(2), Time: "20.10"},
			{EventName: "400 IM", Name: "Ann Lee", Place: model.Int(1)},
		}

		Convey("When only previewing", func() {
			report, err := svc.Reconcile(ctx, m.ID, rows, false)
			So(err, ShouldBeNil)

			Convey("Then outcomes are split and nothing is stored", func() {
				So(report.Applied, ShouldBeFalse)
				So(report.Resolved, ShouldHaveLength, 2)
				So(report.Unresolved, ShouldHaveLength, 1)
				So(report.Unresolved[0].Reason, ShouldEqual, reconcile.ReasonUnknownEvent)
				_, version, _ := svc.GetMeet(ctx, m.ID)
				So(version, ShouldEqual, 1)
			})
		})

		Convey("When applying", func() {
			report, err := svc.Reconcile(ctx, m.ID, rows, true)
			So(err, ShouldBeNil)
			So(report.Applied, ShouldBeTrue)
			So(report.Version, ShouldEqual, 2)
			waitFor(done)

			Convey("Then official places drive the recomputed standings", func() {
				v, err := svc.Standings(ctx, m.ID)
				So(err, ShouldBeNil)
				So(v.Version, ShouldEqual, 2)
				// B: 20 + 20, A: 17 + 17
				So(v.Standings[0].TeamID, ShouldEqual, "B")
				So(v.Standings[0].TotalScore, ShouldEqual, 40)
			})
		})

		Reset(func() { _ = svc.Stop(ctx) })
	})
}

func TestScoringTable(t *testing.T) {
	Convey("Given the scoring table operation", t, func() {
		svc := service.New()

		Convey("Then it needs no started service", func() {
			table, err := svc.ScoringTable(16, 20, 2)
			So(err, ShouldBeNil)
			So(table.Relay[0], ShouldEqual, 40)

			_, err = svc.ScoringTable(10, 20, 2)
			So(errors.Is(err, scoring.ErrConfiguration), ShouldBeTrue)
		})
	})
}
