package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/okian/meetscore/internal/adapters/repository"
	"github.com/okian/meetscore/internal/domain/engine"
	"github.com/okian/meetscore/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleMeet() model.Meet {
	return model.Meet{
		Name:     "Dual",
		Events:   []model.Event{{ID: "e50", Name: "50 Free", Type: model.Individual}},
		Teams:    []model.Team{{ID: "A"}},
		Athletes: []model.Athlete{{ID: "a1", TeamID: "A"}},
		Lineups:  []model.Lineup{{ID: "l1", AthleteID: "a1", EventID: "e50", SeedSeconds: model.Float(20)}},
	}
}

func TestMemStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty store", t, func() {
		s := repository.NewMemStore()

		Convey("When a meet without an ID is created", func() {
			m, err := s.Create(ctx, sampleMeet())
			So(err, ShouldBeNil)

			Convey("Then a UUID is assigned and version one is stored", func() {
				_, perr := uuid.Parse(m.ID)
				So(perr, ShouldBeNil)
				got, version, err := s.Get(ctx, m.ID)
				So(err, ShouldBeNil)
				So(version, ShouldEqual, 1)
				So(got.Name, ShouldEqual, "Dual")
				So(s.Count(ctx), ShouldEqual, 1)
			})

			Convey("Then creating the same ID again conflicts", func() {
				_, err := s.Create(ctx, m)
				So(errors.Is(err, repository.ErrExists), ShouldBeTrue)
			})

			Convey("Then callers cannot mutate the stored snapshot", func() {
				got, _, _ := s.Get(ctx, m.ID)
				got.Lineups[0].Points = 99
				again, _, _ := s.Get(ctx, m.ID)
				So(again.Lineups[0].Points, ShouldEqual, 0)
			})

			Convey("Then a successful update bumps the version", func() {
				v, err := s.Update(ctx, m.ID, func(mt *model.Meet) error {
					mt.Name = "Renamed"
					mt.ID = "ignored"
					return nil
				})
				So(err, ShouldBeNil)
				So(v, ShouldEqual, 2)
				got, _, _ := s.Get(ctx, m.ID)
				So(got.Name, ShouldEqual, "Renamed")
				So(got.ID, ShouldEqual, m.ID)
			})

			Convey("Then a failed update changes nothing", func() {
				boom := errors.New("boom")
				v, err := s.Update(ctx, m.ID, func(mt *model.Meet) error {
					mt.Name = "Broken"
					return boom
				})
				So(err, ShouldEqual, boom)
				So(v, ShouldEqual, 1)
				got, _, _ := s.Get(ctx, m.ID)
				So(got.Name, ShouldEqual, "Dual")
			})

			Convey("Then results are published by version", func() {
				_, err := s.Result(ctx, m.ID)
				So(errors.Is(err, repository.ErrNoResult), ShouldBeTrue)

				So(s.PutResult(ctx, m.ID, 2, engine.Result{Teams: []model.MeetTeam{{TeamID: "A", TotalScore: 20}}}), ShouldBeNil)
				err = s.PutResult(ctx, m.ID, 1, engine.Result{})
				So(errors.Is(err, repository.ErrStale), ShouldBeTrue)

				scored, err := s.Result(ctx, m.ID)
				So(err, ShouldBeNil)
				So(scored.Version, ShouldEqual, 2)
				So(scored.Result.Teams[0].TotalScore, ShouldEqual, 20)
				So(scored.ScoredAt.IsZero(), ShouldBeFalse)
			})
		})

		Convey("Then unknown meets are not found", func() {
			_, _, err := s.Get(ctx, "nope")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			_, err = s.Update(ctx, "nope", func(*model.Meet) error { return nil })
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			So(errors.Is(s.PutResult(ctx, "nope", 1, engine.Result{}), repository.ErrNotFound), ShouldBeTrue)
			_, err = s.Result(ctx, "nope")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})

	Convey("Given a store with a fixed ID generator", t, func() {
		n := 0
		s := repository.NewMemStore(repository.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("meet-%d", n)
		}))
		m, err := s.Create(ctx, sampleMeet())
		So(err, ShouldBeNil)
		So(m.ID, ShouldEqual, "meet-1")

		Convey("When many writers update concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, _ = s.Update(ctx, m.ID, func(mt *model.Meet) error {
						mt.Lineups[0].Points++
						return nil
					})
				}()
			}
			wg.Wait()

			Convey("Then every update is applied once", func() {
				got, version, err := s.Get(ctx, m.ID)
				So(err, ShouldBeNil)
				So(version, ShouldEqual, 51)
				So(got.Lineups[0].Points, ShouldEqual, 50)
			})
		})
	})
}
