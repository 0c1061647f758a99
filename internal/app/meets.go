package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/okian/meetscore/internal/domain/aggregate"
	"github.com/okian/meetscore/internal/domain/model"
	"github.com/okian/meetscore/internal/domain/reconcile"
	"github.com/okian/meetscore/internal/domain/relay"
	"github.com/okian/meetscore/internal/domain/roster"
	"github.com/okian/meetscore/internal/domain/scoring"
	"github.com/okian/meetscore/internal/domain/sensitivity"
	"github.com/okian/meetscore/internal/domain/timecodec"
	"github.com/okian/meetscore/pkg/logger"
	"github.com/okian/meetscore/pkg/metrics"
)

// RecomputeAck acknowledges a recompute request.
type RecomputeAck struct {
	RequestID string `json:"request_id"`
	MeetID    string `json:"meet_id"`
	Duplicate bool   `json:"duplicate"`
}

// StandingsView is the latest published scoring of a meet.
type StandingsView struct {
	MeetID     string           `json:"meet_id"`
	Version    uint64           `json:"version"`
	Current    bool             `json:"current"`
	ScoredAt   time.Time        `json:"scored_at"`
	Teams      []model.MeetTeam `json:"teams"`
	Standings  []model.MeetTeam `json:"standings"`
	Advisories []string         `json:"advisories,omitempty"`
}

// ReconcileReport splits reconciliation outcomes by kind.
type ReconcileReport struct {
	Version    uint64                 `json:"version,omitempty"`
	Applied    bool                   `json:"applied"`
	Resolved   []reconcile.Resolved   `json:"resolved"`
	Unresolved []reconcile.Unresolved `json:"unresolved"`
}

// SensitivityRequest overrides the athletes and percent stored on the
// team's roster selection when set.
type SensitivityRequest struct {
	AthleteIDs []string `json:"athlete_ids,omitempty"`
	Percent    float64  `json:"percent,omitempty"`
}

func dedupeKey(meetID, requestID string) string {
	return meetID + "/" + requestID
}

// validateMeet checks references that scoring relies on and every time
// field. Seconds missing from a lineup or relay are filled from their text.
func validateMeet(m *model.Meet) error {
	events := make(map[string]model.Event, len(m.Events))
	for _, e := range m.Events {
		if e.ID == "" || !e.Type.Valid() {
			return fmt.Errorf("%w: event %q has type %q", ErrInvalidMeet, e.ID, e.Type)
		}
		if _, dup := events[e.ID]; dup {
			return fmt.Errorf("%w: duplicate event %q", ErrInvalidMeet, e.ID)
		}
		events[e.ID] = e
	}
	for _, id := range m.EventOrder {
		if _, ok := events[id]; !ok {
			return fmt.Errorf("%w: event order names unknown event %q", ErrInvalidMeet, id)
		}
	}
	for _, a := range m.Athletes {
		if err := checkRecordedTimes(a); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidMeet, err)
		}
	}
	athletes := athleteTeams(m)
	for i := range m.Lineups {
		l := &m.Lineups[i]
		ev, ok := events[l.EventID]
		if _, known := athletes[l.AthleteID]; !ok || !known {
			return fmt.Errorf("%w: lineup %q references unknown event or athlete", ErrInvalidMeet, l.ID)
		}
		if err := entryTimes(l.SeedTime, &l.SeedSeconds, l.FinalTime, &l.FinalSeconds, ev.Type.ScoreLike()); err != nil {
			return fmt.Errorf("%w: lineup %q %w", ErrInvalidMeet, l.ID, err)
		}
	}
	for i := range m.Relays {
		if err := checkRelay(&m.Relays[i], events, athletes); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidMeet, err)
		}
	}
	return nil
}

// checkRelay checks a relay's event, members and times, filling its seconds
// from text. Empty member slots are allowed and compose as unresolved legs.
func checkRelay(r *model.RelayEntry, events map[string]model.Event, athletes map[string]string) error {
	if events[r.EventID].Type != model.Relay {
		return fmt.Errorf("relay %q is not entered in a relay event", r.ID)
	}
	for leg, id := range r.Members {
		if id == "" {
			continue
		}
		team, ok := athletes[id]
		if !ok {
			return fmt.Errorf("relay %q leg %d: unknown athlete %q", r.ID, leg+1, id)
		}
		if team != r.TeamID {
			return fmt.Errorf("relay %q leg %d: athlete %q is not on team %q", r.ID, leg+1, id, r.TeamID)
		}
	}
	for leg, t := range r.Times {
		if t != nil && !validSeconds(*t) {
			return fmt.Errorf("relay %q leg %d: custom time %v must be a non-negative number", r.ID, leg+1, *t)
		}
	}
	if err := entryTimes(r.SeedTime, &r.SeedSeconds, r.FinalTime, &r.FinalSeconds, false); err != nil {
		return fmt.Errorf("relay %q %w", r.ID, err)
	}
	return nil
}

func entryTimes(seedText string, seed **float64, finalText string, final **float64, scoreLike bool) error {
	if err := resolveTime(seedText, seed, scoreLike); err != nil {
		return fmt.Errorf("seed time: %w", err)
	}
	if err := resolveTime(finalText, final, scoreLike); err != nil {
		return fmt.Errorf("final time: %w", err)
	}
	return nil
}

// resolveTime parses text through the time codec. Text and seconds given
// together must agree to the hundredth.
func resolveTime(text string, secs **float64, scoreLike bool) error {
	if *secs != nil && !validSeconds(**secs) {
		return fmt.Errorf("%v must be a non-negative number", **secs)
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	v, err := timecodec.Parse(text, scoreLike)
	if err != nil {
		return err
	}
	if *secs == nil {
		*secs = model.Float(v)
		return nil
	}
	if math.Abs(timecodec.Round2(**secs)-v) > timeTolerance {
		return fmt.Errorf("%q disagrees with %v seconds", text, **secs)
	}
	return nil
}

// timeTolerance absorbs float noise below the clock's hundredths.
const timeTolerance = 0.005

func validSeconds(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// checkRecordedTimes rejects malformed athlete time records. Diving records
// hold scores.
func checkRecordedTimes(a model.Athlete) error {
	for _, et := range a.Times {
		if !validSeconds(et.Seconds) {
			return fmt.Errorf("athlete %q %s: %v must be a non-negative number", a.ID, et.Event, et.Seconds)
		}
		if strings.TrimSpace(et.Time) == "" {
			continue
		}
		n, ok := timecodec.ParseEventName(et.Event)
		if _, err := timecodec.Parse(et.Time, ok && n.Stroke == model.Dive); err != nil {
			return fmt.Errorf("athlete %q %s: %w", a.ID, et.Event, err)
		}
	}
	return nil
}

// CreateMeet stores a new meet snapshot. A meet without a configuration gets
// the service defaults.
func (s *Service) CreateMeet(ctx context.Context, m model.Meet) (model.Meet, error) {
	if err := s.ready(); err != nil {
		return model.Meet{}, err
	}
	if m.Config == (model.Config{}) {
		m.Config = s.meetDefaults
	}
	// Validation fills seconds in place; keep the caller's entries intact.
	m.Lineups, m.Relays = slices.Clone(m.Lineups), slices.Clone(m.Relays)
	if err := validateMeet(&m); err != nil {
		return model.Meet{}, err
	}
	created, err := s.store.Create(ctx, m)
	if err != nil {
		return model.Meet{}, err
	}
	s.logger.Info(ctx, "meet created",
		logger.String("meet_id", created.ID),
		logger.Int("events", len(created.Events)),
		logger.Int("athletes", len(created.Athletes)),
	)
	return created, nil
}

// GetMeet returns the current snapshot and its version.
func (s *Service) GetMeet(ctx context.Context, id string) (model.Meet, uint64, error) {
	if err := s.ready(); err != nil {
		return model.Meet{}, 0, err
	}
	return s.store.Get(ctx, id)
}

// Recompute queues a whole-meet recompute. Repeating a request ID for the
// same meet is acknowledged as a duplicate without queueing again. An empty
// request ID gets a fresh one.
func (s *Service) Recompute(ctx context.Context, meetID, requestID string) (RecomputeAck, error) {
	if err := s.ready(); err != nil {
		return RecomputeAck{}, err
	}
	if _, _, err := s.store.Get(ctx, meetID); err != nil {
		return RecomputeAck{}, err
	}
	if requestID == "" {
		requestID = s.newID()
	}
	ack := RecomputeAck{RequestID: requestID, MeetID: meetID}

	key := dedupeKey(meetID, requestID)
	if s.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordRecomputeDuplicate()
		ack.Duplicate = true
		return ack, nil
	}
	if err := s.queue.Enqueue(ctx, model.RecomputeJob{RequestID: requestID, MeetID: meetID}); err != nil {
		s.deduper.Unrecord(ctx, key)
		return RecomputeAck{}, fmt.Errorf("%w: %w", ErrBackpressure, err)
	}
	return ack, nil
}

// Standings returns the latest published result. Current reports whether it
// was computed from the current snapshot.
func (s *Service) Standings(ctx context.Context, meetID string) (StandingsView, error) {
	if err := s.ready(); err != nil {
		return StandingsView{}, err
	}
	_, version, err := s.store.Get(ctx, meetID)
	if err != nil {
		return StandingsView{}, err
	}
	scored, err := s.store.Result(ctx, meetID)
	if err != nil {
		return StandingsView{}, err
	}
	v := StandingsView{
		MeetID:    meetID,
		Version:   scored.Version,
		Current:   scored.Version == version,
		Teams:     scored.Result.Teams,
		Standings: scored.Result.Standings,
		ScoredAt:  scored.ScoredAt,
	}
	for _, a := range scored.Result.Advisories {
		v.Advisories = append(v.Advisories, a.Error())
	}
	return v, nil
}

// Progression returns per-event team points of the latest published result.
func (s *Service) Progression(ctx context.Context, meetID string, cumulative bool) ([]aggregate.Step, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	scored, err := s.store.Result(ctx, meetID)
	if err != nil {
		return nil, err
	}
	return aggregate.Progression(&scored.Result.Meet, cumulative), nil
}

// SaveRoster validates and stores a team's roster selection. Any violated
// limit blocks the save and is returned as a *model.LimitError.
func (s *Service) SaveRoster(ctx context.Context, meetID, teamID string, sel model.RosterSelection) (uint64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	sel.TeamID = teamID
	return s.store.Update(ctx, meetID, func(m *model.Meet) error {
		if !hasTeam(m, teamID) {
			return fmt.Errorf("%w: unknown team %q", ErrInvalidInput, teamID)
		}
		vs, err := roster.Validate(sel, m.Athletes, m.Config)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		vs = append(vs, roster.ValidateEntryCounts(teamLineups(m, teamID), m.Events, m.Athletes, m.Config)...)
		if err := s.blockOnViolations(ctx, meetID, teamID, vs); err != nil {
			return err
		}

		// Clone shares the roster slice with published snapshots.
		m.Rosters = slices.Clone(m.Rosters)
		for i := range m.Rosters {
			if m.Rosters[i].TeamID == teamID {
				m.Rosters[i] = sel
				return nil
			}
		}
		m.Rosters = append(m.Rosters, sel)
		return nil
	})
}

// SaveRelays replaces a team's relay entries after checking their members,
// times and the per-athlete relay limit.
func (s *Service) SaveRelays(ctx context.Context, meetID, teamID string, relays []model.RelayEntry) (uint64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	return s.store.Update(ctx, meetID, func(m *model.Meet) error {
		if !hasTeam(m, teamID) {
			return fmt.Errorf("%w: unknown team %q", ErrInvalidInput, teamID)
		}
		events := make(map[string]model.Event, len(m.Events))
		for _, e := range m.Events {
			events[e.ID] = e
		}
		athletes := athleteTeams(m)
		for i := range relays {
			r := &relays[i]
			r.TeamID = teamID
			if r.ID == "" {
				r.ID = s.newID()
			}
			if err := checkRelay(r, events, athletes); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidInput, err)
			}
		}
		vs := relay.ValidateRelayCounts(relays, m.Athletes, m.Config.MaxRelays)
		if err := s.blockOnViolations(ctx, meetID, teamID, vs); err != nil {
			return err
		}

		kept := m.Relays[:0]
		for _, r := range m.Relays {
			if r.TeamID != teamID {
				kept = append(kept, r)
			}
		}
		m.Relays = append(kept, relays...)
		return nil
	})
}

func (s *Service) blockOnViolations(ctx context.Context, meetID, teamID string, vs []model.Violation) error {
	if len(vs) == 0 {
		return nil
	}
	for _, v := range vs {
		metrics.RecordLimitViolation(v.Kind)
	}
	s.logger.Info(ctx, "roster limits violated",
		logger.String("meet_id", meetID),
		logger.String("team_id", teamID),
		logger.Int("violations", len(vs)),
	)
	return model.CheckViolations(vs)
}

// Sensitivity runs the what-if analysis for a team on the current snapshot.
func (s *Service) Sensitivity(ctx context.Context, meetID, teamID string, req SensitivityRequest) ([]sensitivity.Outcome, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	m, _, err := s.store.Get(ctx, meetID)
	if err != nil {
		return nil, err
	}
	ids, percent := req.AthleteIDs, req.Percent
	if len(ids) == 0 || percent == 0 {
		sel, ok := m.Roster(teamID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoRoster, teamID)
		}
		if len(ids) == 0 {
			ids = sel.SensitivityAthleteIDs
		}
		if percent == 0 {
			percent = sel.SensitivityPercent
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no sensitivity athletes selected", ErrInvalidInput)
	}
	out, err := sensitivity.Run(&m, teamID, ids, percent, s.engineOpts...)
	if err != nil {
		return nil, err
	}
	metrics.RecordSensitivityRun()
	return out, nil
}

// Reconcile matches published result rows onto the meet. When apply is set
// the resolved rows are stored as official results and a recompute is
// queued.
func (s *Service) Reconcile(ctx context.Context, meetID string, rows []reconcile.Row, apply bool) (ReconcileReport, error) {
	if err := s.ready(); err != nil {
		return ReconcileReport{}, err
	}
	m, _, err := s.store.Get(ctx, meetID)
	if err != nil {
		return ReconcileReport{}, err
	}
	outcomes := reconcile.Reconcile(&m, rows)
	report := ReconcileReport{Resolved: []reconcile.Resolved{}, Unresolved: []reconcile.Unresolved{}}
	for _, o := range outcomes {
		switch o := o.(type) {
		case reconcile.Resolved:
			report.Resolved = append(report.Resolved, o)
		case reconcile.Unresolved:
			report.Unresolved = append(report.Unresolved, o)
		}
	}
	metrics.RecordReconcileRows(reconcile.Count(outcomes))
	if !apply || len(report.Resolved) == 0 {
		return report, nil
	}

	version, err := s.store.Update(ctx, meetID, func(cur *model.Meet) error {
		// Match again against the snapshot being written.
		*cur = reconcile.Apply(cur, reconcile.Reconcile(cur, rows))
		return nil
	})
	if err != nil {
		return ReconcileReport{}, err
	}
	report.Version, report.Applied = version, true
	if _, err := s.Recompute(ctx, meetID, ""); err != nil && !errors.Is(err, ErrBackpressure) {
		return report, err
	}
	return report, nil
}

// ScoringTable generates a points table without a meet.
func (s *Service) ScoringTable(places, startPoints int, relayMultiplier float64) (scoring.Table, error) {
	return scoring.Generate(places, startPoints, relayMultiplier)
}

func hasTeam(m *model.Meet, teamID string) bool {
	for _, t := range m.Teams {
		if t.ID == teamID {
			return true
		}
	}
	return false
}

// athleteTeams maps athlete IDs to their team.
func athleteTeams(m *model.Meet) map[string]string {
	out := make(map[string]string, len(m.Athletes))
	for _, a := range m.Athletes {
		out[a.ID] = a.TeamID
	}
	return out
}

func teamLineups(m *model.Meet, teamID string) []model.Lineup {
	team := make(map[string]bool)
	for _, a := range m.Athletes {
		if a.TeamID == teamID {
			team[a.ID] = true
		}
	}
	var out []model.Lineup
	for _, l := range m.Lineups {
		if team[l.AthleteID] {
			out = append(out, l)
		}
	}
	return out
}
