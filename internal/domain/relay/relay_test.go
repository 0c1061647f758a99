package relay_test

import (
	"errors"
	"testing"

	"github.com/okian/meetscore/internal/domain/model"
	"github.com/okian/meetscore/internal/domain/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var free50 = relay.Leg{Stroke: model.Free, Distance: 50}

func athletes() []model.Athlete {
	return []model.Athlete{
		{ID: "flat", FirstName: "Flat", LastName: "Only", Times: []model.EventTime{
			{Event: "50 Free", Time: "20.00", Seconds: 20.00},
		}},
		{ID: "split", FirstName: "Has", LastName: "Split", Times: []model.EventTime{
			{Event: "50 FR", Seconds: 21.00},
			{Event: "50 Freestyle", Seconds: 20.10, IsRelaySplit: true},
		}},
		{ID: "slowtext", FirstName: "Text", LastName: "Time", Times: []model.EventTime{
			{Event: "50 Yard Free", Time: "22.40"},
			{Event: "50 Free", Time: "21.90"},
		}},
		{ID: "tiny", FirstName: "Tiny", LastName: "Time", Times: []model.EventTime{
			{Event: "50 Free", Seconds: 0.30},
		}},
		{ID: "backer", FirstName: "Back", LastName: "Stroker", Times: []model.EventTime{
			{Event: "50 Back", Seconds: 25.00},
		}},
	}
}

func TestLegTimeFallbackChain(t *testing.T) {
	c := relay.NewComposer(athletes(), relay.WithCorrectionFactor(0.5))

	t.Run("split requested but missing falls back to corrected flat", func(t *testing.T) {
		lt, err := c.LegTime(relay.LegRequest{AthleteID: "flat", LegIndex: 1, Leg: free50, UseSplit: true})
		require.NoError(t, err)
		assert.InDelta(t, 19.50, lt.Seconds, 1e-9)
		assert.Equal(t, relay.SourceCorrected, lt.Source)
	})

	t.Run("split on file is used verbatim", func(t *testing.T) {
		lt, err := c.LegTime(relay.LegRequest{AthleteID: "split", LegIndex: 2, Leg: free50, UseSplit: true})
		require.NoError(t, err)
		assert.InDelta(t, 20.10, lt.Seconds, 1e-9)
		assert.Equal(t, relay.SourceSplit, lt.Source)
	})

	t.Run("split not requested always corrects the flat start", func(t *testing.T) {
		lt, err := c.LegTime(relay.LegRequest{AthleteID: "split", LegIndex: 3, Leg: free50})
		require.NoError(t, err)
		assert.InDelta(t, 20.50, lt.Seconds, 1e-9)
	})

	t.Run("leg zero is always the flat start", func(t *testing.T) {
		lt, err := c.LegTime(relay.LegRequest{AthleteID: "split", LegIndex: 0, Leg: free50, UseSplit: true})
		require.NoError(t, err)
		assert.InDelta(t, 21.00, lt.Seconds, 1e-9)
		assert.Equal(t, relay.SourceFlat, lt.Source)
	})

	t.Run("best parsed text time is used", func(t *testing.T) {
		lt, err := c.LegTime(relay.LegRequest{AthleteID: "slowtext", LegIndex: 0, Leg: free50})
		require.NoError(t, err)
		assert.InDelta(t, 21.90, lt.Seconds, 1e-9)
	})

	t.Run("correction floors at zero", func(t *testing.T) {
		lt, err := c.LegTime(relay.LegRequest{AthleteID: "tiny", LegIndex: 1, Leg: free50})
		require.NoError(t, err)
		assert.Zero(t, lt.Seconds)
	})

	t.Run("custom time overrides everything", func(t *testing.T) {
		lt, err := c.LegTime(relay.LegRequest{AthleteID: "", LegIndex: 2, Leg: free50, Custom: model.Float(18.75)})
		require.NoError(t, err)
		assert.InDelta(t, 18.75, lt.Seconds, 1e-9)
		assert.Equal(t, relay.SourceCustom, lt.Source)
	})

	t.Run("negative custom time floors at zero", func(t *testing.T) {
		lt, err := c.LegTime(relay.LegRequest{AthleteID: "flat", LegIndex: 0, Leg: free50, Custom: model.Float(-3.25)})
		require.NoError(t, err)
		assert.Zero(t, lt.Seconds)
		assert.Equal(t, relay.SourceCustom, lt.Source)
	})

	t.Run("missing time is unresolved", func(t *testing.T) {
		_, err := c.LegTime(relay.LegRequest{AthleteID: "backer", LegIndex: 0, Leg: free50})
		require.Error(t, err)
		assert.True(t, errors.Is(err, relay.ErrLegUnresolved))
		var ue *relay.LegUnresolvedError
		require.True(t, errors.As(err, &ue))
		assert.Equal(t, "backer", ue.AthleteID)

		_, err = c.LegTime(relay.LegRequest{AthleteID: "nobody", LegIndex: 1, Leg: free50})
		assert.ErrorIs(t, err, relay.ErrLegUnresolved)
		_, err = c.LegTime(relay.LegRequest{LegIndex: 1, Leg: free50})
		assert.ErrorIs(t, err, relay.ErrLegUnresolved)
	})
}

func TestCompose(t *testing.T) {
	c := relay.NewComposer(athletes(), relay.WithCorrectionFactor(0.5))
	legs, ok := relay.LegsFor("200 Free Relay")
	require.True(t, ok)

	t.Run("all legs resolve", func(t *testing.T) {
		entry := model.RelayEntry{
			Members:        [4]string{"split", "flat", "split", "slowtext"},
			UseRelaySplits: [4]bool{true, true, true, false},
		}
		comp := c.Compose(entry, legs)
		require.NotNil(t, comp.Total)
		// 21.00 + 19.50 + 20.10 + 21.40
		assert.InDelta(t, 82.00, *comp.Total, 1e-9)
		assert.Empty(t, comp.Unresolved)
		assert.Equal(t, relay.SourceFlat, comp.Sources[0])
	})

	t.Run("one missing leg makes the total unavailable", func(t *testing.T) {
		entry := model.RelayEntry{Members: [4]string{"split", "flat", "backer", "slowtext"}}
		comp := c.Compose(entry, legs)
		assert.Nil(t, comp.Total)
		require.Len(t, comp.Unresolved, 1)
		assert.Equal(t, 2, comp.Unresolved[0].LegIndex)
		assert.Nil(t, comp.Legs[2])
		assert.NotNil(t, comp.Legs[3])
	})

	t.Run("custom times fill gaps", func(t *testing.T) {
		entry := model.RelayEntry{
			Members: [4]string{"split", "flat", "backer", ""},
			Times:   [4]*float64{nil, nil, model.Float(22), model.Float(23)},
		}
		comp := c.Compose(entry, legs)
		require.NotNil(t, comp.Total)
		assert.InDelta(t, 21.00+19.50+22+23, *comp.Total, 1e-9)
	})
}

func TestLegsFor(t *testing.T) {
	legs, ok := relay.LegsFor("200 Medley Relay")
	require.True(t, ok)
	assert.Equal(t, relay.Leg{Stroke: model.Back, Distance: 50}, legs[0])
	assert.Equal(t, relay.Leg{Stroke: model.Breast, Distance: 50}, legs[1])
	assert.Equal(t, relay.Leg{Stroke: model.Fly, Distance: 50}, legs[2])
	assert.Equal(t, relay.Leg{Stroke: model.Free, Distance: 50}, legs[3])

	legs, ok = relay.LegsFor("400 FR Relay")
	require.True(t, ok)
	assert.Equal(t, relay.Leg{Stroke: model.Free, Distance: 100}, legs[3])

	_, ok = relay.LegsFor("100 Free")
	assert.False(t, ok)
}

func TestValidateRelayCounts(t *testing.T) {
	roster := []model.Athlete{
		{ID: "a", FirstName: "Amy", LastName: "Adams"},
		{ID: "b", FirstName: "Bo", LastName: "Brown"},
	}
	relays := []model.RelayEntry{
		{EventID: "r1", Members: [4]string{"a", "b"}},
		{EventID: "r2", Members: [4]string{"a", "b"}},
		{EventID: "r3", Members: [4]string{"a"}},
		{EventID: "r3", Members: [4]string{"", "", "", "a"}},
	}

	vs := relay.ValidateRelayCounts(relays, roster, 2)
	require.Len(t, vs, 1)
	assert.Equal(t, model.Violation{Kind: model.KindRelayCount, SubjectID: "a", Subject: "Amy Adams", Limit: 2, Actual: 3}, vs[0])

	assert.Empty(t, relay.ValidateRelayCounts(relays, roster, 3))
	assert.Empty(t, relay.ValidateRelayCounts(relays, roster, 0))
}
