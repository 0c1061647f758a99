package timecodec_test

import (
	"errors"
	"testing"

	"github.com/okian/meetscore/internal/domain/model"
	"github.com/okian/meetscore/internal/domain/timecodec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeconds(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"1:35.20", 95.20},
		{"19.85", 19.85},
		{" 22.10 ", 22.10},
		{"0:59.99", 59.99},
		{"10:00.00", 600},
		{"2:00", 120},
		{"45", 45},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := timecodec.ParseSeconds(tc.in)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestParseSecondsRejects(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "-1.00", "1:-05.00", "1:60.00", ":30.00", "1:2:3", ".", "NaN", "Inf", "1e3", "+5"} {
		t.Run(in, func(t *testing.T) {
			_, err := timecodec.ParseSeconds(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, timecodec.ErrFormat))
			var fe *timecodec.FormatError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, in, fe.Input)
		})
	}
}

func TestParseScore(t *testing.T) {
	v, err := timecodec.ParseScore("350.25")
	require.NoError(t, err)
	assert.InDelta(t, 350.25, v, 1e-9)

	_, err = timecodec.ParseScore("5:50.25")
	assert.ErrorIs(t, err, timecodec.ErrFormat)

	v, err = timecodec.Parse("1:01.50", false)
	require.NoError(t, err)
	assert.InDelta(t, 61.5, v, 1e-9)

	v, err = timecodec.Parse("287.40", true)
	require.NoError(t, err)
	assert.InDelta(t, 287.4, v, 1e-9)
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "1:35.20", timecodec.FormatSeconds(95.2, false))
	assert.Equal(t, "19.85", timecodec.FormatSeconds(19.85, false))
	assert.Equal(t, "0.50", timecodec.FormatSeconds(0.5, false))
	assert.Equal(t, "1:00.00", timecodec.FormatSeconds(59.999, false))
	assert.Equal(t, "350.25", timecodec.FormatSeconds(350.25, true))
	assert.Equal(t, "N/A", timecodec.FormatSeconds(-1, false))
	assert.Equal(t, "N/A", timecodec.FormatOptional(nil, false))
	assert.Equal(t, "22.10", timecodec.FormatOptional(model.Float(22.1), false))
}

func TestRoundTrip(t *testing.T) {
	for _, in := range []string{"1:35.20", "19.85", "4:59.01", "0.09"} {
		v, err := timecodec.ParseSeconds(in)
		require.NoError(t, err)
		assert.Equal(t, in, timecodec.FormatSeconds(v, false))
	}
}
