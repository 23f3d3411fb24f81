package sequencer

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outreach/models"
)

func TestWithinSendWindow(t *testing.T) {
	window := func(start, end string) models.Sequence {
		s := sequence(1)
		s.SendWindowStart = strPtr(start)
		s.SendWindowEnd = strPtr(end)
		return s
	}
	at := func(h, m int) time.Time {
		return time.Date(2024, 3, 4, h, m, 0, 0, time.UTC)
	}

	tests := []struct {
		name string
		seq  models.Sequence
		now  time.Time
		want bool
	}{
		{"no window", sequence(1), at(3, 0), true},
		{"only start", func() models.Sequence { s := sequence(1); s.SendWindowStart = strPtr("09:00"); return s }(), at(3, 0), true},
		{"empty bounds", window("", ""), at(3, 0), true},
		{"inside", window("09:00", "17:00"), at(12, 0), true},
		{"at start", window("09:00", "17:00"), at(9, 0), true},
		{"at end is outside", window("09:00", "17:00"), at(17, 0), false},
		{"before start", window("09:00", "17:00"), at(8, 59), false},
		{"overnight never matches", window("22:00", "06:00"), at(23, 0), false},
		{"equal bounds", window("09:00", "09:00"), at(9, 0), false},
		{"unparseable", window("9am", "5pm"), at(12, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WithinSendWindow(tt.seq, time.UTC, tt.now))
		})
	}
}

func TestWithinSendWindowUsesSequenceTimezone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	s := sequence(1)
	s.SendWindowStart = strPtr("09:00")
	s.SendWindowEnd = strPtr("17:00")

	// 14:00 UTC in March (EST, UTC-5) is 09:00 local.
	now := time.Date(2024, 3, 4, 14, 0, 0, 0, time.UTC)
	assert.True(t, WithinSendWindow(s, loc, now))
	assert.False(t, WithinSendWindow(s, loc, now.Add(-time.Minute)))
	assert.True(t, WithinSendWindow(s, nil, now), "nil location falls back to UTC")
}
