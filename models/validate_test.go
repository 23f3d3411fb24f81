package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestValidateSequence(t *testing.T) {
	ok := Sequence{Name: "Intro", Status: SequenceActive, SendWindowStart: strPtr("09:00"), SendWindowEnd: strPtr("17:30")}
	require.NoError(t, Validate(&ok))

	bad := ok
	bad.Status = "deleted"
	bad.SendWindowEnd = strPtr("5pm")
	err := Validate(&bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Sequence.Status")
	assert.Contains(t, err.Error(), "Sequence.SendWindowEnd")

	unnamed := ok
	unnamed.Name = ""
	assert.Error(t, Validate(&unnamed))
}

func TestValidateProspect(t *testing.T) {
	p := Prospect{SequenceID: 1, SequenceStatus: ProspectRunning, SequenceStep: 2}
	require.NoError(t, Validate(&p))

	p.SequenceStatus = "archived"
	assert.Error(t, Validate(&p))

	p.SequenceStatus = ProspectRunning
	p.SequenceStep = -1
	assert.Error(t, Validate(&p))
}

func TestProspectStatusDue(t *testing.T) {
	assert.True(t, ProspectNotStarted.Due())
	assert.True(t, ProspectRunning.Due())
	for _, s := range []ProspectStatus{ProspectProcessing, ProspectCompleted, ProspectPaused, ProspectFailed} {
		assert.False(t, s.Due(), s)
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, ProspectStatus("unknown").Valid())
}

func TestProspectUpdateColumns(t *testing.T) {
	next := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	cols := ProspectUpdate{SequenceStep: 1, SequenceStatus: ProspectRunning, NextTouchAt: &next}.Columns()
	assert.Equal(t, 1, cols["sequence_step"])
	assert.Equal(t, ProspectRunning, cols["sequence_status"])
	assert.Contains(t, cols, "claimed_at")
	assert.Nil(t, cols["claimed_at"])
	assert.NotContains(t, cols, "last_outreach_at", "a failure never touches last_outreach_at")

	done := ProspectUpdate{SequenceStatus: ProspectCompleted, LastOutreachAt: &next}.Columns()
	assert.Contains(t, done, "last_outreach_at")
	assert.Nil(t, done["next_touch_at"])
}

func TestProspectUpdateApply(t *testing.T) {
	last := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	claimed := last.Add(time.Minute)
	p := Prospect{LastOutreachAt: &last, ClaimedAt: &claimed}

	ProspectUpdate{SequenceStep: 3, SequenceStatus: ProspectCompleted}.Apply(&p)
	assert.Equal(t, 3, p.SequenceStep)
	assert.Equal(t, ProspectCompleted, p.SequenceStatus)
	assert.Nil(t, p.NextTouchAt)
	assert.Nil(t, p.ClaimedAt)
	assert.Equal(t, &last, p.LastOutreachAt)
}
