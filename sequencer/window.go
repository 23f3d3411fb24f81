package sequencer

import (
	"time"

	"outreach/models"
)

const windowLayout = "15:04"

// WithinSendWindow reports whether now, in the sequence's timezone, falls in
// [send_window_start, send_window_end). A sequence without both bounds is
// always inside its window. Windows that cross midnight (start >= end) are
// not supported and never match.
func WithinSendWindow(seq models.Sequence, loc *time.Location, now time.Time) bool {
	if seq.SendWindowStart == nil || seq.SendWindowEnd == nil ||
		*seq.SendWindowStart == "" || *seq.SendWindowEnd == "" {
		return true
	}

	start, err := minuteOfDay(*seq.SendWindowStart)
	if err != nil {
		return false
	}
	end, err := minuteOfDay(*seq.SendWindowEnd)
	if err != nil {
		return false
	}
	if start >= end {
		return false
	}

	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	current := local.Hour()*60 + local.Minute()
	return current >= start && current < end
}

func minuteOfDay(s string) (int, error) {
	t, err := time.Parse(windowLayout, s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
