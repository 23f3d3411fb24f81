package sequencer

import (
	"time"

	"outreach/models"
)

// Advance computes prospect progress after a successful attempt of the step
// with order attempted. With a following step the prospect keeps running and
// becomes due after that step's wait; without one it is completed and
// next_touch_at is cleared.
func Advance(b *Bundle, attempted int, now time.Time) models.ProspectUpdate {
	next, ok := b.NextStep(attempted)
	if !ok {
		last := attempted
		if step := b.LastStep(); step != nil && step.StepOrder > last {
			last = step.StepOrder
		}
		return models.ProspectUpdate{
			SequenceStep:   last,
			SequenceStatus: models.ProspectCompleted,
			NextTouchAt:    nil,
			LastOutreachAt: &now,
		}
	}

	due := now.Add(time.Duration(next.WaitMinutes) * time.Minute)
	return models.ProspectUpdate{
		SequenceStep:   attempted,
		SequenceStatus: models.ProspectRunning,
		NextTouchAt:    &due,
		LastOutreachAt: &now,
	}
}

// complete is the cleanup for a prospect that has no step left to run.
func complete(b *Bundle, p *models.Prospect) models.ProspectUpdate {
	last := p.SequenceStep
	if step := b.LastStep(); step != nil && step.StepOrder > last {
		last = step.StepOrder
	}
	return models.ProspectUpdate{
		SequenceStep:   last,
		SequenceStatus: models.ProspectCompleted,
		NextTouchAt:    nil,
		LastOutreachAt: p.LastOutreachAt,
		AttemptCount:   p.AttemptCount,
	}
}

// afterFailure applies the retry policy to a failed attempt. It reports false
// when the policy leaves the prospect untouched, which is the default.
func afterFailure(policy RetryPolicy, p *models.Prospect, now time.Time) (models.ProspectUpdate, bool) {
	if !policy.Enabled() {
		return models.ProspectUpdate{}, false
	}

	attempts := p.AttemptCount + 1
	u := models.ProspectUpdate{
		SequenceStep:   p.SequenceStep,
		SequenceStatus: p.SequenceStatus,
		NextTouchAt:    p.NextTouchAt,
		AttemptCount:   attempts,
	}
	if policy.MaxAttempts > 0 && attempts >= policy.MaxAttempts {
		u.SequenceStatus = models.ProspectFailed
		return u, true
	}
	if policy.Backoff != nil {
		retryAt := now.Add(policy.Backoff.Delay(attempts))
		u.NextTouchAt = &retryAt
	}
	return u, true
}
