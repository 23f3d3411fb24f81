package sequencer

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"outreach/models"
	"outreach/utils"
)

// ErrorReporter forwards an error to system observability.
type ErrorReporter func(errorType string, err error, context map[string]interface{})

// EventLogger appends attempt records. Persistence is best effort: a failed
// insert is reported and swallowed so the run keeps going.
type EventLogger struct {
	store  EventStore
	log    logrus.FieldLogger
	report ErrorReporter
}

func NewEventLogger(store EventStore, log logrus.FieldLogger, report ErrorReporter) *EventLogger {
	if report == nil {
		report = utils.LogError
	}
	return &EventLogger{store: store, log: log, report: report}
}

// Record inserts ev and returns the persistence error, if any, for callers
// that want to count it. The run never acts on it.
func (l *EventLogger) Record(ctx context.Context, ev *models.OutreachEvent) error {
	if err := l.store.InsertEvent(ctx, ev); err != nil {
		perr := &EventPersistenceError{ProspectID: ev.ProspectID, Err: err}
		l.log.WithFields(logrus.Fields{
			"prospect_id": ev.ProspectID,
			"sequence_id": ev.SequenceID,
			"step_order":  ev.StepOrder,
			"status":      ev.Status,
		}).WithError(err).Error("Failed to persist outreach event")
		l.report("event_persistence", perr, map[string]interface{}{
			"prospect_id": ev.ProspectID,
			"sequence_id": ev.SequenceID,
			"step_order":  ev.StepOrder,
			"status":      string(ev.Status),
		})
		return perr
	}
	return nil
}

func newEvent(b *Bundle, step *models.SequenceStep, p *models.Prospect) *models.OutreachEvent {
	return &models.OutreachEvent{
		ProspectID:  p.ID,
		SequenceID:  b.Sequence.ID,
		StepID:      step.ID,
		StepOrder:   step.StepOrder,
		Channel:     step.Channel,
		ScheduledAt: p.NextTouchAt,
	}
}

func successEvent(b *Bundle, step *models.SequenceStep, p *models.Prospect, out Outcome, now time.Time) *models.OutreachEvent {
	ev := newEvent(b, step, p)
	ev.Status = out.Status
	if out.MessageID != "" {
		ev.MessageID = utils.Pointer(out.MessageID)
	}
	if out.Status == models.EventSent {
		ev.SentAt = utils.Pointer(now)
	} else {
		ev.ScheduledAt = utils.Pointer(now)
	}
	return ev
}

func failedEvent(b *Bundle, step *models.SequenceStep, p *models.Prospect, err error) *models.OutreachEvent {
	ev := newEvent(b, step, p)
	ev.Status = models.EventFailed
	ev.Error = utils.Pointer(err.Error())
	return ev
}
