package sequencer

import (
	"context"
	"time"

	"outreach/models"
)

// CatalogReader reads the campaign definitions. The engine never writes them.
type CatalogReader interface {
	ActiveSequences(ctx context.Context) ([]models.Sequence, error)
	StepsForSequences(ctx context.Context, sequenceIDs []uint) ([]models.SequenceStep, error)
	TemplatesByID(ctx context.Context, templateIDs []uint) ([]models.Template, error)
}

// DueQuery filters the prospects a run may pick up.
type DueQuery struct {
	SequenceIDs []uint
	Statuses    []models.ProspectStatus
	Now         time.Time
	Limit       int
}

// ProspectStore reads and writes prospect progress.
type ProspectStore interface {
	// DueProspects returns matching rows ordered by next_touch_at, then id.
	DueProspects(ctx context.Context, q DueQuery) ([]models.Prospect, error)
	UpdateProspect(ctx context.Context, id uint, u models.ProspectUpdate) error

	// ClaimProspect moves the prospect to processing only if its status and
	// step still match what the selector saw. It reports whether it won.
	ClaimProspect(ctx context.Context, id uint, expected models.ProspectStatus, expectedStep int, now time.Time) (bool, error)
	// ReleaseProspect ends a claim without touching step or next_touch_at.
	ReleaseProspect(ctx context.Context, id uint, status models.ProspectStatus) error
	// RecoverStaleClaims returns prospects stuck in processing since before
	// the cutoff to a due status and reports how many were recovered.
	RecoverStaleClaims(ctx context.Context, cutoff time.Time) (int64, error)
}

// EventStore is the insert-only event log.
type EventStore interface {
	InsertEvent(ctx context.Context, ev *models.OutreachEvent) error
}

// EmailSender is the email send capability.
type EmailSender interface {
	SendEmail(ctx context.Context, from, to, subject, body string) (string, error)
}

// SMSSender is the SMS send capability.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body, from string) (string, error)
}

// ThrottleCounter counts successful dispatches per sequence per local day.
type ThrottleCounter interface {
	Count(ctx context.Context, sequenceID uint, day string) (int, error)
	Incr(ctx context.Context, sequenceID uint, day string) (int, error)
}
