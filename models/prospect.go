package models

import (
	"time"

	"gorm.io/gorm"
)

type ProspectStatus string

const (
	ProspectNotStarted ProspectStatus = "not_started"
	ProspectRunning    ProspectStatus = "running"
	ProspectProcessing ProspectStatus = "processing" // claimed by a runner
	ProspectCompleted  ProspectStatus = "completed"
	ProspectPaused     ProspectStatus = "paused"
	ProspectFailed     ProspectStatus = "failed"
)

func (s ProspectStatus) Valid() bool {
	switch s {
	case ProspectNotStarted, ProspectRunning, ProspectProcessing,
		ProspectCompleted, ProspectPaused, ProspectFailed:
		return true
	}
	return false
}

// Due reports whether the status is one the selector picks up.
func (s ProspectStatus) Due() bool {
	return s == ProspectNotStarted || s == ProspectRunning
}

// Prospect represents a contact enrolled in a sequence
type Prospect struct {
	gorm.Model

	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Email       *string `gorm:"index" json:"email"`
	Phone       *string `json:"phone"`
	CompanyName *string `json:"company_name"`

	// Sequence progress
	SequenceID     uint           `gorm:"not null;index:idx_prospect_due,priority:1" json:"sequence_id" validate:"required"`
	SequenceStep   int            `gorm:"not null;default:0" json:"sequence_step" validate:"min=0"`
	SequenceStatus ProspectStatus `gorm:"not null;default:'not_started';index:idx_prospect_due,priority:2" json:"sequence_status" validate:"oneof=not_started running processing completed paused failed"`
	NextTouchAt    *time.Time     `gorm:"index:idx_prospect_due,priority:3" json:"next_touch_at"`
	LastOutreachAt *time.Time     `json:"last_outreach_at"`

	AttemptCount int        `gorm:"default:0" json:"attempt_count"`
	ClaimedAt    *time.Time `json:"claimed_at"`
}

// ProspectUpdate is the set of progress columns the engine writes.
type ProspectUpdate struct {
	SequenceStep   int
	SequenceStatus ProspectStatus
	NextTouchAt    *time.Time
	LastOutreachAt *time.Time
	AttemptCount   int
}

// Columns returns the update as a gorm column map. Nil timestamps are written
// as NULL, which is how completion clears next_touch_at.
func (u ProspectUpdate) Columns() map[string]interface{} {
	cols := map[string]interface{}{
		"sequence_step":   u.SequenceStep,
		"sequence_status": u.SequenceStatus,
		"next_touch_at":   u.NextTouchAt,
		"attempt_count":   u.AttemptCount,
		"claimed_at":      nil,
	}
	if u.LastOutreachAt != nil {
		cols["last_outreach_at"] = u.LastOutreachAt
	}
	return cols
}

// Apply copies the update onto an in-memory prospect.
func (u ProspectUpdate) Apply(p *Prospect) {
	p.SequenceStep = u.SequenceStep
	p.SequenceStatus = u.SequenceStatus
	p.NextTouchAt = u.NextTouchAt
	p.AttemptCount = u.AttemptCount
	p.ClaimedAt = nil
	if u.LastOutreachAt != nil {
		p.LastOutreachAt = u.LastOutreachAt
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (p *Prospect) FirstNameValue() string   { return deref(p.FirstName) }
func (p *Prospect) LastNameValue() string    { return deref(p.LastName) }
func (p *Prospect) EmailValue() string       { return deref(p.Email) }
func (p *Prospect) PhoneValue() string       { return deref(p.Phone) }
func (p *Prospect) CompanyNameValue() string { return deref(p.CompanyName) }
