package models

import (
	"time"

	"gorm.io/gorm"
)

type EventStatus string

const (
	EventSent      EventStatus = "sent"
	EventScheduled EventStatus = "scheduled"
	EventFailed    EventStatus = "failed"
)

// OutreachEvent is the append-only audit record of one dispatch attempt.
// Rows are inserted once and never updated or deleted.
type OutreachEvent struct {
	gorm.Model
	ProspectID uint `gorm:"not null;index" json:"prospect_id"`
	SequenceID uint `gorm:"not null;index" json:"sequence_id"`
	StepID     uint `gorm:"not null" json:"step_id"`
	StepOrder  int  `gorm:"not null" json:"step_order"`

	Channel   Channel     `gorm:"not null" json:"channel"`
	Status    EventStatus `gorm:"not null;index" json:"status" validate:"oneof=sent scheduled failed"`
	MessageID *string     `json:"message_id,omitempty"`
	Error     *string     `gorm:"type:text" json:"error,omitempty"`

	ScheduledAt *time.Time `json:"scheduled_at"`
	SentAt      *time.Time `json:"sent_at"`
}
