package models

import "gorm.io/gorm"

type SequenceStatus string

const (
	SequenceActive   SequenceStatus = "active"
	SequencePaused   SequenceStatus = "paused"
	SequenceArchived SequenceStatus = "archived"
)

func (s SequenceStatus) Valid() bool {
	switch s {
	case SequenceActive, SequencePaused, SequenceArchived:
		return true
	}
	return false
}

// Channel is the delivery mechanism of a step. Values other than email and
// sms are handled manually by a person (calls, LinkedIn touches, ...).
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelOther Channel = "other"
)

// Sequence represents an ordered outreach campaign
type Sequence struct {
	gorm.Model

	Name   string         `gorm:"not null" json:"name" validate:"required"`
	Status SequenceStatus `gorm:"default:'active';index" json:"status" validate:"oneof=active paused archived"`

	// Settings
	ThrottlePerDay   int     `gorm:"default:0" json:"throttle_per_day" validate:"min=0"` // advisory, 0 = no cap
	SendWindowStart  *string `json:"send_window_start" validate:"omitempty,datetime=15:04"`
	SendWindowEnd    *string `json:"send_window_end" validate:"omitempty,datetime=15:04"`
	Timezone         string  `gorm:"default:'UTC'" json:"timezone"`
	AutoPauseOnReply bool    `gorm:"default:true" json:"auto_pause_on_reply"` // enforced by reply ingestion, not here

	// Relations
	Steps []SequenceStep `gorm:"foreignKey:SequenceID" json:"steps,omitempty"`
}

// SequenceStep represents one timed touch of a sequence
type SequenceStep struct {
	gorm.Model
	SequenceID uint  `gorm:"not null;uniqueIndex:idx_sequence_step_order" json:"sequence_id" validate:"required"`
	TemplateID *uint `gorm:"index" json:"template_id"`

	StepOrder   int     `gorm:"not null;uniqueIndex:idx_sequence_step_order" json:"step_order" validate:"min=1"`
	Channel     Channel `gorm:"not null;default:'email'" json:"channel" validate:"required"`
	WaitMinutes int     `gorm:"not null;default:0" json:"wait_minutes" validate:"min=0"`
}
