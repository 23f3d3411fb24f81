package models

import "gorm.io/gorm"

// Template represents the message skeleton of a step
type Template struct {
	gorm.Model

	Name    string  `json:"name"`
	Channel Channel `gorm:"not null;default:'email'" json:"channel"`
	Subject *string `json:"subject"` // email only
	Body    string  `gorm:"type:text" json:"body"`

	// Appended verbatim to every rendered body
	ComplianceFooter string `gorm:"type:text" json:"compliance_footer"`
}
