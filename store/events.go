package store

import (
	"context"

	"gorm.io/gorm"

	"outreach/models"
)

// EventStore appends outreach events. It has no update or delete methods.
type EventStore struct {
	db *gorm.DB
}

func NewEventStore(db *gorm.DB) *EventStore {
	return &EventStore{db: db}
}

func (s *EventStore) InsertEvent(ctx context.Context, ev *models.OutreachEvent) error {
	return s.db.WithContext(ctx).Create(ev).Error
}

// ListForProspect returns the newest events of a prospect first.
func (s *EventStore) ListForProspect(ctx context.Context, prospectID uint, limit int) ([]models.OutreachEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var events []models.OutreachEvent
	err := s.db.WithContext(ctx).
		Where("prospect_id = ?", prospectID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}
