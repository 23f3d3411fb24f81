package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"outreach/models"
	"outreach/sequencer"
)

var ErrProspectNotFound = errors.New("prospect not found")

// ProspectStore reads and writes prospect progress with gorm.
type ProspectStore struct {
	db *gorm.DB
}

func NewProspectStore(db *gorm.DB) *ProspectStore {
	return &ProspectStore{db: db}
}

func (s *ProspectStore) DueProspects(ctx context.Context, q sequencer.DueQuery) ([]models.Prospect, error) {
	var prospects []models.Prospect
	if len(q.SequenceIDs) == 0 || q.Limit <= 0 {
		return prospects, nil
	}
	err := s.db.WithContext(ctx).
		Where("sequence_id IN ?", q.SequenceIDs).
		Where("sequence_status IN ?", q.Statuses).
		Where("next_touch_at <= ?", q.Now).
		Order("next_touch_at ASC, id ASC").
		Limit(q.Limit).
		Find(&prospects).Error
	return prospects, err
}

func (s *ProspectStore) UpdateProspect(ctx context.Context, id uint, u models.ProspectUpdate) error {
	res := s.db.WithContext(ctx).
		Model(&models.Prospect{}).
		Where("id = ?", id).
		Updates(u.Columns())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 && !res.DryRun {
		return ErrProspectNotFound
	}
	return nil
}

// ClaimProspect is an optimistic lock: only the run that still sees the
// status and step it selected moves the row to processing.
func (s *ProspectStore) ClaimProspect(ctx context.Context, id uint, expected models.ProspectStatus, expectedStep int, now time.Time) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Prospect{}).
		Where("id = ? AND sequence_status = ? AND sequence_step = ?", id, expected, expectedStep).
		Updates(map[string]interface{}{
			"sequence_status": models.ProspectProcessing,
			"claimed_at":      now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *ProspectStore) ReleaseProspect(ctx context.Context, id uint, status models.ProspectStatus) error {
	return s.db.WithContext(ctx).
		Model(&models.Prospect{}).
		Where("id = ? AND sequence_status = ?", id, models.ProspectProcessing).
		Updates(map[string]interface{}{
			"sequence_status": status,
			"claimed_at":      nil,
		}).Error
}

func (s *ProspectStore) RecoverStaleClaims(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Prospect{}).
		Where("sequence_status = ? AND claimed_at < ?", models.ProspectProcessing, cutoff).
		Updates(map[string]interface{}{
			"sequence_status": gorm.Expr("CASE WHEN sequence_step = 0 THEN ? ELSE ? END",
				models.ProspectNotStarted, models.ProspectRunning),
			"claimed_at": nil,
		})
	return res.RowsAffected, res.Error
}

// Get loads one prospect, used by the audit API.
func (s *ProspectStore) Get(ctx context.Context, id uint) (*models.Prospect, error) {
	var p models.Prospect
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProspectNotFound
		}
		return nil, err
	}
	return &p, nil
}
