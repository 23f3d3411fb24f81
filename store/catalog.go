package store

import (
	"context"

	"gorm.io/gorm"

	"outreach/models"
)

// CatalogStore reads sequences, steps and templates with gorm.
type CatalogStore struct {
	db *gorm.DB
}

func NewCatalogStore(db *gorm.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

func (s *CatalogStore) ActiveSequences(ctx context.Context) ([]models.Sequence, error) {
	var sequences []models.Sequence
	err := s.db.WithContext(ctx).
		Where("status = ?", models.SequenceActive).
		Order("id ASC").
		Find(&sequences).Error
	return sequences, err
}

func (s *CatalogStore) StepsForSequences(ctx context.Context, sequenceIDs []uint) ([]models.SequenceStep, error) {
	var steps []models.SequenceStep
	if len(sequenceIDs) == 0 {
		return steps, nil
	}
	err := s.db.WithContext(ctx).
		Where("sequence_id IN ?", sequenceIDs).
		Order("sequence_id ASC, step_order ASC").
		Find(&steps).Error
	return steps, err
}

func (s *CatalogStore) TemplatesByID(ctx context.Context, templateIDs []uint) ([]models.Template, error) {
	var templates []models.Template
	if len(templateIDs) == 0 {
		return templates, nil
	}
	err := s.db.WithContext(ctx).
		Where("id IN ?", templateIDs).
		Find(&templates).Error
	return templates, err
}
