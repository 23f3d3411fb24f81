package sequencer

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"outreach/models"
)

// Bundle is an active sequence with its steps in campaign order and the
// templates those steps reference.
type Bundle struct {
	Sequence  models.Sequence
	Steps     []models.SequenceStep
	Templates map[uint]*models.Template
	Location  *time.Location
}

// NextStep returns the step with the smallest order strictly greater than after.
func (b *Bundle) NextStep(after int) (*models.SequenceStep, bool) {
	for i := range b.Steps {
		if b.Steps[i].StepOrder > after {
			return &b.Steps[i], true
		}
	}
	return nil, false
}

func (b *Bundle) LastStep() *models.SequenceStep {
	if len(b.Steps) == 0 {
		return nil
	}
	return &b.Steps[len(b.Steps)-1]
}

// Template returns the template of a step, or nil when the step has none or
// it could not be loaded.
func (b *Bundle) Template(step *models.SequenceStep) *models.Template {
	if step == nil || step.TemplateID == nil {
		return nil
	}
	return b.Templates[*step.TemplateID]
}

// LoadCatalog builds the bundles for every active sequence. Sequences without
// steps, or whose rows fail validation, are dropped with a warning. Any read
// failure is returned as a *CatalogLoadError.
func LoadCatalog(ctx context.Context, reader CatalogReader, log logrus.FieldLogger) ([]*Bundle, error) {
	sequences, err := reader.ActiveSequences(ctx)
	if err != nil {
		return nil, &CatalogLoadError{Op: "read active sequences", Err: err}
	}

	byID := make(map[uint]*Bundle, len(sequences))
	ids := make([]uint, 0, len(sequences))
	for _, seq := range sequences {
		if err := models.Validate(&seq); err != nil {
			log.WithField("sequence_id", seq.ID).WithError(err).Warn("Dropping invalid sequence")
			continue
		}
		byID[seq.ID] = &Bundle{
			Sequence:  seq,
			Templates: map[uint]*models.Template{},
			Location:  loadLocation(seq, log),
		}
		ids = append(ids, seq.ID)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	steps, err := reader.StepsForSequences(ctx, ids)
	if err != nil {
		return nil, &CatalogLoadError{Op: "read steps", Err: err}
	}

	broken := map[uint]bool{}
	var templateIDs []uint
	seenTemplate := map[uint]bool{}
	for _, step := range steps {
		b, ok := byID[step.SequenceID]
		if !ok {
			continue
		}
		if err := models.Validate(&step); err != nil {
			log.WithFields(logrus.Fields{
				"sequence_id": step.SequenceID,
				"step_id":     step.ID,
			}).WithError(err).Warn("Invalid step, dropping sequence")
			broken[step.SequenceID] = true
			continue
		}
		b.Steps = append(b.Steps, step)
		if step.TemplateID != nil && !seenTemplate[*step.TemplateID] {
			seenTemplate[*step.TemplateID] = true
			templateIDs = append(templateIDs, *step.TemplateID)
		}
	}

	if len(templateIDs) > 0 {
		templates, err := reader.TemplatesByID(ctx, templateIDs)
		if err != nil {
			return nil, &CatalogLoadError{Op: "read templates", Err: err}
		}
		index := make(map[uint]*models.Template, len(templates))
		for i := range templates {
			index[templates[i].ID] = &templates[i]
		}
		for _, b := range byID {
			for _, step := range b.Steps {
				if step.TemplateID == nil {
					continue
				}
				if tmpl, ok := index[*step.TemplateID]; ok {
					b.Templates[tmpl.ID] = tmpl
				} else {
					log.WithFields(logrus.Fields{
						"sequence_id": b.Sequence.ID,
						"template_id": *step.TemplateID,
					}).Warn("Step references a missing template")
				}
			}
		}
	}

	bundles := make([]*Bundle, 0, len(ids))
	for _, id := range ids {
		b := byID[id]
		if broken[id] {
			continue
		}
		sort.SliceStable(b.Steps, func(i, j int) bool {
			return b.Steps[i].StepOrder < b.Steps[j].StepOrder
		})
		if len(b.Steps) == 0 {
			log.WithField("sequence_id", id).Warn("Sequence has no steps, skipping")
			continue
		}
		if dup, ok := duplicateOrder(b.Steps); ok {
			log.WithFields(logrus.Fields{
				"sequence_id": id,
				"step_order":  dup,
			}).Warn("Sequence has duplicate step orders, skipping")
			continue
		}
		bundles = append(bundles, b)
	}
	return bundles, nil
}

func duplicateOrder(steps []models.SequenceStep) (int, bool) {
	for i := 1; i < len(steps); i++ {
		if steps[i].StepOrder == steps[i-1].StepOrder {
			return steps[i].StepOrder, true
		}
	}
	return 0, false
}

func loadLocation(seq models.Sequence, log logrus.FieldLogger) *time.Location {
	if seq.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(seq.Timezone)
	if err != nil {
		log.WithFields(logrus.Fields{
			"sequence_id": seq.ID,
			"timezone":    seq.Timezone,
		}).Warn("Unknown timezone, using UTC")
		return time.UTC
	}
	return loc
}
