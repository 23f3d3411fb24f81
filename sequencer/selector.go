package sequencer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"outreach/models"
)

var dueStatuses = []models.ProspectStatus{models.ProspectRunning, models.ProspectNotStarted}

// SelectDue returns up to limit prospects of the given bundles whose next
// touch has arrived, oldest next_touch_at first and id as tie-break. Paused,
// completed, failed and claimed prospects are never returned.
func SelectDue(ctx context.Context, store ProspectStore, bundles []*Bundle, now time.Time, limit int) ([]models.Prospect, error) {
	if len(bundles) == 0 || limit <= 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(bundles))
	active := make(map[uint]bool, len(bundles))
	for _, b := range bundles {
		ids = append(ids, b.Sequence.ID)
		active[b.Sequence.ID] = true
	}

	rows, err := store.DueProspects(ctx, DueQuery{
		SequenceIDs: ids,
		Statuses:    dueStatuses,
		Now:         now,
		Limit:       limit,
	})
	if err != nil {
		return nil, fmt.Errorf("select due prospects: %w", err)
	}

	// Re-apply the filter; stores may be looser than the contract.
	due := rows[:0]
	for _, p := range rows {
		if !active[p.SequenceID] || !p.SequenceStatus.Due() {
			continue
		}
		if p.NextTouchAt == nil || p.NextTouchAt.After(now) {
			continue
		}
		due = append(due, p)
	}

	sort.SliceStable(due, func(i, j int) bool {
		ti, tj := *due[i].NextTouchAt, *due[j].NextTouchAt
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return due[i].ID < due[j].ID
	})

	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}
