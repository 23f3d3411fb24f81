package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"outreach/sequencer"
	"outreach/store"
)

// BatchRunner is the part of the sequencer the worker drives.
type BatchRunner interface {
	Run(ctx context.Context, limit int) (sequencer.Result, error)
}

// OutreachWorker triggers a sequencer run on a fixed interval. Each tick is
// one independent batch; nothing is carried between ticks.
type OutreachWorker struct {
	Runner   BatchRunner
	Lock     store.RunLock
	Logger   logrus.FieldLogger
	Interval time.Duration
	Limit    int
}

func NewOutreachWorker(runner BatchRunner, lock store.RunLock, logger logrus.FieldLogger, interval time.Duration, limit int) *OutreachWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &OutreachWorker{
		Runner:   runner,
		Lock:     lock,
		Logger:   logger,
		Interval: interval,
		Limit:    limit,
	}
}

func (ow *OutreachWorker) Start(ctx context.Context) {
	ow.Logger.WithField("interval", ow.Interval).Info("Outreach worker started")

	ticker := time.NewTicker(ow.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			ow.Logger.Info("Outreach worker shutting down...")
			return
		case <-ticker.C:
			ow.Tick(ctx)
		}
	}
}

// Tick runs one batch unless another run holds the lock.
func (ow *OutreachWorker) Tick(ctx context.Context) (sequencer.Result, bool) {
	unlock, acquired, err := ow.Lock.TryLock(ctx)
	if err != nil {
		ow.Logger.WithError(err).Error("Failed to acquire run lock")
		return sequencer.Result{}, false
	}
	if !acquired {
		ow.Logger.Debug("Previous outreach run still in progress, skipping tick")
		return sequencer.Result{}, false
	}
	defer unlock()

	res, err := ow.Runner.Run(ctx, ow.Limit)
	if err != nil {
		ow.Logger.WithError(err).Error("Outreach run failed")
		return res, false
	}
	return res, true
}
