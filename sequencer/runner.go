package sequencer

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"outreach/models"
)

// Result summarises one invocation. Processed counts prospects a dispatch was
// attempted for, successful or not.
type Result struct {
	Processed int `json:"processed"`
	Sent      int `json:"sent"`
	Scheduled int `json:"scheduled"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
	Completed int `json:"completed"`
}

// Runner advances due prospects through their sequences. It is a stateless
// batch worker: every call to Run loads the catalog, processes at most limit
// prospects one after another and returns.
type Runner struct {
	cfg        Config
	catalog    CatalogReader
	prospects  ProspectStore
	events     *EventLogger
	dispatcher *Dispatcher
	throttle   ThrottleCounter
	log        logrus.FieldLogger
	report     ErrorReporter
	now        func() time.Time
}

type RunnerOption func(*Runner)

func WithLogger(log logrus.FieldLogger) RunnerOption {
	return func(r *Runner) { r.log = log }
}

func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

func WithThrottle(counter ThrottleCounter) RunnerOption {
	return func(r *Runner) { r.throttle = counter }
}

func WithErrorReporter(report ErrorReporter) RunnerOption {
	return func(r *Runner) { r.report = report }
}

func NewRunner(cfg Config, catalog CatalogReader, prospects ProspectStore, events EventStore,
	email EmailSender, sms SMSSender, opts ...RunnerOption) *Runner {
	cfg = cfg.withDefaults()
	r := &Runner{
		cfg:       cfg,
		catalog:   catalog,
		prospects: prospects,
		log:       logrus.StandardLogger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.events = NewEventLogger(events, r.log, r.report)
	if r.report == nil {
		r.report = r.events.report
	}
	r.dispatcher = NewDispatcher(cfg, email, sms)
	return r
}

// RunOutreachRunner is the invocation entry point. A limit of zero or less
// uses the configured default.
func (r *Runner) RunOutreachRunner(ctx context.Context, limit int) (Result, error) {
	return r.Run(ctx, limit)
}

// Run processes one batch. Only catalog and selection failures are returned;
// every per-prospect error is recorded as a failed event and contained.
func (r *Runner) Run(ctx context.Context, limit int) (Result, error) {
	var res Result
	if limit <= 0 {
		limit = r.cfg.DefaultLimit
	}
	now := r.now()

	if n, err := r.prospects.RecoverStaleClaims(ctx, now.Add(-r.cfg.ClaimTTL)); err != nil {
		r.log.WithError(err).Warn("Failed to recover stale claims")
	} else if n > 0 {
		r.log.WithField("count", n).Warn("Recovered stale prospect claims")
	}

	bundles, err := LoadCatalog(ctx, r.catalog, r.log)
	if err != nil {
		return res, err
	}
	if len(bundles) == 0 {
		r.log.Debug("No active sequences with steps")
		return res, nil
	}

	due, err := SelectDue(ctx, r.prospects, bundles, now, limit)
	if err != nil {
		return res, err
	}

	index := make(map[uint]*Bundle, len(bundles))
	for _, b := range bundles {
		index[b.Sequence.ID] = b
	}

	for i := range due {
		if err := ctx.Err(); err != nil {
			r.log.WithField("remaining", len(due)-i).Warn("Run cancelled")
			return res, err
		}
		p := &due[i]
		r.process(ctx, index[p.SequenceID], p, &res)
	}

	r.log.WithFields(logrus.Fields{
		"processed": res.Processed,
		"sent":      res.Sent,
		"scheduled": res.Scheduled,
		"failed":    res.Failed,
		"skipped":   res.Skipped,
		"completed": res.Completed,
	}).Info("Outreach run finished")
	return res, nil
}

func (r *Runner) process(ctx context.Context, b *Bundle, p *models.Prospect, res *Result) {
	log := r.log.WithFields(logrus.Fields{
		"prospect_id": p.ID,
		"sequence_id": p.SequenceID,
	})
	if b == nil {
		res.Skipped++
		return
	}
	if err := models.Validate(p); err != nil {
		log.WithError(err).Warn("Skipping invalid prospect row")
		res.Skipped++
		return
	}
	now := r.now()

	step, ok := b.NextStep(p.SequenceStep)
	if !ok {
		u := complete(b, p)
		if err := r.prospects.UpdateProspect(ctx, p.ID, u); err != nil {
			r.fail(log, "prospect_update", err, p)
			return
		}
		u.Apply(p)
		res.Completed++
		log.Info("Prospect has no remaining steps, marked completed")
		return
	}
	log = log.WithFields(logrus.Fields{
		"step_order": step.StepOrder,
		"channel":    step.Channel,
	})

	if !WithinSendWindow(b.Sequence, b.Location, now) {
		log.Debug("Outside send window, skipping")
		res.Skipped++
		return
	}

	day := now.In(b.Location).Format("2006-01-02")
	if r.throttled(ctx, b, day, log) {
		log.Debug("Daily throttle reached, skipping")
		res.Skipped++
		return
	}

	claimed, err := r.prospects.ClaimProspect(ctx, p.ID, p.SequenceStatus, p.SequenceStep, now)
	if err != nil {
		log.WithError(err).Warn("Failed to claim prospect")
		res.Skipped++
		return
	}
	if !claimed {
		log.Debug("Prospect claimed by another run")
		res.Skipped++
		return
	}

	// The claim must be settled even if the run is cancelled mid-dispatch.
	wctx := context.WithoutCancel(ctx)

	res.Processed++
	out, err := r.dispatcher.Dispatch(ctx, b, step, p)
	if err != nil {
		res.Failed++
		log.WithError(err).Warn("Dispatch failed")
		_ = r.events.Record(wctx, failedEvent(b, step, p, err))

		if u, changed := afterFailure(r.cfg.Retry, p, now); changed {
			if err := r.prospects.UpdateProspect(wctx, p.ID, u); err != nil {
				r.fail(log, "prospect_update", err, p)
				return
			}
			u.Apply(p)
			return
		}
		if err := r.prospects.ReleaseProspect(wctx, p.ID, p.SequenceStatus); err != nil {
			r.fail(log, "prospect_release", err, p)
		}
		return
	}

	switch out.Status {
	case models.EventScheduled:
		res.Scheduled++
	default:
		res.Sent++
	}
	_ = r.events.Record(wctx, successEvent(b, step, p, out, now))

	u := Advance(b, step.StepOrder, now)
	if err := r.prospects.UpdateProspect(wctx, p.ID, u); err != nil {
		r.fail(log, "prospect_update", err, p)
		return
	}
	u.Apply(p)
	if u.SequenceStatus == models.ProspectCompleted {
		res.Completed++
	}

	if r.cfg.EnforceThrottle && r.throttle != nil && b.Sequence.ThrottlePerDay > 0 {
		if _, err := r.throttle.Incr(wctx, b.Sequence.ID, day); err != nil {
			log.WithError(err).Warn("Failed to count dispatch against throttle")
		}
	}
	log.WithField("status", out.Status).Info("Dispatched outreach step")
}

// throttled reports whether the sequence has used up its daily cap. An
// unavailable counter never blocks sending since the cap is advisory.
func (r *Runner) throttled(ctx context.Context, b *Bundle, day string, log logrus.FieldLogger) bool {
	if !r.cfg.EnforceThrottle || r.throttle == nil || b.Sequence.ThrottlePerDay <= 0 {
		return false
	}
	count, err := r.throttle.Count(ctx, b.Sequence.ID, day)
	if err != nil {
		log.WithError(err).Warn("Throttle counter unavailable")
		return false
	}
	return count >= b.Sequence.ThrottlePerDay
}

func (r *Runner) fail(log logrus.FieldLogger, errorType string, err error, p *models.Prospect) {
	log.WithError(err).Error("Failed to write prospect progress")
	r.report(errorType, err, map[string]interface{}{
		"prospect_id": p.ID,
		"sequence_id": p.SequenceID,
	})
}
