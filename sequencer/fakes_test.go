package sequencer

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"outreach/models"
)

var t0 = time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }
func uintPtr(u uint) *uint    { return &u }
func timePtr(t time.Time) *time.Time {
	return &t
}

func nullLogger() (*logrus.Logger, *test.Hook) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return log, hook
}

func noReport(string, error, map[string]interface{}) {}

type fakeCatalog struct {
	sequences []models.Sequence
	steps     []models.SequenceStep
	templates []models.Template

	sequencesErr error
	stepsErr     error
	templatesErr error

	templateCalls int
}

func (f *fakeCatalog) ActiveSequences(context.Context) ([]models.Sequence, error) {
	if f.sequencesErr != nil {
		return nil, f.sequencesErr
	}
	var out []models.Sequence
	for _, s := range f.sequences {
		if s.Status == models.SequenceActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeCatalog) StepsForSequences(_ context.Context, ids []uint) ([]models.SequenceStep, error) {
	if f.stepsErr != nil {
		return nil, f.stepsErr
	}
	want := map[uint]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []models.SequenceStep
	for _, s := range f.steps {
		if want[s.SequenceID] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeCatalog) TemplatesByID(_ context.Context, ids []uint) ([]models.Template, error) {
	f.templateCalls++
	if f.templatesErr != nil {
		return nil, f.templatesErr
	}
	want := map[uint]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []models.Template
	for _, t := range f.templates {
		if want[t.ID] {
			out = append(out, t)
		}
	}
	return out, nil
}

// fakeProspects is an in-memory ProspectStore with the same claim semantics
// as the gorm store.
type fakeProspects struct {
	mu   sync.Mutex
	rows map[uint]*models.Prospect

	dueErr     error
	updateErr  error
	claimErr   error
	stealClaim bool // another runner wins every claim
	ctxAware   bool // writes fail once ctx is done, like gorm WithContext

	updates   []models.ProspectUpdate
	releases  int
	recovered int64
	lastQuery DueQuery
}

func newFakeProspects(ps ...models.Prospect) *fakeProspects {
	f := &fakeProspects{rows: map[uint]*models.Prospect{}}
	for i := range ps {
		p := ps[i]
		f.rows[p.ID] = &p
	}
	return f
}

func (f *fakeProspects) get(id uint) models.Prospect {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.rows[id]
}

func (f *fakeProspects) DueProspects(_ context.Context, q DueQuery) ([]models.Prospect, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = q
	if f.dueErr != nil {
		return nil, f.dueErr
	}
	seqs := map[uint]bool{}
	for _, id := range q.SequenceIDs {
		seqs[id] = true
	}
	statuses := map[models.ProspectStatus]bool{}
	for _, s := range q.Statuses {
		statuses[s] = true
	}
	var out []models.Prospect
	for _, p := range f.rows {
		if !seqs[p.SequenceID] || !statuses[p.SequenceStatus] {
			continue
		}
		if p.NextTouchAt == nil || p.NextTouchAt.After(q.Now) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].NextTouchAt.Equal(*out[j].NextTouchAt) {
			return out[i].NextTouchAt.Before(*out[j].NextTouchAt)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f *fakeProspects) UpdateProspect(ctx context.Context, id uint, u models.ProspectUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ctxAware && ctx.Err() != nil {
		return ctx.Err()
	}
	if f.updateErr != nil {
		return f.updateErr
	}
	p, ok := f.rows[id]
	if !ok {
		return errors.New("not found")
	}
	u.Apply(p)
	f.updates = append(f.updates, u)
	return nil
}

func (f *fakeProspects) ClaimProspect(_ context.Context, id uint, expected models.ProspectStatus, expectedStep int, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claimErr != nil {
		return false, f.claimErr
	}
	p, ok := f.rows[id]
	if !ok {
		return false, nil
	}
	if f.stealClaim {
		p.SequenceStatus = models.ProspectProcessing
		p.ClaimedAt = &now
		return false, nil
	}
	if p.SequenceStatus != expected || p.SequenceStep != expectedStep {
		return false, nil
	}
	p.SequenceStatus = models.ProspectProcessing
	p.ClaimedAt = &now
	return true, nil
}

func (f *fakeProspects) ReleaseProspect(ctx context.Context, id uint, status models.ProspectStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ctxAware && ctx.Err() != nil {
		return ctx.Err()
	}
	p, ok := f.rows[id]
	if !ok || p.SequenceStatus != models.ProspectProcessing {
		return nil
	}
	p.SequenceStatus = status
	p.ClaimedAt = nil
	f.releases++
	return nil
}

func (f *fakeProspects) RecoverStaleClaims(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, p := range f.rows {
		if p.SequenceStatus != models.ProspectProcessing || p.ClaimedAt == nil || !p.ClaimedAt.Before(cutoff) {
			continue
		}
		if p.SequenceStep == 0 {
			p.SequenceStatus = models.ProspectNotStarted
		} else {
			p.SequenceStatus = models.ProspectRunning
		}
		p.ClaimedAt = nil
		n++
	}
	f.recovered += n
	return n, nil
}

type fakeEvents struct {
	mu       sync.Mutex
	events   []models.OutreachEvent
	err      error
	ctxAware bool
}

func (f *fakeEvents) InsertEvent(ctx context.Context, ev *models.OutreachEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ctxAware && ctx.Err() != nil {
		return ctx.Err()
	}
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, *ev)
	return nil
}

type sentEmail struct {
	From, To, Subject, Body string
}

type fakeEmail struct {
	sent   []sentEmail
	err    error
	id     string
	onSend func()
}

func (f *fakeEmail) SendEmail(_ context.Context, from, to, subject, body string) (string, error) {
	if f.onSend != nil {
		f.onSend()
	}
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, sentEmail{From: from, To: to, Subject: subject, Body: body})
	if f.id == "" {
		return "<msg@example.com>", nil
	}
	return f.id, nil
}

type sentSMS struct {
	To, Body, From string
}

type fakeSMS struct {
	sent []sentSMS
	err  error
}

func (f *fakeSMS) SendSMS(_ context.Context, to, body, from string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, sentSMS{To: to, Body: body, From: from})
	return "SM123", nil
}

func sequence(id uint) models.Sequence {
	s := models.Sequence{Name: "Seq", Status: models.SequenceActive, Timezone: "UTC"}
	s.ID = id
	return s
}

func step(id, seqID uint, order int, channel models.Channel, wait int, tmpl *uint) models.SequenceStep {
	s := models.SequenceStep{
		SequenceID:  seqID,
		TemplateID:  tmpl,
		StepOrder:   order,
		Channel:     channel,
		WaitMinutes: wait,
	}
	s.ID = id
	return s
}

func template(id uint, subject *string, body, footer string) models.Template {
	t := models.Template{Name: "T", Channel: models.ChannelEmail, Subject: subject, Body: body, ComplianceFooter: footer}
	t.ID = id
	return t
}

func prospect(id, seqID uint, status models.ProspectStatus, stepOrder int, next *time.Time) models.Prospect {
	p := models.Prospect{
		FirstName:      strPtr("Ann"),
		Email:          strPtr("ann@x.com"),
		SequenceID:     seqID,
		SequenceStep:   stepOrder,
		SequenceStatus: status,
		NextTouchAt:    next,
	}
	p.ID = id
	return p
}

func bundleOf(seq models.Sequence, steps []models.SequenceStep, tmpls ...models.Template) *Bundle {
	b := &Bundle{Sequence: seq, Steps: steps, Templates: map[uint]*models.Template{}, Location: time.UTC}
	for i := range tmpls {
		b.Templates[tmpls[i].ID] = &tmpls[i]
	}
	return b
}
