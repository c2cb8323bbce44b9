// Package tracker follows a submitted trip request by polling its status.
package tracker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/triptap-rides/internal/api"
	"github.com/ukydev/triptap-rides/internal/handoff"
	"github.com/ukydev/triptap-rides/internal/i18n"
	"github.com/ukydev/triptap-rides/internal/models"
)

// DefaultInterval is the time between two status polls.
const DefaultInterval = 5 * time.Second

var ErrMissingRequestID = errors.New("trip id not found")

// StatusSource returns the server snapshot of a trip request.
type StatusSource interface {
	FetchStatus(ctx context.Context, requestID string) (models.TripStatus, error)
}

// Observer is notified after every applied poll result, success or failure.
type Observer interface {
	TripUpdated(v View)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(v View)

func (f ObserverFunc) TripUpdated(v View) { f(v) }

// Stage is one entry of the progress list.
type Stage struct {
	Status      models.TripStatusCode
	Title       string
	Description string
	Reached     bool
	Current     bool
}

// View is a consistent copy of what the tracker shows.
type View struct {
	RequestID   string              `json:"requestId"`
	Status      *models.TripStatus  `json:"status,omitempty"`
	StageIndex  int                 `json:"stageIndex"`
	Cancelled   bool                `json:"cancelled"`
	Terminal    bool                `json:"terminal"`
	Headline    string              `json:"headline"`
	Description string              `json:"description"`
	Error       string              `json:"error,omitempty"`
	Handoff     *models.TripHandoff `json:"handoff,omitempty"`
	LastUpdated time.Time           `json:"lastUpdated"`
}

// Tracker polls one trip request. Progress shown never moves backwards.
type Tracker struct {
	src       StatusSource
	store     handoff.Store
	tr        i18n.Translator
	log       logrus.FieldLogger
	now       func() time.Time
	interval  time.Duration
	observers []Observer

	requestID string

	mu            sync.Mutex
	nextSeq       uint64
	appliedSeq    uint64
	status        *models.TripStatus
	stage         int
	cancelled     bool
	errMsg        string
	summary       *models.TripHandoff
	handoffLoaded bool
	lastUpdated   time.Time
}

type Option func(*Tracker)

// WithInterval overrides DefaultInterval.
func WithInterval(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithObserver registers o for updates.
func WithObserver(o Observer) Option {
	return func(t *Tracker) { t.observers = append(t.observers, o) }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(t *Tracker) { t.log = l }
}

// New creates a tracker for requestID. store may be nil.
func New(src StatusSource, store handoff.Store, requestID string, tr i18n.Translator, opts ...Option) *Tracker {
	if tr == nil {
		tr = i18n.New()
	}
	t := &Tracker{
		src:       src,
		store:     store,
		tr:        tr,
		log:       logrus.StandardLogger(),
		now:       time.Now,
		interval:  DefaultInterval,
		requestID: requestID,
		stage:     -1,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Run polls immediately and then on every interval until ctx is cancelled or the
// trip reaches COMPLETED or CANCELLED. A failed poll does not stop the loop.
func (t *Tracker) Run(ctx context.Context) error {
	if t.requestID == "" {
		t.mu.Lock()
		t.errMsg = t.tr.T(i18n.ErrTripIDMissing)
		t.mu.Unlock()
		t.notify()
		return ErrMissingRequestID
	}

	logger := t.log.WithField("request_id", t.requestID)
	logger.WithField("interval", t.interval.String()).Info("Tracking trip")

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		if err := t.Poll(ctx); err != nil && ctx.Err() == nil {
			logger.WithError(err).Warn("Status poll failed")
		}
		if t.Done() {
			logger.WithField("status", t.View().Status.Status).Info("Trip finished, tracking stopped")
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Poll fetches the status once and applies it unless a newer poll already landed.
func (t *Tracker) Poll(ctx context.Context) error {
	t.mu.Lock()
	t.nextSeq++
	seq := t.nextSeq
	t.mu.Unlock()

	st, err := t.src.FetchStatus(ctx, t.requestID)
	if err != nil && ctx.Err() != nil {
		return err
	}
	if t.apply(seq, st, err) {
		t.loadHandoff(ctx)
		t.notify()
	}
	return err
}

// apply records a poll result tagged seq. It reports whether the result was newer
// than everything applied so far.
func (t *Tracker) apply(seq uint64, st models.TripStatus, err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if seq <= t.appliedSeq {
		t.log.WithField("seq", seq).Debug("Discarding stale status")
		return false
	}
	t.appliedSeq = seq

	if err != nil {
		t.errMsg = t.errorMessage(err)
		return true
	}

	t.errMsg = ""
	t.status = &st
	t.lastUpdated = t.now()
	if st.Status == models.StatusCancelled {
		t.cancelled = true
	} else if idx := models.StageIndex(st.Status); idx > t.stage {
		t.stage = idx
	}
	return true
}

func (t *Tracker) errorMessage(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return t.tr.T(i18n.ErrLoadStatus)
	}
	if errors.Is(err, api.ErrInvalidResponse) {
		return t.tr.T(i18n.ErrLoadStatus)
	}
	return t.tr.T(i18n.ErrConnection)
}

// loadHandoff reads the hand-off record once, after the first successful status.
func (t *Tracker) loadHandoff(ctx context.Context) {
	t.mu.Lock()
	if t.handoffLoaded || t.status == nil || t.store == nil {
		t.mu.Unlock()
		return
	}
	t.handoffLoaded = true
	t.mu.Unlock()

	h, err := t.store.Load(ctx, t.requestID)
	if err != nil {
		if !errors.Is(err, handoff.ErrNotFound) {
			t.log.WithError(err).WithField("request_id", t.requestID).Warn("Failed to read trip handoff")
		}
		return
	}

	t.mu.Lock()
	t.summary = &h
	t.mu.Unlock()
}

func (t *Tracker) notify() {
	if len(t.observers) == 0 {
		return
	}
	v := t.View()
	for _, o := range t.observers {
		o.TripUpdated(v)
	}
}

// Done reports whether the trip reached a terminal status.
func (t *Tracker) Done() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.doneLocked()
}

func (t *Tracker) doneLocked() bool {
	return t.cancelled || (t.stage >= 0 && models.StageList[t.stage].IsTerminal())
}

// View returns a snapshot for rendering.
func (t *Tracker) View() View {
	t.mu.Lock()
	defer t.mu.Unlock()

	v := View{
		RequestID:   t.requestID,
		StageIndex:  t.stage,
		Cancelled:   t.cancelled,
		Terminal:    t.doneLocked(),
		Error:       t.errMsg,
		LastUpdated: t.lastUpdated,
	}
	if t.status != nil {
		st := *t.status
		v.Status = &st
	}
	if t.summary != nil {
		h := *t.summary
		v.Handoff = &h
	}

	shown := models.StatusRequested
	if t.cancelled {
		shown = models.StatusCancelled
	} else if t.stage >= 0 {
		shown = models.StageList[t.stage]
	}
	v.Headline = t.tr.T(i18n.StatusKey(string(shown)))
	v.Description = t.tr.T(i18n.StatusKey(string(shown)) + ".desc")
	return v
}

// Stages returns the ordered progress list with the reached and current markers.
func (t *Tracker) Stages() []Stage {
	t.mu.Lock()
	defer t.mu.Unlock()

	stages := make([]Stage, len(models.StageList))
	for i, code := range models.StageList {
		stages[i] = Stage{
			Status:      code,
			Title:       t.tr.T(i18n.StatusKey(string(code))),
			Description: t.tr.T(i18n.StatusKey(string(code)) + ".desc"),
			Reached:     i <= t.stage,
			Current:     i == t.stage,
		}
	}
	return stages
}

// Interval returns the polling period.
func (t *Tracker) Interval() time.Duration { return t.interval }
