// Package activity tracks the "streak at risk" reminder that stands in for a
// lock-screen live activity.
//
// The state lives in one document so a short-lived CLI refresh can end an
// activity the dashboard started. An activity started on an earlier day is
// treated as ended.
package activity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/five82/traverse/internal/cache"
)

const docName = "activity"

// State describes an in-flight streak-at-risk activity.
type State struct {
	Streak    int       `json:"streak"`
	StartedAt time.Time `json:"startedAt"`
}

// Tracker starts and ends the streak-at-risk activity.
type Tracker struct {
	store cache.Persister
	now   func() time.Time
	log   *zap.Logger

	mu sync.Mutex
}

// Ensure Tracker can be handed to the cache at compile time.
var _ cache.ActivityEnder = (*Tracker)(nil)

// Option customizes a Tracker.
type Option func(*Tracker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(t *Tracker) {
		if log != nil {
			t.log = log
		}
	}
}

// NewTracker returns a Tracker persisting to store.
func NewTracker(store cache.Persister, opts ...Option) *Tracker {
	t := &Tracker{store: store, now: time.Now, log: zap.NewNop()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// StartStreakAtRisk starts the activity, or updates the streak of one already
// running today.
func (t *Tracker) StartStreakAtRisk(streak int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	state := State{Streak: streak, StartedAt: now}
	if cur, ok := t.active(now); ok {
		state.StartedAt = cur.StartedAt
	}
	if err := t.store.Write(docName, state); err != nil {
		return fmt.Errorf("start activity: %w", err)
	}
	t.log.Info("streak-at-risk activity started", zap.Int("streak", streak))
	return nil
}

// EndStreakAtRisk ends the running activity. Ending when nothing is running
// is not an error.
func (t *Tracker) EndStreakAtRisk(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	var state State
	found, err := t.store.Read(docName, &state)
	if err != nil {
		t.log.Debug("discarding unreadable activity state", zap.Error(err))
	}
	if err := t.store.Remove(docName); err != nil {
		return fmt.Errorf("end activity: %w", err)
	}
	if found {
		t.log.Info("streak-at-risk activity ended", zap.Int("streak", state.Streak))
	}
	return nil
}

// Active returns the running activity, if any.
func (t *Tracker) Active() (State, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active(t.now())
}

func (t *Tracker) active(now time.Time) (State, bool) {
	var state State
	found, err := t.store.Read(docName, &state)
	if err != nil {
		t.log.Debug("discarding unreadable activity state", zap.Error(err))
		return State{}, false
	}
	if !found || !sameDay(state.StartedAt, now) {
		return State{}, false
	}
	return state, true
}

// ShouldStart reports whether the reminder is due: the user has a streak,
// has not solved anything today, and it is at or past reminderHour.
func ShouldStart(snap cache.Snapshot, now time.Time, reminderHour int) bool {
	if snap.UserStats == nil || snap.UserStats.Stats.CurrentStreak <= 0 {
		return false
	}
	if snap.SolvedToday(now) {
		return false
	}
	return now.Hour() >= reminderHour
}

func sameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
