package cache

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/five82/traverse/internal/traverse"
)

// DefaultTTL is how long a successful bulk refresh keeps the cache fresh.
const DefaultTTL = 2 * time.Hour

// Document names, one file per entity.
const (
	DocFriends          = "friends"
	DocReceivedRequests = "receivedRequests"
	DocSentRequests     = "sentRequests"
	DocFriendStreaks    = "friendStreaks"
	DocUserStats        = "userStats"
	DocSubmissionStats  = "submissionStats"
	DocSolveStats       = "solveStats"
	DocAchievementStats = "achievementStats"
	DocRecentSolves     = "recentSolves"
	DocRevisionGroups   = "revisionGroups"
	DocRevisionStats    = "revisionStats"
	DocLastFetch        = "lastFetchTimestamp"
)

// Documents lists every document the cache owns.
var Documents = []string{
	DocFriends,
	DocReceivedRequests,
	DocSentRequests,
	DocFriendStreaks,
	DocUserStats,
	DocSubmissionStats,
	DocSolveStats,
	DocAchievementStats,
	DocRecentSolves,
	DocRevisionGroups,
	DocRevisionStats,
	DocLastFetch,
}

// Sentinel errors for caller-checkable conditions.
var (
	// ErrBatchRefreshFailed wraps any fetch failure. Nothing was mutated.
	ErrBatchRefreshFailed = errors.New("cache: batch refresh failed")
	// ErrPersistenceDegraded reports documents that could not be written or
	// removed. Memory was updated regardless.
	ErrPersistenceDegraded = errors.New("cache: persistence degraded")
)

// PersistPolicy decides what happens when a document cannot be persisted.
type PersistPolicy int

const (
	// PersistDegrade logs persistence failures and carries on.
	PersistDegrade PersistPolicy = iota
	// PersistFail returns persistence failures to the caller.
	PersistFail
)

func (p PersistPolicy) String() string {
	if p == PersistFail {
		return "fail"
	}
	return "degrade"
}

// ParsePersistPolicy maps a config value onto a PersistPolicy.
func ParsePersistPolicy(value string) (PersistPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "degrade":
		return PersistDegrade, nil
	case "fail":
		return PersistFail, nil
	default:
		return PersistDegrade, fmt.Errorf("unknown persist policy %q (want degrade or fail)", value)
	}
}

// ActivityEnder ends an in-flight "streak at risk" activity.
type ActivityEnder interface {
	EndStreakAtRisk(ctx context.Context) error
}

// Snapshot is an immutable copy of the mirror.
type Snapshot struct {
	Friends          []traverse.Friend
	ReceivedRequests []traverse.FriendRequest
	SentRequests     []traverse.FriendRequest
	FriendStreaks    []traverse.FriendStreak
	UserStats        *traverse.UserStats
	SubmissionStats  *traverse.SubmissionStats
	SolveStats       *traverse.SolveStats
	AchievementStats *traverse.AchievementStats
	RecentSolves     []traverse.Solve
	RevisionGroups   []traverse.RevisionGroup
	RevisionStats    *traverse.RevisionStats
	LastFetch        time.Time
	HasData          bool
}

// SolvedToday reports whether any recent solve falls on now's calendar day.
func (s Snapshot) SolvedToday(now time.Time) bool {
	return solvedToday(s.RecentSolves, now)
}

func solvedToday(solves []traverse.Solve, now time.Time) bool {
	for _, solve := range solves {
		if solve.SolvedOn(now) {
			return true
		}
	}
	return false
}

// Cache is the local mirror of the signed-in user's data. It reads through to
// a Persister at construction and writes through on every mutation.
type Cache struct {
	store   Persister
	fetcher traverse.Fetcher
	ender   ActivityEnder
	log     *zap.Logger
	now     func() time.Time
	ttl     time.Duration
	policy  PersistPolicy
	solves  int

	mu    sync.RWMutex
	state Snapshot
}

// Option customizes a Cache.
type Option func(*Cache)

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(c *Cache) {
		if log != nil {
			c.log = log
		}
	}
}

// WithPersistPolicy sets how persistence failures are reported.
func WithPersistPolicy(p PersistPolicy) Option {
	return func(c *Cache) { c.policy = p }
}

// WithActivityEnder sets the collaborator signalled when a refresh finds a solve today.
func WithActivityEnder(e ActivityEnder) Option {
	return func(c *Cache) { c.ender = e }
}

// WithRecentSolvesLimit bounds how many recent solves a refresh requests.
func WithRecentSolvesLimit(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.solves = n
		}
	}
}

// New builds a Cache and loads whatever the store already holds. Documents
// that are missing or cannot be decoded start empty.
func New(store Persister, fetcher traverse.Fetcher, opts ...Option) *Cache {
	c := &Cache{
		store:   store,
		fetcher: fetcher,
		log:     zap.NewNop(),
		now:     time.Now,
		ttl:     DefaultTTL,
		policy:  PersistDegrade,
		solves:  traverse.DefaultRecentSolves,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.load()
	return c
}

func (c *Cache) load() {
	var s Snapshot
	populated := false
	mark := func(found bool) bool {
		populated = populated || found
		return found
	}

	if v, ok := loadDoc[[]traverse.Friend](c, DocFriends); mark(ok) {
		s.Friends = v
	}
	if v, ok := loadDoc[[]traverse.FriendRequest](c, DocReceivedRequests); mark(ok) {
		s.ReceivedRequests = v
	}
	if v, ok := loadDoc[[]traverse.FriendRequest](c, DocSentRequests); mark(ok) {
		s.SentRequests = v
	}
	if v, ok := loadDoc[[]traverse.FriendStreak](c, DocFriendStreaks); mark(ok) {
		s.FriendStreaks = v
	}
	if v, ok := loadDoc[traverse.UserStats](c, DocUserStats); mark(ok) {
		s.UserStats = &v
	}
	if v, ok := loadDoc[traverse.SubmissionStats](c, DocSubmissionStats); mark(ok) {
		s.SubmissionStats = &v
	}
	if v, ok := loadDoc[traverse.SolveStats](c, DocSolveStats); mark(ok) {
		s.SolveStats = &v
	}
	if v, ok := loadDoc[traverse.AchievementStats](c, DocAchievementStats); mark(ok) {
		s.AchievementStats = &v
	}
	if v, ok := loadDoc[[]traverse.Solve](c, DocRecentSolves); mark(ok) {
		s.RecentSolves = v
	}
	if v, ok := loadDoc[[]traverse.RevisionGroup](c, DocRevisionGroups); mark(ok) {
		s.RevisionGroups = v
	}
	if v, ok := loadDoc[traverse.RevisionStats](c, DocRevisionStats); mark(ok) {
		s.RevisionStats = &v
	}
	// A watermark with no documents behind it is stale by definition.
	if v, ok := loadDoc[time.Time](c, DocLastFetch); ok && populated {
		s.LastFetch = v
	}
	s.HasData = populated

	c.mu.Lock()
	c.state = s
	c.mu.Unlock()

	c.log.Debug("cache loaded",
		zap.Bool("has_data", s.HasData),
		zap.Time("last_fetch", s.LastFetch),
	)
}

func loadDoc[T any](c *Cache, name string) (T, bool) {
	var v T
	if c.store == nil {
		return v, false
	}
	found, err := c.store.Read(name, &v)
	if err != nil {
		c.log.Debug("cold start for document", zap.String("document", name), zap.Error(err))
		var zero T
		return zero, false
	}
	return v, found
}

// Snapshot returns a deep copy of the mirror.
func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneSnapshot(c.state)
}

// HasData reports whether any entity has been populated from disk or a refresh.
func (c *Cache) HasData() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.HasData
}

// LastFetch returns the watermark of the last successful bulk refresh.
func (c *Cache) LastFetch() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.LastFetch
}

// TTL returns the freshness window.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// IsFresh reports whether the last bulk refresh happened less than TTL ago.
// It never triggers a refresh.
func (c *Cache) IsFresh() bool {
	c.mu.RLock()
	last := c.state.LastFetch
	c.mu.RUnlock()
	if last.IsZero() {
		return false
	}
	return c.now().Sub(last) < c.ttl
}

// Clear resets every entity and the watermark, and removes every persisted
// document. Memory is reset even when a removal fails.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = Snapshot{}

	var errs []error
	if c.store != nil {
		for _, name := range Documents {
			if err := c.store.Remove(name); err != nil {
				errs = append(errs, err)
			}
		}
	}
	c.log.Info("cache cleared")
	return c.persistFailure("remove", errs)
}

// document pairs a document name with the value to write.
type document struct {
	name  string
	value any
}

// persist writes docs. The caller holds c.mu.
func (c *Cache) persist(docs []document) error {
	return c.persistFailure("write", c.writeDocs(docs))
}

// writeDocs writes every doc and returns the failures. The caller holds c.mu.
func (c *Cache) writeDocs(docs []document) []error {
	if c.store == nil {
		return nil
	}
	var errs []error
	for _, d := range docs {
		if err := c.store.Write(d.name, d.value); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (c *Cache) persistFailure(op string, errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	err := errors.Join(errs...)
	c.log.Warn("cache persistence degraded",
		zap.String("op", op),
		zap.Int("failed", len(errs)),
		zap.Stringer("policy", c.policy),
		zap.Error(err),
	)
	if c.policy == PersistFail {
		return &PersistError{Op: op, Err: err}
	}
	return nil
}

// PersistError reports which documents failed under PersistFail. It matches
// ErrPersistenceDegraded with errors.Is.
type PersistError struct {
	Op  string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrPersistenceDegraded, e.Op, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Is reports whether target is ErrPersistenceDegraded.
func (e *PersistError) Is(target error) bool { return target == ErrPersistenceDegraded }

func cloneSnapshot(s Snapshot) Snapshot {
	out := s
	out.Friends = slices.Clone(s.Friends)
	out.ReceivedRequests = slices.Clone(s.ReceivedRequests)
	out.SentRequests = slices.Clone(s.SentRequests)
	out.FriendStreaks = slices.Clone(s.FriendStreaks)
	out.RecentSolves = slices.Clone(s.RecentSolves)
	if s.RevisionGroups != nil {
		out.RevisionGroups = make([]traverse.RevisionGroup, len(s.RevisionGroups))
		for i, g := range s.RevisionGroups {
			out.RevisionGroups[i] = traverse.RevisionGroup{Date: g.Date, Items: slices.Clone(g.Items)}
		}
	}
	if s.UserStats != nil {
		v := *s.UserStats
		out.UserStats = &v
	}
	if s.SubmissionStats != nil {
		v := *s.SubmissionStats
		v.ByStatus = maps.Clone(v.ByStatus)
		v.ByLanguage = maps.Clone(v.ByLanguage)
		out.SubmissionStats = &v
	}
	if s.SolveStats != nil {
		v := *s.SolveStats
		v.ByDifficulty = maps.Clone(v.ByDifficulty)
		v.ByTopic = maps.Clone(v.ByTopic)
		v.ByPlatform = maps.Clone(v.ByPlatform)
		out.SolveStats = &v
	}
	if s.AchievementStats != nil {
		v := *s.AchievementStats
		v.ByCategory = maps.Clone(v.ByCategory)
		v.Recent = slices.Clone(v.Recent)
		out.AchievementStats = &v
	}
	if s.RevisionStats != nil {
		v := *s.RevisionStats
		out.RevisionStats = &v
	}
	return out
}
