package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/five82/traverse/internal/traverse"
)

// batch holds the results of one bulk refresh. Each fetch goroutine writes
// exactly one field.
type batch struct {
	friends          []traverse.Friend
	received         []traverse.FriendRequest
	sent             []traverse.FriendRequest
	userStats        *traverse.UserStats
	submissionStats  *traverse.SubmissionStats
	solveStats       *traverse.SolveStats
	achievementStats *traverse.AchievementStats
	recentSolves     []traverse.Solve
}

// Refresh fetches every bulk entity for username concurrently and commits
// them together. If any fetch fails, or ctx is cancelled before the commit,
// nothing in memory or on disk changes and the error wraps
// ErrBatchRefreshFailed.
//
// Concurrent calls are not coalesced; the last one to commit wins.
func (c *Cache) Refresh(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("%w: username required", ErrBatchRefreshFailed)
	}
	if c.fetcher == nil {
		return fmt.Errorf("%w: no api client configured", ErrBatchRefreshFailed)
	}

	id := uuid.NewString()
	ctx = traverse.WithRequestID(ctx, id)
	log := c.log.With(zap.String("batch", id), zap.String("username", username))
	started := time.Now()

	var res batch
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		res.friends, err = c.fetcher.GetFriends(gctx)
		return fetchErr(DocFriends, err)
	})
	g.Go(func() (err error) {
		res.received, err = c.fetcher.GetReceivedFriendRequests(gctx)
		return fetchErr(DocReceivedRequests, err)
	})
	g.Go(func() (err error) {
		res.sent, err = c.fetcher.GetSentFriendRequests(gctx)
		return fetchErr(DocSentRequests, err)
	})
	g.Go(func() (err error) {
		res.userStats, err = c.fetcher.GetUserStats(gctx, username)
		return fetchErr(DocUserStats, err)
	})
	g.Go(func() (err error) {
		res.submissionStats, err = c.fetcher.GetSubmissionStats(gctx, username)
		return fetchErr(DocSubmissionStats, err)
	})
	g.Go(func() (err error) {
		res.solveStats, err = c.fetcher.GetSolveStats(gctx, username)
		return fetchErr(DocSolveStats, err)
	})
	g.Go(func() (err error) {
		res.achievementStats, err = c.fetcher.GetAchievementStats(gctx, username)
		return fetchErr(DocAchievementStats, err)
	})
	g.Go(func() (err error) {
		res.recentSolves, err = c.fetcher.GetRecentSolves(gctx, username, c.solves)
		return fetchErr(DocRecentSolves, err)
	})

	if err := joinBatch(ctx, g.Wait()); err != nil {
		log.Warn("refresh abandoned", zap.Duration("elapsed", time.Since(started)), zap.Error(err))
		return err
	}

	now, persistErr := c.commitBatch(res)
	log.Info("refresh committed",
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("friends", len(res.friends)),
		zap.Int("recent_solves", len(res.recentSolves)),
	)

	c.endActivityIfSolvedToday(ctx, log, res.recentSolves, now)
	return persistErr
}

// commitBatch assigns a successful batch to the mirror in one locked step and
// writes the updated documents through. It returns the watermark it stamped.
func (c *Cache) commitBatch(res batch) (time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	s := &c.state
	s.Friends = res.friends
	s.ReceivedRequests = res.received
	s.SentRequests = res.sent
	s.RecentSolves = res.recentSolves
	s.LastFetch = now
	s.HasData = true

	docs := []document{
		{DocFriends, s.Friends},
		{DocReceivedRequests, s.ReceivedRequests},
		{DocSentRequests, s.SentRequests},
		{DocRecentSolves, s.RecentSolves},
	}
	// Stats are replaced only when the API returned one.
	if res.userStats != nil {
		s.UserStats = res.userStats
		docs = append(docs, document{DocUserStats, s.UserStats})
	}
	if res.submissionStats != nil {
		s.SubmissionStats = res.submissionStats
		docs = append(docs, document{DocSubmissionStats, s.SubmissionStats})
	}
	if res.solveStats != nil {
		s.SolveStats = res.solveStats
		docs = append(docs, document{DocSolveStats, s.SolveStats})
	}
	if res.achievementStats != nil {
		s.AchievementStats = res.achievementStats
		docs = append(docs, document{DocAchievementStats, s.AchievementStats})
	}

	// The watermark is written only once the data it vouches for is on disk.
	errs := c.writeDocs(docs)
	if len(errs) == 0 {
		errs = c.writeDocs([]document{{DocLastFetch, now}})
	}
	return now, c.persistFailure("write", errs)
}

// endActivityIfSolvedToday signals the activity collaborator when the fresh
// solves include one from today. Failures are logged and never returned.
func (c *Cache) endActivityIfSolvedToday(ctx context.Context, log *zap.Logger, solves []traverse.Solve, now time.Time) {
	if c.ender == nil || !solvedToday(solves, now) {
		return
	}
	if err := c.ender.EndStreakAtRisk(context.WithoutCancel(ctx)); err != nil {
		log.Warn("end streak-at-risk activity failed", zap.Error(err))
		return
	}
	log.Debug("ended streak-at-risk activity")
}

// RefreshRevisions fetches the revision due-list and summary together and
// commits them with the same all-or-nothing rule as Refresh. The bulk
// refresh watermark is not touched.
func (c *Cache) RefreshRevisions(ctx context.Context) error {
	if c.fetcher == nil {
		return fmt.Errorf("%w: no api client configured", ErrBatchRefreshFailed)
	}
	id := uuid.NewString()
	ctx = traverse.WithRequestID(ctx, id)
	log := c.log.With(zap.String("batch", id))

	var (
		groups []traverse.RevisionGroup
		stats  *traverse.RevisionStats
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		groups, err = c.fetcher.GetRevisions(gctx)
		return fetchErr(DocRevisionGroups, err)
	})
	g.Go(func() (err error) {
		stats, err = c.fetcher.GetRevisionStats(gctx)
		return fetchErr(DocRevisionStats, err)
	})
	if err := joinBatch(ctx, g.Wait()); err != nil {
		log.Warn("revision refresh abandoned", zap.Error(err))
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.RevisionGroups = groups
	c.state.HasData = true
	docs := []document{{DocRevisionGroups, groups}}
	if stats != nil {
		c.state.RevisionStats = stats
		docs = append(docs, document{DocRevisionStats, stats})
	}
	log.Info("revision refresh committed", zap.Int("groups", len(groups)))
	return c.persist(docs)
}

// RefreshFriendStreaks replaces the friend streak set.
func (c *Cache) RefreshFriendStreaks(ctx context.Context) error {
	if c.fetcher == nil {
		return fmt.Errorf("%w: no api client configured", ErrBatchRefreshFailed)
	}
	streaks, err := c.fetcher.GetFriendStreaks(ctx)
	if err := joinBatch(ctx, fetchErr(DocFriendStreaks, err)); err != nil {
		c.log.Warn("friend streak refresh abandoned", zap.Error(err))
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.FriendStreaks = streaks
	c.state.HasData = true
	return c.persist([]document{{DocFriendStreaks, streaks}})
}

// RecordRevisionAttempt posts a raw attempt outcome and then reloads the
// revision due-list the server recomputed.
func (c *Cache) RecordRevisionAttempt(ctx context.Context, attempt traverse.RevisionAttempt) error {
	if c.fetcher == nil {
		return fmt.Errorf("no api client configured")
	}
	if err := c.fetcher.SubmitRevisionAttempt(ctx, attempt); err != nil {
		return fmt.Errorf("submit revision attempt: %w", err)
	}
	c.log.Info("revision attempt recorded",
		zap.String("revision", attempt.RevisionID),
		zap.String("outcome", attempt.Outcome),
	)
	return c.RefreshRevisions(ctx)
}

func fetchErr(doc string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("fetch %s: %w", doc, err)
}

// joinBatch classifies the outcome of a batch. A cancelled ctx aborts the
// batch even when every fetch returned.
func joinBatch(ctx context.Context, err error) error {
	if err == nil {
		err = ctx.Err()
	}
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrBatchRefreshFailed) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrBatchRefreshFailed, err)
}
