package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/five82/traverse/internal/activity"
	"github.com/five82/traverse/internal/cache"
	"github.com/five82/traverse/internal/config"
	"github.com/five82/traverse/internal/logging"
	"github.com/five82/traverse/internal/prefs"
	"github.com/five82/traverse/internal/traverse"
	"github.com/five82/traverse/internal/ui"
	"github.com/five82/traverse/internal/widget"
)

// ErrNoUsername is returned by operations that need the signed-in user.
var ErrNoUsername = errors.New("no username configured (set username in config.toml or TRAVERSE_USERNAME)")

// Options configure the Traverse application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/traverse/prefs.toml
	Verbose    bool
	// LogToStderr sends logs to stderr instead of the configured log file.
	LogToStderr bool
}

// Env holds the collaborators every command shares. One Env owns one Cache.
type Env struct {
	Config  config.Config
	Log     *zap.Logger
	Cache   *cache.Cache
	Tracker *activity.Tracker
	Shared  cache.Persister

	now func() time.Time
}

// Open loads configuration and wires the cache, API client and surfaces.
func Open(opts Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logFile := cfg.LogFile
	if opts.LogToStderr {
		logFile = ""
	}
	log, err := logging.New(logging.Options{Level: cfg.LogLevel, File: logFile, Verbose: opts.Verbose})
	if err != nil {
		return nil, err
	}

	client, err := traverse.NewClient(cfg.APIURL, traverse.WithToken(cfg.Token))
	if err != nil {
		return nil, fmt.Errorf("init traverse client: %w", err)
	}

	return newEnv(cfg, log, client, time.Now), nil
}

func newEnv(cfg config.Config, log *zap.Logger, fetcher traverse.Fetcher, now func() time.Time) *Env {
	shared := cache.NewDiskStore(cfg.WidgetDir())
	tracker := activity.NewTracker(shared,
		activity.WithLogger(log.Named("activity")),
		activity.WithClock(now),
	)
	c := cache.New(cache.NewDiskStore(cfg.CacheDir), fetcher,
		cache.WithClock(now),
		cache.WithTTL(cfg.CacheTTL),
		cache.WithLogger(log.Named("cache")),
		cache.WithPersistPolicy(cfg.PersistPolicy()),
		cache.WithActivityEnder(tracker),
	)
	return &Env{
		Config:  cfg,
		Log:     log,
		Cache:   c,
		Tracker: tracker,
		Shared:  shared,
		now:     now,
	}
}

// Close flushes the logger.
func (e *Env) Close() {
	_ = e.Log.Sync()
}

// Refresh runs a bulk refresh for the configured user, then reloads
// revisions and friend streaks and updates the widget and activity surfaces.
// A bulk failure is returned before anything else runs.
func (e *Env) Refresh(ctx context.Context) error {
	username := strings.TrimSpace(e.Config.Username)
	if username == "" {
		return ErrNoUsername
	}

	err := e.Cache.Refresh(ctx, username)
	if err != nil && !errors.Is(err, cache.ErrPersistenceDegraded) {
		return err
	}

	errs := []error{err}
	if err := e.Cache.RefreshRevisions(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := e.Cache.RefreshFriendStreaks(ctx); err != nil {
		errs = append(errs, err)
	}
	e.syncSurfaces()
	return errors.Join(errs...)
}

// RecordAttempt submits a revision attempt and refreshes the surfaces that
// show the due count.
func (e *Env) RecordAttempt(ctx context.Context, attempt traverse.RevisionAttempt) error {
	if err := e.Cache.RecordRevisionAttempt(ctx, attempt); err != nil {
		return err
	}
	e.syncSurfaces()
	return nil
}

// syncSurfaces writes the widget snapshot and starts the streak-at-risk
// activity when it is due. Failures are logged only.
func (e *Env) syncSurfaces() {
	snap := e.Cache.Snapshot()
	now := e.now()

	if err := widget.Write(e.Shared, widget.FromCache(snap, now)); err != nil {
		e.Log.Warn("widget snapshot not written", zap.Error(err))
	}

	if !activity.ShouldStart(snap, now, e.Config.ReminderHour) {
		return
	}
	if err := e.Tracker.StartStreakAtRisk(snap.UserStats.Stats.CurrentStreak); err != nil {
		e.Log.Warn("streak-at-risk activity not started", zap.Error(err))
	}
}

// Run boots the dashboard until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	env, err := Open(opts)
	if err != nil {
		return err
	}
	defer env.Close()

	userPrefs := prefs.Load(opts.PrefsPath)

	if env.Config.Username != "" {
		StartPoller(ctx, env.Log.Named("poller"), env.Cache, env.Refresh, env.Config.PollInterval)
	}

	return ui.Run(ui.Options{
		Context:   ctx,
		Cache:     env.Cache,
		Refresh:   env.Refresh,
		Submit:    env.RecordAttempt,
		Username:  env.Config.Username,
		ThemeName: userPrefs.Theme,
		View:      userPrefs.View,
		PrefsPath: opts.PrefsPath,
	})
}
