// Package app is the composition root for Traverse.
//
// # Overview
//
// Open loads configuration and wires one Env: the zap logger, the Traverse
// API client, the cache, the streak-at-risk tracker and the shared widget
// store. Every CLI command works through an Env; Run additionally starts the
// background poller and the dashboard.
//
// # Data Flow
//
//	┌──────────────┐
//	│   Open()     │
//	└──────┬───────┘
//	       ├─────> config.Load() + Validate()
//	       ├─────> logging.New()        JSON log file
//	       ├─────> traverse.NewClient()
//	       ├─────> activity.NewTracker() shared store
//	       └─────> cache.New()          loads the mirror from disk
//
//	Env.Refresh():
//	  cache.Refresh ─> RefreshRevisions ─> RefreshFriendStreaks
//	  └─> widget.Write + activity.StartStreakAtRisk when due
//
// # Polling Behavior
//
// The poller wakes every poll_interval (default five minutes) and refreshes
// only when the cache is no longer fresh, so a two-hour TTL means one bulk
// refresh every two hours regardless of the interval. Failed refreshes retry
// after 2s, doubling up to 30s.
package app
