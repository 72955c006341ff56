// Package cache keeps the local mirror of the signed-in user's Traverse data.
//
// # Overview
//
// The Cache is the single source of truth for cached user data within a
// process. It has four parts:
//
//   - Persistent Store (disk.go): one JSON file per named document, written
//     with atomic replace so a crash never leaves a torn file
//   - In-Memory Mirror (cache.go): one field per entity, read through
//     Snapshot() as a deep copy
//   - Freshness Policy (cache.go): IsFresh() compares the bulk refresh
//     watermark against a fixed TTL (two hours by default)
//   - Bulk Refresh Orchestrator (refresh.go): concurrent fan-out of every
//     fetch, joined before a single commit
//
// # Refresh Semantics
//
//	Refresh(ctx, username)
//	  ├─> errgroup: friends, received, sent, 4× stats, recent solves
//	  ├─> any error or ctx cancelled ─> return ErrBatchRefreshFailed (no mutation)
//	  ├─> lock: assign all fields, stamp watermark, HasData = true
//	  ├─> persist every updated document (still under lock)
//	  └─> solve dated today? ─> ActivityEnder.EndStreakAtRisk (best effort)
//
// Readers never observe a state where some entities reflect a batch and
// others do not. Concurrent refreshes are not coalesced; whichever commits
// last wins, and the files on disk follow the same order because persistence
// happens under the mirror lock.
//
// Nullable stats (user, submission, solve, achievement, revision) keep their
// previous value when the API reports none.
//
// # Persistence Failures
//
// A document that cannot be written or removed is logged as
// ErrPersistenceDegraded. Under PersistDegrade (the default) the failure is
// swallowed; under PersistFail a *PersistError is returned after memory has
// been updated.
// Either way the in-memory mirror stays authoritative for the process.
//
// At construction, a missing or undecodable document is a cold start for that
// entity: it starts empty and no error is reported. Adding optional fields to
// a document is safe; changing required fields discards the old file.
//
// # Disk Layout
//
//	<dir>/friends.json
//	<dir>/receivedRequests.json
//	<dir>/sentRequests.json
//	<dir>/friendStreaks.json
//	<dir>/userStats.json
//	<dir>/submissionStats.json
//	<dir>/solveStats.json
//	<dir>/achievementStats.json
//	<dir>/recentSolves.json
//	<dir>/revisionGroups.json
//	<dir>/revisionStats.json
//	<dir>/lastFetchTimestamp.json
//
// No other package writes these files.
package cache
