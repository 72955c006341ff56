// Package ui renders the Traverse dashboard with Bubble Tea.
//
// The dashboard never talks to the API directly. It re-reads the cache
// snapshot on every tick and hands refreshes and revision attempts to the
// callbacks in Options, so the poller and the UI share one cache.
//
// Views: overview (profile, solves, achievements), friends (paired streaks
// and requests) and revisions (the review queue, where s/w/x/n record an
// outcome for the selected problem).
package ui
