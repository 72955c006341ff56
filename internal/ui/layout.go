package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which columns are dropped.
	LayoutCompactWidth = 80

	// LayoutWideWidth is the minimum width for side-by-side overview panels.
	LayoutWideWidth = 120
)

// Chrome is the number of rows taken by the header and command bar.
const Chrome = 2

// DefaultUIInterval is how often the dashboard re-reads the cache.
const DefaultUIInterval = time.Second

// RefreshTimeout bounds a user-triggered refresh or attempt submission.
const RefreshTimeout = 30 * time.Second
