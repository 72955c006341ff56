// Package widget maintains the small snapshot a home-screen widget or status
// bar reads without opening the full cache.
package widget

import (
	"fmt"
	"time"

	"github.com/five82/traverse/internal/cache"
)

const docName = "widget"

// Snapshot is the widget's view of the user. It has no TTL; the last write wins.
type Snapshot struct {
	Username      string    `json:"username"`
	CurrentStreak int       `json:"currentStreak"`
	LongestStreak int       `json:"longestStreak"`
	TotalSolves   int       `json:"totalSolves"`
	TotalXP       int       `json:"totalXp"`
	DueToday      int       `json:"dueToday"`
	SolvedToday   bool      `json:"solvedToday"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// FromCache derives a widget snapshot from the cache mirror.
func FromCache(snap cache.Snapshot, now time.Time) Snapshot {
	w := Snapshot{
		SolvedToday: snap.SolvedToday(now),
		UpdatedAt:   now,
	}
	if s := snap.UserStats; s != nil {
		w.Username = s.Username
		w.CurrentStreak = s.Stats.CurrentStreak
		w.LongestStreak = s.Stats.LongestStreak
		w.TotalSolves = s.Stats.TotalSolves
		w.TotalXP = s.Stats.TotalXP
	}
	if s := snap.RevisionStats; s != nil {
		w.DueToday = s.DueToday + s.Overdue
	}
	return w
}

// Write replaces the stored snapshot.
func Write(store cache.Persister, snap Snapshot) error {
	if err := store.Write(docName, snap); err != nil {
		return fmt.Errorf("write widget snapshot: %w", err)
	}
	return nil
}

// Read returns the stored snapshot. ok is false when none has been written.
func Read(store cache.Persister) (snap Snapshot, ok bool, err error) {
	ok, err = store.Read(docName, &snap)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("read widget snapshot: %w", err)
	}
	return snap, ok, nil
}

// Line renders the snapshot as a one-line status for bars and prompts.
func (s Snapshot) Line() string {
	mark := "·"
	if s.SolvedToday {
		mark = "✓"
	}
	return fmt.Sprintf("%s %d🔥 %d due", mark, s.CurrentStreak, s.DueToday)
}
