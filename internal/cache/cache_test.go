package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/five82/traverse/internal/traverse"
)

func TestNewEmptyDirectoryIsColdStart(t *testing.T) {
	c := New(NewDiskStore(t.TempDir()), nil)

	if c.HasData() {
		t.Fatal("HasData() = true for empty directory")
	}
	if !c.LastFetch().IsZero() {
		t.Fatalf("LastFetch() = %v, want zero", c.LastFetch())
	}
	if c.IsFresh() {
		t.Fatal("IsFresh() = true before any refresh")
	}
	if c.TTL() != DefaultTTL {
		t.Fatalf("TTL() = %v, want %v", c.TTL(), DefaultTTL)
	}
}

func TestNewCorruptDocumentStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	store := NewDiskStore(dir)
	if err := store.Write(DocUserStats, traverse.UserStats{Username: "grace", Stats: traverse.StatsDetail{TotalSolves: 7}}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, DocFriends+".json"), []byte(`{"friends":`), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	c := New(store, nil)
	snap := c.Snapshot()

	if snap.Friends != nil {
		t.Fatalf("Friends = %v, want nil after corrupt file", snap.Friends)
	}
	if snap.UserStats == nil || snap.UserStats.Stats.TotalSolves != 7 {
		t.Fatalf("UserStats = %+v, want TotalSolves 7", snap.UserStats)
	}
	if !snap.HasData {
		t.Fatal("HasData = false, want true with one valid document")
	}
}

func TestNewWatermarkAloneIsNotData(t *testing.T) {
	store := NewDiskStore(t.TempDir())
	if err := store.Write(DocLastFetch, testNow); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	c := New(store, nil, WithClock(func() time.Time { return testNow.Add(time.Minute) }))
	if c.HasData() {
		t.Fatal("HasData() = true with only a watermark on disk")
	}
	if !c.LastFetch().IsZero() {
		t.Fatalf("LastFetch() = %v, want zero without documents behind it", c.LastFetch())
	}
	if c.IsFresh() {
		t.Fatal("IsFresh() = true with only a watermark on disk")
	}
}

func TestNewWatermarkWithDataIsKept(t *testing.T) {
	store := NewDiskStore(t.TempDir())
	if err := store.Write(DocFriends, []traverse.Friend{{Username: "ada"}}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := store.Write(DocLastFetch, testNow); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	c := New(store, nil, WithClock(func() time.Time { return testNow.Add(time.Minute) }))
	if !c.HasData() || !c.LastFetch().Equal(testNow) {
		t.Fatalf("HasData() = %v LastFetch() = %v, want true %v", c.HasData(), c.LastFetch(), testNow)
	}
	if !c.IsFresh() {
		t.Fatal("IsFresh() = false one minute after the loaded watermark")
	}
}

func TestIsFreshBoundaries(t *testing.T) {
	clock := newTestClock(testNow)
	store := NewDiskStore(t.TempDir())
	c := New(store, samplePayload(), WithClock(clock.Now))

	if c.IsFresh() {
		t.Fatal("IsFresh() = true before refresh")
	}
	if err := c.Refresh(t.Context(), "grace"); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	tests := []struct {
		name    string
		elapsed time.Duration
		want    bool
	}{
		{"immediately", 0, true},
		{"just under ttl", DefaultTTL - time.Nanosecond, true},
		{"exactly ttl", DefaultTTL, false},
		{"past ttl", DefaultTTL + time.Minute, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock.mu.Lock()
			clock.t = testNow.Add(tt.elapsed)
			clock.mu.Unlock()
			if got := c.IsFresh(); got != tt.want {
				t.Fatalf("IsFresh() at +%v = %v, want %v", tt.elapsed, got, tt.want)
			}
		})
	}
}

func TestWithTTL(t *testing.T) {
	clock := newTestClock(testNow)
	c := New(NewDiskStore(t.TempDir()), samplePayload(), WithClock(clock.Now), WithTTL(10*time.Minute))
	if err := c.Refresh(t.Context(), "grace"); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	clock.Advance(10 * time.Minute)
	if c.IsFresh() {
		t.Fatal("IsFresh() = true at a custom ttl of ten minutes")
	}

	if got := New(nil, nil, WithTTL(-time.Second)).TTL(); got != DefaultTTL {
		t.Fatalf("TTL() with negative override = %v, want %v", got, DefaultTTL)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	c := New(NewDiskStore(t.TempDir()), samplePayload(), WithClock(func() time.Time { return testNow }))
	if err := c.Refresh(t.Context(), "grace"); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	first := c.Snapshot()
	first.ReceivedRequests[0].Status = traverse.RequestDeclined
	first.UserStats.Stats.TotalSolves = 99
	first.SubmissionStats.ByStatus["accepted"] = 0
	first.RecentSolves = nil

	second := c.Snapshot()
	if second.ReceivedRequests[0].Status != traverse.RequestPending {
		t.Fatal("mutating a snapshot changed the mirror's requests")
	}
	if second.UserStats.Stats.TotalSolves != 10 {
		t.Fatal("mutating a snapshot changed the mirror's user stats")
	}
	if second.SubmissionStats.ByStatus["accepted"] != 10 {
		t.Fatal("mutating a snapshot changed the mirror's submission stats map")
	}
	if len(second.RecentSolves) != 2 {
		t.Fatal("mutating a snapshot changed the mirror's solves")
	}
}

func TestClearResetsMemoryAndDisk(t *testing.T) {
	dir := t.TempDir()
	store := NewDiskStore(dir)
	c := New(store, samplePayload(), WithClock(func() time.Time { return testNow }))
	if err := c.Refresh(t.Context(), "grace"); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if err := c.RefreshRevisions(t.Context()); err != nil {
		t.Fatalf("RefreshRevisions() error = %v", err)
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	if diff := cmp.Diff(Snapshot{}, c.Snapshot()); diff != "" {
		t.Fatalf("Snapshot() after Clear mismatch (-want +got):\n%s", diff)
	}
	if c.IsFresh() {
		t.Fatal("IsFresh() = true after Clear")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("directory has %d entries after Clear, want 0", len(entries))
	}

	// A fresh process over the same directory sees nothing.
	if New(store, nil).HasData() {
		t.Fatal("HasData() = true after reopening a cleared cache")
	}
}

func TestClearIsIdempotent(t *testing.T) {
	c := New(NewDiskStore(t.TempDir()), nil)
	for i := range 2 {
		if err := c.Clear(); err != nil {
			t.Fatalf("Clear() call %d error = %v", i+1, err)
		}
	}
}

func TestClearRemovalFailureFollowsPolicy(t *testing.T) {
	t.Run("degrade", func(t *testing.T) {
		store := newFlakyStore(t.TempDir())
		store.failRemove = true
		c := New(store, samplePayload(), WithClock(func() time.Time { return testNow }))
		if err := c.Refresh(t.Context(), "grace"); err != nil {
			t.Fatalf("Refresh() error = %v", err)
		}

		if err := c.Clear(); err != nil {
			t.Fatalf("Clear() error = %v, want nil under degrade", err)
		}
		if c.HasData() {
			t.Fatal("HasData() = true after Clear")
		}
	})

	t.Run("fail", func(t *testing.T) {
		store := newFlakyStore(t.TempDir())
		store.failRemove = true
		c := New(store, nil, WithPersistPolicy(PersistFail))

		err := c.Clear()
		if !errors.Is(err, ErrPersistenceDegraded) {
			t.Fatalf("Clear() error = %v, want ErrPersistenceDegraded", err)
		}
	})
}

func TestParsePersistPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    PersistPolicy
		wantErr bool
	}{
		{"", PersistDegrade, false},
		{"degrade", PersistDegrade, false},
		{" FAIL ", PersistFail, false},
		{"panic", PersistDegrade, true},
	}
	for _, tt := range tests {
		got, err := ParsePersistPolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePersistPolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePersistPolicy(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if PersistFail.String() != "fail" || PersistDegrade.String() != "degrade" {
		t.Fatal("PersistPolicy.String() does not round-trip")
	}
}

func TestSnapshotSolvedToday(t *testing.T) {
	snap := Snapshot{RecentSolves: []traverse.Solve{{SolvedAt: testNow.Add(-time.Hour)}}}
	if !snap.SolvedToday(testNow) {
		t.Fatal("SolvedToday() = false for a solve an hour ago")
	}
	if snap.SolvedToday(testNow.AddDate(0, 0, 1)) {
		t.Fatal("SolvedToday() = true for yesterday's solve")
	}
	if (Snapshot{}).SolvedToday(testNow) {
		t.Fatal("SolvedToday() = true with no solves")
	}
}
