package ui

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"

	"github.com/five82/traverse/internal/cache"
	"github.com/five82/traverse/internal/prefs"
	"github.com/five82/traverse/internal/traverse"
)

var uiNow = time.Date(2026, 10, 19, 20, 0, 0, 0, time.UTC)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func seededCache(t *testing.T, clock *fakeClock) *cache.Cache {
	t.Helper()
	store := cache.NewDiskStore(t.TempDir())
	docs := map[string]any{
		cache.DocUserStats: traverse.UserStats{
			Username: "grace",
			Stats:    traverse.StatsDetail{TotalSolves: 42, CurrentStreak: 4, LongestStreak: 9, Level: 3},
		},
		cache.DocRecentSolves: []traverse.Solve{
			{ID: "s1", Title: "Two Sum", Difficulty: "easy", SolvedAt: uiNow.Add(-26 * time.Hour)},
		},
		cache.DocFriends: []traverse.Friend{{ID: "f1", Username: "ada", CurrentStreak: 7}},
		cache.DocRevisionGroups: []traverse.RevisionGroup{
			{Date: "2026-10-18", Items: []traverse.RevisionItem{{ID: "r1", Title: "LRU Cache", Difficulty: "medium", RevisionNum: 2}}},
			{Date: "2026-10-19", Items: []traverse.RevisionItem{{ID: "r2", Title: "Word Ladder", Difficulty: "hard", RevisionNum: 1}}},
		},
		cache.DocRevisionStats: traverse.RevisionStats{DueToday: 1, Overdue: 1},
		cache.DocLastFetch:     uiNow.Add(-10 * time.Minute),
	}
	for name, v := range docs {
		if err := store.Write(name, v); err != nil {
			t.Fatalf("Write(%s): %v", name, err)
		}
	}
	return cache.New(store, nil, cache.WithClock(clock.Now))
}

func newTestModel(t *testing.T, opts Options) (Model, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: uiNow}
	if opts.Cache == nil {
		opts.Cache = seededCache(t, clock)
	}
	if opts.PrefsPath == "" {
		opts.PrefsPath = filepath.Join(t.TempDir(), "prefs.toml")
	}
	if opts.Username == "" {
		opts.Username = "grace"
	}
	opts.Now = clock.Now
	m := New(opts)
	m = update(t, m, tea.WindowSizeMsg{Width: 140, Height: 40})
	return m, clock
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func updateCmd(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestView_LoadingUntilSized(t *testing.T) {
	m := New(Options{})
	if got := m.View(); got != "Loading..." {
		t.Fatalf("View = %q, want Loading...", got)
	}
}

func TestView_OverviewShowsCachedData(t *testing.T) {
	m, _ := newTestModel(t, Options{})

	view := m.View()
	for _, want := range []string{"traverse", "@grace", "fresh", "10m ago", "Recent Solves", "Two Sum", "Streak at risk"} {
		if !strings.Contains(view, want) {
			t.Fatalf("View missing %q:\n%s", want, view)
		}
	}
}

func TestView_EmptyCacheHintsRefresh(t *testing.T) {
	clock := &fakeClock{t: uiNow}
	empty := cache.New(cache.NewDiskStore(t.TempDir()), nil, cache.WithClock(clock.Now))
	m, _ := newTestModel(t, Options{Cache: empty})

	view := m.View()
	if !strings.Contains(view, "Nothing cached yet") || !strings.Contains(view, "No data") {
		t.Fatalf("View missing empty state:\n%s", view)
	}
}

func TestHandleKey_TabCyclesViewsAndSavesPrefs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	m, _ := newTestModel(t, Options{PrefsPath: path})

	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.view != prefs.ViewFriends {
		t.Fatalf("view = %q, want friends", m.view)
	}
	if !strings.Contains(m.View(), "ada") {
		t.Fatalf("friends view missing friend:\n%s", m.View())
	}
	if got := prefs.Load(path).View; got != prefs.ViewFriends {
		t.Fatalf("saved view = %q, want friends", got)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.view != prefs.ViewRevisions {
		t.Fatalf("view = %q, want revisions after wrapping", m.view)
	}
}

func TestHandleKey_CycleThemePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	m, _ := newTestModel(t, Options{PrefsPath: path, ThemeName: "Nightfox"})

	m = update(t, m, runes("T"))
	if m.theme.Name != "Kanagawa" {
		t.Fatalf("theme = %q, want Kanagawa", m.theme.Name)
	}
	if got := prefs.Load(path).Theme; got != "Kanagawa" {
		t.Fatalf("saved theme = %q, want Kanagawa", got)
	}
}

func TestHandleKey_HelpOverlayClosesOnAnyKey(t *testing.T) {
	m, _ := newTestModel(t, Options{})

	m = update(t, m, runes("?"))
	if !m.showHelp || !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Fatalf("help overlay not shown")
	}
	m = update(t, m, runes("x"))
	if m.showHelp {
		t.Fatalf("help overlay still shown after key press")
	}
}

func TestRefresh_ReportsFailureInHeader(t *testing.T) {
	calls := 0
	refresh := func(context.Context) error {
		calls++
		return errors.New("api unreachable")
	}
	m, _ := newTestModel(t, Options{Refresh: refresh})

	m, cmd := updateCmd(t, m, runes("r"))
	if cmd == nil || !m.refreshing {
		t.Fatalf("refresh did not start: cmd=%v refreshing=%v", cmd, m.refreshing)
	}
	if !strings.Contains(m.View(), "Refreshing...") {
		t.Fatalf("header missing refreshing state")
	}

	// A second press while in flight is ignored.
	if _, again := updateCmd(t, m, runes("r")); again != nil {
		t.Fatalf("second refresh started while one is in flight")
	}

	m = update(t, m, cmd())
	if calls != 1 {
		t.Fatalf("refresh calls = %d, want 1", calls)
	}
	if m.refreshing {
		t.Fatalf("refreshing still set after completion")
	}
	if !strings.Contains(m.View(), "api unreachable") {
		t.Fatalf("header missing error:\n%s", m.View())
	}
}

func TestRefresh_RequiresUsername(t *testing.T) {
	refresh := func(context.Context) error {
		t.Fatalf("refresh called without username")
		return nil
	}
	clock := &fakeClock{t: uiNow}
	m := New(Options{Cache: seededCache(t, clock), Refresh: refresh, Now: clock.Now})
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	m, cmd := updateCmd(t, m, runes("r"))
	if cmd != nil {
		t.Fatalf("refresh cmd returned without username")
	}
	if !strings.Contains(m.status, "username") {
		t.Fatalf("status = %q, want username hint", m.status)
	}
}

func TestRevisions_SubmitsSelectedAttempt(t *testing.T) {
	var got traverse.RevisionAttempt
	submit := func(_ context.Context, a traverse.RevisionAttempt) error {
		got = a
		return nil
	}
	m, clock := newTestModel(t, Options{Submit: submit, View: prefs.ViewRevisions})

	view := m.View()
	for _, want := range []string{"Overdue (2026-10-18)", "Today", "LRU Cache", "Word Ladder"} {
		if !strings.Contains(view, want) {
			t.Fatalf("revisions view missing %q:\n%s", want, view)
		}
	}

	m = update(t, m, runes("j"))
	if m.selectedRow != 1 {
		t.Fatalf("selectedRow = %d, want 1", m.selectedRow)
	}
	clock.t = clock.t.Add(90 * time.Second)

	m, cmd := updateCmd(t, m, runes("w"))
	if cmd == nil {
		t.Fatalf("attempt cmd is nil")
	}
	m = update(t, m, cmd())

	want := traverse.RevisionAttempt{RevisionID: "r2", Outcome: traverse.OutcomeSolvedHints, TimeSpentMS: 90_000}
	if got != want {
		t.Fatalf("attempt = %+v, want %+v", got, want)
	}
	if !strings.Contains(m.status, "Solved With Hints") {
		t.Fatalf("status = %q, want recorded outcome", m.status)
	}
}

func TestRevisions_SelectionClampedAfterSnapshot(t *testing.T) {
	m, _ := newTestModel(t, Options{View: prefs.ViewRevisions})
	m = update(t, m, runes("G"))
	if m.selectedRow != 1 {
		t.Fatalf("selectedRow = %d, want 1", m.selectedRow)
	}

	snap := m.snapshot
	snap.RevisionGroups = snap.RevisionGroups[:1]
	m = update(t, m, snapshotMsg{snap: snap, fresh: true})
	if m.selectedRow != 0 {
		t.Fatalf("selectedRow = %d, want clamp to 0", m.selectedRow)
	}
}

func TestGroupLabel(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"2026-10-17", "Overdue (2026-10-17)"},
		{"2026-10-19", "Today"},
		{"2026-10-20", "Tomorrow"},
		{"2026-10-24", "2026-10-24 (in 5d)"},
		{"soon", "soon"},
	}
	for _, tt := range tests {
		if got := groupLabel(tt.date, uiNow); got != tt.want {
			t.Fatalf("groupLabel(%q) = %q, want %q", tt.date, got, tt.want)
		}
	}
}

func TestGroupLabel_AcrossDSTChange(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// Clocks spring forward on 2026-03-08 in New York.
	now := time.Date(2026, time.March, 7, 22, 0, 0, 0, ny)
	tests := []struct {
		date string
		want string
	}{
		{"2026-03-08", "Tomorrow"},
		{"2026-03-09", "2026-03-09 (in 2d)"},
		{"2026-03-06", "Overdue (2026-03-06)"},
	}
	for _, tt := range tests {
		if got := groupLabel(tt.date, now); got != tt.want {
			t.Fatalf("groupLabel(%q) = %q, want %q", tt.date, got, tt.want)
		}
	}

	// Falling back on 2026-11-01 makes that local day 25 hours long.
	now = time.Date(2026, time.October, 31, 9, 0, 0, 0, ny)
	if got := groupLabel("2026-11-02", now); got != "2026-11-02 (in 2d)" {
		t.Fatalf("groupLabel after fall back = %q, want in 2d", got)
	}
}

func TestProgram_RendersAndQuits(t *testing.T) {
	clock := &fakeClock{t: uiNow}
	m := New(Options{
		Cache:     seededCache(t, clock),
		Username:  "grace",
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
		Now:       clock.Now,
		PollTick:  10 * time.Millisecond,
	})

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(120, 30))
	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("Recent Solves"))
	}, teatest.WithDuration(2*time.Second))

	tm.Send(runes("v"))
	tm.Send(runes("q"))
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))

	final := tm.FinalModel(t).(Model)
	if final.view != prefs.ViewRevisions {
		t.Fatalf("final view = %q, want revisions", final.view)
	}
}
