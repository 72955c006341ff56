package ui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/traverse/internal/cache"
	"github.com/five82/traverse/internal/prefs"
	"github.com/five82/traverse/internal/traverse"
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Cache     *cache.Cache
	Refresh   func(context.Context) error
	Submit    func(context.Context, traverse.RevisionAttempt) error
	Username  string
	ThemeName string
	View      string
	PrefsPath string
	PollTick  time.Duration
	Now       func() time.Time
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	cache     *cache.Cache
	refresh   func(context.Context) error
	submit    func(context.Context, traverse.RevisionAttempt) error
	username  string
	prefsPath string
	pollTick  time.Duration
	now       func() time.Time
	keys      keyMap

	// UI state
	theme    Theme
	view     string
	width    int
	height   int
	ready    bool
	viewport viewport.Model
	showHelp bool

	// Data state
	snapshot   cache.Snapshot
	fresh      bool
	refreshing bool
	lastErr    error
	status     string

	// Revisions state
	selectedRow int
	selectedAt  time.Time
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = DefaultUIInterval
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	view := opts.View
	if !slices.Contains(prefs.Views, view) {
		view = prefs.ViewOverview
	}

	m := Model{
		ctx:        ctx,
		cache:      opts.Cache,
		refresh:    opts.Refresh,
		submit:     opts.Submit,
		username:   opts.Username,
		prefsPath:  opts.PrefsPath,
		pollTick:   pollTick,
		now:        now,
		keys:       DefaultKeyMap(),
		theme:      GetTheme(opts.ThemeName),
		view:       view,
		selectedAt: now(),
	}
	if opts.Cache != nil {
		m.snapshot = opts.Cache.Snapshot()
		m.fresh = opts.Cache.IsFresh()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(m.pollTick),
	}
	if m.cache != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.cache))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, m.contentHeight())
		}
		m.ready = true
		m.viewport.Width = msg.Width
		m.viewport.Height = m.contentHeight()
		m.updateViewport()
		return m, nil

	case tickMsg:
		var cmds []tea.Cmd
		if m.cache != nil {
			cmds = append(cmds, fetchSnapshotCmd(m.cache))
		}
		cmds = append(cmds, tickCmd(m.pollTick))
		return m, tea.Batch(cmds...)

	case snapshotMsg:
		m.snapshot = msg.snap
		m.fresh = msg.fresh
		m.clampSelection()
		m.updateViewport()
		return m, nil

	case refreshDoneMsg:
		m.refreshing = false
		m.lastErr = msg.err
		if msg.err == nil {
			m.status = "Refreshed"
		} else {
			m.status = ""
		}
		if m.cache != nil {
			return m, fetchSnapshotCmd(m.cache)
		}
		return m, nil

	case attemptDoneMsg:
		if msg.err != nil {
			m.lastErr = msg.err
			m.status = ""
		} else {
			m.lastErr = nil
			m.status = fmt.Sprintf("Recorded %s: %s", titleCase(msg.outcome), truncate(msg.title, 40))
		}
		m.selectedAt = m.now()
		if m.cache != nil {
			return m, fetchSnapshotCmd(m.cache)
		}
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		m.updateViewport()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m.startRefresh()

	case key.Matches(msg, m.keys.Tab):
		m.switchView(m.offsetView(1))
		return m, nil

	case key.Matches(msg, m.keys.ShiftTab):
		m.switchView(m.offsetView(-1))
		return m, nil

	case key.Matches(msg, m.keys.ViewOverview), msg.String() == "esc":
		m.switchView(prefs.ViewOverview)
		return m, nil

	case key.Matches(msg, m.keys.ViewFriends):
		m.switchView(prefs.ViewFriends)
		return m, nil

	case key.Matches(msg, m.keys.ViewRevisions):
		m.switchView(prefs.ViewRevisions)
		return m, nil
	}

	if m.view == prefs.ViewRevisions {
		return m.handleRevisionsKey(msg)
	}
	m.scroll(msg)
	return m, nil
}

// handleRevisionsKey moves the selection and submits review outcomes.
func (m Model) handleRevisionsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := revisionRows(m.snapshot)
	if len(rows) == 0 {
		return m, nil
	}

	prev := m.selectedRow
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.selectedRow < len(rows)-1 {
			m.selectedRow++
		}
	case key.Matches(msg, m.keys.Up):
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case key.Matches(msg, m.keys.Top):
		m.selectedRow = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selectedRow = len(rows) - 1
	case key.Matches(msg, m.keys.Solved):
		return m.startAttempt(rows[m.selectedRow], traverse.OutcomeSolved)
	case key.Matches(msg, m.keys.SolvedHints):
		return m.startAttempt(rows[m.selectedRow], traverse.OutcomeSolvedHints)
	case key.Matches(msg, m.keys.Failed):
		return m.startAttempt(rows[m.selectedRow], traverse.OutcomeFailed)
	case key.Matches(msg, m.keys.Skip):
		return m.startAttempt(rows[m.selectedRow], traverse.OutcomeSkipped)
	}
	if m.selectedRow != prev {
		m.selectedAt = m.now()
	}
	m.updateViewport()
	return m, nil
}

func (m *Model) scroll(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, m.keys.Down):
		m.viewport.SetYOffset(m.viewport.YOffset + 1)
	case key.Matches(msg, m.keys.Up):
		m.viewport.SetYOffset(m.viewport.YOffset - 1)
	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
	}
}

func (m Model) startRefresh() (tea.Model, tea.Cmd) {
	if m.refresh == nil || m.refreshing {
		return m, nil
	}
	if m.username == "" {
		m.status = "Set a username to refresh"
		return m, nil
	}
	m.refreshing = true
	m.status = ""
	return m, refreshCmd(m.ctx, m.refresh)
}

func (m Model) startAttempt(item traverse.RevisionItem, outcome string) (tea.Model, tea.Cmd) {
	if m.submit == nil {
		return m, nil
	}
	attempt := traverse.RevisionAttempt{
		RevisionID:  item.ID,
		Outcome:     outcome,
		TimeSpentMS: m.now().Sub(m.selectedAt).Milliseconds(),
	}
	m.status = fmt.Sprintf("Recording %s...", titleCase(outcome))
	return m, submitCmd(m.ctx, m.submit, attempt, item.Title)
}

func (m *Model) switchView(view string) {
	if view == m.view {
		return
	}
	m.view = view
	m.selectedAt = m.now()
	m.viewport.GotoTop()
	m.savePrefs()
	m.updateViewport()
}

func (m Model) offsetView(delta int) string {
	i := slices.Index(prefs.Views, m.view)
	n := len(prefs.Views)
	return prefs.Views[((i+delta)%n+n)%n]
}

func (m *Model) savePrefs() {
	if err := prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, View: m.view}); err != nil {
		m.status = "Could not save preferences"
	}
}

func (m *Model) clampSelection() {
	n := len(revisionRows(m.snapshot))
	if m.selectedRow >= n {
		m.selectedRow = max(n-1, 0)
	}
}

func (m Model) contentHeight() int {
	return max(m.height-Chrome, 1)
}

// updateViewport re-renders the active view and keeps the selection visible.
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}
	content, selectedLine := m.renderContent()
	m.viewport.SetContent(content)
	if selectedLine < 0 {
		return
	}
	switch {
	case selectedLine < m.viewport.YOffset:
		m.viewport.SetYOffset(selectedLine)
	case selectedLine >= m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(selectedLine - m.viewport.Height + 1)
	}
}

// renderMain renders the header, command bar and active view.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	return b.String()
}

// renderContent renders the active view. The second result is the line of
// the selected row, or -1 when the view has no selection.
func (m Model) renderContent() (string, int) {
	if !m.snapshot.HasData {
		return m.renderEmpty(), -1
	}
	switch m.view {
	case prefs.ViewFriends:
		return m.renderFriends(), -1
	case prefs.ViewRevisions:
		return m.renderRevisions()
	default:
		return m.renderOverview(), -1
	}
}

func (m Model) renderEmpty() string {
	styles := m.theme.Styles()
	var lines []string
	lines = append(lines, "")
	switch {
	case m.username == "":
		lines = append(lines,
			styles.WarningText.Render("  No username configured."),
			styles.MutedText.Render("  Set username in ~/.config/traverse/config.toml or TRAVERSE_USERNAME."))
	case m.refreshing:
		lines = append(lines, styles.MutedText.Render("  Fetching your data..."))
	default:
		lines = append(lines,
			styles.MutedText.Render("  Nothing cached yet."),
			styles.MutedText.Render("  Press ")+styles.AccentText.Render("r")+styles.MutedText.Render(" to refresh."))
	}
	return strings.Join(lines, "\n")
}

// Messages

type tickMsg time.Time

type snapshotMsg struct {
	snap  cache.Snapshot
	fresh bool
}

type refreshDoneMsg struct {
	err error
}

type attemptDoneMsg struct {
	title   string
	outcome string
	err     error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(c *cache.Cache) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg{snap: c.Snapshot(), fresh: c.IsFresh()}
	}
}

func refreshCmd(ctx context.Context, refresh func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, RefreshTimeout)
		defer cancel()
		return refreshDoneMsg{err: refresh(ctx)}
	}
}

func submitCmd(ctx context.Context, submit func(context.Context, traverse.RevisionAttempt) error, attempt traverse.RevisionAttempt, title string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, RefreshTimeout)
		defer cancel()
		return attemptDoneMsg{title: title, outcome: attempt.Outcome, err: submit(ctx, attempt)}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
