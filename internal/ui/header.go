package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/traverse/internal/prefs"
)

// renderHeader renders the status bar: user, streak, backlog and freshness.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth

	parts := []string{bg.Render("traverse", styles.Logo)}

	if m.username == "" {
		parts = append(parts, bg.Render("no user", styles.WarningText))
	} else {
		parts = append(parts, bg.Render("@"+m.username, styles.Text))
	}

	snap := m.snapshot
	if snap.UserStats != nil {
		streak := snap.UserStats.Stats.CurrentStreak
		streakStyle := styles.MutedText
		if streak > 0 {
			streakStyle = styles.WarningText
		}
		label := "Streak:"
		if compact {
			label = "S:"
		}
		parts = append(parts,
			bg.Render(label, styles.MutedText)+bg.Spaces(1)+
				bg.Render(fmt.Sprintf("%d", streak), streakStyle))
		if !compact && snap.SolvedToday(m.now()) {
			parts = append(parts, bg.Render("✓ solved today", styles.SuccessText))
		}
	}

	if snap.RevisionStats != nil {
		due := snap.RevisionStats.DueToday + snap.RevisionStats.Overdue
		dueStyle := styles.MutedText
		if due > 0 {
			dueStyle = styles.AccentText
		}
		parts = append(parts,
			bg.Render("Due:", styles.MutedText)+bg.Spaces(1)+
				bg.Render(fmt.Sprintf("%d", due), dueStyle))
	}

	parts = append(parts, m.freshnessLabel(styles, bg))

	if m.lastErr != nil {
		maxErr := 60
		if compact {
			maxErr = 24
		}
		parts = append(parts,
			bg.Render("ERROR", styles.DangerText)+bg.Spaces(1)+
				bg.Render(truncate(m.lastErr.Error(), maxErr), styles.DangerText))
	} else if m.status != "" {
		parts = append(parts, bg.Render(truncate(m.status, 48), styles.InfoText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// freshnessLabel describes how current the mirror is.
func (m Model) freshnessLabel(styles Styles, bg BgStyle) string {
	switch {
	case m.refreshing:
		return bg.Render("Refreshing...", styles.WarningText)
	case !m.snapshot.HasData:
		return bg.Render("No data", styles.MutedText)
	}
	ago := formatAgo(m.snapshot.LastFetch, m.now())
	if m.fresh {
		return bg.Render("● fresh", styles.SuccessText) + bg.Spaces(1) + bg.Render(ago, styles.MutedText)
	}
	return bg.Render("● stale", styles.WarningText) + bg.Spaces(1) + bg.Render(ago, styles.MutedText)
}

// renderCommandBar renders view tabs followed by key hints for the active view.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	tabs := make([]string, 0, len(prefs.Views))
	for _, v := range prefs.Views {
		label := titleCase(v)
		if v == m.view {
			tabs = append(tabs, bg.Render("["+label+"]", styles.AccentText.Bold(true)))
		} else {
			tabs = append(tabs, bg.Render(label, styles.FaintText))
		}
	}

	type cmd struct{ key, desc string }
	var commands []cmd
	switch m.view {
	case prefs.ViewRevisions:
		commands = []cmd{
			{"j/k", "Select"},
			{"s", "Solved"},
			{"w", "Hints"},
			{"x", "Failed"},
			{"n", "Skip"},
		}
	default:
		commands = []cmd{
			{"j/k", "Scroll"},
		}
	}
	commands = append(commands, cmd{"r", "Refresh"}, cmd{"Tab", "View"}, cmd{"?", "More"})
	if m.width < LayoutCompactWidth {
		commands = commands[:min(len(commands), 3)]
	}

	colon := bg.Render(":", styles.FaintText)
	segments := make([]string, 0, len(commands)+2)
	segments = append(segments, strings.Join(tabs, bg.Spaces(1)))
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Width(m.width).
		Padding(0, 1).
		Render(bg.Join(segments, "  "))
}
