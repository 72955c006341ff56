package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/traverse/internal/cache"
)

const (
	maxTopics       = 5
	maxRecentSolves = 8
	maxAchievements = 3
)

// renderOverview renders profile counters, breakdowns and recent solves.
func (m Model) renderOverview() string {
	snap := m.snapshot
	left := []string{
		m.profileSection(snap),
		m.submissionsSection(snap),
		m.revisionSummarySection(snap),
	}
	right := []string{
		m.breakdownSection(snap),
		m.achievementsSection(snap),
		m.recentSolvesSection(snap),
	}

	if m.width >= LayoutWideWidth {
		colWidth := m.width/2 - 2
		col := lipgloss.NewStyle().Width(colWidth)
		return lipgloss.JoinHorizontal(lipgloss.Top,
			col.Render(joinSections(left)),
			"  ",
			col.Render(joinSections(right)),
		)
	}
	return joinSections(append(left, right...))
}

func joinSections(sections []string) string {
	var out []string
	for _, s := range sections {
		if s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "\n\n")
}

// section renders a titled block of label/value rows.
func (m Model) section(title string, lines []string) string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(" ")
	b.WriteString(styles.SectionTitle.Render(title))
	for _, line := range lines {
		b.WriteString("\n  ")
		b.WriteString(line)
	}
	return b.String()
}

func (m Model) row(label, value string) string {
	styles := m.theme.Styles()
	return styles.MutedText.Render(padRight(label, 14)) + styles.Text.Render(value)
}

func (m Model) profileSection(snap cache.Snapshot) string {
	styles := m.theme.Styles()
	if snap.UserStats == nil {
		return m.section("Profile", []string{styles.FaintText.Render("No profile stats")})
	}
	s := snap.UserStats.Stats
	lines := []string{
		m.row("Level", fmt.Sprintf("%d (%.0f%%)", s.Level, s.LevelProgress*100)),
		m.row("XP", fmt.Sprintf("%d", s.TotalXP)),
		m.row("Streak", fmt.Sprintf("%d (best %d)", s.CurrentStreak, s.LongestStreak)),
		m.row("Freezes", fmt.Sprintf("%d", s.FreezesLeft)),
		m.row("Solved", fmt.Sprintf("%d", s.TotalSolves)),
	}
	if snap.SolvedToday(m.now()) {
		lines = append(lines, styles.SuccessText.Render("Solved today"))
	} else if s.CurrentStreak > 0 {
		lines = append(lines, styles.WarningText.Render("Streak at risk: no solve today"))
	}
	return m.section("Profile", lines)
}

func (m Model) submissionsSection(snap cache.Snapshot) string {
	if snap.SubmissionStats == nil {
		return ""
	}
	s := snap.SubmissionStats
	lines := []string{
		m.row("Submissions", fmt.Sprintf("%d", s.TotalSubmissions)),
		m.row("Accepted", fmt.Sprintf("%d (%.1f%%)", s.Accepted, s.AcceptanceRate)),
	}
	for _, status := range countsByValue(s.ByStatus) {
		lines = append(lines, m.row("  "+titleCase(status), fmt.Sprintf("%d", s.ByStatus[status])))
	}
	if len(s.ByLanguage) > 0 {
		langs := countsByValue(s.ByLanguage)
		lines = append(lines, m.row("Top language", fmt.Sprintf("%s (%d)", langs[0], s.ByLanguage[langs[0]])))
	}
	return m.section("Submissions", lines)
}

func (m Model) revisionSummarySection(snap cache.Snapshot) string {
	if snap.RevisionStats == nil {
		return ""
	}
	styles := m.theme.Styles()
	s := snap.RevisionStats
	overdue := fmt.Sprintf("%d", s.Overdue)
	if s.Overdue > 0 {
		overdue = styles.DangerText.Render(overdue)
	}
	return m.section("Revisions", []string{
		m.row("Due today", fmt.Sprintf("%d", s.DueToday)),
		styles.MutedText.Render(padRight("Overdue", 14)) + overdue,
		m.row("Upcoming", fmt.Sprintf("%d", s.Upcoming)),
		m.row("Completed", fmt.Sprintf("%d", s.Completed)),
	})
}

func (m Model) breakdownSection(snap cache.Snapshot) string {
	if snap.SolveStats == nil {
		return ""
	}
	styles := m.theme.Styles()
	s := snap.SolveStats

	var lines []string
	var badges []string
	for _, d := range difficultyOrder(s.ByDifficulty) {
		badges = append(badges, styles.Badge(d).Render(fmt.Sprintf("%s %d", titleCase(d), s.ByDifficulty[d])))
	}
	if len(badges) > 0 {
		lines = append(lines, strings.Join(badges, " "))
	}

	topics := countsByValue(s.ByTopic)
	for i, topic := range topics {
		if i >= maxTopics {
			lines = append(lines, styles.FaintText.Render(fmt.Sprintf("+%d more topics", len(topics)-maxTopics)))
			break
		}
		lines = append(lines, m.row(truncate(titleCase(topic), 13), fmt.Sprintf("%d", s.ByTopic[topic])))
	}
	return m.section(fmt.Sprintf("Solves (%d)", s.Total), lines)
}

func (m Model) achievementsSection(snap cache.Snapshot) string {
	if snap.AchievementStats == nil {
		return ""
	}
	styles := m.theme.Styles()
	s := snap.AchievementStats
	lines := []string{m.row("Unlocked", fmt.Sprintf("%d / %d", s.Unlocked, s.Total))}
	for i, a := range s.Recent {
		if i >= maxAchievements {
			break
		}
		lines = append(lines, styles.AccentText.Render("★ ")+styles.Text.Render(a.Name)+
			" "+styles.FaintText.Render(formatAgo(a.UnlockedAt, m.now())))
	}
	return m.section("Achievements", lines)
}

func (m Model) recentSolvesSection(snap cache.Snapshot) string {
	styles := m.theme.Styles()
	if len(snap.RecentSolves) == 0 {
		return m.section("Recent Solves", []string{styles.FaintText.Render("No solves yet")})
	}
	titleWidth := max(m.width/2-30, 20)
	var lines []string
	for i, s := range snap.RecentSolves {
		if i >= maxRecentSolves {
			break
		}
		lines = append(lines, styles.Badge(s.Difficulty).Render(padRight(titleCase(s.Difficulty), 6))+" "+
			styles.Text.Render(padRight(truncate(s.Title, titleWidth), titleWidth))+" "+
			styles.FaintText.Render(formatAgo(s.SolvedAt, m.now())))
	}
	return m.section("Recent Solves", lines)
}
