package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/five82/traverse/internal/cache"
	"github.com/five82/traverse/internal/traverse"
)

// revisionRows flattens the revision groups in display order.
func revisionRows(snap cache.Snapshot) []traverse.RevisionItem {
	var rows []traverse.RevisionItem
	for _, g := range snap.RevisionGroups {
		rows = append(rows, g.Items...)
	}
	return rows
}

// groupLabel names a revision date relative to today.
func groupLabel(date string, now time.Time) string {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	// Count calendar days in UTC so DST shifts in the local zone do not
	// shorten or stretch a day.
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch days := int(day.Sub(today) / (24 * time.Hour)); {
	case days < 0:
		return fmt.Sprintf("Overdue (%s)", date)
	case days == 0:
		return "Today"
	case days == 1:
		return "Tomorrow"
	default:
		return fmt.Sprintf("%s (in %dd)", date, days)
	}
}

// renderRevisions renders the review queue with the selected row highlighted.
func (m Model) renderRevisions() (string, int) {
	styles := m.theme.Styles()
	snap := m.snapshot

	var lines []string
	if s := snap.RevisionStats; s != nil {
		lines = append(lines, " "+styles.MutedText.Render(fmt.Sprintf(
			"Due %d · Overdue %d · Upcoming %d · Completed %d", s.DueToday, s.Overdue, s.Upcoming, s.Completed)))
	}

	if len(revisionRows(snap)) == 0 {
		lines = append(lines, "", " "+styles.SuccessText.Render("Nothing to review"))
		return strings.Join(lines, "\n"), -1
	}

	titleWidth := max(m.width-30, 20)
	selectedLine := -1
	idx := 0
	for _, g := range snap.RevisionGroups {
		if len(g.Items) == 0 {
			continue
		}
		lines = append(lines, "", " "+styles.SectionTitle.Render(groupLabel(g.Date, m.now())))
		for _, item := range g.Items {
			text := padRight(truncate(item.Title, titleWidth), titleWidth) + " " +
				fmt.Sprintf("rev %d", item.RevisionNum)
			var line string
			if idx == m.selectedRow {
				selectedLine = len(lines)
				line = "▸ " + styles.Badge(item.Difficulty).Render(padRight(titleCase(item.Difficulty), 6)) + " " +
					styles.Selected.Render(text)
			} else {
				line = "  " + styles.Badge(item.Difficulty).Render(padRight(titleCase(item.Difficulty), 6)) + " " +
					styles.Text.Render(text)
			}
			lines = append(lines, line)
			idx++
		}
	}
	return strings.Join(lines, "\n"), selectedLine
}
