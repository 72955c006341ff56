package ui

import (
	"fmt"

	"github.com/five82/traverse/internal/traverse"
)

// renderFriends renders paired streaks, friends and pending requests.
func (m Model) renderFriends() string {
	snap := m.snapshot
	return joinSections([]string{
		m.streaksSection(snap.FriendStreaks),
		m.friendsSection(snap.Friends),
		m.requestsSection("Requests Received", snap.ReceivedRequests, true),
		m.requestsSection("Requests Sent", snap.SentRequests, false),
	})
}

func displayName(f traverse.Friend) string {
	if f.DisplayName != "" {
		return f.DisplayName
	}
	return f.Username
}

func (m Model) streaksSection(streaks []traverse.FriendStreak) string {
	styles := m.theme.Styles()
	if len(streaks) == 0 {
		return m.section("Friend Streaks", []string{styles.FaintText.Render("No paired streaks")})
	}
	mark := func(done bool) string {
		if done {
			return styles.SuccessText.Render("✓")
		}
		return styles.FaintText.Render("·")
	}
	lines := make([]string, 0, len(streaks))
	for _, s := range streaks {
		lines = append(lines,
			styles.Text.Render(padRight(truncate(displayName(s.Friend), 20), 20))+" "+
				styles.WarningText.Render(padRight(fmt.Sprintf("%d", s.CurrentStreak), 4))+
				styles.FaintText.Render(padRight(fmt.Sprintf("best %d", s.LongestStreak), 10))+
				styles.MutedText.Render("you ")+mark(s.UserSolved)+
				styles.MutedText.Render("  them ")+mark(s.FriendSolved))
	}
	return m.section("Friend Streaks", lines)
}

func (m Model) friendsSection(friends []traverse.Friend) string {
	styles := m.theme.Styles()
	title := fmt.Sprintf("Friends (%d)", len(friends))
	if len(friends) == 0 {
		return m.section(title, []string{styles.FaintText.Render("No friends yet")})
	}
	lines := make([]string, 0, len(friends))
	for _, f := range friends {
		line := styles.Text.Render(padRight(truncate(displayName(f), 20), 20)) + " " +
			styles.MutedText.Render(padRight(fmt.Sprintf("streak %d", f.CurrentStreak), 12))
		if m.width >= LayoutCompactWidth {
			line += styles.FaintText.Render(fmt.Sprintf("%d xp", f.TotalXP))
		}
		lines = append(lines, line)
	}
	return m.section(title, lines)
}

func (m Model) requestsSection(title string, requests []traverse.FriendRequest, received bool) string {
	if len(requests) == 0 {
		return ""
	}
	styles := m.theme.Styles()
	lines := make([]string, 0, len(requests))
	for _, r := range requests {
		other := r.Receiver
		if received {
			other = r.Sender
		}
		lines = append(lines,
			styles.Badge(r.Status).Render(padRight(titleCase(r.Status), 8))+" "+
				styles.Text.Render(padRight(truncate(displayName(other), 20), 20))+" "+
				styles.FaintText.Render(formatAgo(r.CreatedAt, m.now())))
	}
	return m.section(fmt.Sprintf("%s (%d)", title, len(requests)), lines)
}
