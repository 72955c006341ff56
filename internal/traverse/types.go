package traverse

import (
	"time"
)

const dayLayout = "2006-01-02"

// Friend summarizes an accepted friendship of the current user.
type Friend struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	DisplayName   string `json:"displayName,omitempty"`
	CurrentStreak int    `json:"currentStreak"`
	TotalXP       int    `json:"totalXp"`
}

// FriendRequest is a pending edge in the friend graph.
type FriendRequest struct {
	ID        string    `json:"id"`
	Sender    Friend    `json:"sender"`
	Receiver  Friend    `json:"receiver"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Friend request statuses reported by the API.
const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestDeclined = "declined"
)

// FriendRequestsResponse mirrors /api/friends/requests/*.
type FriendRequestsResponse struct {
	Requests []FriendRequest `json:"requests"`
}

// FriendsResponse mirrors /api/friends.
type FriendsResponse struct {
	Friends []Friend `json:"friends"`
}

// FriendStreak is a paired accountability streak with one friend.
type FriendStreak struct {
	ID            string `json:"id"`
	Friend        Friend `json:"friend"`
	CurrentStreak int    `json:"currentStreak"`
	LongestStreak int    `json:"longestStreak"`
	UserSolved    bool   `json:"userSolvedToday"`
	FriendSolved  bool   `json:"friendSolvedToday"`
}

// FriendStreaksResponse mirrors /api/friends/streaks.
type FriendStreaksResponse struct {
	Streaks []FriendStreak `json:"streaks"`
}

// UserStats aggregates the profile counters of a user.
type UserStats struct {
	Username string      `json:"username"`
	Stats    StatsDetail `json:"stats"`
}

// StatsDetail holds the scalar profile counters.
type StatsDetail struct {
	TotalSolves    int     `json:"totalSolves"`
	CurrentStreak  int     `json:"currentStreak"`
	LongestStreak  int     `json:"longestStreak"`
	TotalXP        int     `json:"totalXp"`
	Level          int     `json:"level"`
	LevelProgress  float64 `json:"levelProgress"`
	FreezesLeft    int     `json:"streakFreezes"`
	LastSolvedDate string  `json:"lastSolvedDate,omitempty"`
}

// SubmissionStats counts submissions by outcome.
type SubmissionStats struct {
	TotalSubmissions int            `json:"totalSubmissions"`
	Accepted         int            `json:"accepted"`
	AcceptanceRate   float64        `json:"acceptanceRate"`
	ByStatus         map[string]int `json:"byStatus"`
	ByLanguage       map[string]int `json:"byLanguage"`
}

// SolveStats breaks solves down by difficulty and topic.
type SolveStats struct {
	Total        int            `json:"total"`
	ByDifficulty map[string]int `json:"byDifficulty"`
	ByTopic      map[string]int `json:"byTopic"`
	ByPlatform   map[string]int `json:"byPlatform"`
}

// AchievementStats summarizes unlocked achievements.
type AchievementStats struct {
	Unlocked   int            `json:"unlocked"`
	Total      int            `json:"total"`
	ByCategory map[string]int `json:"byCategory"`
	Recent     []Achievement  `json:"recent"`
}

// Achievement is a single unlocked badge.
type Achievement struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	UnlockedAt time.Time `json:"unlockedAt"`
}

// Solve is one accepted problem solve.
type Solve struct {
	ID         string    `json:"id"`
	ProblemID  string    `json:"problemId"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	Difficulty string    `json:"difficulty"`
	Platform   string    `json:"platform"`
	XPAwarded  int       `json:"xpAwarded"`
	SolvedAt   time.Time `json:"solvedAt"`
}

// SolvedOn reports whether the solve happened on the same local calendar day as t.
func (s Solve) SolvedOn(t time.Time) bool {
	if s.SolvedAt.IsZero() {
		return false
	}
	return s.SolvedAt.In(t.Location()).Format(dayLayout) == t.Format(dayLayout)
}

// SolvesResponse mirrors /api/users/{username}/solves.
type SolvesResponse struct {
	Solves []Solve `json:"solves"`
}

// RevisionItem is a problem due for spaced-repetition review.
type RevisionItem struct {
	ID           string    `json:"id"`
	ProblemID    string    `json:"problemId"`
	Title        string    `json:"title"`
	Difficulty   string    `json:"difficulty"`
	RevisionNum  int       `json:"revisionNumber"`
	NextReviewAt time.Time `json:"nextReviewAt"`
}

// RevisionGroup collects revision items due on one date.
type RevisionGroup struct {
	Date  string         `json:"date"`
	Items []RevisionItem `json:"items"`
}

// RevisionsResponse mirrors /api/revisions.
type RevisionsResponse struct {
	Groups []RevisionGroup `json:"groups"`
}

// RevisionStats summarizes the review backlog.
type RevisionStats struct {
	DueToday    int `json:"dueToday"`
	Overdue     int `json:"overdue"`
	Upcoming    int `json:"upcoming"`
	Completed   int `json:"completed"`
	TotalActive int `json:"totalActive"`
}

// RevisionAttempt is the raw outcome of reviewing a problem. Scheduling is
// computed by the server.
type RevisionAttempt struct {
	RevisionID  string `json:"revisionId"`
	Outcome     string `json:"outcome"`
	TimeSpentMS int64  `json:"timeSpentMs"`
	Confidence  int    `json:"confidence,omitempty"`
}

// Revision attempt outcomes accepted by the API.
const (
	OutcomeSolved      = "solved"
	OutcomeSolvedHints = "solved_with_hints"
	OutcomeFailed      = "failed"
	OutcomeSkipped     = "skipped"
)

// ValidOutcome reports whether outcome is one the API accepts.
func ValidOutcome(outcome string) bool {
	switch outcome {
	case OutcomeSolved, OutcomeSolvedHints, OutcomeFailed, OutcomeSkipped:
		return true
	default:
		return false
	}
}
