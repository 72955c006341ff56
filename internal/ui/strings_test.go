package ui

import (
	"reflect"
	"testing"
	"time"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"Two Sum", 20, "Two Sum"},
		{"Longest Substring Without Repeating", 12, "Longest S..."},
		{"abcdef", 3, "abc"},
		{"  padded  ", 0, "padded"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.limit); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}

func TestTitleCase(t *testing.T) {
	if got := titleCase("solved_with_hints"); got != "Solved With Hints" {
		t.Fatalf("titleCase = %q", got)
	}
	if got := titleCase(" "); got != "" {
		t.Fatalf("titleCase(blank) = %q", got)
	}
}

func TestFormatAgo(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		at   time.Time
		want string
	}{
		{time.Time{}, "never"},
		{now.Add(-30 * time.Second), "just now"},
		{now.Add(-12 * time.Minute), "12m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{now.Add(-50 * time.Hour), "2d ago"},
	}
	for _, tt := range tests {
		if got := formatAgo(tt.at, now); got != tt.want {
			t.Errorf("formatAgo(%v) = %q, want %q", tt.at, got, tt.want)
		}
	}
}

func TestOrderings(t *testing.T) {
	counts := map[string]int{"go": 3, "python": 7, "rust": 3}
	if got, want := countsByValue(counts), []string{"python", "go", "rust"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("countsByValue = %v, want %v", got, want)
	}

	diff := map[string]int{"hard": 1, "easy": 6, "expert": 1, "medium": 4}
	if got, want := difficultyOrder(diff), []string{"easy", "medium", "hard", "expert"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("difficultyOrder = %v, want %v", got, want)
	}
}
