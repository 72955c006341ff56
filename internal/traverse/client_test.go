package traverse

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "https" || u.Host != "api.traverse.dev" {
		t.Fatalf("default url = %q, want https://api.traverse.dev", u.String())
	}

	u, err = parseBaseURL("localhost:8080")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "https" || u.Host != "localhost:8080" {
		t.Fatalf("url = %q, want https://localhost:8080", u.String())
	}

	u, err = parseBaseURL("http://example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

func TestClient_FetchesEndpoints(t *testing.T) {
	t.Parallel()

	var gotAuth, gotUserAgent, gotRequestID, gotLimit string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotUserAgent = r.Header.Get("User-Agent")
		if id := r.Header.Get("X-Request-ID"); id != "" {
			gotRequestID = id
		}
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/api/friends":
			_ = json.NewEncoder(w).Encode(FriendsResponse{Friends: []Friend{{ID: "f1", Username: "ada"}}})
		case "/api/friends/requests/received":
			_ = json.NewEncoder(w).Encode(FriendRequestsResponse{Requests: []FriendRequest{{ID: "r1", Status: RequestPending}}})
		case "/api/friends/requests/sent":
			_ = json.NewEncoder(w).Encode(FriendRequestsResponse{})
		case "/api/friends/streaks":
			_ = json.NewEncoder(w).Encode(FriendStreaksResponse{Streaks: []FriendStreak{{ID: "s1", CurrentStreak: 4}}})
		case "/api/users/grace/stats":
			_ = json.NewEncoder(w).Encode(UserStats{Username: "grace", Stats: StatsDetail{TotalSolves: 10}})
		case "/api/users/grace/solves":
			gotLimit = r.URL.Query().Get("limit")
			_ = json.NewEncoder(w).Encode(SolvesResponse{Solves: []Solve{{ID: "x", Title: "Two Sum"}}})
		case "/api/revisions":
			_ = json.NewEncoder(w).Encode(RevisionsResponse{Groups: []RevisionGroup{{Date: "2026-10-19"}}})
		case "/api/revisions/stats":
			_ = json.NewEncoder(w).Encode(RevisionStats{DueToday: 3})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, WithToken(" secret "))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	ctx = WithRequestID(ctx, "batch-1")

	friends, err := c.GetFriends(ctx)
	if err != nil || len(friends) != 1 || friends[0].Username != "ada" {
		t.Fatalf("GetFriends = %#v, %v; want ada", friends, err)
	}
	received, err := c.GetReceivedFriendRequests(ctx)
	if err != nil || len(received) != 1 || received[0].Status != RequestPending {
		t.Fatalf("GetReceivedFriendRequests = %#v, %v", received, err)
	}
	sent, err := c.GetSentFriendRequests(ctx)
	if err != nil || len(sent) != 0 {
		t.Fatalf("GetSentFriendRequests = %#v, %v; want empty", sent, err)
	}
	streaks, err := c.GetFriendStreaks(ctx)
	if err != nil || len(streaks) != 1 || streaks[0].CurrentStreak != 4 {
		t.Fatalf("GetFriendStreaks = %#v, %v", streaks, err)
	}
	stats, err := c.GetUserStats(ctx, "grace")
	if err != nil || stats == nil || stats.Stats.TotalSolves != 10 {
		t.Fatalf("GetUserStats = %#v, %v; want totalSolves=10", stats, err)
	}
	solves, err := c.GetRecentSolves(ctx, "grace", 0)
	if err != nil || len(solves) != 1 {
		t.Fatalf("GetRecentSolves = %#v, %v", solves, err)
	}
	if gotLimit != "20" {
		t.Fatalf("limit = %q, want default 20", gotLimit)
	}
	groups, err := c.GetRevisions(ctx)
	if err != nil || len(groups) != 1 {
		t.Fatalf("GetRevisions = %#v, %v", groups, err)
	}
	rstats, err := c.GetRevisionStats(ctx)
	if err != nil || rstats == nil || rstats.DueToday != 3 {
		t.Fatalf("GetRevisionStats = %#v, %v", rstats, err)
	}

	if gotAuth != "Bearer secret" {
		t.Fatalf("Authorization = %q, want Bearer secret", gotAuth)
	}
	if !strings.HasPrefix(gotUserAgent, "traverse/") {
		t.Fatalf("User-Agent = %q, want traverse/*", gotUserAgent)
	}
	if gotRequestID != "batch-1" {
		t.Fatalf("X-Request-ID = %q, want batch-1", gotRequestID)
	}
}

func TestClient_OptionalStatsMissing(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/users/grace/submissions/stats":
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	sub, err := c.GetSubmissionStats(context.Background(), "grace")
	if err != nil || sub != nil {
		t.Fatalf("GetSubmissionStats = %#v, %v; want nil, nil on 204", sub, err)
	}
	solve, err := c.GetSolveStats(context.Background(), "grace")
	if err != nil || solve != nil {
		t.Fatalf("GetSolveStats = %#v, %v; want nil, nil on 404", solve, err)
	}

	// List endpoints do not treat 404 as empty.
	_, err = c.GetFriends(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Fatalf("GetFriends error = %v, want APIError 404", err)
	}
}

func TestClient_EscapesUsernameSegment(t *testing.T) {
	t.Parallel()

	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.EscapedPath())
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	for _, name := range []string{"ada lovelace", "50%", "a/b"} {
		if _, err := c.GetUserStats(context.Background(), name); err != nil {
			t.Fatalf("GetUserStats(%q) error = %v", name, err)
		}
	}
	want := []string{
		"/api/users/ada%20lovelace/stats",
		"/api/users/50%25/stats",
		"/api/users/a%2Fb/stats",
	}
	if strings.Join(paths, " ") != strings.Join(want, " ") {
		t.Fatalf("request paths = %v, want %v", paths, want)
	}

	for _, name := range []string{".", "..", " "} {
		if _, err := c.GetUserStats(context.Background(), name); err == nil || !strings.Contains(err.Error(), "invalid username") {
			t.Fatalf("GetUserStats(%q) error = %v, want invalid username", name, err)
		}
		if _, err := c.GetRecentSolves(context.Background(), name, 5); err == nil {
			t.Fatalf("GetRecentSolves(%q) succeeded, want invalid username", name)
		}
	}
	if len(paths) != len(want) {
		t.Fatalf("dot usernames reached the server: %v", paths)
	}
}

func TestClient_HTTPErrorAndDecodeError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/friends":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{not-json"))
		case "/api/revisions":
			http.Error(w, "nope", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	_, err = c.GetFriends(context.Background())
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("GetFriends error = %v, want decode response error", err)
	}

	_, err = c.GetRevisions(context.Background())
	if err == nil || !strings.Contains(err.Error(), "returned status 500") {
		t.Fatalf("GetRevisions error = %v, want status 500 error", err)
	}
}

func TestClient_SubmitRevisionAttempt(t *testing.T) {
	t.Parallel()

	var got RevisionAttempt
	var gotMethod, gotPath, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	attempt := RevisionAttempt{RevisionID: "rev-7", Outcome: OutcomeSolvedHints, TimeSpentMS: 90000}
	if err := c.SubmitRevisionAttempt(context.Background(), attempt); err != nil {
		t.Fatalf("SubmitRevisionAttempt returned error: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/api/revisions/rev-7/attempts" {
		t.Fatalf("request = %s %s, want POST /api/revisions/rev-7/attempts", gotMethod, gotPath)
	}
	if gotContentType != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", gotContentType)
	}
	if got != attempt {
		t.Fatalf("body = %#v, want %#v", got, attempt)
	}
}

func TestClient_SubmitRevisionAttemptValidates(t *testing.T) {
	c, err := NewClient("127.0.0.1:1")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if err := c.SubmitRevisionAttempt(context.Background(), RevisionAttempt{Outcome: OutcomeSolved}); err == nil {
		t.Fatalf("SubmitRevisionAttempt without id returned nil error")
	}
	if err := c.SubmitRevisionAttempt(context.Background(), RevisionAttempt{RevisionID: "a/b", Outcome: OutcomeSolved}); err == nil {
		t.Fatalf("SubmitRevisionAttempt with slash id returned nil error")
	}
	if err := c.SubmitRevisionAttempt(context.Background(), RevisionAttempt{RevisionID: "r", Outcome: "maybe"}); err == nil {
		t.Fatalf("SubmitRevisionAttempt with bad outcome returned nil error")
	}
}
