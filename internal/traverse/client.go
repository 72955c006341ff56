package traverse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Fetcher defines the reads the local cache performs against the Traverse API.
// This interface is implemented by *Client and can be used for testing.
type Fetcher interface {
	GetFriends(ctx context.Context) ([]Friend, error)
	GetReceivedFriendRequests(ctx context.Context) ([]FriendRequest, error)
	GetSentFriendRequests(ctx context.Context) ([]FriendRequest, error)
	GetFriendStreaks(ctx context.Context) ([]FriendStreak, error)
	GetUserStats(ctx context.Context, username string) (*UserStats, error)
	GetSubmissionStats(ctx context.Context, username string) (*SubmissionStats, error)
	GetSolveStats(ctx context.Context, username string) (*SolveStats, error)
	GetAchievementStats(ctx context.Context, username string) (*AchievementStats, error)
	GetRecentSolves(ctx context.Context, username string, limit int) ([]Solve, error)
	GetRevisions(ctx context.Context) ([]RevisionGroup, error)
	GetRevisionStats(ctx context.Context) (*RevisionStats, error)
	SubmitRevisionAttempt(ctx context.Context, attempt RevisionAttempt) error
}

// Ensure Client implements Fetcher at compile time.
var _ Fetcher = (*Client)(nil)

// APIError reports a non-success HTTP status from the API.
type APIError struct {
	Method string
	Path   string
	Status int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.Status)
}

// Client talks to the Traverse HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	token     string
}

const (
	defaultBaseURL   = "https://api.traverse.dev"
	defaultUserAgent = "traverse/0.1"
	requestTimeout   = 10 * time.Second

	// DefaultRecentSolves bounds the recent solves list.
	DefaultRecentSolves = 20
)

// Option customizes a Client.
type Option func(*Client)

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient builds a Client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type requestIDKey struct{}

// WithRequestID attaches an ID that is sent as X-Request-ID on requests made with ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the ID attached by WithRequestID, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// GetFriends lists the current user's accepted friends.
func (c *Client) GetFriends(ctx context.Context) ([]Friend, error) {
	var payload FriendsResponse
	if _, err := c.get(ctx, &url.URL{Path: "/api/friends"}, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Friends, nil
}

// GetReceivedFriendRequests lists pending requests sent to the current user.
func (c *Client) GetReceivedFriendRequests(ctx context.Context) ([]FriendRequest, error) {
	var payload FriendRequestsResponse
	if _, err := c.get(ctx, &url.URL{Path: "/api/friends/requests/received"}, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Requests, nil
}

// GetSentFriendRequests lists pending requests the current user sent.
func (c *Client) GetSentFriendRequests(ctx context.Context) ([]FriendRequest, error) {
	var payload FriendRequestsResponse
	if _, err := c.get(ctx, &url.URL{Path: "/api/friends/requests/sent"}, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Requests, nil
}

// GetFriendStreaks lists active paired streaks.
func (c *Client) GetFriendStreaks(ctx context.Context) ([]FriendStreak, error) {
	var payload FriendStreaksResponse
	if _, err := c.get(ctx, &url.URL{Path: "/api/friends/streaks"}, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Streaks, nil
}

// GetUserStats returns profile counters, or nil when the user has none yet.
func (c *Client) GetUserStats(ctx context.Context, username string) (*UserStats, error) {
	var payload UserStats
	rel, err := userPath(username, "stats")
	if err != nil {
		return nil, err
	}
	found, err := c.getOptional(ctx, rel, &payload)
	if err != nil || !found {
		return nil, err
	}
	return &payload, nil
}

// GetSubmissionStats returns submission counters, or nil when absent.
func (c *Client) GetSubmissionStats(ctx context.Context, username string) (*SubmissionStats, error) {
	var payload SubmissionStats
	rel, err := userPath(username, "submissions/stats")
	if err != nil {
		return nil, err
	}
	found, err := c.getOptional(ctx, rel, &payload)
	if err != nil || !found {
		return nil, err
	}
	return &payload, nil
}

// GetSolveStats returns solve breakdowns, or nil when absent.
func (c *Client) GetSolveStats(ctx context.Context, username string) (*SolveStats, error) {
	var payload SolveStats
	rel, err := userPath(username, "solves/stats")
	if err != nil {
		return nil, err
	}
	found, err := c.getOptional(ctx, rel, &payload)
	if err != nil || !found {
		return nil, err
	}
	return &payload, nil
}

// GetAchievementStats returns achievement counters, or nil when absent.
func (c *Client) GetAchievementStats(ctx context.Context, username string) (*AchievementStats, error) {
	var payload AchievementStats
	rel, err := userPath(username, "achievements/stats")
	if err != nil {
		return nil, err
	}
	found, err := c.getOptional(ctx, rel, &payload)
	if err != nil || !found {
		return nil, err
	}
	return &payload, nil
}

// GetRecentSolves returns at most limit solves, newest first.
func (c *Client) GetRecentSolves(ctx context.Context, username string, limit int) ([]Solve, error) {
	values := url.Values{}
	if limit <= 0 {
		limit = DefaultRecentSolves
	}
	values.Set("limit", strconv.Itoa(limit))
	rel, err := userPath(username, "solves")
	if err != nil {
		return nil, err
	}
	var payload SolvesResponse
	if _, err := c.get(ctx, rel, values, &payload); err != nil {
		return nil, err
	}
	return payload.Solves, nil
}

// GetRevisions returns due revision items grouped by date.
func (c *Client) GetRevisions(ctx context.Context) ([]RevisionGroup, error) {
	var payload RevisionsResponse
	if _, err := c.get(ctx, &url.URL{Path: "/api/revisions"}, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Groups, nil
}

// GetRevisionStats returns the revision summary, or nil when absent.
func (c *Client) GetRevisionStats(ctx context.Context) (*RevisionStats, error) {
	var payload RevisionStats
	found, err := c.getOptional(ctx, &url.URL{Path: "/api/revisions/stats"}, &payload)
	if err != nil || !found {
		return nil, err
	}
	return &payload, nil
}

// SubmitRevisionAttempt posts a raw attempt outcome.
func (c *Client) SubmitRevisionAttempt(ctx context.Context, attempt RevisionAttempt) error {
	if id := strings.TrimSpace(attempt.RevisionID); id == "" || strings.Contains(id, "/") {
		return fmt.Errorf("invalid revision id %q", attempt.RevisionID)
	}
	if !ValidOutcome(attempt.Outcome) {
		return fmt.Errorf("invalid outcome %q", attempt.Outcome)
	}
	body, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("encode attempt: %w", err)
	}
	rel := &url.URL{Path: "/api/revisions/" + strings.TrimSpace(attempt.RevisionID) + "/attempts"}
	_, err = c.doURL(ctx, http.MethodPost, rel, bytes.NewReader(body), nil, false)
	return err
}

// userPath builds /api/users/<username>/<suffix> with the username as a
// single escaped segment.
func userPath(username, suffix string) (*url.URL, error) {
	name := strings.TrimSpace(username)
	if name == "" || name == "." || name == ".." {
		return nil, fmt.Errorf("invalid username %q", username)
	}
	return &url.URL{
		Path:    "/api/users/" + name + "/" + suffix,
		RawPath: "/api/users/" + url.PathEscape(name) + "/" + suffix,
	}, nil
}

func (c *Client) get(ctx context.Context, rel *url.URL, query url.Values, dest any) (bool, error) {
	if len(query) > 0 {
		rel.RawQuery = query.Encode()
	}
	return c.doURL(ctx, http.MethodGet, rel, nil, dest, false)
}

// getOptional is get for nullable documents: 204, 404 and an empty body report found=false.
func (c *Client) getOptional(ctx context.Context, rel *url.URL, dest any) (bool, error) {
	return c.doURL(ctx, http.MethodGet, rel, nil, dest, true)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body io.Reader, dest any, optional bool) (bool, error) {
	if c == nil {
		return false, fmt.Errorf("client is nil")
	}
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if id := RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case optional && (resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusNotFound):
		return false, nil
	case resp.StatusCode >= 400:
		return false, &APIError{Method: method, Path: rel.Path, Status: resp.StatusCode}
	}
	if dest == nil {
		return true, nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, fmt.Errorf("decode response: %w", err)
	}
	return true, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", raw, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
