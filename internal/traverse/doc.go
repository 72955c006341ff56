// Package traverse provides an HTTP client for the Traverse API.
//
// # Overview
//
// This package defines the API client the local cache uses to fetch the
// signed-in user's friends, friend requests, friend streaks, aggregate stats,
// recent solves, and spaced-repetition revisions. It handles HTTP
// communication, JSON serialization, and type-safe representation of the API
// documents.
//
// # Architecture
//
//   - client.go: HTTP client implementation and request/response handling
//   - types.go: Data structures mirroring the Traverse API schema
//
// # Client Usage
//
//	client, err := traverse.NewClient("https://api.traverse.dev", traverse.WithToken(token))
//	if err != nil {
//		return err
//	}
//
//	friends, err := client.GetFriends(ctx)
//	stats, err := client.GetUserStats(ctx, "grace")
//
// # API Endpoints
//
//   - GET /api/friends
//   - GET /api/friends/requests/received, /api/friends/requests/sent
//   - GET /api/friends/streaks
//   - GET /api/users/{username}/stats, submissions/stats, solves/stats, achievements/stats
//   - GET /api/users/{username}/solves?limit=N
//   - GET /api/revisions, /api/revisions/stats
//   - POST /api/revisions/{id}/attempts
//
// # Nullable Documents
//
// Stats endpoints describe documents that may not exist yet for a new user.
// For those, 204 No Content, 404 Not Found, and an empty body all decode to a
// nil pointer with a nil error. List endpoints treat every status >= 400 as an
// *APIError.
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation and timeout control
//   - Set Accept: application/json and User-Agent: traverse/0.1
//   - Send Authorization: Bearer <token> when a token is configured
//   - Send X-Request-ID when the context carries one (see WithRequestID)
//   - Have a 10-second timeout via http.Client
//
// Spaced-repetition scheduling is computed server-side. The client only
// posts raw attempt outcomes and reads the resulting due lists.
package traverse
