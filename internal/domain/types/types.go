// Package types contains common types used across the application
package types

// Session is the signed-in user as reported by the remote service.
type Session struct {
	UserID string `json:"user_id"`
	// DisplayName is the profile's full name; empty when the profile has none.
	DisplayName string `json:"display_name"`
}

// Submission is one checkbox choice sent to the remote service.
type Submission struct {
	Name         string `json:"name"`
	RedSelected  bool   `json:"red_checked"`
	BlueSelected bool   `json:"blue_checked"`
}

// LeaderboardEntry represents a leaderboard row.
type LeaderboardEntry struct {
	Name            string `json:"name"`
	SubmissionCount int    `json:"submission_count"`
}
