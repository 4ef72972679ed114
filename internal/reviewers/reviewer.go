// Package reviewers tracks per-reviewer statistics: lifetime approval
// counts, last activity, and windowed leaderboards.
package reviewers

import "time"

// Reviewer is the persistent stats row for one reviewer identity.
type Reviewer struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Approvals  int64      `json:"approvals"`
	LastSeenAt *time.Time `json:"last_seen_at"`
}

// Standing is one leaderboard row: approvals granted within the window.
type Standing struct {
	ReviewerID   string `json:"reviewer_id"`
	ReviewerName string `json:"reviewer_name"`
	Approvals    int64  `json:"approvals"`
}
