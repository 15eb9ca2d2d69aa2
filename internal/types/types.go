// Package types defines shared types used across the application.
package types

import "time"

// Outcome is the result class of a single attempt.
type Outcome string

const (
	OutcomeMatched Outcome = "matched"
	OutcomeNoMatch Outcome = "no match"
	OutcomeFailed  Outcome = "error"
)

// AttemptStatus represents the status of a single probe attempt.
type AttemptStatus struct {
	Number  int       `json:"number"`
	Outcome Outcome   `json:"outcome"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Error   string    `json:"error,omitempty"`
}

// Duration returns how long the attempt took.
func (a AttemptStatus) Duration() time.Duration {
	return a.End.Sub(a.Start)
}

// MatchReport is what gets written once a matching response was found.
type MatchReport struct {
	Pattern    string    `json:"pattern"`
	TargetURL  string    `json:"targetUrl"`
	Attempts   int       `json:"attempts"`
	BlockIndex int       `json:"blockIndex"`
	Preview    string    `json:"preview"`
	Response   string    `json:"response"`
	FoundAt    time.Time `json:"foundAt"`
}
