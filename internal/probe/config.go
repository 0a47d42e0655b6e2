// Package probe exercises a running scoreboard over HTTP and checks the
// listing invariants from the outside.
package probe

import "time"

// Config holds configuration for a probe run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Requests   int           // Number of GET /api/scores requests
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Optional file for the first listing
	Verbose    bool          // Log every request
}

// Standing mirrors one element of GET /api/scores.
type Standing struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Area     string `json:"area"`
	District int64  `json:"district"`
	Score    int64  `json:"score"`
}

// Stats holds probe statistics.
type Stats struct {
	RunID          string
	Requests       int
	Successful     int
	Failed         int
	Mismatched     int
	Participants   int
	TotalScore     int64
	LiffConfigured bool
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
}
