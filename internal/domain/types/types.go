// Package types contains common types used across the application
package types

// Standing is one element of the GET /api/scores response.
type Standing struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Area     string `json:"area"`
	District int64  `json:"district"`
	Score    int64  `json:"score"`
}

// ClientConfig is the GET /api/config response. LiffID is nil when unset so
// the key is always present and renders as null.
type ClientConfig struct {
	LiffID *string `json:"liffId"`
}
