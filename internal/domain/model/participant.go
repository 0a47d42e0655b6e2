// Package model contains domain models passed between layers.
package model

// Participant is a row of the participants table. The table is owned by
// another system; this service only reads it.
type Participant struct {
	ID          int64  // primary key
	Name        string // display name
	Party       string // group label, published as "area"
	DistrictNum int64  // district indicator, published as "district"
}

// ScoreTotal is the summed score of every hourly_scores row of one participant.
type ScoreTotal struct {
	ParticipantID int64
	Total         int64
}
