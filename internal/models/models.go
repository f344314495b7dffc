package models

import (
	"database/sql"
	"time"
)

// PongSession is the persisted record of a Pong session. Scores are not
// stored.
type PongSession struct {
	ID          string       `db:"id" json:"id"`
	Token       string       `db:"token" json:"token"`
	Status      string       `db:"status" json:"status"`
	CourtWidth  float64      `db:"court_width" json:"court_width"`
	CourtHeight float64      `db:"court_height" json:"court_height"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	StartedAt   sql.NullTime `db:"started_at" json:"started_at,omitempty"`
	CompletedAt sql.NullTime `db:"completed_at" json:"completed_at,omitempty"`
}
