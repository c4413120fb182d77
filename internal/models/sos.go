package models

import "time"

// SOSEvent records an emergency alert with the best location fix the
// client could capture. Coordinates are nullable: an alert without a fix
// is still an alert.
type SOSEvent struct {
	ID        int       `db:"id" json:"id"`
	UserID    *int      `db:"user_id" json:"user_id"`
	Lat       *float64  `db:"lat" json:"lat"`
	Lng       *float64  `db:"lng" json:"lng"`
	AccuracyM *float64  `db:"accuracy_m" json:"accuracy_m"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
