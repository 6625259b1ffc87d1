package models

import "time"

// Location flags as they appear in the source file.
const (
	LocationIn  = "In"
	LocationOut = "Out"
)

// Reading is one temperature sample, keyed by RecordID.
type Reading struct {
	RecordID     string    `db:"record_id" json:"record_id"`
	DeviceID     string    `db:"device_id" json:"device_id"`
	ObservedAt   time.Time `db:"observed_at" json:"observed_at"`
	Temperature  int       `db:"temperature" json:"temperature"`
	LocationFlag string    `db:"location_flag" json:"location_flag"`
}
