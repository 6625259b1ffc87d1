package models

import "time"

// SyncReport summarises one read-normalize-dedup-append pass.
//
// RowsRead counts normalized rows only; rows dropped by the normalizer are in Skipped.
// RowsRead always equals AlreadyPresent + DuplicatesInBatch + Inserted.
type SyncReport struct {
	Source            string        `json:"source"`
	RowsRead          int           `json:"rows_read"`
	AlreadyPresent    int           `json:"rows_already_present"`
	DuplicatesInBatch int           `json:"duplicates_in_batch"`
	Inserted          int           `json:"rows_newly_inserted"`
	Skipped           int           `json:"rows_skipped"`
	StartedAt         time.Time     `json:"started_at"`
	Duration          time.Duration `json:"duration_ns"`
}
