package models

import "time"

// Report summarizes a completed run of the deletion loop.
type Report struct {
	RunID       string    `json:"runId"`
	Deleted     int       `json:"deleted"`
	Skipped     int       `json:"skipped"`
	AlreadyDone int       `json:"alreadyDone"`
	Attempts    int       `json:"attempts"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt"`
}

// Progress is a point-in-time snapshot of a run, safe to read while the loop
// is still going.
type Progress struct {
	Deleted  int `json:"deleted"`
	Skipped  int `json:"skipped"`
	Attempts int `json:"attempts"`
	Pending  int `json:"pending"`
}
