package models

import "time"

// RunRecord is the persisted summary of one completed capture run.
type RunRecord struct {
	ID        string `badgerhold:"key"`
	StartedAt time.Time
	Duration  time.Duration
	Folder    string
	Total     int
	Succeeded int
	Failed    int
	Outcomes  []CaptureOutcome
}
