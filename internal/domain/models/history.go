package models

import "time"

// HistoryEntry records one committed stock adjustment.
type HistoryEntry struct {
	ID           string        `json:"id"`
	Item         ItemReference `json:"item"`
	AppliedDelta int           `json:"applied_delta"`
	Direction    Direction     `json:"direction"`
	Timestamp    time.Time     `json:"timestamp"`
}
