package models

import (
	"fmt"
	"strings"
	"time"
)

// SessionStatus enumerates the scan session lifecycle states.
type SessionStatus string

const (
	SessionIdle       SessionStatus = "idle"
	SessionPending    SessionStatus = "pending"
	SessionCommitting SessionStatus = "committing"
)

// Direction tells whether a committed delta adds or removes stock.
type Direction string

const (
	DirectionAdd    Direction = "add"
	DirectionRemove Direction = "remove"
)

// ParseDirection normalizes user supplied direction names.
func ParseDirection(value string) (Direction, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "add", "in", "+":
		return DirectionAdd, nil
	case "remove", "out", "-":
		return DirectionRemove, nil
	default:
		return "", fmt.Errorf("unknown direction %q", value)
	}
}

// Sign returns +1 for additions and -1 for removals.
func (d Direction) Sign() int {
	if d == DirectionRemove {
		return -1
	}
	return 1
}

// ScanSession is a read-only view of the controller's current session.
type ScanSession struct {
	Status       SessionStatus  `json:"status"`
	Item         *ItemReference `json:"item,omitempty"`
	PendingDelta int            `json:"pending_delta,omitempty"`
	OpenedAt     time.Time      `json:"opened_at,omitempty"`
	ExpiresAt    time.Time      `json:"expires_at,omitempty"`
}

// Active reports whether a session is open.
func (s ScanSession) Active() bool {
	return s.Status != SessionIdle && s.Item != nil
}
