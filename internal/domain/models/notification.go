package models

import "time"

// NotificationKind enumerates the user-facing events emitted by the scanning workflow.
type NotificationKind string

const (
	NotifyScanAcknowledged NotificationKind = "scan_acknowledged"
	NotifyStockAdded       NotificationKind = "stock_added"
	NotifyStockRemoved     NotificationKind = "stock_removed"
	NotifySessionCancelled NotificationKind = "session_cancelled"
	NotifySessionExpired   NotificationKind = "session_expired"
	NotifyInvalidInput     NotificationKind = "invalid_input"
)

// Notification is a fire-and-forget toast for operators.
type Notification struct {
	Kind      NotificationKind `json:"kind"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
}

// Destructive marks notifications that should be rendered as warnings.
func (n Notification) Destructive() bool {
	return n.Kind == NotifyStockRemoved || n.Kind == NotifyInvalidInput
}
