package domain

import "time"

// History field names as they appear in the audit trail.
const (
	HistoryFieldTitle       = "title"
	HistoryFieldDescription = "description"
	HistoryFieldPriority    = "priority"
	HistoryFieldSeverity    = "severity"
	HistoryFieldStatus      = "status"
	HistoryFieldAssignee    = "assigned_to"
)

// HistoryEntry is an immutable audit record for a single field change.
// Entries are only ever inserted; they are removed solely through the
// owning bug's cascade delete.
type HistoryEntry struct {
	ID        string
	BugID     string
	UserID    string
	Field     string
	OldValue  string
	NewValue  string
	CreatedAt time.Time
}
