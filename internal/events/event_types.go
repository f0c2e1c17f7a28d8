package events

import (
	"time"

	"github.com/spec-kit/bug-tracker/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventBugCreated       EventType = "bug_created"
	EventBugUpdated       EventType = "bug_updated"
	EventBugAssigned      EventType = "bug_assigned"
	EventBugStatusChanged EventType = "bug_status_changed"
	EventBugCommented     EventType = "bug_commented"
	EventBugDeleted       EventType = "bug_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	BugID     string      `json:"bug_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// BugCreatedPayload payload.
type BugCreatedPayload struct {
	Title    string             `json:"title"`
	Priority domain.BugPriority `json:"priority"`
	Severity domain.BugSeverity `json:"severity"`
}

// BugAssignedPayload carries everything the assignment notification needs.
type BugAssignedPayload struct {
	BugID       string             `json:"bug_id"`
	Title       string             `json:"title"`
	Priority    domain.BugPriority `json:"priority"`
	Severity    domain.BugSeverity `json:"severity"`
	Description string             `json:"description"`
	Assignee    domain.User        `json:"assignee"`
}

// BugStatusChangedPayload carries everything the status notification needs.
// Reporter is the bug's original reporter, captured before the update.
type BugStatusChangedPayload struct {
	BugID     string           `json:"bug_id"`
	Title     string           `json:"title"`
	OldStatus domain.BugStatus `json:"old_status"`
	NewStatus domain.BugStatus `json:"new_status"`
	Reporter  domain.User      `json:"reporter"`
}

// BugCommentedPayload payload.
type BugCommentedPayload struct {
	CommentID   string `json:"comment_id"`
	BodyPreview string `json:"body_preview"`
}
