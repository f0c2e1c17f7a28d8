package dto

import (
	"encoding/json"
	"time"

	"github.com/spec-kit/bug-tracker/internal/domain"
)

// CreateBugRequest payload.
type CreateBugRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Priority    *domain.BugPriority `json:"priority"`
	Severity    *domain.BugSeverity `json:"severity"`
}

// UpdateBugRequest is a sparse patch; absent fields are left untouched.
// AssignedTo distinguishes "not sent" from an explicit null, which clears
// the assignee.
type UpdateBugRequest struct {
	Title       *string             `json:"title"`
	Description *string             `json:"description"`
	Priority    *domain.BugPriority `json:"priority"`
	Severity    *domain.BugSeverity `json:"severity"`
	Status      *domain.BugStatus   `json:"status"`
	AssignedTo  OptionalString      `json:"assigned_to"`
}

// OptionalString is a JSON field that records whether it was present at
// all, so explicit null and absent are distinguishable.
type OptionalString struct {
	Present bool
	Value   *string
}

// UnmarshalJSON is only invoked for present fields, including nulls.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Present = true
	return json.Unmarshal(data, &o.Value)
}

// MarshalJSON emits the inner value.
func (o OptionalString) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Value)
}

// AddCommentRequest payload.
type AddCommentRequest struct {
	Comment string `json:"comment"`
}

// BugSummary response.
type BugSummary struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	Priority     domain.BugPriority `json:"priority"`
	Severity     domain.BugSeverity `json:"severity"`
	Status       domain.BugStatus   `json:"status"`
	ReporterID   string             `json:"reporter_id"`
	ReporterName string             `json:"reporter_name,omitempty"`
	AssignedTo   *string            `json:"assigned_to"`
	AssigneeName *string            `json:"assigned_to_name,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
	ResolvedAt   *time.Time         `json:"resolved_at"`
}

// BugDetailResponse provides full bug info with comments.
type BugDetailResponse struct {
	BugSummary
	Description string            `json:"description"`
	Comments    []CommentResponse `json:"comments"`
}

// CommentResponse represents a thread comment.
type CommentResponse struct {
	ID        string    `json:"id"`
	BugID     string    `json:"bug_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryEntryResponse represents one audit record.
type HistoryEntryResponse struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	FieldChanged string    `json:"field_changed"`
	OldValue     string    `json:"old_value"`
	NewValue     string    `json:"new_value"`
	CreatedAt    time.Time `json:"created_at"`
}

// Pagination describes the page window of a listing.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// BugListResponse wraps a filtered page of bugs.
type BugListResponse struct {
	Bugs       []BugSummary `json:"bugs"`
	Pagination Pagination   `json:"pagination"`
}
