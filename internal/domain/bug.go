package domain

import "time"

// BugStatus enumerates lifecycle states for bugs.
type BugStatus string

const (
	BugStatusOpen       BugStatus = "open"
	BugStatusInProgress BugStatus = "in_progress"
	BugStatusResolved   BugStatus = "resolved"
	BugStatusClosed     BugStatus = "closed"
	BugStatusReopened   BugStatus = "reopened"
)

// BugPriority enumerates triage urgency.
type BugPriority string

const (
	BugPriorityLow      BugPriority = "low"
	BugPriorityMedium   BugPriority = "medium"
	BugPriorityHigh     BugPriority = "high"
	BugPriorityCritical BugPriority = "critical"
)

// BugSeverity enumerates technical impact.
type BugSeverity string

const (
	BugSeverityMinor    BugSeverity = "minor"
	BugSeverityMajor    BugSeverity = "major"
	BugSeverityCritical BugSeverity = "critical"
)

// Bug is the aggregate for tracked defects.
type Bug struct {
	ID          string
	Title       string
	Description string
	Priority    BugPriority
	Severity    BugSeverity
	Status      BugStatus
	ReporterID  string
	AssigneeID  *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ResolvedAt  *time.Time
}

// BugWithNames carries a bug joined with the display names of the
// reporter and the current assignee.
type BugWithNames struct {
	Bug
	ReporterName string
	AssigneeName *string
}

// ValidBugStatus reports whether the value is a defined status.
func ValidBugStatus(s BugStatus) bool {
	switch s {
	case BugStatusOpen, BugStatusInProgress, BugStatusResolved, BugStatusClosed, BugStatusReopened:
		return true
	}
	return false
}

// ValidBugPriority reports whether the value is a defined priority.
func ValidBugPriority(p BugPriority) bool {
	switch p {
	case BugPriorityLow, BugPriorityMedium, BugPriorityHigh, BugPriorityCritical:
		return true
	}
	return false
}

// ValidBugSeverity reports whether the value is a defined severity.
func ValidBugSeverity(s BugSeverity) bool {
	switch s {
	case BugSeverityMinor, BugSeverityMajor, BugSeverityCritical:
		return true
	}
	return false
}
