package service

import (
	"context"
	"sort"
	"time"

	"github.com/spec-kit/bug-tracker/internal/domain"
	"github.com/spec-kit/bug-tracker/internal/repository"
	apperrors "github.com/spec-kit/bug-tracker/pkg/util"
)

// SLA thresholds: open or in-progress bugs older than these are violations.
const (
	slaCriticalHours = 24
	slaHighHours     = 48
)

// DefaultReportWindowDays is the trailing window for the per-day report.
const DefaultReportWindowDays = 30

// ReportService derives aggregate summaries from current bug and user
// state. Every call recomputes from the store, so results always reflect
// the latest committed mutation.
type ReportService struct {
	bugs  repository.BugRepository
	users repository.UserRepository
	now   func() time.Time
}

// NewReportService constructs the service.
func NewReportService(bugs repository.BugRepository, users repository.UserRepository) *ReportService {
	return &ReportService{bugs: bugs, users: users, now: time.Now}
}

// PriorityReportRow summarizes one priority bucket.
type PriorityReportRow struct {
	Priority        domain.BugPriority `json:"priority"`
	Count           int                `json:"count"`
	OpenCount       int                `json:"open_count"`
	InProgressCount int                `json:"in_progress_count"`
	ResolvedCount   int                `json:"resolved_count"`
}

// DailyReportRow summarizes bugs created on one day.
type DailyReportRow struct {
	Date          string `json:"date"`
	Count         int    `json:"count"`
	CriticalCount int    `json:"critical_count"`
	HighCount     int    `json:"high_count"`
}

// DeveloperReportRow summarizes one developer's assignment load.
// AvgResolutionHours is nil when the developer has no resolved bugs.
type DeveloperReportRow struct {
	UserID             string   `json:"id"`
	Name               string   `json:"name"`
	TotalAssigned      int      `json:"total_assigned"`
	ResolvedCount      int      `json:"resolved_count"`
	InProgressCount    int      `json:"in_progress_count"`
	OpenCount          int      `json:"open_count"`
	AvgResolutionHours *float64 `json:"avg_resolution_time_hours"`
}

// SLAViolationRow is a bug past its priority's response threshold.
type SLAViolationRow struct {
	Bug       domain.Bug `json:"bug"`
	HoursOpen int        `json:"hours_open"`
}

// StatusReportRow summarizes one status bucket.
type StatusReportRow struct {
	Status        domain.BugStatus `json:"status"`
	Count         int              `json:"count"`
	CriticalCount int              `json:"critical_count"`
	HighCount     int              `json:"high_count"`
	MediumCount   int              `json:"medium_count"`
	LowCount      int              `json:"low_count"`
}

var priorityRank = map[domain.BugPriority]int{
	domain.BugPriorityCritical: 1,
	domain.BugPriorityHigh:     2,
	domain.BugPriorityMedium:   3,
	domain.BugPriorityLow:      4,
}

var statusRank = map[domain.BugStatus]int{
	domain.BugStatusOpen:       1,
	domain.BugStatusInProgress: 2,
	domain.BugStatusResolved:   3,
	domain.BugStatusClosed:     4,
	domain.BugStatusReopened:   5,
}

// ByPriority counts bugs for each priority present, with status sub-counts.
// Rows follow the fixed priority rank: critical, high, medium, low.
func (s *ReportService) ByPriority(ctx context.Context) ([]PriorityReportRow, error) {
	bugs, err := s.bugs.ListAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	buckets := make(map[domain.BugPriority]*PriorityReportRow)
	for _, bug := range bugs {
		row, ok := buckets[bug.Priority]
		if !ok {
			row = &PriorityReportRow{Priority: bug.Priority}
			buckets[bug.Priority] = row
		}
		row.Count++
		switch bug.Status {
		case domain.BugStatusOpen:
			row.OpenCount++
		case domain.BugStatusInProgress:
			row.InProgressCount++
		case domain.BugStatusResolved:
			row.ResolvedCount++
		}
	}

	result := make([]PriorityReportRow, 0, len(buckets))
	for _, row := range buckets {
		result = append(result, *row)
	}
	sort.Slice(result, func(i, j int) bool {
		return priorityRank[result[i].Priority] < priorityRank[result[j].Priority]
	})
	return result, nil
}

// PerDay groups bugs created in the trailing window by creation date, most
// recent day first. windowDays <= 0 falls back to the 30-day default.
func (s *ReportService) PerDay(ctx context.Context, windowDays int) ([]DailyReportRow, error) {
	if windowDays <= 0 {
		windowDays = DefaultReportWindowDays
	}
	bugs, err := s.bugs.ListAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	cutoff := s.now().AddDate(0, 0, -windowDays)
	buckets := make(map[string]*DailyReportRow)
	for _, bug := range bugs {
		if bug.CreatedAt.Before(cutoff) {
			continue
		}
		date := bug.CreatedAt.Format("2006-01-02")
		row, ok := buckets[date]
		if !ok {
			row = &DailyReportRow{Date: date}
			buckets[date] = row
		}
		row.Count++
		switch bug.Priority {
		case domain.BugPriorityCritical:
			row.CriticalCount++
		case domain.BugPriorityHigh:
			row.HighCount++
		}
	}

	result := make([]DailyReportRow, 0, len(buckets))
	for _, row := range buckets {
		result = append(result, *row)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date > result[j].Date
	})
	return result, nil
}

// DeveloperPerformance reports assignment counts for every developer-role
// user, including those with nothing assigned. The resolution average covers
// only bugs carrying a resolved timestamp. Rows order by resolved count
// descending.
func (s *ReportService) DeveloperPerformance(ctx context.Context) ([]DeveloperReportRow, error) {
	developers, err := s.users.ListByRole(ctx, domain.UserRoleDeveloper)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	bugs, err := s.bugs.ListAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	rows := make([]DeveloperReportRow, 0, len(developers))
	index := make(map[string]int, len(developers))
	resolvedHours := make(map[string][]float64)
	for _, dev := range developers {
		index[dev.ID] = len(rows)
		rows = append(rows, DeveloperReportRow{UserID: dev.ID, Name: dev.Name})
	}

	for _, bug := range bugs {
		if bug.AssigneeID == nil {
			continue
		}
		i, ok := index[*bug.AssigneeID]
		if !ok {
			continue
		}
		rows[i].TotalAssigned++
		switch bug.Status {
		case domain.BugStatusResolved:
			rows[i].ResolvedCount++
		case domain.BugStatusInProgress:
			rows[i].InProgressCount++
		case domain.BugStatusOpen:
			rows[i].OpenCount++
		}
		if bug.ResolvedAt != nil {
			hours := bug.ResolvedAt.Sub(bug.CreatedAt).Hours()
			resolvedHours[*bug.AssigneeID] = append(resolvedHours[*bug.AssigneeID], hours)
		}
	}

	for i := range rows {
		samples := resolvedHours[rows[i].UserID]
		if len(samples) == 0 {
			continue
		}
		var sum float64
		for _, h := range samples {
			sum += h
		}
		avg := sum / float64(len(samples))
		rows[i].AvgResolutionHours = &avg
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].ResolvedCount > rows[j].ResolvedCount
	})
	return rows, nil
}

// SLAViolations lists open or in-progress bugs past their priority threshold
// (critical > 24h, high > 48h), most overdue first. Other priorities never
// qualify. Age is whole hours since creation.
func (s *ReportService) SLAViolations(ctx context.Context) ([]SLAViolationRow, error) {
	bugs, err := s.bugs.ListAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	now := s.now()
	var result []SLAViolationRow
	for _, bug := range bugs {
		if bug.Status != domain.BugStatusOpen && bug.Status != domain.BugStatusInProgress {
			continue
		}
		age := int(now.Sub(bug.CreatedAt).Hours())
		violated := (bug.Priority == domain.BugPriorityCritical && age > slaCriticalHours) ||
			(bug.Priority == domain.BugPriorityHigh && age > slaHighHours)
		if !violated {
			continue
		}
		result = append(result, SLAViolationRow{Bug: bug, HoursOpen: age})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].HoursOpen > result[j].HoursOpen
	})
	return result, nil
}

// StatusSummary counts bugs for each status present, with priority
// sub-counts. Rows follow the lifecycle order open, in_progress, resolved,
// closed, reopened so output stays deterministic.
func (s *ReportService) StatusSummary(ctx context.Context) ([]StatusReportRow, error) {
	bugs, err := s.bugs.ListAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	buckets := make(map[domain.BugStatus]*StatusReportRow)
	for _, bug := range bugs {
		row, ok := buckets[bug.Status]
		if !ok {
			row = &StatusReportRow{Status: bug.Status}
			buckets[bug.Status] = row
		}
		row.Count++
		switch bug.Priority {
		case domain.BugPriorityCritical:
			row.CriticalCount++
		case domain.BugPriorityHigh:
			row.HighCount++
		case domain.BugPriorityMedium:
			row.MediumCount++
		case domain.BugPriorityLow:
			row.LowCount++
		}
	}

	result := make([]StatusReportRow, 0, len(buckets))
	for _, row := range buckets {
		result = append(result, *row)
	}
	sort.Slice(result, func(i, j int) bool {
		return statusRank[result[i].Status] < statusRank[result[j].Status]
	})
	return result, nil
}
