package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/bug-tracker/internal/domain"
)

type reportFixture struct {
	service *ReportService
	bugs    *fakeBugRepo
	users   *fakeUserRepo
	now     time.Time
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()
	users := newFakeUserRepo()
	bugs := newFakeBugRepo(users)
	svc := NewReportService(bugs, users)
	now := time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return &reportFixture{service: svc, bugs: bugs, users: users, now: now}
}

// seedBug inserts a bug directly into the store with full control over
// timestamps, bypassing the lifecycle service.
func (f *reportFixture) seedBug(t *testing.T, bug domain.Bug) domain.Bug {
	t.Helper()
	if bug.ReporterID == "" {
		bug.ReporterID = "reporter"
	}
	require.NoError(t, f.bugs.Create(context.Background(), &bug))
	return bug
}

func TestReportByPriorityOrderingAndCounts(t *testing.T) {
	f := newReportFixture(t)
	f.seedBug(t, domain.Bug{Priority: domain.BugPriorityLow, Status: domain.BugStatusOpen})
	f.seedBug(t, domain.Bug{Priority: domain.BugPriorityCritical, Status: domain.BugStatusOpen})
	f.seedBug(t, domain.Bug{Priority: domain.BugPriorityCritical, Status: domain.BugStatusResolved})
	f.seedBug(t, domain.Bug{Priority: domain.BugPriorityHigh, Status: domain.BugStatusInProgress})

	rows, err := f.service.ByPriority(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, domain.BugPriorityCritical, rows[0].Priority)
	assert.Equal(t, 2, rows[0].Count)
	assert.Equal(t, 1, rows[0].OpenCount)
	assert.Equal(t, 1, rows[0].ResolvedCount)

	assert.Equal(t, domain.BugPriorityHigh, rows[1].Priority)
	assert.Equal(t, 1, rows[1].InProgressCount)

	assert.Equal(t, domain.BugPriorityLow, rows[2].Priority)
}

func TestReportByPriorityEmptyStore(t *testing.T) {
	f := newReportFixture(t)
	rows, err := f.service.ByPriority(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReportPerDayWindowAndOrdering(t *testing.T) {
	f := newReportFixture(t)
	today := f.now.Truncate(24 * time.Hour)
	f.seedBug(t, domain.Bug{Priority: domain.BugPriorityCritical, Status: domain.BugStatusOpen, CreatedAt: today})
	f.seedBug(t, domain.Bug{Priority: domain.BugPriorityHigh, Status: domain.BugStatusOpen, CreatedAt: today})
	f.seedBug(t, domain.Bug{Priority: domain.BugPriorityLow, Status: domain.BugStatusOpen, CreatedAt: today.AddDate(0, 0, -2)})
	// Outside the 7-day window, must not appear.
	f.seedBug(t, domain.Bug{Priority: domain.BugPriorityLow, Status: domain.BugStatusOpen, CreatedAt: today.AddDate(0, 0, -10)})

	rows, err := f.service.PerDay(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, today.Format("2006-01-02"), rows[0].Date)
	assert.Equal(t, 2, rows[0].Count)
	assert.Equal(t, 1, rows[0].CriticalCount)
	assert.Equal(t, 1, rows[0].HighCount)

	assert.Equal(t, today.AddDate(0, 0, -2).Format("2006-01-02"), rows[1].Date)
	assert.Equal(t, 1, rows[1].Count)
}

func TestReportPerDayDefaultWindow(t *testing.T) {
	f := newReportFixture(t)
	today := f.now.Truncate(24 * time.Hour)
	f.seedBug(t, domain.Bug{Priority: domain.BugPriorityLow, Status: domain.BugStatusOpen, CreatedAt: today.AddDate(0, 0, -29)})
	f.seedBug(t, domain.Bug{Priority: domain.BugPriorityLow, Status: domain.BugStatusOpen, CreatedAt: today.AddDate(0, 0, -31)})

	rows, err := f.service.PerDay(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, today.AddDate(0, 0, -29).Format("2006-01-02"), rows[0].Date)
}

func TestReportDeveloperPerformance(t *testing.T) {
	f := newReportFixture(t)
	fast := f.users.add("fast", domain.UserRoleDeveloper)
	idle := f.users.add("idle", domain.UserRoleDeveloper)
	f.users.add("rita", domain.UserRoleReporter)

	created := f.now.Add(-48 * time.Hour)
	resolvedAt := created.Add(12 * time.Hour)
	f.seedBug(t, domain.Bug{
		Priority: domain.BugPriorityHigh, Status: domain.BugStatusResolved,
		AssigneeID: &fast.ID, CreatedAt: created, ResolvedAt: &resolvedAt,
	})
	resolvedLater := created.Add(36 * time.Hour)
	f.seedBug(t, domain.Bug{
		Priority: domain.BugPriorityLow, Status: domain.BugStatusResolved,
		AssigneeID: &fast.ID, CreatedAt: created, ResolvedAt: &resolvedLater,
	})
	f.seedBug(t, domain.Bug{
		Priority: domain.BugPriorityLow, Status: domain.BugStatusOpen,
		AssigneeID: &fast.ID, CreatedAt: created,
	})

	rows, err := f.service.DeveloperPerformance(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, fast.ID, rows[0].UserID)
	assert.Equal(t, 3, rows[0].TotalAssigned)
	assert.Equal(t, 2, rows[0].ResolvedCount)
	assert.Equal(t, 1, rows[0].OpenCount)
	require.NotNil(t, rows[0].AvgResolutionHours)
	assert.InDelta(t, 24.0, *rows[0].AvgResolutionHours, 0.001)

	// Developers with no assignments still get a row, average stays nil.
	assert.Equal(t, idle.ID, rows[1].UserID)
	assert.Equal(t, 0, rows[1].TotalAssigned)
	assert.Nil(t, rows[1].AvgResolutionHours)
}

func TestReportSLAViolationThresholds(t *testing.T) {
	f := newReportFixture(t)

	// Critical bugs violate past 24h, high past 48h; both strict.
	seed := func(priority domain.BugPriority, status domain.BugStatus, ageHours int) domain.Bug {
		return f.seedBug(t, domain.Bug{
			Priority: priority, Status: status,
			CreatedAt: f.now.Add(-time.Duration(ageHours) * time.Hour),
		})
	}
	seed(domain.BugPriorityCritical, domain.BugStatusOpen, 23)
	criticalLate := seed(domain.BugPriorityCritical, domain.BugStatusOpen, 25)
	seed(domain.BugPriorityHigh, domain.BugStatusInProgress, 47)
	highLate := seed(domain.BugPriorityHigh, domain.BugStatusInProgress, 49)
	// Resolved bugs never violate regardless of age.
	seed(domain.BugPriorityCritical, domain.BugStatusResolved, 100)
	// Medium and low have no SLA at all.
	seed(domain.BugPriorityMedium, domain.BugStatusOpen, 500)

	rows, err := f.service.SLAViolations(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Most overdue first.
	assert.Equal(t, highLate.ID, rows[0].Bug.ID)
	assert.Equal(t, 49, rows[0].HoursOpen)
	assert.Equal(t, criticalLate.ID, rows[1].Bug.ID)
	assert.Equal(t, 25, rows[1].HoursOpen)
}

func TestReportSLAExactThresholdIsNotViolation(t *testing.T) {
	f := newReportFixture(t)
	f.seedBug(t, domain.Bug{
		Priority: domain.BugPriorityCritical, Status: domain.BugStatusOpen,
		CreatedAt: f.now.Add(-24 * time.Hour),
	})
	f.seedBug(t, domain.Bug{
		Priority: domain.BugPriorityHigh, Status: domain.BugStatusOpen,
		CreatedAt: f.now.Add(-48 * time.Hour),
	})

	rows, err := f.service.SLAViolations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReportStatusSummary(t *testing.T) {
	f := newReportFixture(t)
	f.seedBug(t, domain.Bug{Priority: domain.BugPriorityCritical, Status: domain.BugStatusResolved})
	f.seedBug(t, domain.Bug{Priority: domain.BugPriorityLow, Status: domain.BugStatusOpen})
	f.seedBug(t, domain.Bug{Priority: domain.BugPriorityHigh, Status: domain.BugStatusOpen})
	f.seedBug(t, domain.Bug{Priority: domain.BugPriorityMedium, Status: domain.BugStatusReopened})

	rows, err := f.service.StatusSummary(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, domain.BugStatusOpen, rows[0].Status)
	assert.Equal(t, 2, rows[0].Count)
	assert.Equal(t, 1, rows[0].HighCount)
	assert.Equal(t, 1, rows[0].LowCount)

	assert.Equal(t, domain.BugStatusResolved, rows[1].Status)
	assert.Equal(t, 1, rows[1].CriticalCount)

	assert.Equal(t, domain.BugStatusReopened, rows[2].Status)
	assert.Equal(t, 1, rows[2].MediumCount)
}

func TestReportsReflectLatestState(t *testing.T) {
	f := newReportFixture(t)
	bug := f.seedBug(t, domain.Bug{Priority: domain.BugPriorityHigh, Status: domain.BugStatusOpen})

	rows, err := f.service.StatusSummary(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.BugStatusOpen, rows[0].Status)

	bug.Status = domain.BugStatusResolved
	require.NoError(t, f.bugs.Update(context.Background(), &bug))

	rows, err = f.service.StatusSummary(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.BugStatusResolved, rows[0].Status)
}
