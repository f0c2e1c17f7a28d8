package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/bug-tracker/internal/domain"
	"github.com/spec-kit/bug-tracker/internal/events"
	"github.com/spec-kit/bug-tracker/internal/repository"
	apperrors "github.com/spec-kit/bug-tracker/pkg/util"
)

// BugService coordinates the bug lifecycle: mutations, the audit trail
// derived from them, and the notification events they trigger.
type BugService struct {
	bugs       repository.BugRepository
	users      repository.UserRepository
	comments   repository.CommentRepository
	history    repository.BugHistoryRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// BugDependencies bundles repositories for the bug service.
type BugDependencies struct {
	BugRepo     repository.BugRepository
	UserRepo    repository.UserRepository
	CommentRepo repository.CommentRepository
	HistoryRepo repository.BugHistoryRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// BugCreateInput describes bug creation payload. Priority and severity
// default to medium/major when absent; status is always open.
type BugCreateInput struct {
	Title       string
	Description string
	Priority    *domain.BugPriority
	Severity    *domain.BugSeverity
}

// BugPatch is a sparse update: nil fields are left untouched. Assignee is
// special-cased with an explicit marker so "clear the assignee" and "leave
// the assignee alone" are distinct inputs.
type BugPatch struct {
	Title       *string
	Description *string
	Priority    *domain.BugPriority
	Severity    *domain.BugSeverity
	Status      *domain.BugStatus
	Assignee    *string
	AssigneeSet bool
}

// Empty reports whether the patch carries no recognized field.
func (p BugPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.Severity == nil && p.Status == nil && !p.AssigneeSet
}

type fieldChange struct {
	field    string
	oldValue string
	newValue string
}

// NewBugService constructs the service.
func NewBugService(deps BugDependencies) *BugService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BugService{
		bugs:       deps.BugRepo,
		users:      deps.UserRepo,
		comments:   deps.CommentRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Create files a new bug for the reporter. The reporter identity comes from
// the caller's auth context and is not re-validated here.
func (s *BugService) Create(ctx context.Context, reporterID string, input BugCreateInput) (*domain.Bug, error) {
	bug := &domain.Bug{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Priority:    domain.BugPriorityMedium,
		Severity:    domain.BugSeverityMajor,
		Status:      domain.BugStatusOpen,
		ReporterID:  reporterID,
	}
	if input.Priority != nil {
		bug.Priority = *input.Priority
	}
	if input.Severity != nil {
		bug.Severity = *input.Severity
	}

	if err := s.bugs.Create(ctx, bug); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventBugCreated,
		BugID:   bug.ID,
		ActorID: reporterID,
		Payload: events.BugCreatedPayload{
			Title:    bug.Title,
			Priority: bug.Priority,
			Severity: bug.Severity,
		},
	})
	return bug, nil
}

// Update applies a sparse patch to a bug. Every field whose value actually
// changes produces one history entry attributed to the acting user; history
// is durable before any notification is attempted. Assigning a new non-nil
// assignee notifies that user; changing status notifies the original
// reporter. Returns the reloaded post-update state.
func (s *BugService) Update(ctx context.Context, bugID, actingUserID string, patch BugPatch) (*domain.Bug, error) {
	current, err := s.bugs.GetByID(ctx, bugID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("bug", map[string]any{"bug_id": bugID})
		}
		return nil, apperrors.MapError(err)
	}

	if patch.Empty() {
		return nil, apperrors.NewInvalidState("no updates provided", nil)
	}

	var newAssignee *domain.User
	if patch.AssigneeSet && patch.Assignee != nil {
		newAssignee, err = s.users.GetByID(ctx, *patch.Assignee)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("user", map[string]any{"user_id": *patch.Assignee})
			}
			return nil, apperrors.MapError(err)
		}
	}

	// Snapshot before mutating; the diff below must compare against this,
	// never against intermediate state.
	snapshot := *current
	updated := *current
	changes := applyPatch(&updated, patch, snapshot)

	if updated.Status == domain.BugStatusResolved && snapshot.ResolvedAt == nil && statusChanged(patch, snapshot) {
		now := s.now()
		updated.ResolvedAt = &now
	}

	if err := s.bugs.Update(ctx, &updated); err != nil {
		return nil, apperrors.MapError(err)
	}

	for _, change := range changes {
		entry := &domain.HistoryEntry{
			BugID:    bugID,
			UserID:   actingUserID,
			Field:    change.field,
			OldValue: change.oldValue,
			NewValue: change.newValue,
		}
		if err := s.history.Create(ctx, entry); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	if patch.AssigneeSet && patch.Assignee != nil && !strPtrEqual(patch.Assignee, snapshot.AssigneeID) {
		s.publishEvent(ctx, events.Event{
			Type:    events.EventBugAssigned,
			BugID:   bugID,
			ActorID: actingUserID,
			Payload: events.BugAssignedPayload{
				BugID:       bugID,
				Title:       updated.Title,
				Priority:    updated.Priority,
				Severity:    updated.Severity,
				Description: updated.Description,
				Assignee:    *newAssignee,
			},
		})
	}

	if statusChanged(patch, snapshot) {
		reporter, err := s.users.GetByID(ctx, snapshot.ReporterID)
		if err != nil {
			// Best-effort only: a missing reporter drops the notification,
			// never the update.
			s.logger.Warn("status notification skipped; reporter lookup failed",
				zap.String("bug_id", bugID), zap.Error(err))
		} else {
			s.publishEvent(ctx, events.Event{
				Type:    events.EventBugStatusChanged,
				BugID:   bugID,
				ActorID: actingUserID,
				Payload: events.BugStatusChangedPayload{
					BugID:     bugID,
					Title:     updated.Title,
					OldStatus: snapshot.Status,
					NewStatus: *patch.Status,
					Reporter:  *reporter,
				},
			})
		}
	}

	reloaded, err := s.bugs.GetByID(ctx, bugID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return reloaded, nil
}

// Delete removes the bug along with its comments and history entries.
func (s *BugService) Delete(ctx context.Context, bugID string) error {
	if err := s.bugs.Delete(ctx, bugID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("bug", map[string]any{"bug_id": bugID})
		}
		return apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:  events.EventBugDeleted,
		BugID: bugID,
	})
	return nil
}

// AddComment appends a comment attributed to the acting user and returns it
// joined with the author's display name.
func (s *BugService) AddComment(ctx context.Context, bugID, actingUserID, body string) (*domain.CommentWithAuthor, error) {
	if _, err := s.bugs.GetByID(ctx, bugID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("bug", map[string]any{"bug_id": bugID})
		}
		return nil, apperrors.MapError(err)
	}

	comment := &domain.Comment{
		BugID:    bugID,
		AuthorID: actingUserID,
		Body:     strings.TrimSpace(body),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	created, err := s.comments.GetWithAuthor(ctx, comment.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventBugCommented,
		BugID:   bugID,
		ActorID: actingUserID,
		Payload: events.BugCommentedPayload{
			CommentID:   created.ID,
			BodyPreview: stringPreview(created.Body, 120),
		},
	})
	return created, nil
}

// Get returns a bug joined with reporter/assignee names plus its comments.
func (s *BugService) Get(ctx context.Context, bugID string) (*domain.BugWithNames, []domain.CommentWithAuthor, error) {
	bug, err := s.bugs.GetWithNames(ctx, bugID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("bug", map[string]any{"bug_id": bugID})
		}
		return nil, nil, apperrors.MapError(err)
	}
	comments, err := s.comments.ListByBug(ctx, bugID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return bug, comments, nil
}

// List returns a filtered page of bugs and the unpaged total.
func (s *BugService) List(ctx context.Context, filter repository.BugFilter) ([]domain.BugWithNames, int, error) {
	bugs, err := s.bugs.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	total, err := s.bugs.CountWithFilter(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return bugs, total, nil
}

// ListHistory returns the audit trail for a bug, oldest first.
func (s *BugService) ListHistory(ctx context.Context, bugID string) ([]domain.HistoryEntry, error) {
	if _, err := s.bugs.GetByID(ctx, bugID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("bug", map[string]any{"bug_id": bugID})
		}
		return nil, apperrors.MapError(err)
	}
	entries, err := s.history.ListByBug(ctx, bugID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// applyPatch writes present patch fields onto bug and returns one change per
// field whose value differs from the snapshot.
func applyPatch(bug *domain.Bug, patch BugPatch, snapshot domain.Bug) []fieldChange {
	var changes []fieldChange

	if patch.Title != nil {
		bug.Title = *patch.Title
		if *patch.Title != snapshot.Title {
			changes = append(changes, fieldChange{domain.HistoryFieldTitle, snapshot.Title, *patch.Title})
		}
	}
	if patch.Description != nil {
		bug.Description = *patch.Description
		if *patch.Description != snapshot.Description {
			changes = append(changes, fieldChange{domain.HistoryFieldDescription, snapshot.Description, *patch.Description})
		}
	}
	if patch.Priority != nil {
		bug.Priority = *patch.Priority
		if *patch.Priority != snapshot.Priority {
			changes = append(changes, fieldChange{domain.HistoryFieldPriority, string(snapshot.Priority), string(*patch.Priority)})
		}
	}
	if patch.Severity != nil {
		bug.Severity = *patch.Severity
		if *patch.Severity != snapshot.Severity {
			changes = append(changes, fieldChange{domain.HistoryFieldSeverity, string(snapshot.Severity), string(*patch.Severity)})
		}
	}
	if patch.Status != nil {
		bug.Status = *patch.Status
		if *patch.Status != snapshot.Status {
			changes = append(changes, fieldChange{domain.HistoryFieldStatus, string(snapshot.Status), string(*patch.Status)})
		}
	}
	if patch.AssigneeSet {
		bug.AssigneeID = patch.Assignee
		if !strPtrEqual(patch.Assignee, snapshot.AssigneeID) {
			changes = append(changes, fieldChange{
				domain.HistoryFieldAssignee,
				strOrEmpty(snapshot.AssigneeID),
				strOrEmpty(patch.Assignee),
			})
		}
	}
	return changes
}

func statusChanged(patch BugPatch, snapshot domain.Bug) bool {
	return patch.Status != nil && *patch.Status != snapshot.Status
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}

func (s *BugService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
