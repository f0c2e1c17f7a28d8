package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/bug-tracker/internal/domain"
	"github.com/spec-kit/bug-tracker/internal/events"
	"github.com/spec-kit/bug-tracker/internal/repository"
)

// In-memory repository fakes backing the service tests. They mirror the
// Postgres implementations' contract: lookups on missing rows return
// pgx.ErrNoRows, mutations copy their input.

type fakeBugRepo struct {
	mu    sync.Mutex
	bugs  map[string]domain.Bug
	users *fakeUserRepo
}

func newFakeBugRepo(users *fakeUserRepo) *fakeBugRepo {
	return &fakeBugRepo{bugs: make(map[string]domain.Bug), users: users}
}

func (r *fakeBugRepo) Create(_ context.Context, bug *domain.Bug) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	bug.ID = uuid.NewString()
	now := time.Now()
	if bug.CreatedAt.IsZero() {
		bug.CreatedAt = now
	}
	bug.UpdatedAt = now
	r.bugs[bug.ID] = *bug
	return nil
}

func (r *fakeBugRepo) Update(_ context.Context, bug *domain.Bug) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bugs[bug.ID]; !ok {
		return pgx.ErrNoRows
	}
	bug.UpdatedAt = time.Now()
	r.bugs[bug.ID] = *bug
	return nil
}

func (r *fakeBugRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bugs[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.bugs, id)
	return nil
}

func (r *fakeBugRepo) GetByID(_ context.Context, id string) (*domain.Bug, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bug, ok := r.bugs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := bug
	return &copied, nil
}

func (r *fakeBugRepo) GetWithNames(ctx context.Context, id string) (*domain.BugWithNames, error) {
	bug, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.withNames(*bug), nil
}

func (r *fakeBugRepo) ListWithFilter(_ context.Context, filter repository.BugFilter) ([]domain.BugWithNames, error) {
	matched := r.filtered(filter)

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = repository.DefaultPageSize
	}
	start := (page - 1) * size
	if start >= len(matched) {
		return nil, nil
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}

	result := make([]domain.BugWithNames, 0, end-start)
	for _, bug := range matched[start:end] {
		result = append(result, *r.withNames(bug))
	}
	return result, nil
}

func (r *fakeBugRepo) CountWithFilter(_ context.Context, filter repository.BugFilter) (int, error) {
	return len(r.filtered(filter)), nil
}

func (r *fakeBugRepo) ListAll(_ context.Context) ([]domain.Bug, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.Bug, 0, len(r.bugs))
	for _, bug := range r.bugs {
		result = append(result, bug)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *fakeBugRepo) filtered(filter repository.BugFilter) []domain.Bug {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []domain.Bug
	for _, bug := range r.bugs {
		if filter.Status != nil && bug.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && bug.Priority != *filter.Priority {
			continue
		}
		if filter.AssigneeID != nil {
			if bug.AssigneeID == nil || *bug.AssigneeID != *filter.AssigneeID {
				continue
			}
		}
		matched = append(matched, bug)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched
}

func (r *fakeBugRepo) withNames(bug domain.Bug) *domain.BugWithNames {
	result := &domain.BugWithNames{Bug: bug}
	if r.users == nil {
		return result
	}
	if reporter, err := r.users.GetByID(context.Background(), bug.ReporterID); err == nil {
		result.ReporterName = reporter.Name
	}
	if bug.AssigneeID != nil {
		if assignee, err := r.users.GetByID(context.Background(), *bug.AssigneeID); err == nil {
			name := assignee.Name
			result.AssigneeName = &name
		}
	}
	return result
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]domain.User)}
}

func (r *fakeUserRepo) add(name string, role domain.UserRole) domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	user := domain.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     name + "@example.com",
		Role:      role,
		CreatedAt: time.Now(),
	}
	r.users[user.ID] = user
	return user
}

func (r *fakeUserRepo) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return errors.New("duplicate email")
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		result = append(result, user)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *fakeUserRepo) ListByRole(_ context.Context, role domain.UserRole) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.User
	for _, user := range r.users {
		if user.Role == role {
			result = append(result, user)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

type fakeCommentRepo struct {
	mu       sync.Mutex
	comments map[string]domain.Comment
	users    *fakeUserRepo
}

func newFakeCommentRepo(users *fakeUserRepo) *fakeCommentRepo {
	return &fakeCommentRepo{comments: make(map[string]domain.Comment), users: users}
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment.ID = uuid.NewString()
	comment.CreatedAt = time.Now()
	r.comments[comment.ID] = *comment
	return nil
}

func (r *fakeCommentRepo) GetWithAuthor(ctx context.Context, id string) (*domain.CommentWithAuthor, error) {
	r.mu.Lock()
	comment, ok := r.comments[id]
	r.mu.Unlock()
	if !ok {
		return nil, pgx.ErrNoRows
	}
	result := &domain.CommentWithAuthor{Comment: comment}
	if author, err := r.users.GetByID(ctx, comment.AuthorID); err == nil {
		result.AuthorName = author.Name
	}
	return result, nil
}

func (r *fakeCommentRepo) ListByBug(ctx context.Context, bugID string) ([]domain.CommentWithAuthor, error) {
	r.mu.Lock()
	var matched []domain.Comment
	for _, comment := range r.comments {
		if comment.BugID == bugID {
			matched = append(matched, comment)
		}
	}
	r.mu.Unlock()
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	result := make([]domain.CommentWithAuthor, 0, len(matched))
	for _, comment := range matched {
		row := domain.CommentWithAuthor{Comment: comment}
		if author, err := r.users.GetByID(ctx, comment.AuthorID); err == nil {
			row.AuthorName = author.Name
		}
		result = append(result, row)
	}
	return result, nil
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []domain.HistoryEntry
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{}
}

func (r *fakeHistoryRepo) Create(_ context.Context, entry *domain.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeHistoryRepo) ListByBug(_ context.Context, bugID string) ([]domain.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.HistoryEntry
	for _, entry := range r.entries {
		if entry.BugID == bugID {
			result = append(result, entry)
		}
	}
	return result, nil
}

// captureDispatcher records published events in order without delivering
// them anywhere.
type captureDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *captureDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *captureDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *captureDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var matched []events.Event
	for _, event := range d.events {
		if event.Type == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}
