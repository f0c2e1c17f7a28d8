package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/bug-tracker/internal/domain"
)

// BugHistoryRepository stores audit entries.
type BugHistoryRepository interface {
	Create(ctx context.Context, entry *domain.HistoryEntry) error
	ListByBug(ctx context.Context, bugID string) ([]domain.HistoryEntry, error)
}

type bugHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewBugHistoryRepository builds repository.
func NewBugHistoryRepository(pool *pgxpool.Pool) BugHistoryRepository {
	return &bugHistoryRepository{pool: pool}
}

func (r *bugHistoryRepository) Create(ctx context.Context, entry *domain.HistoryEntry) error {
	const query = `
        INSERT INTO bug_history (bug_id, user_id, field_changed, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.BugID,
		entry.UserID,
		entry.Field,
		entry.OldValue,
		entry.NewValue,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *bugHistoryRepository) ListByBug(ctx context.Context, bugID string) ([]domain.HistoryEntry, error) {
	const query = `
        SELECT id, bug_id, user_id, field_changed, old_value, new_value, created_at
        FROM bug_history WHERE bug_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, bugID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.HistoryEntry
	for rows.Next() {
		var entry domain.HistoryEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.BugID,
			&entry.UserID,
			&entry.Field,
			&entry.OldValue,
			&entry.NewValue,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
