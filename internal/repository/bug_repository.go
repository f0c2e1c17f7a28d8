package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/bug-tracker/internal/domain"
)

// DefaultPageSize bounds unpaginated listing requests.
const DefaultPageSize = 10

// BugFilter captures listing parameters. All predicates are exact-match.
type BugFilter struct {
	Status     *domain.BugStatus
	Priority   *domain.BugPriority
	AssigneeID *string
	Page       int
	PageSize   int
}

// BugRepository encapsulates bug persistence.
type BugRepository interface {
	Create(ctx context.Context, bug *domain.Bug) error
	Update(ctx context.Context, bug *domain.Bug) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Bug, error)
	GetWithNames(ctx context.Context, id string) (*domain.BugWithNames, error)
	ListWithFilter(ctx context.Context, filter BugFilter) ([]domain.BugWithNames, error)
	CountWithFilter(ctx context.Context, filter BugFilter) (int, error)
	ListAll(ctx context.Context) ([]domain.Bug, error)
}

type bugRepository struct {
	pool *pgxpool.Pool
}

// NewBugRepository instantiates repository.
func NewBugRepository(pool *pgxpool.Pool) BugRepository {
	return &bugRepository{pool: pool}
}

func (r *bugRepository) Create(ctx context.Context, bug *domain.Bug) error {
	const query = `
        INSERT INTO bugs (title, description, priority, severity, status, reporter_id, assigned_to)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		bug.Title,
		bug.Description,
		bug.Priority,
		bug.Severity,
		bug.Status,
		bug.ReporterID,
		bug.AssigneeID,
	).Scan(&bug.ID, &bug.CreatedAt, &bug.UpdatedAt)
}

func (r *bugRepository) Update(ctx context.Context, bug *domain.Bug) error {
	const query = `
        UPDATE bugs SET title=$1, description=$2, priority=$3, severity=$4,
            status=$5, assigned_to=$6, resolved_at=$7, updated_at=NOW()
        WHERE id=$8`
	cmd, err := r.pool.Exec(ctx, query,
		bug.Title,
		bug.Description,
		bug.Priority,
		bug.Severity,
		bug.Status,
		bug.AssigneeID,
		bug.ResolvedAt,
		bug.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes the bug; comments and history rows follow through the
// ON DELETE CASCADE constraints in the schema.
func (r *bugRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM bugs WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *bugRepository) GetByID(ctx context.Context, id string) (*domain.Bug, error) {
	const query = `
        SELECT id, title, description, priority, severity, status,
               reporter_id, assigned_to, created_at, updated_at, resolved_at
        FROM bugs WHERE id=$1`
	var bug domain.Bug
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&bug.ID,
		&bug.Title,
		&bug.Description,
		&bug.Priority,
		&bug.Severity,
		&bug.Status,
		&bug.ReporterID,
		&bug.AssigneeID,
		&bug.CreatedAt,
		&bug.UpdatedAt,
		&bug.ResolvedAt,
	); err != nil {
		return nil, err
	}
	return &bug, nil
}

func (r *bugRepository) GetWithNames(ctx context.Context, id string) (*domain.BugWithNames, error) {
	const query = `
        SELECT b.id, b.title, b.description, b.priority, b.severity, b.status,
               b.reporter_id, b.assigned_to, b.created_at, b.updated_at, b.resolved_at,
               u1.name, u2.name
        FROM bugs b
        LEFT JOIN users u1 ON b.reporter_id = u1.id
        LEFT JOIN users u2 ON b.assigned_to = u2.id
        WHERE b.id=$1`
	var bug domain.BugWithNames
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&bug.ID,
		&bug.Title,
		&bug.Description,
		&bug.Priority,
		&bug.Severity,
		&bug.Status,
		&bug.ReporterID,
		&bug.AssigneeID,
		&bug.CreatedAt,
		&bug.UpdatedAt,
		&bug.ResolvedAt,
		&bug.ReporterName,
		&bug.AssigneeName,
	); err != nil {
		return nil, err
	}
	return &bug, nil
}

func (r *bugRepository) ListWithFilter(ctx context.Context, filter BugFilter) ([]domain.BugWithNames, error) {
	base := `SELECT b.id, b.title, b.description, b.priority, b.severity, b.status,
                    b.reporter_id, b.assigned_to, b.created_at, b.updated_at, b.resolved_at,
                    u1.name, u2.name
             FROM bugs b
             LEFT JOIN users u1 ON b.reporter_id = u1.id
             LEFT JOIN users u2 ON b.assigned_to = u2.id`
	clauses, args := filterClauses(filter, "b.")

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`%s WHERE %s ORDER BY b.created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), pageSize, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.BugWithNames
	for rows.Next() {
		var bug domain.BugWithNames
		if err := rows.Scan(
			&bug.ID,
			&bug.Title,
			&bug.Description,
			&bug.Priority,
			&bug.Severity,
			&bug.Status,
			&bug.ReporterID,
			&bug.AssigneeID,
			&bug.CreatedAt,
			&bug.UpdatedAt,
			&bug.ResolvedAt,
			&bug.ReporterName,
			&bug.AssigneeName,
		); err != nil {
			return nil, err
		}
		result = append(result, bug)
	}
	return result, rows.Err()
}

func (r *bugRepository) CountWithFilter(ctx context.Context, filter BugFilter) (int, error) {
	clauses, args := filterClauses(filter, "")
	query := fmt.Sprintf(`SELECT COUNT(*) FROM bugs WHERE %s`, strings.Join(clauses, " AND "))

	var total int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *bugRepository) ListAll(ctx context.Context) ([]domain.Bug, error) {
	const query = `
        SELECT id, title, description, priority, severity, status,
               reporter_id, assigned_to, created_at, updated_at, resolved_at
        FROM bugs ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Bug
	for rows.Next() {
		var bug domain.Bug
		if err := rows.Scan(
			&bug.ID,
			&bug.Title,
			&bug.Description,
			&bug.Priority,
			&bug.Severity,
			&bug.Status,
			&bug.ReporterID,
			&bug.AssigneeID,
			&bug.CreatedAt,
			&bug.UpdatedAt,
			&bug.ResolvedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, bug)
	}
	return result, rows.Err()
}

func filterClauses(filter BugFilter, prefix string) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("%sstatus=$%d", prefix, len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("%spriority=$%d", prefix, len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("%sassigned_to=$%d", prefix, len(args)))
	}
	return clauses, args
}
