package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/bug-tracker/internal/domain"
)

// CommentRepository stores bug comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	GetWithAuthor(ctx context.Context, id string) (*domain.CommentWithAuthor, error)
	ListByBug(ctx context.Context, bugID string) ([]domain.CommentWithAuthor, error)
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository builds repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO comments (bug_id, user_id, comment)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		comment.BugID,
		comment.AuthorID,
		comment.Body,
	).Scan(&comment.ID, &comment.CreatedAt)
}

func (r *commentRepository) GetWithAuthor(ctx context.Context, id string) (*domain.CommentWithAuthor, error) {
	const query = `
        SELECT c.id, c.bug_id, c.user_id, c.comment, c.created_at, u.name
        FROM comments c
        JOIN users u ON c.user_id = u.id
        WHERE c.id=$1`
	var comment domain.CommentWithAuthor
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&comment.ID,
		&comment.BugID,
		&comment.AuthorID,
		&comment.Body,
		&comment.CreatedAt,
		&comment.AuthorName,
	); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) ListByBug(ctx context.Context, bugID string) ([]domain.CommentWithAuthor, error) {
	const query = `
        SELECT c.id, c.bug_id, c.user_id, c.comment, c.created_at, u.name
        FROM comments c
        JOIN users u ON c.user_id = u.id
        WHERE c.bug_id=$1 ORDER BY c.created_at ASC`
	rows, err := r.pool.Query(ctx, query, bugID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CommentWithAuthor
	for rows.Next() {
		var comment domain.CommentWithAuthor
		if err := rows.Scan(
			&comment.ID,
			&comment.BugID,
			&comment.AuthorID,
			&comment.Body,
			&comment.CreatedAt,
			&comment.AuthorName,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}
