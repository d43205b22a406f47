package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/dochub/internal/domain/model"
)

type CommentRepo struct {
	pool *pgxpool.Pool
}

func NewCommentRepo(pool *pgxpool.Pool) *CommentRepo {
	return &CommentRepo{pool: pool}
}

func (r *CommentRepo) ListComments(ctx context.Context, documentID int64) ([]model.Comment, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT c.id, c.document_id, c.user_id, c.text, u.first_name, u.last_name, u.photo_key, c.created_at
FROM document_comments c
JOIN users u ON u.id = c.user_id
WHERE c.document_id = $1 AND c.deleted_at IS NULL
ORDER BY c.created_at DESC, c.id DESC
`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	out := make([]model.Comment, 0)
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return out, nil
}

func (r *CommentRepo) CreateComment(ctx context.Context, documentID, userID int64, text string) (model.Comment, error) {
	if r.pool == nil {
		return model.Comment{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `
WITH inserted AS (
	INSERT INTO document_comments (document_id, user_id, text, created_at)
	VALUES ($1, $2, $3, NOW())
	RETURNING id, document_id, user_id, text, created_at
)
SELECT i.id, i.document_id, i.user_id, i.text, u.first_name, u.last_name, u.photo_key, i.created_at
FROM inserted i
JOIN users u ON u.id = i.user_id
`, documentID, userID, text)

	comment, err := scanComment(row)
	if err != nil {
		if isPgCode(err, foreignKeyViolation) {
			return model.Comment{}, ErrDocumentNotFound
		}
		return model.Comment{}, err
	}
	return comment, nil
}

func (r *CommentRepo) GetComment(ctx context.Context, documentID, commentID int64) (model.Comment, error) {
	if r.pool == nil {
		return model.Comment{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `
SELECT c.id, c.document_id, c.user_id, c.text, u.first_name, u.last_name, u.photo_key, c.created_at
FROM document_comments c
JOIN users u ON u.id = c.user_id
WHERE c.id = $1 AND c.document_id = $2 AND c.deleted_at IS NULL
`, commentID, documentID)
	return scanComment(row)
}

func (r *CommentRepo) SoftDeleteComment(ctx context.Context, commentID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE document_comments SET deleted_at = NOW()
WHERE id = $1 AND deleted_at IS NULL
`, commentID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCommentNotFound
	}
	return nil
}

func scanComment(row rowScanner) (model.Comment, error) {
	var c model.Comment
	err := row.Scan(&c.ID, &c.DocumentID, &c.UserID, &c.Text, &c.FirstName, &c.LastName, &c.PhotoKey, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Comment{}, ErrCommentNotFound
		}
		return model.Comment{}, fmt.Errorf("scan comment: %w", err)
	}
	return c, nil
}
