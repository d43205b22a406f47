package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type LikeRepo struct {
	pool *pgxpool.Pool
}

func NewLikeRepo(pool *pgxpool.Pool) *LikeRepo {
	return &LikeRepo{pool: pool}
}

func (r *LikeRepo) AddLike(ctx context.Context, documentID, userID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
INSERT INTO document_likes (document_id, user_id, created_at)
VALUES ($1, $2, NOW())
ON CONFLICT (document_id, user_id) DO NOTHING
`, documentID, userID)
	if err != nil {
		if isPgCode(err, foreignKeyViolation) {
			return ErrDocumentNotFound
		}
		return fmt.Errorf("insert like: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyLiked
	}
	return nil
}

func (r *LikeRepo) RemoveLike(ctx context.Context, documentID, userID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
DELETE FROM document_likes WHERE document_id = $1 AND user_id = $2
`, documentID, userID)
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLikeNotFound
	}
	return nil
}

func (r *LikeRepo) CountLikes(ctx context.Context, documentID int64) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int
	if err := r.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM document_likes WHERE document_id = $1
`, documentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return count, nil
}
