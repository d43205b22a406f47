package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/dochub/internal/domain/enums"
	"github.com/ivankudzin/dochub/internal/domain/model"
)

type ViewRepo struct {
	pool *pgxpool.Pool
}

func NewViewRepo(pool *pgxpool.Pool) *ViewRepo {
	return &ViewRepo{pool: pool}
}

func (r *ViewRepo) AddView(ctx context.Context, documentID, userID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
INSERT INTO document_views (document_id, user_id, viewed_at)
VALUES ($1, $2, NOW())
ON CONFLICT (document_id, user_id) DO NOTHING
`, documentID, userID)
	if err != nil {
		if isPgCode(err, foreignKeyViolation) {
			return ErrDocumentNotFound
		}
		return fmt.Errorf("insert view: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyViewed
	}
	return nil
}

func (r *ViewRepo) CountViews(ctx context.Context, documentID int64) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int
	if err := r.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM document_views WHERE document_id = $1
`, documentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count views: %w", err)
	}
	return count, nil
}

func (r *ViewRepo) ListViewers(ctx context.Context, documentID int64) ([]model.Viewer, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT u.id, u.first_name, u.last_name, u.photo_key, u.role_id, r.name, v.viewed_at
FROM document_views v
JOIN users u ON u.id = v.user_id
JOIN roles r ON r.id = u.role_id
WHERE v.document_id = $1
ORDER BY v.viewed_at DESC
`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list viewers: %w", err)
	}
	defer rows.Close()

	out := make([]model.Viewer, 0)
	for rows.Next() {
		var (
			v    model.Viewer
			role int
		)
		if err := rows.Scan(&v.UserID, &v.FirstName, &v.LastName, &v.PhotoKey, &role, &v.RoleName, &v.ViewedAt); err != nil {
			return nil, fmt.Errorf("scan viewer: %w", err)
		}
		v.Role = enums.Role(role)
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate viewers: %w", err)
	}

	return out, nil
}
