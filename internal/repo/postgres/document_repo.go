package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/dochub/internal/domain/enums"
	"github.com/ivankudzin/dochub/internal/domain/model"
)

const (
	defaultDocumentLimit = 50
	maxDocumentLimit     = 200
)

// documentSelect expects the viewer id as $1 and the visible audiences as $2.
const documentSelect = `
SELECT
	d.id,
	d.title,
	d.object_key,
	COALESCE(d.author_id, 0),
	COALESCE(u.first_name, ''),
	COALESCE(u.last_name, ''),
	COALESCE(u.photo_key, ''),
	COALESCE(u.role_id, 0),
	c.id,
	c.name,
	c.created_at,
	d.audience,
	d.created_at,
	(SELECT COUNT(*) FROM document_likes l WHERE l.document_id = d.id),
	(SELECT COUNT(*) FROM document_comments cm WHERE cm.document_id = d.id AND cm.deleted_at IS NULL),
	EXISTS (SELECT 1 FROM document_views v WHERE v.document_id = d.id AND v.user_id = $1),
	EXISTS (SELECT 1 FROM document_likes l WHERE l.document_id = d.id AND l.user_id = $1)
FROM documents d
JOIN categories c ON c.id = d.category_id
LEFT JOIN users u ON u.id = d.author_id
WHERE d.deleted_at IS NULL
  AND d.audience = ANY($2::smallint[])`

type DocumentFilter struct {
	ViewerID   int64
	Audiences  []enums.Role
	CategoryID int64
	Limit      int
}

type NewDocument struct {
	Title      string
	ObjectKey  string
	AuthorID   int64
	CategoryID int64
	Audience   enums.Role
}

type PurgeCandidate struct {
	ID        int64
	ObjectKey string
	DeletedAt time.Time
}

type DocumentRepo struct {
	pool *pgxpool.Pool
}

func NewDocumentRepo(pool *pgxpool.Pool) *DocumentRepo {
	return &DocumentRepo{pool: pool}
}

// ListDocuments returns live documents whose audience is in the filter,
// newest first.
func (r *DocumentRepo) ListDocuments(ctx context.Context, filter DocumentFilter) ([]model.Document, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultDocumentLimit
	}
	if limit > maxDocumentLimit {
		limit = maxDocumentLimit
	}

	rows, err := r.pool.Query(ctx, documentSelect+`
  AND ($3::bigint = 0 OR d.category_id = $3)
ORDER BY d.created_at DESC, d.id DESC
LIMIT $4
`, filter.ViewerID, audienceArray(filter.Audiences), filter.CategoryID, limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := make([]model.Document, 0, limit)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return out, nil
}

func (r *DocumentRepo) GetDocument(ctx context.Context, viewerID, documentID int64, audiences []enums.Role) (model.Document, error) {
	if r.pool == nil {
		return model.Document{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, documentSelect+`
  AND d.id = $3
`, viewerID, audienceArray(audiences), documentID)
	return scanDocument(row)
}

func (r *DocumentRepo) CreateDocument(ctx context.Context, doc NewDocument) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var id int64
	err := r.pool.QueryRow(ctx, `
INSERT INTO documents (title, object_key, author_id, category_id, audience, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
RETURNING id
`, doc.Title, doc.ObjectKey, doc.AuthorID, doc.CategoryID, int16(doc.Audience)).Scan(&id)
	if err != nil {
		if isPgCode(err, foreignKeyViolation) {
			return 0, ErrCategoryNotFound
		}
		return 0, fmt.Errorf("insert document: %w", err)
	}

	return id, nil
}

func (r *DocumentRepo) UpdateTitle(ctx context.Context, documentID int64, title string) error {
	return r.execLive(ctx, `
UPDATE documents
SET title = $2, updated_at = NOW()
WHERE id = $1 AND deleted_at IS NULL
`, documentID, title)
}

func (r *DocumentRepo) SoftDeleteDocument(ctx context.Context, documentID int64) error {
	return r.execLive(ctx, `
UPDATE documents
SET deleted_at = NOW(), updated_at = NOW()
WHERE id = $1 AND deleted_at IS NULL
`, documentID)
}

// ListPurgeable returns documents soft deleted before the cutoff.
func (r *DocumentRepo) ListPurgeable(ctx context.Context, deletedBefore time.Time, limit int) ([]PurgeCandidate, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, object_key, deleted_at
FROM documents
WHERE deleted_at IS NOT NULL AND deleted_at < $1
ORDER BY deleted_at
LIMIT $2
`, deletedBefore.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("list purgeable documents: %w", err)
	}
	defer rows.Close()

	out := make([]PurgeCandidate, 0)
	for rows.Next() {
		var c PurgeCandidate
		if err := rows.Scan(&c.ID, &c.ObjectKey, &c.DeletedAt); err != nil {
			return nil, fmt.Errorf("scan purgeable document: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purgeable documents: %w", err)
	}

	return out, nil
}

// PurgeDocument removes a soft deleted row with its likes, views and comments.
func (r *DocumentRepo) PurgeDocument(ctx context.Context, documentID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
DELETE FROM documents WHERE id = $1 AND deleted_at IS NOT NULL
`, documentID)
	if err != nil {
		return fmt.Errorf("purge document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func (r *DocumentRepo) execLive(ctx context.Context, sql string, args ...any) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func scanDocument(row rowScanner) (model.Document, error) {
	var (
		doc        model.Document
		authorRole int
		audience   int
	)
	err := row.Scan(
		&doc.ID,
		&doc.Title,
		&doc.ObjectKey,
		&doc.AuthorID,
		&doc.AuthorFirst,
		&doc.AuthorLast,
		&doc.AuthorPhoto,
		&authorRole,
		&doc.Category.ID,
		&doc.Category.Name,
		&doc.Category.CreatedAt,
		&audience,
		&doc.CreatedAt,
		&doc.LikesCount,
		&doc.CommentsCount,
		&doc.IsViewed,
		&doc.IsLiked,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Document{}, ErrDocumentNotFound
		}
		return model.Document{}, fmt.Errorf("scan document: %w", err)
	}
	doc.AuthorRole = enums.Role(authorRole)
	doc.Audience = enums.Role(audience)

	return doc, nil
}

func audienceArray(roles []enums.Role) []int16 {
	out := make([]int16, 0, len(roles))
	for _, role := range roles {
		out = append(out, int16(role))
	}
	return out
}
