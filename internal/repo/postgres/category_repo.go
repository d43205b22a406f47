package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/dochub/internal/domain/model"
)

type CategoryRepo struct {
	pool *pgxpool.Pool
}

func NewCategoryRepo(pool *pgxpool.Pool) *CategoryRepo {
	return &CategoryRepo{pool: pool}
}

func (r *CategoryRepo) ListCategories(ctx context.Context) ([]model.Category, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, name, created_at
FROM categories
ORDER BY name
`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]model.Category, 0)
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	return out, nil
}

func (r *CategoryRepo) GetCategory(ctx context.Context, id int64) (model.Category, error) {
	if r.pool == nil {
		return model.Category{}, fmt.Errorf("postgres pool is nil")
	}

	var c model.Category
	err := r.pool.QueryRow(ctx, `
SELECT id, name, created_at FROM categories WHERE id = $1
`, id).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Category{}, ErrCategoryNotFound
		}
		return model.Category{}, fmt.Errorf("get category: %w", err)
	}

	return c, nil
}

func (r *CategoryRepo) CreateCategory(ctx context.Context, name string) (model.Category, error) {
	if r.pool == nil {
		return model.Category{}, fmt.Errorf("postgres pool is nil")
	}

	var c model.Category
	err := r.pool.QueryRow(ctx, `
INSERT INTO categories (name, created_at)
VALUES ($1, NOW())
RETURNING id, name, created_at
`, name).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		if isPgCode(err, uniqueViolation) {
			return model.Category{}, ErrCategoryExists
		}
		return model.Category{}, fmt.Errorf("insert category: %w", err)
	}

	return c, nil
}
