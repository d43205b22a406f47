package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/dochub/internal/domain/enums"
	"github.com/ivankudzin/dochub/internal/domain/model"
)

const userColumns = `
u.id, u.email, u.first_name, u.last_name, u.password_hash, u.photo_key,
u.is_verified, u.role_id, r.name, u.created_at, u.updated_at`

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) CreateUser(ctx context.Context, user model.User) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}

	var id int64
	err := r.pool.QueryRow(ctx, `
INSERT INTO users (email, first_name, last_name, password_hash, role_id, is_verified, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
RETURNING id
`, strings.ToLower(strings.TrimSpace(user.Email)), user.FirstName, user.LastName, user.PasswordHash, int(user.Role), user.IsVerified).Scan(&id)
	if err != nil {
		if isPgCode(err, uniqueViolation) {
			return model.User{}, ErrEmailTaken
		}
		if isPgCode(err, foreignKeyViolation) {
			return model.User{}, ErrRoleNotFound
		}
		return model.User{}, fmt.Errorf("insert user: %w", err)
	}

	return r.GetUserByID(ctx, id)
}

func (r *UserRepo) GetUserByID(ctx context.Context, userID int64) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `
SELECT `+userColumns+`
FROM users u
JOIN roles r ON r.id = u.role_id
WHERE u.id = $1
`, userID)
	return scanUser(row)
}

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `
SELECT `+userColumns+`
FROM users u
JOIN roles r ON r.id = u.role_id
WHERE LOWER(u.email) = LOWER($1)
`, strings.TrimSpace(email))
	return scanUser(row)
}

func (r *UserRepo) ListUsers(ctx context.Context) ([]model.User, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+userColumns+`
FROM users u
JOIN roles r ON r.id = u.role_id
ORDER BY u.id
`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

func (r *UserRepo) SetPasswordAndVerify(ctx context.Context, userID int64, passwordHash string) error {
	return r.execOne(ctx, `
UPDATE users
SET password_hash = $2, is_verified = TRUE, updated_at = NOW()
WHERE id = $1
`, userID, passwordHash)
}

func (r *UserRepo) MarkVerified(ctx context.Context, userID int64) error {
	return r.execOne(ctx, `
UPDATE users
SET is_verified = TRUE, updated_at = NOW()
WHERE id = $1
`, userID)
}

func (r *UserRepo) UpdateProfile(ctx context.Context, userID int64, firstName, lastName string) (model.User, error) {
	if err := r.execOne(ctx, `
UPDATE users
SET first_name = $2, last_name = $3, updated_at = NOW()
WHERE id = $1
`, userID, firstName, lastName); err != nil {
		return model.User{}, err
	}
	return r.GetUserByID(ctx, userID)
}

// SetPhoto stores the new photo key and returns the previous one.
func (r *UserRepo) SetPhoto(ctx context.Context, userID int64, photoKey string) (string, error) {
	if r.pool == nil {
		return "", fmt.Errorf("postgres pool is nil")
	}

	var previous string
	err := WithTx(ctx, r.pool, func(txCtx context.Context, tx pgx.Tx) error {
		if err := tx.QueryRow(txCtx, `
SELECT photo_key FROM users WHERE id = $1 FOR UPDATE
`, userID).Scan(&previous); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("lock user photo: %w", err)
		}
		if _, err := tx.Exec(txCtx, `
UPDATE users SET photo_key = $2, updated_at = NOW() WHERE id = $1
`, userID, photoKey); err != nil {
			return fmt.Errorf("update user photo: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return previous, nil
}

func (r *UserRepo) SetRole(ctx context.Context, userID int64, role enums.Role) (model.User, error) {
	err := r.execOne(ctx, `
UPDATE users
SET role_id = $2, updated_at = NOW()
WHERE id = $1
`, userID, int(role))
	if err != nil {
		if isPgCode(err, foreignKeyViolation) {
			return model.User{}, ErrRoleNotFound
		}
		return model.User{}, err
	}
	return r.GetUserByID(ctx, userID)
}

// DeleteUser removes the account and returns its photo key so the caller can
// drop the object. Authored documents keep existing without an author.
func (r *UserRepo) DeleteUser(ctx context.Context, userID int64) (string, error) {
	if r.pool == nil {
		return "", fmt.Errorf("postgres pool is nil")
	}

	var photoKey string
	err := r.pool.QueryRow(ctx, `
DELETE FROM users WHERE id = $1
RETURNING photo_key
`, userID).Scan(&photoKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("delete user: %w", err)
	}

	return photoKey, nil
}

func (r *UserRepo) execOne(ctx context.Context, sql string, args ...any) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		if isPgCode(err, foreignKeyViolation) {
			return fmt.Errorf("update user: %w", ErrRoleNotFound)
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func scanUser(row rowScanner) (model.User, error) {
	var (
		user model.User
		role int
	)
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&user.PhotoKey,
		&user.IsVerified,
		&role,
		&user.RoleName,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("scan user: %w", err)
	}
	user.Role = enums.Role(role)

	return user, nil
}
