package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type VerificationRepo struct {
	pool *pgxpool.Pool
}

func NewVerificationRepo(pool *pgxpool.Pool) *VerificationRepo {
	return &VerificationRepo{pool: pool}
}

// SaveVerification replaces any pending token of the user.
func (r *VerificationRepo) SaveVerification(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	return WithTx(ctx, r.pool, func(txCtx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(txCtx, `DELETE FROM email_verifications WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("drop previous verification tokens: %w", err)
		}
		if _, err := tx.Exec(txCtx, `
INSERT INTO email_verifications (user_id, token, expires_at, created_at)
VALUES ($1, $2, $3, NOW())
`, userID, token, expiresAt.UTC()); err != nil {
			if isPgCode(err, foreignKeyViolation) {
				return ErrUserNotFound
			}
			return fmt.Errorf("insert verification token: %w", err)
		}
		return nil
	})
}

// ConsumeVerification deletes a matching unexpired token and reports whether
// one existed.
func (r *VerificationRepo) ConsumeVerification(ctx context.Context, userID int64, token string, now time.Time) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
DELETE FROM email_verifications
WHERE user_id = $1 AND token = $2 AND expires_at > $3
`, userID, token, now.UTC())
	if err != nil {
		return false, fmt.Errorf("consume verification token: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *VerificationRepo) DeleteExpiredVerifications(ctx context.Context, now time.Time) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM email_verifications WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired verification tokens: %w", err)
	}

	return tag.RowsAffected(), nil
}
