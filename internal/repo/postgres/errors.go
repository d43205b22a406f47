package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailTaken       = errors.New("email already registered")
	ErrDocumentNotFound = errors.New("document not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
	ErrCommentNotFound  = errors.New("comment not found")
	ErrAlreadyLiked     = errors.New("document already liked")
	ErrLikeNotFound     = errors.New("like not found")
	ErrAlreadyViewed    = errors.New("document already viewed")
	ErrRoleNotFound     = errors.New("role not found")
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func isPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
