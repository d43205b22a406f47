package likes

import (
	"context"
	"errors"
	"fmt"

	pgrepo "github.com/ivankudzin/dochub/internal/repo/postgres"
	"github.com/ivankudzin/dochub/internal/services/access"
	docsvc "github.com/ivankudzin/dochub/internal/services/documents"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrDocumentNotFound = errors.New("document not found")
	ErrAlreadyLiked     = errors.New("document already liked")
	ErrLikeNotFound     = errors.New("like not found")
)

type Store interface {
	AddLike(ctx context.Context, documentID, userID int64) error
	RemoveLike(ctx context.Context, documentID, userID int64) error
	CountLikes(ctx context.Context, documentID int64) (int, error)
}

type DocumentGuard interface {
	EnsureVisible(ctx context.Context, viewer access.Viewer, documentID int64) error
}

type Service struct {
	store Store
	guard DocumentGuard
}

func NewService(store Store, guard DocumentGuard) *Service {
	return &Service{store: store, guard: guard}
}

// Like records the viewer's like and returns the new count.
func (s *Service) Like(ctx context.Context, viewer access.Viewer, documentID int64) (int, error) {
	if err := s.ensureVisible(ctx, viewer, documentID); err != nil {
		return 0, err
	}

	if err := s.store.AddLike(ctx, documentID, viewer.UserID); err != nil {
		switch {
		case errors.Is(err, pgrepo.ErrAlreadyLiked):
			return 0, ErrAlreadyLiked
		case errors.Is(err, pgrepo.ErrDocumentNotFound):
			return 0, ErrDocumentNotFound
		default:
			return 0, fmt.Errorf("add like: %w", err)
		}
	}
	return s.count(ctx, documentID)
}

func (s *Service) Unlike(ctx context.Context, viewer access.Viewer, documentID int64) (int, error) {
	if err := s.ensureVisible(ctx, viewer, documentID); err != nil {
		return 0, err
	}

	if err := s.store.RemoveLike(ctx, documentID, viewer.UserID); err != nil {
		if errors.Is(err, pgrepo.ErrLikeNotFound) {
			return 0, ErrLikeNotFound
		}
		return 0, fmt.Errorf("remove like: %w", err)
	}
	return s.count(ctx, documentID)
}

func (s *Service) Count(ctx context.Context, viewer access.Viewer, documentID int64) (int, error) {
	if err := s.ensureVisible(ctx, viewer, documentID); err != nil {
		return 0, err
	}
	return s.count(ctx, documentID)
}

func (s *Service) count(ctx context.Context, documentID int64) (int, error) {
	n, err := s.store.CountLikes(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return n, nil
}

func (s *Service) ensureVisible(ctx context.Context, viewer access.Viewer, documentID int64) error {
	if s.store == nil || s.guard == nil {
		return fmt.Errorf("like dependencies are not configured")
	}
	if documentID <= 0 {
		return ErrValidation
	}
	if err := s.guard.EnsureVisible(ctx, viewer, documentID); err != nil {
		if errors.Is(err, docsvc.ErrNotFound) {
			return ErrDocumentNotFound
		}
		return err
	}
	return nil
}
