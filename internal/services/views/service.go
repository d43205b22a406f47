package views

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ivankudzin/dochub/internal/domain/model"
	pgrepo "github.com/ivankudzin/dochub/internal/repo/postgres"
	"github.com/ivankudzin/dochub/internal/services/access"
	docsvc "github.com/ivankudzin/dochub/internal/services/documents"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrDocumentNotFound = errors.New("document not found")
	ErrAlreadyViewed    = errors.New("document already viewed")
	ErrForbidden        = errors.New("forbidden")
)

type Store interface {
	AddView(ctx context.Context, documentID, userID int64) error
	CountViews(ctx context.Context, documentID int64) (int, error)
	ListViewers(ctx context.Context, documentID int64) ([]model.Viewer, error)
}

type DocumentGuard interface {
	EnsureVisible(ctx context.Context, viewer access.Viewer, documentID int64) error
}

type URLSigner interface {
	URL(ctx context.Context, key string) (string, error)
}

type ViewerItem struct {
	model.Viewer
	PhotoURL string
}

type Service struct {
	store  Store
	guard  DocumentGuard
	signer URLSigner
	logger *zap.Logger
}

func NewService(store Store, guard DocumentGuard, signer URLSigner, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, guard: guard, signer: signer, logger: logger}
}

// Mark records the first view of a document by the viewer. Repeated calls
// return ErrAlreadyViewed.
func (s *Service) Mark(ctx context.Context, viewer access.Viewer, documentID int64) error {
	if err := s.ensureVisible(ctx, viewer, documentID); err != nil {
		return err
	}

	if err := s.store.AddView(ctx, documentID, viewer.UserID); err != nil {
		switch {
		case errors.Is(err, pgrepo.ErrAlreadyViewed):
			return ErrAlreadyViewed
		case errors.Is(err, pgrepo.ErrDocumentNotFound):
			return ErrDocumentNotFound
		default:
			return fmt.Errorf("add view: %w", err)
		}
	}
	return nil
}

func (s *Service) Count(ctx context.Context, viewer access.Viewer, documentID int64) (int, error) {
	if err := s.ensureVisible(ctx, viewer, documentID); err != nil {
		return 0, err
	}
	n, err := s.store.CountViews(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("count views: %w", err)
	}
	return n, nil
}

// Viewers lists who opened a document, latest first. Admin and HR only.
func (s *Service) Viewers(ctx context.Context, viewer access.Viewer, documentID int64) ([]ViewerItem, error) {
	if !viewer.IsModerator() {
		return nil, ErrForbidden
	}
	if err := s.ensureVisible(ctx, viewer, documentID); err != nil {
		return nil, err
	}

	viewers, err := s.store.ListViewers(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list viewers: %w", err)
	}

	out := make([]ViewerItem, 0, len(viewers))
	for _, v := range viewers {
		item := ViewerItem{Viewer: v}
		if s.signer != nil && v.PhotoKey != "" {
			url, err := s.signer.URL(ctx, v.PhotoKey)
			if err != nil {
				s.logger.Warn("presign viewer photo", zap.Int64("user_id", v.UserID), zap.Error(err))
			}
			item.PhotoURL = url
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *Service) ensureVisible(ctx context.Context, viewer access.Viewer, documentID int64) error {
	if s.store == nil || s.guard == nil {
		return fmt.Errorf("view dependencies are not configured")
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
