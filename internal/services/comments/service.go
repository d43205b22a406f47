package comments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ivankudzin/dochub/internal/domain/model"
	pgrepo "github.com/ivankudzin/dochub/internal/repo/postgres"
	"github.com/ivankudzin/dochub/internal/services/access"
	docsvc "github.com/ivankudzin/dochub/internal/services/documents"
)

const MaxTextRunes = 1000

var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("comment not found")
	ErrForbidden        = errors.New("forbidden")
	ErrDocumentNotFound = errors.New("document not found")
)

type Store interface {
	ListComments(ctx context.Context, documentID int64) ([]model.Comment, error)
	CreateComment(ctx context.Context, documentID, userID int64, text string) (model.Comment, error)
	GetComment(ctx context.Context, documentID, commentID int64) (model.Comment, error)
	SoftDeleteComment(ctx context.Context, commentID int64) error
}

// DocumentGuard checks that a document exists and is visible to the viewer.
type DocumentGuard interface {
	EnsureVisible(ctx context.Context, viewer access.Viewer, documentID int64) error
}

type URLSigner interface {
	URL(ctx context.Context, key string) (string, error)
}

type Item struct {
	model.Comment
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

func (s *Service) List(ctx context.Context, viewer access.Viewer, documentID int64) ([]Item, error) {
	if err := s.ensureVisible(ctx, viewer, documentID); err != nil {
		return nil, err
	}

	comments, err := s.store.ListComments(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	out := make([]Item, 0, len(comments))
	for _, c := range comments {
		out = append(out, s.item(ctx, c))
	}
	return out, nil
}

func (s *Service) Add(ctx context.Context, viewer access.Viewer, documentID int64, text string) (Item, error) {
	text = strings.TrimSpace(text)
	if text == "" || len([]rune(text)) > MaxTextRunes {
		return Item{}, ErrValidation
	}
	if err := s.ensureVisible(ctx, viewer, documentID); err != nil {
		return Item{}, err
	}

	comment, err := s.store.CreateComment(ctx, documentID, viewer.UserID, text)
	if err != nil {
		if errors.Is(err, pgrepo.ErrDocumentNotFound) {
			return Item{}, ErrDocumentNotFound
		}
		return Item{}, fmt.Errorf("create comment: %w", err)
	}
	return s.item(ctx, comment), nil
}

// Delete soft deletes a comment. Only its author or an admin may do that.
func (s *Service) Delete(ctx context.Context, viewer access.Viewer, documentID, commentID int64) error {
	if commentID <= 0 {
		return ErrValidation
	}
	if err := s.ensureVisible(ctx, viewer, documentID); err != nil {
		return err
	}

	comment, err := s.store.GetComment(ctx, documentID, commentID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrCommentNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("get comment: %w", err)
	}
	if comment.UserID != viewer.UserID && !viewer.IsAdmin() {
		return ErrForbidden
	}

	if err := s.store.SoftDeleteComment(ctx, commentID); err != nil {
		if errors.Is(err, pgrepo.ErrCommentNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

func (s *Service) ensureVisible(ctx context.Context, viewer access.Viewer, documentID int64) error {
	if s.store == nil || s.guard == nil {
		return fmt.Errorf("comment dependencies are not configured")
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

func (s *Service) item(ctx context.Context, c model.Comment) Item {
	out := Item{Comment: c}
	if s.signer == nil || c.PhotoKey == "" {
		return out
	}
	url, err := s.signer.URL(ctx, c.PhotoKey)
	if err != nil {
		s.logger.Warn("presign commenter photo", zap.Int64("comment_id", c.ID), zap.Error(err))
		return out
	}
	out.PhotoURL = url
	return out
}
