package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/dochub/internal/domain/enums"
	"github.com/ivankudzin/dochub/internal/domain/model"
	pgrepo "github.com/ivankudzin/dochub/internal/repo/postgres"
	"github.com/ivankudzin/dochub/internal/services/access"
)

const (
	ListLimit     = 50
	maxTitleRunes = 255
)

var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("document not found")
	ErrForbidden        = errors.New("forbidden")
	ErrCategoryNotFound = errors.New("category not found")
)

type Store interface {
	ListDocuments(ctx context.Context, filter pgrepo.DocumentFilter) ([]model.Document, error)
	GetDocument(ctx context.Context, viewerID, documentID int64, audiences []enums.Role) (model.Document, error)
	CreateDocument(ctx context.Context, doc pgrepo.NewDocument) (int64, error)
	UpdateTitle(ctx context.Context, documentID int64, title string) error
	SoftDeleteDocument(ctx context.Context, documentID int64) error
}

type Media interface {
	PutDocument(ctx context.Context, fileName, contentType string, body io.Reader, size int64) (string, error)
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Item is a document with presigned links for the file and author photo.
type Item struct {
	model.Document
	FileURL        string
	AuthorPhotoURL string
}

type CreateInput struct {
	Title       string
	CategoryID  int64
	Audience    enums.Role
	FileName    string
	ContentType string
	Body        io.Reader
	Size        int64
}

type Service struct {
	store  Store
	media  Media
	logger *zap.Logger
	now    func() time.Time
}

func NewService(store Store, media Media, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		media:  media,
		logger: logger,
		now:    time.Now,
	}
}

// List returns documents visible to the viewer, newest first. A positive
// categoryID narrows the list to that category.
func (s *Service) List(ctx context.Context, viewer access.Viewer, categoryID int64) ([]Item, error) {
	if s.store == nil {
		return nil, fmt.Errorf("document store is not configured")
	}
	audiences := access.Audiences(viewer.Role)
	if len(audiences) == 0 {
		return []Item{}, nil
	}

	docs, err := s.store.ListDocuments(ctx, pgrepo.DocumentFilter{
		ViewerID:   viewer.UserID,
		Audiences:  audiences,
		CategoryID: categoryID,
		Limit:      ListLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	out := make([]Item, 0, len(docs))
	for _, doc := range docs {
		out = append(out, s.item(ctx, doc))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, viewer access.Viewer, documentID int64) (Item, error) {
	doc, err := s.load(ctx, viewer, documentID)
	if err != nil {
		return Item{}, err
	}
	return s.item(ctx, doc), nil
}

// EnsureVisible fails with ErrNotFound when the document is missing, deleted
// or hidden from the viewer.
func (s *Service) EnsureVisible(ctx context.Context, viewer access.Viewer, documentID int64) error {
	_, err := s.load(ctx, viewer, documentID)
	return err
}

func (s *Service) Create(ctx context.Context, viewer access.Viewer, in CreateInput) (Item, error) {
	if !viewer.IsModerator() {
		return Item{}, ErrForbidden
	}
	if s.store == nil || s.media == nil {
		return Item{}, fmt.Errorf("document dependencies are not configured")
	}

	title := strings.TrimSpace(in.Title)
	if title == "" || len([]rune(title)) > maxTitleRunes || in.CategoryID <= 0 {
		return Item{}, ErrValidation
	}
	audience := in.Audience
	if audience == 0 {
		audience = enums.AudienceAll
	}
	if !audience.ValidAudience() {
		return Item{}, ErrValidation
	}
	if in.Body == nil || in.Size <= 0 {
		return Item{}, ErrValidation
	}

	key, err := s.media.PutDocument(ctx, in.FileName, in.ContentType, in.Body, in.Size)
	if err != nil {
		return Item{}, err
	}

	id, err := s.store.CreateDocument(ctx, pgrepo.NewDocument{
		Title:      title,
		ObjectKey:  key,
		AuthorID:   viewer.UserID,
		CategoryID: in.CategoryID,
		Audience:   audience,
	})
	if err != nil {
		if delErr := s.media.Delete(ctx, key); delErr != nil {
			s.logger.Warn("drop orphan document object", zap.String("key", key), zap.Error(delErr))
		}
		if errors.Is(err, pgrepo.ErrCategoryNotFound) {
			return Item{}, ErrCategoryNotFound
		}
		return Item{}, fmt.Errorf("create document: %w", err)
	}

	s.logger.Info("document created",
		zap.Int64("document_id", id),
		zap.Int64("author_id", viewer.UserID),
		zap.Int("audience", int(audience)),
	)

	return s.Get(ctx, viewer, id)
}

func (s *Service) UpdateTitle(ctx context.Context, viewer access.Viewer, documentID int64, title string) (Item, error) {
	if !viewer.IsModerator() {
		return Item{}, ErrForbidden
	}
	title = strings.TrimSpace(title)
	if title == "" || len([]rune(title)) > maxTitleRunes {
		return Item{}, ErrValidation
	}
	if _, err := s.load(ctx, viewer, documentID); err != nil {
		return Item{}, err
	}

	if err := s.store.UpdateTitle(ctx, documentID, title); err != nil {
		if errors.Is(err, pgrepo.ErrDocumentNotFound) {
			return Item{}, ErrNotFound
		}
		return Item{}, fmt.Errorf("update title: %w", err)
	}
	return s.Get(ctx, viewer, documentID)
}

// FileURL returns a presigned download link for a visible document.
func (s *Service) FileURL(ctx context.Context, viewer access.Viewer, documentID int64) (string, error) {
	doc, err := s.load(ctx, viewer, documentID)
	if err != nil {
		return "", err
	}
	if s.media == nil {
		return "", fmt.Errorf("media is not configured")
	}
	return s.media.URL(ctx, doc.ObjectKey)
}

// Delete soft deletes a document. The object is purged later by the cleanup
// job.
func (s *Service) Delete(ctx context.Context, viewer access.Viewer, documentID int64) error {
	if !viewer.IsAdmin() {
		return ErrForbidden
	}
	if documentID <= 0 {
		return ErrValidation
	}
	if s.store == nil {
		return fmt.Errorf("document store is not configured")
	}

	if err := s.store.SoftDeleteDocument(ctx, documentID); err != nil {
		if errors.Is(err, pgrepo.ErrDocumentNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete document: %w", err)
	}

	s.logger.Info("document deleted", zap.Int64("document_id", documentID), zap.Int64("by", viewer.UserID))
	return nil
}

func (s *Service) load(ctx context.Context, viewer access.Viewer, documentID int64) (model.Document, error) {
	if documentID <= 0 {
		return model.Document{}, ErrValidation
	}
	if s.store == nil {
		return model.Document{}, fmt.Errorf("document store is not configured")
	}
	audiences := access.Audiences(viewer.Role)
	if len(audiences) == 0 {
		return model.Document{}, ErrNotFound
	}

	doc, err := s.store.GetDocument(ctx, viewer.UserID, documentID, audiences)
	if err != nil {
		if errors.Is(err, pgrepo.ErrDocumentNotFound) {
			return model.Document{}, ErrNotFound
		}
		return model.Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

func (s *Service) item(ctx context.Context, doc model.Document) Item {
	out := Item{Document: doc}
	if s.media == nil {
		return out
	}

	var err error
	if out.FileURL, err = s.media.URL(ctx, doc.ObjectKey); err != nil {
		s.logger.Warn("presign document", zap.Int64("document_id", doc.ID), zap.Error(err))
	}
	if out.AuthorPhotoURL, err = s.media.URL(ctx, doc.AuthorPhoto); err != nil {
		s.logger.Warn("presign author photo", zap.Int64("document_id", doc.ID), zap.Error(err))
	}
	return out
}
