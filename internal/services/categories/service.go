package categories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/dochub/internal/domain/model"
	pgrepo "github.com/ivankudzin/dochub/internal/repo/postgres"
	"github.com/ivankudzin/dochub/internal/services/access"
	docsvc "github.com/ivankudzin/dochub/internal/services/documents"
)

const (
	cacheKey     = "categories:all"
	cacheTTL     = 10 * time.Minute
	maxNameRunes = 100
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("category not found")
	ErrExists     = errors.New("category already exists")
	ErrForbidden  = errors.New("forbidden")
)

type Store interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategory(ctx context.Context, id int64) (model.Category, error)
	CreateCategory(ctx context.Context, name string) (model.Category, error)
}

type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type DocumentLister interface {
	List(ctx context.Context, viewer access.Viewer, categoryID int64) ([]docsvc.Item, error)
}

type Service struct {
	store     Store
	cache     Cache
	documents DocumentLister
	logger    *zap.Logger
}

func NewService(store Store, cache Cache, documents DocumentLister, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		cache:     cache,
		documents: documents,
		logger:    logger,
	}
}

// List serves categories from the cache and falls back to the store. Cache
// errors are logged and never fail the request.
func (s *Service) List(ctx context.Context) ([]model.Category, error) {
	if s.store == nil {
		return nil, fmt.Errorf("category store is not configured")
	}

	if s.cache != nil {
		var cached []model.Category
		found, err := s.cache.GetJSON(ctx, cacheKey, &cached)
		if err != nil {
			s.logger.Warn("read categories cache", zap.Error(err))
		} else if found {
			return cached, nil
		}
	}

	items, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cacheKey, items, cacheTTL); err != nil {
			s.logger.Warn("write categories cache", zap.Error(err))
		}
	}
	return items, nil
}

func (s *Service) Create(ctx context.Context, viewer access.Viewer, name string) (model.Category, error) {
	if !viewer.IsModerator() {
		return model.Category{}, ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > maxNameRunes {
		return model.Category{}, ErrValidation
	}
	if s.store == nil {
		return model.Category{}, fmt.Errorf("category store is not configured")
	}

	category, err := s.store.CreateCategory(ctx, name)
	if err != nil {
		if errors.Is(err, pgrepo.ErrCategoryExists) {
			return model.Category{}, ErrExists
		}
		return model.Category{}, fmt.Errorf("create category: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, cacheKey); err != nil {
			s.logger.Warn("invalidate categories cache", zap.Error(err))
		}
	}
	return category, nil
}

// Documents lists the visible documents of one category.
func (s *Service) Documents(ctx context.Context, viewer access.Viewer, categoryID int64) (model.Category, []docsvc.Item, error) {
	if categoryID <= 0 {
		return model.Category{}, nil, ErrValidation
	}
	if s.store == nil || s.documents == nil {
		return model.Category{}, nil, fmt.Errorf("category dependencies are not configured")
	}

	category, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrCategoryNotFound) {
			return model.Category{}, nil, ErrNotFound
		}
		return model.Category{}, nil, fmt.Errorf("get category: %w", err)
	}

	items, err := s.documents.List(ctx, viewer, categoryID)
	if err != nil {
		return model.Category{}, nil, err
	}
	return category, items, nil
}
