package roles

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/dochub/internal/domain/enums"
	"github.com/ivankudzin/dochub/internal/domain/model"
)

const (
	cacheKey = "roles:all"
	cacheTTL = time.Hour
)

type Store interface {
	ListRoles(ctx context.Context) ([]model.RoleInfo, error)
}

type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

type Service struct {
	store  Store
	cache  Cache
	logger *zap.Logger
}

func NewService(store Store, cache Cache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, cache: cache, logger: logger}
}

// List returns the role catalogue. Without a store the built-in names are
// served.
func (s *Service) List(ctx context.Context) ([]model.RoleInfo, error) {
	if s.store == nil {
		return Builtin(), nil
	}

	if s.cache != nil {
		var cached []model.RoleInfo
		found, err := s.cache.GetJSON(ctx, cacheKey, &cached)
		if err != nil {
			s.logger.Warn("read roles cache", zap.Error(err))
		} else if found {
			return cached, nil
		}
	}

	items, err := s.store.ListRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cacheKey, items, cacheTTL); err != nil {
			s.logger.Warn("write roles cache", zap.Error(err))
		}
	}
	return items, nil
}

func Builtin() []model.RoleInfo {
	out := make([]model.RoleInfo, 0, 4)
	for _, role := range []enums.Role{enums.RoleAdmin, enums.RoleHR, enums.RoleManager, enums.RoleSpecialist} {
		out = append(out, model.RoleInfo{ID: role, Name: role.Name()})
	}
	return out
}
