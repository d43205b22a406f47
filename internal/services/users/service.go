package users

import (
	"bytes"
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

const maxNameRunes = 100

var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("user not found")
	ErrForbidden    = errors.New("forbidden")
	ErrSelfDelete   = errors.New("cannot delete own account")
	ErrRoleNotFound = errors.New("role not found")
)

type Store interface {
	GetUserByID(ctx context.Context, userID int64) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateProfile(ctx context.Context, userID int64, firstName, lastName string) (model.User, error)
	SetPhoto(ctx context.Context, userID int64, photoKey string) (string, error)
	SetRole(ctx context.Context, userID int64, role enums.Role) (model.User, error)
	DeleteUser(ctx context.Context, userID int64) (string, error)
}

type Media interface {
	PutPhoto(ctx context.Context, userID int64, fileName, contentType string, body io.Reader, size int64) (string, error)
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

type AvatarRenderer interface {
	Render(firstName, lastName string) ([]byte, string, error)
}

// SessionRevoker drops every session of a user.
type SessionRevoker interface {
	LogoutAll(ctx context.Context, userID int64) error
}

// Profile is a user with a presigned photo link.
type Profile struct {
	model.User
	PhotoURL string
}

type Service struct {
	store    Store
	media    Media
	avatars  AvatarRenderer
	sessions SessionRevoker
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(store Store, media Media, avatars AvatarRenderer, sessions SessionRevoker, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		media:    media,
		avatars:  avatars,
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) Get(ctx context.Context, userID int64) (Profile, error) {
	if userID <= 0 {
		return Profile{}, ErrValidation
	}
	if s.store == nil {
		return Profile{}, fmt.Errorf("user store is not configured")
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return Profile{}, mapStoreError(err)
	}
	return s.profile(ctx, user), nil
}

func (s *Service) List(ctx context.Context) ([]Profile, error) {
	if s.store == nil {
		return nil, fmt.Errorf("user store is not configured")
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	out := make([]Profile, 0, len(users))
	for _, user := range users {
		out = append(out, s.profile(ctx, user))
	}
	return out, nil
}

// UpdateProfile edits names. Only the owner or an admin may edit a profile.
func (s *Service) UpdateProfile(ctx context.Context, actor access.Viewer, targetID int64, firstName, lastName string) (Profile, error) {
	targetID, err := s.resolveTarget(actor, targetID)
	if err != nil {
		return Profile{}, err
	}

	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return Profile{}, ErrValidation
	}
	if len([]rune(firstName)) > maxNameRunes || len([]rune(lastName)) > maxNameRunes {
		return Profile{}, ErrValidation
	}

	user, err := s.store.UpdateProfile(ctx, targetID, firstName, lastName)
	if err != nil {
		return Profile{}, mapStoreError(err)
	}
	return s.profile(ctx, user), nil
}

func (s *Service) UploadPhoto(ctx context.Context, actor access.Viewer, targetID int64, fileName, contentType string, body io.Reader, size int64) (Profile, error) {
	targetID, err := s.resolveTarget(actor, targetID)
	if err != nil {
		return Profile{}, err
	}
	if s.media == nil {
		return Profile{}, fmt.Errorf("media is not configured")
	}

	key, err := s.media.PutPhoto(ctx, targetID, fileName, contentType, body, size)
	if err != nil {
		return Profile{}, err
	}
	return s.replacePhoto(ctx, targetID, key)
}

// GenerateAvatar renders an initials avatar and stores it as the user photo.
func (s *Service) GenerateAvatar(ctx context.Context, actor access.Viewer, targetID int64) (Profile, error) {
	targetID, err := s.resolveTarget(actor, targetID)
	if err != nil {
		return Profile{}, err
	}
	if s.avatars == nil || s.media == nil {
		return Profile{}, fmt.Errorf("avatar generation is not configured")
	}

	user, err := s.store.GetUserByID(ctx, targetID)
	if err != nil {
		return Profile{}, mapStoreError(err)
	}

	png, _, err := s.avatars.Render(user.FirstName, user.LastName)
	if err != nil {
		return Profile{}, fmt.Errorf("render avatar: %w", err)
	}

	key, err := s.media.PutPhoto(ctx, targetID, "avatar.png", "image/png", bytes.NewReader(png), int64(len(png)))
	if err != nil {
		return Profile{}, err
	}
	return s.replacePhoto(ctx, targetID, key)
}

// Delete removes an account, its sessions and its photo. Admins cannot delete
// themselves.
func (s *Service) Delete(ctx context.Context, actor access.Viewer, targetID int64) error {
	if targetID <= 0 {
		return ErrValidation
	}
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if actor.UserID == targetID {
		return ErrSelfDelete
	}

	photoKey, err := s.store.DeleteUser(ctx, targetID)
	if err != nil {
		return mapStoreError(err)
	}

	s.revoke(ctx, targetID)
	if s.media != nil && photoKey != "" {
		if err := s.media.Delete(ctx, photoKey); err != nil {
			s.logger.Warn("delete user photo", zap.Int64("user_id", targetID), zap.Error(err))
		}
	}
	return nil
}

// ChangeRole assigns a new role and revokes the target's sessions so the next
// token carries the new role.
func (s *Service) ChangeRole(ctx context.Context, actor access.Viewer, targetID int64, role enums.Role) (Profile, error) {
	if targetID <= 0 {
		return Profile{}, ErrValidation
	}
	if !actor.IsAdmin() {
		return Profile{}, ErrForbidden
	}
	if !role.Valid() {
		return Profile{}, ErrRoleNotFound
	}

	user, err := s.store.SetRole(ctx, targetID, role)
	if err != nil {
		return Profile{}, mapStoreError(err)
	}

	s.revoke(ctx, targetID)
	return s.profile(ctx, user), nil
}

func (s *Service) RevokeSessions(ctx context.Context, actor access.Viewer, targetID int64) error {
	if targetID <= 0 {
		targetID = actor.UserID
	}
	if targetID != actor.UserID && !actor.IsAdmin() {
		return ErrForbidden
	}
	if s.sessions == nil {
		return fmt.Errorf("session store is not configured")
	}
	if _, err := s.store.GetUserByID(ctx, targetID); err != nil {
		return mapStoreError(err)
	}
	return s.sessions.LogoutAll(ctx, targetID)
}

func (s *Service) replacePhoto(ctx context.Context, userID int64, key string) (Profile, error) {
	previous, err := s.store.SetPhoto(ctx, userID, key)
	if err != nil {
		_ = s.media.Delete(ctx, key)
		return Profile{}, mapStoreError(err)
	}
	if previous != "" && previous != key {
		if err := s.media.Delete(ctx, previous); err != nil {
			s.logger.Warn("delete previous photo", zap.Int64("user_id", userID), zap.Error(err))
		}
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return Profile{}, mapStoreError(err)
	}
	return s.profile(ctx, user), nil
}

func (s *Service) resolveTarget(actor access.Viewer, targetID int64) (int64, error) {
	if s.store == nil {
		return 0, fmt.Errorf("user store is not configured")
	}
	if actor.UserID <= 0 {
		return 0, ErrForbidden
	}
	if targetID <= 0 {
		return actor.UserID, nil
	}
	if targetID != actor.UserID && !actor.IsAdmin() {
		return 0, ErrForbidden
	}
	return targetID, nil
}

func (s *Service) revoke(ctx context.Context, userID int64) {
	if s.sessions == nil {
		return
	}
	if err := s.sessions.LogoutAll(ctx, userID); err != nil {
		s.logger.Warn("revoke user sessions", zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (s *Service) profile(ctx context.Context, user model.User) Profile {
	out := Profile{User: user}
	if s.media == nil || user.PhotoKey == "" {
		return out
	}
	url, err := s.media.URL(ctx, user.PhotoKey)
	if err != nil {
		s.logger.Warn("presign user photo", zap.Int64("user_id", user.ID), zap.Error(err))
		return out
	}
	out.PhotoURL = url
	return out
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, pgrepo.ErrUserNotFound):
		return ErrNotFound
	case errors.Is(err, pgrepo.ErrRoleNotFound):
		return ErrRoleNotFound
	default:
		return err
	}
}
