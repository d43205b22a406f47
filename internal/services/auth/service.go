package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/dochub/internal/domain/enums"
	"github.com/ivankudzin/dochub/internal/domain/model"
	"github.com/ivankudzin/dochub/internal/pkg/validate"
	pgrepo "github.com/ivankudzin/dochub/internal/repo/postgres"
)

const (
	MinRefreshTTL          = 24 * time.Hour
	MaxRefreshTTL          = 90 * 24 * time.Hour
	DefaultVerificationTTL = time.Hour
)

type SessionStore interface {
	Create(ctx context.Context, session SessionRecord, refreshToken string) error
	GetSession(ctx context.Context, sid string) (SessionRecord, error)
	GetByRefreshToken(ctx context.Context, refreshToken string) (SessionRecord, error)
	RotateRefresh(ctx context.Context, sid, oldRefreshToken, newRefreshToken string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, sid string) error
	DeleteAllForUser(ctx context.Context, userID int64) error
}

type UserStore interface {
	CreateUser(ctx context.Context, user model.User) (model.User, error)
	GetUserByID(ctx context.Context, userID int64) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	SetPasswordAndVerify(ctx context.Context, userID int64, passwordHash string) error
	MarkVerified(ctx context.Context, userID int64) error
}

type VerificationStore interface {
	SaveVerification(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	ConsumeVerification(ctx context.Context, userID int64, token string, now time.Time) (bool, error)
}

type Mailer interface {
	SendVerification(ctx context.Context, to, verificationURL string) error
}

type LoginLimiter interface {
	RetryAfterLogin(ctx context.Context, key string) (int64, error)
	RecordLoginFailure(ctx context.Context, key string) (int64, error)
	ResetLogin(ctx context.Context, key string) error
}

type Dependencies struct {
	JWT           *JWTManager
	Sessions      SessionStore
	Users         UserStore
	Verifications VerificationStore
	Mailer        Mailer
	Limiter       LoginLimiter
	Logger        *zap.Logger
}

type Config struct {
	RefreshTTL      time.Duration
	VerificationTTL time.Duration
	AppBaseURL      string
}

type Service struct {
	jwt             *JWTManager
	sessions        SessionStore
	users           UserStore
	verifications   VerificationStore
	mailer          Mailer
	limiter         LoginLimiter
	logger          *zap.Logger
	refreshTTL      time.Duration
	verificationTTL time.Duration
	appBaseURL      string
	now             func() time.Time
}

func NewService(deps Dependencies, cfg Config) *Service {
	refreshTTL := cfg.RefreshTTL
	if refreshTTL < MinRefreshTTL {
		refreshTTL = MinRefreshTTL
	}
	if refreshTTL > MaxRefreshTTL {
		refreshTTL = MaxRefreshTTL
	}
	verificationTTL := cfg.VerificationTTL
	if verificationTTL <= 0 {
		verificationTTL = DefaultVerificationTTL
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		jwt:             deps.JWT,
		sessions:        deps.Sessions,
		users:           deps.Users,
		verifications:   deps.Verifications,
		mailer:          deps.Mailer,
		limiter:         deps.Limiter,
		logger:          logger,
		refreshTTL:      refreshTTL,
		verificationTTL: verificationTTL,
		appBaseURL:      strings.TrimRight(strings.TrimSpace(cfg.AppBaseURL), "/"),
		now:             time.Now,
	}
}

// Register creates an unverified account without a password and mails a
// confirmation link. A mail failure is logged, the user can ask for a resend.
func (s *Service) Register(ctx context.Context, input RegisterInput) (model.User, error) {
	if s.users == nil || s.verifications == nil {
		return model.User{}, fmt.Errorf("account stores are not configured")
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	if !validate.Email(email) || !validate.Required(firstName) || !validate.Required(lastName) {
		return model.User{}, ErrInvalidInput
	}
	if len([]rune(firstName)) > 100 || len([]rune(lastName)) > 100 {
		return model.User{}, ErrInvalidInput
	}

	role := input.Role
	if role == 0 {
		role = enums.RoleSpecialist
	}
	if !role.Valid() {
		return model.User{}, ErrInvalidInput
	}

	user, err := s.users.CreateUser(ctx, model.User{
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Role:      role,
	})
	if err != nil {
		if errors.Is(err, pgrepo.ErrEmailTaken) {
			return model.User{}, ErrUserExists
		}
		return model.User{}, fmt.Errorf("create user: %w", err)
	}

	if err := s.sendVerification(ctx, user.ID, user.Email); err != nil {
		s.logger.Warn("verification mail not sent", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	return user, nil
}

// Confirm sets the first password of an account and signs it in.
func (s *Service) Confirm(ctx context.Context, userID int64, token, password string) (AuthResult, error) {
	if userID <= 0 || strings.TrimSpace(token) == "" || !validate.Password(password) {
		return AuthResult{}, ErrInvalidInput
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return AuthResult{}, err
	}
	if user.IsVerified {
		return AuthResult{}, ErrAlreadyVerified
	}

	if err := s.consumeToken(ctx, userID, token); err != nil {
		return AuthResult{}, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return AuthResult{}, err
	}
	if err := s.users.SetPasswordAndVerify(ctx, userID, hash); err != nil {
		return AuthResult{}, fmt.Errorf("set password: %w", err)
	}
	user.PasswordHash = hash
	user.IsVerified = true

	return s.issueForUser(ctx, user)
}

func (s *Service) VerifyEmail(ctx context.Context, userID int64, token string) error {
	if userID <= 0 || strings.TrimSpace(token) == "" {
		return ErrInvalidInput
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}

	if err := s.consumeToken(ctx, userID, token); err != nil {
		return err
	}
	if err := s.users.MarkVerified(ctx, userID); err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	return nil
}

// Resend issues a fresh verification token. An explicit e-mail overrides the
// address on file for this message only.
func (s *Service) Resend(ctx context.Context, userID int64, email string) error {
	if userID <= 0 {
		return ErrInvalidInput
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" && !validate.Email(email) {
		return ErrInvalidInput
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}
	if email == "" {
		email = user.Email
	}

	return s.sendVerification(ctx, user.ID, email)
}

func (s *Service) Login(ctx context.Context, email, password string) (AuthResult, error) {
	if s.users == nil {
		return AuthResult{}, fmt.Errorf("user store is not configured")
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return AuthResult{}, ErrInvalidInput
	}

	if s.limiter != nil {
		retryAfter, err := s.limiter.RetryAfterLogin(ctx, email)
		if err != nil {
			s.logger.Warn("login limiter unavailable", zap.Error(err))
		} else if retryAfter > 0 {
			return AuthResult{}, &RateLimitedError{RetryAfterSec: retryAfter}
		}
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return AuthResult{}, s.loginFailed(ctx, email)
		}
		return AuthResult{}, fmt.Errorf("get user by email: %w", err)
	}
	if !user.IsVerified {
		return AuthResult{}, ErrUserNotVerified
	}
	if !CheckPassword(user.PasswordHash, password) {
		return AuthResult{}, s.loginFailed(ctx, email)
	}

	if s.limiter != nil {
		if err := s.limiter.ResetLogin(ctx, email); err != nil {
			s.logger.Warn("reset login limiter", zap.Error(err))
		}
	}

	return s.issueForUser(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return AuthResult{}, ErrInvalidInput
	}

	session, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrRefreshNotFound) || errors.Is(err, ErrUnauthorized) {
			return AuthResult{}, ErrUnauthorized
		}
		return AuthResult{}, fmt.Errorf("get refresh token session: %w", err)
	}
	if s.now().After(session.ExpiresAt) {
		return AuthResult{}, ErrUnauthorized
	}

	newRefreshToken, err := NewRefreshToken()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate refresh token: %w", err)
	}

	newExpiresAt := s.now().Add(s.refreshTTL)
	if err := s.sessions.RotateRefresh(ctx, session.SID, refreshToken, newRefreshToken, newExpiresAt); err != nil {
		if errors.Is(err, ErrRefreshNotFound) || errors.Is(err, ErrUnauthorized) {
			return AuthResult{}, ErrUnauthorized
		}
		return AuthResult{}, fmt.Errorf("rotate refresh token: %w", err)
	}

	accessToken, accessExpires, err := s.jwt.GenerateAccessToken(session.UserID, session.SID, session.Role)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate access token: %w", err)
	}

	result := AuthResult{
		AccessToken:   accessToken,
		RefreshToken:  newRefreshToken,
		AccessExpires: accessExpires,
		User:          model.User{ID: session.UserID, Role: session.Role, IsVerified: true},
	}
	if s.users != nil {
		user, err := s.users.GetUserByID(ctx, session.UserID)
		if err != nil {
			if errors.Is(err, pgrepo.ErrUserNotFound) {
				_ = s.sessions.DeleteSession(ctx, session.SID)
				return AuthResult{}, ErrUnauthorized
			}
			return AuthResult{}, fmt.Errorf("get user: %w", err)
		}
		result.User = user
	}

	return result, nil
}

func (s *Service) Logout(ctx context.Context, sid string) error {
	if strings.TrimSpace(sid) == "" {
		return ErrInvalidInput
	}
	if err := s.sessions.DeleteSession(ctx, sid); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// LogoutAll revokes every session of the user. Used for self logout-all,
// admin revocation, role changes and account deletion.
func (s *Service) LogoutAll(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return ErrInvalidInput
	}
	if err := s.sessions.DeleteAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("delete all sessions: %w", err)
	}
	return nil
}

func (s *Service) ValidateAccessToken(ctx context.Context, accessToken string) (AccessClaims, error) {
	claims, err := s.jwt.ParseAccessToken(accessToken)
	if err != nil {
		return AccessClaims{}, ErrUnauthorized
	}

	session, err := s.sessions.GetSession(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrUnauthorized) {
			return AccessClaims{}, ErrUnauthorized
		}
		return AccessClaims{}, fmt.Errorf("get session: %w", err)
	}

	if session.UserID != claims.UserID || session.Role != claims.Role {
		return AccessClaims{}, ErrUnauthorized
	}
	if s.now().After(session.ExpiresAt) {
		return AccessClaims{}, ErrUnauthorized
	}

	return claims, nil
}

func (s *Service) VerificationURL(userID int64, token string) string {
	q := url.Values{}
	q.Set("user_id", strconv.FormatInt(userID, 10))
	q.Set("token", token)
	return s.appBaseURL + "/confirm-password?" + q.Encode()
}

func (s *Service) sendVerification(ctx context.Context, userID int64, email string) error {
	token, err := NewVerificationToken()
	if err != nil {
		return fmt.Errorf("generate verification token: %w", err)
	}
	if err := s.verifications.SaveVerification(ctx, userID, token, s.now().Add(s.verificationTTL)); err != nil {
		return fmt.Errorf("save verification token: %w", err)
	}
	if s.mailer == nil {
		return fmt.Errorf("mailer is not configured")
	}
	if err := s.mailer.SendVerification(ctx, email, s.VerificationURL(userID, token)); err != nil {
		return fmt.Errorf("send verification: %w", err)
	}
	return nil
}

func (s *Service) consumeToken(ctx context.Context, userID int64, token string) error {
	if s.verifications == nil {
		return fmt.Errorf("verification store is not configured")
	}
	ok, err := s.verifications.ConsumeVerification(ctx, userID, token, s.now())
	if err != nil {
		return fmt.Errorf("consume verification token: %w", err)
	}
	if !ok {
		return ErrTokenInvalid
	}
	return nil
}

func (s *Service) loadUser(ctx context.Context, userID int64) (model.User, error) {
	if s.users == nil {
		return model.User{}, fmt.Errorf("user store is not configured")
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *Service) loginFailed(ctx context.Context, email string) error {
	if s.limiter == nil {
		return ErrInvalidCredentials
	}
	if _, err := s.limiter.RecordLoginFailure(ctx, email); err != nil {
		s.logger.Warn("record login failure", zap.Error(err))
	}
	return ErrInvalidCredentials
}

func (s *Service) issueForUser(ctx context.Context, user model.User) (AuthResult, error) {
	sessionID, err := NewSessionID()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate session id: %w", err)
	}
	refreshToken, err := NewRefreshToken()
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate refresh token: %w", err)
	}

	session := SessionRecord{
		SID:       sessionID,
		UserID:    user.ID,
		Role:      user.Role,
		ExpiresAt: s.now().Add(s.refreshTTL),
	}
	if err := s.sessions.Create(ctx, session, refreshToken); err != nil {
		return AuthResult{}, fmt.Errorf("create session: %w", err)
	}

	accessToken, accessExpires, err := s.jwt.GenerateAccessToken(user.ID, sessionID, user.Role)
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate access token: %w", err)
	}

	return AuthResult{
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
		AccessExpires: accessExpires,
		User:          user,
	}, nil
}
