package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ivankudzin/dochub/internal/domain/enums"
	authsvc "github.com/ivankudzin/dochub/internal/services/auth"
	"github.com/ivankudzin/dochub/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/dochub/internal/transport/http/errors"
)

type AuthHandler struct {
	service *authsvc.Service
	photos  URLSigner
}

func NewAuthHandler(service *authsvc.Service, photos URLSigner) *AuthHandler {
	return &AuthHandler{service: service, photos: photos}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	var req dto.RegisterRequest
	if !decodeValid(w, r, &req) {
		return
	}

	role := enums.Role(req.RoleID)
	if role == 0 && strings.TrimSpace(req.Role) != "" {
		parsed, ok := enums.ParseRole(req.Role)
		if !ok {
			writeBadRequest(w, "VALIDATION_ERROR", "unknown role")
			return
		}
		role = parsed
	}

	user, err := h.service.Register(r.Context(), authsvc.RegisterInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      role,
	})
	if err != nil {
		handleAuthError(w, err)
		return
	}

	httperrors.WriteData(w, http.StatusCreated, "registration successful, check your e-mail", dto.AuthResponse{
		User:     toUserDTO(user, ""),
		Verified: false,
	})
}

func (h *AuthHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	var req dto.ConfirmRequest
	if !decodeValid(w, r, &req) {
		return
	}

	res, err := h.service.Confirm(r.Context(), req.UserID, req.Token, req.Password)
	if err != nil {
		handleAuthError(w, err)
		return
	}

	httperrors.WriteData(w, http.StatusOK, "password set, account verified", h.authResponse(r, res))
}

// VerifyEmail is the link-only confirmation kept for old e-mails.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if err != nil || userID <= 0 || token == "" {
		writeBadRequest(w, "VALIDATION_ERROR", "user_id and token are required")
		return
	}

	if err := h.service.VerifyEmail(r.Context(), userID, token); err != nil {
		handleAuthError(w, err)
		return
	}

	httperrors.WriteData(w, http.StatusOK, "e-mail verified", dto.StatusResponse{Status: "verified"})
}

func (h *AuthHandler) Resend(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	var req dto.ResendRequest
	if !decodeValid(w, r, &req) {
		return
	}

	if err := h.service.Resend(r.Context(), req.UserID, req.Email); err != nil {
		handleAuthError(w, err)
		return
	}

	httperrors.WriteData(w, http.StatusOK, "verification e-mail sent", dto.StatusResponse{Status: "sent"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	var req dto.LoginRequest
	if !decodeValid(w, r, &req) {
		return
	}

	res, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleAuthError(w, err)
		return
	}

	httperrors.WriteData(w, http.StatusOK, "login successful", h.authResponse(r, res))
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}

	var req dto.RefreshRequest
	if !decodeValid(w, r, &req) {
		return
	}

	res, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		handleAuthError(w, err)
		return
	}

	httperrors.WriteData(w, http.StatusOK, "tokens refreshed", h.authResponse(r, res))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	if err := h.service.Logout(r.Context(), identity.SID); err != nil {
		handleAuthError(w, err)
		return
	}

	httperrors.WriteData(w, http.StatusOK, "logged out", dto.StatusResponse{Status: "logged_out"})
}

func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "AUTH_SERVICE_UNAVAILABLE", "auth service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	if err := h.service.LogoutAll(r.Context(), identity.UserID); err != nil {
		handleAuthError(w, err)
		return
	}

	httperrors.WriteData(w, http.StatusOK, "all sessions closed", dto.StatusResponse{Status: "logged_out"})
}

func (h *AuthHandler) authResponse(r *http.Request, res authsvc.AuthResult) dto.AuthResponse {
	photoURL := ""
	if h.photos != nil && res.User.PhotoKey != "" {
		photoURL, _ = h.photos.URL(r.Context(), res.User.PhotoKey)
	}
	return dto.AuthResponse{
		User:              toUserDTO(res.User, photoURL),
		AccessToken:       res.AccessToken,
		RefreshToken:      res.RefreshToken,
		AccessTokenSnake:  res.AccessToken,
		RefreshTokenSnake: res.RefreshToken,
		Verified:          res.User.IsVerified,
		ExpiresInSec:      secondsUntil(res.AccessExpires),
	}
}

func handleAuthError(w http.ResponseWriter, err error) {
	var limited *authsvc.RateLimitedError
	switch {
	case errors.As(err, &limited):
		w.Header().Set("Retry-After", strconv.FormatInt(limited.RetryAfterSec, 10))
		httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
			Code:          "TOO_MANY_ATTEMPTS",
			Message:       "too many login attempts",
			RetryAfterSec: limited.RetryAfterSec,
		})
	case errors.Is(err, authsvc.ErrInvalidInput):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	case errors.Is(err, authsvc.ErrUserExists):
		writeConflict(w, "USER_ALREADY_EXISTS", "user with this e-mail already exists")
	case errors.Is(err, authsvc.ErrTokenInvalid):
		writeBadRequest(w, "TOKEN_INVALID", "verification token is invalid or expired")
	case errors.Is(err, authsvc.ErrAlreadyVerified):
		writeConflict(w, "ALREADY_VERIFIED", "user is already verified")
	case errors.Is(err, authsvc.ErrUserNotFound):
		writeNotFound(w, "USER_NOT_FOUND", "user not found")
	case errors.Is(err, authsvc.ErrInvalidCredentials):
		writeUnauthorized(w, "INVALID_CREDENTIALS", "invalid e-mail or password")
	case errors.Is(err, authsvc.ErrUserNotVerified):
		writeForbidden(w, "USER_NOT_VERIFIED", "user is not verified")
	case errors.Is(err, authsvc.ErrUnauthorized):
		writeUnauthorized(w, "UNAUTHORIZED", "authentication failed")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
