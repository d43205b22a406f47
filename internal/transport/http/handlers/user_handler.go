package handlers

import (
	"errors"
	"net/http"

	"github.com/ivankudzin/dochub/internal/domain/enums"
	authsvc "github.com/ivankudzin/dochub/internal/services/auth"
	mediasvc "github.com/ivankudzin/dochub/internal/services/media"
	usersvc "github.com/ivankudzin/dochub/internal/services/users"
	"github.com/ivankudzin/dochub/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/dochub/internal/transport/http/errors"
)

type UserHandler struct {
	service *usersvc.Service
}

func NewUserHandler(service *usersvc.Service) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "USER_SERVICE_UNAVAILABLE", "user service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	profile, err := h.service.Get(r.Context(), identity.UserID)
	if err != nil {
		handleUserError(w, err)
		return
	}
	httperrors.WriteData(w, http.StatusOK, "user profile", profileDTO(profile))
}

// ByID serves GET /users?id=N. Without id it falls back to the caller.
func (h *UserHandler) ByID(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "USER_SERVICE_UNAVAILABLE", "user service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	userID, ok := queryID(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "id must be a positive integer")
		return
	}
	if userID == 0 {
		userID = identity.UserID
	}

	profile, err := h.service.Get(r.Context(), userID)
	if err != nil {
		handleUserError(w, err)
		return
	}
	httperrors.WriteData(w, http.StatusOK, "user profile", profileDTO(profile))
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "USER_SERVICE_UNAVAILABLE", "user service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	targetID, ok := queryID(r, "user_id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "user_id must be a positive integer")
		return
	}

	var req dto.UpdateProfileRequest
	if !decodeValid(w, r, &req) {
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), viewerOf(identity), targetID, req.FirstName, req.LastName)
	if err != nil {
		handleUserError(w, err)
		return
	}
	httperrors.WriteData(w, http.StatusOK, "profile updated", profileDTO(profile))
}

func (h *UserHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "USER_SERVICE_UNAVAILABLE", "user service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	targetID, ok := queryID(r, "user_id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "user_id must be a positive integer")
		return
	}

	file, header, ok := readUpload(w, r, "photo", mediasvc.MaxPhotoBytes)
	if !ok {
		return
	}
	defer file.Close()

	profile, err := h.service.UploadPhoto(r.Context(), viewerOf(identity), targetID, header.Filename, uploadContentType(header), file, header.Size)
	if err != nil {
		handleUserError(w, err)
		return
	}
	httperrors.WriteData(w, http.StatusOK, "photo uploaded", profileDTO(profile))
}

func (h *UserHandler) GenerateAvatar(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "USER_SERVICE_UNAVAILABLE", "user service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	targetID, ok := queryID(r, "user_id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "user_id must be a positive integer")
		return
	}

	profile, err := h.service.GenerateAvatar(r.Context(), viewerOf(identity), targetID)
	if err != nil {
		handleUserError(w, err)
		return
	}
	httperrors.WriteData(w, http.StatusOK, "avatar generated", profileDTO(profile))
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "USER_SERVICE_UNAVAILABLE", "user service is unavailable")
		return
	}

	profiles, err := h.service.List(r.Context())
	if err != nil {
		handleUserError(w, err)
		return
	}

	users := make([]dto.User, 0, len(profiles))
	for _, p := range profiles {
		users = append(users, profileDTO(p))
	}
	httperrors.WriteData(w, http.StatusOK, "users", dto.UsersResponse{Count: len(users), Users: users})
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "USER_SERVICE_UNAVAILABLE", "user service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	targetID, ok := queryID(r, "id")
	if !ok || targetID == 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "id is required")
		return
	}

	if err := h.service.Delete(r.Context(), viewerOf(identity), targetID); err != nil {
		handleUserError(w, err)
		return
	}
	httperrors.WriteData(w, http.StatusOK, "user deleted", dto.StatusResponse{Status: "deleted"})
}

// RevokeSessions closes every session of ?id=N, admin only.
func (h *UserHandler) RevokeSessions(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "USER_SERVICE_UNAVAILABLE", "user service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	targetID, ok := queryID(r, "id")
	if !ok || targetID == 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "id is required")
		return
	}

	if err := h.service.RevokeSessions(r.Context(), viewerOf(identity), targetID); err != nil {
		handleUserError(w, err)
		return
	}
	httperrors.WriteData(w, http.StatusOK, "sessions revoked", dto.StatusResponse{Status: "logged_out"})
}

func (h *UserHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "USER_SERVICE_UNAVAILABLE", "user service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	targetID, ok := queryID(r, "user_id")
	if !ok || targetID == 0 {
		writeBadRequest(w, "VALIDATION_ERROR", "user_id is required")
		return
	}

	var req dto.ChangeRoleRequest
	if !decodeValid(w, r, &req) {
		return
	}

	profile, err := h.service.ChangeRole(r.Context(), viewerOf(identity), targetID, enums.Role(req.RoleID))
	if err != nil {
		handleUserError(w, err)
		return
	}
	httperrors.WriteData(w, http.StatusOK, "role changed", profileDTO(profile))
}

func profileDTO(p usersvc.Profile) dto.User {
	return toUserDTO(p.User, p.PhotoURL)
}

func handleUserError(w http.ResponseWriter, err error) {
	if writeMediaError(w, err) {
		return
	}
	switch {
	case errors.Is(err, usersvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	case errors.Is(err, usersvc.ErrNotFound), errors.Is(err, authsvc.ErrUserNotFound):
		writeNotFound(w, "USER_NOT_FOUND", "user not found")
	case errors.Is(err, usersvc.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "not enough permissions")
	case errors.Is(err, usersvc.ErrSelfDelete):
		writeBadRequest(w, "CANNOT_DELETE_SELF", "admins cannot delete their own account")
	case errors.Is(err, usersvc.ErrRoleNotFound):
		writeBadRequest(w, "ROLE_NOT_FOUND", "role not found")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
