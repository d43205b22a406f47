package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ivankudzin/dochub/internal/domain/model"
	"github.com/ivankudzin/dochub/internal/pkg/validate"
	"github.com/ivankudzin/dochub/internal/services/access"
	authsvc "github.com/ivankudzin/dochub/internal/services/auth"
	docsvc "github.com/ivankudzin/dochub/internal/services/documents"
	"github.com/ivankudzin/dochub/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/dochub/internal/transport/http/errors"
)

const maxJSONBody = 1 << 20

// URLSigner presigns object keys such as user photos.
type URLSigner interface {
	URL(ctx context.Context, key string) (string, error)
}

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxJSONBody))
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

// decodeValid decodes the body and runs struct validation. It writes the 400
// response itself and reports whether the handler may continue.
func decodeValid(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := decodeJSON(r, target); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return false
	}
	return validBody(w, target)
}

func validBody(w http.ResponseWriter, target any) bool {
	if err := validate.Struct(target); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "request validation failed"
	}
	names := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		names = append(names, strings.ToLower(fe.Field()))
	}
	return fmt.Sprintf("invalid fields: %s", strings.Join(names, ", "))
}

func requireIdentity(w http.ResponseWriter, r *http.Request) (authsvc.Identity, bool) {
	identity, ok := authsvc.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "UNAUTHORIZED", "authentication required")
		return authsvc.Identity{}, false
	}
	return identity, true
}

func viewerOf(identity authsvc.Identity) access.Viewer {
	return access.Viewer{UserID: identity.UserID, Role: identity.Role}
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// queryID parses an optional positive id from the query. Missing yields 0.
func queryID(r *http.Request, name string) (int64, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func writeBadRequest(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusBadRequest, httperrors.APIError{Code: code, Message: message})
}

func writeUnauthorized(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusUnauthorized, httperrors.APIError{Code: code, Message: message})
}

func writeForbidden(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusForbidden, httperrors.APIError{Code: code, Message: message})
}

func writeNotFound(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusNotFound, httperrors.APIError{Code: code, Message: message})
}

func writeConflict(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusConflict, httperrors.APIError{Code: code, Message: message})
}

func writeInternal(w http.ResponseWriter, code, message string) {
	httperrors.Write(w, http.StatusInternalServerError, httperrors.APIError{Code: code, Message: message})
}

func toUserDTO(user model.User, photoURL string) dto.User {
	roleName := user.RoleName
	if roleName == "" {
		roleName = user.Role.Name()
	}
	return dto.User{
		ID:         user.ID,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		Email:      user.Email,
		PhotoPath:  photoURL,
		IsVerified: user.IsVerified,
		RoleID:     int(user.Role),
		Role:       roleName,
		CreatedAt:  user.CreatedAt,
		ChangedAt:  user.UpdatedAt,
		Initials:   user.Initials(),
	}
}

func toDocumentDTO(item docsvc.Item) dto.Document {
	return dto.Document{
		ID:             item.ID,
		Title:          item.Title,
		PDFPath:        item.FileURL,
		UserID:         item.AuthorID,
		FirstName:      item.AuthorFirst,
		LastName:       item.AuthorLast,
		PhotoPath:      item.AuthorPhotoURL,
		RoleID:         int(item.AuthorRole),
		Category:       dto.CategoryRef{ID: item.Category.ID, Name: item.Category.Name},
		AccessibleRole: dto.RoleRef{ID: int(item.Audience), Name: item.Audience.Name()},
		CreatedAt:      item.CreatedAt,
		LikesCount:     item.LikesCount,
		CommentsCount:  item.CommentsCount,
		IsViewed:       item.IsViewed,
		IsLiked:        item.IsLiked,
	}
}

func toDocumentDTOs(items []docsvc.Item) []dto.Document {
	out := make([]dto.Document, 0, len(items))
	for _, item := range items {
		out = append(out, toDocumentDTO(item))
	}
	return out
}

func secondsUntil(t time.Time) int64 {
	return maxInt64(0, int64(time.Until(t).Seconds()))
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
