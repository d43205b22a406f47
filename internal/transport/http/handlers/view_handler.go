package handlers

import (
	"errors"
	"net/http"

	viewsvc "github.com/ivankudzin/dochub/internal/services/views"
	"github.com/ivankudzin/dochub/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/dochub/internal/transport/http/errors"
)

type ViewHandler struct {
	service *viewsvc.Service
}

func NewViewHandler(service *viewsvc.Service) *ViewHandler {
	return &ViewHandler{service: service}
}

func (h *ViewHandler) Mark(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "VIEW_SERVICE_UNAVAILABLE", "view service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	docID, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "document id must be a positive integer")
		return
	}

	if err := h.service.Mark(r.Context(), viewerOf(identity), docID); err != nil {
		handleViewError(w, err)
		return
	}
	httperrors.WriteData(w, http.StatusOK, "document viewed", dto.StatusResponse{Status: "viewed"})
}

func (h *ViewHandler) Count(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "VIEW_SERVICE_UNAVAILABLE", "view service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	docID, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "document id must be a positive integer")
		return
	}

	count, err := h.service.Count(r.Context(), viewerOf(identity), docID)
	if err != nil {
		handleViewError(w, err)
		return
	}
	httperrors.WriteData(w, http.StatusOK, "views count", dto.ViewsResponse{ViewsCount: count})
}

func (h *ViewHandler) Viewers(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "VIEW_SERVICE_UNAVAILABLE", "view service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	docID, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "document id must be a positive integer")
		return
	}

	items, err := h.service.Viewers(r.Context(), viewerOf(identity), docID)
	if err != nil {
		handleViewError(w, err)
		return
	}

	viewers := make([]dto.Viewer, 0, len(items))
	for _, item := range items {
		roleName := item.RoleName
		if roleName == "" {
			roleName = item.Role.Name()
		}
		viewers = append(viewers, dto.Viewer{
			UserID:    item.UserID,
			FirstName: item.FirstName,
			LastName:  item.LastName,
			PhotoPath: item.PhotoURL,
			RoleID:    int(item.Role),
			Role:      roleName,
			ViewedAt:  item.ViewedAt,
		})
	}
	httperrors.WriteData(w, http.StatusOK, "viewers", dto.ViewersResponse{Count: len(viewers), Viewers: viewers})
}

func handleViewError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, viewsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	case errors.Is(err, viewsvc.ErrDocumentNotFound):
		writeNotFound(w, "DOCUMENT_NOT_FOUND", "document not found")
	case errors.Is(err, viewsvc.ErrAlreadyViewed):
		writeConflict(w, "ALREADY_VIEWED", "document already viewed")
	case errors.Is(err, viewsvc.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "not enough permissions")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
