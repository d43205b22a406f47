package handlers

import (
	"errors"
	"net/http"

	"github.com/ivankudzin/dochub/internal/domain/model"
	catsvc "github.com/ivankudzin/dochub/internal/services/categories"
	"github.com/ivankudzin/dochub/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/dochub/internal/transport/http/errors"
)

type CategoryHandler struct {
	service *catsvc.Service
}

func NewCategoryHandler(service *catsvc.Service) *CategoryHandler {
	return &CategoryHandler{service: service}
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CATEGORY_SERVICE_UNAVAILABLE", "category service is unavailable")
		return
	}

	categories, err := h.service.List(r.Context())
	if err != nil {
		handleCategoryError(w, err)
		return
	}

	out := make([]dto.Category, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryDTO(c))
	}
	httperrors.WriteData(w, http.StatusOK, "categories", out)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CATEGORY_SERVICE_UNAVAILABLE", "category service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req dto.CreateCategoryRequest
	if !decodeValid(w, r, &req) {
		return
	}

	category, err := h.service.Create(r.Context(), viewerOf(identity), req.Name)
	if err != nil {
		handleCategoryError(w, err)
		return
	}
	httperrors.WriteData(w, http.StatusCreated, "category created", categoryDTO(category))
}

func (h *CategoryHandler) Documents(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CATEGORY_SERVICE_UNAVAILABLE", "category service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	categoryID, ok := pathID(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "category id must be a positive integer")
		return
	}

	category, items, err := h.service.Documents(r.Context(), viewerOf(identity), categoryID)
	if err != nil {
		handleCategoryError(w, err)
		return
	}

	docs := toDocumentDTOs(items)
	httperrors.WriteData(w, http.StatusOK, "category documents", dto.CategoryDocumentsResponse{
		Category:  categoryDTO(category),
		Count:     len(docs),
		Documents: docs,
	})
}

func categoryDTO(c model.Category) dto.Category {
	return dto.Category{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt}
}

func handleCategoryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	case errors.Is(err, catsvc.ErrNotFound):
		writeNotFound(w, "CATEGORY_NOT_FOUND", "category not found")
	case errors.Is(err, catsvc.ErrExists):
		writeConflict(w, "CATEGORY_EXISTS", "category already exists")
	case errors.Is(err, catsvc.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "not enough permissions")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
