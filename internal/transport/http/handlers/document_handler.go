package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ivankudzin/dochub/internal/domain/enums"
	docsvc "github.com/ivankudzin/dochub/internal/services/documents"
	mediasvc "github.com/ivankudzin/dochub/internal/services/media"
	"github.com/ivankudzin/dochub/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/dochub/internal/transport/http/errors"
)

type DocumentHandler struct {
	service *docsvc.Service
}

func NewDocumentHandler(service *docsvc.Service) *DocumentHandler {
	return &DocumentHandler{service: service}
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "DOCUMENT_SERVICE_UNAVAILABLE", "document service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	categoryID, ok := queryID(r, "category_id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "category_id must be a positive integer")
		return
	}

	items, err := h.service.List(r.Context(), viewerOf(identity), categoryID)
	if err != nil {
		handleDocumentError(w, err)
		return
	}

	docs := toDocumentDTOs(items)
	httperrors.WriteData(w, http.StatusOK, "documents", dto.DocumentsResponse{Count: len(docs), Documents: docs})
}

// Create accepts multipart/form-data with a JSON "metadata" part and a "file" part.
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "DOCUMENT_SERVICE_UNAVAILABLE", "document service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if !viewerOf(identity).IsModerator() {
		writeForbidden(w, "FORBIDDEN", "not enough permissions")
		return
	}

	file, header, ok := readUpload(w, r, "file", mediasvc.MaxDocumentBytes)
	if !ok {
		return
	}
	defer file.Close()

	var meta dto.DocumentMetadata
	decoder := json.NewDecoder(strings.NewReader(r.FormValue("metadata")))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&meta); err != nil {
		writeBadRequest(w, "INVALID_METADATA", "metadata must be a JSON object")
		return
	}
	if !validBody(w, &meta) {
		return
	}

	item, err := h.service.Create(r.Context(), viewerOf(identity), docsvc.CreateInput{
		Title:       meta.Title,
		CategoryID:  meta.CategoryID,
		Audience:    enums.Role(meta.AccessibleRole),
		FileName:    header.Filename,
		ContentType: uploadContentType(header),
		Body:        file,
		Size:        header.Size,
	})
	if err != nil {
		handleDocumentError(w, err)
		return
	}

	httperrors.WriteData(w, http.StatusCreated, "document uploaded", toDocumentDTO(item))
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "DOCUMENT_SERVICE_UNAVAILABLE", "document service is unavailable")
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

	item, err := h.service.Get(r.Context(), viewerOf(identity), docID)
	if err != nil {
		handleDocumentError(w, err)
		return
	}
	httperrors.WriteData(w, http.StatusOK, "document", toDocumentDTO(item))
}

func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "DOCUMENT_SERVICE_UNAVAILABLE", "document service is unavailable")
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

	var req dto.UpdateDocumentRequest
	if !decodeValid(w, r, &req) {
		return
	}

	item, err := h.service.UpdateTitle(r.Context(), viewerOf(identity), docID, req.Title)
	if err != nil {
		handleDocumentError(w, err)
		return
	}
	httperrors.WriteData(w, http.StatusOK, "document updated", toDocumentDTO(item))
}

// File redirects to a short-lived presigned URL of the stored PDF.
func (h *DocumentHandler) File(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "DOCUMENT_SERVICE_UNAVAILABLE", "document service is unavailable")
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

	url, err := h.service.FileURL(r.Context(), viewerOf(identity), docID)
	if err != nil {
		handleDocumentError(w, err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "DOCUMENT_SERVICE_UNAVAILABLE", "document service is unavailable")
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

	if err := h.service.Delete(r.Context(), viewerOf(identity), docID); err != nil {
		handleDocumentError(w, err)
		return
	}
	httperrors.WriteData(w, http.StatusOK, "document deleted", dto.StatusResponse{Status: "deleted"})
}

func handleDocumentError(w http.ResponseWriter, err error) {
	if writeMediaError(w, err) {
		return
	}
	switch {
	case errors.Is(err, docsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	case errors.Is(err, docsvc.ErrNotFound):
		writeNotFound(w, "DOCUMENT_NOT_FOUND", "document not found")
	case errors.Is(err, docsvc.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "not enough permissions")
	case errors.Is(err, docsvc.ErrCategoryNotFound):
		writeNotFound(w, "CATEGORY_NOT_FOUND", "category not found")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
