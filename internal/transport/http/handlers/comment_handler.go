package handlers

import (
	"errors"
	"net/http"

	commentsvc "github.com/ivankudzin/dochub/internal/services/comments"
	"github.com/ivankudzin/dochub/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/dochub/internal/transport/http/errors"
)

type CommentHandler struct {
	service *commentsvc.Service
}

func NewCommentHandler(service *commentsvc.Service) *CommentHandler {
	return &CommentHandler{service: service}
}

func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "COMMENT_SERVICE_UNAVAILABLE", "comment service is unavailable")
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

	items, err := h.service.List(r.Context(), viewerOf(identity), docID)
	if err != nil {
		handleCommentError(w, err)
		return
	}

	comments := make([]dto.Comment, 0, len(items))
	for _, item := range items {
		comments = append(comments, commentDTO(item))
	}
	httperrors.WriteData(w, http.StatusOK, "comments", dto.CommentsResponse{Count: len(comments), Comments: comments})
}

func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "COMMENT_SERVICE_UNAVAILABLE", "comment service is unavailable")
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

	var req dto.CreateCommentRequest
	if !decodeValid(w, r, &req) {
		return
	}

	item, err := h.service.Add(r.Context(), viewerOf(identity), docID, req.Text)
	if err != nil {
		handleCommentError(w, err)
		return
	}
	httperrors.WriteData(w, http.StatusCreated, "comment added", commentDTO(item))
}

func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "COMMENT_SERVICE_UNAVAILABLE", "comment service is unavailable")
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
	commentID, ok := pathID(r, "comment_id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "comment id must be a positive integer")
		return
	}

	if err := h.service.Delete(r.Context(), viewerOf(identity), docID, commentID); err != nil {
		handleCommentError(w, err)
		return
	}
	httperrors.WriteData(w, http.StatusOK, "comment deleted", dto.StatusResponse{Status: "deleted"})
}

func commentDTO(item commentsvc.Item) dto.Comment {
	return dto.Comment{
		ID:         item.ID,
		DocumentID: item.DocumentID,
		UserID:     item.UserID,
		Text:       item.Text,
		FirstName:  item.FirstName,
		LastName:   item.LastName,
		PhotoPath:  item.PhotoURL,
		CreatedAt:  item.CreatedAt,
	}
}

func handleCommentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, commentsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "comment text must be 1..1000 characters")
	case errors.Is(err, commentsvc.ErrDocumentNotFound):
		writeNotFound(w, "DOCUMENT_NOT_FOUND", "document not found")
	case errors.Is(err, commentsvc.ErrNotFound):
		writeNotFound(w, "COMMENT_NOT_FOUND", "comment not found")
	case errors.Is(err, commentsvc.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "only the author or an admin can delete a comment")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
