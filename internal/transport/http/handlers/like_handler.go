package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/ivankudzin/dochub/internal/services/access"
	likesvc "github.com/ivankudzin/dochub/internal/services/likes"
	"github.com/ivankudzin/dochub/internal/transport/http/dto"
	httperrors "github.com/ivankudzin/dochub/internal/transport/http/errors"
)

type LikeHandler struct {
	service *likesvc.Service
}

func NewLikeHandler(service *likesvc.Service) *LikeHandler {
	return &LikeHandler{service: service}
}

func (h *LikeHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "document liked", h.likeOp)
}

func (h *LikeHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "like removed", h.unlikeOp)
}

func (h *LikeHandler) Count(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "likes count", h.countOp)
}

type likeOp func(ctx context.Context, viewer access.Viewer, documentID int64) (int, error)

func (h *LikeHandler) likeOp(ctx context.Context, viewer access.Viewer, documentID int64) (int, error) {
	return h.service.Like(ctx, viewer, documentID)
}

func (h *LikeHandler) unlikeOp(ctx context.Context, viewer access.Viewer, documentID int64) (int, error) {
	return h.service.Unlike(ctx, viewer, documentID)
}

func (h *LikeHandler) countOp(ctx context.Context, viewer access.Viewer, documentID int64) (int, error) {
	return h.service.Count(ctx, viewer, documentID)
}

func (h *LikeHandler) respond(w http.ResponseWriter, r *http.Request, message string, op likeOp) {
	if h.service == nil {
		writeInternal(w, "LIKE_SERVICE_UNAVAILABLE", "like service is unavailable")
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

	count, err := op(r.Context(), viewerOf(identity), docID)
	if err != nil {
		handleLikeError(w, err)
		return
	}
	httperrors.WriteData(w, http.StatusOK, message, dto.LikesResponse{DocumentID: docID, LikesCount: count})
}

func handleLikeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, likesvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	case errors.Is(err, likesvc.ErrDocumentNotFound):
		writeNotFound(w, "DOCUMENT_NOT_FOUND", "document not found")
	case errors.Is(err, likesvc.ErrAlreadyLiked):
		writeConflict(w, "ALREADY_LIKED", "document already liked")
	case errors.Is(err, likesvc.ErrLikeNotFound):
		writeNotFound(w, "LIKE_NOT_FOUND", "like not found")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
