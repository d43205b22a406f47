package handlers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ivankudzin/dochub/internal/domain/enums"
	docsvc "github.com/ivankudzin/dochub/internal/services/documents"
	likesvc "github.com/ivankudzin/dochub/internal/services/likes"
)

func TestLikeHandlerFlow(t *testing.T) {
	docs := newMemDocuments()
	id := docs.seed("everyone", enums.AudienceAll)
	hidden := docs.seed("hr-only", enums.RoleHR)

	guard := docsvc.NewService(docs, nil, nil)
	h := NewLikeHandler(likesvc.NewService(&memLikes{likes: map[likeKey]struct{}{}}, guard))

	r := chi.NewRouter()
	r.Put("/documents/{id}/like", h.Like)
	r.Delete("/documents/{id}/like", h.Unlike)
	r.Get("/documents/{id}/likes", h.Count)

	call := func(method, path string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, withIdentity(httptest.NewRequest(method, path, nil), 7, enums.RoleSpecialist))
		return rr
	}
	base := "/documents/" + strconv.FormatInt(id, 10)

	rr := call(http.MethodPut, base+"/like")
	if rr.Code != http.StatusOK {
		t.Fatalf("like: got %d want %d", rr.Code, http.StatusOK)
	}
	var data struct {
		DocumentID int64 `json:"document_id"`
		LikesCount int   `json:"likes_count"`
	}
	decodeEnvelope(t, rr, &data)
	if data.DocumentID != id || data.LikesCount != 1 {
		t.Fatalf("unexpected likes payload: %+v", data)
	}

	rr = call(http.MethodPut, base+"/like")
	if rr.Code != http.StatusConflict || errorCode(t, rr) != "ALREADY_LIKED" {
		t.Fatalf("second like: got %d %s", rr.Code, rr.Body.String())
	}

	rr = call(http.MethodDelete, base+"/like")
	if rr.Code != http.StatusOK {
		t.Fatalf("unlike: got %d want %d", rr.Code, http.StatusOK)
	}
	rr = call(http.MethodDelete, base+"/like")
	if rr.Code != http.StatusNotFound || errorCode(t, rr) != "LIKE_NOT_FOUND" {
		t.Fatalf("second unlike: got %d %s", rr.Code, rr.Body.String())
	}

	rr = call(http.MethodGet, base+"/likes")
	decodeEnvelope(t, rr, &data)
	if data.LikesCount != 0 {
		t.Fatalf("unexpected final count: %d", data.LikesCount)
	}

	rr = call(http.MethodPut, "/documents/"+strconv.FormatInt(hidden, 10)+"/like")
	if rr.Code != http.StatusNotFound || errorCode(t, rr) != "DOCUMENT_NOT_FOUND" {
		t.Fatalf("hidden like: got %d %s", rr.Code, rr.Body.String())
	}
}
