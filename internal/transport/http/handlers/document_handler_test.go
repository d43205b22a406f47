package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ivankudzin/dochub/internal/domain/enums"
	docsvc "github.com/ivankudzin/dochub/internal/services/documents"
	mediasvc "github.com/ivankudzin/dochub/internal/services/media"
)

type documentTestEnv struct {
	router  chi.Router
	store   *memDocuments
	objects *memObjects
}

func newDocumentTestEnv() *documentTestEnv {
	store := newMemDocuments()
	objects := newMemObjects()
	svc := docsvc.NewService(store, mediasvc.NewService(objects, 0), nil)
	h := NewDocumentHandler(svc)

	r := chi.NewRouter()
	r.Get("/documents", h.List)
	r.Post("/documents", h.Create)
	r.Get("/documents/{id}", h.Get)
	r.Patch("/documents/{id}", h.Update)
	r.Get("/documents/{id}/file", h.File)
	r.Delete("/documents/{id}", h.Delete)

	return &documentTestEnv{router: r, store: store, objects: objects}
}

func (e *documentTestEnv) do(req *http.Request, userID int64, role enums.Role) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, withIdentity(req, userID, role))
	return rr
}

func documentUpload(t *testing.T, metadata string, withFile bool) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("metadata", metadata); err != nil {
		t.Fatalf("write metadata: %v", err)
	}
	if withFile {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="file"; filename="Vacation policy.pdf"`)
		header.Set("Content-Type", "application/pdf")
		part, err := mw.CreatePart(header)
		if err != nil {
			t.Fatalf("create file part: %v", err)
		}
		if _, err := part.Write([]byte("%PDF-1.4 test")); err != nil {
			t.Fatalf("write file part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/documents", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestDocumentListAppliesRoleVisibility(t *testing.T) {
	env := newDocumentTestEnv()
	env.store.seed("everyone", enums.AudienceAll)
	env.store.seed("managers", enums.RoleManager)
	env.store.seed("hr-only", enums.RoleHR)

	cases := []struct {
		role enums.Role
		want int
	}{
		{enums.RoleSpecialist, 1},
		{enums.RoleManager, 2},
		{enums.RoleHR, 3},
		{enums.RoleAdmin, 3},
	}
	for _, tc := range cases {
		rr := env.do(httptest.NewRequest(http.MethodGet, "/documents", nil), 10, tc.role)
		if rr.Code != http.StatusOK {
			t.Fatalf("role %d: unexpected status: got %d want %d", tc.role, rr.Code, http.StatusOK)
		}
		var data struct {
			Count     int `json:"count"`
			Documents []struct {
				Title   string `json:"title"`
				PDFPath string `json:"pdf_path"`
			} `json:"documents"`
		}
		decodeEnvelope(t, rr, &data)
		if data.Count != tc.want || len(data.Documents) != tc.want {
			t.Fatalf("role %d: unexpected count: got %d want %d", tc.role, data.Count, tc.want)
		}
		if !strings.HasPrefix(data.Documents[0].PDFPath, "https://s3.test/") {
			t.Fatalf("expected presigned pdf_path, got %q", data.Documents[0].PDFPath)
		}
	}
}

func TestDocumentGetHiddenIsNotFound(t *testing.T) {
	env := newDocumentTestEnv()
	id := env.store.seed("managers", enums.RoleManager)
	path := "/documents/" + strconv.FormatInt(id, 10)

	rr := env.do(httptest.NewRequest(http.MethodGet, path, nil), 10, enums.RoleSpecialist)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusNotFound)
	}
	if code := errorCode(t, rr); code != "DOCUMENT_NOT_FOUND" {
		t.Fatalf("unexpected code: %q", code)
	}

	rr = env.do(httptest.NewRequest(http.MethodGet, path, nil), 10, enums.RoleManager)
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}

	rr = env.do(httptest.NewRequest(http.MethodGet, "/documents/abc", nil), 10, enums.RoleManager)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status for bad id: got %d want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestDocumentCreateMultipart(t *testing.T) {
	env := newDocumentTestEnv()
	meta := `{"title":"Vacation policy","category_id":1,"accessible_role":3}`

	rr := env.do(documentUpload(t, meta, true), 20, enums.RoleSpecialist)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("specialist upload: got %d want %d", rr.Code, http.StatusForbidden)
	}

	rr = env.do(documentUpload(t, meta, true), 2, enums.RoleHR)
	if rr.Code != http.StatusCreated {
		t.Fatalf("unexpected status: got %d want %d (%s)", rr.Code, http.StatusCreated, rr.Body.String())
	}
	var data struct {
		ID             int64 `json:"id"`
		UserID         int64 `json:"user_id"`
		AccessibleRole struct {
			ID int `json:"id"`
		} `json:"accessible_role"`
		Category struct {
			Name string `json:"name"`
		} `json:"category"`
	}
	decodeEnvelope(t, rr, &data)
	if data.ID == 0 || data.UserID != 2 || data.AccessibleRole.ID != 3 || data.Category.Name != "Policies" {
		t.Fatalf("unexpected document payload: %+v", data)
	}
	if len(env.objects.objects) != 1 {
		t.Fatalf("expected one stored object, got %d", len(env.objects.objects))
	}
	for key := range env.objects.objects {
		if !strings.HasPrefix(key, "documents/") || !strings.HasSuffix(key, "-Vacation_policy.pdf") {
			t.Fatalf("unexpected object key: %q", key)
		}
	}
}

func TestDocumentCreateRejectsBadInput(t *testing.T) {
	env := newDocumentTestEnv()

	cases := []struct {
		name     string
		meta     string
		withFile bool
		status   int
		code     string
	}{
		{"no file", `{"title":"T","category_id":1}`, false, http.StatusBadRequest, "FILE_REQUIRED"},
		{"broken metadata", `{"title":`, true, http.StatusBadRequest, "INVALID_METADATA"},
		{"missing title", `{"category_id":1}`, true, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad audience", `{"title":"T","category_id":1,"accessible_role":9}`, true, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown category", `{"title":"T","category_id":42}`, true, http.StatusNotFound, "CATEGORY_NOT_FOUND"},
	}
	for _, tc := range cases {
		rr := env.do(documentUpload(t, tc.meta, tc.withFile), 1, enums.RoleAdmin)
		if rr.Code != tc.status {
			t.Fatalf("%s: unexpected status: got %d want %d (%s)", tc.name, rr.Code, tc.status, rr.Body.String())
		}
		if code := errorCode(t, rr); code != tc.code {
			t.Fatalf("%s: unexpected code: got %q want %q", tc.name, code, tc.code)
		}
	}
	if len(env.objects.objects) != 0 {
		t.Fatalf("failed uploads must not leave objects, got %d", len(env.objects.objects))
	}
}

func TestDocumentFileRedirects(t *testing.T) {
	env := newDocumentTestEnv()
	id := env.store.seed("everyone", enums.AudienceAll)

	rr := env.do(httptest.NewRequest(http.MethodGet, "/documents/"+strconv.FormatInt(id, 10)+"/file", nil), 10, enums.RoleSpecialist)
	if rr.Code != http.StatusFound {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusFound)
	}
	if loc := rr.Header().Get("Location"); !strings.Contains(loc, "documents/everyone.pdf") {
		t.Fatalf("unexpected redirect location: %q", loc)
	}
}

func TestDocumentUpdateAndDeletePermissions(t *testing.T) {
	env := newDocumentTestEnv()
	id := env.store.seed("draft", enums.AudienceAll)
	path := "/documents/" + strconv.FormatInt(id, 10)

	patch := func(role enums.Role, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPatch, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return env.do(req, 5, role)
	}

	if rr := patch(enums.RoleManager, `{"title":"Final"}`); rr.Code != http.StatusForbidden {
		t.Fatalf("manager patch: got %d want %d", rr.Code, http.StatusForbidden)
	}
	if rr := patch(enums.RoleHR, `{"title":""}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("empty title: got %d want %d", rr.Code, http.StatusBadRequest)
	}
	rr := patch(enums.RoleHR, `{"title":"Final"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("hr patch: got %d want %d", rr.Code, http.StatusOK)
	}
	var data struct {
		Title string `json:"title"`
	}
	decodeEnvelope(t, rr, &data)
	if data.Title != "Final" {
		t.Fatalf("unexpected title: %q", data.Title)
	}

	if rr := env.do(httptest.NewRequest(http.MethodDelete, path, nil), 2, enums.RoleHR); rr.Code != http.StatusForbidden {
		t.Fatalf("hr delete: got %d want %d", rr.Code, http.StatusForbidden)
	}
	if rr := env.do(httptest.NewRequest(http.MethodDelete, path, nil), 1, enums.RoleAdmin); rr.Code != http.StatusOK {
		t.Fatalf("admin delete: got %d want %d", rr.Code, http.StatusOK)
	}
	if rr := env.do(httptest.NewRequest(http.MethodGet, path, nil), 1, enums.RoleAdmin); rr.Code != http.StatusNotFound {
		t.Fatalf("deleted document: got %d want %d", rr.Code, http.StatusNotFound)
	}
}
