package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ivankudzin/dochub/internal/domain/enums"
	"github.com/ivankudzin/dochub/internal/domain/model"
	pgrepo "github.com/ivankudzin/dochub/internal/repo/postgres"
	authsvc "github.com/ivankudzin/dochub/internal/services/auth"
)

func withIdentity(req *http.Request, userID int64, role enums.Role) *http.Request {
	return req.WithContext(authsvc.WithIdentity(req.Context(), authsvc.Identity{
		UserID: userID,
		SID:    "sid-test",
		Role:   role,
	}))
}

type memUsers struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]model.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[int64]model.User{}}
}

func (s *memUsers) CreateUser(_ context.Context, user model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if strings.EqualFold(existing.Email, user.Email) {
			return model.User{}, pgrepo.ErrEmailTaken
		}
	}
	s.nextID++
	user.ID = s.nextID
	user.CreatedAt = time.Now().UTC()
	s.byID[user.ID] = user
	return user, nil
}

func (s *memUsers) GetUserByID(_ context.Context, userID int64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byID[userID]
	if !ok {
		return model.User{}, pgrepo.ErrUserNotFound
	}
	return user, nil
}

func (s *memUsers) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.byID {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return model.User{}, pgrepo.ErrUserNotFound
}

func (s *memUsers) SetPasswordAndVerify(_ context.Context, userID int64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byID[userID]
	if !ok {
		return pgrepo.ErrUserNotFound
	}
	user.PasswordHash = hash
	user.IsVerified = true
	s.byID[userID] = user
	return nil
}

func (s *memUsers) MarkVerified(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byID[userID]
	if !ok {
		return pgrepo.ErrUserNotFound
	}
	user.IsVerified = true
	s.byID[userID] = user
	return nil
}

type memVerifications struct {
	mu     sync.Mutex
	tokens map[int64]string
}

func (s *memVerifications) SaveVerification(_ context.Context, userID int64, token string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[userID] = token
	return nil
}

func (s *memVerifications) ConsumeVerification(_ context.Context, userID int64, token string, _ time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens[userID] != token {
		return false, nil
	}
	delete(s.tokens, userID)
	return true, nil
}

type captureMailer struct {
	mu   sync.Mutex
	urls []string
}

func (m *captureMailer) SendVerification(_ context.Context, _ string, verificationURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urls = append(m.urls, verificationURL)
	return nil
}

func (m *captureMailer) lastToken(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.urls) == 0 {
		t.Fatalf("no verification mail sent")
	}
	parsed, err := url.Parse(m.urls[len(m.urls)-1])
	if err != nil {
		t.Fatalf("parse verification url: %v", err)
	}
	return parsed.Query().Get("token")
}

type memDocuments struct {
	mu         sync.Mutex
	nextID     int64
	docs       map[int64]model.Document
	categories map[int64]string
}

func newMemDocuments() *memDocuments {
	return &memDocuments{
		docs:       map[int64]model.Document{},
		categories: map[int64]string{1: "Policies"},
	}
}

func (s *memDocuments) seed(title string, audience enums.Role) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.docs[s.nextID] = model.Document{
		ID:        s.nextID,
		Title:     title,
		ObjectKey: "documents/" + title + ".pdf",
		Audience:  audience,
		Category:  model.Category{ID: 1, Name: "Policies"},
		CreatedAt: time.Unix(1700000000+s.nextID, 0).UTC(),
	}
	return s.nextID
}

func memVisible(doc model.Document, audiences []enums.Role) bool {
	if doc.DeletedAt != nil {
		return false
	}
	for _, a := range audiences {
		if a == doc.Audience {
			return true
		}
	}
	return false
}

func (s *memDocuments) ListDocuments(_ context.Context, filter pgrepo.DocumentFilter) ([]model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		if memVisible(doc, filter.Audiences) && (filter.CategoryID == 0 || filter.CategoryID == doc.Category.ID) {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memDocuments) GetDocument(_ context.Context, _ int64, documentID int64, audiences []enums.Role) (model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[documentID]
	if !ok || !memVisible(doc, audiences) {
		return model.Document{}, pgrepo.ErrDocumentNotFound
	}
	return doc, nil
}

func (s *memDocuments) CreateDocument(_ context.Context, doc pgrepo.NewDocument) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, ok := s.categories[doc.CategoryID]
	if !ok {
		return 0, pgrepo.ErrCategoryNotFound
	}
	s.nextID++
	s.docs[s.nextID] = model.Document{
		ID:        s.nextID,
		Title:     doc.Title,
		ObjectKey: doc.ObjectKey,
		AuthorID:  doc.AuthorID,
		Audience:  doc.Audience,
		Category:  model.Category{ID: doc.CategoryID, Name: name},
		CreatedAt: time.Now().UTC(),
	}
	return s.nextID, nil
}

func (s *memDocuments) UpdateTitle(_ context.Context, documentID int64, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[documentID]
	if !ok || doc.DeletedAt != nil {
		return pgrepo.ErrDocumentNotFound
	}
	doc.Title = title
	s.docs[documentID] = doc
	return nil
}

func (s *memDocuments) SoftDeleteDocument(_ context.Context, documentID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[documentID]
	if !ok || doc.DeletedAt != nil {
		return pgrepo.ErrDocumentNotFound
	}
	now := time.Now()
	doc.DeletedAt = &now
	s.docs[documentID] = doc
	return nil
}

type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemObjects() *memObjects {
	return &memObjects{objects: map[string][]byte{}}
}

func (o *memObjects) EnsureBucket(context.Context) error { return nil }

func (o *memObjects) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.objects[key] = buf.Bytes()
	return nil
}

func (o *memObjects) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://s3.test/dochub/" + key + "?X-Amz-Signature=test", nil
}

func (o *memObjects) Delete(_ context.Context, key string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.objects, key)
	return nil
}

type likeKey struct{ doc, user int64 }

type memLikes struct {
	mu    sync.Mutex
	likes map[likeKey]struct{}
}

func (s *memLikes) AddLike(_ context.Context, documentID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := likeKey{documentID, userID}
	if _, ok := s.likes[k]; ok {
		return pgrepo.ErrAlreadyLiked
	}
	s.likes[k] = struct{}{}
	return nil
}

func (s *memLikes) RemoveLike(_ context.Context, documentID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := likeKey{documentID, userID}
	if _, ok := s.likes[k]; !ok {
		return pgrepo.ErrLikeNotFound
	}
	delete(s.likes, k)
	return nil
}

func (s *memLikes) CountLikes(_ context.Context, documentID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.likes {
		if k.doc == documentID {
			n++
		}
	}
	return n, nil
}
