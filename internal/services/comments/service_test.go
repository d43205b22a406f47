package comments

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ivankudzin/dochub/internal/domain/enums"
	"github.com/ivankudzin/dochub/internal/domain/model"
	pgrepo "github.com/ivankudzin/dochub/internal/repo/postgres"
	"github.com/ivankudzin/dochub/internal/services/access"
	docsvc "github.com/ivankudzin/dochub/internal/services/documents"
)

type fakeStore struct {
	comments map[int64]model.Comment
	nextID   int64
}

func (s *fakeStore) ListComments(_ context.Context, documentID int64) ([]model.Comment, error) {
	out := make([]model.Comment, 0)
	for id := s.nextID; id >= 1; id-- {
		if c, ok := s.comments[id]; ok && c.DocumentID == documentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeStore) CreateComment(_ context.Context, documentID, userID int64, text string) (model.Comment, error) {
	s.nextID++
	c := model.Comment{ID: s.nextID, DocumentID: documentID, UserID: userID, Text: text, PhotoKey: "photos/u.png", CreatedAt: time.Now()}
	s.comments[c.ID] = c
	return c, nil
}

func (s *fakeStore) GetComment(_ context.Context, documentID, commentID int64) (model.Comment, error) {
	c, ok := s.comments[commentID]
	if !ok || c.DocumentID != documentID {
		return model.Comment{}, pgrepo.ErrCommentNotFound
	}
	return c, nil
}

func (s *fakeStore) SoftDeleteComment(_ context.Context, commentID int64) error {
	if _, ok := s.comments[commentID]; !ok {
		return pgrepo.ErrCommentNotFound
	}
	delete(s.comments, commentID)
	return nil
}

// fakeGuard hides document 2 from everyone below HR.
type fakeGuard struct{}

func (fakeGuard) EnsureVisible(_ context.Context, viewer access.Viewer, documentID int64) error {
	if documentID == 1 || (documentID == 2 && viewer.IsModerator()) {
		return nil
	}
	return docsvc.ErrNotFound
}

type fakeSigner struct{}

func (fakeSigner) URL(_ context.Context, key string) (string, error) {
	return "https://signed.local/" + key, nil
}

var (
	admin  = access.Viewer{UserID: 1, Role: enums.RoleAdmin}
	author = access.Viewer{UserID: 3, Role: enums.RoleManager}
	other  = access.Viewer{UserID: 4, Role: enums.RoleSpecialist}
)

func newTestService() (*Service, *fakeStore) {
	store := &fakeStore{comments: map[int64]model.Comment{}}
	return NewService(store, fakeGuard{}, fakeSigner{}, nil), store
}

func TestAddAndListNewestFirst(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Add(ctx, author, 1, "  first  "); err != nil {
		t.Fatalf("add first: %v", err)
	}
	if _, err := svc.Add(ctx, other, 1, "second"); err != nil {
		t.Fatalf("add second: %v", err)
	}

	items, err := svc.List(ctx, other, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || items[0].Text != "second" || items[1].Text != "first" {
		t.Fatalf("unexpected comments: %+v", items)
	}
	if items[0].PhotoURL != "https://signed.local/photos/u.png" {
		t.Fatalf("unexpected photo url: %q", items[0].PhotoURL)
	}
}

func TestAddValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Add(ctx, author, 1, "   "); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty text, got %v", err)
	}
	if _, err := svc.Add(ctx, author, 1, strings.Repeat("я", MaxTextRunes+1)); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for long text, got %v", err)
	}
	if _, err := svc.Add(ctx, author, 1, strings.Repeat("я", MaxTextRunes)); err != nil {
		t.Fatalf("max length comment should pass: %v", err)
	}
}

func TestHiddenDocument(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.List(ctx, other, 2); !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if _, err := svc.Add(ctx, admin, 2, "visible to admin"); err != nil {
		t.Fatalf("admin add: %v", err)
	}
}

func TestDeletePermissions(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	item, err := svc.Add(ctx, author, 1, "mine")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := svc.Delete(ctx, other, 1, item.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.Delete(ctx, author, 1, item.ID); err != nil {
		t.Fatalf("author delete: %v", err)
	}
	if len(store.comments) != 0 {
		t.Fatalf("comment should be deleted")
	}
	if err := svc.Delete(ctx, admin, 1, item.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	second, _ := svc.Add(ctx, other, 1, "theirs")
	if err := svc.Delete(ctx, admin, 1, second.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
}
