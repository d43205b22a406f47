package views

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ivankudzin/dochub/internal/domain/enums"
	"github.com/ivankudzin/dochub/internal/domain/model"
	pgrepo "github.com/ivankudzin/dochub/internal/repo/postgres"
	"github.com/ivankudzin/dochub/internal/services/access"
	docsvc "github.com/ivankudzin/dochub/internal/services/documents"
)

type fakeStore struct {
	views []model.Viewer
}

func (s *fakeStore) AddView(_ context.Context, _ int64, userID int64) error {
	for _, v := range s.views {
		if v.UserID == userID {
			return pgrepo.ErrAlreadyViewed
		}
	}
	s.views = append([]model.Viewer{{UserID: userID, PhotoKey: "p.png", ViewedAt: time.Now()}}, s.views...)
	return nil
}

func (s *fakeStore) CountViews(_ context.Context, _ int64) (int, error) {
	return len(s.views), nil
}

func (s *fakeStore) ListViewers(_ context.Context, _ int64) ([]model.Viewer, error) {
	return s.views, nil
}

type fakeGuard struct{}

func (fakeGuard) EnsureVisible(_ context.Context, _ access.Viewer, documentID int64) error {
	if documentID != 1 {
		return docsvc.ErrNotFound
	}
	return nil
}

type fakeSigner struct{}

func (fakeSigner) URL(_ context.Context, key string) (string, error) {
	return "https://signed.local/" + key, nil
}

func TestMarkIsIdempotent(t *testing.T) {
	svc := NewService(&fakeStore{}, fakeGuard{}, fakeSigner{}, nil)
	ctx := context.Background()
	viewer := access.Viewer{UserID: 5, Role: enums.RoleSpecialist}

	if err := svc.Mark(ctx, viewer, 1); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if err := svc.Mark(ctx, viewer, 1); !errors.Is(err, ErrAlreadyViewed) {
		t.Fatalf("expected ErrAlreadyViewed, got %v", err)
	}
	n, err := svc.Count(ctx, viewer, 1)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("unexpected count: got %d want 1", n)
	}
	if err := svc.Mark(ctx, viewer, 2); !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestViewersRequiresModerator(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, fakeGuard{}, fakeSigner{}, nil)
	ctx := context.Background()

	for _, id := range []int64{3, 4} {
		if err := svc.Mark(ctx, access.Viewer{UserID: id, Role: enums.RoleSpecialist}, 1); err != nil {
			t.Fatalf("mark %d: %v", id, err)
		}
	}

	if _, err := svc.Viewers(ctx, access.Viewer{UserID: 3, Role: enums.RoleManager}, 1); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	items, err := svc.Viewers(ctx, access.Viewer{UserID: 2, Role: enums.RoleHR}, 1)
	if err != nil {
		t.Fatalf("viewers: %v", err)
	}
	if len(items) != 2 || items[0].UserID != 4 {
		t.Fatalf("expected latest viewer first, got %+v", items)
	}
	if items[0].PhotoURL != "https://signed.local/p.png" {
		t.Fatalf("unexpected photo url: %q", items[0].PhotoURL)
	}
}
