package media

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

type fakeStorage struct {
	objects     map[string]string
	deleteCalls int
	ensureErr   error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string]string{}}
}

func (f *fakeStorage) EnsureBucket(_ context.Context) error {
	return f.ensureErr
}

func (f *fakeStorage) Put(_ context.Context, key string, body io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.objects[key] = contentType + ":" + string(data)
	return nil
}

func (f *fakeStorage) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://signed.local/" + key, nil
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	f.deleteCalls++
	delete(f.objects, key)
	return nil
}

func TestPutDocumentKeyLayout(t *testing.T) {
	storage := newFakeStorage()
	svc := NewService(storage, time.Minute)
	svc.newID = func() string { return "0f8c9a52-1111-2222-3333-444455556666" }

	key, err := svc.PutDocument(context.Background(), "Vacation Policy.pdf", "application/pdf", strings.NewReader("%PDF"), 4)
	if err != nil {
		t.Fatalf("put document: %v", err)
	}
	if key != "documents/0f8c9a52-1111-2222-3333-444455556666-Vacation_Policy.pdf" {
		t.Fatalf("unexpected document key: %s", key)
	}
	if storage.objects[key] != "application/pdf:%PDF" {
		t.Fatalf("unexpected stored object: %q", storage.objects[key])
	}
}

func TestPutDocumentTooLarge(t *testing.T) {
	svc := NewService(newFakeStorage(), time.Minute)
	_, err := svc.PutDocument(context.Background(), "big.pdf", "application/pdf", strings.NewReader("x"), MaxDocumentBytes+1)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestPutPhotoRules(t *testing.T) {
	storage := newFakeStorage()
	svc := NewService(storage, time.Minute)
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }

	key, err := svc.PutPhoto(context.Background(), 12, "me.png", "image/png", strings.NewReader("png"), 3)
	if err != nil {
		t.Fatalf("put photo: %v", err)
	}
	if key != "photos/user-12/1700000000-me.png" {
		t.Fatalf("unexpected photo key: %s", key)
	}

	if _, err := svc.PutPhoto(context.Background(), 12, "doc.pdf", "application/pdf", strings.NewReader("x"), 1); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
	if _, err := svc.PutPhoto(context.Background(), 12, "huge.png", "image/png", strings.NewReader("x"), MaxPhotoBytes+1); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	if _, err := svc.PutPhoto(context.Background(), 0, "me.png", "image/png", strings.NewReader("x"), 1); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestPutFailsWhenBucketUnavailable(t *testing.T) {
	storage := newFakeStorage()
	storage.ensureErr = errors.New("no bucket")
	svc := NewService(storage, time.Minute)

	if _, err := svc.PutDocument(context.Background(), "a.pdf", "", strings.NewReader("x"), 1); err == nil {
		t.Fatalf("expected bucket error")
	}
	if len(storage.objects) != 0 {
		t.Fatalf("no object should be stored")
	}
}

func TestURLAndDelete(t *testing.T) {
	storage := newFakeStorage()
	svc := NewService(storage, time.Minute)

	url, err := svc.URL(context.Background(), "")
	if err != nil || url != "" {
		t.Fatalf("empty key should give empty url, got %q err=%v", url, err)
	}
	url, err = svc.URL(context.Background(), "documents/a.pdf")
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if url != "https://signed.local/documents/a.pdf" {
		t.Fatalf("unexpected url: %s", url)
	}

	if err := svc.Delete(context.Background(), ""); err != nil {
		t.Fatalf("delete empty key: %v", err)
	}
	if err := svc.Delete(context.Background(), "documents/a.pdf"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if storage.deleteCalls != 1 {
		t.Fatalf("unexpected delete calls: got %d want 1", storage.deleteCalls)
	}
}

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"report.pdf":           "report.pdf",
		"../../etc/passwd":     "passwd",
		"C:\\docs\\plan v2.pdf": "plan_v2.pdf",
		"":                     "file",
		"..":                   "file",
		"отчёт 2025.pdf":       "отчёт_2025.pdf",
	}
	for in, want := range cases {
		if got := SanitizeFileName(in); got != want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}
