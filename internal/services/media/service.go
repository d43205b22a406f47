package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrTooLarge        = errors.New("file is too large")
	ErrUnsupportedType = errors.New("unsupported content type")
)

const (
	DefaultURLTTL    = 15 * time.Minute
	MaxDocumentBytes = 20 << 20
	MaxPhotoBytes    = 10 << 20

	maxFileNameRunes = 120
)

type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

// Service owns object key layout and presigned links for documents and user
// photos.
type Service struct {
	storage ObjectStorage
	urlTTL  time.Duration
	now     func() time.Time
	newID   func() string
}

func NewService(storage ObjectStorage, urlTTL time.Duration) *Service {
	if urlTTL <= 0 {
		urlTTL = DefaultURLTTL
	}
	return &Service{
		storage: storage,
		urlTTL:  urlTTL,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

func (s *Service) PutDocument(ctx context.Context, fileName, contentType string, body io.Reader, size int64) (string, error) {
	if body == nil || size <= 0 {
		return "", ErrValidation
	}
	if size > MaxDocumentBytes {
		return "", ErrTooLarge
	}

	key := "documents/" + s.newID() + "-" + SanitizeFileName(fileName)
	if err := s.put(ctx, key, body, size, contentType); err != nil {
		return "", err
	}
	return key, nil
}

func (s *Service) PutPhoto(ctx context.Context, userID int64, fileName, contentType string, body io.Reader, size int64) (string, error) {
	if userID <= 0 || body == nil || size <= 0 {
		return "", ErrValidation
	}
	if size > MaxPhotoBytes {
		return "", ErrTooLarge
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/") {
		return "", ErrUnsupportedType
	}

	key := PhotoKey(userID, s.now(), fileName)
	if err := s.put(ctx, key, body, size, contentType); err != nil {
		return "", err
	}
	return key, nil
}

// URL presigns a GET link. An empty key yields an empty link.
func (s *Service) URL(ctx context.Context, key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", nil
	}
	if s.storage == nil {
		return "", fmt.Errorf("object storage is not configured")
	}

	url, err := s.storage.PresignGet(ctx, key, s.urlTTL)
	if err != nil {
		return "", fmt.Errorf("presign object url: %w", err)
	}
	return url, nil
}

func (s *Service) Delete(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" || s.storage == nil {
		return nil
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (s *Service) put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if s.storage == nil {
		return fmt.Errorf("object storage is not configured")
	}
	if err := s.storage.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}

	if strings.TrimSpace(contentType) == "" {
		contentType = "application/octet-stream"
	}
	if err := s.storage.Put(ctx, key, body, size, contentType); err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

func PhotoKey(userID int64, at time.Time, fileName string) string {
	return fmt.Sprintf("photos/user-%d/%d-%s", userID, at.Unix(), SanitizeFileName(fileName))
}

// SanitizeFileName keeps the base name with letters, digits, dot, dash and
// underscore. Everything else becomes an underscore.
func SanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}

	var b strings.Builder
	count := 0
	for _, r := range name {
		if count >= maxFileNameRunes {
			break
		}
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
		count++
	}

	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "file"
	}
	return out
}
