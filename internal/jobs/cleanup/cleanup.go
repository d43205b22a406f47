package cleanup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	pgrepo "github.com/ivankudzin/dochub/internal/repo/postgres"
)

const (
	DefaultInterval  = 6 * time.Hour
	DefaultRetention = 30 * 24 * time.Hour
	purgeBatchSize   = 100
)

type VerificationStore interface {
	DeleteExpiredVerifications(ctx context.Context, now time.Time) (int64, error)
}

type DocumentStore interface {
	ListPurgeable(ctx context.Context, deletedBefore time.Time, limit int) ([]pgrepo.PurgeCandidate, error)
	PurgeDocument(ctx context.Context, documentID int64) error
}

type ObjectDeleter interface {
	Delete(ctx context.Context, key string) error
}

// Job drops expired verification tokens and purges documents that stayed
// soft-deleted longer than the retention window.
type Job struct {
	verifications VerificationStore
	documents     DocumentStore
	objects       ObjectDeleter
	retention     time.Duration
	now           func() time.Time
	logger        *zap.Logger
}

func New(verifications VerificationStore, documents DocumentStore, objects ObjectDeleter, retention time.Duration, logger *zap.Logger) *Job {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		verifications: verifications,
		documents:     documents,
		objects:       objects,
		retention:     retention,
		now:           time.Now,
		logger:        logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	now := j.now()

	if j.verifications != nil {
		rows, err := j.verifications.DeleteExpiredVerifications(ctx, now)
		if err != nil {
			return fmt.Errorf("delete expired verifications: %w", err)
		}
		if rows > 0 {
			j.logger.Info("cleanup expired verifications completed", zap.Int64("deleted", rows))
		}
	}

	if j.documents == nil {
		return nil
	}

	cutoff := now.Add(-j.retention)
	purged := 0
	for {
		candidates, err := j.documents.ListPurgeable(ctx, cutoff, purgeBatchSize)
		if err != nil {
			return fmt.Errorf("list purgeable documents: %w", err)
		}
		if len(candidates) == 0 {
			break
		}

		for _, doc := range candidates {
			if j.objects != nil {
				if err := j.objects.Delete(ctx, doc.ObjectKey); err != nil {
					j.logger.Warn("failed to delete document object from storage", zap.Error(err), zap.String("object_key", doc.ObjectKey))
				}
			}
			if err := j.documents.PurgeDocument(ctx, doc.ID); err != nil {
				return fmt.Errorf("purge document %d: %w", doc.ID, err)
			}
			purged++
		}

		if len(candidates) < purgeBatchSize {
			break
		}
	}

	if purged > 0 {
		j.logger.Info("cleanup deleted documents completed", zap.Int("purged", purged))
	}
	return nil
}

// Loop runs the job immediately and then on every tick until ctx is done.
// A failed run is logged and does not stop the loop.
func (j *Job) Loop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	if err := j.Run(ctx); err != nil {
		j.logger.Warn("cleanup run failed", zap.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Warn("cleanup run failed", zap.Error(err))
			}
		}
	}
}
