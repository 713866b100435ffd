package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"media-store/core/media"
	"media-store/feature/library/models"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// Service keeps library records and the reference counts of their stored
// objects in step. Every record mutation runs in a transaction that is rolled
// back when the matching provider call fails.
//
// The provider call is made inside the transaction, before the commit. If the
// commit itself fails after the store changed, the count drifts from the
// records: one too many after Copy, or the object already gone after Remove.
// Audit reports such paths.
type Service struct {
	provider *media.Provider
	db       *gorm.DB
	logger   *zap.Logger
	audits   singleflight.Group
}

// auditConcurrency bounds the reference lookups of one audit.
const auditConcurrency = 8

// NewService creates a new library service.
func NewService(provider *media.Provider, db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{provider: provider, db: db, logger: logger}
}

// Migrate creates or updates the records table.
func (s *Service) Migrate() error {
	if err := s.db.AutoMigrate(&models.Record{}); err != nil {
		return fmt.Errorf("failed to migrate media records: %w", err)
	}
	return nil
}

// Upload stores a new object at mediaPath and creates its first record.
func (s *Service) Upload(ctx context.Context, name, mediaPath, contentType string, r io.Reader, size int64) (*models.Record, error) {
	key := media.Normalize(mediaPath)
	if key == "" {
		return nil, fmt.Errorf("%w: empty media path %q", media.ErrInvalidArgument, mediaPath)
	}

	rec := &models.Record{
		ID:          uuid.NewString(),
		Name:        name,
		Path:        key,
		ContentType: contentType,
		Size:        size,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Record{}).Where("path = ?", key).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count records: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: %s has %d records", ErrPathInUse, key, count)
		}
		if err := tx.Create(rec).Error; err != nil {
			return fmt.Errorf("failed to create record: %w", err)
		}

		var opts []media.Option
		if contentType != "" {
			opts = append(opts, media.WithContentType(contentType))
		}
		info, err := s.provider.Set(ctx, media.Stream(r, size), key, opts...)
		if err != nil {
			return err
		}
		if size < 0 && info.Size >= 0 {
			rec.Size = info.Size
			return tx.Model(rec).Update("size", info.Size).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Uploaded media record", zap.String("id", rec.ID), zap.String("path", key))
	return rec, nil
}

// Copy creates a new record sharing the stored object of record id.
func (s *Service) Copy(ctx context.Context, id string) (*models.Record, error) {
	src, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	rec := &models.Record{
		ID:          uuid.NewString(),
		Name:        src.Name,
		Path:        src.Path,
		ContentType: src.ContentType,
		Size:        src.Size,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			return fmt.Errorf("failed to create record: %w", err)
		}
		_, err := s.provider.AddReferences(ctx, rec.Path)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Copied media record", zap.String("source", src.ID), zap.String("id", rec.ID), zap.String("path", rec.Path))
	return rec, nil
}

// Remove deletes record id and drops its reference on the stored object.
func (s *Service) Remove(ctx context.Context, id string) (media.DeleteResult, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return media.DeleteResult{}, err
	}

	var result media.DeleteResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Record{}, "id = ?", rec.ID).Error; err != nil {
			return fmt.Errorf("failed to delete record: %w", err)
		}
		result, err = s.provider.Delete(ctx, rec.Path)
		return err
	})
	if err != nil {
		return media.DeleteResult{}, err
	}

	s.logger.Info("Removed media record",
		zap.String("id", rec.ID), zap.String("path", rec.Path), zap.Bool("object_removed", result.Removed))
	return result, nil
}

// Get returns record id.
func (s *Service) Get(ctx context.Context, id string) (*models.Record, error) {
	var rec models.Record
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load record: %w", err)
	}
	return &rec, nil
}

// Open returns the record and a stream of its stored payload. The caller must
// close the stream.
func (s *Service) Open(ctx context.Context, id string) (*models.Record, io.ReadCloser, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	body, err := s.provider.GetStream(ctx, rec.Path)
	if err != nil {
		return nil, nil, err
	}
	return rec, body, nil
}

type pathCount struct {
	Path    string
	Records int
}

// Audit compares the number of records per path with the reference count
// stored on each object. Concurrent calls share one run.
func (s *Service) Audit(ctx context.Context) (*models.AuditReport, error) {
	// Joined callers must not fail because the first caller went away.
	shared := context.WithoutCancel(ctx)
	v, err, joined := s.audits.Do("audit", func() (any, error) {
		return s.audit(shared)
	})
	if err != nil {
		return nil, err
	}
	if joined {
		s.logger.Debug("Joined running reference audit")
	}
	return v.(*models.AuditReport), nil
}

func (s *Service) audit(ctx context.Context) (*models.AuditReport, error) {
	start := time.Now()

	var counts []pathCount
	err := s.db.WithContext(ctx).Model(&models.Record{}).
		Select("path, count(*) as records").
		Group("path").
		Order("path").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count records per path: %w", err)
	}

	// Each goroutine writes only its own slot.
	entries := make([]models.AuditEntry, len(counts))
	p := pool.New().WithMaxGoroutines(auditConcurrency)
	for i, pc := range counts {
		p.Go(func() {
			entries[i] = s.auditPath(ctx, pc)
		})
	}
	p.Wait()

	report := &models.AuditReport{TotalPaths: len(counts), Entries: entries}
	for _, entry := range entries {
		if entry.Status == models.StatusOK {
			continue
		}
		report.Mismatches++
		s.logger.Warn("Reference audit mismatch",
			zap.String("path", entry.Path), zap.Int("records", entry.Records),
			zap.Int("references", entry.References), zap.String("status", entry.Status))
	}

	report.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	report.ExecutionTime = time.Since(start).String()
	return report, nil
}

func (s *Service) auditPath(ctx context.Context, pc pathCount) models.AuditEntry {
	entry := models.AuditEntry{Path: pc.Path, Records: pc.Records}
	refs, err := s.provider.References(ctx, pc.Path)
	switch {
	case errors.Is(err, media.ErrNotFound):
		entry.Status = models.StatusMissing
	case err != nil:
		entry.Status = models.StatusError
		entry.Error = err.Error()
	case refs != pc.Records:
		entry.References = refs
		entry.Status = models.StatusMismatch
	default:
		entry.References = refs
		entry.Status = models.StatusOK
	}
	return entry
}
