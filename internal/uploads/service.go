package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrFileNotFound is returned when a key does not resolve to an archived
// workbook visible to the requesting company.
var ErrFileNotFound = errors.New("source file not found")

// ArchiveService stores uploaded source workbooks via a StorageDriver and
// records a SourceFile audit row for each one.
type ArchiveService struct {
	db     *gorm.DB
	driver StorageDriver
}

func NewArchiveService(db *gorm.DB, driver StorageDriver) *ArchiveService {
	return &ArchiveService{db: db, driver: driver}
}

// Archive saves the file content and its audit record. The binary is
// written first; if the database insert fails the orphaned object is
// removed so storage and audit trail stay consistent.
func (s *ArchiveService) Archive(ctx context.Context, companyID string, kind FileKind, filename string, reader io.Reader, size int64, mime string) (*SourceFile, error) {
	if mime == "" {
		mime = "application/octet-stream"
	}
	id := uuid.New()
	ext := filepath.Ext(filename)
	// The company id leads the key, so every tenant's workbooks sit under
	// their own storage prefix.
	key := fmt.Sprintf("%s/%s%s", companyID, id.String(), ext)

	if err := s.driver.Save(ctx, key, reader, mime); err != nil {
		return nil, fmt.Errorf("storage driver failed: %w", err)
	}

	record := &SourceFile{
		ID:        id,
		CompanyID: companyID,
		Kind:      kind,
		Name:      filename,
		Key:       key,
		Size:      size,
		MimeType:  mime,
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		if delErr := s.driver.Delete(ctx, key); delErr != nil {
			slog.WarnContext(ctx, "failed to cleanup orphaned file", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("failed to record source file: %w", err)
	}

	slog.InfoContext(ctx, "source file archived", "id", id, "key", key, "kind", kind)
	return record, nil
}

// AttachToTask links previously archived files to the implementation task
// that was created from them.
func (s *ArchiveService) AttachToTask(ctx context.Context, taskID uuid.UUID, fileIDs ...uuid.UUID) error {
	if len(fileIDs) == 0 {
		return nil
	}
	result := s.db.WithContext(ctx).Model(&SourceFile{}).
		Where("id IN ?", fileIDs).
		Update("task_id", taskID)
	if result.Error != nil {
		return fmt.Errorf("failed to attach source files to task %s: %w", taskID, result.Error)
	}
	return nil
}

// Open streams an archived workbook for download. The key is resolved
// through the audit table scoped to the company, so a tenant cannot fetch
// another tenant's file even with a known key.
func (s *ArchiveService) Open(ctx context.Context, companyID, key string) (io.ReadCloser, string, error) {
	var record SourceFile
	err := s.db.WithContext(ctx).First(&record, "key = ? AND company_id = ?", key, companyID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrFileNotFound
		}
		return nil, "", fmt.Errorf("failed to resolve source file: %w", err)
	}
	return s.driver.Get(ctx, record.Key)
}

// ListByTask returns the source files recorded for a task.
func (s *ArchiveService) ListByTask(ctx context.Context, taskID uuid.UUID) ([]SourceFile, error) {
	var files []SourceFile
	result := s.db.WithContext(ctx).Where("task_id = ?", taskID).Find(&files)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list source files: %w", result.Error)
	}
	return files, nil
}
