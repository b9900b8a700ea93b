package drivers

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalDriver archives workbooks on local disk. Archive keys are relative
// slash-separated paths (company id, then file id), mirrored directly as
// directories under the base dir, so one company's archive is one subtree.
type LocalDriver struct {
	baseDir string
}

func NewLocalDriver(baseDir string) (*LocalDriver, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &LocalDriver{baseDir: baseDir}, nil
}

// resolve maps an archive key to a path under the base dir. Keys come from
// ArchiveService, but a key that climbs out of the base dir is rejected
// regardless of where it came from.
func (d *LocalDriver) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid archive key %q", key)
	}
	return filepath.Join(d.baseDir, clean), nil
}

func (d *LocalDriver) Save(ctx context.Context, key string, body io.Reader, contentType string) error {
	path, err := d.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create archive subdirectory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	if _, err := io.Copy(file, body); err != nil {
		file.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write workbook content: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to write workbook content: %w", err)
	}

	// The content type lives in a sidecar so Get can report it without a
	// database round trip.
	if err := os.WriteFile(path+".mime", []byte(contentType), 0644); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to write content type sidecar: %w", err)
	}
	return nil
}

func (d *LocalDriver) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	path, err := d.resolve(key)
	if err != nil {
		return nil, "", err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}

	contentType := "application/octet-stream"
	if mime, err := os.ReadFile(path + ".mime"); err == nil {
		contentType = string(mime)
	}
	return file, contentType, nil
}

func (d *LocalDriver) Delete(ctx context.Context, key string) error {
	path, err := d.resolve(key)
	if err != nil {
		return err
	}
	os.Remove(path + ".mime")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
