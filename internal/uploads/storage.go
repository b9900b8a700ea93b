package uploads

import (
	"context"
	"io"
)

// StorageDriver is the binary store behind the workbook archive. Keys are
// slash-separated paths chosen by ArchiveService (company id first, so one
// tenant's workbooks never share a prefix with another's); drivers treat
// them as opaque.
type StorageDriver interface {
	// Save writes the workbook content under the given key.
	Save(ctx context.Context, key string, body io.Reader, contentType string) error

	// Get streams the stored content back together with its content type.
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)

	// Delete removes the object; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
