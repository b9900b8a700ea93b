package drivers

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func TestLocalDriver_RoundTrip(t *testing.T) {
	driver, err := NewLocalDriver(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	key := "company-001/3f8a1c2e.xlsx"
	content := []byte("workbook bytes")

	require.NoError(t, driver.Save(ctx, key, bytes.NewReader(content), xlsxMIME))

	reader, contentType, err := driver.Get(ctx, key)
	require.NoError(t, err)
	defer reader.Close()

	got, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, content, got)
	assert.Equal(t, xlsxMIME, contentType)
}

func TestLocalDriver_CompanyPrefixBecomesDirectory(t *testing.T) {
	baseDir := t.TempDir()
	driver, err := NewLocalDriver(baseDir)
	require.NoError(t, err)

	key := "company-001/3f8a1c2e.xlsx"
	require.NoError(t, driver.Save(context.Background(), key, bytes.NewReader([]byte("x")), xlsxMIME))

	_, err = os.Stat(filepath.Join(baseDir, "company-001", "3f8a1c2e.xlsx"))
	assert.NoError(t, err, "workbook should live under its company directory")
}

func TestLocalDriver_RejectsTraversalKeys(t *testing.T) {
	driver, err := NewLocalDriver(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	for _, key := range []string{"../escape.xlsx", "company-001/../../escape.xlsx", "/etc/passwd", "."} {
		assert.Error(t, driver.Save(ctx, key, bytes.NewReader([]byte("x")), xlsxMIME), "key %q", key)

		_, _, err := driver.Get(ctx, key)
		assert.Error(t, err, "key %q", key)
	}
}

func TestLocalDriver_DeleteIsIdempotent(t *testing.T) {
	driver, err := NewLocalDriver(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	key := "company-001/3f8a1c2e.xlsx"
	require.NoError(t, driver.Save(ctx, key, bytes.NewReader([]byte("x")), xlsxMIME))

	require.NoError(t, driver.Delete(ctx, key))
	_, _, err = driver.Get(ctx, key)
	assert.Error(t, err, "deleted workbook should be gone")

	assert.NoError(t, driver.Delete(ctx, key), "deleting a missing key is not an error")
}
