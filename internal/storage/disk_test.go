package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bobarin/speechgate/internal/models"
	"github.com/bobarin/speechgate/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDirIsIdempotent(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "archives", "nested")
	require.NoError(t, storage.EnsureDir(dir))
	require.NoError(t, storage.EnsureDir(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestDiskPutGetDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	root := t.TempDir()
	disk, err := storage.NewDisk(root)
	require.NoError(t, err)

	require.NoError(t, disk.Put(ctx, "file_1", "output.wav", []byte("RIFFdata")))

	onDisk, err := os.ReadFile(filepath.Join(root, "file_1", "output.wav"))
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFFdata"), onDisk)

	got, err := disk.Get(ctx, "file_1", "output.wav")
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFFdata"), got)

	entries, err := os.ReadDir(filepath.Join(root, "file_1"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files should remain")

	require.NoError(t, disk.Delete(ctx, "file_1", "output.wav"))
	_, err = os.Stat(filepath.Join(root, "file_1"))
	assert.True(t, os.IsNotExist(err), "empty id directory should be removed")

	err = disk.Delete(ctx, "file_1", "output.wav")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = disk.Get(ctx, "file_1", "output.wav")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDiskRejectsTraversal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	disk, err := storage.NewDisk(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, disk.Put(ctx, "..", "passwd", []byte("x")))
	assert.Error(t, disk.Put(ctx, "file_1", "../escape.txt", []byte("x")))
	_, err = disk.Get(ctx, "file_1", "")
	assert.Error(t, err)
}

func TestObjectKey(t *testing.T) {
	t.Parallel()

	key, err := storage.ObjectKey("file_abc", "notes.md")
	require.NoError(t, err)
	assert.Equal(t, "file_abc/notes.md", key)

	_, err = storage.ObjectKey("file_abc", `dir\notes.md`)
	assert.Error(t, err)
}
