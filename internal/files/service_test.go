package files

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bobarin/speechgate/internal/db"
	"github.com/bobarin/speechgate/internal/models"
	"github.com/bobarin/speechgate/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	root := t.TempDir()
	archive, err := storage.NewDisk(filepath.Join(root, "archives"))
	require.NoError(t, err)

	catalog, err := db.OpenSQLite(context.Background(), filepath.Join(root, "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { catalog.Close() })

	return NewService(archive, catalog, nil)
}

func TestUploadRawRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t)

	file, err := svc.Upload(ctx, UploadRequest{
		ContentType: "text/plain",
		Filename:    "notes.txt",
		Body:        strings.NewReader("hello"),
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(file.ID, models.FileIDPrefix))
	assert.Equal(t, int64(5), file.Bytes)
	assert.Equal(t, "notes.txt", file.Filename)
	assert.Equal(t, models.ObjectFile, file.Object)
	assert.Equal(t, models.PurposeAssistants, file.Purpose)

	got, err := svc.Retrieve(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, *file, *got)

	name, data, err := svc.Download(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", name)
	assert.Equal(t, []byte("hello"), data)

	content, err := svc.RetrieveContent(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", content)
}

func TestUploadMultipart(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("purpose", "fine-tune"))
	part, err := mw.CreateFormFile("file", "data.json")
	require.NoError(t, err)
	_, err = part.Write([]byte(`{"a": 1}`))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	file, err := svc.Upload(ctx, UploadRequest{
		ContentType: mw.FormDataContentType(),
		Body:        &body,
	})
	require.NoError(t, err)
	assert.Equal(t, "data.json", file.Filename)
	assert.Equal(t, "fine-tune", file.Purpose)

	content, err := svc.RetrieveContent(ctx, file.ID)
	require.NoError(t, err)
	raw, ok := content.(json.RawMessage)
	require.True(t, ok, "json files are returned as embedded JSON")
	assert.JSONEq(t, `{"a": 1}`, string(raw))
}

func TestUploadMultipartWithoutFile(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("purpose", "assistants"))
	require.NoError(t, mw.Close())

	_, err := svc.Upload(context.Background(), UploadRequest{
		ContentType: mw.FormDataContentType(),
		Body:        &body,
	})
	require.Error(t, err)
}

func TestRetrieveContentRejectsBinary(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t)

	file, err := svc.Create(ctx, "image.png", models.PurposeAssistants, []byte{0x89, 'P', 'N', 'G', 0xff, 0xfe})
	require.NoError(t, err)

	_, err = svc.RetrieveContent(ctx, file.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), file.ID)
}

func TestRetrieveUnknownMentionsID(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	_, err := svc.Retrieve(context.Background(), "file_xyz")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Contains(t, err.Error(), "file_xyz")
}

func TestRemoveTwice(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t)

	file, err := svc.Create(ctx, "output.wav", models.PurposeAssistantsOutput, []byte("RIFFWAVE"))
	require.NoError(t, err)

	status, err := svc.Remove(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeleteFileStatus{ID: file.ID, Object: models.ObjectFile, Deleted: true}, *status)

	_, err = svc.Remove(ctx, file.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "list", list.Object)
	assert.Empty(t, list.Data)
}

func TestCreatedAtNeverGoesBackwards(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	times := []time.Time{time.Unix(200, 0), time.Unix(150, 0), time.Unix(300, 0)}
	svc.clock = func() time.Time {
		now := times[0]
		times = times[1:]
		return now
	}

	assert.Equal(t, int64(200), svc.nextCreatedAt())
	assert.Equal(t, int64(200), svc.nextCreatedAt())
	assert.Equal(t, int64(300), svc.nextCreatedAt())
}
