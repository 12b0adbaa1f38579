package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFileRoute(t *testing.T) {
	t.Parallel()

	cases := []struct {
		method string
		path   string
		route  fileRoute
		id     string
	}{
		{http.MethodGet, "/v1/files", routeList, ""},
		{http.MethodGet, "/v1/files/", routeList, ""},
		{http.MethodGet, "/v1/files/file_abc", routeRetrieve, "file_abc"},
		{http.MethodGet, "/v1/files/FILE_ABC/", routeRetrieve, "file_abc"},
		{http.MethodGet, "/v1/files/file_abc/content", routeRetrieveContent, "file_abc"},
		{http.MethodGet, "/v1/files/download/file_abc", routeDownload, "file_abc"},
		{http.MethodGet, "/v1/files/download/content", routeDownload, "content"},
		{http.MethodPost, "/v1/files", routeUpload, ""},
		{http.MethodPost, "/v1/files/", routeUpload, ""},
		{http.MethodDelete, "/v1/files/file_abc", routeDelete, "file_abc"},
		{http.MethodDelete, "/v1/files/File_ABC", routeDelete, "File_ABC"},
		{http.MethodOptions, "/v1/files/anything", routePreflight, ""},
	}

	for _, tc := range cases {
		route, id, err := resolveFileRoute(tc.method, tc.path)
		require.NoError(t, err, "%s %s", tc.method, tc.path)
		assert.Equal(t, tc.route, route, "%s %s", tc.method, tc.path)
		assert.Equal(t, tc.id, id, "%s %s", tc.method, tc.path)
	}
}

func TestResolveFileRouteRejects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		method string
		path   string
		msg    string
	}{
		{http.MethodGet, "/v1/files/abc", "unsupported uri path: /v1/files/abc"},
		{http.MethodGet, "/v1/files/abc/content", "unsupported uri path"},
		{http.MethodGet, "/v1/files/download", "unsupported uri path"},
		{http.MethodGet, "/v1/files/file_abc/raw", "unsupported uri path"},
		{http.MethodGet, "/v1/files/file_abc/content/extra", "unsupported uri path"},
		{http.MethodPost, "/v1/files/file_abc", "unsupported uri path"},
		{http.MethodPut, "/v1/files/file_abc", "invalid HTTP method"},
		{http.MethodPatch, "/v1/files", "invalid HTTP method"},
	}

	for _, tc := range cases {
		_, _, err := resolveFileRoute(tc.method, tc.path)
		require.Error(t, err, "%s %s", tc.method, tc.path)
		assert.Contains(t, err.Error(), tc.msg)
	}
}

func TestContentTypeFor(t *testing.T) {
	t.Parallel()

	known := map[string]string{
		"notes.txt":   "text/plain",
		"data.json":   "application/json",
		"image.png":   "image/png",
		"photo.jpg":   "image/jpeg",
		"photo.jpeg":  "image/jpeg",
		"output.wav":  "audio/wav",
		"song.mp3":    "audio/mpeg",
		"clip.mp4":    "video/mp4",
		"README.md":   "text/markdown",
		"archive.WAV": "audio/wav",
	}
	for name, want := range known {
		got, err := contentTypeFor(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	for _, name := range []string{"blob.bin", "Makefile", "archive.tar.gz", "trailing."} {
		_, err := contentTypeFor(name)
		assert.Error(t, err, name)
	}
}
