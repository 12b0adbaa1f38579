package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bobarin/speechgate/internal/models"
)

type fileRoute int

const (
	routeUnknown fileRoute = iota
	routePreflight
	routeUpload
	routeList
	routeRetrieve
	routeRetrieveContent
	routeDownload
	routeDelete
)

const filesPath = "/v1/files"

// resolveFileRoute maps a request under /v1/files to an operation and the
// file id it addresses.
//
// GET paths are matched case-insensitively after trimming trailing slashes;
// /download/{id} is tried before {id}/content and {id}, and the latter two
// require the "file_" prefix. DELETE takes the id verbatim from the path.
func resolveFileRoute(method, path string) (fileRoute, string, error) {
	switch method {
	case http.MethodOptions:
		return routePreflight, "", nil

	case http.MethodPost:
		if strings.TrimRight(path, "/") == filesPath {
			return routeUpload, "", nil
		}
		return routeUnknown, "", fmt.Errorf("unsupported uri path: %s", path)

	case http.MethodGet:
		uriPath := strings.ToLower(strings.TrimRight(path, "/"))
		segments := strings.Split(uriPath, "/")

		if len(segments) < 3 || segments[0] != "" || segments[1] != "v1" || segments[2] != "files" {
			return routeUnknown, "", fmt.Errorf("unsupported uri path: %s", uriPath)
		}

		switch {
		case len(segments) == 3:
			return routeList, "", nil
		case len(segments) == 5 && segments[3] == "download" && segments[4] != "":
			return routeDownload, segments[4], nil
		case len(segments) == 5 && segments[4] == "content" && strings.HasPrefix(segments[3], models.FileIDPrefix):
			return routeRetrieveContent, segments[3], nil
		case len(segments) == 4 && strings.HasPrefix(segments[3], models.FileIDPrefix):
			return routeRetrieve, segments[3], nil
		}
		return routeUnknown, "", fmt.Errorf("unsupported uri path: %s", uriPath)

	case http.MethodDelete:
		return routeDelete, strings.TrimPrefix(path, filesPath+"/"), nil

	default:
		return routeUnknown, "", errors.New("invalid HTTP method")
	}
}

var downloadContentTypes = map[string]string{
	"txt":  "text/plain",
	"json": "application/json",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"wav":  "audio/wav",
	"mp3":  "audio/mpeg",
	"mp4":  "video/mp4",
	"md":   "text/markdown",
}

// contentTypeFor returns the download Content-Type for filename's
// extension. Unknown extensions are an error.
func contentTypeFor(filename string) (string, error) {
	ext := filename
	if i := strings.LastIndex(filename, "."); i >= 0 {
		ext = filename[i+1:]
	}

	contentType, ok := downloadContentTypes[strings.ToLower(ext)]
	if !ok {
		return "", fmt.Errorf("unsupported file extension: %s", ext)
	}
	return contentType, nil
}
