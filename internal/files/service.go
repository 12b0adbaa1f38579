package files

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"path"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bobarin/speechgate/internal/models"
	"github.com/bobarin/speechgate/internal/storage"
	"github.com/google/uuid"
)

const (
	// MaxUploadBytes caps a single upload.
	MaxUploadBytes = 512 << 20

	defaultUploadFilename = "upload.bin"
)

// Catalog stores file metadata. Lookups of unknown ids return an error
// wrapping models.ErrNotFound.
type Catalog interface {
	InsertFile(ctx context.Context, file *models.FileObject) error
	GetFile(ctx context.Context, id string) (*models.FileObject, error)
	ListFiles(ctx context.Context) ([]models.FileObject, error)
	DeleteFile(ctx context.Context, id string) error
}

// UploadRequest carries an unparsed upload body and the request metadata
// needed to interpret it.
type UploadRequest struct {
	ContentType string
	Filename    string
	Purpose     string
	Body        io.Reader
}

// Service manages file content in an archive and metadata in a catalog.
type Service struct {
	archive storage.Archive
	catalog Catalog
	logger  *slog.Logger
	clock   func() time.Time

	mu          sync.Mutex
	lastCreated int64
}

func NewService(archive storage.Archive, catalog Catalog, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		archive: archive,
		catalog: catalog,
		logger:  logger.With(slog.String("component", "files")),
		clock:   time.Now,
	}
}

// Create archives data under a new file id and records its metadata.
func (s *Service) Create(ctx context.Context, filename, purpose string, data []byte) (*models.FileObject, error) {
	file := &models.FileObject{
		ID:        models.FileIDPrefix + uuid.NewString(),
		Bytes:     int64(len(data)),
		CreatedAt: s.nextCreatedAt(),
		Filename:  filename,
		Object:    models.ObjectFile,
		Purpose:   purpose,
	}

	if err := s.archive.Put(ctx, file.ID, file.Filename, data); err != nil {
		return nil, fmt.Errorf("failed to store %s: %w", filename, err)
	}

	if err := s.catalog.InsertFile(ctx, file); err != nil {
		if delErr := s.archive.Delete(ctx, file.ID, file.Filename); delErr != nil {
			s.logger.Warn("failed to clean up orphaned content",
				slog.String("file_id", file.ID),
				slog.String("error", delErr.Error()))
		}
		return nil, fmt.Errorf("failed to record %s: %w", filename, err)
	}

	s.logger.Info("file created",
		slog.String("file_id", file.ID),
		slog.String("filename", file.Filename),
		slog.Int64("bytes", file.Bytes),
		slog.String("purpose", file.Purpose))

	return file, nil
}

// nextCreatedAt returns the current unix time, never going backwards
// within this process.
func (s *Service) nextCreatedAt() int64 {
	now := s.clock().Unix()

	s.mu.Lock()
	defer s.mu.Unlock()

	if now < s.lastCreated {
		now = s.lastCreated
	}
	s.lastCreated = now
	return now
}

// Upload parses a multipart/form-data body (field "file", optional field
// "purpose") or treats any other body as raw file content.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*models.FileObject, error) {
	filename, purpose, data, err := parseUpload(req)
	if err != nil {
		return nil, err
	}

	if purpose == "" {
		purpose = models.PurposeAssistants
	}
	return s.Create(ctx, filename, purpose, data)
}

func parseUpload(req UploadRequest) (filename, purpose string, data []byte, err error) {
	filename, purpose = req.Filename, req.Purpose

	mediaType, params, _ := mime.ParseMediaType(req.ContentType)
	if mediaType != "multipart/form-data" {
		data, err = readLimited(req.Body)
		if err != nil {
			return "", "", nil, err
		}
		if filename == "" {
			filename = defaultUploadFilename
		}
		return path.Base(filename), purpose, data, nil
	}

	boundary := params["boundary"]
	if boundary == "" {
		return "", "", nil, errors.New("multipart upload is missing a boundary")
	}

	found := false
	mr := multipart.NewReader(req.Body, boundary)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", "", nil, fmt.Errorf("failed to read multipart upload: %w", err)
		}

		switch part.FormName() {
		case "file":
			data, err = readLimited(part)
			if err != nil {
				return "", "", nil, err
			}
			if name := part.FileName(); name != "" {
				filename = name
			}
			found = true
		case "purpose":
			value, err := io.ReadAll(io.LimitReader(part, 1024))
			if err != nil {
				return "", "", nil, fmt.Errorf("failed to read purpose: %w", err)
			}
			purpose = strings.TrimSpace(string(value))
		}
		part.Close()
	}

	if !found {
		return "", "", nil, errors.New(`multipart upload has no "file" field`)
	}
	if filename == "" {
		filename = defaultUploadFilename
	}
	return path.Base(filename), purpose, data, nil
}

func readLimited(r io.Reader) ([]byte, error) {
	if r == nil {
		return nil, errors.New("upload body is empty")
	}
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, fmt.Errorf("upload exceeds %d bytes", MaxUploadBytes)
	}
	return data, nil
}

func (s *Service) List(ctx context.Context) (*models.FileList, error) {
	files, err := s.catalog.ListFiles(ctx)
	if err != nil {
		return nil, err
	}
	return &models.FileList{Object: "list", Data: files}, nil
}

func (s *Service) Retrieve(ctx context.Context, id string) (*models.FileObject, error) {
	return s.catalog.GetFile(ctx, id)
}

// RetrieveContent returns the file body as a JSON value: JSON files are
// embedded as-is, other UTF-8 text becomes a string.
func (s *Service) RetrieveContent(ctx context.Context, id string) (any, error) {
	file, data, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(path.Ext(file.Filename), ".json") && json.Valid(data) {
		return json.RawMessage(bytes.TrimSpace(data)), nil
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("file %s is not a text file", id)
	}
	return string(data), nil
}

// Download returns the stored filename and content.
func (s *Service) Download(ctx context.Context, id string) (string, []byte, error) {
	file, data, err := s.load(ctx, id)
	if err != nil {
		return "", nil, err
	}
	return file.Filename, data, nil
}

func (s *Service) load(ctx context.Context, id string) (*models.FileObject, []byte, error) {
	file, err := s.catalog.GetFile(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	data, err := s.archive.Get(ctx, file.ID, file.Filename)
	if err != nil {
		return nil, nil, err
	}
	return file, data, nil
}

// Remove deletes the content and then the metadata of a file.
func (s *Service) Remove(ctx context.Context, id string) (*models.DeleteFileStatus, error) {
	file, err := s.catalog.GetFile(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.archive.Delete(ctx, file.ID, file.Filename); err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		s.logger.Warn("file content already missing", slog.String("file_id", id))
	}

	if err := s.catalog.DeleteFile(ctx, id); err != nil {
		return nil, err
	}

	s.logger.Info("file deleted", slog.String("file_id", id))
	return &models.DeleteFileStatus{ID: id, Object: models.ObjectFile, Deleted: true}, nil
}
