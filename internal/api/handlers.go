package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/bobarin/speechgate/internal/files"
	"github.com/bobarin/speechgate/internal/models"
	"github.com/bobarin/speechgate/internal/speech"
)

const (
	maxSpeechRequestBytes = 1 << 20

	speechAttachmentName = "audio.wav"
)

// FileService is the file-management collaborator behind /v1/files.
type FileService interface {
	Upload(ctx context.Context, req files.UploadRequest) (*models.FileObject, error)
	List(ctx context.Context) (*models.FileList, error)
	Retrieve(ctx context.Context, id string) (*models.FileObject, error)
	RetrieveContent(ctx context.Context, id string) (any, error)
	Download(ctx context.Context, id string) (string, []byte, error)
	Remove(ctx context.Context, id string) (*models.DeleteFileStatus, error)
}

// Handler serves the speech and file routes.
type Handler struct {
	speech speech.Backend
	files  FileService
	logger *slog.Logger
}

// NewHandler creates a Handler over the speech backend and file service.
func NewHandler(backend speech.Backend, fileService FileService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		speech: backend,
		files:  fileService,
		logger: logger.With(slog.String("component", "api")),
	}
}

// handlerFunc produces a Response or an error; errors become {"message"} bodies.
type handlerFunc func(r *http.Request) (Response, error)

func (h *Handler) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := fn(r)
		if err != nil {
			status := statusFor(err)
			h.logger.Error("request failed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.String("error", err.Error()))
			res = errorResponse(status, err.Error())
		}

		if err := writeResponse(w, res); err != nil {
			h.logger.Error("failed to write response",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("error", err.Error()))
		}
	}
}

// CreateSpeech handles POST /v1/audio/speech
func (h *Handler) CreateSpeech(r *http.Request) (Response, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxSpeechRequestBytes))
	if err != nil {
		return Response{}, fmt.Errorf("failed to read request body: %w", err)
	}

	var req models.SpeechRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return Response{}, badRequest("failed to deserialize speech request: %v", err)
	}

	result, err := h.speech.Synthesize(r.Context(), req)
	if err != nil {
		return Response{}, fmt.Errorf("failed to synthesize speech: %w", err)
	}

	if result.File != nil {
		return jsonResponse(result.File)
	}
	return attachmentResponse(contentTypeWAV, speechAttachmentName, result.Audio), nil
}

// Files handles every method on /v1/files and /v1/files/*
func (h *Handler) Files(r *http.Request) (Response, error) {
	route, id, err := resolveFileRoute(r.Method, r.URL.Path)
	if err != nil {
		return Response{}, err
	}

	ctx := r.Context()
	switch route {
	case routePreflight:
		return emptyResponse(), nil

	case routeUpload:
		query := r.URL.Query()
		file, err := h.files.Upload(ctx, files.UploadRequest{
			ContentType: r.Header.Get("Content-Type"),
			Filename:    query.Get("filename"),
			Purpose:     query.Get("purpose"),
			Body:        r.Body,
		})
		if err != nil {
			return Response{}, fmt.Errorf("failed to upload file: %w", err)
		}
		return jsonResponse(file)

	case routeList:
		list, err := h.files.List(ctx)
		if err != nil {
			return Response{}, fmt.Errorf("failed to list all files: %w", err)
		}
		return jsonResponse(list)

	case routeRetrieve:
		file, err := h.files.Retrieve(ctx, id)
		if err != nil {
			return Response{}, fmt.Errorf("failed to retrieve file %s: %w", id, err)
		}
		return jsonResponse(file)

	case routeRetrieveContent:
		content, err := h.files.RetrieveContent(ctx, id)
		if err != nil {
			return Response{}, fmt.Errorf("failed to retrieve content of file %s: %w", id, err)
		}
		return jsonResponse(content)

	case routeDownload:
		filename, data, err := h.files.Download(ctx, id)
		if err != nil {
			return Response{}, fmt.Errorf("failed to download file %s: %w", id, err)
		}
		contentType, err := contentTypeFor(filename)
		if err != nil {
			return Response{}, err
		}
		return attachmentResponse(contentType, filename, data), nil

	case routeDelete:
		status, err := h.files.Remove(ctx, id)
		if err != nil {
			h.logger.Warn("failed to delete file",
				slog.String("file_id", id),
				slog.String("error", err.Error()))
			status = &models.DeleteFileStatus{ID: id, Object: models.ObjectFile, Deleted: false}
		}
		return jsonResponse(status)
	}

	return Response{}, fmt.Errorf("unsupported uri path: %s", r.URL.Path)
}

// InvalidEndpoint answers every path outside the route table.
func (h *Handler) InvalidEndpoint(r *http.Request) (Response, error) {
	return Response{}, fmt.Errorf("the requested service endpoint is not found: %s", r.URL.Path)
}
