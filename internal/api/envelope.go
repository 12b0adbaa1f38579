package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/bobarin/speechgate/internal/models"
	"golang.org/x/net/http/httpguts"
)

const (
	contentTypeJSON = "application/json"
	contentTypeWAV  = "audio/wav"

	internalErrorMessage = "Internal Server Error"
)

// Response is what a handler wants to send. Only writeResponse turns it
// into HTTP, so every response gets the same CORS headers and the same
// fallback when the response cannot be built.
type Response struct {
	Status      int
	ContentType string
	// Attachment, when set, is sent as "Content-Disposition: attachment; filename=<Attachment>".
	Attachment string
	Body       []byte
}

// requestError marks failures caused by a malformed request body.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// statusFor maps a handler error to its status code: malformed bodies are
// 400, everything else is 500.
func statusFor(err error) int {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func jsonResponse(v any) (Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return Response{}, fmt.Errorf("failed to serialize response. %w", err)
	}
	return Response{Status: http.StatusOK, ContentType: contentTypeJSON, Body: body}, nil
}

func attachmentResponse(contentType, filename string, body []byte) Response {
	return Response{
		Status:      http.StatusOK,
		ContentType: contentType,
		Attachment:  filename,
		Body:        body,
	}
}

func emptyResponse() Response {
	return Response{Status: http.StatusOK}
}

func errorResponse(status int, message string) Response {
	body, err := json.Marshal(models.ErrorResponse{Message: message})
	if err != nil {
		body = []byte(`{"message":"` + internalErrorMessage + `"}`)
	}
	return Response{Status: status, ContentType: contentTypeJSON, Body: body}
}

func (r Response) headers() (map[string]string, error) {
	h := map[string]string{}
	if r.ContentType != "" {
		h["Content-Type"] = r.ContentType
	}
	if r.Attachment != "" {
		h["Content-Disposition"] = "attachment; filename=" + r.Attachment
	}
	for k, v := range h {
		if !httpguts.ValidHeaderFieldValue(v) {
			return nil, fmt.Errorf("invalid %s header value %q", k, v)
		}
	}
	return h, nil
}

func setCORSHeaders(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "*")
	h.Set("Access-Control-Allow-Headers", "*")
}

// writeResponse sends res. A response whose headers cannot be encoded is
// replaced by a generic internal error.
func writeResponse(w http.ResponseWriter, res Response) error {
	headers, err := res.headers()
	if err != nil {
		res = errorResponse(http.StatusInternalServerError, internalErrorMessage)
		headers, _ = res.headers()
	}
	if res.Status == 0 {
		res.Status = http.StatusOK
	}

	h := w.Header()
	setCORSHeaders(h)
	for k, v := range headers {
		h.Set(k, v)
	}
	w.WriteHeader(res.Status)
	if len(res.Body) > 0 {
		if _, writeErr := w.Write(res.Body); writeErr != nil && err == nil {
			err = writeErr
		}
	}
	return err
}
