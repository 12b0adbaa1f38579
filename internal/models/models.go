package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by catalogs and archives when a file id is unknown.
var ErrNotFound = errors.New("not found")

const (
	FileIDPrefix = "file_"

	ObjectFile = "file"

	PurposeAssistants       = "assistants"
	PurposeAssistantsOutput = "assistants_output"
)

// ============================================================================
// Files
// ============================================================================

// FileObject is the metadata record returned by every file operation.
type FileObject struct {
	ID        string `json:"id"`
	Bytes     int64  `json:"bytes"`
	CreatedAt int64  `json:"created_at"`
	Filename  string `json:"filename"`
	Object    string `json:"object"`
	Purpose   string `json:"purpose"`
}

type FileList struct {
	Object string       `json:"object"`
	Data   []FileObject `json:"data"`
}

type DeleteFileStatus struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

// ============================================================================
// Speech
// ============================================================================

// VoiceSelector identifies the voice used for synthesis. Clients send either a
// JSON string or a JSON integer; both are kept as their decimal/text form.
type VoiceSelector string

func (v *VoiceSelector) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = VoiceSelector(s)
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err != nil {
		return fmt.Errorf("voice_selector must be a string or a number: %w", err)
	}
	if _, err := n.Int64(); err != nil {
		return fmt.Errorf("voice_selector must be an integer, got %s", n)
	}
	*v = VoiceSelector(n.String())
	return nil
}

type SpeechRequest struct {
	Input         string        `json:"input"`
	VoiceSelector VoiceSelector `json:"voice_selector,omitempty"`
}

// UnmarshalJSON requires the input key. An empty string is a valid input.
func (r *SpeechRequest) UnmarshalJSON(data []byte) error {
	var wire struct {
		Input         *string       `json:"input"`
		VoiceSelector VoiceSelector `json:"voice_selector"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.Input == nil {
		return errors.New("missing field `input`")
	}

	r.Input = *wire.Input
	r.VoiceSelector = wire.VoiceSelector
	return nil
}

// Voice returns the selector, or fallback when the client sent none.
func (r SpeechRequest) Voice(fallback string) string {
	if r.VoiceSelector == "" {
		return fallback
	}
	return string(r.VoiceSelector)
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Message string `json:"message"`
}
