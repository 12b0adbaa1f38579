package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestVoiceSelectorAcceptsStringAndNumber(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"input":"hi","voice_selector":"narrator"}`, "narrator"},
		{`{"input":"hi","voice_selector":3}`, "3"},
		{`{"input":"hi","voice_selector":null}`, "0"},
		{`{"input":"hi"}`, "0"},
	}

	for _, tc := range cases {
		var req SpeechRequest
		if err := json.Unmarshal([]byte(tc.body), &req); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.body, err)
		}
		if got := req.Voice("0"); got != tc.want {
			t.Errorf("%s: expected voice %q, got %q", tc.body, tc.want, got)
		}
	}
}

func TestVoiceSelectorRejectsFractions(t *testing.T) {
	var req SpeechRequest
	if err := json.Unmarshal([]byte(`{"input":"hi","voice_selector":1.5}`), &req); err == nil {
		t.Fatal("expected error for fractional selector")
	}
	if err := json.Unmarshal([]byte(`{"input":"hi","voice_selector":[1]}`), &req); err == nil {
		t.Fatal("expected error for array selector")
	}
}

func TestSpeechRequestRequiresInputKey(t *testing.T) {
	var req SpeechRequest
	if err := json.Unmarshal([]byte(`{"input":""}`), &req); err != nil {
		t.Fatalf("empty input should decode: %v", err)
	}
	if req.Input != "" {
		t.Errorf("expected empty input, got %q", req.Input)
	}

	for _, body := range []string{`{}`, `{"voice_selector":1}`, `{"input":null}`} {
		err := json.Unmarshal([]byte(body), &req)
		if err == nil {
			t.Fatalf("%s: expected missing input error", body)
		}
		if !strings.Contains(err.Error(), "missing field `input`") {
			t.Errorf("%s: unexpected error %v", body, err)
		}
	}
}

func TestFileObjectWireNames(t *testing.T) {
	data, err := json.Marshal(FileObject{
		ID:        "file_abc",
		Bytes:     8,
		CreatedAt: 1700000000,
		Filename:  "output.wav",
		Object:    ObjectFile,
		Purpose:   PurposeAssistantsOutput,
	})
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("failed to unmarshal result: %v", err)
	}

	for _, key := range []string{"id", "bytes", "created_at", "filename", "object", "purpose"} {
		if _, ok := result[key]; !ok {
			t.Errorf("expected key %q in %s", key, data)
		}
	}
	if result["bytes"].(float64) != 8 {
		t.Errorf("expected bytes=8, got %v", result["bytes"])
	}
}
