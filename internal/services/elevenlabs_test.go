package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElevenLabsServiceWrapsPCM(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/text-to-speech/voice-1", r.URL.Path)
		assert.Equal(t, "pcm_22050", r.URL.Query().Get("output_format"))
		assert.Equal(t, "xi-test", r.Header.Get("xi-api-key"))
		w.Write([]byte{0x01, 0x00, 0x02, 0x00})
	}))
	defer srv.Close()

	svc := NewElevenLabsService(ElevenLabsOptions{APIKey: "xi-test", BaseURL: srv.URL, VoiceID: "voice-1"}, nil)

	audio, err := svc.Infer(context.Background(), "0", "hello")
	require.NoError(t, err)
	assert.True(t, IsWAV(audio))
}

func TestElevenLabsServiceStatusMapping(t *testing.T) {
	t.Parallel()

	status := http.StatusBadRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(`{"detail":"nope"}`))
	}))
	defer srv.Close()

	svc := NewElevenLabsService(ElevenLabsOptions{APIKey: "xi-test", BaseURL: srv.URL}, nil)

	_, err := svc.Infer(context.Background(), "custom-voice", "hello")
	require.Error(t, err)
	assert.Equal(t, KindInput, KindOf(err))
	assert.Contains(t, err.Error(), "nope")
}

func TestElevenLabsServiceServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	svc := NewElevenLabsService(ElevenLabsOptions{APIKey: "xi-test", BaseURL: srv.URL}, nil)

	_, err := svc.Infer(context.Background(), "0", "hello")
	require.Error(t, err)
	assert.Equal(t, KindRuntime, KindOf(err))
}
