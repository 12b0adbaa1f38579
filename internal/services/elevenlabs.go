package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// ElevenLabs Text-to-Speech Service
// Requests raw PCM (pcm_22050) and wraps it into WAV locally.
// ---------------------------------------------------------------------------

const (
	elevenLabsEngineName   = "elevenlabs"
	elevenLabsBaseURL      = "https://api.elevenlabs.io"
	elevenLabsDefaultModel = "eleven_flash_v2_5"
	elevenLabsDefaultVoice = "pNInz6obpgDQGcFmaJgB"
	elevenLabsOutputFormat = "pcm_22050"
	elevenLabsSampleRate   = 22050
)

// ElevenLabsService handles text-to-speech via ElevenLabs API.
type ElevenLabsService struct {
	apiKey  string
	baseURL string
	voiceID string
	modelID string
	client  *http.Client
	logger  *slog.Logger
}

var _ Engine = (*ElevenLabsService)(nil)

type ElevenLabsOptions struct {
	APIKey  string
	BaseURL string
	VoiceID string
}

func NewElevenLabsService(opts ElevenLabsOptions, logger *slog.Logger) *ElevenLabsService {
	if opts.VoiceID == "" {
		opts.VoiceID = elevenLabsDefaultVoice
	}
	if opts.BaseURL == "" {
		opts.BaseURL = elevenLabsBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ElevenLabsService{
		apiKey:  opts.APIKey,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		voiceID: opts.VoiceID,
		modelID: elevenLabsDefaultModel,
		client:  &http.Client{Timeout: 90 * time.Second},
		logger:  logger.With(slog.String("component", "engine.elevenlabs")),
	}
}

type elevenLabsRequest struct {
	Text          string                   `json:"text"`
	ModelID       string                   `json:"model_id"`
	VoiceSettings *elevenLabsVoiceSettings `json:"voice_settings,omitempty"`
}

type elevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// voiceFor treats numeric selectors as "use the configured voice" and any
// other selector as an ElevenLabs voice id.
func (s *ElevenLabsService) voiceFor(speaker string) string {
	if speaker == "" {
		return s.voiceID
	}
	if _, err := strconv.ParseUint(speaker, 10, 64); err == nil {
		return s.voiceID
	}
	return speaker
}

func (s *ElevenLabsService) Infer(ctx context.Context, speaker, text string) ([]byte, error) {
	voiceID := s.voiceFor(speaker)

	jsonData, err := json.Marshal(elevenLabsRequest{
		Text:    text,
		ModelID: s.modelID,
		VoiceSettings: &elevenLabsVoiceSettings{
			Stability:       0.60,
			SimilarityBoost: 0.80,
		},
	})
	if err != nil {
		return nil, runtimeError(elevenLabsEngineName, fmt.Errorf("failed to marshal request: %w", err))
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s", s.baseURL, voiceID, elevenLabsOutputFormat)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, runtimeError(elevenLabsEngineName, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, runtimeError(elevenLabsEngineName, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity {
			return nil, inputError(elevenLabsEngineName, err)
		}
		return nil, runtimeError(elevenLabsEngineName, err)
	}

	pcm, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, runtimeError(elevenLabsEngineName, fmt.Errorf("failed to read audio: %w", err))
	}
	if len(pcm) == 0 {
		return nil, runtimeError(elevenLabsEngineName, errors.New("empty audio response"))
	}

	audio, err := WrapPCM(pcm, elevenLabsSampleRate, 1)
	if err != nil {
		return nil, runtimeError(elevenLabsEngineName, err)
	}

	s.logger.Debug("speech generated",
		slog.String("voice_id", voiceID),
		slog.String("model", s.modelID),
		slog.Int("bytes", len(audio)))
	return audio, nil
}
