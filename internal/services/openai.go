package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	openai "github.com/sashabaranov/go-openai"
)

const openAIEngineName = "openai"

// OpenAIService synthesizes speech through an OpenAI-compatible
// /audio/speech endpoint.
type OpenAIService struct {
	client *openai.Client
	model  string
	voice  string
	logger *slog.Logger
}

var _ Engine = (*OpenAIService)(nil)

type OpenAIOptions struct {
	APIKey  string
	BaseURL string
	Model   string
	Voice   string
}

func NewOpenAIService(opts OpenAIOptions, logger *slog.Logger) *OpenAIService {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &OpenAIService{
		client: openai.NewClientWithConfig(cfg),
		model:  opts.Model,
		voice:  opts.Voice,
		logger: logger.With(slog.String("component", "engine.openai")),
	}
}

// voiceFor maps a speaker selector to an OpenAI voice name. Numeric
// selectors address the configured default voice.
func (s *OpenAIService) voiceFor(speaker string) string {
	if speaker == "" {
		return s.voice
	}
	if _, err := strconv.ParseUint(speaker, 10, 64); err == nil {
		return s.voice
	}
	return speaker
}

func (s *OpenAIService) Infer(ctx context.Context, speaker, text string) ([]byte, error) {
	voice := s.voiceFor(speaker)

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.model),
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatWav,
	})
	if err != nil {
		if isClientError(err) {
			return nil, inputError(openAIEngineName, err)
		}
		return nil, runtimeError(openAIEngineName, err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, runtimeError(openAIEngineName, fmt.Errorf("failed to read speech response: %w", err))
	}
	if len(audio) == 0 {
		return nil, runtimeError(openAIEngineName, errors.New("empty audio response"))
	}

	s.logger.Debug("speech generated",
		slog.String("voice", voice),
		slog.String("model", s.model),
		slog.Int("bytes", len(audio)))
	return audio, nil
}

func isClientError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusBadRequest || apiErr.HTTPStatusCode == http.StatusUnprocessableEntity
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusBadRequest || reqErr.HTTPStatusCode == http.StatusUnprocessableEntity
	}
	return false
}
