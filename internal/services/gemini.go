package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"google.golang.org/genai"
)

const (
	geminiEngineName = "gemini"

	// Gemini TTS returns raw 16-bit mono PCM at 24 kHz.
	geminiSampleRate = 24000
	geminiChannels   = 1
)

// GeminiService synthesizes speech with a Gemini TTS model.
type GeminiService struct {
	client *genai.Client
	model  string
	voice  string
	logger *slog.Logger
}

var _ Engine = (*GeminiService)(nil)

type GeminiOptions struct {
	APIKey string
	Model  string
	Voice  string
}

func NewGeminiService(ctx context.Context, opts GeminiOptions, logger *slog.Logger) (*GeminiService, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &GeminiService{
		client: client,
		model:  opts.Model,
		voice:  opts.Voice,
		logger: logger.With(slog.String("component", "engine.gemini")),
	}, nil
}

func (s *GeminiService) voiceFor(speaker string) string {
	if speaker == "" {
		return s.voice
	}
	if _, err := strconv.ParseUint(speaker, 10, 64); err == nil {
		return s.voice
	}
	return speaker
}

func (s *GeminiService) Infer(ctx context.Context, speaker, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, inputError(geminiEngineName, errors.New("input text is empty"))
	}
	voice := s.voiceFor(speaker)

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(text), config)
	if err != nil {
		return nil, runtimeError(geminiEngineName, err)
	}

	pcm, err := audioFromResponse(resp)
	if err != nil {
		return nil, runtimeError(geminiEngineName, err)
	}

	audio, err := WrapPCM(pcm, geminiSampleRate, geminiChannels)
	if err != nil {
		return nil, runtimeError(geminiEngineName, err)
	}

	s.logger.Debug("speech generated",
		slog.String("voice", voice),
		slog.String("model", s.model),
		slog.Int("bytes", len(audio)))
	return audio, nil
}

// audioFromResponse concatenates the inline audio parts of the first candidate.
func audioFromResponse(resp *genai.GenerateContentResponse) ([]byte, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("no candidates in response")
	}

	var pcm []byte
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.InlineData != nil && strings.HasPrefix(part.InlineData.MIMEType, "audio/") {
			pcm = append(pcm, part.InlineData.Data...)
		}
	}
	if len(pcm) == 0 {
		return nil, errors.New("no audio in response")
	}
	return pcm, nil
}
