// Package speech turns speech requests into audio using a configured engine.
// The backend is chosen once at startup: "persist" stores every result as a
// file object, "stream" hands the raw WAV bytes back to the caller.
package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bobarin/speechgate/internal/models"
	"github.com/bobarin/speechgate/internal/services"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	ModePersist = "persist"
	ModeStream  = "stream"

	// OutputFilename is the archived name of persisted speech.
	OutputFilename = "output.wav"
)

var tracer = otel.Tracer("github.com/bobarin/speechgate/internal/speech")

// Result holds exactly one of Audio (stream mode) or File (persist mode).
type Result struct {
	Audio []byte
	File  *models.FileObject
}

type Backend interface {
	Synthesize(ctx context.Context, req models.SpeechRequest) (*Result, error)
	Mode() string
}

// FileCreator persists synthesized audio.
type FileCreator interface {
	Create(ctx context.Context, filename, purpose string, data []byte) (*models.FileObject, error)
}

type Options struct {
	DefaultVoice string
	Timeout      time.Duration
	Logger       *slog.Logger
}

// New returns the backend for mode. files is only used in persist mode.
func New(mode string, engine services.Engine, files FileCreator, opts Options) (Backend, error) {
	if engine == nil {
		return nil, errors.New("speech engine is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.DefaultVoice == "" {
		opts.DefaultVoice = "0"
	}
	base := synthesizer{
		engine:       engine,
		defaultVoice: opts.DefaultVoice,
		timeout:      opts.Timeout,
		logger:       opts.Logger.With(slog.String("component", "speech"), slog.String("mode", mode)),
	}

	switch mode {
	case ModePersist:
		if files == nil {
			return nil, errors.New("persist mode requires a file store")
		}
		return &PersistingBackend{synthesizer: base, files: files}, nil
	case ModeStream:
		return &StreamingBackend{synthesizer: base}, nil
	default:
		return nil, fmt.Errorf("unknown speech mode %q", mode)
	}
}

type synthesizer struct {
	engine       services.Engine
	defaultVoice string
	timeout      time.Duration
	logger       *slog.Logger
}

func (s *synthesizer) infer(ctx context.Context, req models.SpeechRequest) ([]byte, error) {
	voice := req.Voice(s.defaultVoice)

	ctx, span := tracer.Start(ctx, "speech.infer")
	defer span.End()
	span.SetAttributes(
		attribute.String("speech.voice", voice),
		attribute.Int("speech.input_len", len(req.Input)),
	)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := time.Now()
	audio, err := s.engine.Infer(ctx, voice, req.Input)
	if err == nil && len(audio) == 0 {
		err = &services.EngineError{Engine: "speech", Kind: services.KindRuntime, Err: errors.New("engine returned no audio")}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error("speech synthesis failed",
			slog.String("voice", voice),
			slog.String("kind", services.KindOf(err).String()),
			slog.String("error", err.Error()))
		return nil, err
	}

	span.SetAttributes(attribute.Int("speech.audio_bytes", len(audio)))
	s.logger.Info("speech synthesized",
		slog.String("voice", voice),
		slog.Int("bytes", len(audio)),
		slog.Duration("elapsed", time.Since(started)))
	return audio, nil
}

// PersistingBackend archives every synthesized clip and returns its file object.
type PersistingBackend struct {
	synthesizer
	files FileCreator
}

func (b *PersistingBackend) Mode() string { return ModePersist }

func (b *PersistingBackend) Synthesize(ctx context.Context, req models.SpeechRequest) (*Result, error) {
	audio, err := b.infer(ctx, req)
	if err != nil {
		return nil, err
	}

	file, err := b.files.Create(ctx, OutputFilename, models.PurposeAssistantsOutput, audio)
	if err != nil {
		return nil, fmt.Errorf("failed to store speech: %w", err)
	}
	return &Result{File: file}, nil
}

// StreamingBackend returns the synthesized WAV bytes without storing them.
type StreamingBackend struct {
	synthesizer
}

func (b *StreamingBackend) Mode() string { return ModeStream }

func (b *StreamingBackend) Synthesize(ctx context.Context, req models.SpeechRequest) (*Result, error) {
	audio, err := b.infer(ctx, req)
	if err != nil {
		return nil, err
	}
	return &Result{Audio: audio}, nil
}
