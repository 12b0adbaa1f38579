package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bobarin/speechgate/internal/config"
	"github.com/bobarin/speechgate/internal/db"
	"github.com/bobarin/speechgate/internal/files"
	"github.com/bobarin/speechgate/internal/services"
	"github.com/bobarin/speechgate/internal/speech"
	"github.com/bobarin/speechgate/internal/storage"
	"github.com/nats-io/nats.go"
)

type dependencies struct {
	Backend speech.Backend
	Files   *files.Service

	closers []func() error
}

func (d *dependencies) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func buildDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	archive, err := newArchive(ctx, cfg.Archive, logger, deps)
	if err != nil {
		deps.Close()
		return nil, err
	}

	catalog, err := newCatalog(ctx, cfg.Catalog, logger, deps)
	if err != nil {
		deps.Close()
		return nil, err
	}

	deps.Files = files.NewService(archive, catalog, logger)

	engine, err := newEngine(ctx, cfg.Speech, logger)
	if err != nil {
		deps.Close()
		return nil, err
	}

	deps.Backend, err = speech.New(cfg.Speech.Mode, engine, deps.Files, speech.Options{
		DefaultVoice: cfg.Speech.DefaultVoice,
		Timeout:      cfg.Speech.SpeechTimeout(),
		Logger:       logger,
	})
	if err != nil {
		deps.Close()
		return nil, err
	}

	return deps, nil
}

func newArchive(ctx context.Context, cfg config.ArchiveConfig, logger *slog.Logger, deps *dependencies) (storage.Archive, error) {
	switch cfg.Backend {
	case config.ArchiveNATS:
		nc, err := nats.Connect(cfg.NATSURL, nats.Name("speechgate"))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to nats: %w", err)
		}
		deps.closers = append(deps.closers, func() error { nc.Close(); return nil })

		js, err := nc.JetStream()
		if err != nil {
			return nil, fmt.Errorf("failed to open jetstream: %w", err)
		}
		logger.Info("connected to nats", slog.String("url", redactURL(cfg.NATSURL)), slog.String("bucket", cfg.NATSBucket))
		return storage.NewNATS(js, cfg.NATSBucket, logger)

	case config.ArchiveMinio:
		archive, err := storage.NewMinio(ctx, storage.MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			Region:    cfg.MinioRegion,
			UseSSL:    cfg.MinioUseSSL,
		}, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to minio", slog.String("endpoint", cfg.MinioEndpoint), slog.String("bucket", cfg.MinioBucket))
		return archive, nil

	default:
		archive, err := storage.NewDisk(cfg.Root)
		if err != nil {
			return nil, err
		}
		logger.Info("using disk archive", slog.String("root", cfg.Root))
		return archive, nil
	}
}

func newCatalog(ctx context.Context, cfg config.CatalogConfig, logger *slog.Logger, deps *dependencies) (files.Catalog, error) {
	switch cfg.Backend {
	case config.CatalogPostgres:
		database, err := db.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		deps.closers = append(deps.closers, database.Close)
		logger.Info("connected to postgres catalog", slog.String("url", redactURL(cfg.DatabaseURL)))
		return database, nil

	case config.CatalogRedis:
		catalog, err := db.NewRedis(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		deps.closers = append(deps.closers, catalog.Close)
		logger.Info("connected to redis catalog", slog.String("url", redactURL(cfg.RedisURL)))
		return catalog, nil

	default:
		database, err := db.OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		deps.closers = append(deps.closers, database.Close)
		logger.Info("opened sqlite catalog", slog.String("path", cfg.Path))
		return database, nil
	}
}

func newEngine(ctx context.Context, cfg config.SpeechConfig, logger *slog.Logger) (services.Engine, error) {
	switch cfg.Engine {
	case config.EngineOpenAI:
		logger.Info("speech engine: openai", slog.String("model", cfg.OpenAI.Model), slog.String("voice", cfg.OpenAI.Voice))
		return services.NewOpenAIService(services.OpenAIOptions{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
			Voice:   cfg.OpenAI.Voice,
		}, logger), nil

	case config.EngineGemini:
		logger.Info("speech engine: gemini", slog.String("model", cfg.Gemini.Model), slog.String("voice", cfg.Gemini.Voice))
		return services.NewGeminiService(ctx, services.GeminiOptions{
			APIKey: cfg.Gemini.APIKey,
			Model:  cfg.Gemini.Model,
			Voice:  cfg.Gemini.Voice,
		}, logger)

	case config.EngineElevenLabs:
		logger.Info("speech engine: elevenlabs", slog.String("voice_id", cfg.ElevenLabs.VoiceID))
		return services.NewElevenLabsService(services.ElevenLabsOptions{
			APIKey:  cfg.ElevenLabs.APIKey,
			BaseURL: cfg.ElevenLabs.BaseURL,
			VoiceID: cfg.ElevenLabs.VoiceID,
		}, logger), nil

	default:
		logger.Info("speech engine: exec", slog.String("command", cfg.Exec.Command))
		return services.NewExecEngine(cfg.Exec.Command, logger)
	}
}
