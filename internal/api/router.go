package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/metric"
)

// RouterConfig holds the ambient dependencies of the API router.
type RouterConfig struct {
	Logger *slog.Logger

	// Meter records request metrics; nil disables them.
	Meter metric.Meter
}

// NewRouter mounts the speech and file routes on a chi mux. Unknown paths and
// methods resolve to InvalidEndpoint.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(corsHeaders)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(logger.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	if cfg.Meter != nil {
		instrument, err := requestMetrics(cfg.Meter)
		if err != nil {
			logger.Warn("request metrics disabled", slog.String("error", err.Error()))
		} else {
			r.Use(instrument)
		}
	}
	r.Use(preflight)

	r.Post("/v1/audio/speech", h.handle(h.CreateSpeech))

	r.HandleFunc("/v1/files", h.handle(h.Files))
	r.HandleFunc("/v1/files/*", h.handle(h.Files))

	r.NotFound(h.handle(h.InvalidEndpoint))
	r.MethodNotAllowed(h.handle(h.InvalidEndpoint))

	return r
}
