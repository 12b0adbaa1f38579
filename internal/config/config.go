package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	SpeechModePersist = "persist"
	SpeechModeStream  = "stream"

	EngineExec       = "exec"
	EngineOpenAI     = "openai"
	EngineGemini     = "gemini"
	EngineElevenLabs = "elevenlabs"

	ArchiveDisk  = "disk"
	ArchiveNATS  = "nats"
	ArchiveMinio = "minio"

	CatalogSQLite   = "sqlite"
	CatalogPostgres = "postgres"
	CatalogRedis    = "redis"

	TraceNone   = "none"
	TraceStdout = "stdout"
	TraceOTLP   = "otlp"
)

type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Speech    SpeechConfig    `yaml:"speech" toml:"speech"`
	Archive   ArchiveConfig   `yaml:"archive" toml:"archive"`
	Catalog   CatalogConfig   `yaml:"catalog" toml:"catalog"`
	Telemetry TelemetryConfig `yaml:"telemetry" toml:"telemetry"`
}

type ServerConfig struct {
	APIPort  int    `yaml:"api_port" toml:"api_port"`
	LogLevel string `yaml:"log_level" toml:"log_level"`
}

type SpeechConfig struct {
	// Mode selects how synthesized audio is returned: persisted as a file
	// object, or streamed back as raw WAV bytes.
	Mode           string `yaml:"mode" toml:"mode"`
	Engine         string `yaml:"engine" toml:"engine"`
	DefaultVoice   string `yaml:"default_voice" toml:"default_voice"`
	TimeoutSeconds int    `yaml:"timeout_seconds" toml:"timeout_seconds"`

	Exec       ExecConfig       `yaml:"exec" toml:"exec"`
	OpenAI     OpenAIConfig     `yaml:"openai" toml:"openai"`
	Gemini     GeminiConfig     `yaml:"gemini" toml:"gemini"`
	ElevenLabs ElevenLabsConfig `yaml:"elevenlabs" toml:"elevenlabs"`
}

type ExecConfig struct {
	Command string `yaml:"command" toml:"command"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key" toml:"api_key"`
	BaseURL string `yaml:"base_url" toml:"base_url"`
	Model   string `yaml:"model" toml:"model"`
	Voice   string `yaml:"voice" toml:"voice"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key" toml:"api_key"`
	Model  string `yaml:"model" toml:"model"`
	Voice  string `yaml:"voice" toml:"voice"`
}

type ElevenLabsConfig struct {
	APIKey  string `yaml:"api_key" toml:"api_key"`
	BaseURL string `yaml:"base_url" toml:"base_url"`
	VoiceID string `yaml:"voice_id" toml:"voice_id"`
}

type ArchiveConfig struct {
	Backend string `yaml:"backend" toml:"backend"`
	Root    string `yaml:"root" toml:"root"`

	NATSURL    string `yaml:"nats_url" toml:"nats_url"`
	NATSBucket string `yaml:"nats_bucket" toml:"nats_bucket"`

	MinioEndpoint  string `yaml:"minio_endpoint" toml:"minio_endpoint"`
	MinioAccessKey string `yaml:"minio_access_key" toml:"minio_access_key"`
	MinioSecretKey string `yaml:"minio_secret_key" toml:"minio_secret_key"`
	MinioBucket    string `yaml:"minio_bucket" toml:"minio_bucket"`
	MinioRegion    string `yaml:"minio_region" toml:"minio_region"`
	MinioUseSSL    bool   `yaml:"minio_use_ssl" toml:"minio_use_ssl"`
}

type CatalogConfig struct {
	Backend     string `yaml:"backend" toml:"backend"`
	Path        string `yaml:"path" toml:"path"`
	DatabaseURL string `yaml:"database_url" toml:"database_url"`
	RedisURL    string `yaml:"redis_url" toml:"redis_url"`
}

type TelemetryConfig struct {
	// MetricsBind is the listen address of the /metrics and /healthz server.
	// Empty or "off" disables it.
	MetricsBind   string `yaml:"metrics_bind" toml:"metrics_bind"`
	TraceExporter string `yaml:"trace_exporter" toml:"trace_exporter"`
	OTLPEndpoint  string `yaml:"otlp_endpoint" toml:"otlp_endpoint"`
	OTLPInsecure  bool   `yaml:"otlp_insecure" toml:"otlp_insecure"`
}

// SpeechTimeout is the per-request synthesis budget.
func (c SpeechConfig) SpeechTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// MetricsEnabled reports whether the metrics listener should start.
func (c TelemetryConfig) MetricsEnabled() bool {
	return c.MetricsBind != "" && !strings.EqualFold(c.MetricsBind, "off")
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			APIPort:  8080,
			LogLevel: "info",
		},
		Speech: SpeechConfig{
			Mode:           SpeechModePersist,
			Engine:         EngineExec,
			DefaultVoice:   "0",
			TimeoutSeconds: 120,
			OpenAI: OpenAIConfig{
				Model: "tts-1",
				Voice: "alloy",
			},
			Gemini: GeminiConfig{
				Model: "gemini-2.5-flash-preview-tts",
				Voice: "Kore",
			},
			ElevenLabs: ElevenLabsConfig{
				BaseURL: "https://api.elevenlabs.io",
			},
		},
		Archive: ArchiveConfig{
			Backend:     ArchiveDisk,
			Root:        "archives",
			NATSBucket:  "speechgate-files",
			MinioBucket: "speechgate-files",
		},
		Catalog: CatalogConfig{
			Backend: CatalogSQLite,
			Path:    filepath.Join("archives", "catalog.db"),
		},
		Telemetry: TelemetryConfig{
			MetricsBind:   ":9091",
			TraceExporter: TraceNone,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML or TOML file,
// a .env file and finally the process environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := decodeFile(path, data, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeFile(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse TOML config: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format %q (want .yaml, .yml or .toml)", filepath.Ext(path))
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Server.APIPort = getEnvInt("API_PORT", cfg.Server.APIPort)
	cfg.Server.LogLevel = getEnv("LOG_LEVEL", cfg.Server.LogLevel)

	cfg.Speech.Mode = getEnv("SPEECH_MODE", cfg.Speech.Mode)
	cfg.Speech.Engine = getEnv("SPEECH_ENGINE", cfg.Speech.Engine)
	cfg.Speech.DefaultVoice = getEnv("SPEECH_DEFAULT_VOICE", cfg.Speech.DefaultVoice)
	cfg.Speech.TimeoutSeconds = getEnvInt("SPEECH_TIMEOUT_SECONDS", cfg.Speech.TimeoutSeconds)
	cfg.Speech.Exec.Command = getEnv("SPEECH_EXEC_COMMAND", cfg.Speech.Exec.Command)
	cfg.Speech.OpenAI.APIKey = getEnv("OPENAI_API_KEY", cfg.Speech.OpenAI.APIKey)
	cfg.Speech.OpenAI.BaseURL = getEnv("OPENAI_BASE_URL", cfg.Speech.OpenAI.BaseURL)
	cfg.Speech.OpenAI.Model = getEnv("OPENAI_TTS_MODEL", cfg.Speech.OpenAI.Model)
	cfg.Speech.OpenAI.Voice = getEnv("OPENAI_TTS_VOICE", cfg.Speech.OpenAI.Voice)
	cfg.Speech.Gemini.APIKey = getEnv("GEMINI_API_KEY", cfg.Speech.Gemini.APIKey)
	cfg.Speech.Gemini.Model = getEnv("GEMINI_TTS_MODEL", cfg.Speech.Gemini.Model)
	cfg.Speech.Gemini.Voice = getEnv("GEMINI_TTS_VOICE", cfg.Speech.Gemini.Voice)
	cfg.Speech.ElevenLabs.APIKey = getEnv("ELEVENLABS_API_KEY", cfg.Speech.ElevenLabs.APIKey)
	cfg.Speech.ElevenLabs.BaseURL = getEnv("ELEVENLABS_BASE_URL", cfg.Speech.ElevenLabs.BaseURL)
	cfg.Speech.ElevenLabs.VoiceID = getEnv("ELEVENLABS_VOICE_ID", cfg.Speech.ElevenLabs.VoiceID)

	cfg.Archive.Backend = getEnv("ARCHIVE_BACKEND", cfg.Archive.Backend)
	cfg.Archive.Root = getEnv("ARCHIVE_ROOT", cfg.Archive.Root)
	cfg.Archive.NATSURL = getEnv("NATS_URL", cfg.Archive.NATSURL)
	cfg.Archive.NATSBucket = getEnv("NATS_BUCKET", cfg.Archive.NATSBucket)
	cfg.Archive.MinioEndpoint = getEnv("MINIO_ENDPOINT", cfg.Archive.MinioEndpoint)
	cfg.Archive.MinioAccessKey = getEnv("MINIO_ACCESS_KEY", cfg.Archive.MinioAccessKey)
	cfg.Archive.MinioSecretKey = getEnv("MINIO_SECRET_KEY", cfg.Archive.MinioSecretKey)
	cfg.Archive.MinioBucket = getEnv("MINIO_BUCKET", cfg.Archive.MinioBucket)
	cfg.Archive.MinioRegion = getEnv("MINIO_REGION", cfg.Archive.MinioRegion)
	cfg.Archive.MinioUseSSL = getEnvBool("MINIO_USE_SSL", cfg.Archive.MinioUseSSL)

	cfg.Catalog.Backend = getEnv("CATALOG_BACKEND", cfg.Catalog.Backend)
	cfg.Catalog.Path = getEnv("CATALOG_PATH", cfg.Catalog.Path)
	cfg.Catalog.DatabaseURL = getEnv("DATABASE_URL", cfg.Catalog.DatabaseURL)
	cfg.Catalog.RedisURL = getEnv("REDIS_URL", cfg.Catalog.RedisURL)

	cfg.Telemetry.MetricsBind = getEnv("METRICS_BIND", cfg.Telemetry.MetricsBind)
	cfg.Telemetry.TraceExporter = getEnv("TRACE_EXPORTER", cfg.Telemetry.TraceExporter)
	cfg.Telemetry.OTLPEndpoint = getEnv("OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
	cfg.Telemetry.OTLPInsecure = getEnvBool("OTLP_INSECURE", cfg.Telemetry.OTLPInsecure)
}

func (c *Config) Validate() error {
	if c.Server.APIPort <= 0 || c.Server.APIPort > 65535 {
		return fmt.Errorf("API_PORT must be between 1 and 65535, got %d", c.Server.APIPort)
	}

	switch c.Speech.Mode {
	case SpeechModePersist, SpeechModeStream:
	default:
		return fmt.Errorf("SPEECH_MODE must be %q or %q, got %q", SpeechModePersist, SpeechModeStream, c.Speech.Mode)
	}

	if c.Speech.TimeoutSeconds <= 0 {
		return fmt.Errorf("SPEECH_TIMEOUT_SECONDS must be positive")
	}

	switch c.Speech.Engine {
	case EngineExec:
		if strings.TrimSpace(c.Speech.Exec.Command) == "" {
			return fmt.Errorf("SPEECH_EXEC_COMMAND is required for the exec engine")
		}
	case EngineOpenAI:
		if c.Speech.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai engine")
		}
	case EngineGemini:
		if c.Speech.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini engine")
		}
	case EngineElevenLabs:
		if c.Speech.ElevenLabs.APIKey == "" {
			return fmt.Errorf("ELEVENLABS_API_KEY is required for the elevenlabs engine")
		}
	default:
		return fmt.Errorf("unknown SPEECH_ENGINE %q", c.Speech.Engine)
	}

	switch c.Archive.Backend {
	case ArchiveDisk:
		if c.Archive.Root == "" {
			return fmt.Errorf("ARCHIVE_ROOT is required for the disk archive")
		}
	case ArchiveNATS:
		if c.Archive.NATSURL == "" || c.Archive.NATSBucket == "" {
			return fmt.Errorf("NATS_URL and NATS_BUCKET are required for the nats archive")
		}
	case ArchiveMinio:
		if c.Archive.MinioEndpoint == "" || c.Archive.MinioBucket == "" {
			return fmt.Errorf("MINIO_ENDPOINT and MINIO_BUCKET are required for the minio archive")
		}
	default:
		return fmt.Errorf("unknown ARCHIVE_BACKEND %q", c.Archive.Backend)
	}

	switch c.Catalog.Backend {
	case CatalogSQLite:
		if c.Catalog.Path == "" {
			return fmt.Errorf("CATALOG_PATH is required for the sqlite catalog")
		}
	case CatalogPostgres:
		if c.Catalog.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres catalog")
		}
	case CatalogRedis:
		if c.Catalog.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis catalog")
		}
	default:
		return fmt.Errorf("unknown CATALOG_BACKEND %q", c.Catalog.Backend)
	}

	switch c.Telemetry.TraceExporter {
	case TraceNone, TraceStdout:
	case TraceOTLP:
		if c.Telemetry.OTLPEndpoint == "" {
			return fmt.Errorf("OTLP_ENDPOINT is required when TRACE_EXPORTER=otlp")
		}
	default:
		return fmt.Errorf("unknown TRACE_EXPORTER %q", c.Telemetry.TraceExporter)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return defaultValue
}
