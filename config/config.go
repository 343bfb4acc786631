package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/itish2003/voicerag/models"
)

// Config holds every setting the pipelines need. It is built once at startup
// and passed by value; nothing reads ambient state after Load returns.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Crawl       CrawlConfig       `yaml:"crawl"`
	Ingest      IngestConfig      `yaml:"ingest"`
	Retrieve    RetrieveConfig    `yaml:"retrieve"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Generation  GenerationConfig  `yaml:"generation"`
	Speech      SpeechConfig      `yaml:"speech"`
	Timeouts    TimeoutConfig     `yaml:"timeouts"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type CrawlConfig struct {
	APIKey       string        `yaml:"-"`
	BaseURL      string        `yaml:"base_url"`
	PageLimit    int           `yaml:"page_limit"`
	Formats      []string      `yaml:"formats"`
	MinDelay     time.Duration `yaml:"min_delay"`
	PollInterval time.Duration `yaml:"poll_interval"`
	OutputDir    string        `yaml:"output_dir"`
	ExcludePaths []string      `yaml:"exclude_paths"`
}

type IngestConfig struct {
	Workers      int  `yaml:"workers"`
	StableIDs    bool `yaml:"stable_ids"`
	ChunkSize    int  `yaml:"chunk_size"`
	ChunkOverlap int  `yaml:"chunk_overlap"`
}

type RetrieveConfig struct {
	TopK int `yaml:"top_k"`
}

// EmbeddingConfig selects the embedding model. Provider is "gemini", "openai"
// or "local". An empty Model uses the provider's default. Dimension sizes the
// local embedder and asks remote providers to shorten their vectors.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
}

// VectorStoreConfig selects the store. Provider is "chroma", "bolt" or "memory".
type VectorStoreConfig struct {
	Provider   string `yaml:"provider"`
	Collection string `yaml:"collection"`
	URL        string `yaml:"url"`
	Path       string `yaml:"path"`
}

// GenerationConfig selects the language model. Provider is "gemini" or "openai"; an empty Model uses the provider default.
type GenerationConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

// SpeechConfig selects the speech model. Provider is "openai" or "gemini".
type SpeechConfig struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	Voice       string        `yaml:"voice"`
	ArtifactDir string        `yaml:"artifact_dir"`
	ArtifactTTL time.Duration `yaml:"artifact_ttl"`
}

// TimeoutConfig bounds each external call. Expiry counts as a stage failure.
type TimeoutConfig struct {
	Crawl    time.Duration `yaml:"crawl"`
	Embed    time.Duration `yaml:"embed"`
	Store    time.Duration `yaml:"store"`
	Generate time.Duration `yaml:"generate"`
	Speech   time.Duration `yaml:"speech"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Credentials are read from the environment only, never from the YAML file.
type Credentials struct {
	GeminiAPIKey    string
	OpenAIAPIKey    string
	FirecrawlAPIKey string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{Port: "8080"},
		Crawl: CrawlConfig{
			BaseURL:      "https://api.firecrawl.dev",
			PageLimit:    10,
			Formats:      []string{"markdown", "html"},
			MinDelay:     time.Second,
			PollInterval: 2 * time.Second,
		},
		Ingest: IngestConfig{
			Workers:      1,
			ChunkOverlap: 100,
		},
		Retrieve: RetrieveConfig{TopK: 3},
		Embedding: EmbeddingConfig{
			Provider:  "gemini",
			Dimension: 256,
		},
		VectorStore: VectorStoreConfig{
			Provider:   "chroma",
			Collection: "voicerag-docs",
			URL:        "http://localhost:8000",
			Path:       "voicerag.db",
		},
		Generation: GenerationConfig{Provider: "gemini"},
		Speech: SpeechConfig{
			Provider:    "openai",
			Voice:       string(models.VoiceAlloy),
			ArtifactDir: filepath.Join(os.TempDir(), "voicerag-audio"),
			ArtifactTTL: time.Hour,
		},
		Timeouts: TimeoutConfig{
			Crawl:    5 * time.Minute,
			Embed:    30 * time.Second,
			Store:    30 * time.Second,
			Generate: 2 * time.Minute,
			Speech:   2 * time.Minute,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads the YAML file at path over the defaults. A missing file yields
// the defaults. Environment overrides are applied last.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// LoadEnvFile loads a .env file into the process environment if present.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CHROMA_URL"); v != "" {
		c.VectorStore.URL = v
	}
	if v := os.Getenv("FIRECRAWL_BASE_URL"); v != "" {
		c.Crawl.BaseURL = v
	}
	if v := os.Getenv("FIRECRAWL_API_KEY"); v != "" {
		c.Crawl.APIKey = v
	}
	if v := os.Getenv("VOICERAG_COLLECTION"); v != "" {
		c.VectorStore.Collection = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
}

// CredentialsFromEnv reads provider API keys from the environment.
func CredentialsFromEnv() Credentials {
	return Credentials{
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		FirecrawlAPIKey: os.Getenv("FIRECRAWL_API_KEY"),
	}
}

// Validate checks the settings that would otherwise fail deep inside a pipeline.
func (c Config) Validate() error {
	if c.VectorStore.Collection == "" {
		return &models.ConfigurationError{Msg: "vector_store.collection is required"}
	}
	switch c.VectorStore.Provider {
	case "chroma":
		if _, err := url.ParseRequestURI(c.VectorStore.URL); err != nil {
			return &models.ConfigurationError{Msg: "vector_store.url is invalid", Err: err}
		}
	case "bolt":
		if c.VectorStore.Path == "" {
			return &models.ConfigurationError{Msg: "vector_store.path is required for bolt"}
		}
	case "memory":
	default:
		return &models.ConfigurationError{Msg: fmt.Sprintf("unknown vector_store.provider %q", c.VectorStore.Provider)}
	}

	switch c.Embedding.Provider {
	case "gemini", "openai":
	case "local":
		if c.Embedding.Dimension <= 0 {
			return &models.ConfigurationError{Msg: "embedding.dimension must be positive for the local provider"}
		}
	default:
		return &models.ConfigurationError{Msg: fmt.Sprintf("unknown embedding.provider %q", c.Embedding.Provider)}
	}

	switch c.Generation.Provider {
	case "gemini", "openai":
	default:
		return &models.ConfigurationError{Msg: fmt.Sprintf("unknown generation.provider %q", c.Generation.Provider)}
	}

	switch c.Speech.Provider {
	case "gemini", "openai":
	default:
		return &models.ConfigurationError{Msg: fmt.Sprintf("unknown speech.provider %q", c.Speech.Provider)}
	}
	if _, err := models.ParseVoice(c.Speech.Voice); err != nil {
		return &models.ConfigurationError{Msg: "speech.voice", Err: err}
	}

	if _, err := url.ParseRequestURI(c.Crawl.BaseURL); err != nil {
		return &models.ConfigurationError{Msg: "crawl.base_url is invalid", Err: err}
	}
	if c.Crawl.MinDelay < 0 {
		return &models.ConfigurationError{Msg: "crawl.min_delay must not be negative"}
	}
	if c.Ingest.Workers < 1 {
		return &models.ConfigurationError{Msg: "ingest.workers must be at least 1"}
	}
	if c.Ingest.ChunkSize < 0 || c.Ingest.ChunkOverlap < 0 {
		return &models.ConfigurationError{Msg: "ingest.chunk_size and ingest.chunk_overlap must not be negative"}
	}
	if c.Retrieve.TopK < 1 {
		return &models.ConfigurationError{Msg: "retrieve.top_k must be at least 1"}
	}
	return nil
}

// RequireKey returns a ConfigurationError naming env when key is empty.
func RequireKey(key, env string) error {
	if key == "" {
		return &models.ConfigurationError{Msg: fmt.Sprintf("%s is not set", env)}
	}
	return nil
}
