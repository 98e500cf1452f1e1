// Package config loads the berryrag configuration file. All settings
// are constructor-time parameters for the engine and its adapters;
// nothing here is mutable at runtime.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Default file location, relative to the user home directory.
const defaultRelPath = ".berryrag/config.toml"

// Config is the full configuration surface.
type Config struct {
	Storage   StorageConfig   `toml:"storage"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Chunking  ChunkingConfig  `toml:"chunking"`
	Search    SearchConfig    `toml:"search"`
}

// StorageConfig selects and parameterises the persistence backend.
type StorageConfig struct {
	// Backend is "sqlite" or "pgvector".
	Backend string `toml:"backend"`

	// Path is the data directory for the sqlite backend. Empty means
	// ~/.berryrag/storage.
	Path string `toml:"path"`

	// DatabaseURL is the PostgreSQL DSN for the pgvector backend.
	// The BERRYRAG_DATABASE_URL environment variable overrides it.
	DatabaseURL string `toml:"database_url"`
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	// Provider is "auto", "ollama", "openai" or "simple".
	Provider string `toml:"provider"`

	// Model overrides the provider's default model.
	Model string `toml:"model"`

	// OllamaURL overrides the default Ollama endpoint.
	OllamaURL string `toml:"ollama_url"`

	// OpenAIAPIKey authenticates the OpenAI provider. The
	// OPENAI_API_KEY environment variable overrides it.
	OpenAIAPIKey string `toml:"openai_api_key"`
}

// ChunkingConfig parameterises the text splitter.
type ChunkingConfig struct {
	Size    int `toml:"size"`
	Overlap int `toml:"overlap"`
}

// SearchConfig sets retrieval defaults.
type SearchConfig struct {
	TopK      int     `toml:"top_k"`
	Threshold float64 `toml:"threshold"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Storage:   StorageConfig{Backend: "sqlite"},
		Embedding: EmbeddingConfig{Provider: "auto"},
	}
}

// Load reads the configuration from path. An empty path falls back to
// ~/.berryrag/config.toml; a missing file yields defaults. Environment
// variables override file values for credentials and the DSN.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, defaultRelPath)
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return Config{}, fmt.Errorf("reading config file: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Embedding.OpenAIAPIKey = v
	}
	if v := os.Getenv("BERRYRAG_DATABASE_URL"); v != "" {
		cfg.Storage.DatabaseURL = v
	}

	return cfg, nil
}
