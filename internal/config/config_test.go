package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "auto", cfg.Embedding.Provider)
	assert.Zero(t, cfg.Chunking.Size)
	assert.Zero(t, cfg.Search.TopK)
}

func TestLoad_ParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[storage]
backend = "pgvector"
database_url = "postgres://localhost/berryrag"

[embedding]
provider = "ollama"
model = "all-minilm"

[chunking]
size = 800
overlap = 100

[search]
top_k = 3
threshold = 0.25
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "pgvector", cfg.Storage.Backend)
	assert.Equal(t, "postgres://localhost/berryrag", cfg.Storage.DatabaseURL)
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Equal(t, "all-minilm", cfg.Embedding.Model)
	assert.Equal(t, 800, cfg.Chunking.Size)
	assert.Equal(t, 100, cfg.Chunking.Overlap)
	assert.Equal(t, 3, cfg.Search.TopK)
	assert.Equal(t, 0.25, cfg.Search.Threshold)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not [valid toml"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[storage]
database_url = "postgres://file-value/berryrag"

[embedding]
openai_api_key = "file-key"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("BERRYRAG_DATABASE_URL", "postgres://env-value/berryrag")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Embedding.OpenAIAPIKey)
	assert.Equal(t, "postgres://env-value/berryrag", cfg.Storage.DatabaseURL)
}
