package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsCmd_Use(t *testing.T) {
	assert.Equal(t, "stats", statsCmd.Use)
}

func TestStatsCmd_ShowsCounts(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := ragService.AddDocument(context.Background(), "https://example.com/doc", "Doc", "hello world", nil)
	require.NoError(t, err)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"stats"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err = rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Documents:  1")
	assert.Contains(t, buf.String(), "Chunks:     1")
	assert.Contains(t, buf.String(), "simple")
}

func TestStatsCmd_JSONOutput(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer func() { statsJSON = false }()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"stats", "--json"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), `"document_count"`)
	assert.Contains(t, buf.String(), `"embedding_dimension"`)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.00 KiB", formatBytes(1024))
	assert.Equal(t, "1.50 MiB", formatBytes(3*1024*1024/2))
}
