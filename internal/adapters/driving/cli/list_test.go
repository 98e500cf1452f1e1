package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListCmd_Use(t *testing.T) {
	assert.Equal(t, "list", listCmd.Use)
}

func TestListCmd_Empty(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"list"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "No documents stored.")
}

func TestListCmd_ShowsDocuments(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := ragService.AddDocument(context.Background(), "https://example.com/doc", "Doc", "hello world", nil)
	require.NoError(t, err)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"list"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err = rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "1 document(s):")
	assert.Contains(t, buf.String(), "Doc")
	assert.Contains(t, buf.String(), "https://example.com/doc")
}

func TestListCmd_JSONOutput(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	defer func() { listJSON = false }()

	_, err := ragService.AddDocument(context.Background(), "https://example.com/doc", "Doc", "hello world", nil)
	require.NoError(t, err)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"list", "--json"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err = rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), `"url": "https://example.com/doc"`)
	assert.Contains(t, buf.String(), `"chunk_count"`)
}
