package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextCmd_Use(t *testing.T) {
	assert.Equal(t, "context [query]", contextCmd.Use)
}

func TestContextCmd_NoMatches(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"context", "anything"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "No relevant context found for query: anything")
}

func TestContextCmd_FormatsMatches(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := ragService.AddDocument(context.Background(), "https://example.com/doc", "Greeting", "hello world", nil)
	require.NoError(t, err)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"context", "hello world"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err = rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Context for query: 'hello world'")
	assert.Contains(t, buf.String(), "Greeting")
}
