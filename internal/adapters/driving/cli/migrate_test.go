package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrateCmd_Use(t *testing.T) {
	assert.Equal(t, "migrate", migrateCmd.Use)
}

func TestMigrateCmd_HasFlags(t *testing.T) {
	assert.NotNil(t, migrateCmd.Flags().Lookup("database-url"))
	assert.NotNil(t, migrateCmd.Flags().Lookup("batch-size"))
}

func TestRunMigrate_RequiresEmbedder(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	old := embedder
	embedder = nil
	defer func() { embedder = old }()

	err := runMigrate(migrateCmd, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "embedding provider not configured")
}

func TestRunMigrate_RequiresTargetDatabase(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	err := runMigrate(migrateCmd, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no target database")
}
