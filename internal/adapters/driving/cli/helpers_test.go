package cli

import (
	"github.com/berrydev-ai/berry-rag/internal/adapters/driven/embedding/simple"
	"github.com/berrydev-ai/berry-rag/internal/adapters/driven/storage/memory"
	"github.com/berrydev-ai/berry-rag/internal/chunker"
	"github.com/berrydev-ai/berry-rag/internal/config"
	"github.com/berrydev-ai/berry-rag/internal/core/services"
)

// setupTestServices wires an in-memory retrieval engine into the
// package-level service vars. The returned cleanup restores the
// previous state.
func setupTestServices() func() {
	oldService := ragService
	oldStore := chunkStore
	oldEmbedder := embedder
	oldCfg := cfg

	store := memory.New()
	provider := simple.New()
	ragService = services.NewRAGService(store, provider, chunker.New())
	chunkStore = store
	embedder = provider
	cfg = config.Default()

	return func() {
		ragService = oldService
		chunkStore = oldStore
		embedder = oldEmbedder
		cfg = oldCfg
	}
}
