// Package embedding selects and wires embedding providers.
//
// Providers are tried in a fixed priority order when the configured
// mode is "auto": a local Ollama model, then the OpenAI API, then the
// deterministic hash fallback. Availability is probed once at
// construction; remote failures at embed time degrade to the hash
// fallback for that request instead of propagating.
package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/berrydev-ai/berry-rag/internal/adapters/driven/embedding/ollama"
	"github.com/berrydev-ai/berry-rag/internal/adapters/driven/embedding/openai"
	"github.com/berrydev-ai/berry-rag/internal/adapters/driven/embedding/simple"
	"github.com/berrydev-ai/berry-rag/internal/core/ports/driven"
	"github.com/berrydev-ai/berry-rag/internal/logger"
)

// Provider modes accepted by Resolve.
const (
	ModeAuto   = "auto"
	ModeOllama = "ollama"
	ModeOpenAI = "openai"
	ModeSimple = "simple"
)

// probeTimeout bounds the availability check per provider at
// construction time.
const probeTimeout = 3 * time.Second

// Config selects and configures the provider chain.
type Config struct {
	// Provider is "auto" or the name of a specific provider.
	Provider string

	// Ollama configures the local provider.
	Ollama ollama.Config

	// OpenAI configures the remote provider. Ignored when no API key
	// is set.
	OpenAI openai.Config
}

// Resolve constructs the embedding service for the given configuration.
//
// In auto mode the first reachable provider wins; the hash fallback is
// used when neither Ollama nor OpenAI responds. Every remote-backed
// result is wrapped in a Fallback so a transient provider failure never
// fails a call.
func Resolve(ctx context.Context, cfg Config) (driven.EmbeddingService, error) {
	mode := cfg.Provider
	if mode == "" {
		mode = ModeAuto
	}

	switch mode {
	case ModeOllama:
		return withFallback(ollama.New(cfg.Ollama)), nil

	case ModeOpenAI:
		svc, err := openai.New(cfg.OpenAI)
		if err != nil {
			return nil, err
		}
		return withFallback(svc), nil

	case ModeSimple:
		return simple.New(), nil

	case ModeAuto:
		return resolveAuto(ctx, cfg), nil

	default:
		return nil, fmt.Errorf("unknown embedding provider %q", mode)
	}
}

// resolveAuto probes providers in priority order.
func resolveAuto(ctx context.Context, cfg Config) driven.EmbeddingService {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	local := ollama.New(cfg.Ollama)
	if err := local.Ping(probeCtx); err == nil {
		logger.Info("Embedding provider: %s (%d dimensions)", local.Name(), local.Dimensions())
		return withFallback(local)
	} else {
		logger.Debug("Ollama unavailable: %v", err)
	}

	if cfg.OpenAI.APIKey != "" {
		remote, err := openai.New(cfg.OpenAI)
		if err == nil {
			probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
			defer cancel()
			if err := remote.Ping(probeCtx); err == nil {
				logger.Info("Embedding provider: %s (%d dimensions)", remote.Name(), remote.Dimensions())
				return withFallback(remote)
			}
			logger.Debug("OpenAI unavailable: %v", err)
		}
	}

	logger.Warn("No embedding provider reachable, using hash embeddings (not recommended for production relevance)")
	return simple.New()
}

// withFallback pairs a provider with a hash fallback of matching
// dimension, so degraded vectors still satisfy the store's dimension
// invariant.
func withFallback(primary driven.EmbeddingService) driven.EmbeddingService {
	return &Fallback{
		primary: primary,
		reserve: simple.New(simple.WithDimensions(primary.Dimensions())),
	}
}

// Ensure Fallback implements the interface.
var _ driven.EmbeddingService = (*Fallback)(nil)

// Fallback degrades failed primary-embedding requests to the hash
// provider. Each degraded call is logged with the failing provider's
// error.
type Fallback struct {
	primary driven.EmbeddingService
	reserve driven.EmbeddingService
}

// NewFallback wraps primary with reserve as its degradation target.
// The reserve must declare the same dimension as the primary.
func NewFallback(primary, reserve driven.EmbeddingService) *Fallback {
	return &Fallback{primary: primary, reserve: reserve}
}

// Embed tries the primary provider, degrading to the reserve on error.
func (f *Fallback) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := f.primary.Embed(ctx, text)
	if err == nil {
		return vec, nil
	}

	logger.Warn("Embedding provider %s failed: %v (degrading to %s)", f.primary.Name(), err, f.reserve.Name())
	return f.reserve.Embed(ctx, text)
}

// Dimensions returns the primary provider's vector size.
func (f *Fallback) Dimensions() int {
	return f.primary.Dimensions()
}

// Name returns the primary provider's name.
func (f *Fallback) Name() string {
	return f.primary.Name()
}

// Ping checks the primary provider.
func (f *Fallback) Ping(ctx context.Context) error {
	return f.primary.Ping(ctx)
}

// Close releases both providers.
func (f *Fallback) Close() error {
	if err := f.primary.Close(); err != nil {
		return err
	}
	return f.reserve.Close()
}
