// Package simple provides a deterministic hash-based embedding service.
//
// It is the fallback of last resort: the vectors carry no semantic
// signal and are unsuitable for production-quality relevance, but they
// are always available, cost nothing, and make embedding generation a
// total function - no code path is ever a hard failure.
package simple

import (
	"context"
	"crypto/sha256"
	"encoding/binary"

	"github.com/berrydev-ai/berry-rag/internal/core/ports/driven"
)

// Ensure Service implements the interface.
var _ driven.EmbeddingService = (*Service)(nil)

// DefaultDimensions is the native vector size of the hash embedding.
const DefaultDimensions = 128

// ProviderName identifies this provider in logs and stats.
const ProviderName = "simple"

// Service generates embeddings by hashing the input text and mapping
// digest bytes to the range [-1, 1]. Identical text always produces an
// identical vector.
type Service struct {
	dimensions int
}

// Option configures the service.
type Option func(*Service)

// WithDimensions sets the vector size. Used when the service backs a
// higher-dimensional provider as its degradation target, so degraded
// vectors still match the store's dimension.
func WithDimensions(dims int) Option {
	return func(s *Service) {
		if dims > 0 {
			s.dimensions = dims
		}
	}
}

// New creates a new hash-embedding service.
func New(opts ...Option) *Service {
	s := &Service{dimensions: DefaultDimensions}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Embed generates a deterministic vector for the given text.
// The SHA-256 digest is extended by re-hashing with a block counter
// until enough bytes exist to fill the configured dimension; each byte
// b maps to (b-128)/128.
func (s *Service) Embed(_ context.Context, text string) ([]float32, error) {
	vector := make([]float32, s.dimensions)

	var counter [8]byte
	digest := sha256.Sum256([]byte(text))
	buf := digest[:]

	for i := 0; i < s.dimensions; i++ {
		if i > 0 && i%sha256.Size == 0 {
			binary.LittleEndian.PutUint64(counter[:], uint64(i/sha256.Size))
			next := sha256.Sum256(append(digest[:], counter[:]...))
			buf = next[:]
		}
		b := buf[i%sha256.Size]
		vector[i] = (float32(b) - 128) / 128
	}

	return vector, nil
}

// Dimensions returns the embedding vector size.
func (s *Service) Dimensions() int {
	return s.dimensions
}

// Name returns the provider name.
func (s *Service) Name() string {
	return ProviderName
}

// Ping always succeeds; the provider has no external dependency.
func (s *Service) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *Service) Close() error {
	return nil
}
