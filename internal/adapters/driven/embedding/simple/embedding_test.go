package simple

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbed_Deterministic(t *testing.T) {
	s := New()
	ctx := context.Background()

	a, err := s.Embed(ctx, "hello world")
	require.NoError(t, err)
	b, err := s.Embed(ctx, "hello world")
	require.NoError(t, err)

	assert.Equal(t, a, b, "identical text must produce identical vectors")
}

func TestEmbed_DistinctTexts(t *testing.T) {
	s := New()
	ctx := context.Background()

	a, err := s.Embed(ctx, "hello world")
	require.NoError(t, err)
	b, err := s.Embed(ctx, "goodbye world")
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "different text should produce different vectors")
}

func TestEmbed_DimensionAndRange(t *testing.T) {
	for _, dims := range []int{DefaultDimensions, 384, 1536} {
		s := New(WithDimensions(dims))
		assert.Equal(t, dims, s.Dimensions())

		vec, err := s.Embed(context.Background(), "some text")
		require.NoError(t, err)
		require.Len(t, vec, dims)

		for i, v := range vec {
			assert.GreaterOrEqual(t, v, float32(-1), "component %d below -1", i)
			assert.LessOrEqual(t, v, float32(1), "component %d above 1", i)
		}
	}
}

func TestEmbed_NonDegenerate(t *testing.T) {
	// A vector of all zeros would break cosine ranking.
	vec, err := New().Embed(context.Background(), "x")
	require.NoError(t, err)

	zero := true
	for _, v := range vec {
		if v != 0 {
			zero = false
			break
		}
	}
	assert.False(t, zero, "hash embedding must not be the zero vector")
}

func TestPing(t *testing.T) {
	assert.NoError(t, New().Ping(context.Background()))
}
