package ratelimited

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingService struct {
	calls int
}

func (s *countingService) Embed(_ context.Context, _ string) ([]float32, error) {
	s.calls++
	return []float32{0.1}, nil
}

func (s *countingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	s.calls++
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{0.1}
	}
	return out, nil
}

func (s *countingService) Dimensions() int { return 1 }

func (s *countingService) ModelName() string { return "counting" }

func (s *countingService) Close() error { return nil }

func TestEmbeddingService_Delegates(t *testing.T) {
	inner := &countingService{}
	svc := New(inner, 100)

	embedding, err := svc.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1}, embedding)

	batch, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, batch, 2)

	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 1, svc.Dimensions())
	assert.Equal(t, "counting", svc.ModelName())
}

func TestEmbeddingService_SpacesRequests(t *testing.T) {
	inner := &countingService{}
	svc := New(inner, 20) // 50ms between requests

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := svc.Embed(context.Background(), "hello")
		require.NoError(t, err)
	}
	elapsed := time.Since(start)

	// First token is free, the next two wait ~50ms each.
	assert.GreaterOrEqual(t, elapsed, 80*time.Millisecond)
}

func TestEmbeddingService_ContextCancellation(t *testing.T) {
	inner := &countingService{}
	svc := New(inner, 0.001) // effectively blocked after the first token

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := svc.Embed(ctx, "first")
	require.NoError(t, err)

	_, err = svc.Embed(ctx, "second")
	require.Error(t, err)
}
