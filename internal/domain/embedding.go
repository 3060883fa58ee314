package domain

import (
	"context"
	"fmt"
)

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// InstructionEmbedder is a domain decorator that prepends instruction text before embedding.
// Posts and queries use different instructions against the same model.
type InstructionEmbedder struct {
	inner       Embedder
	instruction string
}

// NewInstructionEmbedder creates a decorator that prepends instruction text.
func NewInstructionEmbedder(inner Embedder, instruction string) *InstructionEmbedder {
	return &InstructionEmbedder{inner: inner, instruction: instruction}
}

// Embed prepends instruction and delegates to inner embedder.
func (e *InstructionEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	if e.instruction == "" {
		return e.inner.Embed(ctx, text)
	}
	result, err := e.inner.Embed(ctx, e.instruction+text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("instruction embed: %w", err)
	}
	return result, nil
}

// DimensionEmbedder rejects vectors whose length differs from the configured dimension.
type DimensionEmbedder struct {
	inner      Embedder
	dimensions int
}

// NewDimensionEmbedder wraps inner. A non-positive dimension disables the check.
func NewDimensionEmbedder(inner Embedder, dimensions int) *DimensionEmbedder {
	return &DimensionEmbedder{inner: inner, dimensions: dimensions}
}

// Embed delegates to inner and validates the vector length.
func (e *DimensionEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	result, err := e.inner.Embed(ctx, text)
	if err != nil {
		return EmbeddingResult{}, err
	}
	if e.dimensions > 0 && len(result.Embedding) != e.dimensions {
		return EmbeddingResult{}, fmt.Errorf("%w: got %d, want %d",
			ErrVectorDimMismatch, len(result.Embedding), e.dimensions)
	}
	return result, nil
}
