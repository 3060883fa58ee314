package blogdex

import "context"

// Embedder converts text to vector embeddings. Required: both post indexing
// and search depend on it.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Renderer converts post Markdown to HTML. Optional; without one posts keep
// an empty ContentHTML.
type Renderer interface {
	Render(ctx context.Context, markdown string) (string, error)
}
