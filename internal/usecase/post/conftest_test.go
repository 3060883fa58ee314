package post

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/blogdex/internal/domain"
	"github.com/kailas-cloud/blogdex/internal/domain/metadata"
	postrepo "github.com/kailas-cloud/blogdex/internal/repository/post"
	"github.com/kailas-cloud/blogdex/internal/worker"
)

type noKeywords struct{}

func (noKeywords) Extract(string, int) []string { return nil }

type mockEmbedder struct {
	mu    sync.Mutex
	texts []string
	vec   []float32
	err   error
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, TotalTokens: 3}, nil
}

type mockRenderer struct {
	calls int
	html  string
	err   error
}

func (m *mockRenderer) Render(_ context.Context, markdown string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	if m.html != "" {
		return m.html, nil
	}
	return "<p>" + markdown + "</p>", nil
}

// mockQueue records jobs so tests can run them synchronously.
type mockQueue struct {
	jobs []worker.Job
}

func (m *mockQueue) Enqueue(job worker.Job) bool {
	m.jobs = append(m.jobs, job)
	return true
}

func (m *mockQueue) names() []string {
	out := make([]string, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, j.Name)
	}
	return out
}

func (m *mockQueue) drain(t *testing.T) {
	t.Helper()
	jobs := m.jobs
	m.jobs = nil
	for _, j := range jobs {
		if err := j.Run(context.Background()); err != nil {
			t.Fatalf("job %s: %v", j.Name, err)
		}
	}
}

type fixture struct {
	svc      *Service
	repo     *postrepo.Memory
	embed    *mockEmbedder
	renderer *mockRenderer
	queue    *mockQueue
}

func newFixture() *fixture {
	f := &fixture{
		repo:     postrepo.NewMemory(),
		embed:    &mockEmbedder{vec: []float32{1, 0, 0}},
		renderer: &mockRenderer{},
		queue:    &mockQueue{},
	}
	f.svc = New(f.repo, metadata.NewExtractor(noKeywords{}, 5), f.embed, f.renderer, f.queue, zap.NewNop())
	return f
}

var errProvider = errors.New("provider down")
