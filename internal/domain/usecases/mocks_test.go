package usecases

import (
	"context"
	"errors"
	"sync"

	"github.com/0xcro3dile/ragchat/internal/domain/entities"
	"github.com/0xcro3dile/ragchat/internal/domain/ports"
)

// mockEmbedder implements ports.EmbeddingService for testing
type mockEmbedder struct {
	embedFn func(text string) ([]float32, error)
	calls   []string
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.calls = append(m.calls, text)
	if m.embedFn != nil {
		return m.embedFn(text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i := range texts {
		emb, err := m.Embed(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		result[i] = emb
	}
	return result, nil
}

func (m *mockEmbedder) ModelName() string { return "mock-embed" }

// mockIndex implements ports.Index for testing
type mockIndex struct {
	chunks []entities.Chunk
	meta   entities.IndexMeta
}

func (m *mockIndex) Store(ctx context.Context, chunks []entities.Chunk) error {
	m.chunks = append(m.chunks, chunks...)
	return nil
}

func (m *mockIndex) Search(ctx context.Context, emb []float32, topK int) ([]entities.QueryResult, error) {
	var results []entities.QueryResult
	for i, c := range m.chunks {
		if i >= topK {
			break
		}
		results = append(results, entities.QueryResult{Chunk: c, Score: 0.9, SourceDoc: c.Source})
	}
	return results, nil
}

func (m *mockIndex) Count(ctx context.Context) (int, error) { return len(m.chunks), nil }

func (m *mockIndex) Meta(ctx context.Context) (entities.IndexMeta, error) { return m.meta, nil }

// mockLLM implements ports.LLMService for testing
type mockLLM struct {
	response string
	err      error
	prompts  []string
}

func (m *mockLLM) Complete(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	if m.response != "" {
		return m.response, nil
	}
	return "mocked answer", nil
}

func (m *mockLLM) Name() string { return "mock" }

// mockFingerprinter returns whatever value is currently set.
type mockFingerprinter struct {
	mu    sync.Mutex
	value entities.Fingerprint
	err   error
}

func (m *mockFingerprinter) Compute(ctx context.Context, dir string) (entities.Fingerprint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, m.err
}

func (m *mockFingerprinter) set(fp entities.Fingerprint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = fp
}

// mockBuilder implements ports.IndexBuilder and counts calls.
type mockBuilder struct {
	mu        sync.Mutex
	persisted bool
	builds    int
	loads     int
	loadErr   error
	meta      entities.IndexMeta
}

func (m *mockBuilder) Persisted(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.persisted, nil
}

func (m *mockBuilder) BuildFresh(ctx context.Context, dir string) (ports.Index, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.builds++
	m.persisted = true
	return &mockIndex{meta: m.meta}, nil
}

func (m *mockBuilder) LoadPersisted(ctx context.Context) (ports.Index, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return &mockIndex{meta: m.meta}, nil
}

// staticResolver always returns the same handle.
type staticResolver struct {
	handle *IndexHandle
	err    error
}

func (s *staticResolver) Resolve(ctx context.Context) (*IndexHandle, error) {
	return s.handle, s.err
}

// memorySession implements ports.ChatSessionStore for testing
type memorySession struct {
	messages  []entities.Message
	appendErr error
}

func (s *memorySession) Append(msg entities.Message) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.messages = append(s.messages, msg)
	return nil
}

func (s *memorySession) All() []entities.Message {
	out := make([]entities.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

var errBoom = errors.New("boom")
