package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process, append-only vector store. It backs the
// document index when no database is configured.
type MemoryStore struct {
	embedder Embedder
	splitter Splitter

	mu   sync.RWMutex
	docs []Document
}

func NewMemoryStore(embedder Embedder, splitter Splitter) *MemoryStore {
	return &MemoryStore{
		embedder: embedder,
		splitter: splitter,
	}
}

// AddTexts splits, embeds and stores the given texts.
func (s *MemoryStore) AddTexts(ctx context.Context, texts []string) error {
	if len(texts) == 0 {
		return nil
	}

	chunks := texts
	if s.splitter != nil {
		var err error
		chunks, err = s.splitter.SplitAll(texts)
		if err != nil {
			return fmt.Errorf("failed to split texts: %w", err)
		}
	}
	if len(chunks) == 0 {
		return nil
	}

	vectors, err := s.embedder.EmbedTexts(ctx, chunks)
	if err != nil {
		return fmt.Errorf("failed to embed texts: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, chunk := range chunks {
		s.docs = append(s.docs, Document{
			ID:        uuid.NewString(),
			Content:   chunk,
			Embedding: vectors[i],
		})
	}
	return nil
}

// Len reports the number of stored chunks.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// SimilaritySearch returns the topK stored documents closest to the query by
// cosine similarity.
func (s *MemoryStore) SimilaritySearch(ctx context.Context, query string, topK int) ([]SimilaritySearchResult, error) {
	queryVec, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]SimilaritySearchResult, 0, len(s.docs))
	for _, doc := range s.docs {
		results = append(results, SimilaritySearchResult{
			Document: doc,
			Score:    cosineSimilarity(queryVec, doc.Embedding),
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
