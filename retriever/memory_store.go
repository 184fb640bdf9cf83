package retriever

import (
	"context"
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// InMemoryStore is a process-local VectorStore. It backs tests and the CLI's
// offline mode; durable deployments use the sqlite-vec store.
type InMemoryStore struct {
	mu        sync.RWMutex
	documents map[string][]Document
}

var _ VectorStore = (*InMemoryStore)(nil)

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		documents: make(map[string][]Document),
	}
}

func (s *InMemoryStore) Index(ctx context.Context, documents []Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, document := range documents {
		tenantDocs := s.documents[document.TenantID]
		replaced := false
		for i := range tenantDocs {
			if tenantDocs[i].ID == document.ID {
				tenantDocs[i] = document
				replaced = true
				break
			}
		}
		if !replaced {
			tenantDocs = append(tenantDocs, document)
		}
		s.documents[document.TenantID] = tenantDocs
	}

	return nil
}

func (s *InMemoryStore) Search(ctx context.Context, tenantID string, queryEmbedding []float32, limit int) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(queryEmbedding) == 0 {
		return []SearchResult{}, nil
	}

	var valid []Document
	for _, document := range s.documents[tenantID] {
		if len(document.Embedding) == len(queryEmbedding) {
			valid = append(valid, document)
		}
	}
	if len(valid) == 0 {
		return []SearchResult{}, nil
	}

	dim := len(queryEmbedding)
	queryVec := make([]float64, dim)
	for i, v := range queryEmbedding {
		queryVec[i] = float64(v)
	}

	docData := make([]float64, len(valid)*dim)
	for i, document := range valid {
		for j, v := range document.Embedding {
			docData[i*dim+j] = float64(v)
		}
	}

	// Inner product of every document against the query in one multiply.
	// Embeddings are normalized, so scores land in [-1, 1]; shift to [0, 1].
	queryVector := mat.NewVecDense(dim, queryVec)
	docMatrix := mat.NewDense(len(valid), dim, docData)

	var scores mat.VecDense
	scores.MulVec(docMatrix, queryVector)

	results := make([]SearchResult, 0, len(valid))
	for i, document := range valid {
		results = append(results, SearchResult{
			ID:         document.ID,
			Content:    document.Content,
			Metadata:   document.Metadata,
			Similarity: (scores.AtVec(i) + 1.0) * 0.5,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *InMemoryStore) DeleteByTenant(ctx context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, tenantID)
	return nil
}

func (s *InMemoryStore) Close() error {
	return nil
}
