package retriever

import (
	"context"
	"strings"
)

type (
	// Document is one indexable unit of tenant knowledge, embedded into the
	// shared vector space.
	Document struct {
		ID        string
		TenantID  string
		Content   string
		Embedding []float32
		Metadata  map[string]any
	}

	// SearchResult is transient, produced per query. Similarity is mutated by
	// the re-ranking step and never persisted.
	SearchResult struct {
		ID         string         `json:"id"`
		Content    string         `json:"content"`
		Metadata   map[string]any `json:"metadata"`
		Similarity float64        `json:"similarity"`
	}

	// Filters are exact-match predicates over result metadata.
	Filters struct {
		EntityType string `json:"entityType,omitempty"`
		Priority   string `json:"priority,omitempty"`
		Status     string `json:"status,omitempty"`
	}

	// VectorStore is the tenant-scoped vector index the retriever and the
	// sync engine share.
	VectorStore interface {
		Index(ctx context.Context, documents []Document) error
		Search(ctx context.Context, tenantID string, queryEmbedding []float32, limit int) ([]SearchResult, error)
		DeleteByTenant(ctx context.Context, tenantID string) error
		Close() error
	}
)

func (f *Filters) Empty() bool {
	return f == nil || (f.EntityType == "" && f.Priority == "" && f.Status == "")
}

// Match applies the filters as exact-match predicates over metadata.
func (f *Filters) Match(metadata map[string]any) bool {
	if f.Empty() {
		return true
	}
	if f.EntityType != "" && metadata["entity_type"] != f.EntityType {
		return false
	}
	if f.Priority != "" && metadata["priority"] != f.Priority {
		return false
	}
	if f.Status != "" && metadata["status"] != f.Status {
		return false
	}
	return true
}

// isMissingIndexErr detects the empty-tenant bootstrap case: the vector
// relation has not been created yet. Callers treat it as "no results".
func isMissingIndexErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "no such table") ||
		strings.Contains(msg, "does not exist")
}
