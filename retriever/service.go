package retriever

import (
	"context"
	"strings"

	"github.com/jcooky/go-din"
	"github.com/mokiat/gog"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/prodpulse/knowledgesync/config"
	"github.com/prodpulse/knowledgesync/corpus"
	"github.com/prodpulse/knowledgesync/errors"
	"github.com/prodpulse/knowledgesync/internal/mylog"
	"github.com/prodpulse/knowledgesync/provider"
)

type (
	Service interface {
		// Search executes a semantic query against the tenant's vector index
		// with query-adaptive result sizing and keyword-boosted re-ranking.
		Search(ctx context.Context, query, tenantID string, filters *Filters, limit int) ([]SearchResult, error)

		// Index replaces the tenant's indexed chunks with the given set.
		Index(ctx context.Context, tenantID string, chunks []corpus.Chunk) error

		// DeleteTenant removes every indexed chunk for the tenant.
		DeleteTenant(ctx context.Context, tenantID string) error

		Close() error
	}

	// Embedder is the slice of the provider this service needs.
	Embedder interface {
		EmbedTexts(ctx context.Context, model string, texts ...string) ([][]float32, error)
	}

	service struct {
		store    VectorStore
		embedder Embedder
		config   *config.RetrieverConfig
		logger   *mylog.Logger
	}
)

var (
	_ Service = (*service)(nil)

	tracer = otel.Tracer("knowledgesync/retriever")
)

func NewService(store VectorStore, embedder Embedder, conf *config.RetrieverConfig, logger *mylog.Logger) Service {
	return &service{
		store:    store,
		embedder: embedder,
		config:   conf,
		logger:   logger,
	}
}

func (s *service) Search(ctx context.Context, query, tenantID string, filters *Filters, limit int) ([]SearchResult, error) {
	// Blank input is not an error; callers should not need to special-case it.
	if strings.TrimSpace(query) == "" {
		return []SearchResult{}, nil
	}
	if tenantID == "" {
		return nil, errors.Wrapf(errors.ErrInvalidParams, "tenant id is empty")
	}

	intent := ClassifyIntent(query)
	limit = DefaultLimit(query, limit)

	ctx, span := tracer.Start(ctx, "retriever.search")
	span.SetAttributes(
		attribute.String("tenant_id", tenantID),
		attribute.String("intent", string(intent)),
		attribute.Int("limit", limit),
	)
	defer span.End()

	embeddings, err := s.embedder.EmbedTexts(ctx, s.config.EmbeddingModel, query)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to embed query")
	}
	if len(embeddings) == 0 {
		return nil, errors.Errorf("no embedding generated for query")
	}

	overfetch := limit * s.config.OverfetchFactor
	results, err := s.store.Search(ctx, tenantID, embeddings[0], overfetch)
	if err != nil {
		// Empty-tenant bootstrap: the vector relation has not been created
		// yet. No results, not an error.
		if isMissingIndexErr(err) {
			s.logger.Debug("vector index missing, returning empty results", "tenant_id", tenantID)
			return []SearchResult{}, nil
		}
		return nil, errors.Wrapf(err, "failed to search vector index")
	}

	if !filters.Empty() {
		results = lo.Filter(results, func(result SearchResult, _ int) bool {
			return filters.Match(result.Metadata)
		})
	}

	results = rerank(results, query, s.config.KeywordBoost)

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *service) Index(ctx context.Context, tenantID string, chunks []corpus.Chunk) error {
	if tenantID == "" {
		return errors.Wrapf(errors.ErrInvalidParams, "tenant id is empty")
	}

	ctx, span := tracer.Start(ctx, "retriever.index")
	span.SetAttributes(
		attribute.String("tenant_id", tenantID),
		attribute.Int("chunks", len(chunks)),
	)
	defer span.End()

	// Replace, never accumulate: the corpus supersedes the previous pass.
	if err := s.store.DeleteByTenant(ctx, tenantID); err != nil {
		return errors.Wrapf(err, "failed to delete existing chunks")
	}

	if len(chunks) == 0 {
		return nil
	}

	texts := lo.Map(chunks, func(chunk corpus.Chunk, _ int) string {
		return chunk.Content
	})

	embeddings, err := s.embedder.EmbedTexts(ctx, s.config.EmbeddingModel, texts...)
	if err != nil {
		return errors.Wrapf(err, "failed to generate embeddings")
	}
	if len(embeddings) != len(chunks) {
		return errors.Errorf("embedding count mismatch: got %d, expected %d", len(embeddings), len(chunks))
	}

	documents := make([]Document, len(chunks))
	for i, chunk := range chunks {
		documents[i] = Document{
			ID:        chunk.ID,
			TenantID:  tenantID,
			Content:   chunk.Content,
			Embedding: embeddings[i],
			Metadata: gog.Merge(chunk.Metadata, map[string]any{
				"chunk_id": chunk.ID,
			}),
		}
	}

	return errors.Wrapf(s.store.Index(ctx, documents), "failed to store chunks")
}

func (s *service) DeleteTenant(ctx context.Context, tenantID string) error {
	return s.store.DeleteByTenant(ctx, tenantID)
}

func (s *service) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

func init() {
	din.RegisterT(func(c *din.Container) (Service, error) {
		logger, err := din.GetT[*mylog.Logger](c)
		if err != nil {
			return nil, err
		}
		conf, err := din.GetT[*config.RetrieverConfig](c)
		if err != nil {
			return nil, err
		}
		client, err := din.GetT[provider.Client](c)
		if err != nil {
			return nil, err
		}

		store, err := NewSqliteStore(conf.VectorSqlitePath, conf.EmbeddingDimension)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create sqlite vector store")
		}
		c.RegisterOnShutdown(func(_ context.Context) {
			if err := store.Close(); err != nil {
				logger.Warn("failed to close vector store", mylog.Err(err))
			}
		})

		return NewService(store, client, conf, logger), nil
	})
}
