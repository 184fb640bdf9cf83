package config

import (
	"github.com/jcooky/go-din"
)

type RetrieverConfig struct {
	// VectorSqlitePath is the sqlite-vec database backing the local vector
	// index. Default: ":memory:"
	VectorSqlitePath string `env:"VECTOR_SQLITE_PATH" json:"vectorSqlitePath,omitempty"`

	// EmbeddingModel used for both indexing and query embedding. Both sides
	// must share one vector space.
	// Default: "text-embedding-3-small"
	EmbeddingModel string `env:"EMBEDDING_MODEL" json:"embeddingModel,omitempty"`

	// EmbeddingDimension of the embedding model above.
	// Default: 1536
	EmbeddingDimension int `env:"EMBEDDING_DIMENSION" json:"embeddingDimension,omitempty"`

	// OverfetchFactor determines how many candidates to pull from the vector
	// index before metadata filtering and re-ranking.
	// Actual retrieval count = limit x OverfetchFactor.
	// Default: 2
	OverfetchFactor int `env:"RETRIEVER_OVERFETCH_FACTOR" json:"overfetchFactor,omitempty"`

	// KeywordBoost is added to the provider similarity per keyword occurrence
	// during re-ranking. Kept small so lexical matches break ties without
	// overriding semantic order.
	// Default: 0.01
	KeywordBoost float64 `env:"RETRIEVER_KEYWORD_BOOST" json:"keywordBoost,omitempty"`
}

// NewRetrieverConfig creates a RetrieverConfig with sensible defaults.
func NewRetrieverConfig() *RetrieverConfig {
	return &RetrieverConfig{
		VectorSqlitePath:   ":memory:",
		EmbeddingModel:     "text-embedding-3-small",
		EmbeddingDimension: 1536,
		OverfetchFactor:    2,
		KeywordBoost:       0.01,
	}
}

func init() {
	din.RegisterT(func(c *din.Container) (*RetrieverConfig, error) {
		conf := NewRetrieverConfig()
		return conf, resolveConfig(conf, c.Env == din.EnvTest)
	})
}
