package retriever

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeywords(t *testing.T) {
	require.Equal(t, []string{"dark", "mode", "feature"}, keywords("the dark mode feature"))
	require.Empty(t, keywords("a of is to"))
	require.Equal(t, []string{"payments"}, keywords("Payments"))
}

func TestRerankBoostsKeywordMatches(t *testing.T) {
	results := []SearchResult{
		{ID: "a", Content: "billing overview", Similarity: 0.80},
		{ID: "b", Content: "dark mode toggle for dark themes", Similarity: 0.79},
	}

	reranked := rerank(results, "dark mode", 0.01)

	// "b" matches dark twice and mode once: 0.79 + 3*0.01 edges out "a".
	require.Equal(t, "b", reranked[0].ID)
	require.InDelta(t, 0.82, reranked[0].Similarity, 1e-9)
	require.Equal(t, "a", reranked[1].ID)
}

func TestRerankPreservesOrderWithoutMatches(t *testing.T) {
	results := []SearchResult{
		{ID: "a", Content: "alpha", Similarity: 0.5},
		{ID: "b", Content: "beta", Similarity: 0.5},
		{ID: "c", Content: "gamma", Similarity: 0.5},
	}

	reranked := rerank(results, "unrelated query terms", 0.01)

	require.Equal(t, "a", reranked[0].ID)
	require.Equal(t, "b", reranked[1].ID)
	require.Equal(t, "c", reranked[2].ID)
}

func TestRerankIsCaseInsensitive(t *testing.T) {
	results := []SearchResult{
		{ID: "a", Content: "nothing relevant", Similarity: 0.5},
		{ID: "b", Content: "Dark Mode rollout", Similarity: 0.5},
	}

	reranked := rerank(results, "DARK mode", 0.01)

	require.Equal(t, "b", reranked[0].ID)
}
