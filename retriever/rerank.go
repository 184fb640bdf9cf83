package retriever

import (
	"sort"
	"strings"
)

// keywords splits a query into lexical match tokens. Short tokens ("a", "of",
// "is") carry no signal and are dropped.
func keywords(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		if len(field) > 2 {
			tokens = append(tokens, field)
		}
	}
	return tokens
}

// rerank boosts each result's similarity by boost per case-insensitive
// keyword occurrence in its content, then orders by adjusted similarity
// descending. The boost is deliberately small: it breaks ties toward exact
// lexical matches without overriding semantic ranking. With zero matches the
// provider order is preserved (stable sort).
func rerank(results []SearchResult, query string, boost float64) []SearchResult {
	tokens := keywords(query)

	for i := range results {
		content := strings.ToLower(results[i].Content)
		matches := 0
		for _, token := range tokens {
			matches += strings.Count(content, token)
		}
		results[i].Similarity += boost * float64(matches)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	return results
}
