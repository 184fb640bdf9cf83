package retriever

import (
	"strings"
)

// QueryIntent is a coarse classification of what the caller is after, used
// only to pick a sensible default result count.
type QueryIntent string

const (
	IntentCount    QueryIntent = "count"
	IntentList     QueryIntent = "list"
	IntentSearch   QueryIntent = "search"
	IntentSpecific QueryIntent = "specific"
)

var intentLimits = map[QueryIntent]int{
	IntentCount:    50,
	IntentList:     30,
	IntentSearch:   15,
	IntentSpecific: 10,
}

// ClassifyIntent buckets a query by substring heuristics. Aggregation-style
// queries need wide nets; pointed questions need few, precise hits.
func ClassifyIntent(query string) QueryIntent {
	q := strings.ToLower(query)
	switch {
	case strings.Contains(q, "how many") || strings.Contains(q, "count"):
		return IntentCount
	case strings.Contains(q, "list all") || strings.HasPrefix(q, "list ") || strings.Contains(q, "show me all"):
		return IntentList
	case strings.Contains(q, "find") || strings.HasPrefix(q, "search "):
		return IntentSearch
	default:
		return IntentSpecific
	}
}

// DefaultLimit returns the result cardinality for a query. An explicit
// caller-supplied limit always wins.
func DefaultLimit(query string, explicit int) int {
	if explicit > 0 {
		return explicit
	}
	return intentLimits[ClassifyIntent(query)]
}
