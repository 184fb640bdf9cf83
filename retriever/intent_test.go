package retriever

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		query string
		want  QueryIntent
	}{
		{"how many features are planned?", IntentCount},
		{"Count the open feedback items", IntentCount},
		{"list all releases", IntentList},
		{"list features in beta", IntentList},
		{"show me all roadmaps", IntentList},
		{"find the dark mode feature", IntentSearch},
		{"search payment issues", IntentSearch},
		{"what is the status of the Q3 release?", IntentSpecific},
		{"", IntentSpecific},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			require.Equal(t, tt.want, ClassifyIntent(tt.query))
		})
	}
}

func TestDefaultLimit(t *testing.T) {
	require.Equal(t, 50, DefaultLimit("how many projects do we have", 0))
	require.Equal(t, 30, DefaultLimit("list all features", 0))
	require.Equal(t, 15, DefaultLimit("find login bug feedback", 0))
	require.Equal(t, 10, DefaultLimit("when does the mobile app ship", 0))

	// Explicit limit always wins, regardless of intent.
	require.Equal(t, 3, DefaultLimit("list all features", 3))
	require.Equal(t, 100, DefaultLimit("how many projects", 100))
}
