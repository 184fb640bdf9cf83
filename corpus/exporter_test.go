package corpus_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/prodpulse/knowledgesync/corpus"
	"github.com/prodpulse/knowledgesync/internal/mylog"
	"github.com/prodpulse/knowledgesync/productdata"
	productdatatest "github.com/prodpulse/knowledgesync/productdata/test"
)

func newTestExporter() (*corpus.Exporter, *productdatatest.Store) {
	store := productdatatest.NewStore()
	logger := mylog.NewLogger("error", "default")
	return corpus.NewExporter(store, logger), store
}

func TestExportRendersAllSections(t *testing.T) {
	exporter, store := newTestExporter()

	store.Add("t1", productdata.RecordTypeFeature,
		productdata.Record{ID: "f-1", Title: "Dark mode", Status: "planned", Priority: "high"},
		productdata.Record{ID: "f-2", Title: "SSO", Status: "in_progress"},
	)
	store.Add("t1", productdata.RecordTypeRelease,
		productdata.Record{ID: "r-1", Title: "v1.2", Status: "shipped"},
	)

	corp, err := exporter.Export(context.Background(), "t1")
	require.NoError(t, err)

	require.Equal(t, "t1", corp.TenantID)
	require.Contains(t, corp.Text, "Tenant: t1")
	require.Contains(t, corp.Text, "## Features")
	require.Contains(t, corp.Text, "- Dark mode (id: f-1)")
	require.Contains(t, corp.Text, "  status: planned")
	require.Contains(t, corp.Text, "  priority: high")
	require.Contains(t, corp.Text, "## Releases")
	require.Contains(t, corp.Text, "- v1.2 (id: r-1)")

	// Empty record types still render, as empty sections.
	require.Contains(t, corp.Text, "## Projects")
	require.Contains(t, corp.Text, "None found.")
	require.Contains(t, corp.Text, "Total records: 3")
}

func TestExportPartialFailureDegradesToEmptySection(t *testing.T) {
	exporter, store := newTestExporter()

	store.Add("t1", productdata.RecordTypeFeature,
		productdata.Record{ID: "f-1", Title: "Dark mode"},
	)
	store.FailTypes[productdata.RecordTypeFeedback] = errors.New("upstream 502")

	corp, err := exporter.Export(context.Background(), "t1")
	require.NoError(t, err)

	require.Contains(t, corp.Text, "## Feedback")
	require.Contains(t, corp.Text, "- Dark mode (id: f-1)")

	// The failed type contributes no chunks; the healthy one still does.
	require.Len(t, corp.Chunks, 1)
	require.Equal(t, "t1/features/f-1", corp.Chunks[0].ID)
}

func TestExportBuildsChunksWithMetadata(t *testing.T) {
	exporter, store := newTestExporter()

	store.Add("t1", productdata.RecordTypeFeature, productdata.Record{
		ID:       "f-1",
		Title:    "Dark mode",
		Status:   "planned",
		Priority: "high",
		Fields:   map[string]any{"owner": "design"},
	})

	corp, err := exporter.Export(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, corp.Chunks, 1)

	chunk := corp.Chunks[0]
	require.Equal(t, "t1/features/f-1", chunk.ID)
	require.Contains(t, chunk.Content, "Dark mode")
	require.Contains(t, chunk.Content, "owner: design")
	require.Equal(t, "t1", chunk.Metadata["tenant_id"])
	require.Equal(t, "features", chunk.Metadata["entity_type"])
	require.Equal(t, "f-1", chunk.Metadata["record_id"])
	require.Equal(t, "planned", chunk.Metadata["status"])
	require.Equal(t, "high", chunk.Metadata["priority"])
}

func TestExportRequiresTenant(t *testing.T) {
	exporter, _ := newTestExporter()

	_, err := exporter.Export(context.Background(), "")
	require.Error(t, err)
}

func TestExportExtraFieldsAreSortedDeterministically(t *testing.T) {
	exporter, store := newTestExporter()

	store.Add("t1", productdata.RecordTypeProject, productdata.Record{
		ID:    "p-1",
		Title: "Mobile app",
		Fields: map[string]any{
			"zeta":  "last",
			"alpha": "first",
		},
	})

	corp, err := exporter.Export(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, corp.Chunks, 1)

	content := corp.Chunks[0].Content
	require.Less(t, indexOf(content, "alpha"), indexOf(content, "zeta"))
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
