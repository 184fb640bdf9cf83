package productdata_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prodpulse/knowledgesync/productdata"
)

func TestFileStoreGetRecordsByType(t *testing.T) {
	store, err := productdata.NewFileStore("testdata/product_data.yaml")
	require.NoError(t, err)

	result := store.GetRecordsByType(context.Background(), "acme", productdata.RecordTypeFeature)
	require.True(t, result.Success)
	require.Len(t, result.Data, 2)

	feature := result.Data[0]
	require.Equal(t, "feat-1", feature.ID)
	require.Equal(t, "Dark mode", feature.Title)
	require.Equal(t, "planned", feature.Status)
	require.Equal(t, "high", feature.Priority)
	require.Equal(t, "design", feature.Fields["owner"])
}

func TestFileStoreUnknownTenantIsEmptyNotError(t *testing.T) {
	store, err := productdata.NewFileStore("testdata/product_data.yaml")
	require.NoError(t, err)

	result := store.GetRecordsByType(context.Background(), "nope", productdata.RecordTypeFeature)
	require.True(t, result.Success)
	require.Empty(t, result.Data)
}

func TestFileStoreMissingRecordType(t *testing.T) {
	store, err := productdata.NewFileStore("testdata/product_data.yaml")
	require.NoError(t, err)

	result := store.GetRecordsByType(context.Background(), "acme", productdata.RecordTypeRoadmap)
	require.True(t, result.Success)
	require.Empty(t, result.Data)
}

func TestFileStoreInstructions(t *testing.T) {
	store, err := productdata.NewFileStore("testdata/product_data.yaml")
	require.NoError(t, err)

	instructions, err := store.GetAssistantInstructions(context.Background(), "acme")
	require.NoError(t, err)
	require.Contains(t, instructions, "release notes")

	instructions, err = store.GetAssistantInstructions(context.Background(), "empty-tenant")
	require.NoError(t, err)
	require.Empty(t, instructions)
}

func TestFileStoreMissingFile(t *testing.T) {
	_, err := productdata.NewFileStore("testdata/does_not_exist.yaml")
	require.Error(t, err)
}
