package productdata

import (
	"context"
)

type (
	// RecordType enumerates the structured record types the platform stores
	// per tenant. The set is fixed; the exporter iterates over all of them.
	RecordType string

	// Record is one structured row. Well-known fields are lifted out so the
	// retriever can filter on them; everything else stays in Fields.
	Record struct {
		ID       string         `mapstructure:"id" json:"id"`
		Title    string         `mapstructure:"title" json:"title"`
		Status   string         `mapstructure:"status" json:"status,omitempty"`
		Priority string         `mapstructure:"priority" json:"priority,omitempty"`
		Fields   map[string]any `mapstructure:",remain" json:"fields,omitempty"`
	}

	// FetchResult is the tagged per-type result. A failed fetch carries an
	// error message instead of data; callers degrade to an empty list rather
	// than aborting (partial data beats no data for a knowledge corpus).
	FetchResult struct {
		Success bool     `json:"success"`
		Data    []Record `json:"data,omitempty"`
		Error   string   `json:"error,omitempty"`
	}

	// Store is the read-only view of the platform's structured data.
	Store interface {
		GetRecordsByType(ctx context.Context, tenantID string, recordType RecordType) FetchResult
	}

	// Settings reads the tenant's free-text assistant instructions blob.
	Settings interface {
		GetAssistantInstructions(ctx context.Context, tenantID string) (string, error)
	}
)

const (
	RecordTypeProject  RecordType = "projects"
	RecordTypeFeature  RecordType = "features"
	RecordTypeRelease  RecordType = "releases"
	RecordTypeRoadmap  RecordType = "roadmaps"
	RecordTypeFeedback RecordType = "feedback"
)

// AllRecordTypes lists every type in export order.
var AllRecordTypes = []RecordType{
	RecordTypeProject,
	RecordTypeFeature,
	RecordTypeRelease,
	RecordTypeRoadmap,
	RecordTypeFeedback,
}

func Failure(err error) FetchResult {
	return FetchResult{Success: false, Error: err.Error()}
}

func Success(records []Record) FetchResult {
	return FetchResult{Success: true, Data: records}
}
