package provider

import (
	"context"
	"time"
)

type (
	// Assistant is the provider-hosted conversational agent configuration.
	Assistant struct {
		ID             string
		Name           string
		Model          string
		Instructions   string
		CreatedAt      time.Time
		VectorStoreIDs []string
	}

	// VectorStore is the provider-hosted searchable embedding store.
	VectorStore struct {
		ID        string
		Name      string
		CreatedAt time.Time
	}

	// StoredFile is an uploaded file resource.
	StoredFile struct {
		ID       string
		Filename string
	}

	// VectorStoreFile is the link between a file and a vector store, with the
	// provider's per-file processing status. A vector store reporting a
	// completed batch does not guarantee each file completed; callers must
	// check this status individually.
	VectorStoreFile struct {
		ID        string
		Status    FileStatus
		LastError string
	}

	FileStatus string

	AssistantParams struct {
		Name          string
		Model         string
		Instructions  string
		VectorStoreID string
	}

	AssistantUpdate struct {
		Instructions  *string
		VectorStoreID *string
	}

	// Client is the typed surface this subsystem requires from the AI
	// platform. Every call is a network round-trip that may fail transiently.
	Client interface {
		CreateAssistant(ctx context.Context, params AssistantParams) (*Assistant, error)
		GetAssistant(ctx context.Context, assistantID string) (*Assistant, error)
		UpdateAssistant(ctx context.Context, assistantID string, update AssistantUpdate) (*Assistant, error)
		ListAssistants(ctx context.Context) ([]Assistant, error)
		DeleteAssistant(ctx context.Context, assistantID string) error

		UploadFile(ctx context.Context, filename string, content []byte) (*StoredFile, error)
		DeleteFile(ctx context.Context, fileID string) error

		CreateVectorStore(ctx context.Context, name string) (*VectorStore, error)
		GetVectorStore(ctx context.Context, vectorStoreID string) (*VectorStore, error)
		AttachFile(ctx context.Context, vectorStoreID, fileID string) (*VectorStoreFile, error)
		GetVectorStoreFile(ctx context.Context, vectorStoreID, fileID string) (*VectorStoreFile, error)
		ListVectorStoreFiles(ctx context.Context, vectorStoreID string) ([]VectorStoreFile, error)
		DetachFile(ctx context.Context, vectorStoreID, fileID string) error

		EmbedTexts(ctx context.Context, model string, texts ...string) ([][]float32, error)
	}
)

const (
	FileStatusInProgress FileStatus = "in_progress"
	FileStatusCompleted  FileStatus = "completed"
	FileStatusFailed     FileStatus = "failed"
	FileStatusCancelled  FileStatus = "cancelled"
)

// Terminal reports whether the status will not change without further input.
func (s FileStatus) Terminal() bool {
	return s == FileStatusCompleted || s == FileStatusFailed || s == FileStatusCancelled
}
