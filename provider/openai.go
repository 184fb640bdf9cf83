package provider

import (
	"bytes"
	"context"
	"time"

	"github.com/jcooky/go-din"
	goopenai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/samber/lo"

	"github.com/prodpulse/knowledgesync/config"
	"github.com/prodpulse/knowledgesync/errors"
)

// OpenAIClient implements Client against the OpenAI assistants, files, vector
// stores and embeddings APIs. All SDK contact lives in this file.
type OpenAIClient struct {
	client *goopenai.Client
}

var _ Client = (*OpenAIClient)(nil)

func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{
		client: goopenai.NewClient(option.WithAPIKey(apiKey)),
	}
}

func (c *OpenAIClient) CreateAssistant(ctx context.Context, params AssistantParams) (*Assistant, error) {
	req := goopenai.BetaAssistantNewParams{
		Model:        goopenai.F(params.Model),
		Name:         goopenai.String(params.Name),
		Instructions: goopenai.String(params.Instructions),
		Tools: goopenai.F([]goopenai.AssistantToolUnionParam{
			goopenai.FileSearchToolParam{Type: goopenai.F(goopenai.FileSearchToolTypeFileSearch)},
		}),
	}
	if params.VectorStoreID != "" {
		req.ToolResources = goopenai.F(goopenai.BetaAssistantNewParamsToolResources{
			FileSearch: goopenai.F(goopenai.BetaAssistantNewParamsToolResourcesFileSearch{
				VectorStoreIDs: goopenai.F([]string{params.VectorStoreID}),
			}),
		})
	}

	assistant, err := c.client.Beta.Assistants.New(ctx, req)
	if err != nil {
		return nil, wrapCall(err, "failed to create assistant")
	}

	return convertAssistant(assistant), nil
}

func (c *OpenAIClient) GetAssistant(ctx context.Context, assistantID string) (*Assistant, error) {
	assistant, err := c.client.Beta.Assistants.Get(ctx, assistantID)
	if err != nil {
		return nil, wrapCall(err, "failed to get assistant")
	}

	return convertAssistant(assistant), nil
}

func (c *OpenAIClient) UpdateAssistant(ctx context.Context, assistantID string, update AssistantUpdate) (*Assistant, error) {
	req := goopenai.BetaAssistantUpdateParams{}
	if update.Instructions != nil {
		req.Instructions = goopenai.String(*update.Instructions)
	}
	if update.VectorStoreID != nil {
		req.ToolResources = goopenai.F(goopenai.BetaAssistantUpdateParamsToolResources{
			FileSearch: goopenai.F(goopenai.BetaAssistantUpdateParamsToolResourcesFileSearch{
				VectorStoreIDs: goopenai.F([]string{*update.VectorStoreID}),
			}),
		})
	}

	assistant, err := c.client.Beta.Assistants.Update(ctx, assistantID, req)
	if err != nil {
		return nil, wrapCall(err, "failed to update assistant")
	}

	return convertAssistant(assistant), nil
}

func (c *OpenAIClient) ListAssistants(ctx context.Context) ([]Assistant, error) {
	page, err := c.client.Beta.Assistants.List(ctx, goopenai.BetaAssistantListParams{
		Order: goopenai.F(goopenai.BetaAssistantListParamsOrderDesc),
		Limit: goopenai.Int(100),
	})
	if err != nil {
		return nil, wrapCall(err, "failed to list assistants")
	}

	return lo.Map(page.Data, func(a goopenai.Assistant, _ int) Assistant {
		return *convertAssistant(&a)
	}), nil
}

func (c *OpenAIClient) DeleteAssistant(ctx context.Context, assistantID string) error {
	if _, err := c.client.Beta.Assistants.Delete(ctx, assistantID); err != nil {
		return wrapCall(err, "failed to delete assistant")
	}
	return nil
}

func (c *OpenAIClient) UploadFile(ctx context.Context, filename string, content []byte) (*StoredFile, error) {
	file, err := c.client.Files.New(ctx, goopenai.FileNewParams{
		File:    goopenai.FileParam(bytes.NewReader(content), filename, "text/plain"),
		Purpose: goopenai.F(goopenai.FilePurposeAssistants),
	})
	if err != nil {
		return nil, wrapCall(err, "failed to upload file")
	}

	return &StoredFile{ID: file.ID, Filename: file.Filename}, nil
}

func (c *OpenAIClient) DeleteFile(ctx context.Context, fileID string) error {
	if _, err := c.client.Files.Delete(ctx, fileID); err != nil {
		return wrapCall(err, "failed to delete file")
	}
	return nil
}

func (c *OpenAIClient) CreateVectorStore(ctx context.Context, name string) (*VectorStore, error) {
	store, err := c.client.Beta.VectorStores.New(ctx, goopenai.BetaVectorStoreNewParams{
		Name: goopenai.String(name),
	})
	if err != nil {
		return nil, wrapCall(err, "failed to create vector store")
	}

	return convertVectorStore(store), nil
}

func (c *OpenAIClient) GetVectorStore(ctx context.Context, vectorStoreID string) (*VectorStore, error) {
	store, err := c.client.Beta.VectorStores.Get(ctx, vectorStoreID)
	if err != nil {
		return nil, wrapCall(err, "failed to get vector store")
	}

	return convertVectorStore(store), nil
}

func (c *OpenAIClient) AttachFile(ctx context.Context, vectorStoreID, fileID string) (*VectorStoreFile, error) {
	file, err := c.client.Beta.VectorStores.Files.New(ctx, vectorStoreID, goopenai.BetaVectorStoreFileNewParams{
		FileID: goopenai.F(fileID),
	})
	if err != nil {
		return nil, wrapCall(err, "failed to attach file to vector store")
	}

	return convertVectorStoreFile(file), nil
}

func (c *OpenAIClient) GetVectorStoreFile(ctx context.Context, vectorStoreID, fileID string) (*VectorStoreFile, error) {
	file, err := c.client.Beta.VectorStores.Files.Get(ctx, vectorStoreID, fileID)
	if err != nil {
		return nil, wrapCall(err, "failed to get vector store file")
	}

	return convertVectorStoreFile(file), nil
}

func (c *OpenAIClient) ListVectorStoreFiles(ctx context.Context, vectorStoreID string) ([]VectorStoreFile, error) {
	page, err := c.client.Beta.VectorStores.Files.List(ctx, vectorStoreID, goopenai.BetaVectorStoreFileListParams{})
	if err != nil {
		return nil, wrapCall(err, "failed to list vector store files")
	}

	return lo.Map(page.Data, func(f goopenai.VectorStoreFile, _ int) VectorStoreFile {
		return *convertVectorStoreFile(&f)
	}), nil
}

func (c *OpenAIClient) DetachFile(ctx context.Context, vectorStoreID, fileID string) error {
	if _, err := c.client.Beta.VectorStores.Files.Delete(ctx, vectorStoreID, fileID); err != nil {
		return wrapCall(err, "failed to detach file from vector store")
	}
	return nil
}

func (c *OpenAIClient) EmbedTexts(ctx context.Context, model string, texts ...string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	res, err := c.client.Embeddings.New(ctx, goopenai.EmbeddingNewParams{
		Input:          goopenai.F[goopenai.EmbeddingNewParamsInputUnion](goopenai.EmbeddingNewParamsInputArrayOfStrings(texts)),
		Model:          goopenai.F(goopenai.EmbeddingModel(model)),
		EncodingFormat: goopenai.F(goopenai.EmbeddingNewParamsEncodingFormatFloat),
	})
	if err != nil {
		return nil, wrapCall(err, "failed to generate embeddings")
	}

	embeddings := make([][]float32, 0, len(res.Data))
	for _, data := range res.Data {
		embedding := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			embedding[i] = float32(v)
		}
		embeddings = append(embeddings, embedding)
	}

	return embeddings, nil
}

func convertAssistant(a *goopenai.Assistant) *Assistant {
	assistant := &Assistant{
		ID:           a.ID,
		Name:         a.Name,
		Model:        a.Model,
		Instructions: a.Instructions,
		CreatedAt:    time.Unix(a.CreatedAt, 0),
	}
	assistant.VectorStoreIDs = a.ToolResources.FileSearch.VectorStoreIDs

	return assistant
}

func convertVectorStore(s *goopenai.VectorStore) *VectorStore {
	return &VectorStore{
		ID:        s.ID,
		Name:      s.Name,
		CreatedAt: time.Unix(s.CreatedAt, 0),
	}
}

func convertVectorStoreFile(f *goopenai.VectorStoreFile) *VectorStoreFile {
	file := &VectorStoreFile{
		ID:     f.ID,
		Status: FileStatus(f.Status),
	}
	if f.LastError.Message != "" {
		file.LastError = f.LastError.Message
	}

	return file
}

func init() {
	din.RegisterT(func(c *din.Container) (Client, error) {
		conf, err := din.GetT[*config.OpenAIConfig](c)
		if err != nil {
			return nil, err
		}
		if conf.OpenAIApiKey == "" {
			return nil, errors.Wrapf(errors.ErrInvalidConfig, "OPENAI_API_KEY is not set")
		}

		return NewOpenAIClient(conf.OpenAIApiKey), nil
	})
}
