package providertest

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/prodpulse/knowledgesync/errors"
	"github.com/prodpulse/knowledgesync/provider"
)

// Fake is a stateful in-memory provider used by tests. It mimics the
// lifecycle semantics that matter to the sync engine: files attach in
// in_progress state and flip to completed (or a injected terminal state)
// after AttachSettleAfter polls.
type Fake struct {
	mu sync.Mutex

	assistants   map[string]*provider.Assistant
	files        map[string]*provider.StoredFile
	vectorStores map[string]*provider.VectorStore
	storeFiles   map[string]map[string]*provider.VectorStoreFile

	seq   int
	Calls map[string]int

	// AttachSettleAfter is how many status reads a newly attached file stays
	// in_progress before settling. Zero settles immediately.
	AttachSettleAfter int
	// AttachFinalStatus is the status files settle into. Defaults to completed.
	AttachFinalStatus provider.FileStatus
	// FailNext maps a method name to an error returned on its next call.
	FailNext map[string]error

	EmbedDimension int

	pendingPolls map[string]int
}

var _ provider.Client = (*Fake)(nil)

func NewFake() *Fake {
	return &Fake{
		assistants:        map[string]*provider.Assistant{},
		files:             map[string]*provider.StoredFile{},
		vectorStores:      map[string]*provider.VectorStore{},
		storeFiles:        map[string]map[string]*provider.VectorStoreFile{},
		Calls:             map[string]int{},
		FailNext:          map[string]error{},
		AttachFinalStatus: provider.FileStatusCompleted,
		EmbedDimension:    8,
		pendingPolls:      map[string]int{},
	}
}

func (f *Fake) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s_%04d", prefix, f.seq)
}

func (f *Fake) call(method string) error {
	f.Calls[method]++
	if err, ok := f.FailNext[method]; ok {
		delete(f.FailNext, method)
		return err
	}
	return nil
}

func (f *Fake) CreateAssistant(ctx context.Context, params provider.AssistantParams) (*provider.Assistant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("CreateAssistant"); err != nil {
		return nil, err
	}

	assistant := &provider.Assistant{
		ID:           f.nextID("asst"),
		Name:         params.Name,
		Model:        params.Model,
		Instructions: params.Instructions,
		CreatedAt:    time.Now(),
	}
	if params.VectorStoreID != "" {
		assistant.VectorStoreIDs = []string{params.VectorStoreID}
	}
	f.assistants[assistant.ID] = assistant

	return cloneAssistant(assistant), nil
}

func (f *Fake) GetAssistant(ctx context.Context, assistantID string) (*provider.Assistant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("GetAssistant"); err != nil {
		return nil, err
	}

	assistant, ok := f.assistants[assistantID]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "assistant %s", assistantID)
	}
	return cloneAssistant(assistant), nil
}

func (f *Fake) UpdateAssistant(ctx context.Context, assistantID string, update provider.AssistantUpdate) (*provider.Assistant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("UpdateAssistant"); err != nil {
		return nil, err
	}

	assistant, ok := f.assistants[assistantID]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "assistant %s", assistantID)
	}
	if update.Instructions != nil {
		assistant.Instructions = *update.Instructions
	}
	if update.VectorStoreID != nil {
		assistant.VectorStoreIDs = []string{*update.VectorStoreID}
	}
	return cloneAssistant(assistant), nil
}

func (f *Fake) ListAssistants(ctx context.Context) ([]provider.Assistant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("ListAssistants"); err != nil {
		return nil, err
	}

	assistants := make([]provider.Assistant, 0, len(f.assistants))
	for _, assistant := range f.assistants {
		assistants = append(assistants, *cloneAssistant(assistant))
	}
	// Most recent first, mirroring the provider's default ordering.
	for i := 0; i < len(assistants); i++ {
		for j := i + 1; j < len(assistants); j++ {
			if assistants[j].CreatedAt.After(assistants[i].CreatedAt) ||
				(assistants[j].CreatedAt.Equal(assistants[i].CreatedAt) && assistants[j].ID > assistants[i].ID) {
				assistants[i], assistants[j] = assistants[j], assistants[i]
			}
		}
	}
	return assistants, nil
}

func (f *Fake) DeleteAssistant(ctx context.Context, assistantID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("DeleteAssistant"); err != nil {
		return err
	}

	if _, ok := f.assistants[assistantID]; !ok {
		return errors.Wrapf(errors.ErrNotFound, "assistant %s", assistantID)
	}
	delete(f.assistants, assistantID)
	return nil
}

func (f *Fake) UploadFile(ctx context.Context, filename string, content []byte) (*provider.StoredFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("UploadFile"); err != nil {
		return nil, err
	}

	file := &provider.StoredFile{ID: f.nextID("file"), Filename: filename}
	f.files[file.ID] = file
	return &provider.StoredFile{ID: file.ID, Filename: file.Filename}, nil
}

func (f *Fake) DeleteFile(ctx context.Context, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("DeleteFile"); err != nil {
		return err
	}

	if _, ok := f.files[fileID]; !ok {
		return errors.Wrapf(errors.ErrNotFound, "file %s", fileID)
	}
	delete(f.files, fileID)
	return nil
}

func (f *Fake) CreateVectorStore(ctx context.Context, name string) (*provider.VectorStore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("CreateVectorStore"); err != nil {
		return nil, err
	}

	store := &provider.VectorStore{ID: f.nextID("vs"), Name: name, CreatedAt: time.Now()}
	f.vectorStores[store.ID] = store
	f.storeFiles[store.ID] = map[string]*provider.VectorStoreFile{}
	return &provider.VectorStore{ID: store.ID, Name: store.Name, CreatedAt: store.CreatedAt}, nil
}

func (f *Fake) GetVectorStore(ctx context.Context, vectorStoreID string) (*provider.VectorStore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("GetVectorStore"); err != nil {
		return nil, err
	}

	store, ok := f.vectorStores[vectorStoreID]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "vector store %s", vectorStoreID)
	}
	return &provider.VectorStore{ID: store.ID, Name: store.Name, CreatedAt: store.CreatedAt}, nil
}

func (f *Fake) AttachFile(ctx context.Context, vectorStoreID, fileID string) (*provider.VectorStoreFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("AttachFile"); err != nil {
		return nil, err
	}

	files, ok := f.storeFiles[vectorStoreID]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "vector store %s", vectorStoreID)
	}
	if _, ok := f.files[fileID]; !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "file %s", fileID)
	}

	file := &provider.VectorStoreFile{ID: fileID, Status: provider.FileStatusInProgress}
	if f.AttachSettleAfter <= 0 {
		file.Status = f.AttachFinalStatus
		if file.Status == provider.FileStatusFailed {
			file.LastError = "processing failed"
		}
	} else {
		f.pendingPolls[vectorStoreID+"/"+fileID] = f.AttachSettleAfter
	}
	files[fileID] = file

	return &provider.VectorStoreFile{ID: file.ID, Status: file.Status, LastError: file.LastError}, nil
}

func (f *Fake) GetVectorStoreFile(ctx context.Context, vectorStoreID, fileID string) (*provider.VectorStoreFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("GetVectorStoreFile"); err != nil {
		return nil, err
	}

	files, ok := f.storeFiles[vectorStoreID]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "vector store %s", vectorStoreID)
	}
	file, ok := files[fileID]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "vector store file %s", fileID)
	}

	key := vectorStoreID + "/" + fileID
	if remaining, pending := f.pendingPolls[key]; pending {
		if remaining <= 1 {
			delete(f.pendingPolls, key)
			file.Status = f.AttachFinalStatus
			if file.Status == provider.FileStatusFailed {
				file.LastError = "processing failed"
			}
		} else {
			f.pendingPolls[key] = remaining - 1
		}
	}

	return &provider.VectorStoreFile{ID: file.ID, Status: file.Status, LastError: file.LastError}, nil
}

func (f *Fake) ListVectorStoreFiles(ctx context.Context, vectorStoreID string) ([]provider.VectorStoreFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("ListVectorStoreFiles"); err != nil {
		return nil, err
	}

	files, ok := f.storeFiles[vectorStoreID]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "vector store %s", vectorStoreID)
	}

	out := make([]provider.VectorStoreFile, 0, len(files))
	for _, file := range files {
		out = append(out, *file)
	}
	return out, nil
}

func (f *Fake) DetachFile(ctx context.Context, vectorStoreID, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("DetachFile"); err != nil {
		return err
	}

	files, ok := f.storeFiles[vectorStoreID]
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "vector store %s", vectorStoreID)
	}
	if _, ok := files[fileID]; !ok {
		return errors.Wrapf(errors.ErrNotFound, "vector store file %s", fileID)
	}
	delete(files, fileID)
	return nil
}

// EmbedTexts produces deterministic embeddings derived from the text bytes so
// identical texts land near each other in tests.
func (f *Fake) EmbedTexts(ctx context.Context, model string, texts ...string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("EmbedTexts"); err != nil {
		return nil, err
	}

	embeddings := make([][]float32, 0, len(texts))
	for _, text := range texts {
		embedding := make([]float32, f.EmbedDimension)
		for i, b := range []byte(text) {
			embedding[i%f.EmbedDimension] += float32(b) / 255.0
		}
		embeddings = append(embeddings, normalize(embedding))
	}
	return embeddings, nil
}

// VectorStoreFileCount reports how many files are attached to a store.
func (f *Fake) VectorStoreFileCount(vectorStoreID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.storeFiles[vectorStoreID])
}

// AssistantCount reports how many assistants exist.
func (f *Fake) AssistantCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.assistants)
}

// FileCount reports how many uploaded files still exist.
func (f *Fake) FileCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.files)
}

// SeedAssistant injects an assistant as if created by an older code path.
func (f *Fake) SeedAssistant(assistant provider.Assistant) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if assistant.ID == "" {
		assistant.ID = f.nextID("asst")
	}
	f.assistants[assistant.ID] = cloneAssistant(&assistant)
}

func cloneAssistant(a *provider.Assistant) *provider.Assistant {
	clone := *a
	clone.VectorStoreIDs = append([]string(nil), a.VectorStoreIDs...)
	return &clone
}

func normalize(v []float32) []float32 {
	var norm float32
	for _, x := range v {
		norm += x * x
	}
	if norm == 0 {
		return v
	}
	inv := float32(1.0 / math.Sqrt(float64(norm)))
	for i := range v {
		v[i] *= inv
	}
	return v
}
