package assistant

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/prodpulse/knowledgesync/config"
	"github.com/prodpulse/knowledgesync/corpus"
	"github.com/prodpulse/knowledgesync/entity"
	"github.com/prodpulse/knowledgesync/errors"
	"github.com/prodpulse/knowledgesync/internal/db"
	"github.com/prodpulse/knowledgesync/internal/mylog"
	"github.com/prodpulse/knowledgesync/productdata"
	"github.com/prodpulse/knowledgesync/provider"
	"github.com/prodpulse/knowledgesync/retriever"
)

// Engine owns the lifecycle of one knowledge index (file + vector store) per
// tenant and replaces its contents atomically relative to observers: the
// persisted record is only ever written after provider-side state has been
// verified, so a crash mid-sync never leaves the record pointing at
// unverified resources.
type Engine struct {
	provider  provider.Client
	exporter  *corpus.Exporter
	retriever retriever.Service
	settings  productdata.Settings
	cache     Cache
	db        *gorm.DB
	config    *config.SyncConfig
	logger    *mylog.Logger
	locks     *tenantLocks

	// sleep is swappable so tests can skip real polling delays.
	sleep func(time.Duration)
}

var tracer = otel.Tracer("knowledgesync/assistant")

func NewEngine(
	providerClient provider.Client,
	exporter *corpus.Exporter,
	retrieverService retriever.Service,
	settings productdata.Settings,
	cache Cache,
	gormDB *gorm.DB,
	conf *config.SyncConfig,
	logger *mylog.Logger,
) *Engine {
	return &Engine{
		provider:  providerClient,
		exporter:  exporter,
		retriever: retrieverService,
		settings:  settings,
		cache:     cache,
		db:        gormDB,
		config:    conf,
		logger:    logger,
		locks:     newTenantLocks(),
		sleep:     time.Sleep,
	}
}

// Sync refreshes the tenant's knowledge index from its live structured data.
// Idempotent; concurrent calls for the same tenant serialize.
func (e *Engine) Sync(ctx context.Context, tenantID string) error {
	if tenantID == "" {
		return errors.Wrapf(errors.ErrInvalidParams, "tenant id is empty")
	}

	unlock := e.locks.acquire(tenantID)
	defer unlock()

	return e.run(ctx, tenantID)
}

// run executes one sync pass. Callers must hold the tenant lock.
func (e *Engine) run(ctx context.Context, tenantID string) error {
	ctx, span := tracer.Start(ctx, "assistant.sync")
	span.SetAttributes(attribute.String("tenant_id", tenantID))
	defer span.End()

	logger := e.logger.With("tenant_id", tenantID)

	corp, err := e.exporter.Export(ctx, tenantID)
	if err != nil {
		return errors.Wrapf(err, "failed to export corpus")
	}

	filename := fmt.Sprintf("%s-knowledge-%d.txt", tenantID, corp.GeneratedAt.Unix())
	newFile, err := e.provider.UploadFile(ctx, filename, []byte(corp.Text))
	if err != nil {
		return errors.Wrapf(err, "failed to upload corpus file")
	}
	logger.Debug("uploaded corpus file", "file_id", newFile.ID, "bytes", len(corp.Text))

	record, err := e.findRecord(ctx, tenantID)
	if err != nil {
		return err
	}

	vectorStoreID, supersededFileIDs, err := e.swapIntoVectorStore(ctx, tenantID, record, newFile.ID)
	if err != nil {
		return err
	}

	if err := e.awaitFileProcessed(ctx, vectorStoreID, newFile.ID); err != nil {
		return err
	}

	// A completed batch does not by itself guarantee the individual file
	// succeeded; re-check that the file is actually linked and completed.
	if err := e.verifyFileLinked(ctx, vectorStoreID, newFile.ID); err != nil {
		return err
	}

	if err := e.retriever.Index(ctx, tenantID, corp.Chunks); err != nil {
		return errors.Wrapf(err, "failed to refresh local vector index")
	}

	assistantID, err := e.ensureAssistant(ctx, tenantID, record, vectorStoreID)
	if err != nil {
		return err
	}

	// Database truth is written last, after everything above is verified.
	now := time.Now().UTC()
	if record == nil {
		record = &entity.TenantKnowledge{TenantID: tenantID}
	}
	record.AssistantID = assistantID
	record.VectorStoreID = vectorStoreID
	record.FileIDs = datatypes.NewJSONSlice([]string{newFile.ID})
	record.LastSyncedAt = &now

	_, tx := db.OpenSession(ctx, e.db)
	if err := record.Save(tx); err != nil {
		return err
	}

	// Stale files are a cost concern, not a correctness concern.
	for _, fileID := range supersededFileIDs {
		if err := e.provider.DeleteFile(ctx, fileID); err != nil {
			logger.Warn("failed to delete superseded file", "file_id", fileID, mylog.Err(err))
		}
	}

	e.cache.Set(tenantID, CacheEntry{AssistantID: assistantID, LastSyncedAt: &now})
	logger.Info("tenant knowledge synced",
		"assistant_id", assistantID,
		"vector_store_id", vectorStoreID,
		"file_id", newFile.ID,
	)

	return nil
}

func (e *Engine) findRecord(ctx context.Context, tenantID string) (*entity.TenantKnowledge, error) {
	_, tx := db.OpenSession(ctx, e.db)

	var record entity.TenantKnowledge
	if r := tx.Find(&record, "tenant_id = ?", tenantID); r.Error != nil {
		return nil, errors.Wrapf(r.Error, "failed to find tenant knowledge record")
	} else if r.RowsAffected == 0 {
		return nil, nil
	}

	return &record, nil
}

// swapIntoVectorStore resolves the tenant's vector store (validated against
// the provider) or creates one, removes previously attached files and
// attaches the new file. Returns the store id and the file ids that were
// displaced. A failed detach is logged and skipped, so the store can briefly
// hold a superseded file the persisted record no longer lists; the next pass
// re-lists and retries the detach.
func (e *Engine) swapIntoVectorStore(ctx context.Context, tenantID string, record *entity.TenantKnowledge, newFileID string) (string, []string, error) {
	logger := e.logger.With("tenant_id", tenantID)

	vectorStoreID := ""
	if record != nil && record.VectorStoreID != "" {
		if _, err := e.provider.GetVectorStore(ctx, record.VectorStoreID); err == nil {
			vectorStoreID = record.VectorStoreID
		} else if provider.IsNotFound(err) {
			logger.Warn("persisted vector store no longer exists, creating a new one",
				"vector_store_id", record.VectorStoreID)
		} else {
			return "", nil, errors.Wrapf(err, "failed to validate vector store")
		}
	}

	if vectorStoreID == "" {
		store, err := e.provider.CreateVectorStore(ctx, fmt.Sprintf("%s-%s-knowledge", e.config.AssistantNamePrefix, tenantID))
		if err != nil {
			return "", nil, errors.Wrapf(err, "failed to create vector store")
		}

		if _, err := e.provider.AttachFile(ctx, store.ID, newFileID); err != nil {
			return "", nil, errors.Wrapf(err, "failed to attach file to new vector store")
		}
		return store.ID, nil, nil
	}

	attached, err := e.provider.ListVectorStoreFiles(ctx, vectorStoreID)
	if err != nil {
		return "", nil, errors.Wrapf(err, "failed to list vector store files")
	}

	var superseded []string
	for _, file := range attached {
		if file.ID == newFileID {
			continue
		}
		if err := e.provider.DetachFile(ctx, vectorStoreID, file.ID); err != nil {
			logger.Warn("failed to detach superseded file", "file_id", file.ID, mylog.Err(err))
			continue
		}
		superseded = append(superseded, file.ID)
	}

	if _, err := e.provider.AttachFile(ctx, vectorStoreID, newFileID); err != nil {
		return "", nil, errors.Wrapf(err, "failed to attach file to vector store")
	}

	return vectorStoreID, superseded, nil
}

// awaitFileProcessed polls the per-file processing status until it reaches a
// terminal state, bounded by the configured attempt budget.
func (e *Engine) awaitFileProcessed(ctx context.Context, vectorStoreID, fileID string) error {
	for attempt := 0; attempt < e.config.MaxPollAttempts; attempt++ {
		file, err := e.provider.GetVectorStoreFile(ctx, vectorStoreID, fileID)
		if err != nil {
			return errors.Wrapf(err, "failed to poll vector store file status")
		}

		switch file.Status {
		case provider.FileStatusCompleted:
			return nil
		case provider.FileStatusFailed, provider.FileStatusCancelled:
			return errors.Wrapf(errors.ErrSyncVerification,
				"file %s processing ended with status %s: %s", fileID, file.Status, file.LastError)
		}

		e.sleep(e.config.PollInterval())
	}

	return errors.Wrapf(errors.ErrSyncVerification,
		"file %s still processing after %d attempts", fileID, e.config.MaxPollAttempts)
}

// verifyFileLinked closes the validated-but-not-really-linked failure mode.
func (e *Engine) verifyFileLinked(ctx context.Context, vectorStoreID, fileID string) error {
	files, err := e.provider.ListVectorStoreFiles(ctx, vectorStoreID)
	if err != nil {
		return errors.Wrapf(err, "failed to re-verify vector store files")
	}

	for _, file := range files {
		if file.ID != fileID {
			continue
		}
		if file.Status != provider.FileStatusCompleted {
			return errors.Wrapf(errors.ErrSyncVerification,
				"file %s is linked but in status %s", fileID, file.Status)
		}
		return nil
	}

	return errors.Wrapf(errors.ErrSyncVerification,
		"file %s is not linked to vector store %s", fileID, vectorStoreID)
}

// ensureAssistant validates the persisted assistant handle or creates a new
// assistant, and makes sure it is attached to the current vector store.
func (e *Engine) ensureAssistant(ctx context.Context, tenantID string, record *entity.TenantKnowledge, vectorStoreID string) (string, error) {
	logger := e.logger.With("tenant_id", tenantID)

	if record != nil && record.AssistantID != "" {
		existing, err := e.provider.GetAssistant(ctx, record.AssistantID)
		if err == nil {
			for _, id := range existing.VectorStoreIDs {
				if id == vectorStoreID {
					return existing.ID, nil
				}
			}
			if _, err := e.provider.UpdateAssistant(ctx, existing.ID, provider.AssistantUpdate{
				VectorStoreID: &vectorStoreID,
			}); err != nil {
				return "", errors.Wrapf(err, "failed to attach vector store to assistant")
			}
			return existing.ID, nil
		}
		if !provider.IsNotFound(err) {
			return "", errors.Wrapf(err, "failed to validate assistant")
		}
		logger.Warn("persisted assistant no longer exists, creating a new one",
			"assistant_id", record.AssistantID)
	}

	created, err := e.provider.CreateAssistant(ctx, provider.AssistantParams{
		Name:          fmt.Sprintf("%s-%s", e.config.AssistantNamePrefix, tenantID),
		Model:         e.config.AssistantModel,
		Instructions:  buildInstructions(ctx, e.settings, tenantID, e.logger),
		VectorStoreID: vectorStoreID,
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to create assistant")
	}

	return created.ID, nil
}
