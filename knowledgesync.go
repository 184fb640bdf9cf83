package knowledgesync

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"github.com/prodpulse/knowledgesync/assistant"
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

type (
	// KnowledgeSync is the embeddable entry point to the tenant knowledge
	// subsystem: assistant resolution, knowledge index synchronization and
	// semantic retrieval.
	KnowledgeSync struct {
		registry         assistant.Service
		retrieverService retriever.Service
		logger           *slog.Logger

		providerClient provider.Client
		store          productdata.Store
		settings       productdata.Settings
		vectorStore    retriever.VectorStore
		cache          assistant.Cache
		db             *gorm.DB

		openAIApiKey    string
		logConfig       *config.LogConfig
		syncConfig      *config.SyncConfig
		retrieverConfig *config.RetrieverConfig
	}

	Option func(*KnowledgeSync)
)

func NewKnowledgeSync(ctx context.Context, optionFuncs ...Option) (*KnowledgeSync, error) {
	k := &KnowledgeSync{
		logConfig:       &config.LogConfig{LogLevel: "info", LogHandler: "default"},
		syncConfig:      config.NewSyncConfig(),
		retrieverConfig: config.NewRetrieverConfig(),
	}
	for _, f := range optionFuncs {
		f(k)
	}

	if k.logger == nil {
		k.logger = mylog.NewLogger(k.logConfig.LogLevel, k.logConfig.LogHandler)
	}

	if k.store == nil {
		return nil, errors.New("product data store is required")
	}

	if k.settings == nil {
		if settings, ok := k.store.(productdata.Settings); ok {
			k.settings = settings
		}
	}

	if k.providerClient == nil {
		if k.openAIApiKey == "" {
			return nil, errors.Wrapf(errors.ErrInvalidConfig, "OpenAI API key is required when no provider client is given")
		}
		k.providerClient = provider.NewOpenAIClient(k.openAIApiKey)
	}

	if k.db == nil {
		gormDB, err := db.OpenDB(&config.DatabaseConfig{SqlitePath: ":memory:"})
		if err != nil {
			return nil, err
		}
		if err := db.AutoMigrate(ctx, gormDB); err != nil {
			return nil, err
		}
		k.db = gormDB
	}

	if k.vectorStore == nil {
		k.vectorStore = retriever.NewInMemoryStore()
	}
	if k.cache == nil {
		k.cache = assistant.NewInMemoryCache()
	}

	k.retrieverService = retriever.NewService(k.vectorStore, k.providerClient, k.retrieverConfig, k.logger)

	exporter := corpus.NewExporter(k.store, k.logger)
	runner := assistant.NewRunner(k.logger)
	engine := assistant.NewEngine(
		k.providerClient,
		exporter,
		k.retrieverService,
		k.settings,
		k.cache,
		k.db,
		k.syncConfig,
		k.logger,
	)
	k.registry = assistant.NewService(engine, k.providerClient, k.cache, runner, k.db, k.syncConfig, k.logger)

	return k, nil
}

// GetOrCreateAssistant resolves the assistant handle for a tenant, creating
// the assistant, knowledge index and first corpus on first contact.
func (k *KnowledgeSync) GetOrCreateAssistant(ctx context.Context, tenantID string) (string, error) {
	return k.registry.GetOrCreateAssistant(ctx, tenantID)
}

// EnsureTenantDataSynced replaces the tenant's knowledge index contents from
// its live structured data.
func (k *KnowledgeSync) EnsureTenantDataSynced(ctx context.Context, tenantID string) error {
	return k.registry.EnsureTenantDataSynced(ctx, tenantID)
}

// SearchVectors answers a semantic query against the tenant's vector index.
func (k *KnowledgeSync) SearchVectors(ctx context.Context, query, tenantID string, filters *retriever.Filters, limit int) ([]retriever.SearchResult, error) {
	return k.retrieverService.Search(ctx, query, tenantID, filters, limit)
}

// GetCacheInfo exposes the tenant's cache entry for callers deciding whether
// to force a sync.
func (k *KnowledgeSync) GetCacheInfo(tenantID string) (assistant.CacheEntry, bool) {
	return k.registry.GetCacheInfo(tenantID)
}

// ClearCache drops cached resolutions; mainly for tests.
func (k *KnowledgeSync) ClearCache(tenantIDs ...string) {
	k.registry.ClearCache(tenantIDs...)
}

// TenantRecord reads the persisted knowledge record for a tenant, if any.
func (k *KnowledgeSync) TenantRecord(ctx context.Context, tenantID string) (*entity.TenantKnowledge, error) {
	_, tx := db.OpenSession(ctx, k.db)

	var record entity.TenantKnowledge
	if r := tx.Find(&record, "tenant_id = ?", tenantID); r.Error != nil {
		return nil, errors.Wrapf(r.Error, "failed to find tenant knowledge record")
	} else if r.RowsAffected == 0 {
		return nil, nil
	}
	return &record, nil
}

func (k *KnowledgeSync) Close() error {
	if err := k.retrieverService.Close(); err != nil {
		return err
	}
	return db.CloseDB(k.db)
}

func WithOpenAIApiKey(apiKey string) Option {
	return func(k *KnowledgeSync) {
		k.openAIApiKey = apiKey
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(k *KnowledgeSync) {
		k.logger = logger
	}
}

func WithLogConfig(logConfig *config.LogConfig) Option {
	return func(k *KnowledgeSync) {
		k.logConfig = logConfig
	}
}

func WithSyncConfig(syncConfig *config.SyncConfig) Option {
	return func(k *KnowledgeSync) {
		k.syncConfig = syncConfig
	}
}

func WithRetrieverConfig(retrieverConfig *config.RetrieverConfig) Option {
	return func(k *KnowledgeSync) {
		k.retrieverConfig = retrieverConfig
	}
}

func WithProviderClient(client provider.Client) Option {
	return func(k *KnowledgeSync) {
		k.providerClient = client
	}
}

func WithProductDataStore(store productdata.Store) Option {
	return func(k *KnowledgeSync) {
		k.store = store
	}
}

func WithSettings(settings productdata.Settings) Option {
	return func(k *KnowledgeSync) {
		k.settings = settings
	}
}

func WithVectorStore(store retriever.VectorStore) Option {
	return func(k *KnowledgeSync) {
		k.vectorStore = store
	}
}

func WithCache(cache assistant.Cache) Option {
	return func(k *KnowledgeSync) {
		k.cache = cache
	}
}

func WithDB(gormDB *gorm.DB) Option {
	return func(k *KnowledgeSync) {
		k.db = gormDB
	}
}
