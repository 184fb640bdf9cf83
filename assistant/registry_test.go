package assistant_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/prodpulse/knowledgesync/assistant"
	"github.com/prodpulse/knowledgesync/config"
	"github.com/prodpulse/knowledgesync/corpus"
	"github.com/prodpulse/knowledgesync/entity"
	"github.com/prodpulse/knowledgesync/internal/db"
	"github.com/prodpulse/knowledgesync/internal/mylog"
	"github.com/prodpulse/knowledgesync/internal/mytesting"
	productdatatest "github.com/prodpulse/knowledgesync/productdata/test"
	"github.com/prodpulse/knowledgesync/provider"
	providertest "github.com/prodpulse/knowledgesync/provider/test"
	"github.com/prodpulse/knowledgesync/retriever"
)

type RegistryTestSuite struct {
	mytesting.Suite

	fake     *providertest.Fake
	store    *productdatatest.Store
	cache    *assistant.InMemoryCache
	runner   *assistant.Runner
	registry assistant.Service
	conf     *config.SyncConfig
	DB       *gorm.DB
}

func (s *RegistryTestSuite) SetupTest() {
	s.Suite.SetupTest()

	logger := mylog.NewLogger("error", "default")

	s.fake = providertest.NewFake()
	s.store = productdatatest.NewStore()
	s.cache = assistant.NewInMemoryCache()
	s.runner = assistant.NewRunner(logger)

	var err error
	s.DB, err = db.OpenDB(&config.DatabaseConfig{SqlitePath: ":memory:"})
	s.Require().NoError(err)
	s.Require().NoError(db.AutoMigrate(s.Context, s.DB))

	retrieverService := retriever.NewService(
		retriever.NewInMemoryStore(), s.fake, config.NewRetrieverConfig(), logger,
	)

	s.conf = config.NewSyncConfig()
	s.conf.PollIntervalMs = 0
	s.conf.MaxPollAttempts = 5

	engine := assistant.NewEngine(
		s.fake,
		corpus.NewExporter(s.store, logger),
		retrieverService,
		s.store,
		s.cache,
		s.DB,
		s.conf,
		logger,
	)
	s.registry = assistant.NewService(engine, s.fake, s.cache, s.runner, s.DB, s.conf, logger)
}

func (s *RegistryTestSuite) TearDownTest() {
	s.runner.Wait()
	s.Require().NoError(db.CloseDB(s.DB))
	s.Suite.TearDownTest()
}

func (s *RegistryTestSuite) saveRecord(record *entity.TenantKnowledge) {
	s.Require().NoError(s.DB.Save(record).Error)
}

func (s *RegistryTestSuite) TestCacheHitServesWithoutProviderCalls() {
	now := time.Now()
	s.cache.Set("reg-cache", assistant.CacheEntry{AssistantID: "asst_cached", LastSyncedAt: &now})

	assistantID, err := s.registry.GetOrCreateAssistant(s.Context, "reg-cache")
	s.Require().NoError(err)
	s.Require().Equal("asst_cached", assistantID)
	s.Require().Empty(s.fake.Calls)
}

func (s *RegistryTestSuite) TestStaleCacheHitSchedulesBackgroundResync() {
	stale := time.Now().Add(-s.conf.StaleAfter() - time.Minute)
	s.cache.Set("reg-stale", assistant.CacheEntry{AssistantID: "asst_stale", LastSyncedAt: &stale})

	assistantID, err := s.registry.GetOrCreateAssistant(s.Context, "reg-stale")
	s.Require().NoError(err)
	// The caller is served the cached handle immediately.
	s.Require().Equal("asst_stale", assistantID)

	s.runner.Wait()
	// The background resync ran a full pass.
	s.Require().Equal(1, s.fake.Calls["UploadFile"])
}

func (s *RegistryTestSuite) TestDbHitValidatesAndCaches() {
	created, err := s.fake.CreateAssistant(s.Context, provider.AssistantParams{
		Name: "prodpulse-assistant-reg-db", Model: "gpt-4o",
	})
	s.Require().NoError(err)

	now := time.Now()
	s.saveRecord(&entity.TenantKnowledge{
		TenantID:     "reg-db",
		AssistantID:  created.ID,
		LastSyncedAt: &now,
	})

	assistantID, err := s.registry.GetOrCreateAssistant(s.Context, "reg-db")
	s.Require().NoError(err)
	s.Require().Equal(created.ID, assistantID)

	// No new resources were created; the handle was validated and memoized.
	s.Require().Equal(1, s.fake.Calls["CreateAssistant"])
	entry, ok := s.cache.Get("reg-db")
	s.Require().True(ok)
	s.Require().Equal(created.ID, entry.AssistantID)
}

func (s *RegistryTestSuite) TestDbHitWithDeadHandleFallsThrough() {
	now := time.Now()
	s.saveRecord(&entity.TenantKnowledge{
		TenantID:     "reg-dead",
		AssistantID:  "asst_gone",
		LastSyncedAt: &now,
	})

	assistantID, err := s.registry.GetOrCreateAssistant(s.Context, "reg-dead")
	s.Require().NoError(err)
	s.Require().NotEqual("asst_gone", assistantID)
	s.Require().Equal(1, s.fake.AssistantCount())

	// The record was repointed at the fresh assistant.
	var record entity.TenantKnowledge
	s.Require().NoError(s.DB.First(&record, "tenant_id = ?", "reg-dead").Error)
	s.Require().Equal(assistantID, record.AssistantID)
}

func (s *RegistryTestSuite) TestDiscoveryByExactName() {
	s.fake.SeedAssistant(provider.Assistant{
		ID:             "asst_legacy",
		Name:           "prodpulse-assistant-reg-disc",
		VectorStoreIDs: []string{"vs_legacy"},
		CreatedAt:      time.Now(),
	})

	assistantID, err := s.registry.GetOrCreateAssistant(s.Context, "reg-disc")
	s.Require().NoError(err)
	s.Require().Equal("asst_legacy", assistantID)

	// Discovered assistants are adopted, not duplicated.
	s.Require().Zero(s.fake.Calls["CreateAssistant"])

	var record entity.TenantKnowledge
	s.Require().NoError(s.DB.First(&record, "tenant_id = ?", "reg-disc").Error)
	s.Require().Equal("asst_legacy", record.AssistantID)
	s.Require().Equal("vs_legacy", record.VectorStoreID)
}

func (s *RegistryTestSuite) TestDiscoveryByTenantIDMatch() {
	s.fake.SeedAssistant(provider.Assistant{
		ID:        "asst_renamed",
		Name:      "old-bot-reg-sub-v2",
		CreatedAt: time.Now(),
	})

	assistantID, err := s.registry.GetOrCreateAssistant(s.Context, "reg-sub")
	s.Require().NoError(err)
	s.Require().Equal("asst_renamed", assistantID)
}

func (s *RegistryTestSuite) TestDiscoveryByPrefixRecency() {
	// Neither name carries the tenant id, so only the prefix tier can match.
	s.fake.SeedAssistant(provider.Assistant{
		ID:        "asst_older",
		Name:      "prodpulse-assistant-some-other-tenant",
		CreatedAt: time.Now().Add(-time.Hour),
	})
	s.fake.SeedAssistant(provider.Assistant{
		ID:        "asst_newest",
		Name:      "prodpulse-assistant-another-one",
		CreatedAt: time.Now(),
	})

	assistantID, err := s.registry.GetOrCreateAssistant(s.Context, "reg-recency")
	s.Require().NoError(err)
	s.Require().Equal("asst_newest", assistantID)
	s.Require().Zero(s.fake.Calls["CreateAssistant"])

	var record entity.TenantKnowledge
	s.Require().NoError(s.DB.First(&record, "tenant_id = ?", "reg-recency").Error)
	s.Require().Equal("asst_newest", record.AssistantID)
}

func (s *RegistryTestSuite) TestCreatedTierRunsFullSync() {
	assistantID, err := s.registry.GetOrCreateAssistant(s.Context, "reg-new")
	s.Require().NoError(err)
	s.Require().NotEmpty(assistantID)

	s.Require().Equal(1, s.fake.AssistantCount())
	s.Require().Equal(1, s.fake.Calls["UploadFile"])

	var record entity.TenantKnowledge
	s.Require().NoError(s.DB.First(&record, "tenant_id = ?", "reg-new").Error)
	s.Require().Equal(assistantID, record.AssistantID)
	s.Require().NotNil(record.LastSyncedAt)
}

func (s *RegistryTestSuite) TestGetOrCreateRequiresTenant() {
	_, err := s.registry.GetOrCreateAssistant(s.Context, "")
	s.Require().Error(err)
}

func (s *RegistryTestSuite) TestEnsureTenantDataSyncedIsSynchronous() {
	s.Require().NoError(s.registry.EnsureTenantDataSynced(s.Context, "reg-sync"))

	entry, ok := s.registry.GetCacheInfo("reg-sync")
	s.Require().True(ok)
	s.Require().NotEmpty(entry.AssistantID)
	s.Require().NotNil(entry.LastSyncedAt)
}

func (s *RegistryTestSuite) TestClearCache() {
	s.cache.Set("reg-clear", assistant.CacheEntry{AssistantID: "asst_x"})

	s.registry.ClearCache("reg-clear")
	_, ok := s.registry.GetCacheInfo("reg-clear")
	s.Require().False(ok)
}

func TestRegistry(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}
