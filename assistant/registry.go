package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jcooky/go-din"
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

type (
	Service interface {
		// GetOrCreateAssistant resolves the tenant's assistant handle,
		// creating the full resource chain on first contact. Callers holding
		// a cached or persisted handle are insulated from sync failures; only
		// a brand-new creation path surfaces errors.
		GetOrCreateAssistant(ctx context.Context, tenantID string) (string, error)

		// EnsureTenantDataSynced refreshes the tenant's knowledge index
		// synchronously.
		EnsureTenantDataSynced(ctx context.Context, tenantID string) error

		// GetCacheInfo exposes the cache entry so callers can decide whether
		// to force a sync.
		GetCacheInfo(tenantID string) (CacheEntry, bool)

		// ClearCache drops cached resolutions, all tenants when none given.
		ClearCache(tenantIDs ...string)
	}

	service struct {
		engine   *Engine
		provider provider.Client
		cache    Cache
		runner   *Runner
		db       *gorm.DB
		config   *config.SyncConfig
		logger   *mylog.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(
	engine *Engine,
	providerClient provider.Client,
	cache Cache,
	runner *Runner,
	gormDB *gorm.DB,
	conf *config.SyncConfig,
	logger *mylog.Logger,
) Service {
	return &service{
		engine:   engine,
		provider: providerClient,
		cache:    cache,
		runner:   runner,
		db:       gormDB,
		config:   conf,
		logger:   logger,
	}
}

func (s *service) GetOrCreateAssistant(ctx context.Context, tenantID string) (string, error) {
	if tenantID == "" {
		return "", errors.Wrapf(errors.ErrInvalidParams, "tenant id is empty")
	}

	// CacheHit: serve immediately; staleness only schedules background work.
	if entry, ok := s.cache.Get(tenantID); ok {
		s.maybeScheduleResync(tenantID, entry.LastSyncedAt)
		return entry.AssistantID, nil
	}

	unlock := s.engine.locks.acquire(tenantID)
	defer unlock()

	// Another caller may have resolved while we waited for the lock.
	if entry, ok := s.cache.Get(tenantID); ok {
		return entry.AssistantID, nil
	}

	logger := s.logger.With("tenant_id", tenantID)

	// DbHit: a persisted handle can reference a resource the provider has
	// since discarded, so re-validate before trusting it.
	record, err := s.engine.findRecord(ctx, tenantID)
	if err != nil {
		return "", err
	}
	if record != nil && record.AssistantID != "" {
		if _, err := s.provider.GetAssistant(ctx, record.AssistantID); err == nil {
			s.cache.Set(tenantID, CacheEntry{AssistantID: record.AssistantID, LastSyncedAt: record.LastSyncedAt})
			s.maybeScheduleResync(tenantID, record.LastSyncedAt)
			return record.AssistantID, nil
		} else if provider.IsNotFound(err) {
			logger.Warn("persisted assistant no longer exists at provider",
				"assistant_id", record.AssistantID)
		} else {
			logger.Warn("assistant validation failed, falling through to discovery",
				"assistant_id", record.AssistantID, mylog.Err(err))
		}
	}

	// Discovered: reconcile assistants created under older naming schemes
	// instead of creating a billable duplicate.
	if discovered := s.discover(ctx, tenantID); discovered != nil {
		if record == nil {
			record = &entity.TenantKnowledge{TenantID: tenantID}
		}
		record.AssistantID = discovered.ID
		if len(discovered.VectorStoreIDs) > 0 {
			record.VectorStoreID = discovered.VectorStoreIDs[0]
		}

		_, tx := db.OpenSession(ctx, s.db)
		if err := record.Save(tx); err != nil {
			return "", err
		}

		s.cache.Set(tenantID, CacheEntry{AssistantID: discovered.ID, LastSyncedAt: record.LastSyncedAt})
		s.maybeScheduleResync(tenantID, record.LastSyncedAt)
		return discovered.ID, nil
	}

	// Created: no match anywhere. Drive a full sync so the new assistant is
	// immediately useful; the engine creates, verifies, persists and caches.
	if err := s.engine.run(ctx, tenantID); err != nil {
		return "", err
	}

	entry, ok := s.cache.Get(tenantID)
	if !ok {
		return "", errors.Wrapf(errors.ErrInternal, "sync completed without caching a handle")
	}
	return entry.AssistantID, nil
}

// discover scans provider assistants for one belonging to the tenant.
// Listing failures degrade to "no match": failing to enumerate existing
// resources should not block creating a new one.
func (s *service) discover(ctx context.Context, tenantID string) *provider.Assistant {
	logger := s.logger.With("tenant_id", tenantID)

	assistants, err := s.provider.ListAssistants(ctx)
	if err != nil {
		logger.Warn("assistant discovery failed, treating as no match", mylog.Err(err))
		return nil
	}

	exactName := fmt.Sprintf("%s-%s", s.config.AssistantNamePrefix, tenantID)

	// Exact tenant-prefixed name first.
	for i := range assistants {
		if assistants[i].Name == exactName {
			return &assistants[i]
		}
	}

	// Any name carrying the exact tenant id next.
	for i := range assistants {
		if strings.Contains(assistants[i].Name, tenantID) {
			logger.Info("discovered assistant by tenant id match", "name", assistants[i].Name)
			return &assistants[i]
		}
	}

	// Last resort: the most recent assistant under our prefix. Names are not
	// tenant-unique at this tier, so say so loudly.
	var newest *provider.Assistant
	for i := range assistants {
		if !strings.HasPrefix(assistants[i].Name, s.config.AssistantNamePrefix) {
			continue
		}
		if newest == nil || assistants[i].CreatedAt.After(newest.CreatedAt) {
			newest = &assistants[i]
		}
	}
	if newest != nil {
		logger.Warn("discovered assistant by prefix recency only, mapping may be wrong",
			"name", newest.Name, "assistant_id", newest.ID)
	}
	return newest
}

func (s *service) EnsureTenantDataSynced(ctx context.Context, tenantID string) error {
	return s.engine.Sync(ctx, tenantID)
}

func (s *service) GetCacheInfo(tenantID string) (CacheEntry, bool) {
	return s.cache.Get(tenantID)
}

func (s *service) ClearCache(tenantIDs ...string) {
	s.cache.Clear(tenantIDs...)
}

func (s *service) maybeScheduleResync(tenantID string, lastSyncedAt *time.Time) {
	stale := lastSyncedAt == nil || time.Since(*lastSyncedAt) > s.config.StaleAfter()
	if !stale {
		return
	}

	s.runner.Go("resync-"+tenantID, func(ctx context.Context) error {
		return s.engine.Sync(ctx, tenantID)
	})
}

func init() {
	din.RegisterT(func(c *din.Container) (Service, error) {
		logger, err := din.GetT[*mylog.Logger](c)
		if err != nil {
			return nil, err
		}
		conf, err := din.GetT[*config.SyncConfig](c)
		if err != nil {
			return nil, err
		}
		client, err := din.GetT[provider.Client](c)
		if err != nil {
			return nil, err
		}
		exporter, err := din.GetT[*corpus.Exporter](c)
		if err != nil {
			return nil, err
		}
		retrieverService, err := din.GetT[retriever.Service](c)
		if err != nil {
			return nil, err
		}
		settings, err := din.GetT[productdata.Settings](c)
		if err != nil {
			return nil, err
		}
		gormDB, err := din.Get[*gorm.DB](c, db.Key)
		if err != nil {
			return nil, err
		}

		cache := NewInMemoryCache()
		runner := NewRunner(logger)
		engine := NewEngine(client, exporter, retrieverService, settings, cache, gormDB, conf, logger)

		return NewService(engine, client, cache, runner, gormDB, conf, logger), nil
	})
}
