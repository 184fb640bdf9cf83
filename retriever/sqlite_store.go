//go:build !without_sqlite

package retriever

import (
	"context"
	"fmt"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SqliteStore implements VectorStore using SQLite with the sqlite-vec
// extension. Chunk rows live in a regular table; embeddings live in a vec0
// virtual table keyed by chunk id.
type SqliteStore struct {
	db     *gorm.DB
	vecDim int
}

type ChunkRecord struct {
	ID        string `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	TenantID string `gorm:"index:idx_chunks_tenant"`
	Content  string `gorm:"type:text"`
	Metadata datatypes.JSONType[map[string]any]
}

func (ChunkRecord) TableName() string {
	return "chunks"
}

var _ VectorStore = (*SqliteStore)(nil)

func NewSqliteStore(dbPath string, dimension int) (*SqliteStore, error) {
	sqlite_vec.Auto()

	db, err := gorm.Open(
		sqlite.Open(fmt.Sprintf("file:%s?cache=shared&mode=rwc&_journal_mode=WAL&_foreign_keys=on", dbPath)),
		&gorm.Config{},
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open sqlite database")
	}

	store := &SqliteStore{
		db:     db,
		vecDim: dimension,
	}

	if err := db.AutoMigrate(&ChunkRecord{}); err != nil {
		return nil, errors.Wrapf(err, "failed to migrate chunks table")
	}

	if err := store.createVectorTable(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SqliteStore) createVectorTable() error {
	var sqliteVersion, vecVersion string
	err := s.db.Raw("SELECT sqlite_version(), vec_version()").Row().Scan(&sqliteVersion, &vecVersion)
	if err != nil {
		return errors.Wrapf(err, "sqlite-vec extension not properly loaded")
	}

	createTableSQL := fmt.Sprintf(`
		CREATE VIRTUAL TABLE IF NOT EXISTS chunk_vectors USING vec0(
			chunk_id TEXT PRIMARY KEY,
			embedding float[%d]
		);
	`, s.vecDim)

	if err := s.db.Exec(createTableSQL).Error; err != nil {
		return errors.Wrapf(err, "failed to create chunk_vectors table")
	}

	return nil
}

func (s *SqliteStore) Index(ctx context.Context, documents []Document) error {
	if len(documents) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, document := range documents {
			record := ChunkRecord{
				ID:       document.ID,
				TenantID: document.TenantID,
				Content:  document.Content,
				Metadata: datatypes.NewJSONType(document.Metadata),
			}
			if err := tx.Save(&record).Error; err != nil {
				return errors.Wrapf(err, "failed to save chunk record")
			}

			if len(document.Embedding) == 0 {
				continue
			}

			if err := tx.Exec("DELETE FROM chunk_vectors WHERE chunk_id = ?", document.ID).Error; err != nil {
				return errors.Wrapf(err, "failed to delete existing vector")
			}

			serialized, err := sqlite_vec.SerializeFloat32(document.Embedding)
			if err != nil {
				return errors.Wrapf(err, "failed to serialize embedding")
			}

			if err := tx.Exec(
				"INSERT INTO chunk_vectors (chunk_id, embedding) VALUES (?, ?)",
				document.ID, serialized,
			).Error; err != nil {
				return errors.Wrapf(err, "failed to insert chunk vector")
			}
		}

		return nil
	})
}

func (s *SqliteStore) Search(ctx context.Context, tenantID string, queryEmbedding []float32, limit int) ([]SearchResult, error) {
	if len(queryEmbedding) == 0 {
		return []SearchResult{}, nil
	}

	var tenantChunkIds []string
	if err := s.db.WithContext(ctx).
		Model(&ChunkRecord{}).
		Where("tenant_id = ?", tenantID).
		Pluck("id", &tenantChunkIds).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to get tenant chunk ids")
	}
	if len(tenantChunkIds) == 0 {
		return []SearchResult{}, nil
	}

	serializedQuery, err := sqlite_vec.SerializeFloat32(queryEmbedding)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to serialize query embedding")
	}

	rows, err := s.db.WithContext(ctx).Raw(`
		SELECT chunk_id, distance
		FROM chunk_vectors
		WHERE embedding MATCH ? AND chunk_id IN ?
		ORDER BY distance
		LIMIT ?
	`, serializedQuery, tenantChunkIds, limit).Rows()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to execute search query")
	}
	defer rows.Close()

	var ids []string
	distanceMap := make(map[string]float64)
	for rows.Next() {
		var id string
		var distance float64
		if err := rows.Scan(&id, &distance); err != nil {
			return nil, errors.Wrapf(err, "failed to scan result row")
		}
		ids = append(ids, id)
		distanceMap[id] = distance
	}

	if len(ids) == 0 {
		return []SearchResult{}, nil
	}

	var records []ChunkRecord
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&records).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to fetch chunk records")
	}

	recordMap := make(map[string]ChunkRecord, len(records))
	for _, record := range records {
		recordMap[record.ID] = record
	}

	// Preserve distance order from the vector query.
	results := make([]SearchResult, 0, len(ids))
	for _, id := range ids {
		record, ok := recordMap[id]
		if !ok {
			continue
		}
		results = append(results, SearchResult{
			ID:         record.ID,
			Content:    record.Content,
			Metadata:   record.Metadata.Data(),
			Similarity: 1.0 - distanceMap[id],
		})
	}

	return results, nil
}

func (s *SqliteStore) DeleteByTenant(ctx context.Context, tenantID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var chunkIds []string
		if err := tx.Model(&ChunkRecord{}).Where("tenant_id = ?", tenantID).Pluck("id", &chunkIds).Error; err != nil {
			return errors.Wrapf(err, "failed to get tenant chunk ids")
		}

		if len(chunkIds) > 0 {
			if err := tx.Exec("DELETE FROM chunk_vectors WHERE chunk_id IN ?", chunkIds).Error; err != nil {
				return errors.Wrapf(err, "failed to delete chunk vectors")
			}
			if err := tx.Delete(&ChunkRecord{}, "id IN ?", chunkIds).Error; err != nil {
				return errors.Wrapf(err, "failed to delete chunk records")
			}
		}

		return nil
	})
}

func (s *SqliteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
