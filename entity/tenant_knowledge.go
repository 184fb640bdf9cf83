package entity

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/prodpulse/knowledgesync/errors"
)

// TenantKnowledge maps a tenant to its provider-side resources. It is a cache
// of external truth: the provider owns the assistant, the vector store and the
// files; this row only records handles that were verified live at write time.
// At most one non-deleted row exists per tenant.
type TenantKnowledge struct {
	gorm.Model

	TenantID      string `gorm:"uniqueIndex:idx_tenant_knowledge_tenant,where:deleted_at IS NULL"`
	AssistantID   string `gorm:"index"`
	VectorStoreID string
	FileIDs       datatypes.JSONSlice[string]
	LastSyncedAt  *time.Time
}

func (k *TenantKnowledge) Save(db *gorm.DB) error {
	return errors.Wrapf(db.Save(k).Error, "failed to save tenant knowledge")
}

func (k *TenantKnowledge) Delete(db *gorm.DB) error {
	return errors.Wrapf(db.Delete(k).Error, "failed to delete tenant knowledge")
}

// Stale reports whether the record's last sync is older than the given window.
// A record that has never synced is always stale.
func (k *TenantKnowledge) Stale(window time.Duration, now time.Time) bool {
	if k.LastSyncedAt == nil {
		return true
	}
	return now.Sub(*k.LastSyncedAt) > window
}
