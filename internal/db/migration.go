package db

import (
	"context"

	"gorm.io/gorm"

	"github.com/prodpulse/knowledgesync/entity"
	"github.com/prodpulse/knowledgesync/errors"
)

func AutoMigrate(ctx context.Context, db *gorm.DB) error {
	_, tx := OpenSession(ctx, db)

	return errors.WithStack(tx.AutoMigrate(
		&entity.TenantKnowledge{},
	))
}

func DropAll(ctx context.Context, db *gorm.DB) error {
	_, tx := OpenSession(ctx, db)
	return errors.WithStack(tx.Migrator().DropTable(
		&entity.TenantKnowledge{},
	))
}
