package db

import (
	"fmt"
	"time"

	"github.com/jcooky/go-din"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/prodpulse/knowledgesync/config"
	"github.com/prodpulse/knowledgesync/internal/mylog"
)

var (
	Key = din.NewRandomName()
)

func OpenDB(conf *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if conf.DatabaseUrl != "" {
		dialector = postgres.Open(conf.DatabaseUrl)
	} else {
		dialector = sqlite.Open(
			fmt.Sprintf("file:%s?cache=shared&mode=rwc&_journal_mode=WAL&_foreign_keys=on", conf.SqlitePath),
		)
	}

	db, err := gorm.Open(dialector)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return db, nil
}

func CloseDB(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrapf(err, "failed to get db")
	}
	if err := sqlDB.Close(); err != nil {
		return errors.Wrapf(err, "failed to close db")
	}

	return nil
}

func init() {
	din.Register(Key, func(c *din.Container) (any, error) {
		logger, err := din.GetT[*mylog.Logger](c)
		if err != nil {
			return nil, err
		}

		conf, err := din.GetT[*config.DatabaseConfig](c)
		if err != nil {
			return nil, err
		}

		logger.Info("initialize database")
		db, err := OpenDB(conf)
		if err != nil {
			return nil, err
		}

		if c.Env == din.EnvTest {
			if err := DropAll(c, db); err != nil {
				return nil, errors.Wrapf(err, "failed to drop database")
			}
			time.Sleep(100 * time.Millisecond)
		}
		if conf.DatabaseAutoMigrate || c.Env == din.EnvTest {
			if err := AutoMigrate(c, db); err != nil {
				return nil, errors.Wrapf(err, "failed to migrate database")
			}
		}

		go func() {
			<-c.Done()
			if err := CloseDB(db); err != nil {
				logger.Warn("failed to close database", mylog.Err(err))
			}
		}()

		return db, nil
	})
}
