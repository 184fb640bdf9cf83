package config

import (
	"github.com/jcooky/go-din"
)

type DatabaseConfig struct {
	// DatabaseUrl points at the shared Postgres instance. When empty, the
	// sqlite fallback below is used instead.
	DatabaseUrl string `env:"DATABASE_URL"`

	// SqlitePath is the sqlite database file used when no DATABASE_URL is set.
	// ":memory:" is accepted.
	SqlitePath string `env:"KNOWLEDGESYNC_SQLITE_PATH"`

	DatabaseAutoMigrate bool `env:"DATABASE_AUTO_MIGRATE"`
}

func init() {
	din.RegisterT(func(c *din.Container) (*DatabaseConfig, error) {
		conf := DatabaseConfig{
			SqlitePath:          ":memory:",
			DatabaseAutoMigrate: true,
		}
		return &conf, resolveConfig(&conf, c.Env == din.EnvTest)
	})
}
