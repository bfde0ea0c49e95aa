package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ouroboros-study/ouroboros-api/pkg/config"
)

// Open returns the database selected by DB_DRIVER.
func Open(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	switch cfg.Driver {
	case "", config.DriverSQLite:
		return NewSQLite(cfg.Path)
	case config.DriverPostgres:
		return NewPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
