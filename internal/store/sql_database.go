package store

import (
	"database/sql"

	"github.com/MKhiriev/go-list-keeper/internal/logger"
	"github.com/MKhiriev/go-list-keeper/migrations"
)

// DB wraps the standard library connection pool with the error classifier and
// the logger shared by all repositories built on top of it.
type DB struct {
	*sql.DB
	errorClassificator ErrorClassificator
	logger             *logger.Logger
}

// MigrateServer applies the embedded PostgreSQL migrations.
func (db *DB) MigrateServer() error {
	return migrations.MigrateServer(db.DB)
}

// MigrateClient applies the embedded SQLite migrations for the local replica.
func (db *DB) MigrateClient() error {
	return migrations.MigrateClient(db.DB)
}
