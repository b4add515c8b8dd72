package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	// ErrSchemaDirty means an earlier migration stopped halfway and the
	// blobs table needs manual repair.
	ErrSchemaDirty = errors.New("blob schema is dirty")
	// ErrSchemaAhead means the database was written by a newer build.
	ErrSchemaAhead = errors.New("blob schema is newer than this build")
)

// schemaChange reports the blob schema version before and after migrating.
type schemaChange struct {
	From, To uint
}

func (c schemaChange) applied() bool { return c.From != c.To }

// migrateBlobSchema brings the blobs table at dbPath up to the newest
// embedded version. migrate closes the connection it is given, so it gets
// its own.
func migrateBlobSchema(dbPath string) (schemaChange, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return schemaChange{}, fmt.Errorf("open schema connection: %w", err)
	}
	defer db.Close()

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return schemaChange{}, fmt.Errorf("create sqlite driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return schemaChange{}, fmt.Errorf("read embedded migrations: %w", err)
	}
	latest, err := newestVersion(src)
	if err != nil {
		return schemaChange{}, err
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return schemaChange{}, fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	from, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		from = 0
	case err != nil:
		return schemaChange{}, fmt.Errorf("read blob schema version: %w", err)
	case dirty:
		return schemaChange{From: from, To: from}, fmt.Errorf("%w at version %d", ErrSchemaDirty, from)
	case from > latest:
		return schemaChange{From: from, To: from}, fmt.Errorf("%w: database at %d, build knows %d", ErrSchemaAhead, from, latest)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return schemaChange{From: from, To: from}, fmt.Errorf("migrate blob schema from %d: %w", from, err)
	}
	return schemaChange{From: from, To: latest}, nil
}

func newestVersion(src source.Driver) (uint, error) {
	v, err := src.First()
	if err != nil {
		return 0, fmt.Errorf("find first migration: %w", err)
	}
	for {
		next, err := src.Next(v)
		if errors.Is(err, fs.ErrNotExist) {
			return v, nil
		}
		if err != nil {
			return 0, fmt.Errorf("find migration after %d: %w", v, err)
		}
		v = next
	}
}
