package mongodb

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratemongo "github.com/golang-migrate/migrate/v4/database/mongodb"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.json
var migrationsFS embed.FS

// ApplyMigrations runs the embedded migrations. The unique indexes on
// username and email are what gives Create its duplicate detection, so this
// must run before the store serves traffic.
func (s *Store) ApplyMigrations() error {
	driver, err := migratemongo.WithInstance(s.client, &migratemongo.Config{
		DatabaseName: s.db.Name(),
	})
	if err != nil {
		return fmt.Errorf("mongodb: failed to init migration driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("mongodb: failed to load migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, s.db.Name(), driver)
	if err != nil {
		return fmt.Errorf("mongodb: failed to init migrations: %w", err)
	}

	// Not calling m.Close: the migration driver wraps the store's own client,
	// which stays open for the life of the process.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("mongodb: failed to apply migrations: %w", err)
	}
	return nil
}
