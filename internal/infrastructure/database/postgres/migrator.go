package postgres

import (
	"embed"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/turtacn/rostertag/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/rostertag/pkg/errors"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// MigrationFiles lists the embedded migration file names in apply order.
func MigrationFiles() ([]string, error) {
	entries, err := fs.ReadDir(migrationsFS, migrationsDir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

// newMigrator binds the embedded migrations to the connection.  The returned
// instance is never closed because closing it would close the shared pool.
func (c *Connection) newMigrator() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, migrationsDir)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMigration, "failed to open embedded migrations")
	}
	driver, err := migratepgx.WithInstance(c.db, &migratepgx.Config{})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMigration, "failed to create migration driver")
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMigration, "failed to create migrate instance")
	}
	return m, nil
}

// RunMigrations applies every pending migration.
func (c *Connection) RunMigrations() error {
	m, err := c.newMigrator()
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		version, _, _ := m.Version()
		return errors.Wrapf(err, errors.ErrCodeMigration, "failed to run migrations (current version: %d)", version)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		c.logger.Warn("Failed to get migration version", logging.Err(err))
	}
	c.logger.Info("Database migrations completed",
		logging.Int64("version", int64(version)),
		logging.Bool("dirty", dirty),
	)
	return nil
}

// RollbackMigration rolls back steps migrations.
func (c *Connection) RollbackMigration(steps int) error {
	if steps <= 0 {
		return errors.Newf(errors.ErrCodeValidation, "steps must be greater than 0, got %d", steps)
	}
	m, err := c.newMigrator()
	if err != nil {
		return err
	}
	if err := m.Steps(-steps); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return errors.New(errors.ErrCodeMigration, "no migrations to roll back")
		}
		return errors.Wrapf(err, errors.ErrCodeMigration, "failed to rollback %d step(s)", steps)
	}
	return nil
}

// MigrationStatus returns the applied version and the dirty flag.
func (c *Connection) MigrationStatus() (version uint, dirty bool, err error) {
	m, err := c.newMigrator()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, errors.Wrap(err, errors.ErrCodeMigration, "failed to get migration version")
	}
	return version, dirty, nil
}

//Personal.AI order the ending
