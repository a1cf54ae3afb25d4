package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/hashicorp/go-hclog"
)

//go:embed migrations/*.sql
var embedded embed.FS

// MigrationManager applies versioned schema migrations
// ({version}_{name}.up.sql / .down.sql) read from an fs.FS
type MigrationManager struct {
	db     *sql.DB
	source fs.FS
	dir    string
	logger hclog.Logger
}

// NewMigrationManager creates a migration manager over the embedded migrations
func NewMigrationManager(db *sql.DB, logger hclog.Logger) *MigrationManager {
	return NewMigrationManagerFS(db, embedded, "migrations", logger)
}

// NewMigrationManagerFS creates a migration manager reading dir in source
func NewMigrationManagerFS(db *sql.DB, source fs.FS, dir string, logger hclog.Logger) *MigrationManager {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &MigrationManager{
		db:     db,
		source: source,
		dir:    dir,
		logger: logger.Named("migrations"),
	}
}

// RunMigrations applies every pending migration and returns the resulting version
func (m *MigrationManager) RunMigrations() (uint, error) {
	mg, err := m.newMigrate()
	if err != nil {
		return 0, err
	}

	if err := mg.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("failed to run migrations: %w", err)
	}

	version, _, err := m.Version()
	if err != nil {
		return 0, err
	}
	m.logger.Info("migrations up to date", "version", version)
	return version, nil
}

// Rollback reverts the most recent migration
func (m *MigrationManager) Rollback() error {
	mg, err := m.newMigrate()
	if err != nil {
		return err
	}
	if err := mg.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	return nil
}

// Version returns the applied version and whether the last migration failed midway.
// A database without migrations reports version 0.
func (m *MigrationManager) Version() (uint, bool, error) {
	mg, err := m.newMigrate()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := mg.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read migration version: %w", err)
	}
	return version, dirty, nil
}

// newMigrate builds a migrate instance bound to the manager's connection.
// It is never closed: closing it would close the shared *sql.DB.
func (m *MigrationManager) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(m.source, m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open migrations source: %w", err)
	}

	driver, err := sqlite.WithInstance(m.db, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite migration driver: %w", err)
	}

	mg, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	mg.Log = migrateLogger{m.logger}
	return mg, nil
}

// migrateLogger adapts hclog to migrate.Logger
type migrateLogger struct {
	logger hclog.Logger
}

func (l migrateLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool {
	return l.logger.IsTrace()
}

// OpenMigrated opens a database and applies the embedded migrations
func OpenMigrated(cfg Config) (*sql.DB, error) {
	conn, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	if _, err := NewMigrationManager(conn, cfg.Logger).RunMigrations(); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}
