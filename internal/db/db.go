// Package db opens the dispatch history database and keeps its schema
// current.
package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	// import db drivers
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/climateengine/build-sensor/internal/config"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

func init() {
	sqlx.BindDriver(config.DriverSQLite, sqlx.QUESTION)
}

// DB is a wrapper around the sqlx.DB connection pool.
type DB struct {
	*sqlx.DB
	driver string
}

// NewDatabase connects to the configured database and applies pending
// migrations. The returned func closes the pool.
func NewDatabase(cfg *config.DBConfig, logger *slog.Logger) (*DB, func(), error) {
	if !cfg.Enabled() {
		return nil, func() {}, errors.New("database driver is not configured")
	}

	conn, err := sqlx.Open(cfg.Driver, cfg.DSN())
	if err != nil {
		return nil, func() {}, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.Driver == config.DriverSQLite {
		// sqlite allows a single writer; serialise through one connection.
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		conn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, func() {}, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{DB: conn, driver: cfg.Driver}

	logger.Info("running database migrations", "driver", cfg.Driver)
	if err := db.RunMigrations(); err != nil {
		_ = conn.Close()
		return nil, func() {}, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("database migrations completed successfully")

	return db, func() {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close database connection", "error", err)
		}
	}, nil
}

// Driver returns the configured driver name.
func (db *DB) Driver() string {
	return db.driver
}

// RunMigrations executes pending migrations embedded in the binary. A dirty
// schema left by a failed migration is reported instead of being repaired.
func (db *DB) RunMigrations() error {
	migrator, err := db.newMigrator()
	if err != nil {
		return err
	}

	_, dirty, err := migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	if dirty {
		return errors.New("failed to apply migrations: database is in dirty state, fix it with 'migrate force <version>'")
	}

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func (db *DB) newMigrator() (*migrate.Migrate, error) {
	sourceDriver, err := iofs.New(migrationsFS, "migrations/"+db.driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	var dbDriver database.Driver
	switch db.driver {
	case config.DriverSQLite:
		dbDriver, err = sqlite.WithInstance(db.DB.DB, &sqlite.Config{})
	default:
		dbDriver, err = postgres.WithInstance(db.DB.DB, &postgres.Config{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", sourceDriver, db.driver, dbDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return migrator, nil
}
