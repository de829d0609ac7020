package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/denzelpenzel/tours/assets"
	"github.com/denzelpenzel/tours/internal/config"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// NewConnection creates a new database connection pool
func NewConnection(ctx context.Context, cfg config.DatabaseConfig, automigrate bool, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if automigrate {
		if err := Migrate(cfg.DSN, logger); err != nil {
			pool.Close()
			return nil, err
		}
	}

	logger.Info("Database connection established", zap.Int32("max_conns", poolConfig.MaxConns))
	return pool, nil
}

// Migrate applies the embedded schema migrations up to the latest version
func Migrate(dsn string, logger *zap.Logger) error {
	logger.Info("starting SQL migrations for tours service...")

	source, err := iofs.New(assets.EmbeddedFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}

	migrator, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer migrator.Close()

	err = migrator.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
	case err != nil:
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, isDirty, err := migrator.Version()
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}

	logger.Info("SQL migrations completed",
		zap.Uint("version", version),
		zap.Bool("dirty_state", isDirty))
	return nil
}
