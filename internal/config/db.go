package config

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	// Register pgx/v5 database driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	connectAttempts = 5
	connectInterval = 5 * time.Second
)

// ConnectDB establishes a connection pool to PostgreSQL, retrying a few times
func ConnectDB(ctx context.Context, databaseURL string, log logrus.FieldLogger) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	attempt := 0

	backoff := retry.WithMaxRetries(connectAttempts-1, retry.NewConstant(connectInterval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		p, err := pgxpool.New(ctx, databaseURL)
		if err == nil {
			err = p.Ping(ctx)
			if err == nil {
				pool = p
				return nil
			}
			p.Close()
		}
		log.WithError(err).Warnf("Failed to connect to database (attempt %d/%d), retrying in %v", attempt, connectAttempts, connectInterval)
		return retry.RetryableError(err)
	})
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database after %d attempts: %w", attempt, err)
	}

	log.Info("Successfully connected to PostgreSQL")
	return pool, nil
}

// Migrate applies (up) or reverts (down) the embedded schema migrations
func Migrate(databaseURL string, down bool, log logrus.FieldLogger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("unable to open migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrateURL(databaseURL))
	if err != nil {
		_ = source.Close()
		return fmt.Errorf("unable to initialize migrations: %w", err)
	}
	defer m.Close()

	if down {
		err = m.Down()
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("unable to apply migrations: %w", err)
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return fmt.Errorf("unable to read migration version: %w", verr)
	}
	log.WithFields(logrus.Fields{"version": version, "dirty": dirty, "down": down}).Info("Migrations applied successfully")
	return nil
}

// migrateURL rewrites postgres:// URLs to the pgx5:// scheme golang-migrate expects
func migrateURL(databaseURL string) string {
	if rest, ok := strings.CutPrefix(databaseURL, "postgres://"); ok {
		return "pgx5://" + rest
	}
	if rest, ok := strings.CutPrefix(databaseURL, "postgresql://"); ok {
		return "pgx5://" + rest
	}
	return databaseURL
}
