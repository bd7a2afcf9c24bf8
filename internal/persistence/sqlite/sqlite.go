package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"

	"github.com/example/mowing-roster/internal/persistence"
	"github.com/example/mowing-roster/internal/persistence/sqlite/migrations"
)

var (
	_ persistence.UserRepository    = (*Storage)(nil)
	_ persistence.SessionRepository = (*Storage)(nil)
)

// Storage is the SQLite-backed implementation of both repositories.
type Storage struct {
	*UserRepository
	*SessionRepository

	pool   *ConnectionPool
	logger *slog.Logger
}

// Open connects to dsn with DefaultConfig.
func Open(dsn string) (*Storage, error) {
	return OpenWithConfig(DefaultConfig(dsn), nil)
}

// OpenWithConfig connects using config. A nil logger discards migration output.
func OpenWithConfig(config Config, logger *slog.Logger) (*Storage, error) {
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Storage{
		UserRepository:    NewUserRepository(pool),
		SessionRepository: NewSessionRepository(pool),
		pool:              pool,
		logger:            logger,
	}, nil
}

// DB exposes the underlying handle for tooling.
func (s *Storage) DB() *sql.DB {
	return s.pool.DB()
}

// Ping verifies the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Storage) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	return s.pool.Close()
}

// newProvider is replaced in tests.
var newProvider = func(db *sql.DB) (migrationRunner, error) {
	return goose.NewProvider(goose.DialectSQLite3, db, migrations.FS)
}

type migrationRunner interface {
	Up(ctx context.Context) ([]*goose.MigrationResult, error)
}

// Migrate applies all pending migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	provider, err := newProvider(s.pool.DB())
	if err != nil {
		return fmt.Errorf("sqlite: prepare migrations: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("sqlite: apply migrations: %w", err)
	}
	for _, result := range results {
		if result == nil || result.Source == nil {
			continue
		}
		s.logger.InfoContext(ctx, "migration applied",
			"version", result.Source.Version,
			"path", result.Source.Path,
			"duration", result.Duration,
		)
	}
	return nil
}
