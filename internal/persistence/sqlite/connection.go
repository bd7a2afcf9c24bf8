package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/mowing-roster/internal/persistence"
	_ "modernc.org/sqlite"
)

// Config describes how the SQLite database is opened.
type Config struct {
	DSN             string
	BusyTimeout     time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns a Config for dsn with WAL-friendly pool settings.
func DefaultConfig(dsn string) Config {
	return Config{
		DSN:             dsn,
		BusyTimeout:     5 * time.Second,
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: 0,
	}
}

// ConnectionPool owns the *sql.DB shared by both repositories.
type ConnectionPool struct {
	db     *sql.DB
	config Config
}

// NewConnectionPool opens the database described by config.
func NewConnectionPool(config Config) (*ConnectionPool, error) {
	if strings.TrimSpace(config.DSN) == "" {
		return nil, errors.New("sqlite: dsn is required")
	}

	db, err := sql.Open("sqlite", withPragmas(config.DSN, config.BusyTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Every connection to ":memory:" is a distinct database.
	maxOpen := config.MaxOpenConns
	if isMemoryDSN(config.DSN) || maxOpen <= 0 {
		maxOpen = 1
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(max(config.MaxIdleConns, 1))
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	return &ConnectionPool{db: db, config: config}, nil
}

// withPragmas appends the per-connection pragmas understood by modernc.org/sqlite.
func withPragmas(dsn string, busy time.Duration) string {
	if busy <= 0 {
		busy = 5 * time.Second
	}
	pragmas := []string{fmt.Sprintf("_pragma=busy_timeout(%d)", busy.Milliseconds())}
	if !isMemoryDSN(dsn) {
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	var filtered []string
	for _, p := range pragmas {
		name := strings.SplitN(strings.TrimPrefix(p, "_pragma="), "(", 2)[0]
		if !strings.Contains(dsn, name) {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) == 0 {
		return dsn
	}
	return dsn + sep + strings.Join(filtered, "&")
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

func (cp *ConnectionPool) DB() *sql.DB {
	return cp.db
}

func (cp *ConnectionPool) Close() error {
	if cp.db == nil {
		return nil
	}
	return cp.db.Close()
}

func (cp *ConnectionPool) Ping(ctx context.Context) error {
	return cp.db.PingContext(ctx)
}

// inTx runs fn in a transaction. fn's error, or a panic, rolls it back.
func (cp *ConnectionPool) inTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := cp.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// errLocked marks a write rejected because another connection held the lock.
var errLocked = errors.New("sqlite: database is locked")

// driverErrors matches modernc.org/sqlite error text.
var driverErrors = []struct {
	fragments []string
	target    error
}{
	{[]string{"UNIQUE constraint failed", "PRIMARY KEY constraint failed"}, persistence.ErrDuplicate},
	{[]string{"CHECK constraint failed", "NOT NULL constraint failed"}, persistence.ErrConstraintViolation},
	{[]string{"database is locked", "SQLITE_BUSY"}, errLocked},
}

// mapError translates driver errors into the persistence sentinels. Errors it
// does not recognise are returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrNotFound
	}
	msg := err.Error()
	for _, d := range driverErrors {
		for _, fragment := range d.fragments {
			if strings.Contains(msg, fragment) {
				return fmt.Errorf("%w: %v", d.target, err)
			}
		}
	}
	return err
}

// retryPolicy retries writes that lost the database lock, doubling the pause
// between attempts up to maxDelay.
type retryPolicy struct {
	retries  int
	delay    time.Duration
	maxDelay time.Duration
}

var defaultRetryPolicy = retryPolicy{retries: 3, delay: 50 * time.Millisecond, maxDelay: time.Second}

// do runs fn until it succeeds, fails with something other than errLocked,
// or the retries are spent. The returned error is already mapped.
func (p retryPolicy) do(ctx context.Context, fn func() error) error {
	delay := p.delay
	err := mapError(fn())
	for attempt := 0; attempt < p.retries && errors.Is(err, errLocked); attempt++ {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay = min(2*delay, p.maxDelay)
		err = mapError(fn())
	}
	if errors.Is(err, errLocked) {
		return fmt.Errorf("gave up after %d retries: %w", p.retries, err)
	}
	return err
}
