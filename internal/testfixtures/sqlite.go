package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/mowing-roster/internal/persistence"
	"github.com/example/mowing-roster/internal/persistence/sqlite"
)

// SQLiteHarness is a migrated roster database in the test's temp dir. It is
// closed by tb.Cleanup.
type SQLiteHarness struct {
	Users    persistence.UserRepository
	Sessions persistence.SessionRepository
	Storage  *sqlite.Storage
}

func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	storage, err := sqlite.Open(filepath.Join(tb.TempDir(), "roster.db"))
	if err != nil {
		tb.Fatalf("open roster database: %v", err)
	}
	tb.Cleanup(func() { _ = storage.Close() })

	if err := storage.Migrate(context.Background()); err != nil {
		tb.Fatalf("migrate roster database: %v", err)
	}
	return &SQLiteHarness{Users: storage, Sessions: storage, Storage: storage}
}

// SeedUsers stores each fixture and fails the test on the first error.
func (h *SQLiteHarness) SeedUsers(tb testing.TB, users ...UserFixture) {
	tb.Helper()
	for _, u := range users {
		if err := h.Users.CreateUser(context.Background(), u.Persistence()); err != nil {
			tb.Fatalf("seed user %s: %v", u.ID, err)
		}
	}
}

// SeedSessions stores each fixture and fails the test on the first error.
func (h *SQLiteHarness) SeedSessions(tb testing.TB, sessions ...SessionFixture) {
	tb.Helper()
	for _, s := range sessions {
		if err := h.Sessions.CreateSession(context.Background(), s.Persistence()); err != nil {
			tb.Fatalf("seed session %s: %v", s.ID, err)
		}
	}
}
