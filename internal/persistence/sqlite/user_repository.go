package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/mowing-roster/internal/persistence"
)

const userColumns = `id, name, email, phone, is_admin, created_at, updated_at`

// UserRepository implements persistence.UserRepository using SQLite
type UserRepository struct {
	pool  *ConnectionPool
	retry retryPolicy
}

// NewUserRepository creates a new SQLite user repository
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{
		pool:  pool,
		retry: defaultRetryPolicy,
	}
}

// CreateUser inserts a new user. Zero timestamps are filled with the current time.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	user.Name = strings.TrimSpace(user.Name)
	if user.ID == "" || user.Name == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	return r.retry.do(ctx, func() error {
		_, err := r.pool.db.ExecContext(ctx, query,
			user.ID,
			user.Name,
			strings.TrimSpace(user.Email),
			strings.TrimSpace(user.Phone),
			user.IsAdmin,
			formatTime(user.CreatedAt),
			formatTime(user.UpdatedAt),
		)
		return err
	})
}

// UpdateUser replaces the mutable fields of an existing user.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	user.Name = strings.TrimSpace(user.Name)
	if user.ID == "" || user.Name == "" {
		return persistence.ErrConstraintViolation
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = time.Now().UTC()
	}

	query := `
		UPDATE users
		SET name = ?, email = ?, phone = ?, is_admin = ?, updated_at = ?
		WHERE id = ?
	`

	var affected int64
	err := r.retry.do(ctx, func() error {
		result, err := r.pool.db.ExecContext(ctx, query,
			user.Name,
			strings.TrimSpace(user.Email),
			strings.TrimSpace(user.Phone),
			user.IsAdmin,
			formatTime(user.UpdatedAt),
			user.ID,
		)
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return r.scanUser(row)
}

// GetUserByName retrieves a user by exact name after trimming surrounding space.
func (r *UserRepository) GetUserByName(ctx context.Context, name string) (persistence.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE name = ?`, name)
	return r.scanUser(row)
}

// ListUsers returns all users ordered by name then ID.
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := r.pool.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY name COLLATE NOCASE ASC, id ASC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return users, nil
}

// DeleteUser removes a user. Sessions keep their user_id and are resolved as
// dangling references by readers.
func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	var affected int64
	err := r.retry.do(ctx, func() error {
		result, err := r.pool.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// CountUsers returns the number of stored users.
func (r *UserRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *UserRepository) scanUser(row rowScanner) (persistence.User, error) {
	var (
		user                 persistence.User
		createdAt, updatedAt string
	)
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.IsAdmin,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.User{}, mapError(err)
	}
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.User{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.User{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return user, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}
