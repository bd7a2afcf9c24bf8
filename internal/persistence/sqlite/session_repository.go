package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/mowing-roster/internal/persistence"
)

const sessionColumns = `id, date, user_id, confirmed, arrival_day, arrival_time, needs_assistance, created_at, updated_at`

// SessionRepository implements persistence.SessionRepository for mowing sessions.
type SessionRepository struct {
	pool  *ConnectionPool
	retry retryPolicy
}

// NewSessionRepository creates a new SQLite session repository
func NewSessionRepository(pool *ConnectionPool) *SessionRepository {
	return &SessionRepository{
		pool:  pool,
		retry: defaultRetryPolicy,
	}
}

// CreateSession inserts a session. A second session on the same primary date
// is rejected with persistence.ErrDuplicate.
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) error {
	if session.ID == "" || strings.TrimSpace(session.Date) == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = session.CreatedAt
	}

	query := `
		INSERT INTO sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	return r.retry.do(ctx, func() error {
		_, err := r.pool.db.ExecContext(ctx, query,
			session.ID,
			strings.TrimSpace(session.Date),
			nullString(session.UserID),
			session.Confirmed,
			nullString(session.ArrivalDay),
			nullString(session.ArrivalTime),
			session.NeedsAssistance,
			formatTime(session.CreatedAt),
			formatTime(session.UpdatedAt),
		)
		return err
	})
}

// CreateSessions inserts a batch atomically. Either every session is stored
// or none is.
func (r *SessionRepository) CreateSessions(ctx context.Context, sessions []persistence.Session) error {
	if len(sessions) == 0 {
		return nil
	}
	now := time.Now().UTC()

	query := `
		INSERT INTO sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	return r.retry.do(ctx, func() error {
		return r.pool.inTx(ctx, func(tx *sql.Tx) error {
			for _, session := range sessions {
				if session.ID == "" || strings.TrimSpace(session.Date) == "" {
					return persistence.ErrConstraintViolation
				}
				if session.CreatedAt.IsZero() {
					session.CreatedAt = now
				}
				if session.UpdatedAt.IsZero() {
					session.UpdatedAt = session.CreatedAt
				}
				_, err := tx.ExecContext(ctx, query,
					session.ID,
					strings.TrimSpace(session.Date),
					nullString(session.UserID),
					session.Confirmed,
					nullString(session.ArrivalDay),
					nullString(session.ArrivalTime),
					session.NeedsAssistance,
					formatTime(session.CreatedAt),
					formatTime(session.UpdatedAt),
				)
				if err != nil {
					return err
				}
			}
			return nil
		})
	})
}

// UpdateSession replaces every mutable column of an existing session.
func (r *SessionRepository) UpdateSession(ctx context.Context, session persistence.Session) error {
	if session.ID == "" || strings.TrimSpace(session.Date) == "" {
		return persistence.ErrConstraintViolation
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = time.Now().UTC()
	}

	query := `
		UPDATE sessions
		SET date = ?, user_id = ?, confirmed = ?, arrival_day = ?, arrival_time = ?,
		    needs_assistance = ?, updated_at = ?
		WHERE id = ?
	`

	var affected int64
	err := r.retry.do(ctx, func() error {
		result, err := r.pool.db.ExecContext(ctx, query,
			strings.TrimSpace(session.Date),
			nullString(session.UserID),
			session.Confirmed,
			nullString(session.ArrivalDay),
			nullString(session.ArrivalTime),
			session.NeedsAssistance,
			formatTime(session.UpdatedAt),
			session.ID,
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

// GetSession retrieves a session by ID.
func (r *SessionRepository) GetSession(ctx context.Context, id string) (persistence.Session, error) {
	if id == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	return r.scanSession(row)
}

// GetSessionByDate retrieves the session whose primary date is date.
func (r *SessionRepository) GetSessionByDate(ctx context.Context, date string) (persistence.Session, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE date = ?`, date)
	return r.scanSession(row)
}

// ListSessions returns sessions ordered by primary date then ID.
func (r *SessionRepository) ListSessions(ctx context.Context, filter persistence.SessionFilter) ([]persistence.Session, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.From != "" {
		conditions = append(conditions, "date >= ?")
		args = append(args, filter.From)
	}
	if filter.To != "" {
		conditions = append(conditions, "date <= ?")
		args = append(args, filter.To)
	}
	if filter.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID)
	}

	query := `SELECT ` + sessionColumns + ` FROM sessions`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY date ASC, id ASC`

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var sessions []persistence.Session
	for rows.Next() {
		session, err := r.scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return sessions, nil
}

// DeleteSession removes a session by ID.
func (r *SessionRepository) DeleteSession(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	var affected int64
	err := r.retry.do(ctx, func() error {
		result, err := r.pool.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
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

// CountSessions returns the number of stored sessions.
func (r *SessionRepository) CountSessions(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count); err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

func (r *SessionRepository) scanSession(row rowScanner) (persistence.Session, error) {
	var (
		session                         persistence.Session
		userID, arrivalDay, arrivalTime sql.NullString
		createdAt, updatedAt            string
	)
	err := row.Scan(
		&session.ID,
		&session.Date,
		&userID,
		&session.Confirmed,
		&arrivalDay,
		&arrivalTime,
		&session.NeedsAssistance,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Session{}, mapError(err)
	}

	session.UserID = stringPtr(userID)
	session.ArrivalDay = stringPtr(arrivalDay)
	session.ArrivalTime = stringPtr(arrivalTime)
	if session.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if session.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return session, nil
}
