package auth

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fivem-dashboard/internal/db"
)

// StaffStore is the authoritative lookup and update surface for staff
// accounts. One implementation exists per database backend; the backend is
// chosen once at startup and business logic never branches on dialect.
type StaffStore interface {
	FindByUsername(ctx context.Context, username string) (*Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)

	// RecordFailedAttempt increments the failed-login counter in a single
	// atomic update and sets locked_until when the new count reaches
	// maxAttempts. It returns the new counter value.
	RecordFailedAttempt(ctx context.Context, accountID string, maxAttempts int, lockUntil time.Time) (int, error)

	// RecordSuccessfulLogin resets the counter, clears any lock and stamps
	// last_login.
	RecordSuccessfulLogin(ctx context.Context, accountID string, now time.Time) error

	Create(ctx context.Context, params CreateAccountParams) (*Account, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	FindSecurityCode(ctx context.Context, code string) (codeID string, rank Rank, err error)
	SetActive(ctx context.Context, accountID string, active bool) error
}

// SessionStore persists opaque session state keyed by token hash.
type SessionStore interface {
	Create(ctx context.Context, session *Session) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error)
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	DeleteExpired(ctx context.Context, now time.Time, batchSize int) (int64, error)
}

func NewStaffStore(database *sql.DB, driver string) (StaffStore, error) {
	switch driver {
	case db.DriverPostgres:
		return &postgresStaffStore{db: database}, nil
	case db.DriverMySQL:
		return &mysqlStaffStore{db: database}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", driver)
	}
}

func NewSessionStore(database *sql.DB, driver string) (SessionStore, error) {
	switch driver {
	case db.DriverPostgres:
		return &postgresSessionStore{db: database}, nil
	case db.DriverMySQL:
		return &mysqlSessionStore{db: database}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", driver)
	}
}
