package activity

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fivem-dashboard/internal/db"
)

// Record is one append-only activity-log row.
type Record struct {
	ID         string
	AccountID  string
	Username   string
	Action     string
	Details    string
	IPAddress  string
	UserAgent  string
	Browser    string
	OS         string
	DeviceType string
	CreatedAt  time.Time
}

type Store interface {
	Insert(ctx context.Context, record *Record) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time, batchSize int) (int64, error)
}

func NewStore(database *sql.DB, driver string) (Store, error) {
	switch driver {
	case db.DriverPostgres:
		return &postgresStore{db: database}, nil
	case db.DriverMySQL:
		return &mysqlStore{db: database}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", driver)
	}
}

type postgresStore struct {
	db *sql.DB
}

func (s *postgresStore) Insert(ctx context.Context, record *Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_logs (id, account_id, username, action, details, ip_address, user_agent, browser, os, device_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, record.ID, record.AccountID, record.Username, record.Action, record.Details, record.IPAddress,
		record.UserAgent, record.Browser, record.OS, record.DeviceType, record.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert activity record: %w", err)
	}

	return nil
}

func (s *postgresStore) DeleteOlderThan(ctx context.Context, cutoff time.Time, batchSize int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		WITH stale AS (
			SELECT id
			FROM user_logs
			WHERE created_at < $1
			ORDER BY created_at ASC
			LIMIT $2
		)
		DELETE FROM user_logs l
		USING stale
		WHERE l.id = stale.id
	`, cutoff.UTC(), batchSize)
	if err != nil {
		return 0, fmt.Errorf("delete stale activity records: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("stale activity records rows affected: %w", err)
	}

	return affected, nil
}

type mysqlStore struct {
	db *sql.DB
}

func (s *mysqlStore) Insert(ctx context.Context, record *Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_logs (id, account_id, username, action, details, ip_address, user_agent, browser, os, device_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, record.ID, record.AccountID, record.Username, record.Action, record.Details, record.IPAddress,
		record.UserAgent, record.Browser, record.OS, record.DeviceType, record.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert activity record: %w", err)
	}

	return nil
}

func (s *mysqlStore) DeleteOlderThan(ctx context.Context, cutoff time.Time, batchSize int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM user_logs WHERE created_at < ? LIMIT ?
	`, cutoff.UTC(), batchSize)
	if err != nil {
		return 0, fmt.Errorf("delete stale activity records: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("stale activity records rows affected: %w", err)
	}

	return affected, nil
}
