package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type mysqlStaffStore struct {
	db *sql.DB
}

// `rank` is a reserved word in MySQL 8.
const mysqlAccountColumns = "id, username, password_hash, name, email, `rank`, avatar_url, is_active," +
	" failed_login_attempts, locked_until, last_login, created_at, updated_at"

func (s *mysqlStaffStore) FindByUsername(ctx context.Context, username string) (*Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+mysqlAccountColumns+`
		FROM staff_accounts
		WHERE username = ?
	`, username)
	return scanAccount(row)
}

func (s *mysqlStaffStore) FindByID(ctx context.Context, id string) (*Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+mysqlAccountColumns+`
		FROM staff_accounts
		WHERE id = ?
	`, id)
	return scanAccount(row)
}

func (s *mysqlStaffStore) RecordFailedAttempt(ctx context.Context, accountID string, maxAttempts int, lockUntil time.Time) (int, error) {
	// MySQL evaluates SET clauses left to right, so the locked_until
	// expression already sees the incremented counter.
	res, err := s.db.ExecContext(ctx, `
		UPDATE staff_accounts
		SET failed_login_attempts = failed_login_attempts + 1,
			locked_until = IF(failed_login_attempts >= ?, ?, locked_until)
		WHERE id = ?
	`, maxAttempts, lockUntil.UTC(), accountID)
	if err != nil {
		return 0, fmt.Errorf("record failed attempt: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("record failed attempt rows affected: %w", err)
	}
	if affected == 0 {
		return 0, ErrAccountNotFound
	}

	var newCount int
	err = s.db.QueryRowContext(ctx, `
		SELECT failed_login_attempts FROM staff_accounts WHERE id = ?
	`, accountID).Scan(&newCount)
	if err != nil {
		return 0, fmt.Errorf("read failed attempt count: %w", err)
	}

	return newCount, nil
}

func (s *mysqlStaffStore) RecordSuccessfulLogin(ctx context.Context, accountID string, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE staff_accounts
		SET failed_login_attempts = 0, locked_until = NULL, last_login = ?
		WHERE id = ?
	`, now.UTC(), accountID)
	if err != nil {
		return fmt.Errorf("record successful login: %w", err)
	}

	return nil
}

func (s *mysqlStaffStore) Create(ctx context.Context, params CreateAccountParams) (*Account, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate account id: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO staff_accounts (id, username, password_hash, name, email, `+"`rank`"+`, security_code_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id.String(), params.Username, params.PasswordHash, params.Name, params.Email, string(params.Rank), params.SecurityCodeID, now, now)
	if err != nil {
		return nil, fmt.Errorf("insert staff account: %w", err)
	}

	return &Account{
		ID:           id.String(),
		Username:     params.Username,
		PasswordHash: params.PasswordHash,
		Name:         params.Name,
		Email:        params.Email,
		Rank:         params.Rank,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (s *mysqlStaffStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM staff_accounts WHERE username = ?)
	`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check username exists: %w", err)
	}

	return exists, nil
}

func (s *mysqlStaffStore) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM staff_accounts WHERE email = ?)
	`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}

	return exists, nil
}

func (s *mysqlStaffStore) FindSecurityCode(ctx context.Context, code string) (string, Rank, error) {
	var codeID string
	var rank string
	err := s.db.QueryRowContext(ctx, "SELECT id, `rank` FROM security_codes WHERE code = ?", code).Scan(&codeID, &rank)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", ErrSecurityCodeNotFound
		}
		return "", "", fmt.Errorf("query security code: %w", err)
	}

	return codeID, Rank(rank), nil
}

func (s *mysqlStaffStore) SetActive(ctx context.Context, accountID string, active bool) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE staff_accounts SET is_active = ? WHERE id = ?
	`, active, accountID)
	if err != nil {
		return fmt.Errorf("set account active: %w", err)
	}

	return nil
}

type mysqlSessionStore struct {
	db *sql.DB
}

func (s *mysqlSessionStore) Create(ctx context.Context, session *Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, token_hash, account_id, username, `+"`rank`"+`, name, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, session.ID, session.TokenHash, session.AccountID, session.Username, string(session.Rank), session.Name,
		session.ExpiresAt.UTC(), session.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

func (s *mysqlSessionStore) GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error) {
	var session Session
	var rank string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, token_hash, account_id, username, `+"`rank`"+`, name, expires_at, created_at
		FROM sessions
		WHERE token_hash = ?
	`, tokenHash).Scan(&session.ID, &session.TokenHash, &session.AccountID, &session.Username, &rank,
		&session.Name, &session.ExpiresAt, &session.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("query session: %w", err)
	}
	session.Rank = Rank(rank)

	return &session, nil
}

func (s *mysqlSessionStore) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE token_hash = ?
	`, tokenHash)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

func (s *mysqlSessionStore) DeleteExpired(ctx context.Context, now time.Time, batchSize int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE expires_at < ? LIMIT ?
	`, now.UTC(), batchSize)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expired sessions rows affected: %w", err)
	}

	return affected, nil
}
