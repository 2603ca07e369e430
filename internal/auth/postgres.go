package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type postgresStaffStore struct {
	db *sql.DB
}

const postgresAccountColumns = `id, username, password_hash, name, email, rank, avatar_url, is_active,
	failed_login_attempts, locked_until, last_login, created_at, updated_at`

func (s *postgresStaffStore) FindByUsername(ctx context.Context, username string) (*Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+postgresAccountColumns+`
		FROM staff_accounts
		WHERE username = $1
	`, username)
	return scanAccount(row)
}

func (s *postgresStaffStore) FindByID(ctx context.Context, id string) (*Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+postgresAccountColumns+`
		FROM staff_accounts
		WHERE id = $1
	`, id)
	return scanAccount(row)
}

func (s *postgresStaffStore) RecordFailedAttempt(ctx context.Context, accountID string, maxAttempts int, lockUntil time.Time) (int, error) {
	var newCount int
	err := s.db.QueryRowContext(ctx, `
		UPDATE staff_accounts
		SET failed_login_attempts = failed_login_attempts + 1,
			locked_until = CASE
				WHEN failed_login_attempts + 1 >= $2 THEN $3
				ELSE locked_until
			END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING failed_login_attempts
	`, accountID, maxAttempts, lockUntil.UTC()).Scan(&newCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrAccountNotFound
		}
		return 0, fmt.Errorf("record failed attempt: %w", err)
	}

	return newCount, nil
}

func (s *postgresStaffStore) RecordSuccessfulLogin(ctx context.Context, accountID string, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE staff_accounts
		SET failed_login_attempts = 0, locked_until = NULL, last_login = $2, updated_at = $2
		WHERE id = $1
	`, accountID, now.UTC())
	if err != nil {
		return fmt.Errorf("record successful login: %w", err)
	}

	return nil
}

func (s *postgresStaffStore) Create(ctx context.Context, params CreateAccountParams) (*Account, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate account id: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO staff_accounts (id, username, password_hash, name, email, rank, security_code_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`, id.String(), params.Username, params.PasswordHash, params.Name, params.Email, string(params.Rank), params.SecurityCodeID, now)
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

func (s *postgresStaffStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM staff_accounts WHERE username = $1)
	`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check username exists: %w", err)
	}

	return exists, nil
}

func (s *postgresStaffStore) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM staff_accounts WHERE email = $1)
	`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}

	return exists, nil
}

func (s *postgresStaffStore) FindSecurityCode(ctx context.Context, code string) (string, Rank, error) {
	var codeID string
	var rank string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, rank FROM security_codes WHERE code = $1
	`, code).Scan(&codeID, &rank)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", ErrSecurityCodeNotFound
		}
		return "", "", fmt.Errorf("query security code: %w", err)
	}

	return codeID, Rank(rank), nil
}

func (s *postgresStaffStore) SetActive(ctx context.Context, accountID string, active bool) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE staff_accounts SET is_active = $2, updated_at = NOW() WHERE id = $1
	`, accountID, active)
	if err != nil {
		return fmt.Errorf("set account active: %w", err)
	}

	return nil
}

type postgresSessionStore struct {
	db *sql.DB
}

func (s *postgresSessionStore) Create(ctx context.Context, session *Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, token_hash, account_id, username, rank, name, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, session.ID, session.TokenHash, session.AccountID, session.Username, string(session.Rank), session.Name,
		session.ExpiresAt.UTC(), session.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

func (s *postgresSessionStore) GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error) {
	var session Session
	var rank string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, token_hash, account_id, username, rank, name, expires_at, created_at
		FROM sessions
		WHERE token_hash = $1
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

func (s *postgresSessionStore) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE token_hash = $1
	`, tokenHash)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

func (s *postgresSessionStore) DeleteExpired(ctx context.Context, now time.Time, batchSize int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		WITH stale AS (
			SELECT id
			FROM sessions
			WHERE expires_at < $1
			ORDER BY expires_at ASC
			LIMIT $2
		)
		DELETE FROM sessions s
		USING stale
		WHERE s.id = stale.id
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

func scanAccount(row *sql.Row) (*Account, error) {
	var account Account
	var rank string
	var avatarURL sql.NullString
	var lockedUntil, lastLogin sql.NullTime

	err := row.Scan(&account.ID, &account.Username, &account.PasswordHash, &account.Name, &account.Email,
		&rank, &avatarURL, &account.IsActive, &account.FailedLoginAttempts, &lockedUntil, &lastLogin,
		&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("scan staff account: %w", err)
	}

	account.Rank = Rank(rank)
	if avatarURL.Valid {
		account.AvatarURL = &avatarURL.String
	}
	if lockedUntil.Valid {
		value := lockedUntil.Time.UTC()
		account.LockedUntil = &value
	}
	if lastLogin.Valid {
		value := lastLogin.Time.UTC()
		account.LastLogin = &value
	}

	return &account, nil
}
