package chat

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type mysqlStore struct {
	db *sql.DB
}

func (s *mysqlStore) ListMessages(ctx context.Context, limit int) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, avatar_url, `+"`rank`"+`, message, created_at
		FROM chat_messages
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query chat messages: %w", err)
	}

	return scanMessages(rows)
}

func (s *mysqlStore) InsertMessage(ctx context.Context, message *Message) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_messages (id, username, avatar_url, `+"`rank`"+`, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, message.ID, message.Username, message.AvatarURL, message.Rank, message.Message, message.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}

	return nil
}

func (s *mysqlStore) OnlineUsers(ctx context.Context, since time.Time) ([]OnlineUser, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, avatar_url, last_seen
		FROM online_users
		WHERE last_seen >= ?
		ORDER BY last_seen DESC
	`, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("query online users: %w", err)
	}

	return scanOnlineUsers(rows)
}

func (s *mysqlStore) Touch(ctx context.Context, username string, avatarURL *string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO online_users (username, avatar_url, last_seen)
		VALUES (?, ?, NOW())
		ON DUPLICATE KEY UPDATE avatar_url = COALESCE(VALUES(avatar_url), avatar_url), last_seen = VALUES(last_seen)
	`, username, avatarURL)
	if err != nil {
		return fmt.Errorf("touch presence: %w", err)
	}

	return nil
}

func (s *mysqlStore) Remove(ctx context.Context, username string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM online_users WHERE username = ?
	`, username)
	if err != nil {
		return fmt.Errorf("remove presence: %w", err)
	}

	return nil
}

func (s *mysqlStore) DeleteStalePresence(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM online_users WHERE last_seen < ?
	`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete stale presence: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("stale presence rows affected: %w", err)
	}

	return affected, nil
}
