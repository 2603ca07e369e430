package chat

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type postgresStore struct {
	db *sql.DB
}

func (s *postgresStore) ListMessages(ctx context.Context, limit int) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, avatar_url, rank, message, created_at
		FROM chat_messages
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query chat messages: %w", err)
	}

	return scanMessages(rows)
}

func (s *postgresStore) InsertMessage(ctx context.Context, message *Message) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_messages (id, username, avatar_url, rank, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, message.ID, message.Username, message.AvatarURL, message.Rank, message.Message, message.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}

	return nil
}

func (s *postgresStore) OnlineUsers(ctx context.Context, since time.Time) ([]OnlineUser, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, avatar_url, last_seen
		FROM online_users
		WHERE last_seen >= $1
		ORDER BY last_seen DESC
	`, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("query online users: %w", err)
	}

	return scanOnlineUsers(rows)
}

func (s *postgresStore) Touch(ctx context.Context, username string, avatarURL *string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO online_users (username, avatar_url, last_seen)
		VALUES ($1, $2, NOW())
		ON CONFLICT (username)
		DO UPDATE SET avatar_url = COALESCE(EXCLUDED.avatar_url, online_users.avatar_url), last_seen = EXCLUDED.last_seen
	`, username, avatarURL)
	if err != nil {
		return fmt.Errorf("touch presence: %w", err)
	}

	return nil
}

func (s *postgresStore) Remove(ctx context.Context, username string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM online_users WHERE username = $1
	`, username)
	if err != nil {
		return fmt.Errorf("remove presence: %w", err)
	}

	return nil
}

func (s *postgresStore) DeleteStalePresence(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM online_users WHERE last_seen < $1
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
