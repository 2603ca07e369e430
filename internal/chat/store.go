package chat

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fivem-dashboard/internal/db"
)

type Message struct {
	ID        string    `json:"-"`
	Username  string    `json:"username"`
	AvatarURL *string   `json:"avatar_url"`
	Rank      string    `json:"rank"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type OnlineUser struct {
	Username  string    `json:"username"`
	AvatarURL *string   `json:"avatar_url"`
	LastSeen  time.Time `json:"last_seen"`
}

// Store persists the staff chat log and the online-presence table.
type Store interface {
	ListMessages(ctx context.Context, limit int) ([]Message, error)
	InsertMessage(ctx context.Context, message *Message) error
	OnlineUsers(ctx context.Context, since time.Time) ([]OnlineUser, error)
	Touch(ctx context.Context, username string, avatarURL *string) error
	Remove(ctx context.Context, username string) error
	DeleteStalePresence(ctx context.Context, cutoff time.Time) (int64, error)
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

func scanMessages(rows *sql.Rows) ([]Message, error) {
	defer rows.Close()

	messages := make([]Message, 0)
	for rows.Next() {
		var message Message
		var avatarURL sql.NullString
		if err := rows.Scan(&message.ID, &message.Username, &avatarURL, &message.Rank, &message.Message, &message.Timestamp); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		if avatarURL.Valid {
			message.AvatarURL = &avatarURL.String
		}
		messages = append(messages, message)
	}

	return messages, rows.Err()
}

func scanOnlineUsers(rows *sql.Rows) ([]OnlineUser, error) {
	defer rows.Close()

	users := make([]OnlineUser, 0)
	for rows.Next() {
		var user OnlineUser
		var avatarURL sql.NullString
		if err := rows.Scan(&user.Username, &avatarURL, &user.LastSeen); err != nil {
			return nil, fmt.Errorf("scan online user: %w", err)
		}
		if avatarURL.Valid {
			user.AvatarURL = &avatarURL.String
		}
		users = append(users, user)
	}

	return users, rows.Err()
}
