package activity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"fivem-dashboard/internal/observability"
)

// Entry describes one login/logout/register event as seen at the flow
// boundary. Browser, OS and device type are derived from the user agent.
type Entry struct {
	AccountID string
	Username  string
	Action    string
	Details   map[string]any
	IPAddress string
	UserAgent string
	Endpoint  string
}

// Logger persists activity entries best-effort: a failed write is logged and
// swallowed so it can never abort the caller's primary operation.
type Logger struct {
	store Store
	log   *observability.Logger
}

func NewLogger(store Store, log *observability.Logger) *Logger {
	return &Logger{store: store, log: log}
}

func (l *Logger) Record(ctx context.Context, entry Entry) {
	if l == nil || l.store == nil {
		return
	}

	id, err := uuid.NewV7()
	if err != nil {
		l.log.Warn("activity_id_failed", map[string]any{"error": err.Error()})
		return
	}

	details := make(map[string]any, len(entry.Details)+2)
	for k, v := range entry.Details {
		details[k] = v
	}
	details["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	if entry.Endpoint != "" {
		details["endpoint"] = entry.Endpoint
	}

	encoded, err := json.Marshal(details)
	if err != nil {
		l.log.Warn("activity_details_encode_failed", map[string]any{"error": err.Error()})
		encoded = []byte("{}")
	}

	record := &Record{
		ID:         id.String(),
		AccountID:  entry.AccountID,
		Username:   entry.Username,
		Action:     entry.Action,
		Details:    string(encoded),
		IPAddress:  entry.IPAddress,
		UserAgent:  entry.UserAgent,
		Browser:    BrowserFromUserAgent(entry.UserAgent),
		OS:         OSFromUserAgent(entry.UserAgent),
		DeviceType: DeviceTypeFromUserAgent(entry.UserAgent),
		CreatedAt:  time.Now().UTC(),
	}

	if err := l.store.Insert(ctx, record); err != nil {
		l.log.Warn("activity_record_failed", map[string]any{
			"action":   entry.Action,
			"username": entry.Username,
			"error":    err.Error(),
		})
	}
}
