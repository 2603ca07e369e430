package maintenance

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// SessionCleaner deletes sessions whose expiry is in the past.
type SessionCleaner interface {
	DeleteExpired(ctx context.Context, now time.Time, batchSize int) (int64, error)
}

// ActivityCleaner trims activity log rows older than the retention cutoff.
type ActivityCleaner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time, batchSize int) (int64, error)
}

// PresenceCleaner drops online_users rows that stopped heartbeating.
type PresenceCleaner interface {
	DeleteStalePresence(ctx context.Context, cutoff time.Time) (int64, error)
}

type logger interface {
	Info(message string, fields map[string]any)
	Error(message string, fields map[string]any)
}

type CleanupResult struct {
	DeletedSessions int64 `json:"deleted_sessions"`
	DeletedUserLogs int64 `json:"deleted_user_logs"`
	DeletedPresence int64 `json:"deleted_presence"`
}

// stalePresenceAfter is how long a heartbeat may be missing before the
// presence row is garbage collected. The online list itself uses a much
// shorter window; this only bounds table growth.
const stalePresenceAfter = time.Hour

type CleanupHandler struct {
	sessions         SessionCleaner
	activity         ActivityCleaner
	presence         PresenceCleaner
	logger           logger
	cronSecret       string
	sessionRetention time.Duration
	logRetention     time.Duration
	batchSize        int
}

func NewCleanupHandler(
	sessions SessionCleaner,
	activity ActivityCleaner,
	presence PresenceCleaner,
	log logger,
	cronSecret string,
	sessionRetention time.Duration,
	logRetention time.Duration,
	batchSize int,
) *CleanupHandler {
	return &CleanupHandler{
		sessions:         sessions,
		activity:         activity,
		presence:         presence,
		logger:           log,
		cronSecret:       strings.TrimSpace(cronSecret),
		sessionRetention: sessionRetention,
		logRetention:     logRetention,
		batchSize:        batchSize,
	}
}

func (h *CleanupHandler) Handle(w http.ResponseWriter, r *http.Request) {
	// Without a configured secret the endpoint does not exist.
	if h.cronSecret == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) != h.cronSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	now := time.Now().UTC()
	result := CleanupResult{}

	// Expired sessions stay around for the retention window so recent
	// logouts remain inspectable, then get purged.
	deleted, err := h.sessions.DeleteExpired(r.Context(), now.Add(-h.sessionRetention), h.batchSize)
	if err != nil {
		h.logger.Error("session_cleanup_failed", map[string]any{"error": err.Error()})
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "cleanup failed"})
		return
	}
	result.DeletedSessions = deleted

	deleted, err = h.activity.DeleteOlderThan(r.Context(), now.Add(-h.logRetention), h.batchSize)
	if err != nil {
		h.logger.Error("user_log_cleanup_failed", map[string]any{"error": err.Error()})
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "cleanup failed"})
		return
	}
	result.DeletedUserLogs = deleted

	deleted, err = h.presence.DeleteStalePresence(r.Context(), now.Add(-stalePresenceAfter))
	if err != nil {
		h.logger.Error("presence_cleanup_failed", map[string]any{"error": err.Error()})
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "cleanup failed"})
		return
	}
	result.DeletedPresence = deleted

	h.logger.Info("dashboard_cleanup_completed", map[string]any{
		"deleted_sessions":  result.DeletedSessions,
		"deleted_user_logs": result.DeletedUserLogs,
		"deleted_presence":  result.DeletedPresence,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"result": result,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
