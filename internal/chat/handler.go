package chat

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"

	"fivem-dashboard/internal/auth"
	"fivem-dashboard/internal/observability"
)

const (
	maxJSONBodyBytes = 1 << 20
	messageLimit     = 100
	maxMessageLength = 2000
	onlineWindow     = 5 * time.Minute
)

type Handler struct {
	store  Store
	logger *observability.Logger
}

func NewHandler(store Store, logger *observability.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.store.ListMessages(r.Context(), messageLimit)
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch messages")
		return
	}

	h.touchPresence(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"messages": messages,
		"count":    len(messages),
	})
}

type postMessageRequest struct {
	Message string `json:"message"`
}

// PostMessage stores a chat line. Sender identity comes from the session,
// never from the request body.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var body postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON input")
		return
	}

	body.Message = strings.TrimSpace(body.Message)
	if body.Message == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}
	if len(body.Message) > maxMessageLength {
		writeError(w, http.StatusBadRequest, "Message is too long")
		return
	}

	id, err := uuid.NewV7()
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "Failed to save message")
		return
	}

	message := &Message{
		ID:        id.String(),
		Username:  session.Username,
		Rank:      string(session.Rank),
		Message:   body.Message,
		Timestamp: time.Now().UTC(),
	}
	if err := h.store.InsertMessage(r.Context(), message); err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "Failed to save message")
		return
	}

	h.touchPresence(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Message saved successfully",
	})
}

func (h *Handler) OnlineUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.OnlineUsers(r.Context(), time.Now().UTC().Add(-onlineWindow))
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch online users")
		return
	}

	h.touchPresence(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"users":   users,
		"count":   len(users),
	})
}

// touchPresence refreshes the caller's last_seen; best-effort.
func (h *Handler) touchPresence(r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		return
	}

	if err := h.store.Touch(r.Context(), session.Username, nil); err != nil {
		h.logger.Warn("presence_touch_failed", map[string]any{
			"username": session.Username,
			"error":    err.Error(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}
