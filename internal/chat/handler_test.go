package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fivem-dashboard/internal/auth"
	"fivem-dashboard/internal/observability"
)

type fakeChatStore struct {
	messages []Message
	presence map[string]time.Time
}

func newFakeChatStore() *fakeChatStore {
	return &fakeChatStore{presence: make(map[string]time.Time)}
}

func (f *fakeChatStore) ListMessages(_ context.Context, limit int) ([]Message, error) {
	if limit < len(f.messages) {
		return f.messages[:limit], nil
	}
	return f.messages, nil
}

func (f *fakeChatStore) InsertMessage(_ context.Context, message *Message) error {
	f.messages = append(f.messages, *message)
	return nil
}

func (f *fakeChatStore) OnlineUsers(_ context.Context, since time.Time) ([]OnlineUser, error) {
	users := make([]OnlineUser, 0)
	for username, lastSeen := range f.presence {
		if lastSeen.After(since) {
			users = append(users, OnlineUser{Username: username, LastSeen: lastSeen})
		}
	}
	return users, nil
}

func (f *fakeChatStore) Touch(_ context.Context, username string, _ *string) error {
	f.presence[username] = time.Now().UTC()
	return nil
}

func (f *fakeChatStore) Remove(_ context.Context, username string) error {
	delete(f.presence, username)
	return nil
}

func (f *fakeChatStore) DeleteStalePresence(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func sessionRequest(method, path, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	session := &auth.Session{
		ID:        "sess-1",
		AccountID: "acc-1",
		Username:  "admin",
		Rank:      auth.RankAdmin,
		Name:      "Admin",
	}
	return req.WithContext(auth.ContextWithSession(req.Context(), session))
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

func TestPostMessageUsesSessionIdentity(t *testing.T) {
	store := newFakeChatStore()
	handler := NewHandler(store, observability.NewLogger())

	// The username in the body is ignored; identity comes from the session.
	req := sessionRequest(http.MethodPost, "/chat/messages", `{"message":"hello","username":"impostor"}`)
	recorder := httptest.NewRecorder()
	handler.PostMessage(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Len(t, store.messages, 1)
	assert.Equal(t, "admin", store.messages[0].Username)
	assert.Equal(t, "Admin", store.messages[0].Rank)
	assert.Equal(t, "hello", store.messages[0].Message)

	// Posting refreshes presence.
	assert.Contains(t, store.presence, "admin")
}

func TestPostMessageValidation(t *testing.T) {
	handler := NewHandler(newFakeChatStore(), observability.NewLogger())

	tests := []struct {
		name string
		body string
	}{
		{"empty message", `{"message":""}`},
		{"whitespace only", `{"message":"   "}`},
		{"bad json", `{"message":`},
		{"too long", `{"message":"` + strings.Repeat("a", maxMessageLength+1) + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			handler.PostMessage(recorder, sessionRequest(http.MethodPost, "/chat/messages", tt.body))
			assert.Equal(t, http.StatusBadRequest, recorder.Code)
		})
	}
}

func TestPostMessageWithoutSession(t *testing.T) {
	handler := NewHandler(newFakeChatStore(), observability.NewLogger())

	req := httptest.NewRequest(http.MethodPost, "/chat/messages", strings.NewReader(`{"message":"hello"}`))
	recorder := httptest.NewRecorder()
	handler.PostMessage(recorder, req)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestListMessages(t *testing.T) {
	store := newFakeChatStore()
	store.messages = []Message{
		{Username: "admin", Rank: "Admin", Message: "first", Timestamp: time.Now().UTC()},
		{Username: "mod", Rank: "Moderator", Message: "second", Timestamp: time.Now().UTC()},
	}
	handler := NewHandler(store, observability.NewLogger())

	recorder := httptest.NewRecorder()
	handler.ListMessages(recorder, sessionRequest(http.MethodGet, "/chat/messages", ""))

	require.Equal(t, http.StatusOK, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, float64(2), body["count"])

	messages := body["messages"].([]any)
	first := messages[0].(map[string]any)
	assert.Equal(t, "admin", first["username"])
	// Row ids stay internal.
	assert.NotContains(t, first, "id")
}

func TestOnlineUsersWindow(t *testing.T) {
	store := newFakeChatStore()
	store.presence["fresh"] = time.Now().UTC()
	store.presence["stale"] = time.Now().UTC().Add(-10 * time.Minute)
	handler := NewHandler(store, observability.NewLogger())

	recorder := httptest.NewRecorder()
	handler.OnlineUsers(recorder, sessionRequest(http.MethodGet, "/chat/online", ""))

	require.Equal(t, http.StatusOK, recorder.Code)
	body := decodeBody(t, recorder)

	usernames := make([]string, 0)
	for _, raw := range body["users"].([]any) {
		usernames = append(usernames, raw.(map[string]any)["username"].(string))
	}
	assert.Contains(t, usernames, "fresh")
	assert.NotContains(t, usernames, "stale")
	// The caller's own heartbeat was refreshed by the request.
	assert.Contains(t, store.presence, "admin")
}
