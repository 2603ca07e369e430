package fivem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fivem-dashboard/internal/observability"
)

type fakeGameStore struct {
	players  []Player
	vehicles []Vehicle
	fame     *HallOfFame
	stats    *Stats
	err      error
}

func (f *fakeGameStore) Players(_ context.Context, limit int) ([]Player, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.players) {
		return f.players[:limit], nil
	}
	return f.players, nil
}

func (f *fakeGameStore) Vehicles(context.Context) ([]Vehicle, error) {
	return f.vehicles, f.err
}

func (f *fakeGameStore) HallOfFame(context.Context) (*HallOfFame, error) {
	return f.fame, f.err
}

func (f *fakeGameStore) Stats(context.Context) (*Stats, error) {
	return f.stats, f.err
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

func TestPlayersHandler(t *testing.T) {
	store := &fakeGameStore{players: []Player{
		{Identifier: "steam:1", Firstname: "John", Lastname: "Doe", Money: 100},
		{Identifier: "steam:2", Firstname: "Jane", Lastname: "Roe", Money: 200},
	}}
	handler := NewHandler(store, NewTrackyClient("", ""), observability.NewLogger())

	req := httptest.NewRequest(http.MethodGet, "/fivem/players", nil)
	recorder := httptest.NewRecorder()
	handler.Players(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(2), body["total"])
}

func TestPlayersHandlerLimit(t *testing.T) {
	store := &fakeGameStore{players: []Player{{Identifier: "steam:1"}, {Identifier: "steam:2"}}}
	handler := NewHandler(store, NewTrackyClient("", ""), observability.NewLogger())

	req := httptest.NewRequest(http.MethodGet, "/fivem/players?limit=1", nil)
	recorder := httptest.NewRecorder()
	handler.Players(recorder, req)
	assert.Equal(t, float64(1), decodeBody(t, recorder)["total"])

	req = httptest.NewRequest(http.MethodGet, "/fivem/players?limit=zero", nil)
	recorder = httptest.NewRecorder()
	handler.Players(recorder, req)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestPlayersHandlerStoreFailure(t *testing.T) {
	store := &fakeGameStore{err: errors.New("connection refused")}
	handler := NewHandler(store, NewTrackyClient("", ""), observability.NewLogger())

	req := httptest.NewRequest(http.MethodGet, "/fivem/players", nil)
	recorder := httptest.NewRecorder()
	handler.Players(recorder, req)

	require.Equal(t, http.StatusInternalServerError, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, false, body["success"])
	// Internal detail never leaks.
	assert.NotContains(t, recorder.Body.String(), "connection refused")
}

func TestStatusHandlerWithoutTracky(t *testing.T) {
	store := &fakeGameStore{stats: &Stats{TotalUsers: 120, ActiveUsers: 14, TotalVehicles: 300}}
	handler := NewHandler(store, NewTrackyClient("", ""), observability.NewLogger())

	req := httptest.NewRequest(http.MethodGet, "/fivem/status", nil)
	recorder := httptest.NewRecorder()
	handler.Status(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, false, body["tracky_available"])

	server := body["server"].(map[string]any)
	assert.Equal(t, float64(120), server["totalUsers"])
	assert.Equal(t, float64(14), server["activeUsers"])
	assert.NotContains(t, server, "players")
}

func TestStatusHandlerMergesTracky(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		fmt.Fprint(w, `{"online":true,"players":32,"maxPlayers":64,"uptime":"14h","version":"1.58","map":"Los Santos"}`)
	}))
	defer upstream.Close()

	tracky := NewTrackyClient("12345", "secret")
	tracky.baseURL = upstream.URL

	store := &fakeGameStore{stats: &Stats{TotalUsers: 120}}
	handler := NewHandler(store, tracky, observability.NewLogger())

	req := httptest.NewRequest(http.MethodGet, "/fivem/status", nil)
	recorder := httptest.NewRecorder()
	handler.Status(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, true, body["tracky_available"])

	server := body["server"].(map[string]any)
	assert.Equal(t, true, server["online"])
	assert.Equal(t, float64(32), server["players"])
	assert.Equal(t, float64(120), server["totalUsers"])
}

func TestStatusHandlerTrackyDownFallsBack(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer upstream.Close()

	tracky := NewTrackyClient("12345", "secret")
	tracky.baseURL = upstream.URL

	store := &fakeGameStore{stats: &Stats{TotalUsers: 120}}
	handler := NewHandler(store, tracky, observability.NewLogger())

	req := httptest.NewRequest(http.MethodGet, "/fivem/status", nil)
	recorder := httptest.NewRecorder()
	handler.Status(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Equal(t, false, body["tracky_available"])
	server := body["server"].(map[string]any)
	assert.Equal(t, float64(120), server["totalUsers"])
}

func TestHallOfFameHandler(t *testing.T) {
	store := &fakeGameStore{fame: &HallOfFame{
		Richest: []RichPlayer{{Identifier: "steam:1", Firstname: "John", TotalMoney: 900000}},
	}}
	handler := NewHandler(store, NewTrackyClient("", ""), observability.NewLogger())

	req := httptest.NewRequest(http.MethodGet, "/fivem/hall-of-fame", nil)
	recorder := httptest.NewRecorder()
	handler.HallOfFame(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	fame := decodeBody(t, recorder)["hall_of_fame"].(map[string]any)
	richest := fame["richest"].([]any)
	require.Len(t, richest, 1)
	assert.Equal(t, float64(900000), richest[0].(map[string]any)["total_money"])
}
