package fivem

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/getsentry/sentry-go"

	"fivem-dashboard/internal/observability"
)

// Handler serves the read-only game-server reporting endpoints. All routes
// sit behind the session guard; nothing here writes to the game database.
type Handler struct {
	store  GameStore
	tracky *TrackyClient
	logger *observability.Logger
}

func NewHandler(store GameStore, tracky *TrackyClient, logger *observability.Logger) *Handler {
	return &Handler{store: store, tracky: tracky, logger: logger}
}

func (h *Handler) Players(w http.ResponseWriter, r *http.Request) {
	limit := defaultPlayerLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	players, err := h.store.Players(r.Context(), limit)
	if err != nil {
		sentry.CaptureException(err)
		h.logger.Error("fivem_players_failed", map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Failed to fetch players")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"players": players,
		"total":   len(players),
	})
}

func (h *Handler) Vehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.store.Vehicles(r.Context())
	if err != nil {
		sentry.CaptureException(err)
		h.logger.Error("fivem_vehicles_failed", map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Failed to fetch vehicles")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"vehicles": vehicles,
		"total":    len(vehicles),
	})
}

func (h *Handler) HallOfFame(w http.ResponseWriter, r *http.Request) {
	fame, err := h.store.HallOfFame(r.Context())
	if err != nil {
		sentry.CaptureException(err)
		h.logger.Error("fivem_hall_of_fame_failed", map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Failed to fetch hall of fame")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"hall_of_fame": fame,
	})
}

// Status merges database counters with the live TrackyServer snapshot. The
// tracking API being down is not an error; the response carries a
// tracky_available flag and falls back to database numbers alone.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		sentry.CaptureException(err)
		h.logger.Error("fivem_stats_failed", map[string]any{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "Failed to fetch server stats")
		return
	}

	server := map[string]any{
		"totalUsers":    stats.TotalUsers,
		"activeUsers":   stats.ActiveUsers,
		"totalVehicles": stats.TotalVehicles,
	}

	trackyAvailable := false
	if h.tracky.Configured() {
		status, err := h.tracky.Status(r.Context())
		if err != nil {
			h.logger.Warn("tracky_unavailable", map[string]any{"error": err.Error()})
		} else {
			trackyAvailable = true
			server["online"] = status.Online
			server["players"] = status.Players
			server["maxPlayers"] = status.MaxPlayers
			server["uptime"] = status.Uptime
			server["version"] = status.Version
			server["map"] = status.Map
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"server":           server,
		"tracky_available": trackyAvailable,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}
