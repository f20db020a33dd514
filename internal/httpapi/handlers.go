package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/wordbattle-backend/internal/hub"
	"github.com/DoyleJ11/wordbattle-backend/internal/store"
	"github.com/DoyleJ11/wordbattle-backend/pkg/protocol"
)

// Records is the read side of persistence the HTTP API needs.
type Records interface {
	Battle(ctx context.Context, id string) (store.BattleRecord, error)
	User(ctx context.Context, id string) (store.User, error)
	Ping(ctx context.Context) error
}

type UserStats struct {
	UserID        string  `json:"user_id"`
	Username      string  `json:"username"`
	Battles       int     `json:"battles"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	Draws         int     `json:"draws"`
	CurrentStreak int     `json:"current_streak"`
	LongestStreak int     `json:"longest_streak"`
	WinRate       float64 `json:"win_rate"`
	Coins         int64   `json:"coins"`
	XP            int64   `json:"xp"`
	Score         int64   `json:"score"`
}

type liveBattle struct {
	Live     bool                     `json:"live"`
	Snapshot *protocol.BattleSnapshot `json:"snapshot,omitempty"`
	Record   *store.BattleRecord      `json:"record,omitempty"`
}

func Healthz(records Records) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := records.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// GetBattle serves the live view of a running battle, or the stored record
// of a finished one.
func GetBattle(h *hub.Hub, records Records, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		snap, err := h.Snapshot(ctx, id)
		if err == nil {
			writeJSON(w, http.StatusOK, liveBattle{Live: true, Snapshot: &snap})
			return
		}
		if !errors.Is(err, hub.ErrSessionNotFound) {
			log.Error("live battle lookup", zap.String("battle_id", id), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		rec, err := records.Battle(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "battle not found", http.StatusNotFound)
			return
		}
		if err != nil {
			log.Error("battle lookup", zap.String("battle_id", id), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, liveBattle{Record: &rec})
	}
}

func GetUserStats(records Records, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		u, err := records.User(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		if err != nil {
			log.Error("user lookup", zap.String("user_id", id), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, UserStats{
			UserID:        u.ID,
			Username:      u.Username,
			Battles:       u.Battles,
			Wins:          u.Wins,
			Losses:        u.Losses,
			Draws:         u.Draws,
			CurrentStreak: u.CurrentStreak,
			LongestStreak: u.LongestStreak,
			WinRate:       u.WinRate,
			Coins:         u.Coins,
			XP:            u.XP,
			Score:         u.Score,
		})
	}
}

func GetHubStats(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := h.Stats(r.Context())
		if err != nil {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
