package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// MatchItem is one entry of GET /matches: the match plus the other
// participant's profile.
type MatchItem struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	OtherUser *Profile  `json:"other_user,omitempty"`
}

func listMatches(ctx context.Context, db *sql.DB, userID int) ([]MatchItem, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, user_a_id, user_b_id, created_at
		FROM matches
		WHERE user_a_id = $1 OR user_b_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.UserA, &m.UserB, &m.CreatedAt); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	items := make([]MatchItem, 0, len(matches))
	loaders := loadersFromContext(ctx)
	for _, m := range matches {
		item := MatchItem{ID: m.ID, CreatedAt: m.CreatedAt}
		if loaders != nil {
			// Batched: all thunks resolve with a single query.
			if p, err := loaders.ProfileLoader.Load(ctx, m.OtherUser(userID))(); err == nil {
				item.OtherUser = p
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// GET /matches
func matchesHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		userID := r.Context().Value(userIDKey).(int)
		items, err := listMatches(r.Context(), db, userID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string][]MatchItem{"matches": items})
	})
}

// A dispatcher for /matches/{id}/messages
func matchesActionsRouter(db *sql.DB, hub *Hub) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 3 || parts[0] != "matches" || parts[2] != "messages" {
			http.NotFound(w, r)
			return
		}
		matchID, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		me := r.Context().Value(userIDKey).(int)

		switch r.Method {
		case http.MethodGet:
			msgs, err := listMessages(r.Context(), db, matchID, me)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string][]Message{"messages": msgs})

		case http.MethodPost:
			var req struct {
				Body     string `json:"body"`
				MediaRef string `json:"media_ref"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_json")
				return
			}
			msg, err := appendMessage(r.Context(), db, hub, matchID, me, req.Body, req.MediaRef)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, msg)

		default:
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
		}
	})
}
