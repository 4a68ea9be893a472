package main

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// Blocking and reporting both feed the exclusion index; a reported pair
// disappears from each other's feeds just like a blocked one.

var reportReasons = map[string]bool{
	"inappropriate_content": true,
	"harassment":            true,
	"fake_profile":          true,
	"spam":                  true,
	"underage":              true,
	"other":                 true,
}

// POST /blocks/{id}
func blocksRouter(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 2 || parts[0] != "blocks" {
			http.NotFound(w, r)
			return
		}
		targetID, err := strconv.Atoi(parts[1])
		if err != nil {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		me := r.Context().Value(userIDKey).(int)
		if targetID == me {
			writeError(w, http.StatusBadRequest, "invalid_target")
			return
		}

		exists, err := userExists(r, db, targetID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if !exists {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}

		// Idempotent: re-blocking is a no-op.
		_, err = db.ExecContext(r.Context(), `
			INSERT INTO blocks (user_id, target_user_id)
			VALUES ($1, $2)
			ON CONFLICT (user_id, target_user_id) DO NOTHING
		`, me, targetID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]bool{"blocked": true})
	})
}

// POST /reports
func reportsHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}

		var req struct {
			ReportedUserID int    `json:"reported_user_id"`
			Reason         string `json:"reason"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json")
			return
		}

		me := r.Context().Value(userIDKey).(int)
		reason := strings.ToLower(strings.TrimSpace(req.Reason))
		if req.ReportedUserID == me || !reportReasons[reason] {
			writeError(w, http.StatusBadRequest, "validation_error")
			return
		}

		exists, err := userExists(r, db, req.ReportedUserID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if !exists {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}

		_, err = db.ExecContext(r.Context(), `
			INSERT INTO reports (reporter_id, reported_user_id, reason)
			VALUES ($1, $2, $3)
		`, me, req.ReportedUserID, reason)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]bool{"reported": true})
	})
}

func userExists(r *http.Request, db *sql.DB, userID int) (bool, error) {
	var exists bool
	err := db.QueryRowContext(r.Context(), `
		SELECT EXISTS (SELECT 1 FROM profiles WHERE user_id = $1)
	`, userID).Scan(&exists)
	return exists, err
}
