package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// SubmitLikeResult reports whether this call created the match. A false
// Created with a non-nil Match means the match already existed (or the
// concurrent twin of this call won the insert race).
type SubmitLikeResult struct {
	Created bool   `json:"created"`
	Match   *Match `json:"match,omitempty"`
}

// submitLike appends the directed edge source→target and resolves
// reciprocity. The whole check-then-insert runs in one transaction,
// serialized per unordered pair with an advisory lock: two simultaneous
// cross-likes would otherwise each run the reverse-edge check before
// the other's insert commits and neither would see the reciprocity.
// The match insert still absorbs a leftover duplicate via ON CONFLICT.
func submitLike(ctx context.Context, db *sql.DB, hub *Hub, sourceID, targetID int) (SubmitLikeResult, error) {
	if sourceID == targetID || sourceID <= 0 || targetID <= 0 {
		return SubmitLikeResult{}, ErrValidation
	}
	for _, id := range []int{sourceID, targetID} {
		onboarded, err := isOnboarded(ctx, db, id)
		if err != nil {
			return SubmitLikeResult{}, err
		}
		if !onboarded {
			return SubmitLikeResult{}, ErrNotFound
		}
	}

	userA, userB := canonicalPair(sourceID, targetID)

	var result SubmitLikeResult
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		// All mutations for one pair queue up here; held until commit.
		if _, err := tx.ExecContext(ctx, `
			SELECT pg_advisory_xact_lock($1, $2)
		`, userA, userB); err != nil {
			return fmt.Errorf("lock pair: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO likes (user_id, target_user_id)
			VALUES ($1, $2)
			ON CONFLICT (user_id, target_user_id) DO NOTHING
		`, sourceID, targetID); err != nil {
			return fmt.Errorf("insert like edge: %w", err)
		}

		// Resolve reciprocity on every call, duplicate edge or not, so a
		// re-like converges mutual edges that somehow lack their match.
		var one int
		err := tx.QueryRowContext(ctx, `
			SELECT 1 FROM likes
			WHERE user_id = $1 AND target_user_id = $2
			LIMIT 1
		`, targetID, sourceID).Scan(&one)
		if err == sql.ErrNoRows {
			// No reverse edge yet; nothing to resolve.
			result = SubmitLikeResult{}
			return nil
		}
		if err != nil {
			return fmt.Errorf("lookup reciprocal like: %w", err)
		}

		var m Match
		err = tx.QueryRowContext(ctx, `
			INSERT INTO matches (user_a_id, user_b_id)
			VALUES ($1, $2)
			ON CONFLICT (user_a_id, user_b_id) DO NOTHING
			RETURNING id, user_a_id, user_b_id, created_at
		`, userA, userB).Scan(&m.ID, &m.UserA, &m.UserB, &m.CreatedAt)
		if err == sql.ErrNoRows {
			// The match already exists; return it without claiming it.
			existing, err := getMatchByPair(ctx, tx, sourceID, targetID)
			if err != nil {
				return err
			}
			if existing == nil {
				return fmt.Errorf("match vanished after conflict: %w", ErrConflict)
			}
			result = SubmitLikeResult{Created: false, Match: existing}
			return nil
		}
		if err != nil {
			return fmt.Errorf("insert match: %w", err)
		}
		result = SubmitLikeResult{Created: true, Match: &m}
		return nil
	})
	if err != nil {
		return SubmitLikeResult{}, err
	}

	// Notify after commit only; a delivery failure never unwinds the
	// write.
	if result.Created && hub != nil {
		hub.Publish(matchCreatedEvent(*result.Match))
	}
	return result, nil
}

// unlike removes the directed edge only. An existing match stays.
func unlike(ctx context.Context, db *sql.DB, sourceID, targetID int) error {
	if sourceID == targetID || sourceID <= 0 || targetID <= 0 {
		return ErrValidation
	}
	_, err := db.ExecContext(ctx, `
		DELETE FROM likes WHERE user_id = $1 AND target_user_id = $2
	`, sourceID, targetID)
	return err
}

func isOnboarded(ctx context.Context, db *sql.DB, userID int) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM profiles
			WHERE user_id = $1 AND COALESCE(is_complete, FALSE) = TRUE
		)
	`, userID).Scan(&exists)
	return exists, err
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getMatchByPair(ctx context.Context, q rowQuerier, a, b int) (*Match, error) {
	userA, userB := canonicalPair(a, b)
	var m Match
	err := q.QueryRowContext(ctx, `
		SELECT id, user_a_id, user_b_id, created_at
		FROM matches
		WHERE user_a_id = $1 AND user_b_id = $2
	`, userA, userB).Scan(&m.ID, &m.UserA, &m.UserB, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// A dispatcher for POST/DELETE /likes/{id}
func likesRouter(db *sql.DB, hub *Hub, limiter *likeLimiter) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 2 || parts[0] != "likes" {
			http.NotFound(w, r)
			return
		}
		targetID, err := strconv.Atoi(parts[1])
		if err != nil {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		me := r.Context().Value(userIDKey).(int)

		switch r.Method {
		case http.MethodPost:
			ok, err := limiter.Allow(r.Context(), me)
			if err != nil {
				// A broken limiter shouldn't take likes down with it.
				logger.Warn("like limiter unavailable", zap.Error(err))
			} else if !ok {
				writeDomainError(w, ErrRateLimited)
				return
			}

			result, err := submitLike(r.Context(), db, hub, me, targetID)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, result)

		case http.MethodDelete:
			if err := unlike(r.Context(), db, me, targetID); err != nil {
				writeDomainError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		default:
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
		}
	})
}
