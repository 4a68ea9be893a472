package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// appendMessage persists one message in a match's log and fans it out to
// both participants' live sessions. Messages are permanent: there is no
// edit or delete.
func appendMessage(ctx context.Context, db *sql.DB, hub *Hub, matchID int64, senderID int, body, mediaRef string) (Message, error) {
	body = strings.TrimSpace(body)
	if body == "" && mediaRef == "" {
		return Message{}, ErrValidation
	}

	match, err := getMatchByID(ctx, db, matchID)
	if err != nil {
		return Message{}, err
	}
	if match == nil {
		return Message{}, ErrNotFound
	}
	if !match.HasParticipant(senderID) {
		return Message{}, ErrAuthorization
	}

	msg := Message{MatchID: matchID, SenderID: senderID, Body: body, MediaRef: mediaRef}
	err = db.QueryRowContext(ctx, `
		INSERT INTO messages (match_id, sender_id, body, media_ref)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''))
		RETURNING id, created_at
	`, matchID, senderID, body, mediaRef).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return Message{}, fmt.Errorf("insert message: %w", err)
	}

	// The message is durable at this point; delivery is best-effort and
	// must never fail the write.
	if hub != nil {
		hub.Publish(messageAppendedEvent(*match, msg))
	}
	return msg, nil
}

// listMessages returns the match's full log in append order: created_at
// ascending, message ID breaking ties.
func listMessages(ctx context.Context, db *sql.DB, matchID int64, requesterID int) ([]Message, error) {
	match, err := getMatchByID(ctx, db, matchID)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, ErrNotFound
	}
	if !match.HasParticipant(requesterID) {
		return nil, ErrAuthorization
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, match_id, sender_id, COALESCE(body, ''), COALESCE(media_ref, ''), created_at
		FROM messages
		WHERE match_id = $1
		ORDER BY created_at ASC, id ASC
	`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := make([]Message, 0)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.MatchID, &m.SenderID, &m.Body, &m.MediaRef, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func getMatchByID(ctx context.Context, db *sql.DB, matchID int64) (*Match, error) {
	var m Match
	err := db.QueryRowContext(ctx, `
		SELECT id, user_a_id, user_b_id, created_at
		FROM matches
		WHERE id = $1
	`, matchID).Scan(&m.ID, &m.UserA, &m.UserB, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
