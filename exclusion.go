package main

import (
	"context"
	"database/sql"
	"fmt"
)

// The exclusion index is derived, never stored: the union of everyone the
// viewer has liked, everyone blocking or blocked by the viewer (reports
// included), and the viewer itself. It is recomputed on every feed read —
// staleness here would resurface a blocked or already-liked profile,
// which is a correctness bug, not a performance one.

// likeEdgeSource is the slice of the like ledger the index needs.
type likeEdgeSource interface {
	ListLikedTargets(ctx context.Context, userID int) ([]int, error)
}

type exclusionIndex struct {
	likes  likeEdgeSource
	blocks BlockStore
}

func newExclusionIndex(likes likeEdgeSource, blocks BlockStore) *exclusionIndex {
	return &exclusionIndex{likes: likes, blocks: blocks}
}

// Compute returns the fresh exclusion set for viewerID.
func (e *exclusionIndex) Compute(ctx context.Context, viewerID int) (map[int]struct{}, error) {
	excluded := map[int]struct{}{viewerID: {}}

	liked, err := e.likes.ListLikedTargets(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("list liked targets: %w", err)
	}
	for _, id := range liked {
		excluded[id] = struct{}{}
	}

	blocked, err := e.blocks.ListBlockedPairs(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("list blocked pairs: %w", err)
	}
	for _, id := range blocked {
		excluded[id] = struct{}{}
	}

	return excluded, nil
}

// pgLikeLedger is the postgres view of the directed like edges used by
// the exclusion index. Mutations to the ledger live in likes.go.
type pgLikeLedger struct {
	db *sql.DB
}

func newPGLikeLedger(db *sql.DB) *pgLikeLedger {
	return &pgLikeLedger{db: db}
}

func (l *pgLikeLedger) ListLikedTargets(ctx context.Context, userID int) ([]int, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT target_user_id FROM likes WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
