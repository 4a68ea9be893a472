package main

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

// Narrow interfaces to the external collaborators. The engine reads
// profiles and block/report pairs; it never writes profiles.

// ProfileStore is the read-only surface of the profile service.
type ProfileStore interface {
	// GetProfile returns ErrNotFound for unknown or un-onboarded users.
	GetProfile(ctx context.Context, userID int) (Profile, error)
	// ListCandidates returns onboarded profiles matching the filter,
	// excluding every ID in exclude, ordered stably by user ID.
	ListCandidates(ctx context.Context, filter FilterConfig, exclude []int, limit int) ([]Profile, error)
}

// BlockStore supplies the block/report pairs feeding the exclusion index.
type BlockStore interface {
	// ListBlockedPairs returns users blocked by or blocking userID,
	// including report relationships in either direction.
	ListBlockedPairs(ctx context.Context, userID int) ([]int, error)
}

type pgProfileStore struct {
	db *sql.DB
}

func newPGProfileStore(db *sql.DB) *pgProfileStore {
	return &pgProfileStore{db: db}
}

func (s *pgProfileStore) GetProfile(ctx context.Context, userID int) (Profile, error) {
	var p Profile
	var tags pq.StringArray
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, username, type, age, COALESCE(bio, ''), COALESCE(location, ''), COALESCE(tags, '{}')
		FROM profiles
		WHERE user_id = $1 AND is_complete = TRUE
	`, userID).Scan(&p.UserID, &p.Username, &p.Type, &p.Age, &p.Bio, &p.Location, &tags)
	if err == sql.ErrNoRows {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, err
	}
	p.Tags = tags
	return p, nil
}

func (s *pgProfileStore) ListCandidates(ctx context.Context, filter FilterConfig, exclude []int, limit int) ([]Profile, error) {
	q := sq.Select("user_id", "username", "type", "age", "COALESCE(bio, '')", "COALESCE(location, '')", "COALESCE(tags, '{}')").
		From("profiles").
		Where(sq.Eq{"is_complete": true}).
		PlaceholderFormat(sq.Dollar)

	if filter.AgeMin > 0 {
		q = q.Where(sq.GtOrEq{"age": filter.AgeMin})
	}
	if filter.AgeMax > 0 {
		q = q.Where(sq.LtOrEq{"age": filter.AgeMax})
	}
	if filter.ProfileType != "" && filter.ProfileType != ProfileTypeAll {
		q = q.Where(sq.Eq{"type": filter.ProfileType})
	}
	if len(filter.Tags) > 0 {
		q = q.Where(sq.Expr("tags && ?", pq.Array(filter.Tags)))
	}
	if len(exclude) > 0 {
		q = q.Where(sq.Expr("NOT (user_id = ANY(?))", pq.Array(exclude)))
	}

	// Stable for a given snapshot; ranking is somebody else's problem.
	q = q.OrderBy("user_id").Limit(uint64(limit))

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		var p Profile
		var tags pq.StringArray
		if err := rows.Scan(&p.UserID, &p.Username, &p.Type, &p.Age, &p.Bio, &p.Location, &tags); err != nil {
			return nil, err
		}
		p.Tags = tags
		out = append(out, p)
	}
	return out, rows.Err()
}

type pgBlockStore struct {
	db *sql.DB
}

func newPGBlockStore(db *sql.DB) *pgBlockStore {
	return &pgBlockStore{db: db}
}

func (s *pgBlockStore) ListBlockedPairs(ctx context.Context, userID int) ([]int, error) {
	// Blocks and reports both hide a pair from each other, in both
	// directions.
	rows, err := s.db.QueryContext(ctx, `
		SELECT target_user_id FROM blocks WHERE user_id = $1
		UNION
		SELECT user_id FROM blocks WHERE target_user_id = $1
		UNION
		SELECT reported_user_id FROM reports WHERE reporter_id = $1
		UNION
		SELECT reporter_id FROM reports WHERE reported_user_id = $1
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
