package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// servedSet remembers which candidates a viewer has already been shown,
// so refreshing the feed doesn't deal the same cards again. It is
// best-effort by design: the hard exclusions (liked, blocked, self) come
// from the database on every call, so losing Redis can only ever
// re-show a profile the viewer passed on, never one that must stay
// hidden.
type servedSet struct {
	client *redis.Client
	ttl    time.Duration
}

func newServedSet(client *redis.Client, ttl time.Duration) *servedSet {
	return &servedSet{client: client, ttl: ttl}
}

func servedKey(viewerID int) string {
	return fmt.Sprintf("feed:served:%d", viewerID)
}

func (s *servedSet) Members(ctx context.Context, viewerID int) ([]int, error) {
	if s == nil || s.client == nil {
		return nil, nil
	}
	vals, err := s.client.SMembers(ctx, servedKey(viewerID)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(vals))
	for _, v := range vals {
		if id, err := strconv.Atoi(v); err == nil {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *servedSet) Add(ctx context.Context, viewerID int, ids []int) error {
	if s == nil || s.client == nil || len(ids) == 0 {
		return nil
	}
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	key := servedKey(viewerID)
	if err := s.client.SAdd(ctx, key, members...).Err(); err != nil {
		return err
	}
	return s.client.Expire(ctx, key, s.ttl).Err()
}

// feedService produces candidate batches for a viewer under the
// exclusion and filter constraints. Read-only against the profile
// universe.
type feedService struct {
	db        *sql.DB
	profiles  ProfileStore
	exclusion *exclusionIndex
	served    *servedSet
	cfg       FeedConfig
}

func newFeedService(db *sql.DB, profiles ProfileStore, exclusion *exclusionIndex, served *servedSet, cfg FeedConfig) *feedService {
	return &feedService{db: db, profiles: profiles, exclusion: exclusion, served: served, cfg: cfg}
}

// NextBatch returns up to batchSize candidate profiles for viewerID.
// An exhausted pool is an empty batch, not an error.
func (f *feedService) NextBatch(ctx context.Context, viewerID int, filter FilterConfig, batchSize int) ([]Profile, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if batchSize <= 0 {
		batchSize = f.cfg.DefaultBatchSize
	}
	if batchSize > f.cfg.MaxBatchSize {
		batchSize = f.cfg.MaxBatchSize
	}

	// The exclusion set must be fresh on every call.
	excluded, err := f.exclusion.Compute(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("compute exclusion index: %w", err)
	}

	served, err := f.served.Members(ctx, viewerID)
	if err != nil {
		logger.Warn("served set unavailable, feed may repeat passed candidates",
			zap.Int("viewer_id", viewerID), zap.Error(err))
	}

	excludeIDs := make([]int, 0, len(excluded)+len(served))
	for id := range excluded {
		excludeIDs = append(excludeIDs, id)
	}
	for _, id := range served {
		if _, dup := excluded[id]; !dup {
			excludeIDs = append(excludeIDs, id)
		}
	}

	batch, err := f.profiles.ListCandidates(ctx, filter, excludeIDs, batchSize)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	if len(batch) > 0 {
		servedNow := make([]int, len(batch))
		for i, p := range batch {
			servedNow[i] = p.UserID
		}
		if err := f.served.Add(ctx, viewerID, servedNow); err != nil {
			logger.Warn("failed to record served candidates",
				zap.Int("viewer_id", viewerID), zap.Error(err))
		}
	}
	return batch, nil
}

// GET /feed?limit=N&age_min=&age_max=&type=&tags=a,b
func feedHandler(svc *feedService) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		viewerID := r.Context().Value(userIDKey).(int)

		// Gate by profile completion
		onboarded, err := isOnboarded(r.Context(), svc.db, viewerID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if !onboarded {
			writeError(w, http.StatusForbidden, "incomplete_profile")
			return
		}

		filter := DefaultFilter()
		q := r.URL.Query()
		if v := q.Get("age_min"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.AgeMin = n
			}
		}
		if v := q.Get("age_max"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.AgeMax = n
			}
		}
		if v := q.Get("type"); v != "" {
			filter.ProfileType = v
		}
		if v := q.Get("tags"); v != "" {
			for _, tag := range strings.Split(v, ",") {
				if tag = strings.TrimSpace(tag); tag != "" {
					filter.Tags = append(filter.Tags, tag)
				}
			}
		}
		limit := 0
		if v := q.Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				limit = n
			}
		}

		batch, err := svc.NextBatch(r.Context(), viewerID, filter, limit)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if batch == nil {
			batch = []Profile{}
		}
		writeJSON(w, http.StatusOK, map[string][]Profile{"profiles": batch})
	})
}
