package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/lib/pq"
)

// DataLoaderContextKey is the key used to store dataloaders in context
type DataLoaderContextKey string

const dataLoaderKey DataLoaderContextKey = "dataloader"

// DataLoaders batches per-request profile lookups so hydrating a match
// list or a feed batch costs one query instead of N.
type DataLoaders struct {
	ProfileLoader *dataloader.Loader[int, *Profile]
}

func NewDataLoaders(db *sql.DB) *DataLoaders {
	return &DataLoaders{
		ProfileLoader: dataloader.NewBatchedLoader(profileBatchFn(db), dataloader.WithWait[int, *Profile](16*time.Millisecond)),
	}
}

func loadersFromContext(ctx context.Context) *DataLoaders {
	if dl, ok := ctx.Value(dataLoaderKey).(*DataLoaders); ok {
		return dl
	}
	return nil
}

// dataLoaderMiddleware attaches fresh per-request loaders.
func dataLoaderMiddleware(db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), dataLoaderKey, NewDataLoaders(db))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func profileBatchFn(db *sql.DB) dataloader.BatchFunc[int, *Profile] {
	return func(ctx context.Context, keys []int) []*dataloader.Result[*Profile] {
		results := make([]*dataloader.Result[*Profile], len(keys))
		keyMap := make(map[int]int, len(keys)) // userID -> index in results
		for i, key := range keys {
			keyMap[key] = i
			results[i] = &dataloader.Result[*Profile]{}
		}
		if len(keys) == 0 {
			return results
		}

		rows, err := db.QueryContext(ctx, `
			SELECT user_id, username, type, age, COALESCE(bio, ''), COALESCE(location, ''), COALESCE(tags, '{}')
			FROM profiles
			WHERE user_id = ANY($1)
		`, pq.Array(keys))
		if err != nil {
			for i := range results {
				results[i].Error = err
			}
			return results
		}
		defer rows.Close()

		for rows.Next() {
			var p Profile
			var tags pq.StringArray
			if err := rows.Scan(&p.UserID, &p.Username, &p.Type, &p.Age, &p.Bio, &p.Location, &tags); err != nil {
				for i := range results {
					if results[i].Data == nil && results[i].Error == nil {
						results[i].Error = err
					}
				}
				return results
			}
			p.Tags = tags
			if idx, ok := keyMap[p.UserID]; ok {
				results[idx].Data = &p
			}
		}

		// Unknown IDs stay nil rather than erroring the whole batch.
		return results
	}
}
