package main

import (
	"log"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatal("Error loading configuration:", err)
	}

	logger, err = newLogger(cfg.Log.Level)
	if err != nil {
		log.Fatal("Error building logger:", err)
	}
	defer logger.Sync()

	jwtSecret = []byte(cfg.Auth.JWTSecret)

	db, err := openDB(cfg.Database.URL)
	if err != nil {
		logger.Fatal("cannot reach the database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("database connection established")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	hub := newHub()
	profiles := newPGProfileStore(db)
	blocks := newPGBlockStore(db)
	likes := newPGLikeLedger(db)
	exclusion := newExclusionIndex(likes, blocks)
	served := newServedSet(rdb, cfg.Feed.ServedTTL)
	feed := newFeedService(db, profiles, exclusion, served, cfg.Feed)
	limiter := newLikeLimiter(rdb, cfg.Likes.RateWindow, cfg.Likes.RateMax)

	mux := http.NewServeMux()

	// Candidate feed
	mux.Handle("/feed", feedHandler(feed))

	// Likes & match resolution
	mux.Handle("/likes/", likesRouter(db, hub, limiter)) // POST/DELETE /likes/{id}

	// Matches & per-match message log
	mux.Handle("/matches", matchesHandler(db))
	mux.Handle("/matches/", matchesActionsRouter(db, hub)) // GET/POST /matches/{id}/messages

	// Moderation feeding the exclusion index
	mux.Handle("/blocks/", blocksRouter(db)) // POST /blocks/{id}
	mux.Handle("/reports", reportsHandler(db))

	// Realtime event stream
	mux.Handle("/ws/events", wsEventsHandler(hub))

	// Health check endpoint for Docker
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	handler := withCORS(dataLoaderMiddleware(db)(mux))

	logger.Info("starting matching engine", zap.String("addr", cfg.HTTP.Addr))
	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
