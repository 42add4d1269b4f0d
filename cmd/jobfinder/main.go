// jobfinder — swipe-to-apply job feed service.
//
// Exposes a REST API used by the mobile/web clients to implement:
//   - the card-stack gesture loop (drag, commit, snap back)
//   - feed supply: criteria changes, refresh, infinite LoadMore
//   - liked/passed decision history
//   - application submission with status tracking
//
// A cron-driven ingest pulls the upstream board into Postgres; a worker
// drains the Redis-backed submission queue.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Frankanator8/jobfinder/internal/api"
	"github.com/Frankanator8/jobfinder/internal/appqueue"
	"github.com/Frankanator8/jobfinder/internal/config"
	"github.com/Frankanator8/jobfinder/internal/db"
	"github.com/Frankanator8/jobfinder/internal/feed"
	"github.com/Frankanator8/jobfinder/internal/ingest"
	"github.com/Frankanator8/jobfinder/internal/stack"
	"github.com/Frankanator8/jobfinder/internal/store"
	"github.com/Frankanator8/jobfinder/internal/swipe"
	"github.com/Frankanator8/jobfinder/internal/telemetry"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[jobfinder] Config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	log.Println("[jobfinder] Connecting to PostgreSQL…")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[jobfinder] PostgreSQL: %v", err)
	}
	defer pool.Close()
	if err := store.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("[jobfinder] Schema: %v", err)
	}
	log.Println("[jobfinder] PostgreSQL connected ✓")

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Println("[jobfinder] Connecting to Redis…")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("[jobfinder] Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("[jobfinder] Redis connected ✓")

	// ── Feed and stack ───────────────────────────────────────────────────────
	source := store.NewPostgresSource(pool)
	cached := store.NewCachedSource(source, rdb, cfg.FeedCacheTTL)
	manager := feed.NewManager(cached, cfg.FeedPageSize, cfg.FeedMaxPages)

	queue := appqueue.NewQueue(rdb, cfg.QueueCleanupDelay)
	actorID := os.Getenv("ACTOR_ID")
	if actorID == "" {
		actorID = "local-user"
	}
	ctrl := stack.New(manager, swipe.DefaultOptions(), swipe.SystemClock(), queue, actorID)

	// ── Submission worker ────────────────────────────────────────────────────
	go queue.RunWorker(ctx, cfg.QueuePollInterval, func(ctx context.Context, rec appqueue.Record) error {
		// Submission to the upstream board is simulated until it exposes a
		// write API; the record still runs the full status lifecycle.
		log.Printf("[jobfinder] Processing application %s (job %s)", rec.Handle, rec.JobID)
		return nil
	})

	// ── Ingest ───────────────────────────────────────────────────────────────
	fetcher := ingest.NewBoardFetcher(cfg.BoardBaseURL, cfg.BoardAPIKey)
	runner := ingest.NewRunner(fetcher, source, cfg.IngestCategories, cfg.IngestMinInterval)
	scheduler := ingest.NewScheduler(runner, cfg.IngestIntervalHours)
	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("[jobfinder] Scheduler: %v", err)
	}
	defer scheduler.Stop()

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/metrics", telemetry.Handler())

	h := api.NewHandler(ctrl, queue, runner)
	h.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[jobfinder] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[jobfinder] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[jobfinder] Shutting down…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[jobfinder] Shutdown error: %v", err)
	}
	log.Println("[jobfinder] Stopped.")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "jobfinder",
		"version": version,
	})
}
