// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the jobfinder service.
type Config struct {
	Port                string
	DatabaseURL         string
	RedisURL            string
	BoardBaseURL        string
	BoardAPIKey         string
	IngestCategories    []string
	IngestIntervalHours int           // How often the cron ingest fires
	IngestMinInterval   time.Duration // Throttle between manual ingest triggers
	FeedPageSize        int
	FeedMaxPages        int
	FeedCacheTTL        time.Duration
	QueuePollInterval   time.Duration
	QueueCleanupDelay   time.Duration // How long terminal submissions stay queryable
}

// Load reads environment variables (after best-effort .env loading) and
// returns a validated Config.
func Load() (*Config, error) {
	// Missing .env is fine; real env vars win either way.
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	boardURL := os.Getenv("BOARD_BASE_URL")
	if boardURL == "" {
		boardURL = "https://remotive.com/api/remote-jobs"
	}

	interval, err := intEnv("INGEST_INTERVAL_HOURS", 6)
	if err != nil {
		return nil, err
	}
	pageSize, err := intEnv("FEED_PAGE_SIZE", 100)
	if err != nil {
		return nil, err
	}
	maxPages, err := intEnv("FEED_MAX_PAGES", 5)
	if err != nil {
		return nil, err
	}

	var categories []string
	if s := os.Getenv("INGEST_CATEGORIES"); s != "" {
		categories = splitCSV(s)
	}

	return &Config{
		Port:                port,
		DatabaseURL:         dbURL,
		RedisURL:            redisURL,
		BoardBaseURL:        boardURL,
		BoardAPIKey:         os.Getenv("BOARD_API_KEY"),
		IngestCategories:    categories,
		IngestIntervalHours: interval,
		IngestMinInterval:   5 * time.Second,
		FeedPageSize:        pageSize,
		FeedMaxPages:        maxPages,
		FeedCacheTTL:        30 * time.Second,
		QueuePollInterval:   2 * time.Second,
		QueueCleanupDelay:   time.Minute,
	}, nil
}

func intEnv(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, s)
	}
	return v, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
