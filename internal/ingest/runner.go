package ingest

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Frankanator8/jobfinder/internal/model"
)

// Inserter writes one posting unless it already exists, reporting whether a
// row was written. *store.PostgresSource satisfies it.
type Inserter interface {
	InsertJob(ctx context.Context, j model.Job) (bool, error)
}

// Fetcher pulls postings for one category. *BoardFetcher satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, category string) ([]model.Job, error)
}

// ErrRateLimited is returned by Trigger when a manual run arrives inside
// the minimum interval since the previous run.
var ErrRateLimited = fmt.Errorf("ingest triggered too soon")

// Runner executes ingest cycles: fetch each configured category from the
// board and insert what isn't already stored. Manual triggers are throttled
// to minInterval; scheduled runs are not.
type Runner struct {
	fetcher    Fetcher
	inserter   Inserter
	categories []string

	mu          sync.Mutex
	minInterval time.Duration
	lastTrigger time.Time
	now         func() time.Time
}

// NewRunner constructs a Runner. An empty categories list fetches the
// board's unfiltered firehose.
func NewRunner(fetcher Fetcher, inserter Inserter, categories []string, minInterval time.Duration) *Runner {
	if len(categories) == 0 {
		categories = []string{""}
	}
	return &Runner{
		fetcher:     fetcher,
		inserter:    inserter,
		categories:  categories,
		minInterval: minInterval,
		now:         time.Now,
	}
}

// SetNow overrides the clock for tests.
func (r *Runner) SetNow(now func() time.Time) { r.now = now }

// Run executes one full ingest cycle across all categories. Per-category
// errors are logged and skipped so one bad category doesn't starve the rest.
func (r *Runner) Run(ctx context.Context) error {
	var totalInserted, totalDuplicate int

	for _, category := range r.categories {
		inserted, dupes, err := r.runCategory(ctx, category)
		if err != nil {
			log.Printf("[ingest] Error fetching category %q: %v — continuing", category, err)
			continue
		}
		totalInserted += inserted
		totalDuplicate += dupes
	}

	log.Printf("[ingest] Cycle done — inserted=%d duplicates=%d", totalInserted, totalDuplicate)
	return nil
}

// Trigger runs one cycle on demand, rejecting calls that arrive within
// minInterval of the previous trigger or scheduled run.
func (r *Runner) Trigger(ctx context.Context) error {
	r.mu.Lock()
	now := r.now()
	if !r.lastTrigger.IsZero() && now.Sub(r.lastTrigger) < r.minInterval {
		r.mu.Unlock()
		return ErrRateLimited
	}
	r.lastTrigger = now
	r.mu.Unlock()

	return r.Run(ctx)
}

func (r *Runner) runCategory(ctx context.Context, category string) (inserted, dupes int, err error) {
	jobs, err := r.fetcher.Fetch(ctx, category)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch: %w", err)
	}

	for _, job := range jobs {
		if job.URL == "" {
			job.URL = fmt.Sprintf("board:%s", job.ID)
		}
		written, err := r.inserter.InsertJob(ctx, job)
		if err != nil {
			log.Printf("[ingest] Insert error for %s: %v", job.URL, err)
			continue
		}
		if written {
			inserted++
		} else {
			dupes++
		}
	}

	return inserted, dupes, nil
}
