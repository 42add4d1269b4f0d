// Package stack wires the feed supply manager into the swipe decision engine
// and routes decision events to downstream consumers.
package stack

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Frankanator8/jobfinder/internal/feed"
	"github.com/Frankanator8/jobfinder/internal/model"
	"github.com/Frankanator8/jobfinder/internal/swipe"
	"github.com/Frankanator8/jobfinder/internal/telemetry"
)

// Submitter is the status-tracked processing queue boundary. It returns an
// opaque tracking handle; the controller does not await what happens after.
type Submitter interface {
	Submit(ctx context.Context, jobID, actorID string) (handle string, err error)
}

// Controller owns the session: the working queue's supply, the engine, the
// liked/passed lists, and the generation counter that discards stale fetches.
//
// Every fetch is tagged with the generation current when it started; by the
// time it resolves a newer criteria change may have superseded it, in which
// case its results are silently dropped — expected under rapid criteria
// changes, not an error.
type Controller struct {
	mu sync.Mutex

	feed      *feed.Manager
	engine    *swipe.Engine
	submitter Submitter
	actorID   string

	generation uint64
	criteria   model.Criteria
	liked      []model.Job
	passed     []model.Job
}

// New builds a Controller and its engine. The engine's decision events feed
// straight back into the controller.
func New(m *feed.Manager, opts swipe.Options, clock swipe.Clock, submitter Submitter, actorID string) *Controller {
	c := &Controller{
		feed:      m,
		submitter: submitter,
		actorID:   actorID,
	}
	c.engine = swipe.NewWithClock(opts, c.onDecision, clock)
	return c
}

// Engine exposes the decision engine for gesture and render access.
func (c *Controller) Engine() *swipe.Engine { return c.engine }

// Criteria returns the criteria of the current generation.
func (c *Controller) Criteria() model.Criteria {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.criteria
}

// Exhausted reports whether the supply has signalled end-of-collection.
func (c *Controller) Exhausted() bool { return c.feed.Exhausted() }

// ApplyCriteria starts a new generation: it loads the initial working set for
// the given criteria and, if no newer generation superseded the fetch while
// it ran, resets the engine onto the new queue — cancelling any in-flight
// animation.
func (c *Controller) ApplyCriteria(ctx context.Context, criteria model.Criteria) error {
	gen := c.beginGeneration(criteria)
	jobs, err := c.feed.LoadInitial(ctx, criteria)
	if err != nil {
		return err
	}
	c.resolveReset(gen, jobs)
	return nil
}

// Refresh reloads the current criteria bypassing the source's cache. Used
// after an out-of-band write (a manual scrape) completes, when a stale read
// would show a false empty state.
//
// The criteria are unchanged, so this is supply, not replacement: whatever
// the session has not seen yet is appended behind the working queue. Cards
// already dealt stay exactly where they are — a card leaves the queue only
// through a decision, or wholesale on a criteria change.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	gen := c.generation
	criteria := c.criteria
	c.mu.Unlock()

	jobs, err := c.feed.RequestRefresh(ctx, criteria)
	if err != nil {
		return err
	}
	c.resolveAppend(gen, jobs)
	return nil
}

// LoadMore fetches one continuation page and appends it behind the current
// working queue — never in front of a card mid-gesture. It returns how many
// cards were appended; zero with a nil error also covers the busy no-op and
// a stale-generation drop.
func (c *Controller) LoadMore(ctx context.Context) (int, error) {
	c.mu.Lock()
	gen := c.generation
	criteria := c.criteria
	c.mu.Unlock()

	jobs, err := c.feed.LoadMore(ctx, criteria, "")
	if err != nil {
		return 0, err
	}
	if !c.resolveAppend(gen, jobs) {
		return 0, nil
	}
	return len(jobs), nil
}

// Liked returns a copy of the accepted jobs, oldest first.
func (c *Controller) Liked() []model.Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Job(nil), c.liked...)
}

// Passed returns a copy of the rejected jobs, oldest first.
func (c *Controller) Passed() []model.Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Job(nil), c.passed...)
}

// ── Generation bookkeeping ─────────────────────────────────────────────────

func (c *Controller) beginGeneration(criteria model.Criteria) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.criteria = criteria
	return c.generation
}

// resolveReset commits an initial-load result unless it is stale.
func (c *Controller) resolveReset(gen uint64, jobs []model.Job) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		telemetry.StaleLoadsDropped.Inc()
		slog.Debug("dropping stale initial load", "generation", gen)
		return
	}
	c.mu.Unlock()
	c.engine.Reset(jobs)
}

// resolveAppend commits a continuation result unless it is stale. Reports
// whether the result was applied.
func (c *Controller) resolveAppend(gen uint64, jobs []model.Job) bool {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		telemetry.StaleLoadsDropped.Inc()
		slog.Debug("dropping stale load-more", "generation", gen)
		return false
	}
	c.mu.Unlock()
	c.engine.Append(jobs)
	return true
}

// ── Decision routing ───────────────────────────────────────────────────────

// onDecision runs once per card, after its commit animation completed.
// Accepted cards are appended to the liked list and submitted to the
// processing queue; submission failure is non-fatal — the decision itself is
// already recorded.
func (c *Controller) onDecision(job model.Job, d model.Decision) {
	c.mu.Lock()
	switch d.Outcome {
	case model.OutcomeAccepted:
		c.liked = append(c.liked, job)
	case model.OutcomeRejected:
		c.passed = append(c.passed, job)
	}
	c.mu.Unlock()

	telemetry.Decisions.WithLabelValues(string(d.Outcome)).Inc()

	if d.Outcome == model.OutcomeAccepted && c.submitter != nil {
		handle, err := c.submitter.Submit(context.Background(), job.ID, c.actorID)
		if err != nil {
			slog.Warn("application queue submit failed", "jobId", job.ID, "err", err)
			return
		}
		telemetry.Submissions.Inc()
		slog.Info("application submitted", "jobId", job.ID, "handle", handle)
	}
}
