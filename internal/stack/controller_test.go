package stack_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Frankanator8/jobfinder/internal/feed"
	"github.com/Frankanator8/jobfinder/internal/model"
	"github.com/Frankanator8/jobfinder/internal/stack"
	"github.com/Frankanator8/jobfinder/internal/swipe"
)

// ── Test doubles ───────────────────────────────────────────────────────────

// keyedSource serves pages keyed by "category|cursor" and can block a chosen
// cursor to simulate a slow in-flight fetch.
type keyedSource struct {
	mu      sync.Mutex
	pages   map[string]feed.Page
	gateOn  string
	gate    chan struct{}
	entered chan struct{}
}

func (s *keyedSource) FetchPage(ctx context.Context, q feed.PageQuery) (feed.Page, error) {
	if q.Cursor == s.gateOn && s.gate != nil {
		s.entered <- struct{}{}
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages[q.Category+"|"+q.Cursor], nil
}

type fakeSubmitter struct {
	mu     sync.Mutex
	jobIDs []string
	actor  string
	err    error
}

func (f *fakeSubmitter) Submit(ctx context.Context, jobID, actorID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.jobIDs = append(f.jobIDs, jobID)
	f.actor = actorID
	return "handle-" + jobID, nil
}

func (f *fakeSubmitter) submitted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.jobIDs...)
}

// manualClock mirrors the swipe package's test clock.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) swipe.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	c.mu.Unlock()
	for _, t := range due {
		t.f()
	}
}

func jobPage(ids ...string) feed.Page {
	p := feed.Page{}
	for _, id := range ids {
		p.Jobs = append(p.Jobs, model.Job{ID: id})
	}
	return p
}

// ── Wiring ─────────────────────────────────────────────────────────────────

func TestApplyCriteria_PopulatesEngine(t *testing.T) {
	src := &keyedSource{pages: map[string]feed.Page{
		"|": jobPage("a", "b", "c"),
	}}
	c := stack.New(feed.NewManager(src, 50, 5), swipe.DefaultOptions(), newManualClock(), nil, "user-1")

	require.NoError(t, c.ApplyCriteria(context.Background(), model.Criteria{}))
	assert.Equal(t, 3, c.Engine().Len())
	front, ok := c.Engine().Front()
	require.True(t, ok)
	assert.Equal(t, "a", front.ID)
}

func TestLoadMore_AppendsBehindQueue(t *testing.T) {
	src := &keyedSource{pages: map[string]feed.Page{
		"|":   {Jobs: jobPage("a", "b").Jobs, NextCursor: "c1"},
		"|c1": jobPage("c"),
	}}
	c := stack.New(feed.NewManager(src, 2, 1), swipe.DefaultOptions(), newManualClock(), nil, "user-1")

	require.NoError(t, c.ApplyCriteria(context.Background(), model.Criteria{}))
	n, err := c.LoadMore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 3, c.Engine().Len())
	front, _ := c.Engine().Front()
	assert.Equal(t, "a", front.ID, "append must not displace the front card")
	assert.True(t, c.Exhausted())
}

// A refresh after an out-of-band write supplies the new postings behind the
// queue; undecided cards are never reclaimed by it.
func TestRefresh_AppendsNewWithoutDisturbingStack(t *testing.T) {
	src := &keyedSource{pages: map[string]feed.Page{
		"|": jobPage("a", "b", "c"),
	}}
	c := stack.New(feed.NewManager(src, 50, 5), swipe.DefaultOptions(), newManualClock(), nil, "user-1")
	require.NoError(t, c.ApplyCriteria(context.Background(), model.Criteria{}))
	require.Equal(t, 3, c.Engine().Len())

	// An ingest run lands "d" while a, b, c are still undecided.
	src.mu.Lock()
	src.pages["|"] = jobPage("a", "b", "c", "d")
	src.mu.Unlock()

	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, 4, c.Engine().Len(), "refresh must keep the undecided cards and add the new one")
	front, ok := c.Engine().Front()
	require.True(t, ok)
	assert.Equal(t, "a", front.ID, "refresh must not displace the front card")
}

// ── Stale generations are discarded ────────────────────────────

func TestStaleGeneration_LoadMoreDiscarded(t *testing.T) {
	src := &keyedSource{
		pages: map[string]feed.Page{
			"eng|":    {Jobs: []model.Job{{ID: "e1", Category: "eng"}, {ID: "e2", Category: "eng"}}, NextCursor: "c1"},
			"eng|c1":  {Jobs: []model.Job{{ID: "e3", Category: "eng"}}},
			"design|": {Jobs: []model.Job{{ID: "d1", Category: "design"}}},
		},
		gateOn:  "c1",
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	c := stack.New(feed.NewManager(src, 2, 1), swipe.DefaultOptions(), newManualClock(), nil, "user-1")

	// Generation 1: initial load for "eng", then a LoadMore left in flight.
	require.NoError(t, c.ApplyCriteria(context.Background(), model.Criteria{Category: "eng"}))

	done := make(chan int, 1)
	go func() {
		n, _ := c.LoadMore(context.Background())
		done <- n
	}()
	select {
	case <-src.entered:
	case <-time.After(time.Second):
		t.Fatal("LoadMore never reached the source")
	}

	// Generation 2 completes first.
	require.NoError(t, c.ApplyCriteria(context.Background(), model.Criteria{Category: "design"}))
	require.Equal(t, 1, c.Engine().Len())

	// Generation 1 resolves late; its results must be dropped.
	close(src.gate)
	select {
	case n := <-done:
		assert.Zero(t, n, "stale LoadMore must report nothing appended")
	case <-time.After(time.Second):
		t.Fatal("LoadMore never resolved")
	}

	assert.Equal(t, 1, c.Engine().Len(), "stale results must not reach the queue")
	front, _ := c.Engine().Front()
	assert.Equal(t, "d1", front.ID)
	assert.Equal(t, model.Criteria{Category: "design"}, c.Criteria())
}

// ── Decision routing ───────────────────────────────────────────────────────

func TestDecisions_RouteToListsAndQueue(t *testing.T) {
	src := &keyedSource{pages: map[string]feed.Page{
		"|": jobPage("a", "b", "c"),
	}}
	clock := newManualClock()
	sub := &fakeSubmitter{}
	c := stack.New(feed.NewManager(src, 50, 5), swipe.DefaultOptions(), clock, sub, "user-42")
	require.NoError(t, c.ApplyCriteria(context.Background(), model.Criteria{}))

	c.Engine().SwipeRight()
	clock.Advance(300 * time.Millisecond)
	c.Engine().SwipeLeft()
	clock.Advance(300 * time.Millisecond)

	require.Len(t, c.Liked(), 1)
	assert.Equal(t, "a", c.Liked()[0].ID)
	require.Len(t, c.Passed(), 1)
	assert.Equal(t, "b", c.Passed()[0].ID)

	assert.Equal(t, []string{"a"}, sub.submitted(), "only accepted cards are submitted")
	assert.Equal(t, "user-42", sub.actor)
}

// A submit failure is non-fatal: the decision is still recorded.
func TestDecisions_SubmitFailureKeepsDecision(t *testing.T) {
	src := &keyedSource{pages: map[string]feed.Page{
		"|": jobPage("a"),
	}}
	clock := newManualClock()
	sub := &fakeSubmitter{err: errors.New("queue down")}
	c := stack.New(feed.NewManager(src, 50, 5), swipe.DefaultOptions(), clock, sub, "user-1")
	require.NoError(t, c.ApplyCriteria(context.Background(), model.Criteria{}))

	c.Engine().SwipeRight()
	clock.Advance(300 * time.Millisecond)

	require.Len(t, c.Liked(), 1)
	assert.Empty(t, sub.submitted())
}

// ApplyCriteria mid-animation cancels it: no decision ever fires for a card
// from a superseded queue.
func TestApplyCriteria_CancelsInFlightCommit(t *testing.T) {
	src := &keyedSource{pages: map[string]feed.Page{
		"|":    jobPage("a", "b"),
		"eng|": jobPage("x"),
	}}
	clock := newManualClock()
	sub := &fakeSubmitter{}
	c := stack.New(feed.NewManager(src, 50, 5), swipe.DefaultOptions(), clock, sub, "user-1")
	require.NoError(t, c.ApplyCriteria(context.Background(), model.Criteria{}))

	c.Engine().SwipeRight()
	require.NoError(t, c.ApplyCriteria(context.Background(), model.Criteria{Category: "eng"}))
	clock.Advance(time.Second)

	assert.Empty(t, c.Liked())
	assert.Empty(t, sub.submitted())
	front, _ := c.Engine().Front()
	assert.Equal(t, "x", front.ID)
}
