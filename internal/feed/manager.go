package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Frankanator8/jobfinder/internal/filter"
	"github.com/Frankanator8/jobfinder/internal/model"
)

const (
	defaultPageSize = 100
	// defaultMaxPages caps the initial page loop so a huge collection cannot
	// stall the first load.
	defaultMaxPages = 5
)

// Manager produces a deduplicated, filtered, ordered sequence of undecided
// jobs from a paginated Source.
//
// The seen-set records every ID admitted to the working queue — admission
// time, not decision time — so an ID can never reappear across independent
// LoadMore calls even before it has been swiped. The set is cleared only when
// the governing criteria change.
type Manager struct {
	mu sync.Mutex

	source   Source
	pageSize int
	maxPages int
	now      func() time.Time

	seen         map[string]struct{}
	lastCriteria model.Criteria
	hasLoaded    bool
	cursor       string
	exhausted    bool
	loadingMore  bool
}

// NewManager constructs a Manager over the given source. pageSize and
// maxPages fall back to defaults when zero.
func NewManager(source Source, pageSize, maxPages int) *Manager {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	return &Manager{
		source:   source,
		pageSize: pageSize,
		maxPages: maxPages,
		now:      time.Now,
		seen:     make(map[string]struct{}),
	}
}

// SetNow overrides the time source for age filtering. Tests only.
func (m *Manager) SetNow(now func() time.Time) { m.now = now }

// Exhausted reports whether the source has signalled end-of-collection.
// The caller uses it to change load-more affordances, it is not an error.
func (m *Manager) Exhausted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exhausted
}

// LoadInitial fetches pages until the source returns a short page or the page
// cap is reached, applies the criteria filters client-side, and returns the
// deduplicated result in source order. When criteria differ from the last
// load the seen-set is cleared first: a criteria change invalidates prior
// relevance.
//
// The call is atomic: on any page error nothing is admitted and no
// manager state changes.
func (m *Manager) LoadInitial(ctx context.Context, criteria model.Criteria) ([]model.Job, error) {
	return m.loadAll(ctx, criteria, false)
}

// RequestRefresh behaves like LoadInitial but forces the source to bypass
// its caching layer, guaranteeing items written out-of-band are visible. A
// stale read after a manual scrape would otherwise show a false empty state.
func (m *Manager) RequestRefresh(ctx context.Context, criteria model.Criteria) ([]model.Job, error) {
	return m.loadAll(ctx, criteria, true)
}

func (m *Manager) loadAll(ctx context.Context, criteria model.Criteria, forceFresh bool) ([]model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// On a criteria change the old session's seen-set no longer applies, but
	// it is abandoned only in the commit block below: a failed load must
	// leave the manager exactly as it was.
	base := m.seen
	if !m.hasLoaded || !criteria.Equal(m.lastCriteria) {
		base = nil
	}

	keep := filter.FromCriteria(criteria, m.now())

	var (
		admitted []model.Job
		newSeen  = make(map[string]struct{})
		cursor   string
		short    bool
	)
	for page := 0; page < m.maxPages; page++ {
		pg, err := m.source.FetchPage(ctx, PageQuery{
			PageSize:   m.pageSize,
			Cursor:     cursor,
			Category:   criteria.Category,
			ForceFresh: forceFresh,
		})
		if err != nil {
			return nil, fmt.Errorf("load page %d: %w", page+1, err)
		}
		for _, j := range pg.Jobs {
			if !keep(j) {
				continue
			}
			if _, dup := base[j.ID]; dup {
				continue
			}
			if _, dup := newSeen[j.ID]; dup {
				continue
			}
			newSeen[j.ID] = struct{}{}
			admitted = append(admitted, j)
		}
		cursor = pg.NextCursor
		if len(pg.Jobs) < m.pageSize || cursor == "" {
			short = true
			break
		}
	}

	// Commit only after every page succeeded.
	if base == nil {
		m.seen = make(map[string]struct{}, len(newSeen))
	}
	for id := range newSeen {
		m.seen[id] = struct{}{}
	}
	m.lastCriteria = criteria
	m.hasLoaded = true
	m.cursor = cursor
	m.exhausted = short
	return admitted, nil
}

// LoadMore fetches one continuation page from the given cursor (or the
// manager's stored cursor when empty), reapplying dedup — the source may
// legitimately return items already seen. A short or empty page sets the
// exhausted flag. While one LoadMore is in flight a second call is a no-op,
// guarded by a busy flag, so duplicate page requests cannot race the
// seen-set.
func (m *Manager) LoadMore(ctx context.Context, criteria model.Criteria, cursor string) ([]model.Job, error) {
	m.mu.Lock()
	if m.loadingMore {
		m.mu.Unlock()
		return nil, nil
	}
	m.loadingMore = true
	if cursor == "" {
		cursor = m.cursor
	}
	keep := filter.FromCriteria(criteria, m.now())
	q := PageQuery{PageSize: m.pageSize, Cursor: cursor, Category: criteria.Category}
	m.mu.Unlock()

	pg, err := m.source.FetchPage(ctx, q)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadingMore = false
	if err != nil {
		return nil, fmt.Errorf("load more: %w", err)
	}
	if !criteria.Equal(m.lastCriteria) {
		// A criteria change superseded this fetch while it ran; its effects
		// are discarded rather than admitted into the new session.
		return nil, nil
	}

	var admitted []model.Job
	for _, j := range pg.Jobs {
		if !keep(j) {
			continue
		}
		if _, dup := m.seen[j.ID]; dup {
			continue
		}
		m.seen[j.ID] = struct{}{}
		admitted = append(admitted, j)
	}
	m.cursor = pg.NextCursor
	if len(pg.Jobs) < m.pageSize || pg.NextCursor == "" {
		m.exhausted = true
	}
	return admitted, nil
}

// SeenCount returns the size of the session's seen-set.
func (m *Manager) SeenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}
