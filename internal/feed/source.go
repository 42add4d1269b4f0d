// Package feed implements the supply side of the card stack: paginated
// retrieval, seen-set deduplication, and client-side filtering.
package feed

import (
	"context"

	"github.com/Frankanator8/jobfinder/internal/model"
)

// PageQuery describes one page request against the data source.
type PageQuery struct {
	PageSize int
	// Cursor is opaque to the manager; empty means the first page.
	Cursor string
	// Category is pushed to the source for server-side narrowing. Location
	// and age filters stay client-side.
	Category string
	// ForceFresh bypasses any caching layer in the source so items written
	// out-of-band are visible immediately.
	ForceFresh bool
}

// Page is one slice of the collection. A short page (fewer items than
// requested) signals the end of the collection.
type Page struct {
	Jobs       []model.Job `json:"jobs"`
	NextCursor string      `json:"nextCursor,omitempty"`
}

// Source is the paginated data-source boundary consumed by the Manager.
type Source interface {
	FetchPage(ctx context.Context, q PageQuery) (Page, error)
}
