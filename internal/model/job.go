// Package model defines the passive data entities shared across the service.
package model

import "time"

// Job is one posting in the feed. Immutable once constructed: a re-fetched
// posting with the same ID replaces the prior copy, it never patches it.
type Job struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Organization string `json:"organization"`
	Location     string `json:"location"`
	Compensation string `json:"compensation"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	PostingType  string `json:"postingType"`
	WorkType     string `json:"workType,omitempty"`
	URL          string `json:"url,omitempty"`
	DirectURL    string `json:"directUrl,omitempty"`
	Logo         string `json:"logo,omitempty"`

	// PostedAt is nil when the posting age is unknown. Unknown-age jobs are
	// never excluded by an age filter.
	PostedAt *time.Time `json:"postedAt,omitempty"`
}

// Criteria narrows the feed. The zero value on any axis means "no filter on
// that axis".
type Criteria struct {
	Category     string `json:"category,omitempty"`
	LocationText string `json:"locationText,omitempty"`
	MaxAgeHours  int    `json:"maxAgeHours,omitempty"`
}

// Equal reports whether two criteria select the same feed. A criteria change
// invalidates the session's seen-set.
func (c Criteria) Equal(o Criteria) bool { return c == o }
