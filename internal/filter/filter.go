// Package filter implements the client-side predicates applied to fetched
// jobs after any server-side narrowing.
package filter

import (
	"strings"
	"time"

	"github.com/Frankanator8/jobfinder/internal/model"
)

// Predicate reports whether a job passes one filter axis.
type Predicate func(model.Job) bool

// All combines predicates; a job passes only if every predicate passes.
// The zero-length combination keeps every job.
func All(preds ...Predicate) Predicate {
	return func(j model.Job) bool {
		for _, p := range preds {
			if !p(j) {
				return false
			}
		}
		return true
	}
}

// Category keeps jobs whose category exactly matches want.
func Category(want string) Predicate {
	return func(j model.Job) bool { return j.Category == want }
}

// Location keeps jobs whose location contains want, case-insensitively.
func Location(want string) Predicate {
	lowered := strings.ToLower(want)
	return func(j model.Job) bool {
		return strings.Contains(strings.ToLower(j.Location), lowered)
	}
}

// MaxAge keeps jobs posted within maxHours of now. A job with no PostedAt has
// unknown age and is always kept, for every value of maxHours.
func MaxAge(maxHours int, now time.Time) Predicate {
	cutoff := now.Add(-time.Duration(maxHours) * time.Hour)
	return func(j model.Job) bool {
		if j.PostedAt == nil {
			return true
		}
		return !j.PostedAt.Before(cutoff)
	}
}

// FromCriteria builds the combined predicate for the given criteria. Axes
// whose criteria field is empty/zero contribute no predicate.
func FromCriteria(c model.Criteria, now time.Time) Predicate {
	var preds []Predicate
	if c.Category != "" {
		preds = append(preds, Category(c.Category))
	}
	if c.LocationText != "" {
		preds = append(preds, Location(c.LocationText))
	}
	if c.MaxAgeHours > 0 {
		preds = append(preds, MaxAge(c.MaxAgeHours, now))
	}
	return All(preds...)
}
