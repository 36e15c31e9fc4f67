// Package filter decides whether a stored project falls inside the user's
// recency window.
package filter

import (
	"fmt"
	"time"

	"sjsage522/projectwatcher/pkg/errors"
)

// Unset marks a bound that does not apply.
const Unset = -1

const day = 24 * time.Hour

// RecencyFilter bounds the age, in whole days, of projects worth showing or
// alerting on. Either bound may be Unset.
type RecencyFilter struct {
	MinAgeDays int `yaml:"min_age_days" json:"min_age_days"`
	MaxAgeDays int `yaml:"max_age_days" json:"max_age_days"`
}

// None returns a filter with both bounds unset; it matches everything.
func None() RecencyFilter {
	return RecencyFilter{MinAgeDays: Unset, MaxAgeDays: Unset}
}

// HasMin reports whether the lower bound applies
func (f RecencyFilter) HasMin() bool {
	return f.MinAgeDays >= 0
}

// HasMax reports whether the upper bound applies
func (f RecencyFilter) HasMax() bool {
	return f.MaxAgeDays >= 0
}

// Validate rejects negative bounds other than Unset and windows where the
// ceiling sits below the floor.
func (f RecencyFilter) Validate() error {
	if f.MinAgeDays < Unset {
		return errors.NewInvalidFilter(fmt.Sprintf("min age %d is negative", f.MinAgeDays))
	}
	if f.MaxAgeDays < Unset {
		return errors.NewInvalidFilter(fmt.Sprintf("max age %d is negative", f.MaxAgeDays))
	}
	if f.HasMin() && f.HasMax() && f.MaxAgeDays < f.MinAgeDays {
		return errors.NewInvalidFilter(fmt.Sprintf("max age %d is below min age %d", f.MaxAgeDays, f.MinAgeDays))
	}
	return nil
}

// AgeDays returns the number of whole days between published and now.
// Timestamps in the future count as age zero.
func AgeDays(published, now time.Time) int {
	age := now.Sub(published)
	if age < 0 {
		return 0
	}
	return int(age / day)
}

// Matches reports whether a project published at the given instant is inside
// the window as seen at now.
func (f RecencyFilter) Matches(published, now time.Time) bool {
	age := AgeDays(published, now)
	if f.HasMin() && age < f.MinAgeDays {
		return false
	}
	if f.HasMax() && age > f.MaxAgeDays {
		return false
	}
	return true
}

// String renders the window for logs and CLI output
func (f RecencyFilter) String() string {
	bound := func(v int) string {
		if v < 0 {
			return "unset"
		}
		return fmt.Sprintf("%dd", v)
	}
	return fmt.Sprintf("min=%s max=%s", bound(f.MinAgeDays), bound(f.MaxAgeDays))
}

// Apply keeps the items whose publication instant matches f, preserving order.
func Apply[T any](items []T, published func(T) time.Time, f RecencyFilter, now time.Time) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if f.Matches(published(item), now) {
			out = append(out, item)
		}
	}
	return out
}
