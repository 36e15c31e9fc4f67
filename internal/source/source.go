// Package source pulls candidate projects from the paginated listing.
package source

import (
	"context"
	"time"
)

// Candidate is a project as seen on a listing page, before storage
type Candidate struct {
	Title       string
	URL         string
	PublishedAt time.Time
}

// Source returns the candidates on one listing page in the order the site
// shows them. An empty result means there are no more pages. Errors matching
// errors.ErrTransientUnavailable mean the page may succeed on a later try.
type Source interface {
	Fetch(ctx context.Context, page int) ([]Candidate, error)
}

// Func adapts a plain function to Source
type Func func(ctx context.Context, page int) ([]Candidate, error)

// Fetch calls f
func (f Func) Fetch(ctx context.Context, page int) ([]Candidate, error) {
	return f(ctx, page)
}
