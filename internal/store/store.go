// Package store keeps ingested projects keyed by URL.
package store

import (
	"context"
	"time"
)

// Record is a single ingested project. Records are never modified after insert.
type Record struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
}

// Store is the durable collection of records. Every operation is atomic on
// its own; callers get no isolation across calls.
type Store interface {
	// Exists reports whether a record with url is stored
	Exists(ctx context.Context, url string) (bool, error)

	// Insert stores rec and returns it with its ID assigned. It fails with
	// errors.ErrDuplicateKey when the URL is already present.
	Insert(ctx context.Context, rec Record) (Record, error)

	// List returns records by publication time, newest first. Ties put the
	// later insert first. limit <= 0 returns everything from offset on.
	List(ctx context.Context, limit, offset int) ([]Record, error)

	// Latest returns the record List would return first
	Latest(ctx context.Context) (Record, bool, error)

	// Count returns the number of stored records
	Count(ctx context.Context) (int, error)

	// DeleteOldestBeyond removes max(0, Count()-limit) records, oldest
	// publication first and earliest insert first among ties. It returns the
	// number removed.
	DeleteOldestBeyond(ctx context.Context, limit int) (int, error)

	// Close releases the underlying resources
	Close() error
}

// newerFirst orders a before b in listing order
func newerFirst(a, b Record) bool {
	if !a.PublishedAt.Equal(b.PublishedAt) {
		return a.PublishedAt.After(b.PublishedAt)
	}
	return a.ID > b.ID
}
