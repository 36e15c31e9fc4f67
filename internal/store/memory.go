package store

import (
	"context"
	"sort"
	"sync"

	"sjsage522/projectwatcher/pkg/errors"
)

// MemoryStore is a process-local Store
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	nextID  int64
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
		nextID:  1,
	}
}

func (m *MemoryStore) Exists(ctx context.Context, url string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.records[url]
	return ok, nil
}

func (m *MemoryStore) Insert(ctx context.Context, rec Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[rec.URL]; ok {
		return Record{}, errors.NewDuplicateKey("memory", rec.URL)
	}
	rec.ID = m.nextID
	m.nextID++
	m.records[rec.URL] = rec
	return rec, nil
}

func (m *MemoryStore) sorted() []Record {
	out := make([]Record, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return newerFirst(out[i], out[j]) })
	return out
}

func (m *MemoryStore) List(ctx context.Context, limit, offset int) ([]Record, error) {
	m.mu.RLock()
	all := m.sorted()
	m.mu.RUnlock()

	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []Record{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (m *MemoryStore) Latest(ctx context.Context) (Record, bool, error) {
	recs, err := m.List(ctx, 1, 0)
	if err != nil || len(recs) == 0 {
		return Record{}, false, err
	}
	return recs[0], true, nil
}

func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

func (m *MemoryStore) DeleteOldestBeyond(ctx context.Context, limit int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit < 0 {
		limit = 0
	}
	excess := len(m.records) - limit
	if excess <= 0 {
		return 0, nil
	}

	all := m.sorted()
	for _, r := range all[len(all)-excess:] {
		delete(m.records, r.URL)
	}
	return excess, nil
}

func (m *MemoryStore) Close() error {
	return nil
}
