// Package ingest runs the periodic sweep over the listing: it stores new
// projects, alerts on the newest matching one and trims the store.
package ingest

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"time"

	"sjsage522/projectwatcher/internal/filter"
	"sjsage522/projectwatcher/internal/metrics"
	"sjsage522/projectwatcher/internal/source"
	"sjsage522/projectwatcher/internal/store"
	"sjsage522/projectwatcher/logger"
	"sjsage522/projectwatcher/pkg/errors"
	"sjsage522/projectwatcher/services/notifier"
)

// ErrLoopRunning is returned when a sweep is requested while another one is active
var ErrLoopRunning = stderrors.New("ingest loop is already running")

// FilterProvider hands out the recency filter in force at the moment of the call
type FilterProvider interface {
	Filter() filter.RecencyFilter
	// Editing reports whether the user is changing the filter right now
	Editing() bool
}

// reloader is implemented by providers backed by a file other processes may edit
type reloader interface {
	Reload() error
}

// Options tunes a Loop. Zero values fall back to the defaults below.
type Options struct {
	MaxProjects int
	Interval    time.Duration
	PageCap     int
	RetryDelay  time.Duration
	Metrics     *metrics.Metrics
	Now         func() time.Time
}

const (
	defaultMaxProjects = 1000
	defaultInterval    = 60 * time.Second
)

// SweepStats summarizes one sweep
type SweepStats struct {
	Attempts   int
	Pages      int
	Fetched    int
	Inserted   int
	Duplicates int
	Notified   int
	Evicted    int
	Duration   time.Duration
}

// Loop is the single writer of the record store
type Loop struct {
	source   source.Source
	store    store.Store
	filters  FilterProvider
	notifier notifier.Notifier

	maxProjects int
	interval    time.Duration
	pageCap     int
	retryDelay  time.Duration
	now         func() time.Time

	metrics *metrics.Metrics
	log     *logger.Logger

	running atomic.Bool
}

// New creates a loop. filters and n may be nil: a nil provider means no
// filter, a nil notifier means ingestion without alerts.
func New(src source.Source, st store.Store, filters FilterProvider, n notifier.Notifier, opts Options) *Loop {
	if opts.MaxProjects <= 0 {
		opts.MaxProjects = defaultMaxProjects
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.PageCap <= 0 {
		opts.PageCap = max(1, opts.MaxProjects/10)
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Loop{
		source:      src,
		store:       st,
		filters:     filters,
		notifier:    n,
		maxProjects: opts.MaxProjects,
		interval:    opts.Interval,
		pageCap:     opts.PageCap,
		retryDelay:  opts.RetryDelay,
		now:         opts.Now,
		metrics:     opts.Metrics,
		log:         logger.ForIngest(),
	}
}

// Run sweeps, trims and sleeps until ctx is cancelled. It returns nil on
// cancellation and ErrLoopRunning if another Run or Sweep holds the loop.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer l.running.Store(false)

	l.log.Info().
		Dur("interval", l.interval).
		Int("max_projects", l.maxProjects).
		Int("page_cap", l.pageCap).
		Msg("Ingestion loop started")

	for {
		l.reloadFilters()

		stats, err := l.sweep(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.log.Info().Msg("Ingestion loop stopped")
				return nil
			}
			l.log.Error().Err(err).Msg("Sweep failed")
		} else if logger.IsDebugEnabled() {
			l.log.Debug().
				Int("pages", stats.Pages).
				Int("inserted", stats.Inserted).
				Int("evicted", stats.Evicted).
				Dur("took", stats.Duration).
				Msg("Sweep finished")
		}

		if !sleep(ctx, l.interval) {
			l.log.Info().Msg("Ingestion loop stopped")
			return nil
		}
	}
}

// Sweep runs exactly one sweep followed by retention
func (l *Loop) Sweep(ctx context.Context) (SweepStats, error) {
	if !l.running.CompareAndSwap(false, true) {
		return SweepStats{}, ErrLoopRunning
	}
	defer l.running.Store(false)

	l.reloadFilters()
	return l.sweep(ctx)
}

func (l *Loop) sweep(ctx context.Context) (stats SweepStats, err error) {
	start := time.Now()
	defer func() { stats.Duration = time.Since(start) }()

	page := 1
	for stats.Attempts < l.pageCap {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}

		stats.Attempts++
		candidates, err := l.source.Fetch(ctx, page)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			if stderrors.Is(err, errors.ErrTransientUnavailable) {
				l.metrics.FetchFailed("transient")
				l.log.Warn().Err(err).Int("page", page).Int("attempt", stats.Attempts).Msg("Listing page unavailable, retrying")
				if !sleep(ctx, l.retryDelay) {
					return stats, ctx.Err()
				}
				continue
			}
			l.metrics.FetchFailed("permanent")
			l.log.Error().Err(err).Int("page", page).Msg("Listing page failed, ending sweep")
			break
		}

		if len(candidates) == 0 {
			break
		}

		stats.Pages++
		stats.Fetched += len(candidates)
		for _, c := range candidates {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			l.ingest(ctx, c, &stats)
		}
		page++
	}

	if stats.Attempts >= l.pageCap {
		l.log.Debug().Int("page_cap", l.pageCap).Msg("Page cap reached")
	}

	evicted, err := l.store.DeleteOldestBeyond(ctx, l.maxProjects)
	if err != nil {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		l.log.Error().Err(err).Msg("Retention failed")
	} else {
		stats.Evicted = evicted
		l.metrics.Evicted(evicted)
	}

	stored, err := l.store.Count(ctx)
	if err != nil {
		l.log.Warn().Err(err).Msg("Failed to count records")
	}
	l.metrics.SweepDone(time.Since(start), stats.Attempts, stored)

	return stats, nil
}

// ingest stores c unless its URL is known, then checks whether to alert
func (l *Loop) ingest(ctx context.Context, c source.Candidate, stats *SweepStats) {
	exists, err := l.store.Exists(ctx, c.URL)
	if err != nil {
		l.log.Warn().Err(err).Str("url", c.URL).Msg("Existence check failed")
		return
	}
	if exists {
		stats.Duplicates++
		l.metrics.Duplicate()
		return
	}

	rec, err := l.store.Insert(ctx, store.Record{
		Title:       c.Title,
		URL:         c.URL,
		PublishedAt: c.PublishedAt,
	})
	if err != nil {
		if stderrors.Is(err, errors.ErrDuplicateKey) {
			stats.Duplicates++
			l.metrics.Duplicate()
			return
		}
		l.log.Error().Err(err).Str("url", c.URL).Msg("Insert failed")
		return
	}

	stats.Inserted++
	l.metrics.Ingested()
	l.log.Debug().Int64("id", rec.ID).Str("title", rec.Title).Msg("Stored project")

	if l.shouldNotify(ctx, rec) {
		stats.Notified++
		l.metrics.Notified()
		l.notifier.Notify(ctx, rec)
	}
}

// shouldNotify holds only for the newest stored record when it passes the
// current filter and the filter is not being edited
func (l *Loop) shouldNotify(ctx context.Context, rec store.Record) bool {
	if l.notifier == nil {
		return false
	}
	if l.filters != nil && l.filters.Editing() {
		return false
	}

	latest, ok, err := l.store.Latest(ctx)
	if err != nil {
		l.log.Warn().Err(err).Msg("Failed to read latest record")
		return false
	}
	if !ok || latest.URL != rec.URL {
		return false
	}

	f := filter.None()
	if l.filters != nil {
		f = l.filters.Filter()
	}
	return f.Matches(rec.PublishedAt, l.now())
}

func (l *Loop) reloadFilters() {
	r, ok := l.filters.(reloader)
	if !ok {
		return
	}
	if err := r.Reload(); err != nil {
		l.log.Warn().Err(err).Msg("Failed to reload filter settings, keeping previous")
	}
}

// sleep waits for d or until ctx is done, reporting whether d elapsed
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
