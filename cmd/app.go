package cmd

import (
	"context"
	stderrors "errors"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"sjsage522/projectwatcher/config"
	"sjsage522/projectwatcher/helpers"
	"sjsage522/projectwatcher/internal/ingest"
	"sjsage522/projectwatcher/internal/metrics"
	"sjsage522/projectwatcher/internal/source"
	"sjsage522/projectwatcher/internal/store"
	"sjsage522/projectwatcher/logger"
	"sjsage522/projectwatcher/services/cache"
	"sjsage522/projectwatcher/services/notifier"
)

// app holds the services shared by run and sweep
type app struct {
	cfg      *config.Config
	store    store.Store
	settings *config.Settings
	loop     *ingest.Loop
	closers  []io.Closer

	// openURL shows a project page to the user
	openURL func(string) error
}

// newApp builds every service the ingestion loop needs. A store that cannot
// be opened is an error; optional services that are unreachable are skipped
// with a warning.
func newApp(ctx context.Context, cfg *config.Config, out io.Writer, reg prometheus.Registerer) (*app, error) {
	log := logger.ForComponent("app")

	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, store: st, closers: []io.Closer{st}, openURL: helpers.OpenBrowser}

	settings, err := config.LoadSettings(cfg.SettingsFile)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.settings = settings
	log.Info().Str("path", settings.Path()).Str("filter", settings.Filter().String()).Msg("Loaded settings")

	cookies, err := helpers.LoadCookies(cfg.CookiesFile)
	if err != nil {
		if !stderrors.Is(err, os.ErrNotExist) {
			a.Close()
			return nil, err
		}
		log.Warn().Str("path", cfg.CookiesFile).Msg("Cookie file not found, fetching anonymously")
	}

	var cacheService cache.CacheService
	if cfg.MemcacheAddr != "" {
		mc := cache.NewMemcacheService(cfg.MemcacheAddr)
		if err := mc.Ping(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.MemcacheAddr).Msg("Memcache unavailable, rate-limit blocks will not persist")
		} else {
			cacheService = mc
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}

	src, err := source.NewListingSource(source.ListingConfig{
		URL:       cfg.ListingURL,
		Cookies:   cookies,
		Client:    helpers.DefaultClient,
		Cache:     cacheService,
		BlockTime: cfg.BlockTime,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	notifiers := notifier.Multi{notifier.NewBellNotifier(out, cfg.AlertSound)}

	if cfg.RedisAddr != "" {
		rn := notifier.NewRedisNotifier(cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, cfg.RedisStreamMaxLength)
		if err := rn.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unavailable, stream alerts disabled")
			rn.Close()
		} else {
			notifiers = append(notifiers, rn)
			a.closers = append(a.closers, rn)
			logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)", cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
		}
	}

	if cfg.TelegramToken != "" {
		tn, err := notifier.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Warn().Err(err).Msg("Telegram unavailable, chat alerts disabled")
		} else {
			notifiers = append(notifiers, tn)
		}
	}

	a.loop = ingest.New(src, st, settings, notifiers, ingest.Options{
		MaxProjects: cfg.MaxProjects,
		Interval:    cfg.CrawlInterval,
		PageCap:     cfg.PageCap(),
		RetryDelay:  cfg.RetryDelay,
		Metrics:     metrics.New(reg),
	})
	return a, nil
}

// Close releases the services in reverse order of creation
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			logger.Warn("Failed to close service: %v", err)
		}
	}
	a.closers = nil
}
