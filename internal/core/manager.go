package core

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"cinelog/internal/clients/metadata"
	"cinelog/internal/clients/notifications"
	"cinelog/internal/config"
	"cinelog/internal/database/models"
	"cinelog/internal/utils"
)

// Manager maps each command to a provider call, a composite query or a
// store mutation. Mutations follow a fetch-then-cache-then-link order: the
// provider call always completes before any store write opens.
type Manager struct {
	config        *config.Config
	db            *sql.DB
	mediaRepo     *models.MediaRepository
	watchlistRepo *models.WatchlistRepository
	provider      metadata.Client
	notifier      notifications.Notifier
	logger        *utils.Logger
	scheduler     *cron.Cron

	probeMu sync.Mutex
	probeOK bool
	probeAt time.Time
}

func NewManager(cfg *config.Config, db *sql.DB, logger *utils.Logger) *Manager {
	m := &Manager{
		config:        cfg,
		db:            db,
		mediaRepo:     models.NewMediaRepository(db),
		watchlistRepo: models.NewWatchlistRepository(db),
		logger:        logger,
		scheduler:     cron.New(),
	}

	m.provider = metadata.NewTMDBClient(cfg.Provider.APIKey, cfg.Provider.BaseURL, cfg.Provider.Language)

	switch cfg.Notifications.Type {
	case "pushbullet":
		m.notifier = notifications.NewPushbulletClient(cfg.Notifications.APIKey, logger)
	case "":
		// Notifications disabled.
	default:
		logger.Fatal("Unsupported notification type:", cfg.Notifications.Type)
	}

	return m
}

// NewManagerWithDeps wires explicit collaborators; used by tests.
func NewManagerWithDeps(cfg *config.Config, db *sql.DB, provider metadata.Client, notifier notifications.Notifier, logger *utils.Logger) *Manager {
	return &Manager{
		config:        cfg,
		db:            db,
		mediaRepo:     models.NewMediaRepository(db),
		watchlistRepo: models.NewWatchlistRepository(db),
		provider:      provider,
		notifier:      notifier,
		logger:        logger,
		scheduler:     cron.New(),
	}
}

// Search is a read-only provider call.
func (m *Manager) Search(ctx context.Context, query, kindStr string) ([]metadata.Summary, error) {
	if query == "" {
		return nil, invalidParams("query must not be empty")
	}
	kind, err := models.ParseKind(kindStr)
	if err != nil {
		return nil, invalidParams("%v", err)
	}

	results, err := m.provider.Search(ctx, query, kind)
	if err != nil {
		return nil, wrapProviderErr(err, "provider search failed")
	}
	return results, nil
}

func (m *Manager) Discover(ctx context.Context, kindStr string, filters map[string]string) ([]metadata.Summary, error) {
	kind, err := models.ParseKind(kindStr)
	if err != nil {
		return nil, invalidParams("%v", err)
	}

	results, err := m.provider.Discover(ctx, kind, filters)
	if err != nil {
		return nil, wrapProviderErr(err, "provider discover failed")
	}
	return results, nil
}

func (m *Manager) Trending(ctx context.Context, kindStr, window string) ([]metadata.Summary, error) {
	kind, err := models.ParseKind(kindStr)
	if err != nil {
		return nil, invalidParams("%v", err)
	}
	if window == "" {
		window = "day"
	}

	results, err := m.provider.Trending(ctx, kind, window)
	if err != nil {
		return nil, wrapProviderErr(err, "provider trending failed")
	}
	return results, nil
}

// Fetch returns the cached item when present, otherwise pulls it from the
// provider and caches it. The cache is durable: entries are refreshed, never
// evicted.
func (m *Manager) Fetch(ctx context.Context, id int64, kindStr string) (*models.MediaItem, error) {
	kind, err := models.ParseKind(kindStr)
	if err != nil {
		return nil, invalidParams("%v", err)
	}
	if id <= 0 {
		return nil, invalidParams("id must be a positive provider id, got %d", id)
	}

	cached, err := m.mediaRepo.Get(id, kind)
	if err != nil {
		return nil, wrapStoreErr(err, "failed to read metadata cache")
	}
	if cached != nil {
		return cached, nil
	}

	item, err := m.provider.Fetch(ctx, id, kind)
	if err != nil {
		return nil, wrapProviderErr(err, "provider fetch failed")
	}
	if err := m.mediaRepo.Upsert(item); err != nil {
		return nil, wrapStoreErr(err, "failed to cache metadata")
	}
	return item, nil
}

// AddToWatchlist links a media item into the watchlist. Adding an already
// present item updates its status instead of duplicating the entry; with no
// status given the existing status is preserved.
func (m *Manager) AddToWatchlist(ctx context.Context, id int64, kindStr, statusStr string) (*models.WatchlistEntry, error) {
	kind, err := models.ParseKind(kindStr)
	if err != nil {
		return nil, invalidParams("%v", err)
	}
	if id <= 0 {
		return nil, invalidParams("id must be a positive provider id, got %d", id)
	}
	// An omitted status stays omitted: new entries default to PlanToWatch in
	// the store, existing entries keep what they have.
	var status models.WatchStatus
	if statusStr != "" {
		status, err = models.ParseStatus(statusStr)
		if err != nil {
			return nil, invalidParams("%v", err)
		}
	}

	// The entry must reference cached metadata, so fetch first. The provider
	// round trip finishes before the watchlist write opens.
	item, err := m.Fetch(ctx, id, kindStr)
	if err != nil {
		return nil, err
	}

	entry, err := m.watchlistRepo.Add(id, kind, status)
	if err != nil {
		return nil, wrapStoreErr(err, "failed to add watchlist entry")
	}

	if m.notifier != nil {
		m.notifier.NotifyAdded(item, entry.Status)
	}
	return entry, nil
}

func (m *Manager) SetWatchlistStatus(ctx context.Context, id int64, kindStr, statusStr, watchedDate string) (*models.WatchlistEntry, error) {
	kind, err := models.ParseKind(kindStr)
	if err != nil {
		return nil, invalidParams("%v", err)
	}
	status, err := models.ParseStatus(statusStr)
	if err != nil {
		return nil, invalidParams("%v", err)
	}
	if watchedDate != "" {
		if _, err := time.Parse("2006-01-02", watchedDate); err != nil {
			return nil, invalidParams("watched_date must be YYYY-MM-DD, got %q", watchedDate)
		}
	}

	entry, err := m.watchlistRepo.SetStatus(id, kind, status, watchedDate)
	if err != nil {
		return nil, wrapStoreErr(err, "failed to update watchlist entry")
	}

	if m.notifier != nil && status == models.StatusWatched && entry.Media != nil {
		m.notifier.NotifyWatched(entry.Media)
	}
	return entry, nil
}

func (m *Manager) RemoveFromWatchlist(id int64, kindStr string) error {
	kind, err := models.ParseKind(kindStr)
	if err != nil {
		return invalidParams("%v", err)
	}
	if err := m.watchlistRepo.Remove(id, kind); err != nil {
		return wrapStoreErr(err, "failed to remove watchlist entry")
	}
	return nil
}

func (m *Manager) ListWatchlist(statusStr, kindStr string) ([]models.WatchlistEntry, error) {
	var filter models.WatchlistFilter
	if statusStr != "" {
		status, err := models.ParseStatus(statusStr)
		if err != nil {
			return nil, invalidParams("%v", err)
		}
		filter.Status = status
	}
	if kindStr != "" {
		kind, err := models.ParseKind(kindStr)
		if err != nil {
			return nil, invalidParams("%v", err)
		}
		filter.Kind = kind
	}

	entries, err := m.watchlistRepo.List(filter)
	if err != nil {
		return nil, wrapStoreErr(err, "failed to list watchlist")
	}
	return entries, nil
}

// providerProbeTTL bounds how often a status check may hit the provider.
// Monitors poll the status endpoint far more often than provider health
// actually changes.
const providerProbeTTL = time.Minute

// SystemStatus reports reachability of the database and the provider.
func (m *Manager) SystemStatus(ctx context.Context) map[string]bool {
	return map[string]bool{
		"database": m.db.PingContext(ctx) == nil,
		"provider": m.providerHealthy(ctx),
	}
}

func (m *Manager) providerHealthy(ctx context.Context) bool {
	m.probeMu.Lock()
	defer m.probeMu.Unlock()

	if !m.probeAt.IsZero() && time.Since(m.probeAt) < providerProbeTTL {
		return m.probeOK
	}
	_, err := m.provider.Trending(ctx, models.KindMovie, "day")
	m.probeOK = err == nil
	m.probeAt = time.Now()
	return m.probeOK
}

func (m *Manager) StartScheduler() {
	interval := m.config.Refresh.Interval
	if interval == "" {
		interval = "6h"
	}
	if _, err := m.scheduler.AddFunc("@every "+interval, m.refreshStaleMetadata); err != nil {
		m.logger.Error("Failed to schedule metadata refresh:", err)
		return
	}
	m.scheduler.Start()
	m.logger.Info("Metadata refresh scheduled every", interval)
}

func (m *Manager) Stop() {
	if m.scheduler != nil {
		m.scheduler.Stop()
	}
}

// refreshStaleMetadata re-fetches cached metadata for watchlisted items
// whose last refresh is older than the configured window. Provider faults
// are logged and skipped; the next run will retry.
func (m *Manager) refreshStaleMetadata() {
	maxAge, err := time.ParseDuration(m.config.Refresh.MaxAge)
	if err != nil {
		m.logger.Error("Invalid refresh max_age:", m.config.Refresh.MaxAge, err)
		return
	}

	stale, err := m.mediaRepo.Stale(time.Now().UTC().Add(-maxAge))
	if err != nil {
		m.logger.Error("Failed to list stale metadata:", err)
		return
	}
	if len(stale) == 0 {
		return
	}
	m.logger.Info("Refreshing metadata for", len(stale), "stale items")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	for _, old := range stale {
		item, err := m.provider.Fetch(ctx, old.ProviderID, old.Kind)
		if err != nil {
			m.logger.Error("Refresh failed for", old.Kind, old.ProviderID, ":", err)
			continue
		}
		if err := m.mediaRepo.Upsert(item); err != nil {
			m.logger.Error("Failed to store refreshed metadata for", old.Kind, old.ProviderID, ":", err)
		}
	}
}
