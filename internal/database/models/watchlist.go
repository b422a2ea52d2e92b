package models

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type WatchStatus string

const (
	StatusPlanToWatch WatchStatus = "PlanToWatch"
	StatusWatching    WatchStatus = "Watching"
	StatusWatched     WatchStatus = "Watched"
	StatusDropped     WatchStatus = "Dropped"
	StatusOnHold      WatchStatus = "OnHold"
)

// Transitions are deliberately unrestricted: users re-watch dropped shows
// and move finished ones back to Watching. Only the target value is checked.
func ParseStatus(s string) (WatchStatus, error) {
	switch WatchStatus(s) {
	case StatusPlanToWatch, StatusWatching, StatusWatched, StatusDropped, StatusOnHold:
		return WatchStatus(s), nil
	}
	return "", fmt.Errorf("unknown status %q (want PlanToWatch, Watching, Watched, Dropped or OnHold)", s)
}

// ErrEntryNotFound is returned by SetStatus when no entry exists for the
// (provider id, kind) pair.
var ErrEntryNotFound = errors.New("watchlist entry not found")

// WatchlistEntry tracks one media item with its lifecycle status. The
// referenced MediaItem always exists; inserts go through a foreign key.
type WatchlistEntry struct {
	ProviderID  int64       `json:"provider_id" db:"provider_id"`
	Kind        MediaKind   `json:"kind" db:"kind"`
	Status      WatchStatus `json:"status" db:"status"`
	WatchedDate string      `json:"watched_date,omitempty" db:"watched_date"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`

	// Media is the joined cached metadata, populated by List.
	Media *MediaItem `json:"media,omitempty" db:"-"`
}

// WatchlistFilter narrows List results. Zero values match everything.
type WatchlistFilter struct {
	Status WatchStatus
	Kind   MediaKind
}

type WatchlistRepository struct {
	db *sql.DB
}

func NewWatchlistRepository(db *sql.DB) *WatchlistRepository {
	return &WatchlistRepository{db: db}
}

// Add creates the entry or, if one already exists for (providerID, kind),
// updates its status. One conditional write, no read-modify-write race.
// An empty status means "not given": new entries default to PlanToWatch and
// existing entries keep their current status, with updated_at still bumped.
func (r *WatchlistRepository) Add(providerID int64, kind MediaKind, status WatchStatus) (*WatchlistEntry, error) {
	now := time.Now().UTC()
	_, err := r.db.Exec(`
        INSERT INTO watchlist (provider_id, kind, status, created_at, updated_at)
        VALUES (?, ?, COALESCE(?, 'PlanToWatch'), ?, ?)
        ON CONFLICT(provider_id, kind) DO UPDATE SET
            status = COALESCE(?, watchlist.status),
            updated_at = excluded.updated_at
    `, providerID, kind, nullString(string(status)), now, now, nullString(string(status)))
	if err != nil {
		return nil, fmt.Errorf("failed to add watchlist entry: %w", err)
	}
	return r.get(providerID, kind)
}

// SetStatus updates an existing entry. watchedDate is optional and kept
// when empty.
func (r *WatchlistRepository) SetStatus(providerID int64, kind MediaKind, status WatchStatus, watchedDate string) (*WatchlistEntry, error) {
	now := time.Now().UTC()
	res, err := r.db.Exec(`
        UPDATE watchlist
        SET status = ?, watched_date = COALESCE(?, watched_date), updated_at = ?
        WHERE provider_id = ? AND kind = ?
    `, status, nullString(watchedDate), now, providerID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to update watchlist entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrEntryNotFound
	}
	return r.get(providerID, kind)
}

// Remove is idempotent; removing an absent entry is not an error.
func (r *WatchlistRepository) Remove(providerID int64, kind MediaKind) error {
	_, err := r.db.Exec("DELETE FROM watchlist WHERE provider_id = ? AND kind = ?", providerID, kind)
	if err != nil {
		return fmt.Errorf("failed to remove watchlist entry: %w", err)
	}
	return nil
}

// List returns entries joined with their cached metadata, most recently
// touched first. The ordering is part of the contract.
func (r *WatchlistRepository) List(filter WatchlistFilter) ([]WatchlistEntry, error) {
	query := `
        SELECT w.provider_id, w.kind, w.status, w.watched_date, w.created_at, w.updated_at,
               m.title, m.release_date, m.overview, m.poster_url, m.imdb_id,
               m.runtime_minutes, m.rating, m.last_refreshed,
               (SELECT GROUP_CONCAT(g.name)
                  FROM media_genres mg JOIN genres g ON g.id = mg.genre_id
                 WHERE mg.provider_id = w.provider_id AND mg.kind = w.kind) AS genre_names
        FROM watchlist w
        JOIN media_items m ON m.provider_id = w.provider_id AND m.kind = w.kind
    `
	var conds []string
	var args []interface{}
	if filter.Status != "" {
		conds = append(conds, "w.status = ?")
		args = append(args, filter.Status)
	}
	if filter.Kind != "" {
		conds = append(conds, "w.kind = ?")
		args = append(args, filter.Kind)
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY w.updated_at DESC, w.provider_id"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// Non-nil even when empty so the API serializes an empty array.
	entries := []WatchlistEntry{}
	for rows.Next() {
		entry, err := scanWatchlistEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func (r *WatchlistRepository) get(providerID int64, kind MediaKind) (*WatchlistEntry, error) {
	row := r.db.QueryRow(`
        SELECT w.provider_id, w.kind, w.status, w.watched_date, w.created_at, w.updated_at,
               m.title, m.release_date, m.overview, m.poster_url, m.imdb_id,
               m.runtime_minutes, m.rating, m.last_refreshed,
               (SELECT GROUP_CONCAT(g.name)
                  FROM media_genres mg JOIN genres g ON g.id = mg.genre_id
                 WHERE mg.provider_id = w.provider_id AND mg.kind = w.kind) AS genre_names
        FROM watchlist w
        JOIN media_items m ON m.provider_id = w.provider_id AND m.kind = w.kind
        WHERE w.provider_id = ? AND w.kind = ?
    `, providerID, kind)

	entry, err := scanWatchlistEntry(row)
	if err == sql.ErrNoRows {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func scanWatchlistEntry(row rowScanner) (*WatchlistEntry, error) {
	var e WatchlistEntry
	var m MediaItem
	var watchedDate, releaseDate, genreNames sql.NullString
	err := row.Scan(&e.ProviderID, &e.Kind, &e.Status, &watchedDate, &e.CreatedAt, &e.UpdatedAt,
		&m.Title, &releaseDate, &m.Overview, &m.PosterURL, &m.IMDBId,
		&m.RuntimeMinutes, &m.Rating, &m.LastRefreshed, &genreNames)
	if err != nil {
		return nil, err
	}
	e.WatchedDate = watchedDate.String
	m.ProviderID = e.ProviderID
	m.Kind = e.Kind
	m.ReleaseDate = releaseDate.String
	if genreNames.Valid && genreNames.String != "" {
		m.Genres = splitGenres(genreNames.String)
	}
	e.Media = &m
	return &e, nil
}
