package models

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

type MediaKind string

const (
	KindMovie  MediaKind = "movie"
	KindSeries MediaKind = "series"
)

func ParseKind(s string) (MediaKind, error) {
	switch MediaKind(s) {
	case KindMovie, KindSeries:
		return MediaKind(s), nil
	}
	return "", fmt.Errorf("unknown media kind %q (want 'movie' or 'series')", s)
}

// MediaItem is the locally cached copy of a provider movie or series.
// Rows are reference data: they are overwritten on refresh but never evicted.
type MediaItem struct {
	ProviderID     int64     `json:"provider_id" db:"provider_id"`
	Kind           MediaKind `json:"kind" db:"kind"`
	Title          string    `json:"title" db:"title"`
	ReleaseDate    string    `json:"release_date,omitempty" db:"release_date"`
	Overview       string    `json:"overview,omitempty" db:"overview"`
	PosterURL      *string   `json:"poster_url,omitempty" db:"poster_url"`
	IMDBId         *string   `json:"imdb_id,omitempty" db:"imdb_id"`
	RuntimeMinutes *int      `json:"runtime_minutes,omitempty" db:"runtime_minutes"`
	Rating         *float64  `json:"rating,omitempty" db:"rating"`
	Genres         []string  `json:"genres,omitempty" db:"-"`
	LastRefreshed  time.Time `json:"last_refreshed" db:"last_refreshed"`
}

type MediaRepository struct {
	db *sql.DB
}

func NewMediaRepository(db *sql.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

// Upsert writes the item and fully replaces its genre associations.
// A genre no longer present in item.Genres is unlinked; genre rows
// themselves are kept (orphans are harmless).
func (r *MediaRepository) Upsert(item *MediaItem) error {
	if item.LastRefreshed.IsZero() {
		item.LastRefreshed = time.Now().UTC()
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin upsert: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
        INSERT INTO media_items (provider_id, kind, title, release_date, overview,
                                 poster_url, imdb_id, runtime_minutes, rating, last_refreshed)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(provider_id, kind) DO UPDATE SET
            title = excluded.title,
            release_date = excluded.release_date,
            overview = excluded.overview,
            poster_url = excluded.poster_url,
            imdb_id = excluded.imdb_id,
            runtime_minutes = excluded.runtime_minutes,
            rating = excluded.rating,
            last_refreshed = excluded.last_refreshed
    `, item.ProviderID, item.Kind, item.Title, nullString(item.ReleaseDate), item.Overview,
		item.PosterURL, item.IMDBId, item.RuntimeMinutes, item.Rating, item.LastRefreshed)
	if err != nil {
		return fmt.Errorf("failed to upsert media item: %w", err)
	}

	if _, err := tx.Exec(
		"DELETE FROM media_genres WHERE provider_id = ? AND kind = ?",
		item.ProviderID, item.Kind,
	); err != nil {
		return fmt.Errorf("failed to clear genre associations: %w", err)
	}

	for _, name := range item.Genres {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, err := tx.Exec("INSERT OR IGNORE INTO genres (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("failed to insert genre %q: %w", name, err)
		}
		if _, err := tx.Exec(`
            INSERT INTO media_genres (provider_id, kind, genre_id)
            SELECT ?, ?, id FROM genres WHERE name = ?
        `, item.ProviderID, item.Kind, name); err != nil {
			return fmt.Errorf("failed to link genre %q: %w", name, err)
		}
	}

	return tx.Commit()
}

// Get returns nil when the item is not cached; callers fall back to the
// provider client.
func (r *MediaRepository) Get(providerID int64, kind MediaKind) (*MediaItem, error) {
	row := r.db.QueryRow(`
        SELECT provider_id, kind, title, release_date, overview, poster_url,
               imdb_id, runtime_minutes, rating, last_refreshed,
               (SELECT GROUP_CONCAT(g.name)
                  FROM media_genres mg JOIN genres g ON g.id = mg.genre_id
                 WHERE mg.provider_id = media_items.provider_id AND mg.kind = media_items.kind) AS genre_names
        FROM media_items
        WHERE provider_id = ? AND kind = ?
    `, providerID, kind)

	item, err := scanMediaItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Stale returns watchlisted items whose cached metadata is older than cutoff.
// Only watchlisted items are refreshed; the rest of the cache can go stale
// without anyone noticing.
func (r *MediaRepository) Stale(cutoff time.Time) ([]MediaItem, error) {
	rows, err := r.db.Query(`
        SELECT m.provider_id, m.kind, m.title, m.release_date, m.overview, m.poster_url,
               m.imdb_id, m.runtime_minutes, m.rating, m.last_refreshed,
               (SELECT GROUP_CONCAT(g.name)
                  FROM media_genres mg JOIN genres g ON g.id = mg.genre_id
                 WHERE mg.provider_id = m.provider_id AND mg.kind = m.kind) AS genre_names
        FROM media_items m
        JOIN watchlist w ON w.provider_id = m.provider_id AND w.kind = m.kind
        WHERE m.last_refreshed < ?
        ORDER BY m.last_refreshed
    `, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []MediaItem
	for rows.Next() {
		item, err := scanMediaItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMediaItem(row rowScanner) (*MediaItem, error) {
	var m MediaItem
	var releaseDate, genreNames sql.NullString
	err := row.Scan(&m.ProviderID, &m.Kind, &m.Title, &releaseDate, &m.Overview,
		&m.PosterURL, &m.IMDBId, &m.RuntimeMinutes, &m.Rating, &m.LastRefreshed, &genreNames)
	if err != nil {
		return nil, err
	}
	m.ReleaseDate = releaseDate.String
	if genreNames.Valid && genreNames.String != "" {
		m.Genres = splitGenres(genreNames.String)
	}
	return &m, nil
}

func splitGenres(concat string) []string {
	parts := strings.Split(concat, ",")
	genres := parts[:0]
	for _, p := range parts {
		if p != "" {
			genres = append(genres, p)
		}
	}
	return genres
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
