package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"cinelog/internal/database/models"
)

const tmdbPosterBase = "https://image.tmdb.org/t/p/w500"

type TMDBClient struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
}

func NewTMDBClient(apiKey, baseURL, language string) *TMDBClient {
	if baseURL == "" {
		baseURL = "https://api.themoviedb.org/3"
	}
	return &TMDBClient{
		apiKey:   apiKey,
		baseURL:  baseURL,
		language: language,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// TMDB calls series "tv"; everything else in this codebase says "series".
func tmdbPath(kind models.MediaKind) string {
	if kind == models.KindSeries {
		return "tv"
	}
	return "movie"
}

type tmdbListItem struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	VoteAverage  float64 `json:"vote_average"`
}

type tmdbDetails struct {
	tmdbListItem
	Runtime        int   `json:"runtime"`
	EpisodeRunTime []int `json:"episode_run_time"`
	Genres         []struct {
		Name string `json:"name"`
	} `json:"genres"`
	ExternalIDs struct {
		IMDBId string `json:"imdb_id"`
	} `json:"external_ids"`
}

func (t *TMDBClient) Search(ctx context.Context, query string, kind models.MediaKind) ([]Summary, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", ErrInvalidQuery)
	}

	params := url.Values{}
	params.Set("query", query)

	var resp struct {
		Results []tmdbListItem `json:"results"`
	}
	if err := t.get(ctx, "/search/"+tmdbPath(kind), params, &resp); err != nil {
		return nil, err
	}
	return t.summaries(resp.Results, kind), nil
}

func (t *TMDBClient) Discover(ctx context.Context, kind models.MediaKind, filters map[string]string) ([]Summary, error) {
	params := url.Values{}
	for key, value := range filters {
		// Credentials and locale are ours to set, not the caller's.
		if key == "api_key" || key == "language" {
			continue
		}
		params.Set(key, value)
	}

	var resp struct {
		Results []tmdbListItem `json:"results"`
	}
	if err := t.get(ctx, "/discover/"+tmdbPath(kind), params, &resp); err != nil {
		return nil, err
	}
	return t.summaries(resp.Results, kind), nil
}

func (t *TMDBClient) Trending(ctx context.Context, kind models.MediaKind, window string) ([]Summary, error) {
	if window != "day" && window != "week" {
		return nil, fmt.Errorf("%w: trending window must be 'day' or 'week', got %q", ErrInvalidQuery, window)
	}

	var resp struct {
		Results []tmdbListItem `json:"results"`
	}
	if err := t.get(ctx, "/trending/"+tmdbPath(kind)+"/"+window, url.Values{}, &resp); err != nil {
		return nil, err
	}
	return t.summaries(resp.Results, kind), nil
}

func (t *TMDBClient) Fetch(ctx context.Context, id int64, kind models.MediaKind) (*models.MediaItem, error) {
	params := url.Values{}
	params.Set("append_to_response", "external_ids")

	var details tmdbDetails
	path := fmt.Sprintf("/%s/%d", tmdbPath(kind), id)
	if err := t.get(ctx, path, params, &details); err != nil {
		return nil, err
	}

	item := &models.MediaItem{
		ProviderID:    id,
		Kind:          kind,
		Title:         itemTitle(details.tmdbListItem, kind),
		ReleaseDate:   itemReleaseDate(details.tmdbListItem, kind),
		Overview:      details.Overview,
		LastRefreshed: time.Now().UTC(),
	}

	if details.PosterPath != "" {
		posterURL := tmdbPosterBase + details.PosterPath
		item.PosterURL = &posterURL
	}
	if details.ExternalIDs.IMDBId != "" {
		imdbID := details.ExternalIDs.IMDBId
		item.IMDBId = &imdbID
	}
	if runtime := itemRuntime(details, kind); runtime > 0 {
		item.RuntimeMinutes = &runtime
	}
	if details.VoteAverage > 0 {
		rating := details.VoteAverage
		item.Rating = &rating
	}
	for _, g := range details.Genres {
		item.Genres = append(item.Genres, g.Name)
	}

	return item, nil
}

func (t *TMDBClient) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	params.Set("api_key", t.apiKey)
	if t.language != "" {
		params.Set("language", t.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: unexpected status %d from %s", ErrUnavailable, resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrUnavailable, err)
	}
	return nil
}

func (t *TMDBClient) summaries(results []tmdbListItem, kind models.MediaKind) []Summary {
	summaries := make([]Summary, 0, len(results))
	for _, r := range results {
		summaries = append(summaries, Summary{
			ID:     r.ID,
			Kind:   kind,
			Title:  itemTitle(r, kind),
			Year:   parseYear(itemReleaseDate(r, kind)),
			Rating: r.VoteAverage,
		})
	}
	return summaries
}

func itemTitle(item tmdbListItem, kind models.MediaKind) string {
	if kind == models.KindSeries {
		return item.Name
	}
	return item.Title
}

func itemReleaseDate(item tmdbListItem, kind models.MediaKind) string {
	if kind == models.KindSeries {
		return item.FirstAirDate
	}
	return item.ReleaseDate
}

func itemRuntime(details tmdbDetails, kind models.MediaKind) int {
	if kind == models.KindSeries {
		if len(details.EpisodeRunTime) > 0 {
			return details.EpisodeRunTime[0]
		}
		return 0
	}
	return details.Runtime
}

func parseYear(releaseDate string) int {
	if releaseDate == "" {
		return 0
	}
	if parsed, err := time.Parse("2006-01-02", releaseDate); err == nil {
		return parsed.Year()
	}
	// Some provider entries only carry a year.
	if year, err := strconv.Atoi(releaseDate); err == nil && year > 1800 {
		return year
	}
	return 0
}
