package models_test

import (
	"sort"
	"testing"
	"time"

	"cinelog/internal/database/models"
)

func TestUpsertReplacesGenresEntirely(t *testing.T) {
	mediaRepo, _ := newTestDB(t)

	first := &models.MediaItem{
		ProviderID: 550,
		Kind:       models.KindMovie,
		Title:      "Fight Club",
		Genres:     []string{"Drama", "Thriller"},
	}
	if err := mediaRepo.Upsert(first); err != nil {
		t.Fatalf("first upsert returned error: %v", err)
	}

	second := &models.MediaItem{
		ProviderID: 550,
		Kind:       models.KindMovie,
		Title:      "Fight Club",
		Genres:     []string{"Drama", "Crime"},
	}
	if err := mediaRepo.Upsert(second); err != nil {
		t.Fatalf("second upsert returned error: %v", err)
	}

	item, err := mediaRepo.Get(550, models.KindMovie)
	if err != nil {
		t.Fatalf("get returned error: %v", err)
	}
	if item == nil {
		t.Fatal("expected cached item, got nil")
	}

	got := append([]string(nil), item.Genres...)
	sort.Strings(got)
	if len(got) != 2 || got[0] != "Crime" || got[1] != "Drama" {
		t.Fatalf("expected genres [Crime Drama], got %v", item.Genres)
	}
}

func TestGetMissingItemReturnsNil(t *testing.T) {
	mediaRepo, _ := newTestDB(t)

	item, err := mediaRepo.Get(12345, models.KindMovie)
	if err != nil {
		t.Fatalf("get returned error: %v", err)
	}
	if item != nil {
		t.Fatalf("expected nil for uncached item, got %+v", item)
	}
}

func TestUpsertOverwritesMutableFields(t *testing.T) {
	mediaRepo, _ := newTestDB(t)

	posterA := "https://image.example/a.jpg"
	if err := mediaRepo.Upsert(&models.MediaItem{
		ProviderID: 1,
		Kind:       models.KindSeries,
		Title:      "Old Title",
		PosterURL:  &posterA,
	}); err != nil {
		t.Fatalf("first upsert returned error: %v", err)
	}

	firstStored, err := mediaRepo.Get(1, models.KindSeries)
	if err != nil {
		t.Fatalf("get returned error: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	if err := mediaRepo.Upsert(&models.MediaItem{
		ProviderID:  1,
		Kind:        models.KindSeries,
		Title:       "New Title",
		ReleaseDate: "2024-01-15",
	}); err != nil {
		t.Fatalf("second upsert returned error: %v", err)
	}

	item, err := mediaRepo.Get(1, models.KindSeries)
	if err != nil {
		t.Fatalf("get returned error: %v", err)
	}
	if item.Title != "New Title" {
		t.Fatalf("expected title to be overwritten, got %q", item.Title)
	}
	if item.ReleaseDate != "2024-01-15" {
		t.Fatalf("expected release date 2024-01-15, got %q", item.ReleaseDate)
	}
	if item.PosterURL != nil {
		t.Fatalf("expected poster to follow the new shape, got %v", *item.PosterURL)
	}
	if !item.LastRefreshed.After(firstStored.LastRefreshed) {
		t.Fatalf("expected last_refreshed to advance, got %v then %v",
			firstStored.LastRefreshed, item.LastRefreshed)
	}
}

func TestSameIDDifferentKindsAreSeparateItems(t *testing.T) {
	mediaRepo, _ := newTestDB(t)

	if err := mediaRepo.Upsert(&models.MediaItem{ProviderID: 42, Kind: models.KindMovie, Title: "Movie 42"}); err != nil {
		t.Fatalf("movie upsert returned error: %v", err)
	}
	if err := mediaRepo.Upsert(&models.MediaItem{ProviderID: 42, Kind: models.KindSeries, Title: "Series 42"}); err != nil {
		t.Fatalf("series upsert returned error: %v", err)
	}

	movie, err := mediaRepo.Get(42, models.KindMovie)
	if err != nil || movie == nil {
		t.Fatalf("expected cached movie, got %+v, %v", movie, err)
	}
	series, err := mediaRepo.Get(42, models.KindSeries)
	if err != nil || series == nil {
		t.Fatalf("expected cached series, got %+v, %v", series, err)
	}
	if movie.Title == series.Title {
		t.Fatalf("expected distinct items per kind, both titled %q", movie.Title)
	}
}

func TestStaleOnlyReportsWatchlistedItems(t *testing.T) {
	mediaRepo, watchRepo := newTestDB(t)

	old := time.Now().UTC().Add(-30 * 24 * time.Hour)
	for id, title := range map[int64]string{1: "Tracked", 2: "Untracked"} {
		if err := mediaRepo.Upsert(&models.MediaItem{
			ProviderID:    id,
			Kind:          models.KindMovie,
			Title:         title,
			LastRefreshed: old,
		}); err != nil {
			t.Fatalf("upsert %d returned error: %v", id, err)
		}
	}
	if _, err := watchRepo.Add(1, models.KindMovie, models.StatusPlanToWatch); err != nil {
		t.Fatalf("add returned error: %v", err)
	}

	stale, err := mediaRepo.Stale(time.Now().UTC().Add(-7 * 24 * time.Hour))
	if err != nil {
		t.Fatalf("stale returned error: %v", err)
	}
	if len(stale) != 1 {
		t.Fatalf("expected 1 stale item, got %d", len(stale))
	}
	if stale[0].ProviderID != 1 {
		t.Fatalf("expected the watchlisted item to be stale, got %d", stale[0].ProviderID)
	}
}
