package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
)

// A tiny stand-in for the TMDB API so the server can be exercised without a
// real API key. Point TMDB_BASE_URL at it, any api_key is accepted.
func main() {
	http.HandleFunc("/", providerRouter)

	fmt.Println("Fake metadata provider starting on :8090")
	fmt.Println("Set TMDB_BASE_URL=http://localhost:8090 and any TMDB_API_KEY")
	log.Fatal(http.ListenAndServe(":8090", nil))
}

func providerRouter(w http.ResponseWriter, r *http.Request) {
	log.Printf("Received request URL: %s", r.URL.String())
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case len(parts) >= 2 && parts[0] == "search":
		searchHandler(w, r, parts[1])
	case len(parts) >= 2 && parts[0] == "discover":
		listHandler(w, parts[1], "Discovered")
	case len(parts) >= 3 && parts[0] == "trending":
		listHandler(w, parts[1], "Trending")
	case len(parts) == 2:
		detailsHandler(w, parts[0], parts[1])
	default:
		http.NotFound(w, r)
	}
}

func searchHandler(w http.ResponseWriter, r *http.Request, mediaType string) {
	query := r.URL.Query().Get("query")
	if query == "" {
		query = "Untitled"
	}

	var results []map[string]interface{}
	for i := 0; i < 5; i++ {
		results = append(results, summaryJSON(mediaType, int64(1000+i), fmt.Sprintf("%s %d", query, i+1)))
	}
	writeJSON(w, map[string]interface{}{"results": results})
}

func listHandler(w http.ResponseWriter, mediaType, prefix string) {
	var results []map[string]interface{}
	for i := 0; i < 10; i++ {
		results = append(results, summaryJSON(mediaType, int64(2000+i), fmt.Sprintf("%s Title %d", prefix, i+1)))
	}
	writeJSON(w, map[string]interface{}{"results": results})
}

func detailsHandler(w http.ResponseWriter, mediaType, idStr string) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.NotFound(w, nil)
		return
	}
	// Mimic the provider's 404 for unknown ids.
	if id >= 900000 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"status_message": "The resource you requested could not be found."})
		return
	}

	details := summaryJSON(mediaType, id, fmt.Sprintf("Fake Title %d", id))
	details["overview"] = "A thrilling fake production."
	details["poster_path"] = fmt.Sprintf("/fake%d.jpg", id)
	details["genres"] = []map[string]interface{}{
		{"id": 28, "name": "Action"},
		{"id": 35, "name": "Comedy"},
	}
	details["external_ids"] = map[string]string{"imdb_id": fmt.Sprintf("tt%07d", id)}
	if mediaType == "tv" {
		details["episode_run_time"] = []int{45}
	} else {
		details["runtime"] = 90 + rand.Intn(60)
	}
	writeJSON(w, details)
}

func summaryJSON(mediaType string, id int64, title string) map[string]interface{} {
	item := map[string]interface{}{
		"id":           id,
		"vote_average": 5.0 + rand.Float64()*5,
	}
	if mediaType == "tv" {
		item["name"] = title
		item["first_air_date"] = "2021-03-04"
	} else {
		item["title"] = title
		item["release_date"] = "2020-01-02"
	}
	return item
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
