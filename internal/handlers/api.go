package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"cinelog/internal/core"
	"cinelog/internal/utils"
)

type APIHandler struct {
	manager *core.Manager
	logger  *utils.Logger
}

func NewAPIHandler(manager *core.Manager, logger *utils.Logger) *APIHandler {
	return &APIHandler{manager: manager, logger: logger}
}

// A helper function to respond with JSON
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// respondCommandError maps the error taxonomy onto HTTP statuses and writes
// the single error envelope.
func respondCommandError(w http.ResponseWriter, err error) {
	kind := core.KindOf(err)
	var status int
	switch kind {
	case core.KindInvalidParameters:
		status = http.StatusBadRequest
	case core.KindNotFound, core.KindEntryNotFound:
		status = http.StatusNotFound
	case core.KindProviderUnavailable:
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
	}
	respondJSON(w, status, map[string]string{
		"error": err.Error(),
		"kind":  string(kind),
	})
}

func (h *APIHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	kind := r.URL.Query().Get("kind")

	results, err := h.manager.Search(r.Context(), query, kind)
	if err != nil {
		respondCommandError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, results)
}

func (h *APIHandler) Discover(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	filters := map[string]string{}
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			filters[key] = values[0]
		}
	}

	results, err := h.manager.Discover(r.Context(), vars["kind"], filters)
	if err != nil {
		respondCommandError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, results)
}

func (h *APIHandler) Trending(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	results, err := h.manager.Trending(r.Context(), vars["kind"], vars["window"])
	if err != nil {
		respondCommandError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, results)
}

func (h *APIHandler) Details(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "id must be a number",
			"kind":  string(core.KindInvalidParameters),
		})
		return
	}

	item, err := h.manager.Fetch(r.Context(), id, vars["kind"])
	if err != nil {
		respondCommandError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h *APIHandler) GetWatchlist(w http.ResponseWriter, r *http.Request) {
	entries, err := h.manager.ListWatchlist(r.URL.Query().Get("status"), r.URL.Query().Get("kind"))
	if err != nil {
		respondCommandError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

func (h *APIHandler) AddWatchlist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     int64  `json:"id"`
		Kind   string `json:"kind"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
			"kind":  string(core.KindInvalidParameters),
		})
		return
	}

	entry, err := h.manager.AddToWatchlist(r.Context(), req.ID, req.Kind, req.Status)
	if err != nil {
		respondCommandError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

func (h *APIHandler) UpdateWatchlist(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "id must be a number",
			"kind":  string(core.KindInvalidParameters),
		})
		return
	}

	var req struct {
		Status      string `json:"status"`
		WatchedDate string `json:"watched_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
			"kind":  string(core.KindInvalidParameters),
		})
		return
	}

	entry, err := h.manager.SetWatchlistStatus(r.Context(), id, vars["kind"], req.Status, req.WatchedDate)
	if err != nil {
		respondCommandError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

func (h *APIHandler) RemoveWatchlist(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "id must be a number",
			"kind":  string(core.KindInvalidParameters),
		})
		return
	}

	if err := h.manager.RemoveFromWatchlist(id, vars["kind"]); err != nil {
		respondCommandError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) GetSystemStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.manager.SystemStatus(r.Context()))
}
