package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"cinelog/internal/config"
	"cinelog/internal/core"
	"cinelog/internal/utils"
)

type Server struct {
	config     *config.Config
	manager    *core.Manager
	logger     *utils.Logger
	httpServer *http.Server
	apiHandler *APIHandler
	mcpHandler http.Handler
}

func NewServer(cfg *config.Config, manager *core.Manager, mcpHandler http.Handler, logger *utils.Logger) *Server {
	return &Server{
		config:     cfg,
		manager:    manager,
		logger:     logger,
		apiHandler: NewAPIHandler(manager, logger),
		mcpHandler: mcpHandler,
	}
}

// Router builds the full HTTP surface: the MCP transport mounted under
// /mcp and the REST API mirroring the MCP commands under /api/v1.
func (s *Server) Router() http.Handler {
	router := mux.NewRouter()
	router.Use(s.requestIDMiddleware)

	if s.mcpHandler != nil {
		router.PathPrefix("/mcp").Handler(s.mcpHandler)
	}

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/search", s.apiHandler.Search).Methods("GET")
	api.HandleFunc("/discover/{kind}", s.apiHandler.Discover).Methods("GET")
	api.HandleFunc("/trending/{kind}/{window}", s.apiHandler.Trending).Methods("GET")
	api.HandleFunc("/details/{kind}/{id}", s.apiHandler.Details).Methods("GET")
	api.HandleFunc("/watchlist", s.apiHandler.GetWatchlist).Methods("GET")
	api.HandleFunc("/watchlist", s.apiHandler.AddWatchlist).Methods("POST")
	api.HandleFunc("/watchlist/{kind}/{id}", s.apiHandler.UpdateWatchlist).Methods("PATCH")
	api.HandleFunc("/watchlist/{kind}/{id}", s.apiHandler.RemoveWatchlist).Methods("DELETE")
	api.HandleFunc("/status", s.apiHandler.GetSystemStatus).Methods("GET")

	return router
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.App.Port),
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.logger.Info("Starting server on port", s.config.App.Port)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// requestIDMiddleware tags every request for log correlation.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)
		s.logger.Debug("Request", requestID, r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
