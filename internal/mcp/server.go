package mcp

import (
	"net/http"

	"github.com/mark3labs/mcp-go/server"

	"cinelog/internal/core"
	"cinelog/internal/utils"
)

const serverVersion = "1.0.0"

// Server exposes the command surface as MCP tools, served over streamable
// HTTP or stdio.
type Server struct {
	mcpServer *server.MCPServer
	manager   *core.Manager
	logger    *utils.Logger
}

func NewServer(manager *core.Manager, logger *utils.Logger) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"cinelog",
			serverVersion,
			server.WithToolCapabilities(false),
			server.WithInstructions("Cinelog tracks a personal movie/series watchlist backed by TMDB metadata. Use search_provider or discover_provider to find titles, add_watchlist to track them, set_watchlist_status to move them through PlanToWatch/Watching/Watched/Dropped/OnHold, and list_watchlist to review them."),
		),
		manager: manager,
		logger:  logger,
	}
	s.registerTools()
	return s
}

// HTTPHandler returns the streamable HTTP transport, mountable under the
// REST server's mux.
func (s *Server) HTTPHandler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcpServer)
}

// ServeStdio runs the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
