package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"cinelog/internal/core"
)

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("search_provider",
			mcp.WithDescription("Search the metadata provider for movies or series by title. Returns id, title, year and rating for each match."),
			mcp.WithString("query", mcp.Required(), mcp.Description("Title to search for")),
			mcp.WithString("kind", mcp.Required(), mcp.Description("Media kind: 'movie' or 'series'")),
		),
		s.handleSearch,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("discover_provider",
			mcp.WithDescription("Discover movies or series using provider filters such as with_genres, year or sort_by."),
			mcp.WithString("kind", mcp.Required(), mcp.Description("Media kind: 'movie' or 'series'")),
			mcp.WithObject("filters", mcp.Description("Provider filter parameters, e.g. {\"with_genres\": \"28\", \"sort_by\": \"popularity.desc\"}")),
		),
		s.handleDiscover,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("trending_provider",
			mcp.WithDescription("List trending movies or series for a time window."),
			mcp.WithString("kind", mcp.Required(), mcp.Description("Media kind: 'movie' or 'series'")),
			mcp.WithString("window", mcp.Description("Trending window: 'day' (default) or 'week'")),
		),
		s.handleTrending,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("fetch_provider",
			mcp.WithDescription("Fetch full metadata for one movie or series by provider id. The result is cached locally."),
			mcp.WithNumber("id", mcp.Required(), mcp.Description("Provider id of the item")),
			mcp.WithString("kind", mcp.Required(), mcp.Description("Media kind: 'movie' or 'series'")),
		),
		s.handleFetch,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("add_watchlist",
			mcp.WithDescription("Add a movie or series to the watchlist. Re-adding an item with a status updates it; without one the existing status is kept."),
			mcp.WithNumber("id", mcp.Required(), mcp.Description("Provider id of the item")),
			mcp.WithString("kind", mcp.Required(), mcp.Description("Media kind: 'movie' or 'series'")),
			mcp.WithString("status", mcp.Description("Status for the entry (default PlanToWatch for new entries): PlanToWatch, Watching, Watched, Dropped or OnHold")),
		),
		s.handleAdd,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("set_watchlist_status",
			mcp.WithDescription("Change the status of an existing watchlist entry. Any status may move to any other."),
			mcp.WithNumber("id", mcp.Required(), mcp.Description("Provider id of the item")),
			mcp.WithString("kind", mcp.Required(), mcp.Description("Media kind: 'movie' or 'series'")),
			mcp.WithString("status", mcp.Required(), mcp.Description("New status: PlanToWatch, Watching, Watched, Dropped or OnHold")),
			mcp.WithString("watched_date", mcp.Description("Optional date the item was finished, YYYY-MM-DD")),
		),
		s.handleSetStatus,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("remove_watchlist",
			mcp.WithDescription("Remove an entry from the watchlist. Removing an absent entry is a no-op."),
			mcp.WithNumber("id", mcp.Required(), mcp.Description("Provider id of the item")),
			mcp.WithString("kind", mcp.Required(), mcp.Description("Media kind: 'movie' or 'series'")),
		),
		s.handleRemove,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_watchlist",
			mcp.WithDescription("List watchlist entries with their cached metadata, most recently updated first."),
			mcp.WithString("status", mcp.Description("Filter by status")),
			mcp.WithString("kind", mcp.Description("Filter by media kind")),
		),
		s.handleList,
	)
}

func (s *Server) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := stringArg(req, "query")
	kind := stringArg(req, "kind")

	results, err := s.manager.Search(ctx, query, kind)
	if err != nil {
		return toolError(err), nil
	}
	return toolJSON(results)
}

func (s *Server) handleDiscover(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind := stringArg(req, "kind")

	filters := map[string]string{}
	if raw, ok := req.GetArguments()["filters"].(map[string]interface{}); ok {
		for key, value := range raw {
			filters[key] = fmt.Sprintf("%v", value)
		}
	}

	results, err := s.manager.Discover(ctx, kind, filters)
	if err != nil {
		return toolError(err), nil
	}
	return toolJSON(results)
}

func (s *Server) handleTrending(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	results, err := s.manager.Trending(ctx, stringArg(req, "kind"), stringArg(req, "window"))
	if err != nil {
		return toolError(err), nil
	}
	return toolJSON(results)
}

func (s *Server) handleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	item, err := s.manager.Fetch(ctx, intArg(req, "id"), stringArg(req, "kind"))
	if err != nil {
		return toolError(err), nil
	}
	return toolJSON(item)
}

func (s *Server) handleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entry, err := s.manager.AddToWatchlist(ctx, intArg(req, "id"), stringArg(req, "kind"), stringArg(req, "status"))
	if err != nil {
		return toolError(err), nil
	}
	return toolJSON(entry)
}

func (s *Server) handleSetStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entry, err := s.manager.SetWatchlistStatus(ctx,
		intArg(req, "id"), stringArg(req, "kind"),
		stringArg(req, "status"), stringArg(req, "watched_date"))
	if err != nil {
		return toolError(err), nil
	}
	return toolJSON(entry)
}

func (s *Server) handleRemove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.manager.RemoveFromWatchlist(intArg(req, "id"), stringArg(req, "kind")); err != nil {
		return toolError(err), nil
	}
	return toolJSON(map[string]string{"result": "removed"})
}

func (s *Server) handleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.manager.ListWatchlist(stringArg(req, "status"), stringArg(req, "kind"))
	if err != nil {
		return toolError(err), nil
	}
	return toolJSON(entries)
}

// toolJSON marshals v as the single structured result of a command.
func toolJSON(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// toolError wraps a command failure into the structured error envelope with
// its stable kind.
func toolError(err error) *mcp.CallToolResult {
	envelope := map[string]string{
		"kind":  string(core.KindOf(err)),
		"error": err.Error(),
	}
	data, marshalErr := json.Marshal(envelope)
	if marshalErr != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultError(string(data))
}

func stringArg(req mcp.CallToolRequest, key string) string {
	v, _ := req.GetArguments()[key].(string)
	return v
}

// intArg tolerates JSON numbers and numeric strings; validation of the
// value itself happens in the manager.
func intArg(req mcp.CallToolRequest, key string) int64 {
	switch v := req.GetArguments()[key].(type) {
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}
