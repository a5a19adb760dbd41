package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/tinytools/tiny-erp-mcp/internal/auth"
	"github.com/tinytools/tiny-erp-mcp/internal/config"
	"github.com/tinytools/tiny-erp-mcp/internal/tiny"
	"github.com/tinytools/tiny-erp-mcp/pkg/mcp"
)

// API is the slice of the request pipeline the tool handlers use.
type API interface {
	Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error)
	Post(ctx context.Context, path string, body interface{}) (json.RawMessage, error)
	Put(ctx context.Context, path string, body interface{}) (json.RawMessage, error)
	Delete(ctx context.Context, path string) (json.RawMessage, error)
}

// jsonResult renders an API payload as pretty-printed JSON text.
func jsonResult(raw json.RawMessage) mcp.ToolResult {
	var buf interface{}
	if err := json.Unmarshal(raw, &buf); err != nil {
		return mcp.TextResult(string(raw))
	}
	pretty, err := json.MarshalIndent(buf, "", "  ")
	if err != nil {
		return mcp.TextResult(string(raw))
	}
	return mcp.TextResult(string(pretty))
}

// errorResult converts a pipeline error into a human-readable tool error.
// Nothing is swallowed: the error is also returned for transports that log.
func errorResult(err error) (mcp.ToolResult, error) {
	var apiErr *tiny.APIError
	var exchErr *auth.ExchangeError

	switch {
	case errors.Is(err, config.ErrMissingCredentials):
		return mcp.Errorf("Configuration error: %v", err), err
	case errors.Is(err, auth.ErrNotAuthenticated):
		return mcp.Errorf("Not authenticated. Run 'tiny-auth login' and try again."), err
	case errors.Is(err, auth.ErrSessionExpired):
		return mcp.Errorf("Session expired. Run 'tiny-auth login' to re-authenticate."), err
	case errors.As(err, &exchErr):
		return mcp.Errorf("Authentication error: %v", exchErr), err
	case errors.Is(err, tiny.ErrRequestTimeout):
		return mcp.Errorf("The Tiny API did not respond in time. Try again later."), err
	case errors.Is(err, tiny.ErrNetwork):
		return mcp.Errorf("Could not reach the Tiny API: %v", err), err
	case errors.As(err, &apiErr):
		return mcp.Errorf("%v", apiErr), err
	default:
		return mcp.Errorf("Error: %v", err), err
	}
}

func stringArg(args map[string]interface{}, key string) string {
	val, _ := args[key].(string)
	return val
}

// numberArg accepts the JSON number forms clients actually send.
func numberArg(args map[string]interface{}, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func mapArg(args map[string]interface{}, key string) map[string]interface{} {
	val, _ := args[key].(map[string]interface{})
	return val
}

// pagingQuery builds the standard limit/offset listing parameters.
func pagingQuery(args map[string]interface{}) url.Values {
	query := url.Values{}
	if limit := numberArg(args, "limit", 0); limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset := numberArg(args, "offset", 0); offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}
	return query
}

// unknownTool is the shared fallback for a name that reached the wrong
// handler.
func unknownTool(name string) (mcp.ToolResult, error) {
	err := fmt.Errorf("unknown tool: %s", name)
	return mcp.Errorf("Unknown tool: %s", name), err
}
