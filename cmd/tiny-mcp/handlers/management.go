package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/tinytools/tiny-erp-mcp/internal/auth"
	"github.com/tinytools/tiny-erp-mcp/internal/config"
	"github.com/tinytools/tiny-erp-mcp/pkg/mcp"
)

// ManagementHandler exposes introspection tools: authentication state and
// the configured API endpoints.
type ManagementHandler struct {
	cfg   *config.Config
	store auth.Store
}

// NewManagementHandler creates the management handler.
func NewManagementHandler(cfg *config.Config, store auth.Store) *ManagementHandler {
	return &ManagementHandler{cfg: cfg, store: store}
}

// ListTools returns the management tool definitions.
func (h *ManagementHandler) ListTools() []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        "tiny_auth_status",
			Description: "Report whether the server holds valid Tiny credentials and when they expire.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
				"required":   []string{},
			},
		},
		{
			Name:        "tiny_api_info",
			Description: "Show the configured Tiny API base URL and OAuth endpoints.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
				"required":   []string{},
			},
		},
	}
}

// HandleTool dispatches one management tool call.
func (h *ManagementHandler) HandleTool(call mcp.ToolCall) (mcp.ToolResult, error) {
	switch call.Name {
	case "tiny_auth_status":
		return h.authStatus()
	case "tiny_api_info":
		var b strings.Builder
		fmt.Fprintf(&b, "API base URL: %s\n", h.cfg.APIBaseURL)
		fmt.Fprintf(&b, "Authorization endpoint: %s\n", h.cfg.AuthorizeURL())
		fmt.Fprintf(&b, "Token endpoint: %s\n", h.cfg.TokenURL())
		fmt.Fprintf(&b, "Redirect URI: %s\n", h.cfg.RedirectURI)
		return mcp.TextResult(b.String()), nil
	}

	return unknownTool(call.Name)
}

func (h *ManagementHandler) authStatus() (mcp.ToolResult, error) {
	pair, err := h.store.Load()
	if err != nil {
		return errorResult(err)
	}
	if pair == nil {
		return mcp.TextResult("Not authenticated. Run 'tiny-auth login' to connect this server to Tiny."), nil
	}

	now := time.Now()
	var b strings.Builder
	b.WriteString("Authenticated.\n")

	accessExpiry := time.UnixMilli(pair.AccessTokenExpiresAt)
	refreshExpiry := time.UnixMilli(pair.RefreshTokenExpiresAt)

	if pair.AccessTokenExpired(now) {
		b.WriteString("Access token: expired (will be refreshed on the next call)\n")
	} else {
		fmt.Fprintf(&b, "Access token: valid until %s\n", accessExpiry.Format(time.RFC3339))
	}

	if pair.RefreshTokenExpired(now) {
		b.WriteString("Refresh token: expired (re-authentication required)\n")
	} else {
		fmt.Fprintf(&b, "Refresh token: valid until %s\n", refreshExpiry.Format(time.RFC3339))
	}

	if info, err := auth.DecodeAccessToken(pair.AccessToken); err == nil {
		if info.Subject != "" {
			fmt.Fprintf(&b, "Subject: %s\n", info.Subject)
		}
		if info.Issuer != "" {
			fmt.Fprintf(&b, "Issuer: %s\n", info.Issuer)
		}
	}

	return mcp.TextResult(b.String()), nil
}
