package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/tinytools/tiny-erp-mcp/cmd/tiny-mcp/handlers"
	"github.com/tinytools/tiny-erp-mcp/internal/auth"
	"github.com/tinytools/tiny-erp-mcp/internal/config"
	"github.com/tinytools/tiny-erp-mcp/internal/tiny"
	"github.com/tinytools/tiny-erp-mcp/pkg/mcp"
)

const (
	serverName    = "tiny-erp-mcp"
	serverVersion = "1.0.0"
)

func main() {
	// Logs go to stderr so stdout stays clean for the stdio transport.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	config.LoadEnv(".env")

	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrMissingCredentials) {
			// Start anyway: every tool call will report the same error
			// until credentials are supplied.
			logger.Warn("starting without Tiny credentials", "error", err)
		} else {
			logger.Error("loading configuration", "error", err)
			os.Exit(1)
		}
	}

	store, err := auth.NewStoreFromEnv()
	if err != nil {
		logger.Error("initializing token store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	authenticator := auth.NewAuthenticator(cfg, store)
	client := tiny.NewClient(cfg, authenticator)

	server := mcp.NewServer(serverName, serverVersion)
	registerAll(server,
		handlers.NewProductsHandler(client),
		handlers.NewOrdersHandler(client),
		handlers.NewInvoicesHandler(client),
		handlers.NewContactsHandler(client),
		handlers.NewCRMHandler(client),
		handlers.NewFinanceHandler(client),
		handlers.NewPurchasingHandler(client),
		handlers.NewServiceOrdersHandler(client),
		handlers.NewShippingHandler(client),
		handlers.NewManagementHandler(cfg, store),
	)

	transport := os.Getenv("MCP_TRANSPORT")
	port := 3000
	if raw := os.Getenv("MCP_PORT"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			port = n
		}
	}

	switch transport {
	case "", "stdio":
		if err := server.ServeStdio(); err != nil {
			logger.Error("stdio transport", "error", err)
			os.Exit(1)
		}
	case "http":
		logger.Info("serving MCP over HTTP", "port", port)
		if err := mcp.NewHTTPServer(server).ListenAndServe(port); err != nil {
			logger.Error("http transport", "error", err)
			os.Exit(1)
		}
	case "sse":
		logger.Info("serving MCP over SSE", "port", port)
		if err := mcp.NewSSEServer(server).ListenAndServe(port); err != nil {
			logger.Error("sse transport", "error", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown MCP_TRANSPORT %q (want stdio, http, or sse)\n", transport)
		os.Exit(1)
	}
}

// toolHandler is the shape every entity handler shares.
type toolHandler interface {
	ListTools() []mcp.Tool
	HandleTool(call mcp.ToolCall) (mcp.ToolResult, error)
}

func registerAll(server *mcp.Server, all ...toolHandler) {
	for _, h := range all {
		for _, tool := range h.ListTools() {
			server.Register(tool, h.HandleTool)
		}
	}
}
