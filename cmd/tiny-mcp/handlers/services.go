package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tinytools/tiny-erp-mcp/pkg/mcp"
)

// ServiceOrdersHandler exposes the service order tools.
type ServiceOrdersHandler struct {
	api API
}

// NewServiceOrdersHandler creates the service orders handler.
func NewServiceOrdersHandler(api API) *ServiceOrdersHandler {
	return &ServiceOrdersHandler{api: api}
}

// ListTools returns the service order tool definitions.
func (h *ServiceOrdersHandler) ListTools() []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        "tiny_service_orders_list",
			Description: "List service orders, optionally filtered by situation.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"situation": map[string]interface{}{
						"type":        "string",
						"description": "Situation filter",
					},
					"limit": map[string]interface{}{
						"type":        "number",
						"description": "Maximum number of results",
						"default":     50,
					},
					"offset": map[string]interface{}{
						"type":        "number",
						"description": "Pagination offset",
					},
				},
				"required": []string{},
			},
		},
		{
			Name:        "tiny_service_orders_get",
			Description: "Get a service order by ID.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"service_order_id": map[string]interface{}{
						"type":        "number",
						"description": "Service order ID",
					},
				},
				"required": []string{"service_order_id"},
			},
		},
		{
			Name:        "tiny_service_orders_create",
			Description: "Create a service order. The fields object follows the Tiny service order format.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"fields": map[string]interface{}{
						"type":        "object",
						"description": "Service order fields in Tiny API format",
					},
				},
				"required": []string{"fields"},
			},
		},
		{
			Name:        "tiny_service_orders_finish",
			Description: "Mark a service order as finished.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"service_order_id": map[string]interface{}{
						"type":        "number",
						"description": "Service order ID",
					},
				},
				"required": []string{"service_order_id"},
			},
		},
	}
}

// HandleTool dispatches one service order tool call.
func (h *ServiceOrdersHandler) HandleTool(call mcp.ToolCall) (mcp.ToolResult, error) {
	ctx := context.Background()

	switch call.Name {
	case "tiny_service_orders_list":
		query := pagingQuery(call.Arguments)
		if situation := stringArg(call.Arguments, "situation"); situation != "" {
			query.Set("situacao", situation)
		}
		raw, err := h.api.Get(ctx, "/ordem-servico", query)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil

	case "tiny_service_orders_get":
		id := numberArg(call.Arguments, "service_order_id", 0)
		raw, err := h.api.Get(ctx, "/ordem-servico/"+strconv.Itoa(id), nil)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil

	case "tiny_service_orders_create":
		raw, err := h.api.Post(ctx, "/ordem-servico", mapArg(call.Arguments, "fields"))
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil

	case "tiny_service_orders_finish":
		id := numberArg(call.Arguments, "service_order_id", 0)
		raw, err := h.api.Post(ctx, fmt.Sprintf("/ordem-servico/%d/concluir", id), nil)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil
	}

	return unknownTool(call.Name)
}
