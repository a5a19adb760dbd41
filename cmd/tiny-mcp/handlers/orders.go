package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tinytools/tiny-erp-mcp/pkg/mcp"
)

// OrdersHandler exposes the sales order tools.
type OrdersHandler struct {
	api API
}

// NewOrdersHandler creates the orders handler.
func NewOrdersHandler(api API) *OrdersHandler {
	return &OrdersHandler{api: api}
}

// ListTools returns the order tool definitions.
func (h *OrdersHandler) ListTools() []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        "tiny_orders_list",
			Description: "List sales orders, optionally filtered by situation or date range.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"situation": map[string]interface{}{
						"type":        "string",
						"description": "Order situation filter (e.g. aberto, faturado, cancelado)",
					},
					"start_date": map[string]interface{}{
						"type":        "string",
						"description": "Initial issue date, YYYY-MM-DD",
					},
					"end_date": map[string]interface{}{
						"type":        "string",
						"description": "Final issue date, YYYY-MM-DD",
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
			Name:        "tiny_orders_get",
			Description: "Get a sales order by ID with items, totals and shipping data.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"order_id": map[string]interface{}{
						"type":        "number",
						"description": "Order ID",
					},
				},
				"required": []string{"order_id"},
			},
		},
		{
			Name:        "tiny_orders_create",
			Description: "Create a sales order. The fields object follows the Tiny order format (cliente, itens, etc).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"fields": map[string]interface{}{
						"type":        "object",
						"description": "Order fields in Tiny API format",
					},
				},
				"required": []string{"fields"},
			},
		},
		{
			Name:        "tiny_orders_update_situation",
			Description: "Change the situation of a sales order.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"order_id": map[string]interface{}{
						"type":        "number",
						"description": "Order ID",
					},
					"situation": map[string]interface{}{
						"type":        "string",
						"description": "New situation",
					},
				},
				"required": []string{"order_id", "situation"},
			},
		},
		{
			Name:        "tiny_orders_generate_invoice",
			Description: "Generate the fiscal invoice for a sales order.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"order_id": map[string]interface{}{
						"type":        "number",
						"description": "Order ID",
					},
				},
				"required": []string{"order_id"},
			},
		},
	}
}

// HandleTool dispatches one order tool call.
func (h *OrdersHandler) HandleTool(call mcp.ToolCall) (mcp.ToolResult, error) {
	ctx := context.Background()

	switch call.Name {
	case "tiny_orders_list":
		query := pagingQuery(call.Arguments)
		if situation := stringArg(call.Arguments, "situation"); situation != "" {
			query.Set("situacao", situation)
		}
		if start := stringArg(call.Arguments, "start_date"); start != "" {
			query.Set("dataInicialOcorrencia", start)
		}
		if end := stringArg(call.Arguments, "end_date"); end != "" {
			query.Set("dataFinalOcorrencia", end)
		}
		raw, err := h.api.Get(ctx, "/pedidos", query)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil

	case "tiny_orders_get":
		id := numberArg(call.Arguments, "order_id", 0)
		raw, err := h.api.Get(ctx, "/pedidos/"+strconv.Itoa(id), nil)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil

	case "tiny_orders_create":
		raw, err := h.api.Post(ctx, "/pedidos", mapArg(call.Arguments, "fields"))
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil

	case "tiny_orders_update_situation":
		id := numberArg(call.Arguments, "order_id", 0)
		body := map[string]interface{}{
			"situacao": stringArg(call.Arguments, "situation"),
		}
		raw, err := h.api.Put(ctx, fmt.Sprintf("/pedidos/%d/situacao", id), body)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil

	case "tiny_orders_generate_invoice":
		id := numberArg(call.Arguments, "order_id", 0)
		raw, err := h.api.Post(ctx, fmt.Sprintf("/pedidos/%d/gerar-nota-fiscal", id), nil)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil
	}

	return unknownTool(call.Name)
}
