package handlers

import (
	"context"
	"strconv"

	"github.com/tinytools/tiny-erp-mcp/pkg/mcp"
)

// PurchasingHandler exposes the purchase order tools.
type PurchasingHandler struct {
	api API
}

// NewPurchasingHandler creates the purchasing handler.
func NewPurchasingHandler(api API) *PurchasingHandler {
	return &PurchasingHandler{api: api}
}

// ListTools returns the purchase order tool definitions.
func (h *PurchasingHandler) ListTools() []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        "tiny_purchase_orders_list",
			Description: "List purchase orders, optionally filtered by situation or supplier.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"situation": map[string]interface{}{
						"type":        "string",
						"description": "Situation filter",
					},
					"supplier_id": map[string]interface{}{
						"type":        "number",
						"description": "Filter by supplier contact ID",
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
			Name:        "tiny_purchase_orders_get",
			Description: "Get a purchase order by ID with items and totals.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"purchase_order_id": map[string]interface{}{
						"type":        "number",
						"description": "Purchase order ID",
					},
				},
				"required": []string{"purchase_order_id"},
			},
		},
		{
			Name:        "tiny_purchase_orders_create",
			Description: "Create a purchase order. The fields object follows the Tiny purchase order format (fornecedor, itens, etc).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"fields": map[string]interface{}{
						"type":        "object",
						"description": "Purchase order fields in Tiny API format",
					},
				},
				"required": []string{"fields"},
			},
		},
	}
}

// HandleTool dispatches one purchase order tool call.
func (h *PurchasingHandler) HandleTool(call mcp.ToolCall) (mcp.ToolResult, error) {
	ctx := context.Background()

	switch call.Name {
	case "tiny_purchase_orders_list":
		query := pagingQuery(call.Arguments)
		if situation := stringArg(call.Arguments, "situation"); situation != "" {
			query.Set("situacao", situation)
		}
		if supplierID := numberArg(call.Arguments, "supplier_id", 0); supplierID > 0 {
			query.Set("idFornecedor", strconv.Itoa(supplierID))
		}
		raw, err := h.api.Get(ctx, "/ordem-compra", query)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil

	case "tiny_purchase_orders_get":
		id := numberArg(call.Arguments, "purchase_order_id", 0)
		raw, err := h.api.Get(ctx, "/ordem-compra/"+strconv.Itoa(id), nil)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil

	case "tiny_purchase_orders_create":
		raw, err := h.api.Post(ctx, "/ordem-compra", mapArg(call.Arguments, "fields"))
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil
	}

	return unknownTool(call.Name)
}
