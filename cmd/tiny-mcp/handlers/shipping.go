package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tinytools/tiny-erp-mcp/pkg/mcp"
)

// ShippingHandler exposes the shipment (expedition) tools.
type ShippingHandler struct {
	api API
}

// NewShippingHandler creates the shipping handler.
func NewShippingHandler(api API) *ShippingHandler {
	return &ShippingHandler{api: api}
}

// ListTools returns the shipping tool definitions.
func (h *ShippingHandler) ListTools() []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        "tiny_shipping_list",
			Description: "List expedition groups (shipments awaiting or in transit).",
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
			Name:        "tiny_shipping_get",
			Description: "Get an expedition group by ID with its orders and tracking state.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"shipment_id": map[string]interface{}{
						"type":        "number",
						"description": "Expedition group ID",
					},
				},
				"required": []string{"shipment_id"},
			},
		},
		{
			Name:        "tiny_shipping_update_tracking",
			Description: "Attach or update the tracking code of a shipment.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"shipment_id": map[string]interface{}{
						"type":        "number",
						"description": "Expedition group ID",
					},
					"tracking_code": map[string]interface{}{
						"type":        "string",
						"description": "Carrier tracking code",
					},
					"carrier": map[string]interface{}{
						"type":        "string",
						"description": "Optional carrier name",
					},
				},
				"required": []string{"shipment_id", "tracking_code"},
			},
		},
	}
}

// HandleTool dispatches one shipping tool call.
func (h *ShippingHandler) HandleTool(call mcp.ToolCall) (mcp.ToolResult, error) {
	ctx := context.Background()

	switch call.Name {
	case "tiny_shipping_list":
		query := pagingQuery(call.Arguments)
		if situation := stringArg(call.Arguments, "situation"); situation != "" {
			query.Set("situacao", situation)
		}
		raw, err := h.api.Get(ctx, "/expedicao", query)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil

	case "tiny_shipping_get":
		id := numberArg(call.Arguments, "shipment_id", 0)
		raw, err := h.api.Get(ctx, "/expedicao/"+strconv.Itoa(id), nil)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil

	case "tiny_shipping_update_tracking":
		id := numberArg(call.Arguments, "shipment_id", 0)
		body := map[string]interface{}{
			"codigoRastreamento": stringArg(call.Arguments, "tracking_code"),
		}
		if carrier := stringArg(call.Arguments, "carrier"); carrier != "" {
			body["transportadora"] = carrier
		}
		raw, err := h.api.Put(ctx, fmt.Sprintf("/expedicao/%d/rastreamento", id), body)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil
	}

	return unknownTool(call.Name)
}
