package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tinytools/tiny-erp-mcp/pkg/mcp"
)

// ProductsHandler exposes the product catalog tools.
type ProductsHandler struct {
	api API
}

// NewProductsHandler creates the products handler.
func NewProductsHandler(api API) *ProductsHandler {
	return &ProductsHandler{api: api}
}

// ListTools returns the product tool definitions.
func (h *ProductsHandler) ListTools() []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        "tiny_products_list",
			Description: "List or search products in the catalog. Supports free-text search and pagination.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"search": map[string]interface{}{
						"type":        "string",
						"description": "Free-text search over name, SKU and GTIN",
					},
					"situation": map[string]interface{}{
						"type":        "string",
						"description": "Filter by situation: A (active), I (inactive), E (excluded)",
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
			Name:        "tiny_products_get",
			Description: "Get a product by its numeric ID, including pricing and stock fields.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"product_id": map[string]interface{}{
						"type":        "number",
						"description": "Product ID",
					},
				},
				"required": []string{"product_id"},
			},
		},
		{
			Name:        "tiny_products_create",
			Description: "Create a new product. The fields object follows the Tiny product format (descricao, sku, preco, etc).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"fields": map[string]interface{}{
						"type":        "object",
						"description": "Product fields in Tiny API format",
					},
				},
				"required": []string{"fields"},
			},
		},
		{
			Name:        "tiny_products_update",
			Description: "Update an existing product.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"product_id": map[string]interface{}{
						"type":        "number",
						"description": "Product ID",
					},
					"fields": map[string]interface{}{
						"type":        "object",
						"description": "Fields to change",
					},
				},
				"required": []string{"product_id", "fields"},
			},
		},
		{
			Name:        "tiny_products_update_stock",
			Description: "Post a stock movement (entry or exit) for a product.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"product_id": map[string]interface{}{
						"type":        "number",
						"description": "Product ID",
					},
					"type": map[string]interface{}{
						"type":        "string",
						"description": "Movement type: E (entry) or S (exit)",
					},
					"quantity": map[string]interface{}{
						"type":        "number",
						"description": "Quantity to move",
					},
					"note": map[string]interface{}{
						"type":        "string",
						"description": "Optional movement note",
					},
				},
				"required": []string{"product_id", "type", "quantity"},
			},
		},
	}
}

// HandleTool dispatches one product tool call.
func (h *ProductsHandler) HandleTool(call mcp.ToolCall) (mcp.ToolResult, error) {
	ctx := context.Background()

	switch call.Name {
	case "tiny_products_list":
		query := pagingQuery(call.Arguments)
		if search := stringArg(call.Arguments, "search"); search != "" {
			query.Set("nome", search)
		}
		if situation := stringArg(call.Arguments, "situation"); situation != "" {
			query.Set("situacao", situation)
		}
		raw, err := h.api.Get(ctx, "/produtos", query)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil

	case "tiny_products_get":
		id := numberArg(call.Arguments, "product_id", 0)
		raw, err := h.api.Get(ctx, "/produtos/"+strconv.Itoa(id), nil)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil

	case "tiny_products_create":
		raw, err := h.api.Post(ctx, "/produtos", mapArg(call.Arguments, "fields"))
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil

	case "tiny_products_update":
		id := numberArg(call.Arguments, "product_id", 0)
		raw, err := h.api.Put(ctx, "/produtos/"+strconv.Itoa(id), mapArg(call.Arguments, "fields"))
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil

	case "tiny_products_update_stock":
		id := numberArg(call.Arguments, "product_id", 0)
		body := map[string]interface{}{
			"tipo":       stringArg(call.Arguments, "type"),
			"quantidade": numberArg(call.Arguments, "quantity", 0),
		}
		if note := stringArg(call.Arguments, "note"); note != "" {
			body["observacoes"] = note
		}
		raw, err := h.api.Post(ctx, fmt.Sprintf("/estoque/%d", id), body)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil
	}

	return unknownTool(call.Name)
}
