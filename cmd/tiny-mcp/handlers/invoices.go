package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tinytools/tiny-erp-mcp/pkg/mcp"
)

// InvoicesHandler exposes the fiscal invoice tools.
type InvoicesHandler struct {
	api API
}

// NewInvoicesHandler creates the invoices handler.
func NewInvoicesHandler(api API) *InvoicesHandler {
	return &InvoicesHandler{api: api}
}

// ListTools returns the invoice tool definitions.
func (h *InvoicesHandler) ListTools() []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        "tiny_invoices_list",
			Description: "List fiscal invoices, optionally by situation, type or date range.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"situation": map[string]interface{}{
						"type":        "string",
						"description": "Invoice situation filter",
					},
					"type": map[string]interface{}{
						"type":        "string",
						"description": "Invoice type: E (inbound) or S (outbound)",
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
			Name:        "tiny_invoices_get",
			Description: "Get a fiscal invoice by ID.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"invoice_id": map[string]interface{}{
						"type":        "number",
						"description": "Invoice ID",
					},
				},
				"required": []string{"invoice_id"},
			},
		},
		{
			Name:        "tiny_invoices_get_xml",
			Description: "Get the XML document of an authorized fiscal invoice.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"invoice_id": map[string]interface{}{
						"type":        "number",
						"description": "Invoice ID",
					},
				},
				"required": []string{"invoice_id"},
			},
		},
		{
			Name:        "tiny_invoices_authorize",
			Description: "Send a fiscal invoice for authorization (emission).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"invoice_id": map[string]interface{}{
						"type":        "number",
						"description": "Invoice ID",
					},
				},
				"required": []string{"invoice_id"},
			},
		},
	}
}

// HandleTool dispatches one invoice tool call.
func (h *InvoicesHandler) HandleTool(call mcp.ToolCall) (mcp.ToolResult, error) {
	ctx := context.Background()

	switch call.Name {
	case "tiny_invoices_list":
		query := pagingQuery(call.Arguments)
		if situation := stringArg(call.Arguments, "situation"); situation != "" {
			query.Set("situacao", situation)
		}
		if invType := stringArg(call.Arguments, "type"); invType != "" {
			query.Set("tipo", invType)
		}
		if start := stringArg(call.Arguments, "start_date"); start != "" {
			query.Set("dataInicial", start)
		}
		if end := stringArg(call.Arguments, "end_date"); end != "" {
			query.Set("dataFinal", end)
		}
		raw, err := h.api.Get(ctx, "/notas", query)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil

	case "tiny_invoices_get":
		id := numberArg(call.Arguments, "invoice_id", 0)
		raw, err := h.api.Get(ctx, "/notas/"+strconv.Itoa(id), nil)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil

	case "tiny_invoices_get_xml":
		id := numberArg(call.Arguments, "invoice_id", 0)
		raw, err := h.api.Get(ctx, fmt.Sprintf("/notas/%d/xml", id), nil)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil

	case "tiny_invoices_authorize":
		id := numberArg(call.Arguments, "invoice_id", 0)
		raw, err := h.api.Post(ctx, fmt.Sprintf("/notas/%d/emitir", id), nil)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil
	}

	return unknownTool(call.Name)
}
