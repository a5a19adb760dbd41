package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tinytools/tiny-erp-mcp/pkg/mcp"
)

// FinanceHandler exposes the receivables and payables tools.
type FinanceHandler struct {
	api API
}

// NewFinanceHandler creates the finance handler.
func NewFinanceHandler(api API) *FinanceHandler {
	return &FinanceHandler{api: api}
}

// ListTools returns the finance tool definitions.
func (h *FinanceHandler) ListTools() []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        "tiny_finance_list_receivables",
			Description: "List accounts receivable, optionally by situation or due date range.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"situation": map[string]interface{}{
						"type":        "string",
						"description": "Situation filter (e.g. aberto, pago, cancelado)",
					},
					"start_date": map[string]interface{}{
						"type":        "string",
						"description": "Initial due date, YYYY-MM-DD",
					},
					"end_date": map[string]interface{}{
						"type":        "string",
						"description": "Final due date, YYYY-MM-DD",
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
			Name:        "tiny_finance_get_receivable",
			Description: "Get an account receivable by ID.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"receivable_id": map[string]interface{}{
						"type":        "number",
						"description": "Receivable ID",
					},
				},
				"required": []string{"receivable_id"},
			},
		},
		{
			Name:        "tiny_finance_settle_receivable",
			Description: "Mark an account receivable as paid (settle it).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"receivable_id": map[string]interface{}{
						"type":        "number",
						"description": "Receivable ID",
					},
					"paid_date": map[string]interface{}{
						"type":        "string",
						"description": "Payment date, YYYY-MM-DD; defaults to today on the server",
					},
					"amount": map[string]interface{}{
						"type":        "number",
						"description": "Amount paid; defaults to the open amount",
					},
				},
				"required": []string{"receivable_id"},
			},
		},
		{
			Name:        "tiny_finance_list_payables",
			Description: "List accounts payable, optionally by situation or due date range.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"situation": map[string]interface{}{
						"type":        "string",
						"description": "Situation filter",
					},
					"start_date": map[string]interface{}{
						"type":        "string",
						"description": "Initial due date, YYYY-MM-DD",
					},
					"end_date": map[string]interface{}{
						"type":        "string",
						"description": "Final due date, YYYY-MM-DD",
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
			Name:        "tiny_finance_get_payable",
			Description: "Get an account payable by ID.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"payable_id": map[string]interface{}{
						"type":        "number",
						"description": "Payable ID",
					},
				},
				"required": []string{"payable_id"},
			},
		},
	}
}

// HandleTool dispatches one finance tool call.
func (h *FinanceHandler) HandleTool(call mcp.ToolCall) (mcp.ToolResult, error) {
	ctx := context.Background()

	switch call.Name {
	case "tiny_finance_list_receivables", "tiny_finance_list_payables":
		path := "/contas-receber"
		if call.Name == "tiny_finance_list_payables" {
			path = "/contas-pagar"
		}
		query := pagingQuery(call.Arguments)
		if situation := stringArg(call.Arguments, "situation"); situation != "" {
			query.Set("situacao", situation)
		}
		if start := stringArg(call.Arguments, "start_date"); start != "" {
			query.Set("dataInicialVencimento", start)
		}
		if end := stringArg(call.Arguments, "end_date"); end != "" {
			query.Set("dataFinalVencimento", end)
		}
		raw, err := h.api.Get(ctx, path, query)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil

	case "tiny_finance_get_receivable":
		id := numberArg(call.Arguments, "receivable_id", 0)
		raw, err := h.api.Get(ctx, "/contas-receber/"+strconv.Itoa(id), nil)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil

	case "tiny_finance_settle_receivable":
		id := numberArg(call.Arguments, "receivable_id", 0)
		body := map[string]interface{}{}
		if paidDate := stringArg(call.Arguments, "paid_date"); paidDate != "" {
			body["dataPagamento"] = paidDate
		}
		if amount, ok := call.Arguments["amount"].(float64); ok {
			body["valorPago"] = amount
		}
		raw, err := h.api.Post(ctx, fmt.Sprintf("/contas-receber/%d/baixar", id), body)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil

	case "tiny_finance_get_payable":
		id := numberArg(call.Arguments, "payable_id", 0)
		raw, err := h.api.Get(ctx, "/contas-pagar/"+strconv.Itoa(id), nil)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil
	}

	return unknownTool(call.Name)
}
