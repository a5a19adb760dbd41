package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tinytools/tiny-erp-mcp/pkg/mcp"
)

// CRMHandler exposes the CRM opportunity tools.
type CRMHandler struct {
	api API
}

// NewCRMHandler creates the CRM handler.
func NewCRMHandler(api API) *CRMHandler {
	return &CRMHandler{api: api}
}

// ListTools returns the CRM tool definitions.
func (h *CRMHandler) ListTools() []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        "tiny_crm_list_opportunities",
			Description: "List CRM opportunities, optionally filtered by stage or contact.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"stage": map[string]interface{}{
						"type":        "string",
						"description": "Filter by pipeline stage",
					},
					"contact_id": map[string]interface{}{
						"type":        "number",
						"description": "Filter by contact ID",
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
			Name:        "tiny_crm_get_opportunity",
			Description: "Get a CRM opportunity by ID.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"opportunity_id": map[string]interface{}{
						"type":        "number",
						"description": "Opportunity ID",
					},
				},
				"required": []string{"opportunity_id"},
			},
		},
		{
			Name:        "tiny_crm_create_opportunity",
			Description: "Create a CRM opportunity. The fields object follows the Tiny opportunity format.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"fields": map[string]interface{}{
						"type":        "object",
						"description": "Opportunity fields in Tiny API format",
					},
				},
				"required": []string{"fields"},
			},
		},
		{
			Name:        "tiny_crm_update_stage",
			Description: "Move a CRM opportunity to another pipeline stage.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"opportunity_id": map[string]interface{}{
						"type":        "number",
						"description": "Opportunity ID",
					},
					"stage": map[string]interface{}{
						"type":        "string",
						"description": "Target stage",
					},
				},
				"required": []string{"opportunity_id", "stage"},
			},
		},
	}
}

// HandleTool dispatches one CRM tool call.
func (h *CRMHandler) HandleTool(call mcp.ToolCall) (mcp.ToolResult, error) {
	ctx := context.Background()

	switch call.Name {
	case "tiny_crm_list_opportunities":
		query := pagingQuery(call.Arguments)
		if stage := stringArg(call.Arguments, "stage"); stage != "" {
			query.Set("estagio", stage)
		}
		if contactID := numberArg(call.Arguments, "contact_id", 0); contactID > 0 {
			query.Set("idContato", strconv.Itoa(contactID))
		}
		raw, err := h.api.Get(ctx, "/crm/oportunidades", query)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil

	case "tiny_crm_get_opportunity":
		id := numberArg(call.Arguments, "opportunity_id", 0)
		raw, err := h.api.Get(ctx, "/crm/oportunidades/"+strconv.Itoa(id), nil)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil

	case "tiny_crm_create_opportunity":
		raw, err := h.api.Post(ctx, "/crm/oportunidades", mapArg(call.Arguments, "fields"))
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil

	case "tiny_crm_update_stage":
		id := numberArg(call.Arguments, "opportunity_id", 0)
		body := map[string]interface{}{
			"estagio": stringArg(call.Arguments, "stage"),
		}
		raw, err := h.api.Put(ctx, fmt.Sprintf("/crm/oportunidades/%d/estagio", id), body)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil
	}

	return unknownTool(call.Name)
}
