package handlers

import (
	"context"
	"strconv"

	"github.com/tinytools/tiny-erp-mcp/pkg/mcp"
)

// ContactsHandler exposes the contact (customers and suppliers) tools.
type ContactsHandler struct {
	api API
}

// NewContactsHandler creates the contacts handler.
func NewContactsHandler(api API) *ContactsHandler {
	return &ContactsHandler{api: api}
}

// ListTools returns the contact tool definitions.
func (h *ContactsHandler) ListTools() []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        "tiny_contacts_list",
			Description: "List or search contacts (customers and suppliers).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"search": map[string]interface{}{
						"type":        "string",
						"description": "Free-text search over name, document and email",
					},
					"document": map[string]interface{}{
						"type":        "string",
						"description": "Filter by CPF/CNPJ",
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
			Name:        "tiny_contacts_get",
			Description: "Get a contact by ID with addresses and fiscal data.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"contact_id": map[string]interface{}{
						"type":        "number",
						"description": "Contact ID",
					},
				},
				"required": []string{"contact_id"},
			},
		},
		{
			Name:        "tiny_contacts_create",
			Description: "Create a contact. The fields object follows the Tiny contact format (nome, cpfCnpj, etc).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"fields": map[string]interface{}{
						"type":        "object",
						"description": "Contact fields in Tiny API format",
					},
				},
				"required": []string{"fields"},
			},
		},
		{
			Name:        "tiny_contacts_update",
			Description: "Update an existing contact.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"contact_id": map[string]interface{}{
						"type":        "number",
						"description": "Contact ID",
					},
					"fields": map[string]interface{}{
						"type":        "object",
						"description": "Fields to change",
					},
				},
				"required": []string{"contact_id", "fields"},
			},
		},
	}
}

// HandleTool dispatches one contact tool call.
func (h *ContactsHandler) HandleTool(call mcp.ToolCall) (mcp.ToolResult, error) {
	ctx := context.Background()

	switch call.Name {
	case "tiny_contacts_list":
		query := pagingQuery(call.Arguments)
		if search := stringArg(call.Arguments, "search"); search != "" {
			query.Set("nome", search)
		}
		if document := stringArg(call.Arguments, "document"); document != "" {
			query.Set("cpfCnpj", document)
		}
		raw, err := h.api.Get(ctx, "/contatos", query)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil

	case "tiny_contacts_get":
		id := numberArg(call.Arguments, "contact_id", 0)
		raw, err := h.api.Get(ctx, "/contatos/"+strconv.Itoa(id), nil)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil

	case "tiny_contacts_create":
		raw, err := h.api.Post(ctx, "/contatos", mapArg(call.Arguments, "fields"))
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil

	case "tiny_contacts_update":
		id := numberArg(call.Arguments, "contact_id", 0)
		raw, err := h.api.Put(ctx, "/contatos/"+strconv.Itoa(id), mapArg(call.Arguments, "fields"))
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(raw), nil
	}

	return unknownTool(call.Name)
}
