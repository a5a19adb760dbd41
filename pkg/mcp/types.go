package mcp

import "fmt"

// Tool describes a callable tool exposed to MCP clients.
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// ToolCall is a single tool invocation request.
type ToolCall struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// ToolResult is the outcome of a tool call.
type ToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// ContentBlock is one block of tool output.
type ContentBlock struct {
	Type string `json:"type"` // currently always "text"
	Text string `json:"text,omitempty"`
}

// TextResult wraps plain text in a successful tool result.
func TextResult(text string) ToolResult {
	return ToolResult{
		Content: []ContentBlock{{Type: "text", Text: text}},
	}
}

// Errorf builds an error tool result from a format string.
func Errorf(format string, args ...interface{}) ToolResult {
	return ToolResult{
		Content: []ContentBlock{{Type: "text", Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}
