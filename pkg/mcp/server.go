package mcp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
)

const protocolVersion = "2024-11-05"

// Handler executes one tool call.
type Handler func(ToolCall) (ToolResult, error)

// Server is a registry of named tools and their handlers.
type Server struct {
	name    string
	version string

	mu       sync.RWMutex
	tools    map[string]Tool
	handlers map[string]Handler
}

// NewServer creates an empty tool registry.
func NewServer(name, version string) *Server {
	return &Server{
		name:     name,
		version:  version,
		tools:    make(map[string]Tool),
		handlers: make(map[string]Handler),
	}
}

// Register adds a tool and its handler. Registering the same name twice
// replaces the previous registration.
func (s *Server) Register(tool Tool, handler Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools[tool.Name] = tool
	s.handlers[tool.Name] = handler
}

// Tools returns all registered tool definitions, sorted by name.
func (s *Server) Tools() []Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Tool, 0, len(s.tools))
	for _, tool := range s.tools {
		list = append(list, tool)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Invoke validates the call against the tool's input schema and runs the
// registered handler.
func (s *Server) Invoke(call ToolCall) (ToolResult, error) {
	s.mu.RLock()
	tool, ok := s.tools[call.Name]
	handler := s.handlers[call.Name]
	s.mu.RUnlock()

	if !ok {
		return Errorf("Unknown tool: %s", call.Name), fmt.Errorf("unknown tool: %s", call.Name)
	}

	if err := validateArguments(tool, call.Arguments); err != nil {
		return Errorf("Invalid arguments: %v", err), err
	}

	return handler(call)
}

// validateArguments enforces the schema's required list and top-level
// property names. Value-level validation is left to the remote API.
func validateArguments(tool Tool, args map[string]interface{}) error {
	if tool.InputSchema == nil {
		return nil
	}

	if required, ok := tool.InputSchema["required"].([]string); ok {
		for _, name := range required {
			if _, present := args[name]; !present {
				return fmt.Errorf("missing required argument %q", name)
			}
		}
	}

	props, ok := tool.InputSchema["properties"].(map[string]interface{})
	if !ok {
		return nil
	}
	for name := range args {
		if _, known := props[name]; !known {
			return fmt.Errorf("unknown argument %q", name)
		}
	}
	return nil
}

// jsonrpcRequest is the wire shape of an incoming JSON-RPC message.
type jsonrpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *jsonrpcError   `json:"error,omitempty"`
}

// ServeStdio runs the MCP protocol over stdin/stdout, one JSON-RPC message
// per line. It returns when stdin is closed.
func (s *Server) ServeStdio() error {
	return s.serve(os.Stdin, os.Stdout)
}

func (s *Server) serve(in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	encoder := json.NewEncoder(out)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req jsonrpcRequest
		if err := json.Unmarshal(line, &req); err != nil {
			_ = encoder.Encode(jsonrpcResponse{
				JSONRPC: "2.0",
				Error:   &jsonrpcError{Code: -32700, Message: "parse error"},
			})
			continue
		}

		resp := s.dispatch(req)
		if resp == nil {
			// Notification, no reply expected.
			continue
		}
		if err := encoder.Encode(resp); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (s *Server) dispatch(req jsonrpcRequest) *jsonrpcResponse {
	resp := &jsonrpcResponse{JSONRPC: "2.0", ID: req.ID}

	switch req.Method {
	case "initialize":
		resp.Result = map[string]interface{}{
			"protocolVersion": protocolVersion,
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    s.name,
				"version": s.version,
			},
		}
	case "notifications/initialized", "initialized":
		return nil
	case "ping":
		resp.Result = map[string]interface{}{}
	case "tools/list":
		resp.Result = map[string]interface{}{"tools": s.Tools()}
	case "tools/call":
		var params struct {
			Name      string                 `json:"name"`
			Arguments map[string]interface{} `json:"arguments"`
		}
		if err := json.Unmarshal(req.Params, &params); err != nil {
			resp.Error = &jsonrpcError{Code: -32602, Message: "invalid params"}
			return resp
		}
		result, _ := s.Invoke(ToolCall{Name: params.Name, Arguments: params.Arguments})
		// Tool failures travel inside the result as isError, not as a
		// protocol error, so the client can show them to the model.
		resp.Result = result
	default:
		if len(req.ID) == 0 {
			return nil
		}
		resp.Error = &jsonrpcError{Code: -32601, Message: fmt.Sprintf("method not found: %s", req.Method)}
	}
	return resp
}
