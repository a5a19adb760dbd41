package mcp

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// HTTPServer exposes the tool registry over plain HTTP endpoints.
type HTTPServer struct {
	server *Server
}

// NewHTTPServer wraps a registry with HTTP endpoints.
func NewHTTPServer(server *Server) *HTTPServer {
	return &HTTPServer{server: server}
}

// Routes registers the HTTP handlers on the given mux.
func (h *HTTPServer) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/tools", h.handleListTools)
	mux.HandleFunc("/tools/call", h.handleToolCall)
}

// ListenAndServe starts the HTTP server on the given port.
func (h *HTTPServer) ListenAndServe(port int) error {
	mux := http.NewServeMux()
	h.Routes(mux)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
}

func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (h *HTTPServer) handleListTools(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"tools": h.server.Tools(),
	})
}

func (h *HTTPServer) handleToolCall(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var call ToolCall
	if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.server.Invoke(call)
	w.Header().Set("Content-Type", "application/json")
	if err != nil && len(result.Content) == 0 {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{"error": err.Error()})
		return
	}
	json.NewEncoder(w).Encode(result)
}
