package mcp

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// SSEServer implements the MCP protocol over Server-Sent Events plus a
// JSON-RPC message endpoint, for clients that cannot speak stdio.
type SSEServer struct {
	server *Server
}

// NewSSEServer wraps a registry with the SSE transport.
func NewSSEServer(server *Server) *SSEServer {
	return &SSEServer{server: server}
}

// ListenAndServe starts the SSE server on the given port.
func (s *SSEServer) ListenAndServe(port int) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/sse", s.HandleSSE)
	mux.HandleFunc("/message", s.HandleMessage)
	mux.HandleFunc("/", s.HandleMessage)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), corsMiddleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// HandleSSE holds the event stream open and tells the client where to
// post messages.
func (s *SSEServer) HandleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	fmt.Fprintf(w, "event: endpoint\ndata: /message\n\n")
	flusher.Flush()

	<-r.Context().Done()
}

// HandleMessage answers a single JSON-RPC message.
func (s *SSEServer) HandleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req jsonrpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := s.server.dispatch(req)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
