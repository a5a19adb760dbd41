package mcp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHTTPServer(t *testing.T) *httptest.Server {
	t.Helper()
	registry := NewServer("test", "0.0.1")
	registry.Register(echoTool("echo"), echoHandler)

	mux := http.NewServeMux()
	NewHTTPServer(registry).Routes(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestHTTPHealth(t *testing.T) {
	server := newTestHTTPServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestHTTPListTools(t *testing.T) {
	server := newTestHTTPServer(t)

	resp, err := http.Get(server.URL + "/tools")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Tools []Tool `json:"tools"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Tools, 1)
	assert.Equal(t, "echo", body.Tools[0].Name)
}

func TestHTTPToolCall(t *testing.T) {
	server := newTestHTTPServer(t)

	resp, err := http.Post(server.URL+"/tools/call", "application/json",
		strings.NewReader(`{"name":"echo","arguments":{"message":"hi"}}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	var result ToolResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.Len(t, result.Content, 1)
	assert.Equal(t, "echo: hi", result.Content[0].Text)
	assert.False(t, result.IsError)
}

func TestHTTPToolCallRejectsGet(t *testing.T) {
	server := newTestHTTPServer(t)

	resp, err := http.Get(server.URL + "/tools/call")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHTTPToolCallInvalidArguments(t *testing.T) {
	server := newTestHTTPServer(t)

	resp, err := http.Post(server.URL+"/tools/call", "application/json",
		strings.NewReader(`{"name":"echo","arguments":{}}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	var result ToolResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.IsError)
}
