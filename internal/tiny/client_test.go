package tiny

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinytools/tiny-erp-mcp/internal/auth"
	"github.com/tinytools/tiny-erp-mcp/internal/config"
)

// newTestClient builds a pipeline whose store already holds a token pair
// that will stay valid for the duration of the test.
func newTestClient(t *testing.T, apiURL string) *Client {
	t.Helper()

	store := auth.NewFileStore(filepath.Join(t.TempDir(), "tokens.json"))
	require.NoError(t, store.Save(&auth.TokenPair{
		AccessToken:      "A1",
		RefreshToken:     "R1",
		TokenType:        "Bearer",
		ExpiresIn:        3600,
		RefreshExpiresIn: 86400,
	}))

	cfg := &config.Config{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		RedirectURI:  "http://127.0.0.1:8085/callback",
		AuthBaseURL:  "http://auth.invalid",
		APIBaseURL:   apiURL,
		Scope:        "openid",
		HTTPTimeout:  5 * time.Second,
	}
	return NewClient(cfg, auth.NewAuthenticator(cfg, store))
}

func TestDoInjectsBearerToken(t *testing.T) {
	var gotAuth, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(`{"id":1}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	raw, err := client.Get(context.Background(), "/produtos/1", nil)
	require.NoError(t, err)

	assert.Equal(t, "Bearer A1", gotAuth)
	assert.Equal(t, "application/json", gotAccept)
	assert.JSONEq(t, `{"id":1}`, string(raw))
}

func TestDoBuildsURLFromPathAndQuery(t *testing.T) {
	var gotURL string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		w.Write([]byte(`{"itens":[]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	query := url.Values{}
	query.Set("situacao", "A")
	query.Set("limit", "10")

	_, err := client.Get(context.Background(), "/produtos", query)
	require.NoError(t, err)
	assert.Equal(t, "/produtos?limit=10&situacao=A", gotURL)
}

func TestPostSendsJSONBody(t *testing.T) {
	var gotContentType string
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":99}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	raw, err := client.Post(context.Background(), "/produtos", map[string]interface{}{"descricao": "Caneta azul"})
	require.NoError(t, err)

	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "Caneta azul", gotBody["descricao"])
	assert.JSONEq(t, `{"id":99}`, string(raw))
}

func TestDoRetriesExactlyOnceOn401(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"id":7}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	raw, err := client.Get(context.Background(), "/pedidos/7", nil)
	require.NoError(t, err)

	assert.JSONEq(t, `{"id":7}`, string(raw))
	assert.Equal(t, int64(2), calls.Load())
}

func TestDoSecond401IsSessionExpired(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Get(context.Background(), "/pedidos", nil)

	assert.ErrorIs(t, err, auth.ErrSessionExpired)
	// One original attempt plus one retry, never more.
	assert.Equal(t, int64(2), calls.Load())
}

func TestDoWithoutStoredTokenSkipsNetwork(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	require.NoError(t, client.auth.Logout())

	_, err := client.Get(context.Background(), "/produtos", nil)
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
	assert.Equal(t, int64(0), calls.Load())
}

func TestDoMapsAPIErrors(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		category string
		message  string
	}{
		{"validation", http.StatusBadRequest, `{"mensagem":"Requisição inválida","detalhes":[{"mensagem":"descricao é obrigatório"}]}`, "validation", "Requisição inválida: descricao é obrigatório"},
		{"forbidden", http.StatusForbidden, `{"message":"Forbidden"}`, "forbidden", "Forbidden"},
		{"not found", http.StatusNotFound, `{"mensagem":"Produto não encontrado"}`, "not found", "Produto não encontrado"},
		{"rate limited", http.StatusTooManyRequests, `{"error":"too many requests"}`, "rate limited", "too many requests"},
		{"server error", http.StatusBadGateway, `upstream down`, "server error", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			_, err := client.Get(context.Background(), "/produtos", nil)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.status, apiErr.StatusCode)
			assert.Equal(t, tc.category, apiErr.Category())
			assert.Equal(t, tc.message, apiErr.Message)
		})
	}
}

func TestDoClassifiesNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Get(context.Background(), "/produtos", nil)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestDoClassifiesTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.httpClient.Timeout = 50 * time.Millisecond

	_, err := client.Get(context.Background(), "/produtos", nil)
	assert.ErrorIs(t, err, ErrRequestTimeout)
}
