package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinytools/tiny-erp-mcp/internal/config"
)

func testConfig(authBaseURL string) *config.Config {
	return &config.Config{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		RedirectURI:  "http://127.0.0.1:8085/callback",
		AuthBaseURL:  authBaseURL,
		APIBaseURL:   "http://unused.invalid",
		Scope:        "openid",
		HTTPTimeout:  5 * time.Second,
	}
}

// fakeTokenEndpoint serves /token, counts calls, and remembers the last
// submitted form.
type fakeTokenEndpoint struct {
	server   *httptest.Server
	calls    atomic.Int64
	lastForm url.Values

	status int
	body   string
}

func newFakeTokenEndpoint(t *testing.T) *fakeTokenEndpoint {
	t.Helper()
	f := &fakeTokenEndpoint{
		status: http.StatusOK,
		body: `{"access_token":"A2","refresh_token":"R2","token_type":"Bearer",` +
			`"expires_in":14400,"refresh_expires_in":86400}`,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		require.NoError(t, r.ParseForm())
		f.lastForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		fmt.Fprint(w, f.body)
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func newTestAuthenticator(t *testing.T, endpoint *fakeTokenEndpoint, now time.Time) (*Authenticator, *FileStore) {
	t.Helper()
	store := NewFileStore(filepath.Join(t.TempDir(), "tokens.json"))
	store.now = func() time.Time { return now }

	a := NewAuthenticator(testConfig(endpoint.server.URL), store)
	a.now = func() time.Time { return now }
	return a, store
}

func TestAuthorizationURL(t *testing.T) {
	a := NewAuthenticator(testConfig("https://auth.example"), NewFileStore(filepath.Join(t.TempDir(), "tokens.json")))

	raw := a.AuthorizationURL("state-123")
	require.True(t, strings.HasPrefix(raw, "https://auth.example/auth?"))

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	query := parsed.Query()
	assert.Equal(t, "test-client", query.Get("client_id"))
	assert.Equal(t, "http://127.0.0.1:8085/callback", query.Get("redirect_uri"))
	assert.Equal(t, "openid", query.Get("scope"))
	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, "state-123", query.Get("state"))
}

func TestExchangeCodePersistsPair(t *testing.T) {
	endpoint := newFakeTokenEndpoint(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	a, store := newTestAuthenticator(t, endpoint, now)

	pair, err := a.ExchangeCode(context.Background(), "one-time-code")
	require.NoError(t, err)
	assert.Equal(t, "A2", pair.AccessToken)

	assert.Equal(t, "authorization_code", endpoint.lastForm.Get("grant_type"))
	assert.Equal(t, "one-time-code", endpoint.lastForm.Get("code"))
	assert.Equal(t, "test-client", endpoint.lastForm.Get("client_id"))
	assert.Equal(t, "test-secret", endpoint.lastForm.Get("client_secret"))
	assert.Equal(t, "http://127.0.0.1:8085/callback", endpoint.lastForm.Get("redirect_uri"))

	stored, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "A2", stored.AccessToken)
	assert.Equal(t, "R2", stored.RefreshToken)
	assert.Equal(t, now.Add(4*time.Hour).UnixMilli(), stored.AccessTokenExpiresAt)
}

func TestRefreshSendsRefreshGrant(t *testing.T) {
	endpoint := newFakeTokenEndpoint(t)
	a, _ := newTestAuthenticator(t, endpoint, time.Now())

	pair, err := a.Refresh(context.Background(), "R1")
	require.NoError(t, err)
	assert.Equal(t, "A2", pair.AccessToken)

	assert.Equal(t, "refresh_token", endpoint.lastForm.Get("grant_type"))
	assert.Equal(t, "R1", endpoint.lastForm.Get("refresh_token"))
}

func TestExchangeRejectionCarriesServerDetail(t *testing.T) {
	endpoint := newFakeTokenEndpoint(t)
	endpoint.status = http.StatusBadRequest
	endpoint.body = `{"error":"invalid_grant","error_description":"Code not valid"}`
	a, store := newTestAuthenticator(t, endpoint, time.Now())

	_, err := a.ExchangeCode(context.Background(), "stale-code")
	var exchErr *ExchangeError
	require.ErrorAs(t, err, &exchErr)
	assert.Equal(t, http.StatusBadRequest, exchErr.StatusCode)
	assert.Equal(t, "invalid_grant: Code not valid", exchErr.Detail)

	// A rejected exchange must not touch the store.
	stored, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestExchangeRejectsResponseWithoutAccessToken(t *testing.T) {
	endpoint := newFakeTokenEndpoint(t)
	endpoint.body = `{"token_type":"Bearer"}`
	a, _ := newTestAuthenticator(t, endpoint, time.Now())

	_, err := a.ExchangeCode(context.Background(), "code")
	var exchErr *ExchangeError
	require.ErrorAs(t, err, &exchErr)
	assert.Contains(t, exchErr.Detail, "access_token")
}

func TestValidAccessTokenRequiresCredentials(t *testing.T) {
	endpoint := newFakeTokenEndpoint(t)
	a, _ := newTestAuthenticator(t, endpoint, time.Now())
	a.cfg.ClientID = ""

	_, err := a.ValidAccessToken(context.Background())
	assert.ErrorIs(t, err, config.ErrMissingCredentials)
}

func TestValidAccessTokenWithoutStoredPair(t *testing.T) {
	endpoint := newFakeTokenEndpoint(t)
	a, _ := newTestAuthenticator(t, endpoint, time.Now())

	_, err := a.ValidAccessToken(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Equal(t, int64(0), endpoint.calls.Load())
}

func TestValidAccessTokenReturnsCurrentToken(t *testing.T) {
	endpoint := newFakeTokenEndpoint(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	a, store := newTestAuthenticator(t, endpoint, now)

	require.NoError(t, store.Save(&TokenPair{
		AccessToken: "A1", RefreshToken: "R1",
		ExpiresIn: 3600, RefreshExpiresIn: 86400,
	}))

	token, err := a.ValidAccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A1", token)
	assert.Equal(t, int64(0), endpoint.calls.Load())
}

func TestValidAccessTokenRefreshesExpiredAccessToken(t *testing.T) {
	endpoint := newFakeTokenEndpoint(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	a, store := newTestAuthenticator(t, endpoint, now)

	// Access token expires in one minute, inside the buffer; refresh token
	// remains valid for a day.
	require.NoError(t, store.Save(&TokenPair{
		AccessToken: "A1", RefreshToken: "R1",
		ExpiresIn: 60, RefreshExpiresIn: 86400,
	}))

	token, err := a.ValidAccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A2", token)
	assert.Equal(t, int64(1), endpoint.calls.Load())
	assert.Equal(t, "R1", endpoint.lastForm.Get("refresh_token"))

	stored, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "A2", stored.AccessToken)
	assert.Equal(t, "R2", stored.RefreshToken)
}

func TestValidAccessTokenExpiredRefreshClearsStore(t *testing.T) {
	endpoint := newFakeTokenEndpoint(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	a, store := newTestAuthenticator(t, endpoint, now)

	// Both lifetimes already spent at the stamped instant.
	require.NoError(t, store.Save(&TokenPair{
		AccessToken: "A1", RefreshToken: "R1",
		ExpiresIn: 0, RefreshExpiresIn: 0,
	}))

	_, err := a.ValidAccessToken(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, int64(0), endpoint.calls.Load())

	stored, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, stored)

	// The next call reports the absent token, not another expiry.
	_, err = a.ValidAccessToken(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestValidAccessTokenFailedRefreshClearsStore(t *testing.T) {
	endpoint := newFakeTokenEndpoint(t)
	endpoint.status = http.StatusBadRequest
	endpoint.body = `{"error":"invalid_grant","error_description":"Session not active"}`
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	a, store := newTestAuthenticator(t, endpoint, now)

	require.NoError(t, store.Save(&TokenPair{
		AccessToken: "A1", RefreshToken: "R1",
		ExpiresIn: 60, RefreshExpiresIn: 86400,
	}))

	_, err := a.ValidAccessToken(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, int64(1), endpoint.calls.Load())

	stored, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestLogoutClearsStore(t *testing.T) {
	endpoint := newFakeTokenEndpoint(t)
	a, store := newTestAuthenticator(t, endpoint, time.Now())

	require.NoError(t, store.Save(&TokenPair{AccessToken: "A1", ExpiresIn: 3600, RefreshExpiresIn: 86400}))
	require.NoError(t, a.Logout())

	stored, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestExchangeNetworkFailure(t *testing.T) {
	endpoint := newFakeTokenEndpoint(t)
	endpoint.server.Close()
	a, _ := newTestAuthenticator(t, endpoint, time.Now())

	_, err := a.ExchangeCode(context.Background(), "code")
	var exchErr *ExchangeError
	require.ErrorAs(t, err, &exchErr)
	assert.Error(t, exchErr.Err)
}
