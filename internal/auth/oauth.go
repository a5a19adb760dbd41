package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tinytools/tiny-erp-mcp/internal/config"
)

// Authenticator produces TokenPairs through the authorization-code and
// refresh-token grants, persisting every successful exchange to the store.
type Authenticator struct {
	cfg        *config.Config
	store      Store
	httpClient *http.Client
	now        func() time.Time
}

// NewAuthenticator wires the authenticator to its config and token store.
func NewAuthenticator(cfg *config.Config, store Store) *Authenticator {
	return &Authenticator{
		cfg:   cfg,
		store: store,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		now: time.Now,
	}
}

// Store exposes the underlying token store.
func (a *Authenticator) Store() Store { return a.store }

// AuthorizationURL builds the browser redirect URL for the given state
// parameter. Pure string construction, no network.
func (a *Authenticator) AuthorizationURL(state string) string {
	params := url.Values{}
	params.Set("client_id", a.cfg.ClientID)
	params.Set("redirect_uri", a.cfg.RedirectURI)
	params.Set("scope", a.cfg.Scope)
	params.Set("response_type", "code")
	params.Set("state", state)
	return a.cfg.AuthorizeURL() + "?" + params.Encode()
}

// ExchangeCode trades a one-time authorization code for a TokenPair.
func (a *Authenticator) ExchangeCode(ctx context.Context, code string) (*TokenPair, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", a.cfg.ClientID)
	form.Set("client_secret", a.cfg.ClientSecret)
	form.Set("redirect_uri", a.cfg.RedirectURI)
	form.Set("code", code)
	return a.exchange(ctx, form)
}

// Refresh trades a refresh token for a new TokenPair. This is the path the
// request pipeline takes transparently when an access token ages out.
func (a *Authenticator) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", a.cfg.ClientID)
	form.Set("client_secret", a.cfg.ClientSecret)
	form.Set("refresh_token", refreshToken)
	return a.exchange(ctx, form)
}

// tokenErrorBody is the error shape of an OAuth token endpoint response.
type tokenErrorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (a *Authenticator) exchange(ctx context.Context, form url.Values) (*TokenPair, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.TokenURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &ExchangeError{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, &ExchangeError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ExchangeError{StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := strings.TrimSpace(string(body))
		var errBody tokenErrorBody
		if json.Unmarshal(body, &errBody) == nil && errBody.Error != "" {
			detail = errBody.Error
			if errBody.ErrorDescription != "" {
				detail += ": " + errBody.ErrorDescription
			}
		}
		return nil, &ExchangeError{StatusCode: resp.StatusCode, Detail: detail}
	}

	var pair TokenPair
	if err := json.Unmarshal(body, &pair); err != nil {
		return nil, &ExchangeError{StatusCode: resp.StatusCode, Err: fmt.Errorf("parsing token response: %w", err)}
	}
	if pair.AccessToken == "" {
		return nil, &ExchangeError{StatusCode: resp.StatusCode, Detail: "token response missing access_token"}
	}

	if err := a.store.Save(&pair); err != nil {
		return nil, fmt.Errorf("persisting tokens: %w", err)
	}
	return &pair, nil
}

// ValidAccessToken returns an access token that is currently usable,
// refreshing through the store as needed.
//
// Absent token -> ErrNotAuthenticated. Expired refresh token or failed
// refresh -> store cleared, ErrSessionExpired. Access token inside its
// buffer window -> one refresh exchange, new token returned.
func (a *Authenticator) ValidAccessToken(ctx context.Context) (string, error) {
	if err := a.cfg.Validate(); err != nil {
		return "", err
	}

	pair, err := a.store.Load()
	if err != nil {
		return "", fmt.Errorf("loading tokens: %w", err)
	}
	if pair == nil {
		return "", ErrNotAuthenticated
	}

	now := a.now()

	if pair.RefreshTokenExpired(now) {
		_ = a.store.Clear()
		return "", ErrSessionExpired
	}

	if pair.AccessTokenExpired(now) {
		fresh, err := a.Refresh(ctx, pair.RefreshToken)
		if err != nil {
			// A failed refresh is terminal: the user must log in again.
			_ = a.store.Clear()
			return "", fmt.Errorf("%w (refresh failed: %v)", ErrSessionExpired, err)
		}
		return fresh.AccessToken, nil
	}

	return pair.AccessToken, nil
}

// Logout clears the persisted token pair.
func (a *Authenticator) Logout() error {
	return a.store.Clear()
}
