package tiny

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/tinytools/tiny-erp-mcp/internal/auth"
	"github.com/tinytools/tiny-erp-mcp/internal/config"
)

// Client is the authenticated request pipeline for the Tiny API. Every
// call fetches a currently-valid bearer token, sends the request, and
// retries exactly once when the server answers 401. The steps are a
// visible linear sequence; there is no interceptor chain.
type Client struct {
	cfg        *config.Config
	auth       *auth.Authenticator
	httpClient *http.Client
}

// NewClient builds the pipeline around the shared authenticator.
func NewClient(cfg *config.Config, authenticator *auth.Authenticator) *Client {
	return &Client{
		cfg:  cfg,
		auth: authenticator,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Do performs one authenticated API call. path is relative to the
// configured base URL; body, when non-nil, is sent as JSON. The response
// body is returned raw for the tool layer to render.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body interface{}) (json.RawMessage, error) {
	token, err := c.auth.ValidAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
	}

	resp, respBody, err := c.send(ctx, method, path, query, payload, token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		// The server's 401 outranks the local clock: re-derive the token
		// (which may refresh) and re-issue the same request once.
		token, err = c.auth.ValidAccessToken(ctx)
		if err != nil {
			return nil, err
		}

		resp, respBody, err = c.send(ctx, method, path, query, payload, token)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			return nil, auth.ErrSessionExpired
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    extractMessage(respBody),
		}
	}

	return json.RawMessage(respBody), nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte, token string) (*http.Response, []byte, error) {
	fullURL := c.cfg.APIBaseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reading response: %v", ErrNetwork, err)
	}
	return resp, respBody, nil
}

// Get performs an authenticated GET.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodGet, path, query, nil)
}

// Post performs an authenticated POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodPost, path, nil, body)
}

// Put performs an authenticated PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodPut, path, nil, body)
}

// Delete performs an authenticated DELETE.
func (c *Client) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrRequestTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}

// extractMessage pulls a human-readable message out of a Tiny error body.
func extractMessage(body []byte) string {
	var shape struct {
		Mensagem string `json:"mensagem"`
		Message  string `json:"message"`
		Error    string `json:"error"`
		Detalhes []struct {
			Mensagem string `json:"mensagem"`
		} `json:"detalhes"`
	}
	if err := json.Unmarshal(body, &shape); err != nil {
		return ""
	}
	switch {
	case shape.Mensagem != "":
		msg := shape.Mensagem
		if len(shape.Detalhes) > 0 && shape.Detalhes[0].Mensagem != "" {
			msg += ": " + shape.Detalhes[0].Mensagem
		}
		return msg
	case shape.Message != "":
		return shape.Message
	case shape.Error != "":
		return shape.Error
	default:
		return ""
	}
}
