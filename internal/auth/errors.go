package auth

import (
	"errors"
	"fmt"
)

// Authentication errors surfaced to the tool layer and the CLI.
var (
	// ErrNotAuthenticated means no token exists on disk; the operator must
	// run an interactive login.
	ErrNotAuthenticated = errors.New("not authenticated: run 'tiny-auth login'")

	// ErrSessionExpired means the refresh token expired or a refresh attempt
	// failed. The store is cleared before this is returned.
	ErrSessionExpired = errors.New("session expired: run 'tiny-auth login' to re-authenticate")

	// ErrLoginTimeout means no callback arrived within the login window.
	ErrLoginTimeout = errors.New("login timed out waiting for the authorization callback")
)

// ExchangeError reports a rejected code or refresh exchange, carrying
// whatever detail the authorization server provided.
type ExchangeError struct {
	StatusCode int    // 0 when the failure was local (state mismatch, consent denied)
	Detail     string // server error_description or raw body, best effort
	Err        error
}

func (e *ExchangeError) Error() string {
	switch {
	case e.Detail != "" && e.StatusCode > 0:
		return fmt.Sprintf("authorization server rejected the exchange (status %d): %s", e.StatusCode, e.Detail)
	case e.Detail != "":
		return "authorization failed: " + e.Detail
	case e.Err != nil:
		return "token exchange failed: " + e.Err.Error()
	default:
		return "token exchange failed"
	}
}

func (e *ExchangeError) Unwrap() error { return e.Err }
