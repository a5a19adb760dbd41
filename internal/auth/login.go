package auth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/browser"
)

// LoginTimeout bounds how long the interactive login waits for the
// authorization callback.
const LoginTimeout = 5 * time.Minute

// loginOutcome is the single terminal result of one login attempt.
type loginOutcome struct {
	pair *TokenPair
	err  error
}

// InteractiveLogin runs the full authorization-code flow: it starts a
// short-lived listener on the redirect URI's port, opens the authorization
// URL in a browser (best effort), and waits for exactly one callback. The
// first terminal event wins; later hits on the same listener are ignored.
func (a *Authenticator) InteractiveLogin(ctx context.Context) (*TokenPair, error) {
	return a.interactiveLogin(ctx, LoginTimeout)
}

func (a *Authenticator) interactiveLogin(ctx context.Context, timeout time.Duration) (*TokenPair, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}

	redirect, err := url.Parse(a.cfg.RedirectURI)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URI %q: %w", a.cfg.RedirectURI, err)
	}
	callbackPath := redirect.Path
	if callbackPath == "" {
		callbackPath = "/"
	}

	state := uuid.NewString()

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return nil, fmt.Errorf("starting callback listener on %s: %w", redirect.Host, err)
	}

	results := make(chan loginOutcome, 1)
	var once sync.Once
	resolve := func(outcome loginOutcome) {
		once.Do(func() { results <- outcome })
	}

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, a.callbackHandler(state, resolve))

	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			resolve(loginOutcome{err: fmt.Errorf("callback listener: %w", err)})
		}
	}()

	authURL := a.AuthorizationURL(state)
	fmt.Printf("Open the following URL to authorize access:\n\n  %s\n\n", authURL)
	// Opening the browser is a convenience; failure is not fatal.
	_ = browser.OpenURL(authURL)

	var outcome loginOutcome
	select {
	case outcome = <-results:
	case <-time.After(timeout):
		outcome = loginOutcome{err: ErrLoginTimeout}
	case <-ctx.Done():
		outcome = loginOutcome{err: ctx.Err()}
	}

	// Stop accepting callbacks regardless of outcome so a stale browser
	// tab cannot re-trigger an exchange.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)

	return outcome.pair, outcome.err
}

// callbackHandler resolves the pending login from the redirect request.
// Only the first terminal event counts; resolve is idempotent.
func (a *Authenticator) callbackHandler(state string, resolve func(loginOutcome)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		if errParam := query.Get("error"); errParam != "" {
			detail := errParam
			if desc := query.Get("error_description"); desc != "" {
				detail += ": " + desc
			}
			writeCallbackPage(w, "Authorization failed. You can close this window.")
			resolve(loginOutcome{err: &ExchangeError{Detail: detail}})
			return
		}

		if query.Get("state") != state {
			writeCallbackPage(w, "Authorization failed. You can close this window.")
			resolve(loginOutcome{err: &ExchangeError{Detail: "state mismatch"}})
			return
		}

		code := query.Get("code")
		if code == "" {
			writeCallbackPage(w, "Authorization failed. You can close this window.")
			resolve(loginOutcome{err: &ExchangeError{Detail: "callback missing authorization code"}})
			return
		}

		pair, err := a.ExchangeCode(r.Context(), code)
		if err != nil {
			writeCallbackPage(w, "Authorization failed. You can close this window.")
			resolve(loginOutcome{err: err})
			return
		}

		writeCallbackPage(w, "Login successful. You can close this window.")
		resolve(loginOutcome{pair: pair})
	}
}

func writeCallbackPage(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<html><body><p>%s</p></body></html>", message)
}
