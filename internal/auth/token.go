package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenBuffer is the safety margin applied to access-token expiry.
// A token inside the buffer is refreshed proactively instead of being sent
// and rejected.
const AccessTokenBuffer = 5 * time.Minute

// TokenPair is the persisted OAuth token record. AccessTokenExpiresAt and
// RefreshTokenExpiresAt are epoch milliseconds, recomputed from ExpiresIn
// and RefreshExpiresIn every time the pair is saved; they are never carried
// forward from a prior read. The pair is always replaced as a whole since
// the authorization server issues both tokens together.
type TokenPair struct {
	AccessToken           string `json:"access_token"`
	RefreshToken          string `json:"refresh_token"`
	TokenType             string `json:"token_type"`
	ExpiresIn             int64  `json:"expires_in"`
	RefreshExpiresIn      int64  `json:"refresh_expires_in"`
	AccessTokenExpiresAt  int64  `json:"access_token_expires_at"`
	RefreshTokenExpiresAt int64  `json:"refresh_token_expires_at"`
}

// stamp recomputes the absolute expiry instants from the declared
// lifetimes. Called at save time.
func (p *TokenPair) stamp(now time.Time) {
	p.AccessTokenExpiresAt = now.Add(time.Duration(p.ExpiresIn) * time.Second).UnixMilli()
	p.RefreshTokenExpiresAt = now.Add(time.Duration(p.RefreshExpiresIn) * time.Second).UnixMilli()
}

// AccessTokenExpired reports whether the access token is unusable at the
// given instant, counting tokens inside the buffer window as expired.
// A pair without expiry metadata is treated as expired.
func (p *TokenPair) AccessTokenExpired(now time.Time) bool {
	if p.AccessTokenExpiresAt == 0 {
		return true
	}
	expiresAt := time.UnixMilli(p.AccessTokenExpiresAt)
	return !now.Before(expiresAt.Add(-AccessTokenBuffer))
}

// RefreshTokenExpired reports whether the refresh token is expired at the
// given instant. No buffer: there is no fallback once it expires, so the
// check is exact.
func (p *TokenPair) RefreshTokenExpired(now time.Time) bool {
	if p.RefreshTokenExpiresAt == 0 {
		return true
	}
	return !now.Before(time.UnixMilli(p.RefreshTokenExpiresAt))
}

// TokenInfo is a decoded view of the access token for status display.
type TokenInfo struct {
	Subject   string
	Issuer    string
	ExpiresAt time.Time
}

// DecodeAccessToken parses the access token as a JWT without verifying the
// signature. Tiny issues Keycloak JWTs; this is display-only, the API
// remains the authority on token validity.
func DecodeAccessToken(accessToken string) (*TokenInfo, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(accessToken, claims); err != nil {
		return nil, fmt.Errorf("access token is not a parseable JWT: %w", err)
	}

	info := &TokenInfo{}
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if iss, err := claims.GetIssuer(); err == nil {
		info.Issuer = iss
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	return info, nil
}
