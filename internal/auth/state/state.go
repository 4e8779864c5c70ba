// Package state issues and verifies the anti-forgery state token carried
// through the OAuth redirect.
//
// The token is an HS256 JWT holding a random nonce and the caller's render
// preferences. The same nonce is stored in an HttpOnly cookie, so a token is
// only accepted from the browser that started the login.
package state

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/brizzai/starfetch/internal/auth/constants"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "starfetch"

var (
	// ErrInvalidState covers a missing, forged, expired or foreign state token.
	ErrInvalidState = errors.New("invalid state")
)

// Preferences travel from the login request to the callback.
type Preferences struct {
	Format string `json:"fmt,omitempty"`
	View   string `json:"view,omitempty"`
}

type claims struct {
	Preferences
	jwt.RegisteredClaims
}

// Manager signs and checks state tokens with a per-process key.
type Manager struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewManager creates a manager with a fresh random signing key. Pending
// logins do not survive a restart.
func NewManager(ttl time.Duration) (*Manager, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate state key: %w", err)
	}
	return &Manager{key: key, ttl: ttl, now: time.Now}, nil
}

// Issue returns a signed state token and the nonce it is bound to.
func (m *Manager) Issue(prefs Preferences) (token, nonce string, err error) {
	nonce = uuid.NewString()
	now := m.now()
	c := claims{
		Preferences: prefs,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ID:        nonce,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.key)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign state: %w", err)
	}
	return token, nonce, nil
}

// Verify checks the token signature and expiry, and that it was issued
// together with nonce.
func (m *Manager) Verify(token, nonce string) (Preferences, error) {
	if token == "" || nonce == "" {
		return Preferences{}, ErrInvalidState
	}

	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		return m.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Preferences{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if c.ID != nonce {
		return Preferences{}, fmt.Errorf("%w: nonce mismatch", ErrInvalidState)
	}
	return c.Preferences, nil
}

// SetCookie stores the nonce in the browser for the lifetime of the token.
func (m *Manager) SetCookie(w http.ResponseWriter, r *http.Request, nonce string) {
	http.SetCookie(w, &http.Cookie{
		Name:     constants.StateCookieName,
		Value:    nonce,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// CookieNonce returns the nonce cookie value, or "" when absent.
func CookieNonce(r *http.Request) string {
	c, err := r.Cookie(constants.StateCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// ClearCookie removes the nonce so a state token cannot be replayed from this browser.
func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     constants.StateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
