package state

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brizzai/starfetch/internal/auth/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_IssueVerify(t *testing.T) {
	m, err := NewManager(time.Minute)
	require.NoError(t, err)

	token, nonce, err := m.Issue(Preferences{Format: "html", View: "essential"})
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotEmpty(t, nonce)

	prefs, err := m.Verify(token, nonce)
	require.NoError(t, err)
	assert.Equal(t, Preferences{Format: "html", View: "essential"}, prefs)
}

func TestManager_VerifyRejects(t *testing.T) {
	m, err := NewManager(time.Minute)
	require.NoError(t, err)
	other, err := NewManager(time.Minute)
	require.NoError(t, err)

	token, nonce, err := m.Issue(Preferences{})
	require.NoError(t, err)
	foreignToken, foreignNonce, err := other.Issue(Preferences{})
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		nonce string
	}{
		{name: "empty token", token: "", nonce: nonce},
		{name: "empty nonce", token: token, nonce: ""},
		{name: "wrong nonce", token: token, nonce: "another-browser"},
		{name: "garbage", token: "not-a-jwt", nonce: nonce},
		{name: "other key", token: foreignToken, nonce: foreignNonce},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Verify(tt.token, tt.nonce)
			assert.ErrorIs(t, err, ErrInvalidState)
		})
	}
}

func TestManager_Expired(t *testing.T) {
	m, err := NewManager(time.Minute)
	require.NoError(t, err)

	issuedAt := time.Now()
	m.now = func() time.Time { return issuedAt }
	token, nonce, err := m.Issue(Preferences{})
	require.NoError(t, err)

	m.now = func() time.Time { return issuedAt.Add(2 * time.Minute) }
	_, err = m.Verify(token, nonce)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCookies(t *testing.T) {
	m, err := NewManager(5 * time.Minute)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	m.SetCookie(rec, httptest.NewRequest(http.MethodGet, "/login", nil), "nonce-1")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, constants.StateCookieName, cookies[0].Name)
	assert.Equal(t, "nonce-1", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 300, cookies[0].MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/callback", nil)
	assert.Empty(t, CookieNonce(req))
	req.AddCookie(cookies[0])
	assert.Equal(t, "nonce-1", CookieNonce(req))

	rec = httptest.NewRecorder()
	ClearCookie(rec)
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)
}
