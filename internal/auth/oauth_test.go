package auth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/brizzai/starfetch/internal/auth/constants"
	"github.com/brizzai/starfetch/internal/config"
	"github.com/brizzai/starfetch/internal/starred"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"golang.org/x/oauth2"
)

// mockProvider implements providers.Provider for testing
type mockProvider struct{}

func (m *mockProvider) GetAuthURL(state string) string {
	return "mock-url?state=" + state
}

func (m *mockProvider) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: "tok1"}, nil
}

type mockLister struct{}

func (m *mockLister) ListStarred(ctx context.Context, auth starred.AuthManager) ([]starred.Record, error) {
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		OAuth: config.OAuthConfig{
			ClientID:     "abc",
			ClientSecret: "xyz",
			RedirectURL:  "http://localhost:8000/callback",
			StateTTL:     time.Minute,
			VerifyState:  true,
		},
		GitHub: config.GitHubConfig{
			APIURL:  "https://api.github.com",
			PerPage: 100,
			Timeout: time.Second,
		},
	}
}

func TestNewService(t *testing.T) {
	cfg := testConfig()
	provider := &mockProvider{}

	service, err := NewService(cfg, provider, &mockLister{})
	require.NoError(t, err)

	assert.Same(t, &cfg.OAuth, service.config)
	assert.Equal(t, provider, service.GetProvider())
	assert.NotNil(t, service.handler)
}

func TestNewService_StateVerificationDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.OAuth.VerifyState = false

	service, err := NewService(cfg, &mockProvider{}, &mockLister{})
	require.NoError(t, err)
	assert.NotNil(t, service.handler)
}

func TestRegisterRoutes(t *testing.T) {
	service, err := NewService(testConfig(), &mockProvider{}, &mockLister{})
	require.NoError(t, err)

	mux := http.NewServeMux()
	service.RegisterRoutes(mux)

	routes := []string{
		constants.LoginPath,
		constants.CallbackPath,
		constants.EssentialPath,
		constants.HealthPath,
	}
	for _, route := range routes {
		r, _ := http.NewRequest(http.MethodGet, route, nil)
		h, pattern := mux.Handler(r)
		assert.NotNil(t, h, route)
		assert.Equal(t, route, pattern)
	}
}

func TestModule(t *testing.T) {
	var service *Service
	app := fxtest.New(t,
		fx.Supply(testConfig()),
		Module,
		fx.Populate(&service),
	)
	app.RequireStart()
	defer app.RequireStop()

	require.NotNil(t, service)
	assert.NotNil(t, service.GetProvider())
}
