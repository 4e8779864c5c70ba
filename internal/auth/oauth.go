package auth

import (
	"fmt"
	"net/http"

	"github.com/brizzai/starfetch/internal/auth/constants"
	"github.com/brizzai/starfetch/internal/auth/handlers"
	"github.com/brizzai/starfetch/internal/auth/providers"
	"github.com/brizzai/starfetch/internal/auth/state"
	"github.com/brizzai/starfetch/internal/config"
	"github.com/brizzai/starfetch/internal/flow"
	"github.com/brizzai/starfetch/internal/logger"
	"github.com/brizzai/starfetch/internal/starred"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Service represents the login service
type Service struct {
	config       *config.OAuthConfig
	authProvider providers.Provider
	handler      *handlers.Handler
}

// NewService creates a new login service
func NewService(cfg *config.Config, provider providers.Provider, lister flow.Lister) (*Service, error) {
	var states *state.Manager
	if cfg.OAuth.VerifyState {
		var err error
		states, err = state.NewManager(cfg.OAuth.StateTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to create state manager: %w", err)
		}
	} else {
		logger.Warn("State verification is disabled, callbacks are not bound to a login")
	}

	handler := handlers.NewHandler(provider, flow.NewRunner(provider, lister), states)

	logger.Info("Login service ready",
		zap.String("redirect_url", cfg.OAuth.RedirectURL),
		zap.Bool("verify_state", cfg.OAuth.VerifyState),
	)

	return &Service{
		config:       &cfg.OAuth,
		authProvider: provider,
		handler:      handler,
	}, nil
}

// RegisterRoutes registers all login-related routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc(constants.LoginPath, s.handler.HandleLogin)
	mux.HandleFunc(constants.CallbackPath, s.handler.HandleCallback)
	mux.HandleFunc(constants.EssentialPath, s.handler.HandleEssential)
	mux.HandleFunc(constants.HealthPath, s.handler.HandleHealth)
}

// GetProvider returns the configured auth provider
func (s *Service) GetProvider() providers.Provider {
	return s.authProvider
}

func newGitHubProvider(cfg *config.Config) *providers.GitHubProvider {
	return providers.NewGitHubProvider(&cfg.OAuth, nil)
}

func newStarredClient(cfg *config.Config) *starred.Client {
	return starred.NewClient(&cfg.GitHub, nil)
}

// Module provides the login service dependencies
var Module = fx.Module("auth",
	fx.Provide(
		fx.Annotate(
			newGitHubProvider,
			fx.As(new(providers.Provider)),
		),
		fx.Annotate(
			newStarredClient,
			fx.As(new(flow.Lister)),
		),
		NewService,
	),
)
