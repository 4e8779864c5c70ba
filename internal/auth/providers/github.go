package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/brizzai/starfetch/internal/config"
	"github.com/brizzai/starfetch/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const defaultExchangeTimeout = 30 * time.Second

// ErrMissingAccessToken is returned when the token endpoint answers without an access token
var ErrMissingAccessToken = errors.New("token response has no access_token")

type GitHubProvider struct {
	oauth2Config *oauth2.Config
	httpClient   *http.Client
}

// NewGitHubProvider builds a provider for github.com, or for the endpoints
// set in cfg when they point somewhere else (GitHub Enterprise, tests).
// A nil httpClient gets a client with a 30s timeout.
func NewGitHubProvider(cfg *config.OAuthConfig, httpClient *http.Client) *GitHubProvider {
	endpoint := github.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	// GitHub wants client_id and client_secret in the form body
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultExchangeTimeout}
	}
	client := *httpClient // copy
	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	client.Transport = &acceptJSONTransport{base: base}

	return &GitHubProvider{
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       cfg.Scopes,
		},
		httpClient: &client,
	}
}

func (p *GitHubProvider) GetAuthURL(state string) string {
	return p.oauth2Config.AuthCodeURL(state)
}

func (p *GitHubProvider) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	logger.Debug("Exchanging authorization code", zap.String("token_url", p.oauth2Config.Endpoint.TokenURL))

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	token, err := p.oauth2Config.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return nil, fmt.Errorf("token endpoint returned status %d: %w", retrieveErr.Response.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	if token.AccessToken == "" {
		return nil, ErrMissingAccessToken
	}
	return token, nil
}

// acceptJSONTransport asks the token endpoint for a JSON body instead of
// GitHub's default form encoding.
type acceptJSONTransport struct {
	base http.RoundTripper
}

func (t *acceptJSONTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Accept", "application/json")
	return t.base.RoundTrip(req)
}
