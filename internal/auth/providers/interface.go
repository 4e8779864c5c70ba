package providers

import (
	"context"

	"golang.org/x/oauth2"
)

// Provider defines the interface that all OAuth providers must implement
type Provider interface {
	// GetAuthURL returns the authorization URL for the provider
	GetAuthURL(state string) string

	// ExchangeCode exchanges an authorization code for tokens
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error)
}
