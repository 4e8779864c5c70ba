// Package server runs the starfetch HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/brizzai/starfetch/internal/auth"
	"github.com/brizzai/starfetch/internal/config"
	"github.com/brizzai/starfetch/internal/logger"
	"github.com/brizzai/starfetch/internal/server/handler"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Server serves the login routes over HTTP.
type Server struct {
	config  *config.Config
	auth    *auth.Service
	handler *handler.Handler
}

// NewServer creates a new server instance with the provided configuration.
func NewServer(cfg *config.Config, authService *auth.Service) *Server {
	if cfg == nil {
		logger.Fatal("Config cannot be nil")
	}
	if authService == nil {
		logger.Fatal("Auth service cannot be nil")
	}

	return &Server{
		config:  cfg,
		auth:    authService,
		handler: handler.NewHandler(authService),
	}
}

// Listen binds the configured address.
func (s *Server) Listen() (net.Listener, error) {
	addr := s.config.Server.Addr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return ln, nil
}

// Start binds the configured address and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.handler.CreateHTTPHandler(),
		ReadHeaderTimeout: s.config.Server.ReadTimeout,
		ReadTimeout:       s.config.Server.ReadTimeout,
	}

	// Channel for server errors
	errChan := make(chan error, 1)

	go func() {
		logger.Info("Starting server",
			zap.String("address", ln.Addr().String()),
			zap.String("base_url", s.config.Server.BaseURL),
		)

		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// Wait for context cancellation or server error
	select {
	case <-ctx.Done():
		timeout := s.config.Server.ShutdownTimeout
		logger.Info("Shutting down server", zap.Duration("timeout", timeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil

	case err := <-errChan:
		return err
	}
}

// registerHooks runs the server for the lifetime of the fx application.
// A serve failure shuts the application down with exit code 1.
func registerHooks(lc fx.Lifecycle, s *Server, shutdowner fx.Shutdowner) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := s.Listen()
			if err != nil {
				cancel()
				return err
			}
			go func() {
				err := s.Serve(ctx, ln)
				done <- err
				if err != nil {
					logger.Error("Server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case err := <-done:
				return err
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}

// Module provides the HTTP server and ties it to the application lifecycle
var Module = fx.Module("server",
	fx.Provide(
		NewServer,
	),
	fx.Invoke(registerHooks),
)
