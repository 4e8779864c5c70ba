// Package handler assembles the HTTP handler tree served by starfetch.
package handler

import (
	"net/http"

	"github.com/brizzai/starfetch/internal/auth"
	"github.com/brizzai/starfetch/internal/auth/middleware"
	"github.com/brizzai/starfetch/internal/logger"
	"github.com/brizzai/starfetch/internal/utils"
)

// Handler manages HTTP request handling and middleware configuration.
type Handler struct {
	auth *auth.Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(auth *auth.Service) *Handler {
	return &Handler{
		auth: auth,
	}
}

// CreateHTTPHandler creates the mux with the login routes and wraps it with
// the request id, logging and recovery middleware.
func (h *Handler) CreateHTTPHandler() http.Handler {
	mux := http.NewServeMux()

	h.auth.RegisterRoutes(mux)
	logger.Info("Registered login routes")

	mux.HandleFunc("/", notFound)

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.Logging,
		middleware.Recover,
	)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	utils.WriteError(w, "not_found", "Not found.", http.StatusNotFound)
}
