package handlers

import (
	"net/http"
	"net/url"

	"github.com/brizzai/starfetch/internal/auth/constants"
	"github.com/brizzai/starfetch/internal/auth/providers"
	"github.com/brizzai/starfetch/internal/auth/state"
	"github.com/brizzai/starfetch/internal/flow"
	"github.com/brizzai/starfetch/internal/logger"
	"github.com/brizzai/starfetch/internal/starred"
	"github.com/brizzai/starfetch/internal/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler handles OAuth-related HTTP requests
type Handler struct {
	authProvider providers.Provider
	runner       *flow.Runner
	states       *state.Manager // nil when state verification is disabled
}

// NewHandler creates a new Handler instance
func NewHandler(provider providers.Provider, runner *flow.Runner, states *state.Manager) *Handler {
	return &Handler{
		authProvider: provider,
		runner:       runner,
		states:       states,
	}
}

// HandleLogin redirects the browser to the provider's authorization page
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	prefs := preferencesFrom(r.URL.Query())

	var stateToken string
	flowID := uuid.NewString()
	if h.states != nil {
		token, nonce, err := h.states.Issue(prefs)
		if err != nil {
			logger.Error("Failed to issue state", zap.Error(err))
			writeError(w, prefs.Format, "server_error", "Internal server error.", http.StatusInternalServerError)
			return
		}
		h.states.SetCookie(w, r, nonce)
		stateToken, flowID = token, nonce
	}

	logger.Info("Login flow started",
		zap.String("flow_id", flowID),
		zap.String("format", prefs.Format),
		zap.String("view", prefs.View),
	)
	http.Redirect(w, r, h.authProvider.GetAuthURL(stateToken), http.StatusFound)
}

// HandleCallback completes the flow and serves the view chosen at login
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	h.complete(w, r, "")
}

// HandleEssential completes the flow and always serves the essential view
func (h *Handler) HandleEssential(w http.ResponseWriter, r *http.Request) {
	h.complete(w, r, constants.ViewEssential)
}

// HandleHealth reports liveness
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	utils.WriteJSON(w, map[string]string{"status": "ok"})
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request, forcedView string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	if providerErr := query.Get("error"); providerErr != "" {
		logger.Warn("Provider returned an error",
			zap.String("error", providerErr),
			zap.String("error_description", query.Get("error_description")),
		)
	}

	// Without state verification the redirect URL itself may carry preferences
	prefs := preferencesFrom(query)
	flowID := state.CookieNonce(r)

	var verify func() error
	if h.states != nil {
		nonce := flowID
		verify = func() error {
			verified, err := h.states.Verify(query.Get(constants.StateQueryParam), nonce)
			if err != nil {
				return err
			}
			prefs = verified
			return nil
		}
		// The nonce is single use whatever the outcome
		state.ClearCookie(w)
	}
	if flowID == "" {
		flowID = uuid.NewString()
	}

	f := h.runner.Begin(flowID)
	records, err := f.Complete(r.Context(), query.Get(constants.CodeQueryParam), verify)

	if forcedView != "" {
		prefs.View = forcedView
	}
	if err != nil {
		writeError(w, prefs.Format, flow.ErrorCode(err), flow.UserMessage(err), flow.HTTPStatus(err))
		return
	}

	render(w, prefs, records)
}

func render(w http.ResponseWriter, prefs state.Preferences, records []starred.Record) {
	if prefs.Format == constants.FormatHTML {
		utils.WriteHTML(w, http.StatusOK, "starred.html", starred.Summarize(records))
		return
	}
	if prefs.View == constants.ViewEssential {
		utils.WriteJSON(w, starred.Summarize(records))
		return
	}
	utils.WriteJSON(w, starred.NewListing(records))
}

func writeError(w http.ResponseWriter, format, code, message string, status int) {
	if format == constants.FormatHTML {
		utils.WriteHTMLError(w, code, message, status)
		return
	}
	utils.WriteError(w, code, message, status)
}

// preferencesFrom reads format and view, falling back to JSON and the full view
func preferencesFrom(q url.Values) state.Preferences {
	prefs := state.Preferences{Format: constants.FormatJSON, View: constants.ViewFull}
	if q.Get(constants.FormatQueryParam) == constants.FormatHTML {
		prefs.Format = constants.FormatHTML
	}
	if q.Get(constants.ViewQueryParam) == constants.ViewEssential {
		prefs.View = constants.ViewEssential
	}
	return prefs
}
