package flow

import (
	"context"
	"sync"

	"github.com/brizzai/starfetch/internal/auth/providers"
	"github.com/brizzai/starfetch/internal/logger"
	"github.com/brizzai/starfetch/internal/starred"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Exchanger trades an authorization code for an access token.
type Exchanger interface {
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error)
}

// Lister returns every starred repository visible to the credential.
type Lister interface {
	ListStarred(ctx context.Context, auth starred.AuthManager) ([]starred.Record, error)
}

var (
	_ Exchanger = (providers.Provider)(nil)
	_ Lister    = (*starred.Client)(nil)
)

// Runner creates flows. It holds no per-user state and is safe for
// concurrent use.
type Runner struct {
	exchanger Exchanger
	lister    Lister
}

func NewRunner(exchanger Exchanger, lister Lister) *Runner {
	return &Runner{exchanger: exchanger, lister: lister}
}

// Begin returns a flow that has just redirected the browser and waits for
// the provider callback. id correlates the log lines of one login.
func (r *Runner) Begin(id string) *Flow {
	f := &Flow{
		runner:  r,
		state:   StateStarted,
		history: []State{StateStarted},
		log:     logger.With(zap.String("flow_id", id)),
	}
	f.transition(StateAwaitingCallback)
	return f
}

// Flow is one login: a callback is completed at most once and the access
// token never leaves Complete.
type Flow struct {
	runner *Runner
	log    *zap.Logger

	mu      sync.Mutex
	state   State
	history []State
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// History returns every state the flow has been in, in order.
func (f *Flow) History() []State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]State(nil), f.history...)
}

// Complete handles the provider callback: it checks the code, runs verify
// (the state check, may be nil), exchanges the code and lists the starred
// repositories. Any failure is terminal and returned as *Error.
func (f *Flow) Complete(ctx context.Context, code string, verify func() error) ([]starred.Record, error) {
	if f.State() != StateAwaitingCallback {
		return nil, ErrFlowFinished
	}

	if code == "" {
		return nil, f.fail(ErrMissingCode, nil)
	}
	if verify != nil {
		if err := verify(); err != nil {
			return nil, f.fail(ErrStateMismatch, err)
		}
	}

	f.transition(StateExchangingToken)
	token, err := f.runner.exchanger.ExchangeCode(ctx, code)
	if err != nil {
		return nil, f.fail(ErrTokenExchange, err)
	}

	f.transition(StateFetchingResources)
	records, err := f.runner.lister.ListStarred(ctx, starred.BearerAuth(token.AccessToken))
	if err != nil {
		return nil, f.fail(ErrResourceFetch, err)
	}

	f.transition(StateDone)
	f.log.Info("Login flow finished", zap.Int("starred", len(records)))
	return records, nil
}

func (f *Flow) transition(to State) {
	f.mu.Lock()
	from := f.state
	f.state = to
	f.history = append(f.history, to)
	f.mu.Unlock()

	f.log.Debug("Flow transition", zap.Stringer("from", from), zap.Stringer("to", to))
}

func (f *Flow) fail(kind, cause error) error {
	flowErr := &Error{Kind: kind, State: f.State(), Err: cause}
	f.transition(StateFailed)
	f.log.Warn("Login flow failed",
		zap.Stringer("at", flowErr.State),
		zap.Error(flowErr),
	)
	return flowErr
}
