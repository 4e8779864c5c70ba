package flow

// State is the position of a login flow.
//
//	Started -> AwaitingCallback -> ExchangingToken -> FetchingResources -> Done
//
// Failed is reachable from every state except Done.
type State int

const (
	StateStarted State = iota
	StateAwaitingCallback
	StateExchangingToken
	StateFetchingResources
	StateDone
	StateFailed
)

var stateNames = map[State]string{
	StateStarted:           "started",
	StateAwaitingCallback:  "awaiting_callback",
	StateExchangingToken:   "exchanging_token",
	StateFetchingResources: "fetching_resources",
	StateDone:              "done",
	StateFailed:            "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
