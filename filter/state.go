package filter

import "github.com/poiesic/recipesearch/core"

// Status is the phase of the controller's state machine.
type Status int

const (
	StatusIdle Status = iota
	StatusSearching
	StatusResults
	StatusNoResults
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusSearching:
		return "searching"
	case StatusResults:
		return "results"
	case StatusNoResults:
		return "no_results"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// Backend identifies which search path produced a state.
type Backend string

const (
	BackendNone   Backend = ""
	BackendLocal  Backend = "local"
	BackendRemote Backend = "remote"
)

// State is a snapshot of the controller.
type State struct {
	Status  Status
	Query   string
	Matches core.MatchSet
	// NoResults is set when a search finished with nothing above the threshold.
	NoResults bool
	// Error is the user-facing message of a failed search.
	Error string

	LocalEnabled bool
	// LocalFailed is set once the local model fails and stays set until
	// local mode is toggled back on.
	LocalFailed bool
	Backend     Backend
}

func (s State) clone() State {
	if s.Matches != nil {
		s.Matches = append(core.MatchSet(nil), s.Matches...)
	}
	return s
}

// Observer is notified of state changes. Calls are made without the
// controller's lock held, so an observer may call back into the controller.
type Observer interface {
	StateChanged(state State)
	BackendSwitched(message string)
}

type noopObserver struct{}

func (noopObserver) StateChanged(State)     {}
func (noopObserver) BackendSwitched(string) {}
