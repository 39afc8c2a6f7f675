package lifecycle

import "sync/atomic"

// State is the serving state of a single server.
type State int32

const (
	// Constructed: built from a listener, not yet accepting application traffic.
	Constructed State = iota
	// Running: accepting connections and dispatching to routes.
	Running
	// Stopped: Shutdown was called; the listener is closed.
	Stopped
)

func (s State) String() string {
	switch s {
	case Constructed:
		return "constructed"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// Tracker holds a State that can be read and advanced from any goroutine.
// The zero value is Constructed.
type Tracker struct {
	state atomic.Int32
}

// Load returns the current state.
func (t *Tracker) Load() State {
	return State(t.state.Load())
}

// Advance moves from -> to and reports whether the transition happened.
func (t *Tracker) Advance(from, to State) bool {
	return t.state.CompareAndSwap(int32(from), int32(to))
}

// Stop moves to Stopped from any state and returns the previous one.
func (t *Tracker) Stop() State {
	return State(t.state.Swap(int32(Stopped)))
}
