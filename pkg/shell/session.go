package shell

// SessionState tracks one start-to-finish scraping run.
//
// Transitions: Idle -> Running on a successful start, Running -> Stopping
// when the operator requests cancellation, and Running/Stopping -> Idle when
// the engine delivers its terminal event. Idle is both the initial and the
// terminal state; there is no persistent "finished" state between sessions.
type SessionState int

const (
	StateIdle SessionState = iota
	StateRunning
	StateStopping
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// CanStart reports whether a new session may begin.
func (s SessionState) CanStart() bool {
	return s == StateIdle
}

// CanStop reports whether cancellation may be requested.
func (s SessionState) CanStop() bool {
	return s == StateRunning
}

// Active reports whether a session is in flight (running or winding down).
func (s SessionState) Active() bool {
	return s == StateRunning || s == StateStopping
}
