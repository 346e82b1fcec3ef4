package supervisor

// State is the lifecycle state of a ManagedProcess.
//
//	NotStarted → Starting → Running → Terminating → Exited
//
// Starting may also move straight to Exited (crash during the grace window)
// or to Terminating (cleanup before the process was confirmed alive).
type State int

const (
	// StateNotStarted is the zero value, before spawn.
	StateNotStarted State = iota

	// StateStarting means the OS process exists but has not passed its
	// startup check.
	StateStarting

	// StateRunning means the process survived its grace window (and probe).
	StateRunning

	// StateTerminating means a stop signal has been sent.
	StateTerminating

	// StateExited means the OS reported the process gone.
	StateExited
)

// String returns a human-readable string for the state.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not started"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateTerminating:
		return "terminating"
	case StateExited:
		return "exited"
	default:
		return "unknown"
	}
}

// Active reports whether a process in this state can be terminated.
func (s State) Active() bool {
	return s == StateStarting || s == StateRunning
}
