package session

// State is the lifecycle state of the relay session.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateHandshaking
	StateConnected
	StateReconnecting
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateHandshaking:
		return "handshaking"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Status is a point-in-time copy of the session.
type Status struct {
	State            State
	Address          string
	Attempt          int
	LastError        string
	AssignedClientID string
}

// Connected reports whether the session can carry clipboard updates.
func (s Status) Connected() bool {
	return s.State == StateConnected
}
