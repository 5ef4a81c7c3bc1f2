package connection

type State int

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type EventType int

const (
	EventOpen EventType = iota
	EventMessage
	EventError
	EventClose
)

// Event is a transport notification for one connection attempt. Generation identifies the attempt
// so events from a superseded connection can be told apart.
type Event struct {
	Type       EventType
	Generation uint64

	Conn    Conn
	Payload []byte
	Err     error
}
