package domain

type SessionState int32

const (
	Handshake SessionState = iota
	Active
	Closing
	Closed
)

func (s SessionState) String() string {
	switch s {
	case Handshake:
		return "HANDSHAKE"
	case Active:
		return "ACTIVE"
	case Closing:
		return "CLOSING"
	case Closed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// LeaveReason tells why a session went into CLOSING.
type LeaveReason string

const (
	ReasonQuit     LeaveReason = "quit"
	ReasonEOF      LeaveReason = "eof"
	ReasonError    LeaveReason = "error"
	ReasonShutdown LeaveReason = "shutdown"
)
