package core

// CommandKind describes a lifecycle event delivered to a room.
type CommandKind int

const (
	// CommandConnect replays the transcript to a session and adds it to the live set.
	CommandConnect CommandKind = iota
	// CommandReceive handles one raw payload sent by a session.
	CommandReceive
	// CommandDisconnect removes a session and announces its departure.
	CommandDisconnect
)

func (k CommandKind) String() string {
	switch k {
	case CommandConnect:
		return "connect"
	case CommandReceive:
		return "receive"
	case CommandDisconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}

// Command is one event queued on a room's mailbox.
type Command struct {
	Kind    CommandKind
	Session *Session
	Payload []byte

	done chan error
}
