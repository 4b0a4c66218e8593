package core

import (
	"errors"

	"github.com/vovakirdan/agentroom-server/internal/proto"
)

// Error codes attached to log lines and close frames.
const (
	ErrCodeMalformedInput = "malformed_input"
	ErrCodeRoomClosed     = "room_closed"
	ErrCodeSessionClosed  = "session_closed"
	ErrCodePersistFailed  = "persist_failed"
)

var (
	// ErrMalformedInput is the codec's decode failure, re-exported for callers
	// of Room.Receive.
	ErrMalformedInput = proto.ErrMalformedInput
	ErrRoomClosed     = errors.New("room closed")
	ErrSessionClosed  = errors.New("session closed")
	ErrHubClosed      = errors.New("hub closed")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
	Err     error
}

func (e *CoreError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *CoreError) Unwrap() error {
	return e.Err
}

func coreError(code, msg string, err error) *CoreError {
	return &CoreError{Code: code, Message: msg, Err: err}
}

// ErrorCode extracts the code of a CoreError anywhere in the chain.
func ErrorCode(err error) string {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
