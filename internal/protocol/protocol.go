package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
	TypeCmd     = "CMD"
	TypeResult  = "RESULT"
)

// Command ops.
const (
	OpReset             = "RESET"
	OpRegister          = "REGISTER"
	OpAdvance           = "ADVANCE"
	OpGetPosition       = "GET_POSITION"
	OpGetTickCount      = "GET_TICK_COUNT"
	OpGetPositionAtTick = "GET_POSITION_AT_TICK"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
