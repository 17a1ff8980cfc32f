package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	SessionID       string `json:"session_id"`
	EngineID        string `json:"engine_id"`
	Mode            string `json:"mode"`
	MoveMode        string `json:"move_mode"`
	Tick            uint64 `json:"tick"`
}

// CMD (client -> server). Fields not used by Op are ignored; EntityID is
// ignored by single-entity engines.
type CmdMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	ID              string  `json:"id"`
	Op              string  `json:"op"`
	EntityID        uint32  `json:"entity_id,omitempty"`
	X               float32 `json:"x,omitempty"`
	Y               float32 `json:"y,omitempty"`
	Direction       string  `json:"direction,omitempty"`
	TickIndex       uint64  `json:"tick_index,omitempty"`
}

// RESULT (server -> client)
type ResultMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	AckFor          string      `json:"ack_for"`
	OK              bool        `json:"ok"`
	Code            string      `json:"code,omitempty"`
	Message         string      `json:"message,omitempty"`
	TickCount       uint64      `json:"tick_count"`
	Pos             *[2]float32 `json:"pos,omitempty"`
}
