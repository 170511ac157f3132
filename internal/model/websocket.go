package model

// WebSocket message types
type WSMessageType string

const (
	WSMessageTypeProgress WSMessageType = "progress"
	WSMessageTypeComplete WSMessageType = "complete"
	WSMessageTypeError    WSMessageType = "error"
	WSMessageTypePing     WSMessageType = "ping"
	WSMessageTypePong     WSMessageType = "pong"
)

// WSMessage is the base message envelope
type WSMessage struct {
	Type WSMessageType `json:"type"`
}

// WSProgressMessage reports stage progress for a run
type WSProgressMessage struct {
	Type     WSMessageType `json:"type"`
	RunID    string        `json:"runId"`
	Stage    Stage         `json:"stage"`
	Progress int           `json:"progress"`
	Message  string        `json:"message,omitempty"`
}

// WSCompleteMessage carries the final run record
type WSCompleteMessage struct {
	Type   WSMessageType `json:"type"`
	RunID  string        `json:"runId"`
	Result interface{}   `json:"result"`
}

// WSError describes a run failure
type WSError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WSErrorMessage reports a run failure to subscribers
type WSErrorMessage struct {
	Type  WSMessageType `json:"type"`
	RunID string        `json:"runId"`
	Error WSError       `json:"error"`
}
